package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"workout_coach/internal/models"
)

// TemplateRequest is the upsert payload for a response template. Omitted
// pattern and mode match any block; Active defaults to true.
type TemplateRequest struct {
	ID              string `json:"id" example:"rest-start-minimal"`
	EventType       string `json:"event_type" binding:"required" example:"rest_start"`
	Pattern         string `json:"pattern" example:"any"`
	Mode            string `json:"mode" example:"any"`
	ChatterLevel    string `json:"chatter_level" example:"minimal"`
	Locale          string `json:"locale" example:"en"`
	Text            string `json:"text" binding:"required" example:"Rest. {next_exercise} is next."`
	Priority        int    `json:"priority" example:"2"`
	CooldownSeconds int    `json:"cooldown_seconds" example:"15"`
	Active          *bool  `json:"active,omitempty"`
}

func (r TemplateRequest) toModel() models.ResponseTemplate {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return models.ResponseTemplate{
		ID:              r.ID,
		EventType:       models.EventType(r.EventType),
		Pattern:         r.Pattern,
		Mode:            r.Mode,
		ChatterLevel:    models.ChatterLevel(r.ChatterLevel),
		Locale:          r.Locale,
		TextTemplate:    r.Text,
		Priority:        r.Priority,
		CooldownSeconds: r.CooldownSeconds,
		Active:          active,
	}
}

// @Summary      List response templates
// @Tags         templates
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, templates"
// @Router       /api/v1/templates [get]
// @Security     BearerAuth
func (h *Handler) listTemplates(c *gin.Context) {
	ts := h.services.ListTemplates()
	c.JSON(http.StatusOK, gin.H{"count": len(ts), "templates": ts})
}

// @Summary      Create or replace a response template
// @Tags         templates
// @Accept       json
// @Produce      json
// @Param        body  body      TemplateRequest  true  "Template"
// @Success      200   {object}  models.ResponseTemplate
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/templates [post]
// @Security     BearerAuth
func (h *Handler) upsertTemplate(c *gin.Context) {
	var req TemplateRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	t, err := h.services.UpsertTemplate(c.Request.Context(), req.toModel())
	if err != nil {
		h.respondError(c, "template_upsert_failed", err, "template_id", req.ID)
		return
	}
	c.JSON(http.StatusOK, t)
}

// @Summary      Deactivate a response template
// @Tags         templates
// @Produce      json
// @Param        id   path      string  true  "Template id"
// @Success      200  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/templates/{id}/deactivate [post]
// @Security     BearerAuth
func (h *Handler) deactivateTemplate(c *gin.Context) {
	id := c.Param("id")
	if err := h.services.DeactivateTemplate(c.Request.Context(), id); err != nil {
		h.respondError(c, "template_deactivate_failed", err, "template_id", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deactivated", "id": id})
}
