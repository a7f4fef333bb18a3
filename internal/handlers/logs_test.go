package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"workout_coach/internal/models"
	"workout_coach/internal/service"
)

func doGet(t *testing.T, s *service.Service, url string) *httptest.ResponseRecorder {
	t.Helper()
	r := newTestRouter(s)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	return w
}

func TestLogsHandler_ListAndValidation(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	events := []models.EventRecord{
		{EventID: "e1", SessionID: "s1", OccurredAt: now, Type: "work_start", Description: "Go."},
		{EventID: "e2", SessionID: "s1", OccurredAt: now.Add(time.Second), Type: "rest_start", Description: "Rest."},
	}
	logs := &mockEventLog{resp: events}
	s := &service.Service{Authorization: &mockAuth{parseID: 99}, EventLog: logs}

	w := doGet(t, s, "/api/v1/logs/?from=notatime")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 invalid 'from', got %d", w.Code)
	}

	q := "/api/v1/logs/?from=" + now.Format(time.RFC3339) + "&to=" + now.Add(2*time.Second).Format(time.RFC3339) +
		"&type=Work_Start&session_id=s1"
	w = doGet(t, s, q)
	if w.Code != http.StatusOK {
		t.Fatalf("logs status=%d, body=%s", w.Code, w.Body.String())
	}
	var out struct {
		Count  int                  `json:"count"`
		Events []models.EventRecord `json:"events"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.Count != 2 || len(out.Events) != 2 {
		t.Fatalf("unexpected response: %+v", out)
	}
	if logs.lastFilter.Type != "Work_Start" || logs.lastFilter.SessionID != "s1" {
		t.Fatalf("unexpected filter: %+v", logs.lastFilter)
	}
	if !logs.lastFilter.From.Equal(now) {
		t.Fatalf("from = %v, want %v", logs.lastFilter.From, now)
	}
}

func TestLogsHandler_DateOnlyToCoversDay(t *testing.T) {
	logs := &mockEventLog{}
	s := &service.Service{Authorization: &mockAuth{}, EventLog: logs}

	w := doGet(t, s, "/api/v1/logs/?to=2025-08-31")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	want := time.Date(2025, 8, 31, 23, 59, 59, 999999999, time.UTC)
	if !logs.lastFilter.To.Equal(want) {
		t.Fatalf("to = %v, want %v", logs.lastFilter.To, want)
	}
}

func TestLogsHandler_ServiceValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"bad range", service.ErrInvalidTimeRange, http.StatusBadRequest},
		{"bad type", service.ErrInvalidEventType, http.StatusBadRequest},
		{"store failure", errStore, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := &service.Service{Authorization: &mockAuth{}, EventLog: &mockEventLog{err: tc.err}}
			w := doGet(t, s, "/api/v1/logs/")
			if w.Code != tc.want {
				t.Fatalf("status=%d, want %d", w.Code, tc.want)
			}
		})
	}
}
