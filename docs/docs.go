// Package docs registers the swagger spec served under /swagger.
// Regenerate with: swag init -g cmd/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {"tags": ["system"], "summary": "Liveness probe", "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}}
        },
        "/auth/sign-up": {
            "post": {"tags": ["auth"], "summary": "Register a user", "consumes": ["application/json"], "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}
        },
        "/auth/sign-in": {
            "post": {"tags": ["auth"], "summary": "Issue an access token", "consumes": ["application/json"], "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}
        },
        "/api/v1/timeline/compile": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["workouts"], "summary": "Compile blocks into a timeline",
                "consumes": ["application/json"], "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/api/v1/workouts": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["workouts"], "summary": "List workouts", "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["workouts"], "summary": "Store a workout definition",
                "consumes": ["application/json"], "produces": ["application/json"],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/api/v1/workouts/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["workouts"], "summary": "Get a workout", "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/api/v1/exercises": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["exercises"], "summary": "List exercises", "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["exercises"], "summary": "Create or replace an exercise",
                "consumes": ["application/json"], "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/api/v1/exercises/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["exercises"], "summary": "Get an exercise", "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/api/v1/templates": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["templates"], "summary": "List response templates", "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["templates"], "summary": "Create or replace a response template",
                "consumes": ["application/json"], "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/api/v1/templates/{id}/deactivate": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["templates"], "summary": "Deactivate a response template",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/api/v1/sessions": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["sessions"], "summary": "Start a session",
                "consumes": ["application/json"], "produces": ["application/json"],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}}
        },
        "/api/v1/sessions/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["sessions"], "summary": "Get a session", "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/api/v1/sessions/{id}/{action}": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["sessions"], "summary": "Pause, resume, ready, complete-set or stop a session",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "string", "name": "action", "in": "path", "required": true,
                        "enum": ["pause", "resume", "ready", "complete-set", "stop"]}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}}
        },
        "/api/v1/sessions/{id}/sets": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["sessions"], "summary": "Log a performed set",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "404": {"description": "Not Found"}}}
        },
        "/api/v1/sessions/{id}/transcript": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["sessions"], "summary": "Submit a speech transcript",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}}
        },
        "/api/v1/logs/": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["logs"], "summary": "Query the coaching event log", "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "from", "in": "query"},
                    {"type": "string", "name": "to", "in": "query"},
                    {"type": "string", "name": "type", "in": "query"},
                    {"type": "string", "name": "session_id", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/ws/sessions/{id}": {
            "get": {"tags": ["sessions"], "summary": "Stream a live session",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"type": "string", "name": "interval", "in": "query"},
                    {"type": "string", "name": "access_token", "in": "query"}
                ],
                "responses": {"101": {"description": "Switching Protocols"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Workout Coach API",
	Description:      "Compiles workouts into timelines and coaches live sessions.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
