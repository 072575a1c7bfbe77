// Package docs registers the OpenAPI document served at /swagger/doc.json.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "paths": {
        "/login": {
            "post": {
                "summary": "Exchange username and password for a bearer token",
                "security": [],
                "tags": ["auth"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}],
                "responses": {"200": {"description": "token, user and menu"}, "401": {"description": "invalid credentials or inactive account"}}
            }
        },
        "/healthz": {
            "get": {"summary": "Database health", "security": [], "tags": ["admin"], "responses": {"200": {"description": "ok"}, "503": {"description": "database unavailable"}}}
        },
        "/api/v1/logout": {"post": {"summary": "Revoke the current token", "tags": ["auth"], "responses": {"200": {"description": "logged out"}}}},
        "/api/v1/me": {"get": {"summary": "Current user", "tags": ["auth"], "responses": {"200": {"description": "user"}}}},
        "/api/v1/me/password": {"post": {"summary": "Change own password", "tags": ["auth"], "responses": {"200": {"description": "updated"}, "401": {"description": "wrong current password"}}}},
        "/api/v1/menu": {"get": {"summary": "Navigation entries for the caller's role", "tags": ["auth"], "responses": {"200": {"description": "menu"}}}},
        "/api/v1/users": {
            "get": {"summary": "List users (admin)", "tags": ["users"], "responses": {"200": {"description": "users"}}},
            "post": {"summary": "Create user (admin)", "tags": ["users"], "responses": {"201": {"description": "created"}, "409": {"description": "username or email taken"}}}
        },
        "/api/v1/users/{id}": {"put": {"summary": "Update user (admin)", "tags": ["users"], "responses": {"200": {"description": "updated"}}}},
        "/api/v1/users/{id}/deactivate": {"post": {"summary": "Deactivate user (admin)", "tags": ["users"], "responses": {"200": {"description": "deactivated"}}}},
        "/api/v1/users/{id}/password": {"post": {"summary": "Set user password (admin)", "tags": ["users"], "responses": {"200": {"description": "updated"}}}},
        "/api/v1/projects": {
            "get": {"summary": "Projects in the caller's scope", "tags": ["projects"], "responses": {"200": {"description": "projects"}}},
            "post": {"summary": "Create project (admin)", "tags": ["projects"], "responses": {"201": {"description": "created"}}}
        },
        "/api/v1/projects/geojson": {"get": {"summary": "Located projects as a GeoJSON FeatureCollection", "tags": ["projects"], "responses": {"200": {"description": "feature collection"}}}},
        "/api/v1/projects/{id}": {
            "get": {"summary": "Project", "tags": ["projects"], "responses": {"200": {"description": "project"}, "404": {"description": "missing or out of scope"}}},
            "put": {"summary": "Update project (admin)", "tags": ["projects"], "responses": {"200": {"description": "updated"}}},
            "delete": {"summary": "Delete project with reports, photos, costs and alerts (admin)", "tags": ["projects"], "responses": {"200": {"description": "deleted"}}}
        },
        "/api/v1/projects/{id}/site": {"post": {"summary": "Import the site outline from a KMZ/KML file (admin)", "tags": ["projects"], "responses": {"200": {"description": "location updated"}}}},
        "/api/v1/projects/{id}/access": {
            "get": {"summary": "Users granted access (admin)", "tags": ["projects"], "responses": {"200": {"description": "access rows"}}},
            "post": {"summary": "Grant access (admin)", "tags": ["projects"], "responses": {"201": {"description": "granted"}, "409": {"description": "already granted"}}}
        },
        "/api/v1/projects/{id}/access/{userId}": {"delete": {"summary": "Revoke access (admin)", "tags": ["projects"], "responses": {"200": {"description": "revoked"}}}},
        "/api/v1/projects/{id}/costs": {
            "get": {"summary": "Project costs", "tags": ["finance"], "responses": {"200": {"description": "costs"}}},
            "post": {"summary": "Record a cost, JSON or multipart with receipt", "tags": ["finance"], "responses": {"201": {"description": "created"}}}
        },
        "/api/v1/projects/{id}/finance": {"get": {"summary": "Totals, budget usage, cash flow and forecast", "tags": ["finance"], "responses": {"200": {"description": "summary"}}}},
        "/api/v1/projects/{id}/materials": {
            "get": {"summary": "Material deliveries", "tags": ["finance"], "responses": {"200": {"description": "materials"}}},
            "post": {"summary": "Record a delivery", "tags": ["finance"], "responses": {"201": {"description": "created"}}}
        },
        "/api/v1/projects/{id}/dashboard": {"get": {"summary": "Project dashboard, default last 30 days", "tags": ["reports"], "responses": {"200": {"description": "dashboard"}}}},
        "/api/v1/projects/{id}/monthly": {"get": {"summary": "Monthly summary", "tags": ["reports"], "responses": {"200": {"description": "summary"}}}},
        "/api/v1/projects/{id}/monthly/pdf": {"get": {"summary": "Monthly summary PDF", "tags": ["reports"], "produces": ["application/pdf"], "responses": {"200": {"description": "pdf"}}}},
        "/api/v1/projects/{id}/photos": {"get": {"summary": "Project photo gallery", "tags": ["photos"], "responses": {"200": {"description": "photos"}}}},
        "/api/v1/reports": {
            "get": {"summary": "Reports in scope, most recent first", "tags": ["reports"], "responses": {"200": {"description": "reports"}}},
            "post": {"summary": "Save the report of a day; updates the existing one for the same date and project", "tags": ["reports"], "responses": {"200": {"description": "updated"}, "201": {"description": "created"}}}
        },
        "/api/v1/reports/{id}": {
            "get": {"summary": "Report", "tags": ["reports"], "responses": {"200": {"description": "report"}}},
            "delete": {"summary": "Delete report and photos", "tags": ["reports"], "responses": {"200": {"description": "deleted"}}}
        },
        "/api/v1/reports/{id}/pdf": {"get": {"summary": "Report PDF", "tags": ["reports"], "produces": ["application/pdf"], "responses": {"200": {"description": "pdf"}}}},
        "/api/v1/reports/{id}/share": {"post": {"summary": "Send a report summary to the notification channels", "tags": ["reports"], "responses": {"200": {"description": "delivered channels"}, "503": {"description": "no channel configured"}}}},
        "/api/v1/reports/{id}/photos": {
            "get": {"summary": "Report photos, grouped by activity with grouped=true", "tags": ["photos"], "responses": {"200": {"description": "photos"}}},
            "post": {"summary": "Upload photos (multipart)", "tags": ["photos"], "consumes": ["multipart/form-data"], "responses": {"201": {"description": "uploaded"}}}
        },
        "/api/v1/photos/{id}": {"delete": {"summary": "Delete photo", "tags": ["photos"], "responses": {"200": {"description": "deleted"}}}},
        "/api/v1/photos/{id}/content": {"get": {"summary": "Photo bytes", "tags": ["photos"], "responses": {"200": {"description": "image"}}}},
        "/api/v1/alerts": {
            "get": {"summary": "Alerts in scope", "tags": ["alerts"], "responses": {"200": {"description": "alerts"}}},
            "post": {"summary": "Create an alert with a priority", "tags": ["alerts"], "responses": {"201": {"description": "created"}}}
        },
        "/api/v1/alerts/{id}/read": {"post": {"summary": "Mark alert read", "tags": ["alerts"], "responses": {"200": {"description": "read"}}}},
        "/api/v1/export": {"get": {"summary": "Export datasets as xlsx, csv (zip) or json", "tags": ["export"], "responses": {"200": {"description": "file"}, "403": {"description": "dataset not allowed for role"}}}},
        "/api/v1/admin/stats": {"get": {"summary": "Row counts, storage backend, notifier channels", "tags": ["admin"], "responses": {"200": {"description": "stats"}}}}
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {"username": {"type": "string"}, "password": {"type": "string"}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Sitelog API",
	Description:      "Construction site daily reports, photos, costs and alerts.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
