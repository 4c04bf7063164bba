package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Kairos API",
        "description": "Timezone-aware group availability service",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login, token refresh and session management"},
        {"name": "Rules", "description": "Per-participant recurring and override availability rules"},
        {"name": "Availability", "description": "Resolved availability windows and group overlap"},
        {"name": "Exports", "description": "CSV/PDF exports of resolved availability"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Access and refresh tokens", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "responses": {
                    "200": {"description": "New token pair"},
                    "401": {"description": "Invalid or expired refresh token"}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Revoke refresh token",
                "responses": {
                    "204": {"description": "Logged out"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user info",
                "responses": {
                    "200": {"description": "User profile including default timezone"}
                }
            }
        },
        "/me/rules": {
            "get": {
                "tags": ["Rules"],
                "summary": "List my availability rules",
                "parameters": [
                    {"name": "tz", "in": "query", "type": "string", "description": "Display timezone; defaults to the profile zone"}
                ],
                "responses": {
                    "200": {"description": "Rules rendered in the requested timezone"}
                }
            },
            "post": {
                "tags": ["Rules"],
                "summary": "Create an availability rule",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RuleWriteRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created rule, normalized to UTC storage"},
                    "400": {"description": "Invalid time, timezone or off-grid minutes"}
                }
            }
        },
        "/me/rules/{id}": {
            "get": {
                "tags": ["Rules"],
                "summary": "Get one availability rule",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "tz", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Rule"},
                    "404": {"description": "Not found"}
                }
            },
            "put": {
                "tags": ["Rules"],
                "summary": "Replace an availability rule",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RuleWriteRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated rule"},
                    "403": {"description": "Rule belongs to another participant"}
                }
            },
            "delete": {
                "tags": ["Rules"],
                "summary": "Delete an availability rule",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/participants/{id}/availability": {
            "get": {
                "tags": ["Availability"],
                "summary": "Resolved availability for one participant",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "required": true, "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "required": true, "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "Per-date UTC availability ranges"},
                    "400": {"description": "Malformed or oversized date window"}
                }
            }
        },
        "/availability/group": {
            "get": {
                "tags": ["Availability"],
                "summary": "Overlap counts across participants",
                "parameters": [
                    {"name": "ids", "in": "query", "required": true, "type": "string", "description": "Comma-separated participant IDs"},
                    {"name": "from", "in": "query", "required": true, "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "required": true, "type": "string", "format": "date"}
                ],
                "responses": {
                    "200": {"description": "Per-date slots with the number of available participants"}
                }
            }
        },
        "/participants/{id}/availability/export": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export resolved availability",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "from", "in": "query", "required": true, "type": "string", "format": "date"},
                    {"name": "to", "in": "query", "required": true, "type": "string", "format": "date"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"], "default": "csv"}
                ],
                "responses": {
                    "200": {"description": "Signed download URL"},
                    "400": {"description": "Unknown export format"}
                }
            }
        },
        "/downloads/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download an exported file",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File contents"},
                    "403": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "RuleWriteRequest": {
            "type": "object",
            "required": ["rule_type", "start_time", "end_time", "timezone"],
            "properties": {
                "rule_type": {"type": "string", "enum": ["available_pattern", "blocked_pattern", "available_override", "blocked_override"]},
                "day_of_week": {"type": "integer", "minimum": 0, "maximum": 6, "description": "0=Sunday; required for patterns"},
                "specific_date": {"type": "string", "format": "date", "description": "Required for overrides"},
                "start_time": {"type": "string", "example": "17:00"},
                "end_time": {"type": "string", "example": "22:00"},
                "timezone": {"type": "string", "example": "America/Los_Angeles"},
                "reason": {"type": "string"},
                "source": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "limit": {"type": "integer"},
                "total": {"type": "integer"},
                "total_pages": {"type": "integer"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
