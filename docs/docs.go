// Package docs holds the OpenAPI description served under /swagger.
// Regenerate with: swag init -g cmd/api/main.go -o docs
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
        "/dashboard": {
            "get": {
                "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["Dashboard"],
                "summary": "Get the full dashboard",
                "parameters": [
                    {"enum": ["today", "yesterday", "week", "lastweek", "month", "lastmonth", "quarter", "year", "all", "custom"], "type": "string", "description": "Period preset", "name": "period", "in": "query"},
                    {"type": "string", "description": "Custom period start (YYYY-MM-DD)", "name": "start", "in": "query"},
                    {"type": "string", "description": "Custom period end (YYYY-MM-DD)", "name": "end", "in": "query"},
                    {"type": "string", "description": "Comma separated CRM user IDs", "name": "owners", "in": "query"},
                    {"type": "integer", "description": "Days without contact before a lead is late", "name": "retardThreshold", "in": "query"},
                    {"type": "integer", "description": "Days without contact before a lead is critical", "name": "criticalThreshold", "in": "query"},
                    {"type": "boolean", "description": "Skip leads with an open reminder", "name": "excludeWithReminder", "in": "query"},
                    {"type": "number", "description": "Target closing rate in percent", "name": "closingTarget", "in": "query"},
                    {"type": "string", "description": "Daily report date (YYYY-MM-DD)", "name": "date", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/domain.APIError"}}
                }
            }
        },
        "/dashboard/funnel": {
            "get": {
                "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["Dashboard"],
                "summary": "Get the lead and deal funnel",
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/dashboard/commercials": {
            "get": {
                "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["Dashboard"],
                "summary": "Get per-commercial scorecards",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"type": "object"}}}}
            }
        },
        "/dashboard/alerts": {
            "get": {
                "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["Dashboard"],
                "summary": "Get follow-up alerts",
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/dashboard/quality": {
            "get": {
                "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["Dashboard"],
                "summary": "Get data quality findings",
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/dashboard/hot-deals": {
            "get": {
                "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["Dashboard"],
                "summary": "Get hot deals",
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/dashboard/allocation": {
            "get": {
                "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["Dashboard"],
                "summary": "Get lead allocation recommendations",
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/dashboard/daily": {
            "get": {
                "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["Dashboard"],
                "summary": "Get the daily activity report",
                "parameters": [
                    {"type": "string", "description": "Report date (YYYY-MM-DD), defaults to today", "name": "date", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/sync": {
            "post": {
                "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["Sync"],
                "summary": "Trigger a CRM synchronization",
                "parameters": [
                    {"type": "boolean", "description": "Block until the run finishes", "name": "wait", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "202": {"description": "Accepted", "schema": {"type": "object"}},
                    "409": {"description": "A run is already in progress", "schema": {"$ref": "#/definitions/domain.APIError"}},
                    "502": {"description": "The CRM could not be reached", "schema": {"$ref": "#/definitions/domain.APIError"}},
                    "503": {"description": "Synchronization is not configured", "schema": {"$ref": "#/definitions/domain.APIError"}}
                }
            }
        },
        "/sync/status": {
            "get": {
                "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["Sync"],
                "summary": "Get synchronization status",
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/sync/runs": {
            "get": {
                "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["Sync"],
                "summary": "List recent synchronization runs",
                "parameters": [
                    {"type": "integer", "description": "Maximum runs to return (default 20, max 100)", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"type": "object"}}}}
            }
        },
        "/reports": {
            "get": {
                "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["Reports"],
                "summary": "List archived reports",
                "parameters": [
                    {"type": "string", "description": "Archive day (YYYY-MM-DD)", "name": "date", "in": "query", "required": true}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/reports/{date}/{id}": {
            "get": {
                "security": [{"BearerAuth": []}, {"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["Reports"],
                "summary": "Get an archived report",
                "parameters": [
                    {"type": "string", "description": "Archive day (YYYY-MM-DD)", "name": "date", "in": "path", "required": true},
                    {"type": "string", "format": "uuid", "description": "Report ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/domain.APIError"}}
                }
            }
        }
    },
    "definitions": {
        "domain.APIError": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "title": {"type": "string"},
                "status": {"type": "integer"},
                "detail": {"type": "string"},
                "errors": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {"description": "API key for system operations", "type": "apiKey", "name": "x-api-key", "in": "header"},
        "BearerAuth": {"description": "JWT Bearer token", "type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "CRM Sales Dashboard API",
	Description:      "Sales funnel, follow-up alerts, data quality and lead allocation computed from the CRM.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
