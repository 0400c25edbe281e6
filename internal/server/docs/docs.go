// Package docs holds the OpenAPI description served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "pagesnap Maintainers",
            "url": "https://github.com/raysh454/pagesnap"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/healthz": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/server.HealthResponse"}}
                }
            }
        },
        "/captures": {
            "get": {
                "produces": ["application/json"],
                "tags": ["captures"],
                "summary": "List catalogued captures, newest first",
                "parameters": [
                    {"type": "string", "description": "Only captures of this URL", "name": "url", "in": "query"},
                    {"type": "integer", "description": "Maximum entries", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/catalog.Entry"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/server.ErrorResponse"}},
                    "503": {"description": "Catalog disabled", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["captures"],
                "summary": "Capture a URL and wait for the result",
                "parameters": [
                    {"description": "Capture request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/server.CaptureRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/app.Outcome"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/server.ErrorResponse"}},
                    "502": {"description": "Capture failed", "schema": {"$ref": "#/definitions/server.ErrorResponse"}},
                    "504": {"description": "Navigation timed out", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/captures/latest": {
            "get": {
                "produces": ["application/json"],
                "tags": ["captures"],
                "summary": "Newest capture of a URL",
                "parameters": [
                    {"type": "string", "description": "Page URL", "name": "url", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/catalog.Entry"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/captures/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["captures"],
                "summary": "Get a catalogued capture",
                "parameters": [
                    {"type": "string", "description": "Capture ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/catalog.Entry"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/captures/{id}/screenshot": {
            "get": {
                "produces": ["image/png"],
                "tags": ["captures"],
                "summary": "Download the PNG of a capture",
                "parameters": [
                    {"type": "string", "description": "Capture ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "PNG image"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/captures/{id}/metadata": {
            "get": {
                "produces": ["application/json"],
                "tags": ["captures"],
                "summary": "Download the JSON sidecar of a capture",
                "parameters": [
                    {"type": "string", "description": "Capture ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/capture.Metadata"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/jobs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "List capture jobs",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/app.Job"}}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Start an asynchronous capture",
                "parameters": [
                    {"description": "Capture request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/server.CaptureRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/app.Job"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        },
        "/jobs/{jobID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["jobs"],
                "summary": "Get a capture job",
                "parameters": [
                    {"type": "string", "description": "Job ID", "name": "jobID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/app.Job"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["jobs"],
                "summary": "Cancel a capture job",
                "parameters": [
                    {"type": "string", "description": "Job ID", "name": "jobID", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/ws/captures": {
            "get": {
                "tags": ["jobs"],
                "summary": "Capture a URL and stream progress over a WebSocket",
                "parameters": [
                    {"type": "string", "description": "Page URL", "name": "url", "in": "query", "required": true},
                    {"type": "integer", "description": "Extra delay in seconds", "name": "wait_time", "in": "query"}
                ],
                "responses": {
                    "101": {"description": "Switching Protocols; messages are app.JobEvent"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/server.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "server.CaptureRequest": {
            "type": "object",
            "properties": {
                "url": {"type": "string", "example": "http://localhost:9999/lazy"},
                "wait_time": {"type": "integer", "example": 2}
            }
        },
        "server.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string", "example": "not found"}}
        },
        "server.HealthResponse": {
            "type": "object",
            "properties": {"status": {"type": "string", "example": "ok"}}
        },
        "capture.Metadata": {
            "type": "object",
            "properties": {
                "url": {"type": "string"},
                "timestamp": {"type": "string", "example": "20240305_140720"},
                "dimensions": {
                    "type": "object",
                    "properties": {"width": {"type": "integer"}, "height": {"type": "integer"}}
                },
                "metadata": {
                    "type": "object",
                    "properties": {
                        "title": {"type": "string"},
                        "url": {"type": "string"},
                        "user_agent": {"type": "string"}
                    }
                }
            }
        },
        "capture.Result": {
            "type": "object",
            "properties": {
                "screenshot_path": {"type": "string"},
                "json_path": {"type": "string"},
                "stem": {"type": "string"},
                "metadata": {"$ref": "#/definitions/capture.Metadata"},
                "viewport_width": {"type": "integer"},
                "viewport_height": {"type": "integer"},
                "scroll_passes": {"type": "integer"},
                "height_stable": {"type": "boolean"},
                "quiescence": {"type": "string", "enum": ["stable", "unstable", "check_failed"]},
                "extra_delay_ns": {"type": "integer"},
                "started_at": {"type": "string"},
                "duration_ns": {"type": "integer"}
            }
        },
        "catalog.Entry": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "url": {"type": "string"},
                "canonical_url": {"type": "string"},
                "final_url": {"type": "string"},
                "stem": {"type": "string"},
                "screenshot_path": {"type": "string"},
                "json_path": {"type": "string"},
                "width": {"type": "integer"},
                "height": {"type": "integer"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "lang": {"type": "string"},
                "image_count": {"type": "integer"},
                "link_count": {"type": "integer"},
                "script_count": {"type": "integer"},
                "word_count": {"type": "integer"},
                "duration_ms": {"type": "integer"},
                "prev_id": {"type": "string"},
                "drift_inserted": {"type": "integer"},
                "drift_deleted": {"type": "integer"},
                "drift_ratio": {"type": "number"},
                "captured_at": {"type": "string"}
            }
        },
        "app.Outcome": {
            "type": "object",
            "properties": {
                "result": {"$ref": "#/definitions/capture.Result"},
                "entry": {"$ref": "#/definitions/catalog.Entry"}
            }
        },
        "app.Job": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "url": {"type": "string"},
                "status": {"type": "string", "enum": ["pending", "running", "done", "failed", "canceled"]},
                "error": {"type": "string"},
                "started_at": {"type": "string"},
                "ended_at": {"type": "string"},
                "outcome": {"$ref": "#/definitions/app.Outcome"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "pagesnap API",
	Description:      "Full-page screenshot captures with JSON sidecars, a capture catalog and live progress.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
