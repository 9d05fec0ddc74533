// Package docs registers the swagger document for the HTTP API. Regenerate
// with: swag init -g cmd/prodclass/docs.go -o internal/httpapi/docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "prodclass maintainers"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/classify": {
            "post": {
                "description": "Classification failures are reported in the error field of a 200 response.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["classify"],
                "summary": "Classify one product",
                "parameters": [
                    {
                        "description": "Product",
                        "name": "product",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/types.Product"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.Result"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/classify/batch": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["classify"],
                "summary": "Classify products with one model invocation",
                "parameters": [
                    {
                        "description": "Products",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/types.BatchRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.BatchResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/model": {
            "get": {
                "produces": ["application/json"],
                "tags": ["model"],
                "summary": "Model descriptor",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelInfo"}}
                }
            }
        },
        "/models": {
            "get": {
                "produces": ["application/json"],
                "tags": ["model"],
                "summary": "Models registered with the runtime",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ModelsResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["model"],
                "summary": "Latest resource snapshot",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ResourceSnapshot"}}
                }
            }
        }
    },
    "definitions": {
        "types.BatchRequest": {
            "type": "object",
            "properties": {
                "products": {"type": "array", "items": {"$ref": "#/definitions/types.Product"}}
            }
        },
        "types.BatchResponse": {
            "type": "object",
            "properties": {
                "results": {"type": "array", "items": {"$ref": "#/definitions/types.Result"}}
            }
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer", "example": 400},
                "error": {"type": "string", "example": "invalid JSON body"}
            }
        },
        "types.GPUInfo": {
            "type": "object",
            "properties": {
                "memory_total_mb": {"type": "integer", "example": 12282},
                "memory_used_mb": {"type": "integer", "example": 9120},
                "name": {"type": "string", "example": "NVIDIA GeForce RTX 4070 Ti"},
                "utilization_percent": {"type": "integer", "example": 87}
            }
        },
        "types.Model": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "example": "5a8c1f2d9e01"},
                "modified": {"type": "string", "example": "2 days ago"},
                "name": {"type": "string", "example": "t-pro-it-2.0-optimized:latest"},
                "size": {"type": "string", "example": "12 GB"}
            }
        },
        "types.ModelInfo": {
            "type": "object",
            "properties": {
                "categories": {"type": "array", "items": {"type": "string"}},
                "is_loaded": {"type": "boolean", "example": true},
                "method": {"type": "string", "example": "ollama"},
                "model_name": {"type": "string", "example": "t-pro-it-2.0-optimized"},
                "model_size_gb": {"type": "number", "example": 12.3},
                "platform": {"type": "string", "example": "linux"}
            }
        },
        "types.ModelsResponse": {
            "type": "object",
            "properties": {
                "models": {"type": "array", "items": {"$ref": "#/definitions/types.Model"}}
            }
        },
        "types.Product": {
            "type": "object",
            "properties": {
                "description": {"type": "string", "example": "Apple smartphone"},
                "name": {"type": "string", "example": "iPhone 15 Pro Max 256GB"}
            }
        },
        "types.ResourceSnapshot": {
            "type": "object",
            "properties": {
                "cpu_percent": {"type": "number", "example": 23.5},
                "gpu_info": {"type": "array", "items": {"$ref": "#/definitions/types.GPUInfo"}},
                "ram_percent": {"type": "number", "example": 61.2},
                "ram_total_gb": {"type": "number", "example": 31.7},
                "ram_used_gb": {"type": "number", "example": 19.4},
                "timestamp": {"type": "string"}
            }
        },
        "types.Result": {
            "type": "object",
            "properties": {
                "confidence": {"type": "number"},
                "error": {"type": "string"},
                "full_response": {"type": "string"},
                "method": {"type": "string"},
                "predicted_category": {"type": "string"},
                "processing_time": {"type": "number"},
                "product_name": {"type": "string"},
                "reasoning": {"type": "string"},
                "resources": {"$ref": "#/definitions/types.ResourceSnapshot"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "prodclass API",
	Description:      "Product listing classification backed by a local model runtime.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
