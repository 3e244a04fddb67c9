// Package docs registers the OpenAPI document served under /swagger.
package docs

import "github.com/swaggo/swag/v2"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/sync/products": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Push local product fields to one or more storefronts",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Push products",
                "operationId": "syncProducts",
                "parameters": [
                    {"description": "Products to push", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.SyncProductsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/sync/products/pull": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Import products by SKU from a storefront into the local catalog",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Pull products",
                "operationId": "pullProducts",
                "parameters": [
                    {"description": "SKUs to pull", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.PullProductsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/sync/products/pull-batch": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Pull a batch of products in variants or full mode",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Pull product batch",
                "operationId": "pullProductBatch",
                "parameters": [
                    {"description": "Batch request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.PullBatchRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/sync/products/publish": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Create a new product on the selected storefronts and record it locally",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Publish product",
                "operationId": "publishProduct",
                "parameters": [
                    {"type": "string", "description": "Idempotency key", "name": "Idempotency-Key", "in": "header"},
                    {"description": "Product draft", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.PublishProductRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/sync/products/{sku}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Delete a product from storefronts and optionally from the local catalog",
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Delete product",
                "operationId": "deleteProduct",
                "parameters": [
                    {"type": "string", "description": "Product SKU", "name": "sku", "in": "path", "required": true},
                    {"type": "array", "items": {"type": "string"}, "collectionFormat": "csv", "description": "Sites", "name": "sites", "in": "query"},
                    {"type": "boolean", "description": "Also delete locally", "name": "delete_local", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/sync/products/{sku}/variants/rebuild": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Delete and recreate every variation of a variable product on one site",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Rebuild variants",
                "operationId": "rebuildVariants",
                "parameters": [
                    {"type": "string", "description": "Product SKU", "name": "sku", "in": "path", "required": true},
                    {"description": "Rebuild request", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.RebuildVariantsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "428": {"description": "Precondition Required", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/sync/full": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Start a background import of the whole storefront catalog",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Start full pull",
                "operationId": "startFullPull",
                "parameters": [
                    {"description": "Site", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.FullPullRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/sync/full/progress": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Full pull progress",
                "operationId": "getFullPullProgress",
                "parameters": [
                    {"type": "string", "description": "Site code", "name": "site", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/sync/full/cancel": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Cancel full pull",
                "operationId": "cancelFullPull",
                "parameters": [
                    {"description": "Site", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.FullPullRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/sync/sites/ping": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Test every storefront connection",
                "operationId": "pingAllSites",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/sync/sites/{site}/ping": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Test a storefront connection",
                "operationId": "pingSite",
                "parameters": [
                    {"type": "string", "description": "Site code", "name": "site", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/sync/orders": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Sweep modified orders from one or all storefronts",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Sync orders",
                "operationId": "syncOrders",
                "parameters": [
                    {"description": "Sweep window", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/order.SyncOrdersRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/sync/orders/jobs": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "List sweep jobs",
                "operationId": "listSweepJobs",
                "parameters": [
                    {"type": "string", "description": "Site code", "name": "site", "in": "query"},
                    {"type": "integer", "description": "Max jobs", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Trigger a sweep",
                "operationId": "triggerSweep",
                "parameters": [
                    {"description": "Trigger request", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/handler.TriggerSweepRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/sync/orders/jobs/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Get sweep job",
                "operationId": "getSweepJob",
                "parameters": [
                    {"type": "string", "format": "uuid", "description": "Job ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/orders/{site}/{id}/status": {
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Update order status",
                "operationId": "updateOrderStatus",
                "parameters": [
                    {"type": "string", "description": "Site code", "name": "site", "in": "path", "required": true},
                    {"type": "integer", "description": "Remote order ID", "name": "id", "in": "path", "required": true},
                    {"description": "New status", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.UpdateOrderStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/orders/{site}/{id}/notes": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Add order note",
                "operationId": "addOrderNote",
                "parameters": [
                    {"type": "string", "description": "Site code", "name": "site", "in": "path", "required": true},
                    {"type": "integer", "description": "Remote order ID", "name": "id", "in": "path", "required": true},
                    {"description": "Note", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.AddOrderNoteRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/dto.Response"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/system/info": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "System information",
                "operationId": "getSystemInfo",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        },
        "/system/ping": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Ping",
                "operationId": "ping",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.Response"}}
                }
            }
        }
    },
    "definitions": {
        "dto.ErrorInfo": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "request_id": {"type": "string"},
                "details": {"type": "array", "items": {"type": "object"}}
            }
        },
        "dto.Response": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {},
                "error": {"$ref": "#/definitions/dto.ErrorInfo"},
                "meta": {"type": "object"}
            }
        },
        "handler.SyncProductsRequest": {
            "type": "object",
            "properties": {
                "sku": {"type": "string"},
                "skus": {"type": "array", "items": {"type": "string"}},
                "sites": {"type": "array", "items": {"type": "string"}},
                "fields": {"type": "array", "items": {"type": "string", "enum": ["name", "description", "categories", "prices", "stock", "status", "images"]}}
            }
        },
        "handler.PullProductsRequest": {
            "type": "object",
            "required": ["site", "skus"],
            "properties": {
                "skus": {"type": "array", "items": {"type": "string"}},
                "site": {"type": "string"}
            }
        },
        "handler.PullBatchRequest": {
            "type": "object",
            "required": ["site"],
            "properties": {
                "skus": {"type": "array", "items": {"type": "string"}},
                "site": {"type": "string"},
                "mode": {"type": "string", "enum": ["variants", "full"]}
            }
        },
        "handler.PublishProductRequest": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "sites": {"type": "array", "items": {"type": "string"}},
                "name": {"type": "string"},
                "description": {"type": "string"},
                "short_description": {"type": "string"},
                "images": {"type": "array", "items": {"type": "string"}},
                "categories": {"type": "array", "items": {"type": "string"}},
                "attributes": {"type": "object"},
                "price": {"type": "string"},
                "regular_price": {"type": "string"},
                "stock_quantity": {"type": "integer"},
                "status": {"type": "string", "enum": ["publish", "draft"]},
                "site_prices": {"type": "object", "additionalProperties": {"type": "string"}},
                "site_regular_prices": {"type": "object", "additionalProperties": {"type": "string"}},
                "site_content": {"type": "object"}
            }
        },
        "handler.RebuildVariantsRequest": {
            "type": "object",
            "required": ["site"],
            "properties": {
                "site": {"type": "string"},
                "confirm": {"type": "boolean"}
            }
        },
        "handler.FullPullRequest": {
            "type": "object",
            "required": ["site"],
            "properties": {
                "site": {"type": "string"}
            }
        },
        "order.SyncOrdersRequest": {
            "type": "object",
            "properties": {
                "site": {"type": "string"},
                "status": {"type": "string"},
                "after": {"type": "string", "format": "date-time"},
                "modified_after": {"type": "string", "format": "date-time"},
                "per_page": {"type": "integer"}
            }
        },
        "handler.TriggerSweepRequest": {
            "type": "object",
            "properties": {
                "site": {"type": "string"},
                "since": {"type": "string", "format": "date-time"}
            }
        },
        "handler.UpdateOrderStatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string"}
            }
        },
        "handler.AddOrderNoteRequest": {
            "type": "object",
            "required": ["note"],
            "properties": {
                "note": {"type": "string"},
                "customer_note": {"type": "boolean"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Bearer token authentication. Format: \"Bearer {token}\"",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "ShopSync API",
	Description:      "Multi-storefront product, category and order synchronisation",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
