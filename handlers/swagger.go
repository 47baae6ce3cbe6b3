package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the documents API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>docflow - Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document describing the documents and lock endpoints.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "docflow", "version": "v1.0.0" },
  "paths": {
    "/api/documents": {
      "get": {
        "summary": "List document summaries",
        "parameters": [
          { "name": "page", "in": "query", "schema": { "type": "integer", "minimum": 0 } },
          { "name": "size", "in": "query", "schema": { "type": "integer", "minimum": 1 } }
        ],
        "responses": { "200": { "description": "page of summaries" }, "400": { "description": "invalid paging" } }
      },
      "post": {
        "summary": "Create a document",
        "requestBody": { "content": { "application/json": { "schema": { "type": "object", "properties": { "title": { "type": "string" }, "body": { "type": "string" } } } } } },
        "responses": { "201": { "description": "summary of the created document" } }
      }
    },
    "/api/documents/{id}": {
      "get": { "summary": "Get a document", "responses": { "200": { "description": "document" }, "404": { "description": "unknown document" } } },
      "put": {
        "summary": "Update title and body",
        "requestBody": { "content": { "application/json": { "schema": { "type": "object", "required": ["version"], "properties": { "title": { "type": "string" }, "body": { "type": "string" }, "version": { "type": "integer" } } } } } },
        "responses": {
          "200": { "description": "updated document" },
          "403": { "description": "document is validated" },
          "404": { "description": "unknown document" },
          "409": { "description": "stale version" },
          "423": { "description": "locked by another user" }
        }
      }
    },
    "/api/documents/{id}/status": {
      "put": {
        "summary": "Validate a document",
        "requestBody": { "content": { "text/plain": { "schema": { "type": "string", "enum": ["VALIDATED"] } } } },
        "responses": { "200": { "description": "validated document" }, "400": { "description": "unknown status" }, "403": { "description": "already validated" }, "404": { "description": "unknown document" } }
      }
    },
    "/api/documents/{id}/archive": {
      "get": { "summary": "Presigned URL of the validated snapshot", "responses": { "200": { "description": "url" }, "404": { "description": "no snapshot" } } }
    },
    "/api/documents/{id}/lock": {
      "get": { "summary": "Current lock", "responses": { "200": { "description": "lock" }, "204": { "description": "not locked" } } },
      "put": { "summary": "Acquire the lock", "responses": { "200": { "description": "lock held by caller" }, "423": { "description": "held by another user" } } },
      "delete": { "summary": "Release the lock", "responses": { "204": { "description": "released" }, "409": { "description": "not held by caller" } } }
    },
    "/api/v1/me": {
      "get": { "summary": "Get user info", "responses": { "200": { "description": "user" } } }
    },
    "/api/v1/users/{sub}": {
      "get": { "summary": "Look up a known user", "responses": { "200": { "description": "user" }, "404": { "description": "never seen" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
