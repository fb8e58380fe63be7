// Package docs registra el documento OpenAPI servido en /swagger/.
// Regenerar con: swag init -g cmd/api/main.go -o internal/docs
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
        "/documents": {
            "get": {"tags": ["documents"], "summary": "Listar mis documentos", "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "401": {"description": "unauthorized"}}},
            "post": {"tags": ["documents"], "summary": "Subir un PDF", "consumes": ["multipart/form-data"], "produces": ["application/json"],
                "parameters": [{"type": "file", "name": "file", "in": "formData", "required": true}, {"type": "string", "name": "title", "in": "formData"}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "invalid multipart / not a pdf"}, "401": {"description": "unauthorized"}, "413": {"description": "file too large"}}}
        },
        "/documents/{docID}": {
            "get": {"tags": ["documents"], "summary": "Ver metadata de un documento", "parameters": [{"type": "string", "name": "docID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "forbidden"}, "404": {"description": "document not found"}}},
            "delete": {"tags": ["documents"], "summary": "Borrar un documento", "parameters": [{"type": "string", "name": "docID", "in": "path", "required": true}],
                "responses": {"204": {"description": "no content"}, "403": {"description": "forbidden"}, "404": {"description": "document not found"}}}
        },
        "/documents/{docID}/content": {
            "get": {"tags": ["documents"], "summary": "Contenido del PDF", "produces": ["application/pdf"],
                "parameters": [{"type": "string", "name": "docID", "in": "path", "required": true}, {"type": "boolean", "name": "download", "in": "query"}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "forbidden"}, "404": {"description": "document not found"}}}
        },
        "/documents/{docID}/share": {
            "post": {"tags": ["sharing"], "summary": "Crear o regenerar el link público", "parameters": [{"type": "string", "name": "docID", "in": "path", "required": true}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "invalid input"}, "403": {"description": "forbidden"}, "404": {"description": "document not found"}}},
            "get": {"tags": ["sharing"], "summary": "Estado del link", "parameters": [{"type": "string", "name": "docID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "forbidden"}, "404": {"description": "document not found"}}},
            "delete": {"tags": ["sharing"], "summary": "Deshabilitar el link", "parameters": [{"type": "string", "name": "docID", "in": "path", "required": true}],
                "responses": {"204": {"description": "no content"}, "403": {"description": "forbidden"}}}
        },
        "/documents/{docID}/grants": {
            "get": {"tags": ["sharing"], "summary": "Listar grants", "parameters": [{"type": "string", "name": "docID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["sharing"], "summary": "Compartir con un usuario o email", "parameters": [{"type": "string", "name": "docID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "400": {"description": "invalid input"}}}
        },
        "/documents/{docID}/grants/{principal}": {
            "delete": {"tags": ["sharing"], "summary": "Revocar grant", "parameters": [{"type": "string", "name": "docID", "in": "path", "required": true}, {"type": "string", "name": "principal", "in": "path", "required": true}], "responses": {"204": {"description": "no content"}}}
        },
        "/documents/{docID}/permissions": {
            "get": {"tags": ["sharing"], "summary": "Permisos efectivos del caller", "parameters": [{"type": "string", "name": "docID", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "document not found"}}}
        },
        "/me/shared": {
            "get": {"tags": ["sharing"], "summary": "Documentos compartidos conmigo", "responses": {"200": {"description": "OK"}, "401": {"description": "unauthorized"}}}
        },
        "/s/{token}": {
            "get": {"tags": ["links"], "summary": "Abrir un link compartido",
                "parameters": [{"type": "string", "name": "token", "in": "path", "required": true}, {"type": "string", "name": "X-Share-Password", "in": "header"}, {"type": "string", "name": "X-Share-Session", "in": "header"}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "password_required / invalid_password"}, "403": {"description": "link_expired / access_limit_reached"}, "404": {"description": "not found"}, "429": {"description": "too many attempts"}}}
        },
        "/s/{token}/verify": {
            "post": {"tags": ["links"], "summary": "Verificar password del link", "parameters": [{"type": "string", "name": "token", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "invalid_password"}, "429": {"description": "too many attempts"}}}
        },
        "/s/{token}/content": {
            "get": {"tags": ["links"], "summary": "Contenido del PDF vía link", "produces": ["application/pdf"],
                "parameters": [{"type": "string", "name": "token", "in": "path", "required": true}, {"type": "boolean", "name": "download", "in": "query"}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "forbidden"}, "404": {"description": "not found"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "pdfshare API",
	Description:      "Documentos PDF, links compartidos y grants.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
