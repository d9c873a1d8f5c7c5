// Package openapi embeds the HTTP API description served at /swagger/doc.json.
package openapi

import (
	_ "embed"
	"net/http"
)

//go:embed openapi.json
var doc []byte

// Handler serves the OpenAPI document.
func Handler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(doc)
}
