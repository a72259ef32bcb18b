package handlers

import (
	"embed"
	"net/http"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed openapi.yaml
var openAPISpec []byte

// DocsHandler handles API documentation endpoints.
type DocsHandler struct {
	specContent []byte
}

// NewDocsHandler creates a DocsHandler serving the bundled OpenAPI document.
func NewDocsHandler() *DocsHandler {
	return &DocsHandler{specContent: openAPISpec}
}

// NewDocsHandlerWithSpec creates a DocsHandler serving specContent instead.
func NewDocsHandlerWithSpec(specContent []byte) *DocsHandler {
	return &DocsHandler{specContent: specContent}
}

// ScalarUI serves the Scalar API documentation UI.
func (h *DocsHandler) ScalarUI(w http.ResponseWriter, r *http.Request) {
	html, err := templatesFS.ReadFile("templates/scalar.html")
	if err != nil {
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(html)
}

// OpenAPISpec serves the OpenAPI specification YAML file.
func (h *DocsHandler) OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	if len(h.specContent) == 0 {
		http.Error(w, "OpenAPI specification not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/x-yaml")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.specContent)
}
