package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gourl/idforge/internal/idgen"
	"github.com/gourl/idforge/internal/services"
)

// maxBodyBytes bounds POST /api/v1/ids request bodies.
const maxBodyBytes = 1 << 16

// FormatResponse describes one supported format.
type FormatResponse struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Description string `json:"description"`
}

// FormatsResponse is the body of GET /api/v1/formats.
type FormatsResponse struct {
	Formats []FormatResponse `json:"formats"`
}

// GenerateRequest is the body of POST /api/v1/ids.
type GenerateRequest struct {
	Format string `json:"format"`
	Count  *int   `json:"count,omitempty"`
}

// GenerateResponse carries generated identifiers in generation order.
type GenerateResponse struct {
	Format string   `json:"format"`
	Count  int      `json:"count"`
	IDs    []string `json:"ids"`
}

// InspectResponse carries the fields decoded from an identifier.
type InspectResponse struct {
	Format      string  `json:"format"`
	ID          string  `json:"id"`
	Valid       bool    `json:"valid"`
	Length      int     `json:"length"`
	TimestampMs *int64  `json:"timestamp_ms,omitempty"`
	Timestamp   *string `json:"timestamp,omitempty"`
	UUIDVersion int     `json:"uuid_version,omitempty"`
	UUIDVariant string  `json:"uuid_variant,omitempty"`
	Counter     *uint32 `json:"counter,omitempty"`
	Alphabet    string  `json:"alphabet,omitempty"`
}

// IDHandler handles identifier generation endpoints.
type IDHandler struct {
	service services.IDService
}

// NewIDHandler creates a new IDHandler.
func NewIDHandler(svc services.IDService) *IDHandler {
	return &IDHandler{service: svc}
}

// ListFormats handles GET /api/v1/formats requests.
func (h *IDHandler) ListFormats(w http.ResponseWriter, r *http.Request) {
	infos := h.service.Formats()
	resp := FormatsResponse{Formats: make([]FormatResponse, 0, len(infos))}
	for _, info := range infos {
		resp.Formats = append(resp.Formats, FormatResponse{
			Name:        info.Name.String(),
			DisplayName: info.DisplayName,
			Description: info.Description,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// GenerateGET handles GET /api/v1/ids/{format}?count=N requests.
func (h *IDHandler) GenerateGET(w http.ResponseWriter, r *http.Request) {
	count := 1
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			badRequest(w, "count must be an integer")
			return
		}
		count = n
	}

	h.generate(w, r, r.PathValue("format"), count)
}

// GeneratePOST handles POST /api/v1/ids requests.
func (h *IDHandler) GeneratePOST(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Format == "" {
		badRequest(w, "format is required")
		return
	}

	count := 1
	if req.Count != nil {
		count = *req.Count
	}

	h.generate(w, r, req.Format, count)
}

func (h *IDHandler) generate(w http.ResponseWriter, r *http.Request, format string, count int) {
	result, err := h.service.Generate(r.Context(), format, count)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, GenerateResponse{
		Format: result.Format.String(),
		Count:  len(result.IDs),
		IDs:    result.IDs,
	})
}

// Inspect handles GET /api/v1/ids/{format}/inspect?id=... requests.
func (h *IDHandler) Inspect(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		badRequest(w, "id is required")
		return
	}

	result, err := h.service.Inspect(r.Context(), r.PathValue("format"), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newInspectResponse(id, result))
}

func newInspectResponse(id string, result *idgen.ParseResult) InspectResponse {
	resp := InspectResponse{
		Format:      result.Format.String(),
		ID:          id,
		Valid:       true,
		Length:      result.Length,
		UUIDVersion: result.UUIDVersion,
		UUIDVariant: result.UUIDVariant,
		Alphabet:    result.Alphabet,
	}
	if result.HasTimestamp {
		ms := result.TimestampMs
		ts := time.UnixMilli(ms).UTC().Format(time.RFC3339Nano)
		resp.TimestampMs = &ms
		resp.Timestamp = &ts
	}
	if result.HasCounter {
		c := result.Counter
		resp.Counter = &c
	}
	return resp
}
