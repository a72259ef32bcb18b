package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gourl/idforge/internal/idgen"
	"github.com/gourl/idforge/internal/services"
)

// MockIDService is a mock implementation of services.IDService.
type MockIDService struct {
	mock.Mock
}

func (m *MockIDService) Formats() []idgen.FormatInfo {
	return idgen.Formats()
}

func (m *MockIDService) Generate(ctx context.Context, format string, count int) (*services.GenerateResult, error) {
	args := m.Called(ctx, format, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.GenerateResult), args.Error(1)
}

func (m *MockIDService) Inspect(ctx context.Context, format, id string) (*idgen.ParseResult, error) {
	args := m.Called(ctx, format, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*idgen.ParseResult), args.Error(1)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestIDHandler_ListFormats(t *testing.T) {
	handler := NewIDHandler(&MockIDService{})

	rec := httptest.NewRecorder()
	handler.ListFormats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/formats", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp FormatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	names := make([]string, 0, len(resp.Formats))
	for _, f := range resp.Formats {
		names = append(names, f.Name)
		assert.NotEmpty(t, f.DisplayName)
		assert.NotEmpty(t, f.Description)
	}
	assert.Equal(t, []string{"uuidv4", "uuidv7", "ulid", "nanoid", "cuid"}, names)
}

func TestIDHandler_GenerateGET(t *testing.T) {
	tests := []struct {
		name           string
		format         string
		query          string
		setupMock      func(*MockIDService)
		expectedStatus int
		expectedCode   string
		expectedIDs    int
	}{
		{
			name:   "default count",
			format: "ulid",
			setupMock: func(m *MockIDService) {
				m.On("Generate", mock.Anything, "ulid", 1).
					Return(&services.GenerateResult{Format: idgen.FormatULID, IDs: []string{"01HZX"}}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedIDs:    1,
		},
		{
			name:   "explicit count is passed through for clamping",
			format: "uuidv4",
			query:  "?count=150",
			setupMock: func(m *MockIDService) {
				ids := make([]string, 100)
				m.On("Generate", mock.Anything, "uuidv4", 150).
					Return(&services.GenerateResult{Format: idgen.FormatUUIDv4, IDs: ids}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedIDs:    100,
		},
		{
			name:           "non-integer count",
			format:         "ulid",
			query:          "?count=ten",
			setupMock:      func(m *MockIDService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_REQUEST",
		},
		{
			name:           "fractional count",
			format:         "ulid",
			query:          "?count=1.5",
			setupMock:      func(m *MockIDService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_REQUEST",
		},
		{
			name:   "unknown format",
			format: "snowflake",
			setupMock: func(m *MockIDService) {
				m.On("Generate", mock.Anything, "snowflake", 1).
					Return(nil, fmt.Errorf("%w: %q", idgen.ErrUnknownFormat, "snowflake"))
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "UNKNOWN_FORMAT",
		},
		{
			name:   "random source failure",
			format: "cuid",
			setupMock: func(m *MockIDService) {
				m.On("Generate", mock.Anything, "cuid", 1).
					Return(nil, fmt.Errorf("%w: device not ready", idgen.ErrRandomSourceUnavailable))
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedCode:   "RANDOM_SOURCE_UNAVAILABLE",
		},
		{
			name:   "unexpected error",
			format: "cuid",
			setupMock: func(m *MockIDService) {
				m.On("Generate", mock.Anything, "cuid", 1).Return(nil, errors.New("boom"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedCode:   "INTERNAL_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockIDService{}
			tt.setupMock(svc)
			handler := NewIDHandler(svc)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/ids/"+tt.format+tt.query, nil)
			req.SetPathValue("format", tt.format)
			rec := httptest.NewRecorder()

			handler.GenerateGET(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, rec).Code)
			} else {
				var resp GenerateResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
				assert.Equal(t, tt.format, resp.Format)
				assert.Equal(t, tt.expectedIDs, resp.Count)
				assert.Len(t, resp.IDs, tt.expectedIDs)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestIDHandler_GeneratePOST(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockIDService)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "format and count",
			body: `{"format":"nanoid","count":3}`,
			setupMock: func(m *MockIDService) {
				m.On("Generate", mock.Anything, "nanoid", 3).
					Return(&services.GenerateResult{Format: idgen.FormatNanoID, IDs: []string{"a", "b", "c"}}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "count omitted",
			body: `{"format":"uuidv7"}`,
			setupMock: func(m *MockIDService) {
				m.On("Generate", mock.Anything, "uuidv7", 1).
					Return(&services.GenerateResult{Format: idgen.FormatUUIDv7, IDs: []string{"x"}}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "zero count is clamped by the service",
			body: `{"format":"ulid","count":0}`,
			setupMock: func(m *MockIDService) {
				m.On("Generate", mock.Anything, "ulid", 0).
					Return(&services.GenerateResult{Format: idgen.FormatULID, IDs: []string{"x"}}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "malformed body",
			body:           `{"format":`,
			setupMock:      func(m *MockIDService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_REQUEST",
		},
		{
			name:           "string count",
			body:           `{"format":"ulid","count":"5"}`,
			setupMock:      func(m *MockIDService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_REQUEST",
		},
		{
			name:           "missing format",
			body:           `{"count":5}`,
			setupMock:      func(m *MockIDService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_REQUEST",
		},
		{
			name:           "oversized body",
			body:           `{"format":"` + strings.Repeat("a", maxBodyBytes) + `"}`,
			setupMock:      func(m *MockIDService) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "INVALID_REQUEST",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockIDService{}
			tt.setupMock(svc)
			handler := NewIDHandler(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/ids", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			handler.GeneratePOST(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, rec).Code)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestIDHandler_Inspect(t *testing.T) {
	t.Run("decodes fields", func(t *testing.T) {
		svc := &MockIDService{}
		svc.On("Inspect", mock.Anything, "cuid", "cabc").Return(&idgen.ParseResult{
			Format:       idgen.FormatCUID,
			Length:       4,
			HasTimestamp: true,
			TimestampMs:  1700000000000,
			HasCounter:   true,
			Counter:      0,
		}, nil)
		handler := NewIDHandler(svc)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/ids/cuid/inspect?id=cabc", nil)
		req.SetPathValue("format", "cuid")
		rec := httptest.NewRecorder()
		handler.Inspect(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, true, resp["valid"])
		assert.Equal(t, float64(1700000000000), resp["timestamp_ms"])
		assert.Equal(t, "2023-11-14T22:13:20Z", resp["timestamp"])
		assert.Equal(t, float64(0), resp["counter"], "zero counter must still be reported")
		assert.NotContains(t, resp, "uuid_version")
	})

	t.Run("invalid id", func(t *testing.T) {
		svc := &MockIDService{}
		svc.On("Inspect", mock.Anything, "uuidv4", "nope").
			Return(nil, fmt.Errorf("%w: expected 36 lowercase characters", idgen.ErrInvalidID))
		handler := NewIDHandler(svc)

		req := httptest.NewRequest(http.MethodGet, "/api/v1/ids/uuidv4/inspect?id=nope", nil)
		req.SetPathValue("format", "uuidv4")
		rec := httptest.NewRecorder()
		handler.Inspect(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "INVALID_ID", decodeError(t, rec).Code)
	})

	t.Run("missing id", func(t *testing.T) {
		handler := NewIDHandler(&MockIDService{})

		req := httptest.NewRequest(http.MethodGet, "/api/v1/ids/ulid/inspect", nil)
		req.SetPathValue("format", "ulid")
		rec := httptest.NewRecorder()
		handler.Inspect(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_REQUEST", decodeError(t, rec).Code)
	})
}

func TestMapErrorToResponse(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{idgen.ErrUnknownFormat, http.StatusBadRequest, "UNKNOWN_FORMAT"},
		{idgen.ErrInvalidID, http.StatusUnprocessableEntity, "INVALID_ID"},
		{idgen.ErrRandomSourceUnavailable, http.StatusServiceUnavailable, "RANDOM_SOURCE_UNAVAILABLE"},
		{services.ErrStatsUnavailable, http.StatusServiceUnavailable, "STATS_UNAVAILABLE"},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, "TIMEOUT"},
		{context.Canceled, http.StatusServiceUnavailable, "REQUEST_CANCELED"},
		{errors.New("other"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, resp := mapErrorToResponse(fmt.Errorf("wrapped: %w", tt.err))
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, resp.Code)
		})
	}
}
