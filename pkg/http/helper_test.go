package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "roomkeeper/pkg/errors"
)

func TestExtractLimitOffset(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int64
		wantErr    bool
	}{
		{"defaults", "", 10, 0, false},
		{"explicit", "?limit=25&offset=50", 25, 50, false},
		{"limit capped", "?limit=5000", 100, 0, false},
		{"negative offset clamped", "?offset=-3", 10, 0, false},
		{"bad limit", "?limit=abc", 0, 0, true},
		{"bad offset", "?offset=xyz", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/v1/bookings"+tt.query, nil)
			limit, offset, err := ExtractLimitOffset(r)
			if tt.wantErr {
				if !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
					t.Fatalf("expected INVALID_INPUT, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if limit != tt.wantLimit || offset != tt.wantOffset {
				t.Errorf("got limit=%d offset=%d, want limit=%d offset=%d", limit, offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

func TestExtractDate(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x?from=2024-01-03&to=01/05/2024", nil)

	from, err := ExtractDate(r, "from")
	if err != nil || from == nil || from.Day() != 3 {
		t.Fatalf("expected parsed date, got %v (err %v)", from, err)
	}
	if _, err := ExtractDate(r, "to"); err == nil {
		t.Errorf("expected error for malformed date")
	}
	missing, err := ExtractDate(r, "until")
	if err != nil || missing != nil {
		t.Errorf("expected nil for missing parameter, got %v (err %v)", missing, err)
	}
}

func TestWriteError_MapsStatusAndHidesInternalCause(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"conflict", apperrors.Conflict("room taken"), http.StatusConflict, apperrors.CodeConflict},
		{"forbidden", apperrors.Forbidden("not yours"), http.StatusForbidden, apperrors.CodeForbidden},
		{"not found", apperrors.NotFound("Booking"), http.StatusNotFound, apperrors.CodeNotFound},
		{"plain error", http.ErrHandlerTimeout, http.StatusInternalServerError, apperrors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			if err := WriteError(w, tt.err); err != nil {
				t.Fatalf("WriteError: %v", err)
			}
			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			var body ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, body.Code)
			}
			if tt.wantCode == apperrors.CodeInternal && body.Error != "Internal server error" {
				t.Errorf("internal cause leaked: %q", body.Error)
			}
		})
	}
}
