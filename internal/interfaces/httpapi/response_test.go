package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/vitalabs/competition-engine/internal/usecase"
)

func TestWriteSuccess_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSuccess(context.Background(), rec, http.StatusOK, map[string]string{"status": "ok"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}

	if got, _ := body["success"].(bool); !got {
		t.Fatalf("expected success=true, got %v", body["success"])
	}
	if _, ok := body["data"]; !ok {
		t.Fatalf("expected data key in success response")
	}
	if _, ok := body["message"]; ok {
		t.Fatalf("did not expect message key when data is present")
	}
}

func TestWriteError_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, fmt.Errorf("%w: bad payload", usecase.ErrInvalidInput))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}

	if got, _ := body["success"].(bool); got {
		t.Fatalf("expected success=false, got %v", body["success"])
	}
	if got, _ := body["message"].(string); got != "invalid request" {
		t.Fatalf("expected message 'invalid request', got %v", got)
	}
}

func TestWriteError_DoesNotLeakInternalMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, fmt.Errorf("%w: db select failed: timeout", usecase.ErrDependencyUnavailable))

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}

	if got, _ := body["message"].(string); got != "dependency unavailable" {
		t.Fatalf("expected public message 'dependency unavailable', got %v", got)
	}
}

func TestMapError_StatusCodeTable(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w", usecase.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("%w", usecase.ErrUnauthorized), http.StatusUnauthorized},
		{fmt.Errorf("%w", usecase.ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("%w", usecase.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w", usecase.ErrConflict), http.StatusConflict},
		{fmt.Errorf("%w", usecase.ErrFatal), http.StatusInternalServerError},
	}

	for _, c := range cases {
		if got := mapError(c.err).HTTPStatus; got != c.want {
			t.Fatalf("mapError(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}
