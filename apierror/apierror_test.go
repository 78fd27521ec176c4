package apierror

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func responseWithBody(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestFromResponseDecodesWireFormat(t *testing.T) {
	resp := responseWithBody(
		http.StatusNotFound,
		`{"id":"app.user.missing_account.app_error","message":"Unable to find the user.","request_id":"abc123","status_code":404}`,
	)

	err := FromResponse(resp)
	if err.StatusCode() != http.StatusNotFound {
		t.Fatalf("Expected status code 404, got %d", err.StatusCode())
	}
	if err.ID() != "app.user.missing_account.app_error" {
		t.Fatalf("Unexpected error ID: %s", err.ID())
	}
	if err.RequestID() != "abc123" {
		t.Fatalf("Unexpected request ID: %s", err.RequestID())
	}
	if !strings.Contains(err.Error(), "Unable to find the user.") {
		t.Fatalf("Unexpected error message: %s", err.Error())
	}
	if !errors.Is(err, ErrNotFound) {
		t.Fatal("A 404 should unwrap to ErrNotFound")
	}
}

func TestFromResponseGarbageBody(t *testing.T) {
	resp := responseWithBody(http.StatusInternalServerError, "not json at all")

	err := FromResponse(resp)
	if err.StatusCode() != http.StatusInternalServerError {
		t.Fatalf("Expected status code 500, got %d", err.StatusCode())
	}
	if !errors.Is(err, ErrInternal) {
		t.Fatal("A 500 should unwrap to ErrInternal")
	}
	if !strings.Contains(err.Error(), http.StatusText(http.StatusInternalServerError)) {
		t.Fatalf("Expected the status text fallback, got: %s", err.Error())
	}
}

func TestFromResponseEmptyBody(t *testing.T) {
	resp := responseWithBody(http.StatusForbidden, "")

	err := FromResponse(resp)
	if !errors.Is(err, ErrForbidden) {
		t.Fatal("A 403 should unwrap to ErrForbidden")
	}
}

func TestSentinels(t *testing.T) {
	cases := []struct {
		statusCode int
		sentinel   error
	}{
		{http.StatusUnauthorized, ErrNoSession},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusBadRequest, ErrBadRequest},
		{http.StatusInternalServerError, ErrInternal},
		{http.StatusBadGateway, ErrInternal},
	}

	for _, c := range cases {
		if !errors.Is(New(c.statusCode, "boom"), c.sentinel) {
			t.Fatalf("Status %d should unwrap to %v", c.statusCode, c.sentinel)
		}
	}
}

func TestWriteToRoundTrip(t *testing.T) {
	recorder := httptest.NewRecorder()
	New(http.StatusForbidden, "You do not have the appropriate permissions.").
		WithID("api.context.permissions.app_error").
		WriteTo(recorder)

	if recorder.Code != http.StatusForbidden {
		t.Fatalf("Expected status code 403, got %d", recorder.Code)
	}

	decoded := FromResponse(recorder.Result())
	if decoded.ID() != "api.context.permissions.app_error" {
		t.Fatalf("Unexpected error ID after round trip: %s", decoded.ID())
	}
	if !errors.Is(decoded, ErrForbidden) {
		t.Fatal("Round-tripped error should unwrap to ErrForbidden")
	}
}
