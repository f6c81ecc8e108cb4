package transport

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDoJSONExecutesExactlyOnce(t *testing.T) {
	t.Parallel()

	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("temporary"))
	}))
	defer srv.Close()

	client := New()
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}

	err = client.DoJSON(req, &struct{}{})
	if err == nil {
		t.Fatalf("expected error")
	}
	if attempts != 1 {
		t.Fatalf("expected exactly 1 attempt, got %d", attempts)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("unexpected status code: %d", apiErr.StatusCode)
	}
}

func TestDoJSONReturnsAPIErrorWithLimitedBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(strings.Repeat("a", 128)))
	}))
	defer srv.Close()

	client := New(WithErrorBodyLimit(16))
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}

	err = client.DoJSON(req, &struct{}{})
	if err == nil {
		t.Fatalf("expected error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status code: %d", apiErr.StatusCode)
	}
	if len(apiErr.Body) != 16 {
		t.Fatalf("expected limited body length 16, got %d", len(apiErr.Body))
	}
}

func TestAPIErrorParsesStructuredMessages(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errorMessages":["bad jql"],"errors":{"summary":"required"}}`))
	}))
	defer srv.Close()

	client := New()
	req, err := http.NewRequest(http.MethodPost, srv.URL, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}

	err = client.DoJSON(req, &struct{}{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if !apiErr.Rejected() {
		t.Fatalf("expected rejected classification")
	}
	if len(apiErr.ErrorMessages) != 1 || apiErr.ErrorMessages[0] != "bad jql" {
		t.Fatalf("unexpected error messages: %v", apiErr.ErrorMessages)
	}
	if apiErr.FieldErrors["summary"] != "required" {
		t.Fatalf("unexpected field errors: %v", apiErr.FieldErrors)
	}
}

func TestRejectedRequiresClientStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"errorMessages":["boom"]}`))
	}))
	defer srv.Close()

	client := New()
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}

	err = client.DoJSON(req, &struct{}{})
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.Rejected() {
		t.Fatalf("5xx must not classify as rejected")
	}
}

func TestDoAppliesBaseHeaders(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Test"); got != "abc" {
			t.Fatalf("expected X-Test header abc, got %q", got)
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	headers := http.Header{"X-Test": []string{"abc"}}
	client := New(WithBaseHeaders(headers))
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	_ = resp.Body.Close()
}
