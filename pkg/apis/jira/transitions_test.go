package jira

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/opsbatch/trackerkit/pkg/transport"
)

func transitionsHandler(t *testing.T, listJSON string, onExecute func(t *testing.T, payload map[string]any) int) http.HandlerFunc {
	t.Helper()

	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/api/latest/issue/PROJ-1/transitions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}

		switch r.Method {
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(listJSON))
		case http.MethodPost:
			var payload map[string]any
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Fatalf("decode payload: %v", err)
			}
			w.WriteHeader(onExecute(t, payload))
		default:
			t.Fatalf("unexpected method: %s", r.Method)
		}
	}
}

func TestTransitionResolution(t *testing.T) {
	t.Parallel()

	const listJSON = `{"transitions":[
		{"id":"11","name":"Start Progress"},
		{"id":"21","name":"close issue"},
		{"id":"31","name":"Close Issue"},
		{"id":"41","name":"Close Issue"}
	]}`

	tests := []struct {
		name           string
		transitionName string
		wantID         string
	}{
		{name: "exact match", transitionName: "Start Progress", wantID: "11"},
		{name: "case sensitive", transitionName: "CLOSE ISSUE", wantID: ""},
		{name: "duplicate name takes last entry", transitionName: "Close Issue", wantID: "41"},
		{name: "no match leaves identifier empty", transitionName: "Reopen Issue", wantID: ""},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(transitionsHandler(t, listJSON, nil))
			defer srv.Close()

			client := newTestClient(t, srv.URL)
			id, err := client.Issues().resolveTransitionID(context.Background(), "PROJ-1", tc.transitionName)
			if err != nil {
				t.Fatalf("resolveTransitionID: %v", err)
			}
			if id != tc.wantID {
				t.Fatalf("unexpected transition ID: got %q, want %q", id, tc.wantID)
			}
		})
	}
}

func TestTransitionIssueUnmatchedNameSurfacesRejection(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(transitionsHandler(t,
		`{"transitions":[{"id":"11","name":"Resolve Issue"}]}`,
		func(t *testing.T, payload map[string]any) int {
			transition, ok := payload["transition"].(map[string]any)
			if !ok {
				t.Fatalf("transition block is required")
			}
			if transition["id"] != "" {
				t.Fatalf("unmatched name must send an empty identifier, got %v", transition["id"])
			}
			return http.StatusBadRequest
		}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	err := client.Issues().TransitionIssue(context.Background(), "PROJ-1", "Start Progress", nil)
	if err == nil {
		t.Fatalf("expected operation failure")
	}

	var apiErr *transport.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %T", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status code: %d", apiErr.StatusCode)
	}
}

func TestCloseIssuePayloadWithResolution(t *testing.T) {
	t.Parallel()

	executed := false
	srv := httptest.NewServer(transitionsHandler(t,
		`{"transitions":[{"id":"2","name":"Close Issue"}]}`,
		func(t *testing.T, payload map[string]any) int {
			executed = true

			transition := payload["transition"].(map[string]any)
			if transition["id"] != "2" {
				t.Fatalf("unexpected transition id: %v", transition["id"])
			}

			fields, ok := payload["fields"].(map[string]any)
			if !ok {
				t.Fatalf("fields block is required")
			}
			resolution := fields["resolution"].(map[string]any)
			if resolution["name"] != "Fixed" {
				t.Fatalf("unexpected resolution: %v", resolution["name"])
			}

			update := payload["update"].(map[string]any)
			comments := update["comment"].([]any)
			add := comments[0].(map[string]any)["add"].(map[string]any)
			if add["body"] != "done" {
				t.Fatalf("unexpected comment body: %v", add["body"])
			}
			return http.StatusNoContent
		}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	if err := client.Issues().CloseIssue(context.Background(), "PROJ-1", "Fixed", "done"); err != nil {
		t.Fatalf("CloseIssue: %v", err)
	}
	if !executed {
		t.Fatalf("transition was never executed")
	}
}

func TestCloseIssueDefaults(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(transitionsHandler(t,
		`{"transitions":[{"id":"2","name":"Close Issue"}]}`,
		func(t *testing.T, payload map[string]any) int {
			if _, ok := payload["fields"]; ok {
				t.Fatalf("fields block must be omitted without a resolution")
			}

			update := payload["update"].(map[string]any)
			comments := update["comment"].([]any)
			add := comments[0].(map[string]any)["add"].(map[string]any)
			if add["body"] != "Issue closed by script" {
				t.Fatalf("unexpected default comment: %v", add["body"])
			}
			return http.StatusNoContent
		}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	if err := client.Issues().CloseIssue(context.Background(), "PROJ-1", "", ""); err != nil {
		t.Fatalf("CloseIssue: %v", err)
	}
}

func TestTransitionsAreFetchedFreshPerCall(t *testing.T) {
	t.Parallel()

	lookups := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			lookups++
			w.Header().Set("Content-Type", "application/json")
			// Identifier changes between lookups, as it can on a real
			// workflow once the issue has moved.
			if lookups == 1 {
				_, _ = w.Write([]byte(`{"transitions":[{"id":"11","name":"Close Issue"}]}`))
			} else {
				_, _ = w.Write([]byte(`{"transitions":[{"id":"99","name":"Close Issue"}]}`))
			}
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	for i := 0; i < 2; i++ {
		if err := client.Issues().TransitionIssue(context.Background(), "PROJ-1", "Close Issue", nil); err != nil {
			t.Fatalf("TransitionIssue: %v", err)
		}
	}
	if lookups != 2 {
		t.Fatalf("expected a fresh lookup per call, got %d", lookups)
	}
}
