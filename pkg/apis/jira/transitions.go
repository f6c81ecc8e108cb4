package jira

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	// closeTransitionName is the workflow action used by CloseIssue.
	closeTransitionName = "Close Issue"

	// defaultCloseComment is used when the caller provides no comment text.
	defaultCloseComment = "Issue closed by script"
)

// Transitions lists the workflow transitions currently available for an
// issue. The set depends on the issue's present workflow position, so the
// result is only valid until the issue moves.
func (s *IssuesService) Transitions(ctx context.Context, key string) ([]Transition, error) {
	if strings.TrimSpace(key) == "" {
		return nil, errors.New("jira: issue key is required")
	}

	path := "issue/" + url.PathEscape(key) + "/transitions"
	req, err := s.client.newRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var resp transitionsResponse
	if err := s.client.transport.DoJSON(req, &resp); err != nil {
		return nil, fmt.Errorf("jira: list transitions for %s: %w", key, err)
	}
	return resp.Transitions, nil
}

// resolveTransitionID maps a human transition name to the identifier valid
// for the issue's current workflow position. Matching is exact and
// case-sensitive; should the tracker ever list the same name twice, the
// last entry wins. An unmatched name leaves the identifier empty.
func (s *IssuesService) resolveTransitionID(ctx context.Context, key, name string) (string, error) {
	transitions, err := s.Transitions(ctx, key)
	if err != nil {
		return "", err
	}

	id := ""
	for _, t := range transitions {
		if t.Name == name {
			id = t.ID
		}
	}
	return id, nil
}

// TransitionIssue resolves name against the issue's current transitions
// and executes it. Extra payload keys (field updates, comment additions)
// are merged alongside the transition block. Resolution is a fresh lookup
// every call: the same name can map to different identifiers depending on
// where the issue sits in its workflow.
func (s *IssuesService) TransitionIssue(ctx context.Context, key, name string, extra map[string]any) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("jira: issue key is required")
	}
	if strings.TrimSpace(name) == "" {
		return errors.New("jira: transition name is required")
	}

	id, err := s.resolveTransitionID(ctx, key, name)
	if err != nil {
		return err
	}

	// An unmatched name sends an empty identifier on purpose: the tracker
	// rejects it, and that rejection surfaces like any other operation
	// failure rather than as a distinct error kind.
	payload := map[string]any{}
	for k, v := range extra {
		payload[k] = v
	}
	payload["transition"] = map[string]string{"id": id}

	path := "issue/" + url.PathEscape(key) + "/transitions"
	req, err := s.client.newRequest(ctx, http.MethodPost, path, nil, payload)
	if err != nil {
		return err
	}
	if err := s.client.doNoResponseBody(req); err != nil {
		return fmt.Errorf("jira: transition issue %s via %q: %w", key, name, err)
	}
	return nil
}

// CloseIssue drives an issue through the "Close Issue" transition, adding
// a closing comment and, when given, a resolution.
func (s *IssuesService) CloseIssue(ctx context.Context, key, resolution, comment string) error {
	if comment == "" {
		comment = defaultCloseComment
	}

	payload := map[string]any{
		"update": map[string]any{
			"comment": []map[string]any{
				{"add": map[string]any{"body": comment}},
			},
		},
	}
	if resolution != "" {
		payload["fields"] = map[string]any{
			"resolution": map[string]any{"name": resolution},
		}
	}

	return s.TransitionIssue(ctx, key, closeTransitionName, payload)
}
