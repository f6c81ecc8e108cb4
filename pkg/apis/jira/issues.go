package jira

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
)

// IssuesService provides Jira issue operations.
type IssuesService struct {
	client *Client
}

// CreateIssue opens a new issue and returns the tracker's snapshot of it.
func (s *IssuesService) CreateIssue(ctx context.Context, project, issueType, summary, description string) (*Issue, error) {
	if strings.TrimSpace(project) == "" {
		return nil, errors.New("jira: project key is required")
	}
	if strings.TrimSpace(issueType) == "" {
		return nil, errors.New("jira: issue type is required")
	}
	if strings.TrimSpace(summary) == "" {
		return nil, errors.New("jira: summary is required")
	}

	payload := map[string]any{
		"fields": map[string]any{
			"summary":     summary,
			"description": description,
			"issuetype":   map[string]string{"name": issueType},
			"project":     map[string]string{"key": project},
		},
	}

	req, err := s.client.newRequest(ctx, http.MethodPost, "issue/", nil, payload)
	if err != nil {
		return nil, err
	}

	var issue Issue
	if err := s.client.transport.DoJSON(req, &issue); err != nil {
		return nil, fmt.Errorf("jira: create issue %q in %s: %w", summary, project, err)
	}
	return &issue, nil
}

// GetIssue returns a fresh snapshot of an issue. Fields come back exactly
// as the tracker sent them, with no projection into a narrower shape.
func (s *IssuesService) GetIssue(ctx context.Context, key string) (*Issue, error) {
	if strings.TrimSpace(key) == "" {
		return nil, errors.New("jira: issue key is required")
	}

	req, err := s.client.newRequest(ctx, http.MethodGet, "issue/"+url.PathEscape(key), nil, nil)
	if err != nil {
		return nil, err
	}

	var issue Issue
	if err := s.client.transport.DoJSON(req, &issue); err != nil {
		return nil, fmt.Errorf("jira: get issue %s: %w", key, err)
	}
	return &issue, nil
}

// UpdateIssue sets issue fields from the caller's field map. The map is
// wrapped verbatim; field legality is left to the tracker.
func (s *IssuesService) UpdateIssue(ctx context.Context, key string, fields map[string]any) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("jira: issue key is required")
	}
	if len(fields) == 0 {
		return errors.New("jira: at least one field is required")
	}

	payload := map[string]any{"fields": fields}
	req, err := s.client.newRequest(ctx, http.MethodPut, "issue/"+url.PathEscape(key), nil, payload)
	if err != nil {
		return err
	}
	if err := s.client.doNoResponseBody(req); err != nil {
		return fmt.Errorf("jira: update issue %s: %w", key, err)
	}
	return nil
}

// DeleteIssue removes an issue.
func (s *IssuesService) DeleteIssue(ctx context.Context, key string) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("jira: issue key is required")
	}

	req, err := s.client.newRequest(ctx, http.MethodDelete, "issue/"+url.PathEscape(key), nil, nil)
	if err != nil {
		return err
	}
	if err := s.client.doNoResponseBody(req); err != nil {
		return fmt.Errorf("jira: delete issue %s: %w", key, err)
	}
	return nil
}

// CreateComment adds a comment to an issue.
func (s *IssuesService) CreateComment(ctx context.Context, key, text string) (*Comment, error) {
	if strings.TrimSpace(key) == "" {
		return nil, errors.New("jira: issue key is required")
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("jira: comment text is required")
	}

	payload := map[string]any{"body": text}
	req, err := s.client.newRequest(ctx, http.MethodPost, "issue/"+url.PathEscape(key)+"/comment", nil, payload)
	if err != nil {
		return nil, err
	}

	var comment Comment
	if err := s.client.transport.DoJSON(req, &comment); err != nil {
		return nil, fmt.Errorf("jira: comment on issue %s: %w", key, err)
	}
	return &comment, nil
}

// AddAttachment uploads an attachment to an issue. The content reader is
// consumed fully; opening and closing files is the caller's business.
func (s *IssuesService) AddAttachment(ctx context.Context, key, filename string, content io.Reader) (*Attachment, error) {
	if strings.TrimSpace(key) == "" {
		return nil, errors.New("jira: issue key is required")
	}
	if strings.TrimSpace(filename) == "" {
		return nil, errors.New("jira: filename is required")
	}

	var payload bytes.Buffer
	writer := multipart.NewWriter(&payload)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("jira: create multipart file part: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("jira: write attachment content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("jira: close multipart writer: %w", err)
	}

	path := "issue/" + url.PathEscape(key) + "/attachments"
	req, err := s.client.newRawRequest(ctx, http.MethodPost, path, nil, payload.Bytes(), writer.FormDataContentType())
	if err != nil {
		return nil, err
	}
	// Required by Jira to bypass the XSRF check on multipart uploads.
	req.Header.Set("X-Atlassian-Token", "no-check")

	var attachments []Attachment
	if err := s.client.transport.DoJSON(req, &attachments); err != nil {
		return nil, fmt.Errorf("jira: attach %s to issue %s: %w", filename, key, err)
	}
	if len(attachments) == 0 {
		return &Attachment{}, nil
	}
	return &attachments[0], nil
}
