package jira

// Issue is a single tracked work item: the tracker-assigned key plus the
// field map exactly as the tracker returned it. Issues are inert
// snapshots, never cached and never given behavior of their own.
type Issue struct {
	ID     string         `json:"id,omitempty"`
	Key    string         `json:"key,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
}

// SearchResult is one page of a JQL search.
type SearchResult struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	Issues     []Issue `json:"issues"`

	// ErrorMessages carries the tracker's own messages when it rejected
	// the query itself, in place of a hard error return. Transport and
	// auth failures stay hard errors.
	ErrorMessages []string `json:"errorMessages,omitempty"`
}

// Comment is a minimal Jira comment DTO.
type Comment struct {
	ID   string `json:"id"`
	Body string `json:"body,omitempty"`
}

// Attachment describes an uploaded Jira attachment.
type Attachment struct {
	ID       string `json:"id"`
	FileName string `json:"filename"`
	Size     int64  `json:"size,omitempty"`
}

// Transition is a workflow action currently available on an issue. The
// identifier is opaque and only valid for the issue's present workflow
// position, so it is never persisted across calls.
type Transition struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type transitionsResponse struct {
	Transitions []Transition `json:"transitions"`
}

// Myself describes the authenticated user.
type Myself struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Email       string `json:"emailAddress,omitempty"`
	Active      bool   `json:"active"`
}
