package mind

import "time"

// Session is a research session as the backend reports it.
type Session struct {
	ID           string
	Title        string
	MessageCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// MessageReceipt is the backend's acknowledgement of a sent chat message.
// StreamPath is the relative path of the response stream; feed it to the
// stream controller's Connect.
type MessageReceipt struct {
	MessageID  string
	StreamPath string
}

// ContentItem is a piece of ingested source material attached to a
// session.
type ContentItem struct {
	ID        string
	SessionID string
	Name      string
	MediaType string
	Text      string
	CreatedAt time.Time
}

// WorkspaceFile describes one file known to the workspace index.
type WorkspaceFile struct {
	Path      string
	Size      int64
	Indexed   bool
	IndexedAt time.Time
}

// WorkspaceStatus summarizes the workspace index.
type WorkspaceStatus struct {
	TotalFiles   int
	IndexedFiles int
	PendingFiles int
	LastRunAt    time.Time
}

// AuditEntry is one row of the backend audit log.
type AuditEntry struct {
	ID     string
	Actor  string
	Action string
	Target string
	Detail string
	At     time.Time
}

// AuditQuery selects a page of audit entries. A zero Limit means the
// backend default. Cursor is an opaque paging token from a prior page.
type AuditQuery struct {
	Limit  int
	Cursor string
}

// AuditPage is one page of audit entries. NextCursor is empty on the
// last page.
type AuditPage struct {
	Entries    []AuditEntry
	NextCursor string
}
