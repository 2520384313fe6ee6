package mind

import "context"

// SessionService manages research sessions.
type SessionService interface {
	ListSessions(ctx context.Context) ([]Session, error)
	CreateSession(ctx context.Context, title string) (Session, error)
	GetSession(ctx context.Context, id string) (Session, error)
	RenameSession(ctx context.Context, id, title string) (Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// ChatService submits chat messages. The returned receipt's StreamPath
// identifies the response stream to connect to.
type ChatService interface {
	SendMessage(ctx context.Context, sessionID, text string) (MessageReceipt, error)
}

// ContentService ingests and manages session source material.
type ContentService interface {
	IngestContent(ctx context.Context, sessionID string, item ContentItem) (ContentItem, error)
	ListContent(ctx context.Context, sessionID string) ([]ContentItem, error)
	DeleteContent(ctx context.Context, id string) error
}

// WorkspaceService exposes the backend workspace index.
type WorkspaceService interface {
	WorkspaceFiles(ctx context.Context) ([]WorkspaceFile, error)
	ReindexWorkspace(ctx context.Context) error
	WorkspaceStatus(ctx context.Context) (WorkspaceStatus, error)
}

// AuditService reads the backend audit log.
type AuditService interface {
	AuditEntries(ctx context.Context, q AuditQuery) (AuditPage, error)
}
