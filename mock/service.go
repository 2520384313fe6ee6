package mock

import (
	"context"

	"github.com/researchmind/mind"
)

// Interface compliance checks.
var (
	_ mind.ChatService      = (*ChatService)(nil)
	_ mind.SessionService   = (*SessionService)(nil)
	_ mind.ContentService   = (*ContentService)(nil)
	_ mind.WorkspaceService = (*WorkspaceService)(nil)
	_ mind.AuditService     = (*AuditService)(nil)
)

// ChatService is a test double for mind.ChatService.
type ChatService struct {
	SendMessageFn func(ctx context.Context, sessionID, text string) (mind.MessageReceipt, error)
}

// SendMessage delegates to SendMessageFn.
func (s *ChatService) SendMessage(ctx context.Context, sessionID, text string) (mind.MessageReceipt, error) {
	return s.SendMessageFn(ctx, sessionID, text)
}

// SessionService is a test double for mind.SessionService.
type SessionService struct {
	ListSessionsFn  func(ctx context.Context) ([]mind.Session, error)
	CreateSessionFn func(ctx context.Context, title string) (mind.Session, error)
	GetSessionFn    func(ctx context.Context, id string) (mind.Session, error)
	RenameSessionFn func(ctx context.Context, id, title string) (mind.Session, error)
	DeleteSessionFn func(ctx context.Context, id string) error
}

// ListSessions delegates to ListSessionsFn.
func (s *SessionService) ListSessions(ctx context.Context) ([]mind.Session, error) {
	return s.ListSessionsFn(ctx)
}

// CreateSession delegates to CreateSessionFn.
func (s *SessionService) CreateSession(ctx context.Context, title string) (mind.Session, error) {
	return s.CreateSessionFn(ctx, title)
}

// GetSession delegates to GetSessionFn.
func (s *SessionService) GetSession(ctx context.Context, id string) (mind.Session, error) {
	return s.GetSessionFn(ctx, id)
}

// RenameSession delegates to RenameSessionFn.
func (s *SessionService) RenameSession(ctx context.Context, id, title string) (mind.Session, error) {
	return s.RenameSessionFn(ctx, id, title)
}

// DeleteSession delegates to DeleteSessionFn. Returns nil when unset.
func (s *SessionService) DeleteSession(ctx context.Context, id string) error {
	if s.DeleteSessionFn == nil {
		return nil
	}
	return s.DeleteSessionFn(ctx, id)
}

// ContentService is a test double for mind.ContentService.
type ContentService struct {
	IngestContentFn func(ctx context.Context, sessionID string, item mind.ContentItem) (mind.ContentItem, error)
	ListContentFn   func(ctx context.Context, sessionID string) ([]mind.ContentItem, error)
	DeleteContentFn func(ctx context.Context, id string) error
}

// IngestContent delegates to IngestContentFn.
func (s *ContentService) IngestContent(ctx context.Context, sessionID string, item mind.ContentItem) (mind.ContentItem, error) {
	return s.IngestContentFn(ctx, sessionID, item)
}

// ListContent delegates to ListContentFn.
func (s *ContentService) ListContent(ctx context.Context, sessionID string) ([]mind.ContentItem, error) {
	return s.ListContentFn(ctx, sessionID)
}

// DeleteContent delegates to DeleteContentFn. Returns nil when unset.
func (s *ContentService) DeleteContent(ctx context.Context, id string) error {
	if s.DeleteContentFn == nil {
		return nil
	}
	return s.DeleteContentFn(ctx, id)
}

// WorkspaceService is a test double for mind.WorkspaceService.
type WorkspaceService struct {
	WorkspaceFilesFn   func(ctx context.Context) ([]mind.WorkspaceFile, error)
	ReindexWorkspaceFn func(ctx context.Context) error
	WorkspaceStatusFn  func(ctx context.Context) (mind.WorkspaceStatus, error)
}

// WorkspaceFiles delegates to WorkspaceFilesFn.
func (s *WorkspaceService) WorkspaceFiles(ctx context.Context) ([]mind.WorkspaceFile, error) {
	return s.WorkspaceFilesFn(ctx)
}

// ReindexWorkspace delegates to ReindexWorkspaceFn. Returns nil when unset.
func (s *WorkspaceService) ReindexWorkspace(ctx context.Context) error {
	if s.ReindexWorkspaceFn == nil {
		return nil
	}
	return s.ReindexWorkspaceFn(ctx)
}

// WorkspaceStatus delegates to WorkspaceStatusFn.
func (s *WorkspaceService) WorkspaceStatus(ctx context.Context) (mind.WorkspaceStatus, error) {
	return s.WorkspaceStatusFn(ctx)
}

// AuditService is a test double for mind.AuditService.
type AuditService struct {
	AuditEntriesFn func(ctx context.Context, q mind.AuditQuery) (mind.AuditPage, error)
}

// AuditEntries delegates to AuditEntriesFn.
func (s *AuditService) AuditEntries(ctx context.Context, q mind.AuditQuery) (mind.AuditPage, error) {
	return s.AuditEntriesFn(ctx, q)
}
