package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/researchmind/mind"
)

type sessionDTO struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (d sessionDTO) domain() mind.Session {
	return mind.Session{
		ID:           d.ID,
		Title:        d.Title,
		MessageCount: d.MessageCount,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

// ListSessions returns all research sessions, newest first per the
// backend's ordering.
func (c *Client) ListSessions(ctx context.Context) ([]mind.Session, error) {
	var resp struct {
		Sessions []sessionDTO `json:"sessions"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/sessions", nil, &resp); err != nil {
		return nil, err
	}
	sessions := make([]mind.Session, len(resp.Sessions))
	for i, d := range resp.Sessions {
		sessions[i] = d.domain()
	}
	return sessions, nil
}

// CreateSession creates a research session with the given title.
func (c *Client) CreateSession(ctx context.Context, title string) (mind.Session, error) {
	if strings.TrimSpace(title) == "" {
		return mind.Session{}, fmt.Errorf("api: session title is required: %w", mind.ErrValidation)
	}
	req := struct {
		Title string `json:"title"`
	}{Title: title}
	var resp sessionDTO
	if err := c.do(ctx, http.MethodPost, "/api/sessions", req, &resp); err != nil {
		return mind.Session{}, err
	}
	return resp.domain(), nil
}

// GetSession fetches one session by ID.
func (c *Client) GetSession(ctx context.Context, id string) (mind.Session, error) {
	var resp sessionDTO
	if err := c.do(ctx, http.MethodGet, "/api/sessions/"+url.PathEscape(id), nil, &resp); err != nil {
		return mind.Session{}, err
	}
	return resp.domain(), nil
}

// RenameSession updates a session's title.
func (c *Client) RenameSession(ctx context.Context, id, title string) (mind.Session, error) {
	if strings.TrimSpace(title) == "" {
		return mind.Session{}, fmt.Errorf("api: session title is required: %w", mind.ErrValidation)
	}
	req := struct {
		Title string `json:"title"`
	}{Title: title}
	var resp sessionDTO
	if err := c.do(ctx, http.MethodPatch, "/api/sessions/"+url.PathEscape(id), req, &resp); err != nil {
		return mind.Session{}, err
	}
	return resp.domain(), nil
}

// DeleteSession removes a session and its content.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/sessions/"+url.PathEscape(id), nil, nil)
}

// SendMessage submits a chat message to a session. The receipt names the
// stream to connect to for the response.
func (c *Client) SendMessage(ctx context.Context, sessionID, text string) (mind.MessageReceipt, error) {
	if strings.TrimSpace(text) == "" {
		return mind.MessageReceipt{}, fmt.Errorf("api: message text is required: %w", mind.ErrValidation)
	}
	req := struct {
		Content string `json:"content"`
	}{Content: text}
	var resp struct {
		MessageID  string `json:"message_id"`
		StreamPath string `json:"stream_path"`
	}
	path := "/api/sessions/" + url.PathEscape(sessionID) + "/messages"
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return mind.MessageReceipt{}, err
	}
	return mind.MessageReceipt{MessageID: resp.MessageID, StreamPath: resp.StreamPath}, nil
}
