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

type contentDTO struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Name      string    `json:"name"`
	MediaType string    `json:"media_type"`
	Text      string    `json:"text,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (d contentDTO) domain() mind.ContentItem {
	return mind.ContentItem{
		ID:        d.ID,
		SessionID: d.SessionID,
		Name:      d.Name,
		MediaType: d.MediaType,
		Text:      d.Text,
		CreatedAt: d.CreatedAt,
	}
}

// IngestContent uploads one piece of source material into a session.
func (c *Client) IngestContent(ctx context.Context, sessionID string, item mind.ContentItem) (mind.ContentItem, error) {
	if strings.TrimSpace(item.Name) == "" {
		return mind.ContentItem{}, fmt.Errorf("api: content name is required: %w", mind.ErrValidation)
	}
	if item.Text == "" {
		return mind.ContentItem{}, fmt.Errorf("api: content text is required: %w", mind.ErrValidation)
	}
	req := struct {
		Name      string `json:"name"`
		MediaType string `json:"media_type"`
		Text      string `json:"text"`
	}{Name: item.Name, MediaType: item.MediaType, Text: item.Text}
	var resp contentDTO
	path := "/api/sessions/" + url.PathEscape(sessionID) + "/content"
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return mind.ContentItem{}, err
	}
	return resp.domain(), nil
}

// ListContent returns the content items attached to a session. Item text
// is omitted by the backend in listings.
func (c *Client) ListContent(ctx context.Context, sessionID string) ([]mind.ContentItem, error) {
	var resp struct {
		Items []contentDTO `json:"items"`
	}
	path := "/api/sessions/" + url.PathEscape(sessionID) + "/content"
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	items := make([]mind.ContentItem, len(resp.Items))
	for i, d := range resp.Items {
		items[i] = d.domain()
	}
	return items, nil
}

// DeleteContent removes one content item by ID.
func (c *Client) DeleteContent(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/content/"+url.PathEscape(id), nil, nil)
}
