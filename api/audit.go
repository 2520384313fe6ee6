package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/researchmind/mind"
)

type auditEntryDTO struct {
	ID     string    `json:"id"`
	Actor  string    `json:"actor"`
	Action string    `json:"action"`
	Target string    `json:"target"`
	Detail string    `json:"detail,omitempty"`
	At     time.Time `json:"at"`
}

// AuditEntries returns one page of the backend audit log, newest first.
func (c *Client) AuditEntries(ctx context.Context, q mind.AuditQuery) (mind.AuditPage, error) {
	params := url.Values{}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Cursor != "" {
		params.Set("cursor", q.Cursor)
	}
	path := "/api/audit"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var resp struct {
		Entries    []auditEntryDTO `json:"entries"`
		NextCursor string          `json:"next_cursor"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return mind.AuditPage{}, err
	}

	page := mind.AuditPage{NextCursor: resp.NextCursor}
	page.Entries = make([]mind.AuditEntry, len(resp.Entries))
	for i, d := range resp.Entries {
		page.Entries[i] = mind.AuditEntry{
			ID:     d.ID,
			Actor:  d.Actor,
			Action: d.Action,
			Target: d.Target,
			Detail: d.Detail,
			At:     d.At,
		}
	}
	return page, nil
}
