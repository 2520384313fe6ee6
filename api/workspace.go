package api

import (
	"context"
	"net/http"
	"time"

	"github.com/researchmind/mind"
)

type workspaceFileDTO struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	Indexed   bool      `json:"indexed"`
	IndexedAt time.Time `json:"indexed_at"`
}

// WorkspaceFiles returns every file known to the workspace index.
func (c *Client) WorkspaceFiles(ctx context.Context) ([]mind.WorkspaceFile, error) {
	var resp struct {
		Files []workspaceFileDTO `json:"files"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/workspace/files", nil, &resp); err != nil {
		return nil, err
	}
	files := make([]mind.WorkspaceFile, len(resp.Files))
	for i, d := range resp.Files {
		files[i] = mind.WorkspaceFile{
			Path:      d.Path,
			Size:      d.Size,
			Indexed:   d.Indexed,
			IndexedAt: d.IndexedAt,
		}
	}
	return files, nil
}

// ReindexWorkspace asks the backend to rebuild the workspace index. The
// rebuild runs asynchronously; poll WorkspaceStatus for progress.
func (c *Client) ReindexWorkspace(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/workspace/reindex", nil, nil)
}

// WorkspaceStatus returns a summary of the workspace index.
func (c *Client) WorkspaceStatus(ctx context.Context) (mind.WorkspaceStatus, error) {
	var resp struct {
		TotalFiles   int       `json:"total_files"`
		IndexedFiles int       `json:"indexed_files"`
		PendingFiles int       `json:"pending_files"`
		LastRunAt    time.Time `json:"last_run_at"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/workspace/status", nil, &resp); err != nil {
		return mind.WorkspaceStatus{}, err
	}
	return mind.WorkspaceStatus{
		TotalFiles:   resp.TotalFiles,
		IndexedFiles: resp.IndexedFiles,
		PendingFiles: resp.PendingFiles,
		LastRunAt:    resp.LastRunAt,
	}, nil
}
