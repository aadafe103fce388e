package transfer

import (
	"context"
	"time"

	"github.com/dorogoy/zipline-mcp-sub003/internal/types"
)

// ListRemote lists the caller's files on the remote host.
func (p *Provider) ListRemote(ctx context.Context) (*types.Result, error) {
	files, err := p.remote.ListFiles(ctx)
	if err != nil {
		return Failure(err.Error())
	}

	out := make([]interface{}, 0, len(files))
	for _, f := range files {
		out = append(out, map[string]interface{}{
			"id":      f.ID,
			"name":    f.Name,
			"size":    f.Size,
			"created": f.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return Success(map[string]interface{}{
		"files": out,
		"count": len(out),
	})
}

// DeleteRemote deletes a file on the remote host by ID.
func (p *Provider) DeleteRemote(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	id, err := GetString(params, "id", true)
	if err != nil {
		return Failure(err.Error())
	}

	if err := p.remote.DeleteFile(ctx, id); err != nil {
		return Failure(err.Error())
	}
	return Success(map[string]interface{}{
		"deleted": true,
		"id":      id,
	})
}

// CreateRemoteFolder creates a folder on the remote host and returns its ID.
func (p *Provider) CreateRemoteFolder(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	name, err := GetString(params, "name", true)
	if err != nil {
		return Failure(err.Error())
	}

	id, err := p.remote.CreateFolder(ctx, name)
	if err != nil {
		return Failure(err.Error())
	}
	return Success(map[string]interface{}{
		"created": true,
		"id":      id,
		"name":    name,
	})
}
