package transfer

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/dorogoy/zipline-mcp-sub003/internal/download"
	"github.com/dorogoy/zipline-mcp-sub003/internal/types"
)

// DownloadURL fetches a remote resource into the caller's sandbox.
func (p *Provider) DownloadURL(ctx context.Context, params map[string]interface{}, token string) (*types.Result, error) {
	rawURL, err := GetString(params, "url", true)
	if err != nil {
		return Failure(err.Error())
	}

	opts := download.Options{}
	if ms := GetNumber(params, "timeout_ms", 0); ms > 0 {
		opts.Timeout = time.Duration(ms) * time.Millisecond
	}

	target, err := p.dl.Download(ctx, rawURL, token, opts)
	if err != nil {
		return Failure(err.Error())
	}

	info, err := os.Stat(target)
	if err != nil {
		return Failure(err.Error())
	}

	p.log.Info("url downloaded",
		zap.String("url", rawURL),
		zap.Int64("size", info.Size()))

	return Success(map[string]interface{}{
		"name": filepath.Base(target),
		"path": target,
		"size": info.Size(),
	})
}

// StatFile reports size and modification time for a sandboxed file.
func (p *Provider) StatFile(_ context.Context, params map[string]interface{}, token string) (*types.Result, error) {
	name, err := GetString(params, "name", true)
	if err != nil {
		return Failure(err.Error())
	}

	root, err := p.resolver.ResolveRoot(token)
	if err != nil {
		return Failure(err.Error())
	}

	target, err := p.paths.Resolve(root, name)
	if err != nil {
		return Failure(err.Error())
	}

	info, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return Failure("file not found: " + name)
		}
		return Failure(err.Error())
	}

	return Success(map[string]interface{}{
		"name":     name,
		"size":     info.Size(),
		"modified": info.ModTime().UTC().Format(time.RFC3339),
		"mode":     info.Mode().String(),
	})
}
