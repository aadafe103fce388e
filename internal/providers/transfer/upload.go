package transfer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dorogoy/zipline-mcp-sub003/internal/logging"
	"github.com/dorogoy/zipline-mcp-sub003/internal/staging"
	"github.com/dorogoy/zipline-mcp-sub003/internal/types"
	"github.com/dorogoy/zipline-mcp-sub003/internal/zipline"
)

// UploadFile stages a sandboxed file and sends it to the remote host. The
// sandbox lock is held for the whole stage-and-upload window and released
// on every exit path.
func (p *Provider) UploadFile(ctx context.Context, params map[string]interface{}, token string) (*types.Result, error) {
	name, err := GetString(params, "name", true)
	if err != nil {
		return Failure(err.Error())
	}
	folder, err := GetString(params, "folder", false)
	if err != nil {
		return Failure(err.Error())
	}
	format, err := GetString(params, "format", false)
	if err != nil {
		return Failure(err.Error())
	}

	root, err := p.resolver.EnsureRoot(token)
	if err != nil {
		return Failure(err.Error())
	}

	acquired, err := p.locks.Acquire(root, token)
	if err != nil {
		p.recordLock("error")
		return Failure(fmt.Sprintf("lock acquisition failed: %v", err))
	}
	if !acquired {
		p.recordLock("contended")
		return Success(map[string]interface{}{
			"uploaded": false,
			"locked":   true,
		})
	}
	p.recordLock("acquired")
	defer func() {
		if _, relErr := p.locks.Release(root, token); relErr != nil {
			p.log.Warn("lock release failed", logging.PathField(root), zap.Error(relErr))
		}
	}()

	target, err := p.paths.Resolve(root, name)
	if err != nil {
		return Failure(err.Error())
	}

	staged, err := p.stager.Stage(target)
	if err != nil {
		var secret *staging.SecretDetectedError
		if errors.As(err, &secret) {
			p.recordSecret()
		}
		return Failure(err.Error())
	}
	defer staged.Release()
	p.recordStaging(staged.Variant())

	uploaded, err := p.remote.Upload(ctx, staged, zipline.UploadOptions{
		Folder: folder,
		Format: format,
	})
	if err != nil {
		return Failure(fmt.Sprintf("upload failed: %v", err))
	}

	p.log.Info("file uploaded",
		zap.String("name", name),
		zap.String("remote_id", uploaded.ID),
		zap.String("variant", variantLabel(staged.Variant())))

	return Success(map[string]interface{}{
		"uploaded":     true,
		"id":           uploaded.ID,
		"name":         uploaded.Name,
		"url":          uploaded.URL,
		"variant":      variantLabel(staged.Variant()),
		"content_type": staged.ContentType(),
	})
}

func variantLabel(v staging.Variant) string {
	switch v {
	case staging.VariantMemory:
		return "memory"
	case staging.VariantDisk:
		return "disk"
	}
	return "unknown"
}

func (p *Provider) recordLock(outcome string) {
	if p.metrics != nil {
		p.metrics.LockAttempts.WithLabelValues(outcome).Inc()
	}
}

func (p *Provider) recordStaging(v staging.Variant) {
	if p.metrics != nil {
		p.metrics.RecordStaging(variantLabel(v))
	}
}

func (p *Provider) recordSecret() {
	if p.metrics != nil {
		p.metrics.SecretsDetected.Inc()
	}
}
