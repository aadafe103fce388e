package zipline

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/dorogoy/zipline-mcp-sub003/internal/resilience"
	"github.com/dorogoy/zipline-mcp-sub003/internal/staging"
)

// Client talks to the remote file-hosting API. It is a thin collaborator:
// the sandbox core never depends on it.
type Client struct {
	resty   *resty.Client
	breaker *resilience.Breaker
}

// UploadOptions tune a single upload.
type UploadOptions struct {
	// Folder is the remote folder ID to file the upload under, if any.
	Folder string
	// Format overrides the remote naming format (e.g. "random", "name").
	Format string
}

// UploadedFile describes one file accepted by the remote host.
type UploadedFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// uploadResponse is the remote upload envelope.
type uploadResponse struct {
	Files []UploadedFile `json:"files"`
}

// RemoteFile describes a file listed by the remote host.
type RemoteFile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewClient creates a client for the host at endpoint authenticating with
// token.
func NewClient(endpoint, token string) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 3
	retryClient.RetryWaitMin = 1 * time.Second
	retryClient.RetryWaitMax = 15 * time.Second
	retryClient.Logger = nil

	restyClient := resty.New()
	restyClient.
		SetBaseURL(endpoint).
		SetHeader("Authorization", token).
		SetHeader("User-Agent", "zipline-mcp/1.0").
		SetTimeout(60 * time.Second).
		SetTransport(retryClient.HTTPClient.Transport)

	return &Client{
		resty: restyClient,
		breaker: resilience.New("zipline", resilience.Settings{
			FailureThreshold: 5,
			Cooldown:         30 * time.Second,
		}),
	}
}

// Upload sends a staged file to the remote host. The staged variant decides
// how the multipart body is built; a new variant must be handled here.
func (c *Client) Upload(ctx context.Context, staged *staging.StagedFile, opts UploadOptions) (*UploadedFile, error) {
	if err := c.breaker.Allow(); err != nil {
		return nil, err
	}

	name := filepath.Base(staged.OriginPath())
	req := c.resty.R().
		SetContext(ctx).
		// Some hosts reply with a bare text content type; the body is
		// JSON regardless.
		ForceContentType("application/json").
		SetResult(&uploadResponse{})

	switch staged.Variant() {
	case staging.VariantMemory:
		req.SetFileReader("file", name, bytes.NewReader(staged.Buffer()))
	case staging.VariantDisk:
		req.SetFile("file", staged.Path())
	default:
		// The admitted call never left the process. Free the breaker slot
		// without counting an outcome.
		c.breaker.Cancel()
		return nil, fmt.Errorf("unknown staged variant %d", staged.Variant())
	}

	if opts.Folder != "" {
		req.SetHeader("x-zipline-folder", opts.Folder)
	}
	if opts.Format != "" {
		req.SetHeader("x-zipline-format", opts.Format)
	}
	req.SetHeader("x-zipline-original-name", "true")

	resp, err := req.Post("/api/upload")
	c.breaker.Record(err)
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("upload failed: HTTP %d %s", resp.StatusCode(), resp.Status())
	}

	result := resp.Result().(*uploadResponse)
	if len(result.Files) == 0 {
		return nil, fmt.Errorf("upload succeeded but host returned no file record")
	}
	return &result.Files[0], nil
}

// ListFiles returns the caller's files on the remote host.
func (c *Client) ListFiles(ctx context.Context) ([]RemoteFile, error) {
	if err := c.breaker.Allow(); err != nil {
		return nil, err
	}

	var files []RemoteFile
	resp, err := c.resty.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetResult(&files).
		Get("/api/user/files")
	c.breaker.Record(err)
	if err != nil {
		return nil, fmt.Errorf("list failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("list failed: HTTP %d %s", resp.StatusCode(), resp.Status())
	}
	return files, nil
}

// DeleteFile removes a file on the remote host by ID.
func (c *Client) DeleteFile(ctx context.Context, id string) error {
	if err := c.breaker.Allow(); err != nil {
		return err
	}

	resp, err := c.resty.R().
		SetContext(ctx).
		Delete("/api/user/files/" + id)
	c.breaker.Record(err)
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("delete failed: HTTP %d %s", resp.StatusCode(), resp.Status())
	}
	return nil
}

// CreateFolder creates a remote folder and returns its ID.
func (c *Client) CreateFolder(ctx context.Context, name string) (string, error) {
	if err := c.breaker.Allow(); err != nil {
		return "", err
	}

	var folder struct {
		ID string `json:"id"`
	}
	resp, err := c.resty.R().
		SetContext(ctx).
		SetBody(map[string]string{"name": name}).
		ForceContentType("application/json").
		SetResult(&folder).
		Post("/api/user/folders")
	c.breaker.Record(err)
	if err != nil {
		return "", fmt.Errorf("folder creation failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("folder creation failed: HTTP %d %s", resp.StatusCode(), resp.Status())
	}
	return folder.ID, nil
}
