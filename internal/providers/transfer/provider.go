package transfer

import (
	"context"
	"fmt"

	"github.com/dorogoy/zipline-mcp-sub003/internal/download"
	"github.com/dorogoy/zipline-mcp-sub003/internal/logging"
	"github.com/dorogoy/zipline-mcp-sub003/internal/monitoring"
	"github.com/dorogoy/zipline-mcp-sub003/internal/sandbox"
	"github.com/dorogoy/zipline-mcp-sub003/internal/staging"
	"github.com/dorogoy/zipline-mcp-sub003/internal/types"
	"github.com/dorogoy/zipline-mcp-sub003/internal/zipline"
)

// RemoteHost is the remote file-hosting API surface the provider needs.
// Satisfied by zipline.Client.
type RemoteHost interface {
	Upload(ctx context.Context, staged *staging.StagedFile, opts zipline.UploadOptions) (*zipline.UploadedFile, error)
	ListFiles(ctx context.Context) ([]zipline.RemoteFile, error)
	DeleteFile(ctx context.Context, id string) error
	CreateFolder(ctx context.Context, name string) (string, error)
}

// Provider exposes file transfer and sandbox tools to the calling agent.
type Provider struct {
	resolver *sandbox.Resolver
	paths    *sandbox.PathResolver
	locks    *sandbox.LockManager
	stager   *staging.Stager
	dl       *download.Downloader
	remote   RemoteHost
	log      *logging.Logger
	metrics  *monitoring.Metrics
}

// Deps collects the provider's collaborators.
type Deps struct {
	Resolver   *sandbox.Resolver
	Paths      *sandbox.PathResolver
	Locks      *sandbox.LockManager
	Stager     *staging.Stager
	Downloader *download.Downloader
	Remote     RemoteHost
	Log        *logging.Logger
	Metrics    *monitoring.Metrics
}

// NewProvider creates the transfer provider.
func NewProvider(deps Deps) *Provider {
	if deps.Paths == nil {
		deps.Paths = sandbox.NewPathResolver(nil)
	}
	if deps.Log == nil {
		deps.Log = logging.NewNop()
	}
	p := &Provider{
		resolver: deps.Resolver,
		paths:    deps.Paths,
		locks:    deps.Locks,
		stager:   deps.Stager,
		dl:       deps.Downloader,
		remote:   deps.Remote,
		log:      deps.Log.Named("transfer"),
		metrics:  deps.Metrics,
	}
	if p.metrics != nil && p.dl != nil {
		p.dl.OnResult(p.metrics.RecordDownload)
	}
	return p
}

// Definition returns service metadata with all tools
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:          "transfer",
		Name:        "File Transfer Service",
		Description: "Sandboxed file staging, upload, and bounded URL download",
		Category:    types.CategoryTransfer,
		Capabilities: []string{
			"upload", "download", "staging", "secret-inspection",
		},
		Tools: []types.Tool{
			{
				ID:          "transfer.upload",
				Name:        "Upload File",
				Description: "Upload a sandboxed file to the remote host",
				Parameters: []types.Parameter{
					{Name: "name", Type: "string", Description: "File name inside the sandbox", Required: true},
					{Name: "folder", Type: "string", Description: "Remote folder ID", Required: false},
					{Name: "format", Type: "string", Description: "Remote naming format", Required: false},
				},
				Returns: "object",
			},
			{
				ID:          "transfer.download",
				Name:        "Download URL",
				Description: "Download a remote resource into the sandbox",
				Parameters: []types.Parameter{
					{Name: "url", Type: "string", Description: "Resource URL (http/https)", Required: true},
					{Name: "timeout_ms", Type: "number", Description: "Transfer timeout in milliseconds", Required: false},
				},
				Returns: "object",
			},
			{
				ID:          "transfer.stat",
				Name:        "Stat File",
				Description: "Report size and times for a sandboxed file",
				Parameters: []types.Parameter{
					{Name: "name", Type: "string", Description: "File name inside the sandbox", Required: true},
				},
				Returns: "object",
			},
			{
				ID:          "transfer.remote_list",
				Name:        "List Remote Files",
				Description: "List the caller's files on the remote host",
				Returns:     "array",
			},
			{
				ID:          "transfer.remote_delete",
				Name:        "Delete Remote File",
				Description: "Delete a file on the remote host by ID",
				Parameters: []types.Parameter{
					{Name: "id", Type: "string", Description: "Remote file ID", Required: true},
				},
				Returns: "object",
			},
			{
				ID:          "transfer.mkfolder",
				Name:        "Create Remote Folder",
				Description: "Create a folder on the remote host",
				Parameters: []types.Parameter{
					{Name: "name", Type: "string", Description: "Folder name", Required: true},
				},
				Returns: "object",
			},
		},
	}
}

// SandboxService exposes the sandbox management tools as their own service.
// It shares the provider's state so both services see the same locks and
// files.
type SandboxService struct {
	p *Provider
}

// NewSandboxService wraps the provider's sandbox tools.
func NewSandboxService(p *Provider) *SandboxService {
	return &SandboxService{p: p}
}

// Definition returns service metadata with all tools
func (s *SandboxService) Definition() types.Service {
	return types.Service{
		ID:          "sandbox",
		Name:        "Sandbox Service",
		Description: "Per-caller transient file sandbox with advisory locking",
		Category:    types.CategorySandbox,
		Capabilities: []string{
			"listing", "locking", "isolation", "retention",
		},
		Tools: []types.Tool{
			{
				ID:          "sandbox.list",
				Name:        "List Sandbox",
				Description: "List sandboxed files, optionally filtered by glob",
				Parameters: []types.Parameter{
					{Name: "pattern", Type: "string", Description: "Glob pattern (doublestar syntax)", Required: false},
				},
				Returns: "array",
			},
			{
				ID:          "sandbox.lock",
				Name:        "Lock Sandbox",
				Description: "Acquire the advisory sandbox lock",
				Returns:     "object",
			},
			{
				ID:          "sandbox.unlock",
				Name:        "Unlock Sandbox",
				Description: "Release the advisory sandbox lock",
				Returns:     "object",
			},
			{
				ID:          "sandbox.status",
				Name:        "Sandbox Status",
				Description: "Report the advisory lock state",
				Returns:     "object",
			},
		},
	}
}

// Execute delegates to the shared provider.
func (s *SandboxService) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	return s.p.Execute(ctx, toolID, params, appCtx)
}

// Execute routes to the tool implementation
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	token, err := callerToken(appCtx)
	if err != nil {
		return Failure(err.Error())
	}

	switch toolID {
	case "transfer.upload":
		return p.UploadFile(ctx, params, token)
	case "transfer.download":
		return p.DownloadURL(ctx, params, token)
	case "transfer.stat":
		return p.StatFile(ctx, params, token)
	case "transfer.remote_list":
		return p.ListRemote(ctx)
	case "transfer.remote_delete":
		return p.DeleteRemote(ctx, params)
	case "transfer.mkfolder":
		return p.CreateRemoteFolder(ctx, params)
	case "sandbox.list":
		return p.ListSandbox(ctx, params, token)
	case "sandbox.lock":
		return p.LockSandbox(ctx, token)
	case "sandbox.unlock":
		return p.UnlockSandbox(ctx, token)
	case "sandbox.status":
		return p.SandboxStatus(ctx, token)
	default:
		return Failure(fmt.Sprintf("unknown tool: %s", toolID))
	}
}

// callerToken extracts the identity token; every tool needs one.
func callerToken(appCtx *types.Context) (string, error) {
	if appCtx == nil || appCtx.Token == "" {
		return "", &sandbox.ConfigurationError{Reason: "caller token is required"}
	}
	return appCtx.Token, nil
}
