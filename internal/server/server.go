// Package server implements the git-summarizer MCP server: the method
// dispatcher, the tool catalog and executor, and the stdio transport loop.
package server

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/wricardo/mcp/git-summarizer/internal/protocol"
)

// Identity reported in the initialize result.
const (
	Name    = "git-summarizer"
	Version = "0.1.0"
)

// MethodInitialized is the notification a client sends after initialize.
const MethodInitialized = "notifications/initialized"

// GitBackend is the version-control collaborator behind the tools.
type GitBackend interface {
	// StagedDiff returns the staged change set, failing when nothing is staged.
	StagedDiff(ctx context.Context) (string, error)
	// Commit commits the staged tree and returns a confirmation text.
	Commit(ctx context.Context, message string) (string, error)
}

// Server answers MCP requests one at a time.
type Server struct {
	git      GitBackend
	settings *Settings
	logger   *zap.Logger
	tools    []toolEntry
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithSettings sets the configuration state. The default starts at DefaultCommitFormat.
func WithSettings(st *Settings) Option {
	return func(s *Server) {
		s.settings = st
	}
}

// New creates a Server whose tools are backed by git.
func New(git GitBackend, opts ...Option) *Server {
	s := &Server{
		git:      git,
		settings: NewSettings(""),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	return s
}

// Settings returns the server's configuration state.
func (s *Server) Settings() *Settings {
	return s.settings
}

// Handle dispatches req and returns the response to write, or nil when
// nothing must be written. Notifications never get a response, but their
// side effects still happen.
//
// A tools/call whose params cannot be decoded returns an error wrapping
// protocol.ErrInvalidParams; the caller is expected to stop serving.
func (s *Server) Handle(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	var result any

	switch req.Method {
	case string(mcp.MethodInitialize):
		result = s.initialize(req)

	case MethodInitialized:
		s.logger.Info("client initialized")
		return nil, nil

	case string(mcp.MethodToolsList):
		result = mcp.ListToolsResult{Tools: s.catalog()}

	case string(mcp.MethodToolsCall):
		params, err := protocol.DecodeCallToolParams(req.Params)
		if err != nil {
			return nil, err
		}
		s.logger.Debug("calling tool", zap.String("tool", params.Name))
		result = s.callTool(ctx, params)

	default:
		if req.IsNotification() {
			s.logger.Debug("ignoring notification", zap.String("method", req.Method))
			return nil, nil
		}
		return protocol.NewError(req.ID, mcp.METHOD_NOT_FOUND, "Method not found"), nil
	}

	if req.IsNotification() {
		return nil, nil
	}

	resp, err := protocol.NewResult(req.ID, result)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", req.Method, err)
	}
	return resp, nil
}

// initialize applies the client's commitFormat option, if any, and reports
// the server's identity. Params that cannot be decoded are ignored.
func (s *Server) initialize(req *protocol.Request) mcp.InitializeResult {
	params, err := protocol.DecodeInitializeParams(req.Params)
	if err != nil {
		s.logger.Warn("ignoring initialize params", zap.Error(err))
	} else if params.Options != nil && params.Options.CommitFormat != nil {
		s.settings.SetCommitFormat(*params.Options.CommitFormat)
		s.logger.Info("commit format overridden by client")
	}

	var caps mcp.ServerCapabilities
	caps.Tools = &struct {
		ListChanged bool `json:"listChanged,omitempty"`
	}{
		ListChanged: true,
	}

	return mcp.InitializeResult{
		ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
		Capabilities:    caps,
		ServerInfo: mcp.Implementation{
			Name:    Name,
			Version: Version,
		},
	}
}
