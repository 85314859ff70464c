// Command git-summarizer is an MCP server on stdio that exposes the staged
// git change set to an agent and commits the message the agent writes.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wricardo/mcp/git-summarizer/internal/config"
	"github.com/wricardo/mcp/git-summarizer/internal/gitrepo"
	"github.com/wricardo/mcp/git-summarizer/internal/logging"
	"github.com/wricardo/mcp/git-summarizer/internal/server"
)

// MCPServer represents our MCP server instance
type MCPServer struct {
	server *server.Server
	logger *zap.Logger

	// command line overrides
	configPath string
	workdir    string
	logLevel   string
}

func (s *MCPServer) init() error {
	cfg, err := config.Load(s.configPath)
	if err != nil {
		return err
	}

	// flags win over file and environment
	if s.workdir != "" {
		cfg.Workdir = s.workdir
	}
	if s.logLevel != "" {
		cfg.Log.Level = s.logLevel
	}

	s.logger, err = logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	repo := gitrepo.New(cfg.Workdir, gitrepo.WithAuthor(gitrepo.Author{
		Name:  cfg.Author.Name,
		Email: cfg.Author.Email,
	}))
	s.logger.Debug("configuration loaded", zap.String("workdir", repo.Workdir()))

	s.server = server.New(repo,
		server.WithLogger(s.logger),
		server.WithSettings(server.NewSettings(cfg.CommitFormat)),
	)

	return nil
}

// ServeStdio runs the MCP server over the given stdio streams
func (s *MCPServer) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	defer s.logger.Sync() //nolint:errcheck
	return s.server.Serve(ctx, in, out)
}

func newRootCmd() *cobra.Command {
	s := &MCPServer{}

	cmd := &cobra.Command{
		Use:   server.Name,
		Short: "MCP server that reads staged git changes and commits them",
		Long: `git-summarizer speaks the Model Context Protocol over stdin/stdout.

It exposes two tools to the calling agent:
  get_staged_diff   returns the staged changes together with the commit message format
  execute_commit    commits the staged changes with the given message

Configuration is read from $XDG_CONFIG_HOME/git-summarizer/config.yaml and
GIT_SUMMARIZER_* environment variables.`,
		Version:       server.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := s.init(); err != nil {
				return err
			}
			return s.ServeStdio(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&s.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/git-summarizer/config.yaml)")
	cmd.Flags().StringVar(&s.workdir, "workdir", "", "git working directory (default $CLIENT_WORKDIR, $WORKDIR or .)")
	cmd.Flags().StringVar(&s.logLevel, "log-level", "", "log level: debug, info, warn, error")

	return cmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "[git-summarizer] Error:", err)
		os.Exit(1)
	}
}
