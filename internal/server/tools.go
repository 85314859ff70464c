package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/wricardo/mcp/git-summarizer/internal/protocol"
)

// Tool names exposed by the server.
const (
	ToolGetStagedDiff = "get_staged_diff"
	ToolExecuteCommit = "execute_commit"
)

// unknownToolText is returned when tools/call names a tool that does not exist.
const unknownToolText = "未知工具"

// ToolHandler runs a tool with the raw arguments of a tools/call request.
type ToolHandler func(ctx context.Context, args json.RawMessage) *mcp.CallToolResult

// toolEntry pairs a tool's definition with its handler. The definition is
// rebuilt from the current configuration on every tools/list.
type toolEntry struct {
	name   string
	define func(cfg Configuration) mcp.Tool
	handle ToolHandler
}

// registerTools registers all available git tools
func (s *Server) registerTools() {
	s.registerStagedDiffTool()
	s.registerExecuteCommitTool()
}

func (s *Server) addTool(name string, define func(Configuration) mcp.Tool, handle ToolHandler) {
	s.tools = append(s.tools, toolEntry{name: name, define: define, handle: handle})
}

// registerStagedDiffTool creates and registers the tool returning the staged change set
func (s *Server) registerStagedDiffTool() {
	define := func(cfg Configuration) mcp.Tool {
		return mcp.NewTool(ToolGetStagedDiff,
			mcp.WithDescription(stagedDiffDescription(cfg.CommitFormat)),
		)
	}

	s.addTool(ToolGetStagedDiff, define, func(ctx context.Context, _ json.RawMessage) *mcp.CallToolResult {
		diff, err := s.git.StagedDiff(ctx)
		if err != nil {
			s.logger.Warn("get staged diff failed", zap.Error(err))
			return errorResult(err.Error())
		}
		return textResult(diff)
	})
}

// registerExecuteCommitTool creates and registers the tool committing the staged change set
func (s *Server) registerExecuteCommitTool() {
	define := func(Configuration) mcp.Tool {
		return mcp.NewTool(ToolExecuteCommit,
			mcp.WithDescription("执行提交。请在用户确认了你总结的提交信息后再调用此工具。"),
			mcp.WithString("message",
				mcp.Description("提交信息"),
				mcp.Required(),
			),
		)
	}

	s.addTool(ToolExecuteCommit, define, func(ctx context.Context, raw json.RawMessage) *mcp.CallToolResult {
		args := protocol.DecodeExecuteCommitArgs(raw)
		out, err := s.git.Commit(ctx, args.Message)
		if err != nil {
			s.logger.Warn("commit failed", zap.Error(err))
			return errorResult(err.Error())
		}
		s.logger.Info("commit created", zap.String("result", out))
		return textResult(out)
	})
}

// stagedDiffDescription instructs the agent how to summarize the diff,
// embedding the commit message template.
func stagedDiffDescription(format string) string {
	return fmt.Sprintf("获取当前 git 暂存区的变更内容 (git diff --staged)。获取后，请你根据变更内容总结出一个提交信息，并询问用户是否提交。\n\n"+
		"### 提交格式要求：\n%s\n\n"+
		"### 额外约束：\n"+
		"- Body 的每一行不得超过 80 个字符。\n"+
		"- 如果修改范围很小，可以同时省略 English body 和 Chinese body。\n"+
		"- 如果不省略 body，则必须同时保留 English body 和 Chinese body，不得只写其中一个。",
		format,
	)
}

// catalog builds the tool list from the current configuration.
func (s *Server) catalog() []mcp.Tool {
	cfg := s.settings.Get()
	tools := make([]mcp.Tool, 0, len(s.tools))
	for _, t := range s.tools {
		tools = append(tools, t.define(cfg))
	}
	return tools
}

// callTool runs the named tool. Tool failures, including an unknown name,
// are reported inside the result rather than as an error.
func (s *Server) callTool(ctx context.Context, params *protocol.CallToolParams) *mcp.CallToolResult {
	for _, t := range s.tools {
		if t.name == params.Name {
			return t.handle(ctx, params.Arguments)
		}
	}
	s.logger.Warn("unknown tool", zap.String("tool", params.Name))
	return errorResult(unknownToolText)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
		IsError: true,
	}
}
