package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type wireResponse struct {
	ID     int `json:"id"`
	Result struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
		IsError bool `json:"isError"`
	} `json:"result"`
}

func runCmd(t *testing.T, dir, input string) []wireResponse {
	t.Helper()
	t.Setenv("GIT_SUMMARIZER_AUTHOR_NAME", "Agent")
	t.Setenv("GIT_SUMMARIZER_AUTHOR_EMAIL", "agent@example.com")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(&out)
	cmd.SetArgs([]string{
		"--workdir", dir,
		"--config", filepath.Join(t.TempDir(), "none.yaml"),
		"--log-level", "error",
	})
	require.NoError(t, cmd.Execute())

	var responses []wireResponse
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if line == "" {
			continue
		}
		var resp wireResponse
		require.NoError(t, json.Unmarshal([]byte(line), &resp), line)
		responses = append(responses, resp)
	}
	return responses
}

func TestRootCmd_DiffAndCommit(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	input := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"get_staged_diff"}}` + "\n"
	responses := runCmd(t, dir, input)
	require.Len(t, responses, 1)
	assert.True(t, responses[0].Result.IsError)
	assert.Equal(t, "没有发现已暂存的变更。", responses[0].Result.Content[0].Text)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.go"), []byte("package main\n"), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("main.go")
	require.NoError(t, err)

	input = strings.Join([]string{
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"get_staged_diff"}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"execute_commit","arguments":{"message":"feat: add main"}}}`,
	}, "\n") + "\n"
	responses = runCmd(t, dir, input)
	require.Len(t, responses, 2)

	assert.False(t, responses[0].Result.IsError)
	assert.Contains(t, responses[0].Result.Content[0].Text, "+package main")

	assert.False(t, responses[1].Result.IsError)
	ref, err := repo.Head()
	require.NoError(t, err)
	assert.Equal(t, "Commit successful: "+ref.Hash().String(), responses[1].Result.Content[0].Text)

	commit, err := repo.CommitObject(ref.Hash())
	require.NoError(t, err)
	assert.Equal(t, "feat: add main", commit.Message)
	assert.Equal(t, "Agent", commit.Author.Name)
}

func TestRootCmd_InvalidLogLevel(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetIn(strings.NewReader(""))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "none.yaml"), "--log-level", "loud"})

	assert.ErrorContains(t, cmd.Execute(), "invalid log level")
}

func TestRootCmd_FlagsDoNotLeakBetweenCommands(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "none.yaml")

	bad := newRootCmd()
	bad.SetIn(strings.NewReader(""))
	bad.SetOut(&bytes.Buffer{})
	bad.SetArgs([]string{"--config", cfg, "--log-level", "loud"})

	good := newRootCmd()
	good.SetIn(strings.NewReader(""))
	good.SetOut(&bytes.Buffer{})
	good.SetArgs([]string{"--config", cfg, "--workdir", t.TempDir()})

	assert.ErrorContains(t, bad.Execute(), "invalid log level")
	assert.NoError(t, good.Execute())
}
