package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCreate(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BOTMGR_DATABASE_PATH", filepath.Join(dir, "cli.db"))
	t.Setenv("WEBHOOK_ADDRESS", "https://hooks.example.com/telegram")
	t.Setenv("BOTMGR_LOG_LEVEL", "error")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"user", "create", "--name", "alice", "--config", filepath.Join(dir, "missing.yaml")})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "api key: bm_")
}

func TestUserCreateRequiresName(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"user", "create"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "name"), "error should mention the missing flag: %v", err)
}

func TestMCPRequiresUserID(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("BOTMGR_DATABASE_PATH", filepath.Join(dir, "cli.db"))
	t.Setenv("WEBHOOK_ADDRESS", "https://hooks.example.com/telegram")
	t.Setenv("BOTMGR_LOG_LEVEL", "error")

	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"mcp", "--config", filepath.Join(dir, "missing.yaml")})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mcp.user_id")
}
