package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-relay/internal/auth"
	"chat-relay/internal/config"
	"chat-relay/internal/models"
)

func TestNewRegistry(t *testing.T) {
	cfg, err := config.Parse([]byte(`
max_history: 50
users:
  - name: alice
    highlights: [deploy]
    networks:
      - name: Libera
        host: irc.libera.chat
        nick: alice_
        ignore: ["spam!*@*"]
        channels: ["#go", "#dev"]
`))
	require.NoError(t, err)

	registry := newRegistry(cfg)
	s, err := registry.Get("alice")
	require.NoError(t, err)
	require.NotNil(t, s.HighlightPattern())
	assert.True(t, s.HighlightPattern().MatchString("the deploy is done"))

	networks := s.Networks()
	require.Len(t, networks, 1)
	n := networks[0]
	assert.Equal(t, cfg.Users[0].Networks[0].UUID, n.UUID())
	assert.Equal(t, "alice_", n.Nick())
	assert.Equal(t, []string{"spam!*@*"}, n.IgnoreList())

	windows := n.Windows()
	require.Len(t, windows, 3)
	assert.Equal(t, models.WindowLobby, windows[0].Type())
	assert.Equal(t, "#go", windows[1].Name())
	assert.Equal(t, models.WindowChannel, windows[2].Type())
}

func TestHashPasswordCmd(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"hash-password", "hunter2"})
	require.NoError(t, cmd.Execute())

	hash := strings.TrimSpace(out.String())
	assert.True(t, auth.CheckPassword(hash, "hunter2"))
}

func TestHashPasswordCmdStdin(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetIn(strings.NewReader("s3cret\n"))
	cmd.SetArgs([]string{"hash-password"})
	require.NoError(t, cmd.Execute())

	assert.True(t, auth.CheckPassword(strings.TrimSpace(out.String()), "s3cret"))
}

func TestHashPasswordCmdEmpty(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader("\n"))
	cmd.SetArgs([]string{"hash-password"})
	assert.Error(t, cmd.Execute())
}
