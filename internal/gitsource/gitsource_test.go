package gitsource

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commitFile(t *testing.T, repo *git.Repository, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(name)
	require.NoError(t, err)
	_, err = wt.Commit("update "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
}

func TestSyncClonesThenPulls(t *testing.T) {
	ctx := context.Background()
	log := slog.New(slog.DiscardHandler)

	upstreamDir := t.TempDir()
	upstream, err := git.PlainInit(upstreamDir, false)
	require.NoError(t, err)
	commitFile(t, upstream, upstreamDir, "deck.md", "AR: نور\nEN: light\n")

	checkout := filepath.Join(t.TempDir(), "checkout")
	require.NoError(t, Sync(ctx, log, upstreamDir, checkout))

	got, err := os.ReadFile(filepath.Join(checkout, "deck.md"))
	require.NoError(t, err)
	assert.Contains(t, string(got), "light")

	commitFile(t, upstream, upstreamDir, "more.md", "AR: قلب\nEN: heart\n")
	require.NoError(t, Sync(ctx, log, upstreamDir, checkout))
	_, err = os.Stat(filepath.Join(checkout, "more.md"))
	assert.NoError(t, err, "pull brings new files")

	// nothing new upstream is not an error
	require.NoError(t, Sync(ctx, log, upstreamDir, checkout))
}

func TestLocalPath(t *testing.T) {
	testCases := []struct {
		url      string
		expected string
		wantErr  bool
	}{
		{url: "https://github.com/owner/decks.git", expected: filepath.Join("repos", "github.com", "owner", "decks")},
		{url: "git@github.com:owner/decks.git", expected: filepath.Join("repos", "github.com", "owner", "decks")},
		{url: "http://example.com/a/b", expected: filepath.Join("repos", "example.com", "a", "b")},
		{url: "not a url", wantErr: true},
		{url: "https://example.com", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.url, func(t *testing.T) {
			got, err := LocalPath("repos", tc.url)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestIsGitURL(t *testing.T) {
	assert.True(t, IsGitURL("https://github.com/owner/decks"))
	assert.True(t, IsGitURL("git@github.com:owner/decks.git"))
	assert.True(t, IsGitURL("/srv/decks.git"))
	assert.False(t, IsGitURL("./decks"))
}
