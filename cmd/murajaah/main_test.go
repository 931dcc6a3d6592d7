package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type harness struct {
	t      *testing.T
	dbPath string
	clock  time.Time
}

func (h *harness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	args = append(args, "--database", h.dbPath, "--log_level", "error")
	err := run(context.Background(), args, strings.NewReader(stdin), &out, &errOut, func() time.Time { return h.clock })
	return out.String(), err
}

func TestEndToEnd(t *testing.T) {
	decks := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(decks, "fatiha.md"), []byte(
		"AR: بِسْمِ\nTR: Bismi\nEN: In the name of\n\nAR: رَبّ\nEN: Lord\n"), 0o644))

	h := &harness{
		t:      t,
		dbPath: filepath.Join(t.TempDir(), "e2e.db"),
		clock:  time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC),
	}

	out, err := h.run("", "add-source", decks)
	require.NoError(t, err)
	assert.Contains(t, out, "(local)")

	out, err = h.run("", "sync")
	require.NoError(t, err)
	assert.Contains(t, out, "2 entries, 2 enrolled")

	out, err = h.run("", "queue")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing is due")

	h.clock = h.clock.AddDate(0, 0, 1)
	out, err = h.run("", "queue")
	require.NoError(t, err)
	assert.Contains(t, out, "new")

	// reveal, an invalid grade, then a pass; reveal and fail the second item
	out, err = h.run("\n9\n4\n\n1\n", "review")
	require.NoError(t, err)
	assert.Contains(t, out, "Enter a number from 0 to 5.")
	assert.Contains(t, out, "Studied 2 items, 50% correct")
	assert.Contains(t, out, "Next review 1 day from now", "relative dates follow the command clock")

	out, err = h.run("", "stats")
	require.NoError(t, err)
	assert.Regexp(t, `Total items\s+2`, out)
	assert.Regexp(t, `Retention\s+50\.0%`, out)
	assert.Regexp(t, `Streak\s+1 days`, out)

	out, err = h.run("", "forecast")
	require.NoError(t, err)
	assert.Contains(t, out, "Sun 03 Mar")

	out, err = h.run("", "plans")
	require.NoError(t, err)
	assert.Contains(t, out, "*  casual")

	out, err = h.run("", "remove-source", decks)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed source 1")

	out, err = h.run("", "stats")
	require.NoError(t, err)
	assert.Regexp(t, `Total items\s+0`, out)

	_, err = h.run("", "remove-source", decks)
	assert.ErrorContains(t, err, "not found")
}

func TestUnknownCommand(t *testing.T) {
	var out, errOut bytes.Buffer
	err := run(context.Background(), []string{"fly"}, strings.NewReader(""), &out, &errOut, time.Now)
	assert.ErrorContains(t, err, `unknown command "fly"`)
}

func TestHelp(t *testing.T) {
	var out, errOut bytes.Buffer
	require.NoError(t, run(context.Background(), nil, strings.NewReader(""), &out, &errOut, time.Now))
	assert.Contains(t, out.String(), "Usage: murajaah")
}
