package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sportstore/internal/auth"
	"sportstore/internal/config"
	"sportstore/internal/slides"
	"sportstore/internal/storage"
	"sportstore/internal/storage/backend"
	"sportstore/internal/storage/memory"
)

func newTestCLI(store storage.DataStore) *cli {
	return &cli{
		cfg:    config.Config{StoreDriver: "memory", SessionTTL: time.Hour},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		open: func(context.Context, config.Config) (storage.DataStore, error) {
			return store, nil
		},
	}
}

func run(t *testing.T, c *cli, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(c)
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// countsOf parses the counts table into label -> count text.
func countsOf(out string) map[string]string {
	got := make(map[string]string)
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if f := strings.Fields(line); len(f) >= 2 {
			got[f[0]] = f[1]
		}
	}
	return got
}

func TestSeedAndCounts(t *testing.T) {
	c := newTestCLI(memory.New())

	out, err := run(t, c, "counts")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"products": "0", "brands": "0", "categories": "0", "hero_slides": "0"}, countsOf(out))

	out, err = run(t, c, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "inserted")

	out, err = run(t, c, "seed")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing seeded")

	out, err = run(t, c, "seed", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "0 inserted")

	out, err = run(t, c, "counts")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"products": "6", "brands": "3", "categories": "4", "hero_slides": "3"}, countsOf(out))
}

func TestCreateUser(t *testing.T) {
	store := memory.New()
	c := newTestCLI(store)

	_, err := run(t, c, "admin", "create-user", "--email", "ops@example.com")
	require.Error(t, err, "password is required")

	out, err := run(t, c, "admin", "create-user", "--email", "ops@example.com", "--password", "s3cret-pass")
	require.NoError(t, err)
	assert.Contains(t, out, "Created admin ops@example.com")

	_, err = run(t, c, "admin", "create-user", "--email", "ops@example.com", "--password", "another-pass")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	svc, err := auth.NewService(store, nil, "secret", time.Hour)
	require.NoError(t, err)
	_, _, err = svc.SignIn(context.Background(), "ops@example.com", "s3cret-pass")
	assert.NoError(t, err)
}

func TestSlidesListAndMove(t *testing.T) {
	store := memory.New()
	c := newTestCLI(store)
	_, err := run(t, c, "seed")
	require.NoError(t, err)

	mgr := slides.NewManager(store, nil)
	before, err := mgr.List(context.Background())
	require.NoError(t, err)
	require.Len(t, before, 3)

	out, err := run(t, c, "slides", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], before[0].ID)
	assert.Contains(t, lines[3], before[2].ID)

	out, err = run(t, c, "slides", "move", before[2].ID, "earlier")
	require.NoError(t, err)
	assert.Contains(t, out, "earlier")

	after, err := mgr.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{before[0].ID, before[2].ID, before[1].ID},
		[]string{after[0].ID, after[1].ID, after[2].ID})

	_, err = run(t, c, "slides", "move", before[2].ID, "sideways")
	assert.Error(t, err)
	_, err = run(t, c, "slides", "move", before[2].ID)
	assert.Error(t, err)
}

func TestMigrateSQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "store.db")
	c := &cli{
		cfg:    config.Config{StoreDriver: "json"},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		open:   backend.Open,
	}

	out, err := run(t, c, "--driver", "sqlite", "--dsn", dsn, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, `"sqlite"`)

	_, err = run(t, c, "--driver", "sqlite", "--dsn", dsn, "seed")
	require.NoError(t, err)
	out, err = run(t, c, "--driver", "sqlite", "--dsn", dsn, "counts")
	require.NoError(t, err)
	assert.Equal(t, "6", countsOf(out)["products"])

	_, err = run(t, c, "--driver", "nosuch", "migrate")
	assert.Error(t, err)
}
