package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/thabzzzzz/hardwarestorefront-sub000/app/importer"
)

func TestRunReportsMissingFileBeforeConnecting(t *testing.T) {
	t.Setenv("CATALOG_CONFIG", "")
	t.Setenv("USD_TO_ZAR", "")
	// Nothing listens here; a connection attempt would retry for a minute.
	t.Setenv("DATABASE_DSN", "host=127.0.0.1 port=1 user=none dbname=none sslmode=disable connect_timeout=1")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx, filepath.Join(t.TempDir(), "missing.csv"), false, true)

	assert.ErrorIs(t, err, importer.ErrFileNotFound)
	assert.NoError(t, ctx.Err())
}
