package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tildaslashalef/pullcheck/internal/config"
)

func TestBuildSQLiteDSN(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Path:            "/tmp/pullcheck.db",
		BusyTimeout:     5000,
		JournalMode:     "WAL",
		SynchronousMode: "NORMAL",
		ForeignKeys:     true,
	}

	dsn := buildSQLiteDSN(cfg)
	assert.Contains(t, dsn, "/tmp/pullcheck.db?")
	assert.Contains(t, dsn, "_busy_timeout=5000")
	assert.Contains(t, dsn, "_journal_mode=WAL")
	assert.Contains(t, dsn, "_synchronous=NORMAL")
	assert.Contains(t, dsn, "_foreign_keys=true")
}

func TestBuildSQLiteDSNMemory(t *testing.T) {
	dsn := buildSQLiteDSN(&config.DatabaseConfig{Path: ":memory:"})
	assert.Equal(t, ":memory:", dsn)
}
