// File: internal/logging/logger_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreGlobals(t *testing.T) {
	t.Helper()
	level := zerolog.GlobalLevel()
	logger := log.Logger
	t.Cleanup(func() {
		zerolog.SetGlobalLevel(level)
		log.Logger = logger
	})
}

func TestSetLevel(t *testing.T) {
	restoreGlobals(t)

	SetLevel("warn")
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
	SetLevel("nonsense")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
	SetLevel("")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestSetupFileOutput(t *testing.T) {
	restoreGlobals(t)

	cfg := DefaultConfig()
	cfg.Output = "file"
	cfg.FilePath = filepath.Join(t.TempDir(), "nested", "udp.log")
	require.NoError(t, Setup(cfg))

	poolLog := Component("pool")
	poolLog.Info().Msg("hello")

	data, err := os.ReadFile(cfg.FilePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"component":"pool"`)
	assert.Contains(t, string(data), `"message":"hello"`)
}

func TestOrPrefersSuppliedLogger(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf)
	cacheLog := Or(&l, "cache")
	cacheLog.Warn().Msg("x")
	assert.Contains(t, buf.String(), `"component":"cache"`)

	assert.NotPanics(t, func() {
		fallback := Or(nil, "cache")
		fallback.Debug().Msg("y")
	})
}
