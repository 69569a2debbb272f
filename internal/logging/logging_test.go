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

func TestSetupWritesToFile(t *testing.T) {
	prev := log.Logger
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	})

	path := filepath.Join(t.TempDir(), "logs", "radio.log")
	closer, err := Setup(path, "warn")
	require.NoError(t, err)

	log.Info().Msg("hidden")
	log.Warn().Str("url", "http://example").Msg("listener count unavailable")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "listener count unavailable")
	assert.NotContains(t, string(data), "hidden")
}

func TestSetupRejectsUnknownLevel(t *testing.T) {
	_, err := Setup("", "loud")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	l.Error().Msg("boom")
	assert.Contains(t, buf.String(), "boom")
	assert.Contains(t, buf.String(), "ERR")
}
