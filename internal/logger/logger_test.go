package logger_test

import (
	"bytes"
	"testing"

	"codeberg.org/mutker/atmena/internal/errors"
	"codeberg.org/mutker/atmena/internal/logger"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"info":    zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
	}
	for name, want := range cases {
		got, err := logger.ParseLevel(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := logger.ParseLevel("loud")
	require.Error(t, err)
	assert.Equal(t, errors.ErrInvalidLogLevel, errors.Classify(err))
}

func TestErrorWithCode(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, logger.InitWithWriter(&buf, "debug", true))
	t.Cleanup(func() { _ = logger.InitWithWriter(&buf, "info", true) })

	err := errors.New().New(errors.ErrDuplicateReading)
	logger.ErrorWithCode(err).Msg("insert failed")

	out := buf.String()
	assert.Contains(t, out, "insert failed")
	assert.Contains(t, out, "duplicate_reading")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, logger.InitWithWriter(&buf, "warn", true))
	t.Cleanup(func() { _ = logger.InitWithWriter(&buf, "info", true) })

	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}
