package logging_test

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/aretw0/swimlane/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_RenamesErrorKey(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, slog.LevelInfo)

	logger.Warn("save failed", "error", errors.New("disk full"))

	assert.Contains(t, buf.String(), "err=\"disk full\"")
	assert.NotContains(t, buf.String(), "error=")
}

func TestParseLevel(t *testing.T) {
	lvl, err := logging.ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	lvl, err = logging.ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)

	_, err = logging.ParseLevel("loud")
	assert.Error(t, err)
}
