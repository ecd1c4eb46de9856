package logger_test

import (
	"log/slog"
	"testing"

	"github.com/phrazzld/classroom/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCIHandlerAddsMetadata(t *testing.T) {
	buf := &logger.TestLogBuffer{}
	base := slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo})
	l := slog.New(logger.NewCIHandler(base, map[string]string{
		"ci_provider": "github_actions",
		"ci_commit":   "abc123",
	})).With(slog.String("component", "grading"))

	l.Debug("filtered")
	l.Info("graded")

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "github_actions", entries[0]["ci_provider"])
	assert.Equal(t, "abc123", entries[0]["ci_commit"])
	assert.Equal(t, "grading", entries[0]["component"])
}

func TestSetupInCI(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })
	t.Setenv("GITHUB_ACTIONS", "true")

	buf := &logger.TestLogBuffer{}
	l, err := logger.Setup(logger.LoggerConfig{Level: "info", Output: buf})
	require.NoError(t, err)

	l.Info("hello")
	logger.AssertLogField(t, buf, "ci_provider", "github_actions")
}
