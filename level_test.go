// SPDX-License-Identifier: GPL-3.0-or-later

package loghog

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelString(t *testing.T) {
	assert.Equal(t, "trace", LevelTrace.String())
	assert.Equal(t, "debug", LevelDebug.String())
	assert.Equal(t, "info", LevelInfo.String())
	assert.Equal(t, "warning", LevelWarning.String())
	assert.Equal(t, "error", LevelError.String())
	assert.Equal(t, "critical", LevelCritical.String())
	assert.Equal(t, "exception", LevelException.String())
	assert.Equal(t, "Level(-1)", Level(-1).String())
	assert.Equal(t, "Level(7)", Level(7).String())
}

func TestLevelValid(t *testing.T) {
	assert.False(t, Level(-1).Valid())
	for l := LevelTrace; l <= LevelException; l++ {
		assert.True(t, l.Valid())
	}
	assert.False(t, (LevelException + 1).Valid())
}

func TestLevelFromSlog(t *testing.T) {
	tests := []struct {
		input slog.Level
		want  Level
	}{
		{slog.LevelDebug - 4, LevelTrace},
		{slog.LevelDebug, LevelDebug},
		{slog.LevelInfo, LevelInfo},
		{slog.LevelInfo + 1, LevelInfo},
		{slog.LevelWarn, LevelWarning},
		{slog.LevelError, LevelError},
		{slog.LevelError + 4, LevelCritical},
	}

	for _, tt := range tests {
		t.Run(tt.input.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, LevelFromSlog(tt.input))
		})
	}
}
