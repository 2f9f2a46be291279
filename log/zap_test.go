/*
 * MIT License
 *
 * Copyright (c) 2023-2026 Olympus Health Team
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logLines(buffer *bytes.Buffer) []map[string]any {
	var lines []map[string]any
	for _, raw := range strings.Split(strings.TrimSpace(buffer.String()), "\n") {
		if raw == "" {
			continue
		}
		var line map[string]any
		if err := json.Unmarshal([]byte(raw), &line); err == nil {
			lines = append(lines, line)
		}
	}
	return lines
}

func TestInfoLevelFiltersDebug(t *testing.T) {
	buffer := new(bytes.Buffer)
	logger := NewZap(InfoLevel, buffer)
	assert.Equal(t, InfoLevel, logger.LogLevel())

	logger.Debug("invisible")
	logger.Info("visible")
	require.NoError(t, logger.Flush())

	lines := logLines(buffer)
	require.Len(t, lines, 1)
	assert.Equal(t, "visible", lines[0]["msg"])
	assert.Equal(t, "info", lines[0]["level"])
}

func TestFormattedOutput(t *testing.T) {
	buffer := new(bytes.Buffer)
	logger := NewZap(DebugLevel, buffer)

	logger.Warnf("pressure at %d%%", 85)
	require.NoError(t, logger.Flush())

	lines := logLines(buffer)
	require.Len(t, lines, 1)
	assert.Equal(t, "pressure at 85%", lines[0]["msg"])
	assert.Equal(t, "warn", lines[0]["level"])
}

func TestWithAttachesFields(t *testing.T) {
	buffer := new(bytes.Buffer)
	logger := NewZap(InfoLevel, buffer).With("actor", "zeus")

	logger.Info("started")
	flushable, ok := logger.(*Zap)
	require.True(t, ok)
	require.NoError(t, flushable.Flush())

	lines := logLines(buffer)
	require.Len(t, lines, 1)
	assert.Equal(t, "zeus", lines[0]["actor"])
}

func TestWithoutArgumentsReturnsSameLogger(t *testing.T) {
	logger := NewZap(InfoLevel, new(bytes.Buffer))
	assert.Same(t, logger, logger.With())
}

func TestErrorCarriesStacktrace(t *testing.T) {
	buffer := new(bytes.Buffer)
	logger := NewZap(ErrorLevel, buffer)

	logger.Error("boom")
	require.NoError(t, logger.Flush())

	lines := logLines(buffer)
	require.Len(t, lines, 1)
	assert.NotEmpty(t, lines[0]["stacktrace"])
}

func TestLogOutput(t *testing.T) {
	buffer := new(bytes.Buffer)
	logger := NewZap(InfoLevel, buffer)
	require.Len(t, logger.LogOutput(), 1)
}

func TestStdLogger(t *testing.T) {
	buffer := new(bytes.Buffer)
	logger := NewZap(InfoLevel, buffer)

	logger.StdLogger().Print("bridged")
	require.NoError(t, logger.Flush())

	assert.Contains(t, buffer.String(), "bridged")
}

func TestDiscardLoggerIsSilent(t *testing.T) {
	DiscardLogger.Info("nothing")
	DiscardLogger.Errorf("nothing %d", 1)
	assert.NoError(t, DiscardLogger.Flush())
}
