package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viablespark/persist/log/writer"
	"github.com/viablespark/persist/ref"
)

func TestNewSLogWithOptions(t *testing.T) {
	tests := []struct {
		name    string
		options *SLogOptions
		wantErr bool
	}{
		{"nil options", nil, true},
		{"default console output", &SLogOptions{Level: "info"}, false},
		{"console output with options", &SLogOptions{
			Level:  "debug",
			Format: "json",
			Output: &ref.TypeOptions{
				Namespace: writer.Namespace,
				Type:      "ConsoleWriter",
				Options:   &writer.ConsoleWriterOptions{Target: "stdout"},
			},
		}, false},
		{"config map output", &SLogOptions{
			Output: &ref.TypeOptions{Type: "ConsoleWriter", Options: map[string]any{"target": "stderr"}},
		}, false},
		{"unknown writer", &SLogOptions{Output: &ref.TypeOptions{Type: "KafkaWriter"}}, true},
		{"invalid level", &SLogOptions{Level: "invalid"}, true},
		{"invalid format", &SLogOptions{Level: "info", Format: "invalid"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := NewSLogWithOptions(tt.options)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestSLog_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := NewSLogWithOptions(&SLogOptions{
		Level:  "debug",
		Format: "json",
		Output: &ref.TypeOptions{
			Type:    "FileWriter",
			Options: map[string]any{"path": path},
		},
		Fields: map[string]any{"service": "persist"},
	})
	require.NoError(t, err)

	l.With("table", "purchase_order").Debug("execute", "sql", "SELECT 1")
	l.WithGroup("db").Info("opened", "driver", "sqlite3")
	require.NoError(t, l.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "execute", first["msg"])
	assert.Equal(t, "purchase_order", first["table"])
	assert.Equal(t, "persist", first["service"])
	assert.Equal(t, "DEBUG", first["level"])

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, map[string]any{"driver": "sqlite3"}, second["db"])
}

func TestSLog_Level(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewSLogWithWriter(&buf, "warn", "text")
	require.NoError(t, err)

	l.Info("hidden")
	l.Warn("shown", "key", "value")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "key=value")
}

func TestParseLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "warning", "error", "DEBUG", ""} {
		_, err := parseLevel(level)
		assert.NoError(t, err, level)
	}
	_, err := parseLevel("trace")
	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() {
		Discard.With("a", 1).WithGroup("g").Error("ignored")
	})
}
