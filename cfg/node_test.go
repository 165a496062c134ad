package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nodeDatabase struct {
	Driver   string        `cfg:"driver" validate:"required,oneof=mysql sqlite3"`
	Host     string        `cfg:"host" def:"localhost"`
	Port     int           `cfg:"port" def:"3306"`
	MaxConns int           `cfg:"maxConns"`
	Timeout  time.Duration `cfg:"timeout"`
	Tags     []string      `cfg:"tags"`
	Extra    any           `cfg:"extra"`
}

type nodeConfig struct {
	Database nodeDatabase      `cfg:"database"`
	Labels   map[string]string `cfg:"labels"`
}

func writeFile(t *testing.T, name string, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDecodeFile_Formats(t *testing.T) {
	files := map[string]string{
		"app.yaml": `
database:
  driver: sqlite3
  port: 3307
  maxConns: 4
  timeout: 2s
  tags: [a, b]
  extra:
    level: debug
labels:
  team: core
`,
		"app.json": `{"database": {"driver": "sqlite3", "port": 3307, "maxConns": 4, "timeout": "2s", "tags": ["a", "b"], "extra": {"level": "debug"}}, "labels": {"team": "core"}}`,
		"app.toml": `
[database]
driver = "sqlite3"
port = 3307
maxConns = 4
timeout = "2s"
tags = ["a", "b"]
[database.extra]
level = "debug"
[labels]
team = "core"
`,
	}

	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			var config nodeConfig
			require.NoError(t, DecodeFile(writeFile(t, name, content), "", &config))

			assert.Equal(t, "sqlite3", config.Database.Driver)
			assert.Equal(t, "localhost", config.Database.Host)
			assert.Equal(t, 3307, config.Database.Port)
			assert.Equal(t, 4, config.Database.MaxConns)
			assert.Equal(t, 2*time.Second, config.Database.Timeout)
			assert.Equal(t, []string{"a", "b"}, config.Database.Tags)
			assert.Equal(t, map[string]string{"team": "core"}, config.Labels)

			var extra struct {
				Level string `cfg:"level"`
			}
			require.NoError(t, NewNode(config.Database.Extra).ConvertTo(&extra))
			assert.Equal(t, "debug", extra.Level)
		})
	}
}

func TestDecodeFile_Ini(t *testing.T) {
	path := writeFile(t, "app.ini", `
name = persist

[database]
driver = sqlite3
port = 3310
`)
	node, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "persist", node.Sub("name").Data())

	var db nodeDatabase
	require.NoError(t, DecodeFile(path, "database", &db))
	assert.Equal(t, "sqlite3", db.Driver)
	assert.Equal(t, 3310, db.Port)
}

func TestNode_ConvertTo(t *testing.T) {
	t.Run("validation failure", func(t *testing.T) {
		var db nodeDatabase
		err := NewNode(map[string]any{"driver": "postgres"}).ConvertTo(&db)
		assert.Error(t, err)
	})

	t.Run("typed options pass through", func(t *testing.T) {
		var db nodeDatabase
		require.NoError(t, NewNode(&nodeDatabase{Driver: "mysql", Port: 1}).ConvertTo(&db))
		assert.Equal(t, "mysql", db.Driver)
		assert.Equal(t, 1, db.Port)
		assert.Equal(t, "localhost", db.Host)
	})

	t.Run("missing sub key yields defaults", func(t *testing.T) {
		var db struct {
			Host string `cfg:"host" def:"127.0.0.1"`
		}
		require.NoError(t, NewNode(map[string]any{}).Sub("a.b").ConvertTo(&db))
		assert.Equal(t, "127.0.0.1", db.Host)
	})

	t.Run("type mismatch", func(t *testing.T) {
		var db nodeDatabase
		assert.Error(t, NewNode(map[string]any{"driver": "mysql", "port": []any{1}}).ConvertTo(&db))
		assert.Error(t, NewNode(nil).ConvertTo(db))
	})
}

func TestDecoderForFile(t *testing.T) {
	for _, ext := range []string{"a.yaml", "a.yml", "a.json", "a.toml", "a.ini"} {
		_, err := DecoderForFile(ext)
		assert.NoError(t, err, ext)
	}
	_, err := DecoderForFile("a.xml")
	assert.Error(t, err)
}
