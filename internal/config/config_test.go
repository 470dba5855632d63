package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte("verbose: true\nmode: debug\nbreakpoints: [3, 7]\nprompt: \"> \"\n"))
	require.NoError(t, err)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "debug", cfg.Mode)
	assert.Equal(t, []int{3, 7}, cfg.Breakpoints)
	assert.Equal(t, "> ", cfg.Prompt)
	assert.Equal(t, Default().History, cfg.History)
}

func TestParseEmptyKeepsDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown key", "colour: red\n"},
		{"bad mode", "mode: fast\n"},
		{"bad breakpoint", "breakpoints: [0]\n"},
		{"bad yaml", "mode: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("history: /tmp/h\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/h", cfg.History)
	assert.Equal(t, "run", cfg.Mode)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err, "an explicit path must exist")
}

func TestLoadDefaultFileIsOptional(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	require.NoError(t, os.WriteFile(FileName, []byte("verbose: true\n"), 0o644))
	cfg, err = Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Verbose)
}
