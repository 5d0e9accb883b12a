package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/JoseCortezz25/fact-checking-app/internal/model"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	registerDefaults(model.DefaultConfig())
	viper.SetEnvPrefix("FACTLY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

func TestLoadConfig_Defaults(t *testing.T) {
	resetViper(t)

	cfg, err := loadConfig()
	require.NoError(t, err)

	want := model.DefaultConfig()
	assert.Equal(t, want.Research, cfg.Research)
	assert.Equal(t, want.LLM, cfg.LLM)
	assert.Equal(t, want.Authority.PrimaryDomains, cfg.Authority.PrimaryDomains)
	assert.Equal(t, want.Server, cfg.Server)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	resetViper(t)
	t.Setenv("FACTLY_RESEARCH_DEPTH", "4")
	t.Setenv("FACTLY_RESEARCH_TIMEOUT", "90s")
	t.Setenv("FACTLY_SEARCH_PROVIDER", "tavily")
	t.Setenv("FACTLY_LLM_API_KEY", "sk-test")

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Research.Depth)
	assert.Equal(t, 90*time.Second, cfg.Research.Timeout)
	assert.Equal(t, "tavily", cfg.Search.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, model.DefaultConfig().Research.Breadth, cfg.Research.Breadth)
}

func TestLoadConfig_File(t *testing.T) {
	resetViper(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("research:\n  breadth: 3\nstore:\n  enabled: false\n"), 0o644))
	viper.SetConfigFile(path)
	require.NoError(t, viper.ReadInConfig())

	cfg, err := loadConfig()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Research.Breadth)
	assert.False(t, cfg.Store.Enabled)
	assert.Equal(t, model.DefaultConfig().Research.Depth, cfg.Research.Depth)
}

func TestWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, writeDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "EXA_API_KEY")

	var cfg model.Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, model.DefaultConfig().Research.Depth, cfg.Research.Depth)
	assert.Equal(t, model.DefaultConfig().Search.Provider, cfg.Search.Provider)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"The Eiffel Tower is in Paris.", "the-eiffel-tower-is-in-paris"},
		{"  ¿Qué?  ", "qu"},
		{"!!!", "claim"},
		{strings.Repeat("abc ", 40), strings.TrimSuffix(strings.Repeat("abc-", 15), "-")},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, slugify(tt.in), tt.in)
	}
}

func TestKeyState(t *testing.T) {
	assert.Equal(t, "set in config", keyState("sk", "", "OPENAI_API_KEY"))
	assert.Equal(t, "not required", keyState("", "", ""))
	assert.Equal(t, "found in environment", keyState("", "sk", "OPENAI_API_KEY"))
	assert.Equal(t, "OPENAI_API_KEY is NOT set", keyState("", "", "OPENAI_API_KEY"))
}
