package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server:  ServerConfig{Mode: "debug"},
		Engine:  EngineConfig{ProfileStorage: "memory"},
		Resume:  ResumeConfig{LocalStore: "memory", BackendTimeoutMS: 3000},
		Catalog: CatalogConfig{Source: "file", Path: "configs/catalog.yaml"},
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, validConfig().Validate())

	cases := []struct {
		name string
		edit func(c *Config)
	}{
		{"unknown profile storage", func(c *Config) { c.Engine.ProfileStorage = "mongo" }},
		{"redis local store without redis", func(c *Config) { c.Resume.LocalStore = "redis" }},
		{"unknown local store", func(c *Config) { c.Resume.LocalStore = "disk" }},
		{"file source without path", func(c *Config) { c.Catalog.Path = "" }},
		{"minio source without bucket", func(c *Config) {
			c.Catalog.Source = "minio"
			c.Catalog.MinioEndpoint = "localhost:9000"
		}},
		{"non-positive timeout", func(c *Config) { c.Resume.BackendTimeoutMS = 0 }},
		{"short secret in release", func(c *Config) {
			c.Server.Mode = "release"
			c.JWT = JWTConfig{Enabled: true, Secret: "short"}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := validConfig()
			tc.edit(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	yaml := "server:\n  port: \"9090\"\nengine:\n  profile_storage: memory\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Engine.ProfileStorage)
	assert.Equal(t, 10, cfg.Resume.RecommendationTTLMinutes)
	assert.Equal(t, "learning_position:", cfg.Resume.KeyPrefix)
	assert.Equal(t, dir, cfg.ConfigDir)
}
