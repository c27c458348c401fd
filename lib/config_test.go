package lib

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

type config struct {
	LogLevel string `mapstructure:"log_level"`
	Debug    bool
	Redis    struct {
		Host string
		Port int
	}
	KeyNotInConfigMap string
}

func TestInitializeConfigFromPath(t *testing.T) {
	path := createConfigFile(t, map[string]interface{}{
		"log_level": "warn",
		"redis": map[string]interface{}{
			"host": "redis.local",
			"port": 6380,
		},
	})
	resetFlags(t)

	var parsed config
	err := InitializeConfig(path, map[string]interface{}{"debug": true}, &parsed)

	require.NoError(t, err)
	assert.Equal(t, "warn", parsed.LogLevel)
	assert.Equal(t, "redis.local", parsed.Redis.Host)
	assert.Equal(t, 6380, parsed.Redis.Port)
	assert.True(t, parsed.Debug)
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}

func TestInitializeConfigEnvOverride(t *testing.T) {
	path := createConfigFile(t, map[string]interface{}{
		"log_level": "info",
		"redis": map[string]interface{}{
			"host": "redis.local",
		},
	})
	resetFlags(t)

	t.Setenv("REDIS_HOST", "redis.override")
	t.Setenv("KEYNOTINCONFIGMAP", "ignored")

	var parsed config
	err := InitializeConfig(path, map[string]interface{}{}, &parsed)

	require.NoError(t, err)
	assert.Equal(t, "redis.override", parsed.Redis.Host)

	// viper only reads env vars for keys it already knows
	assert.Equal(t, "", parsed.KeyNotInConfigMap)
}

func TestInitializeConfigMissingFile(t *testing.T) {
	resetFlags(t)

	var parsed config
	err := InitializeConfig(filepath.Join(t.TempDir(), "missing.yml"), map[string]interface{}{
		"log_level": "info",
		"redis":     map[string]interface{}{"port": 6379},
	}, &parsed)

	require.NoError(t, err)
	assert.Equal(t, 6379, parsed.Redis.Port)
}

func TestInitializeConfigWithFlag(t *testing.T) {
	defaultPath := createConfigFile(t, map[string]interface{}{"log_level": "info", "debug": false})
	overridePath := createConfigFile(t, map[string]interface{}{"log_level": "info", "debug": true})
	resetFlags(t, "--config", overridePath)

	var parsed config
	err := InitializeConfig(defaultPath, map[string]interface{}{}, &parsed)

	require.NoError(t, err)
	assert.True(t, parsed.Debug)
}

func TestInitializeConfigInvalidLogLevel(t *testing.T) {
	path := createConfigFile(t, map[string]interface{}{"log_level": "loud"})
	resetFlags(t)

	var parsed config
	assert.Error(t, InitializeConfig(path, map[string]interface{}{}, &parsed))
}

func createConfigFile(t *testing.T, configMap map[string]interface{}) string {
	t.Helper()
	file, err := os.CreateTemp(t.TempDir(), "*.yml")
	require.NoError(t, err)
	defer file.Close()

	data, err := yaml.Marshal(&configMap)
	require.NoError(t, err)
	_, err = file.Write(data)
	require.NoError(t, err)
	return file.Name()
}

// resetFlags gives each test a fresh flag set, viper instance and command line.
func resetFlags(t *testing.T, args ...string) {
	t.Helper()
	oldArgs, oldLevel := os.Args, zerolog.GlobalLevel()
	t.Cleanup(func() {
		os.Args = oldArgs
		zerolog.SetGlobalLevel(oldLevel)
	})

	os.Args = append([]string{oldArgs[0]}, args...)
	pflag.CommandLine = pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	viper.Reset()
}
