/*
 * Copyright 2022 Medicines Discovery Catapult
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *     http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package lib

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configFlag = "config"

// BaseConfig holds the keys shared by every binary.
type BaseConfig struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// DictionaryConfig points at an optional lemma table replacing the built-in one.
type DictionaryConfig struct {
	Path   string
	Format string
}

/**
	InitializeConfig standardises config initialization across all binaries.

	The config file is a yml file at defaultPath, overridden with the --config flag.
	For example the annotation api reads ./config/annotation-api.yml, so a k8s config
	map with an annotation-api.yml key can be mounted at $(pwd)/config.

	defaultConfig holds the values used when a key is missing from the file. Keys are
	lowercase and nested maps become nested structs.

	Env vars override keys that viper already knows about (from the file or the defaults):
	the env var is the uppercased key with "." replaced by "_", so REDIS_HOST sets
	Redis.Host.

	Any other pflag defined before the call (e.g. --input) is bound under its own name.

	targetStruct should be a pointer to a struct the config is unmarshalled to.
**/
func InitializeConfig(defaultPath string, defaultConfig map[string]interface{}, targetStruct interface{}) error {

	if pflag.Lookup(configFlag) == nil {
		pflag.String(configFlag, defaultPath, "The config file path.")
	}
	pflag.Parse()

	if err := viper.BindPFlags(pflag.CommandLine); err != nil {
		return err
	}

	configFile := viper.GetString(configFlag)
	if configFile != "" && !filepath.IsAbs(configFile) {
		var err error
		if configFile, err = filepath.Abs(configFile); err != nil {
			return err
		}
	}

	for k, v := range defaultConfig {
		viper.SetDefault(k, v)
	}

	viper.SetConfigName(strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile)))
	viper.AddConfigPath(filepath.Dir(configFile))

	// env vars win over the file, but only for keys viper already knows
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	err := viper.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		log.Warn().Err(err).Msg("default settings applied")
	} else if err != nil {
		return err
	}

	var bc BaseConfig
	if err := viper.Unmarshal(&bc); err != nil {
		return err
	}
	if err := ConfigureLogger(bc); err != nil {
		return err
	}

	return viper.Unmarshal(targetStruct)
}

// ConfigureLogger sets the global zerolog level, and switches to human
// readable output when log_format is "console".
func ConfigureLogger(bc BaseConfig) error {
	lvl, err := zerolog.ParseLevel(bc.LogLevel)
	if err != nil {
		return err
	}
	zerolog.SetGlobalLevel(lvl)

	if bc.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	return nil
}
