package service

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/blocklist"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/cache"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/cache/local"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/cache/remote"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/dict"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/infection"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/metrics"
)

// Config is the part of every binary's config that builds a Service.
type Config struct {
	Dictionary    lib.DictionaryConfig
	BlocklistPath string     `mapstructure:"blocklist_path"`
	CacheBackend  cache.Type `mapstructure:"cache_backend"`
	Workers       int
	Redis         remote.RedisConfig
	Elasticsearch remote.ElasticsearchConfig
}

// DefaultConfig returns the viper defaults for Config, to be merged into a
// binary's own defaults.
func DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"dictionary": map[string]interface{}{
			"path":   "",
			"format": dict.NativeDictionaryFormat,
		},
		"blocklist_path": "",
		"cache_backend":  cache.Local,
		"workers":        0,
		"redis": map[string]interface{}{
			"host":   "localhost",
			"port":   6379,
			"prefix": "infection-annotator:",
			"ttl":    0,
		},
		"elasticsearch": map[string]interface{}{
			"host":  "localhost",
			"port":  9200,
			"index": "infection-annotations",
		},
	}
}

// FromConfig loads the configured dictionary and blocklist and connects the
// cache backend. Remote backends are always fronted by a local cache.
func FromConfig(conf Config) (*Service, error) {
	var annotatorOpts []infection.Option
	if conf.Dictionary.Path != "" {
		d, err := dict.Load(conf.Dictionary.Path, dict.Format(conf.Dictionary.Format))
		if err != nil {
			return nil, err
		}
		annotatorOpts = append(annotatorOpts, infection.WithDictionary(d))
	}
	if conf.BlocklistPath != "" {
		b, err := blocklist.Load(conf.BlocklistPath)
		if err != nil {
			return nil, err
		}
		annotatorOpts = append(annotatorOpts, infection.WithBlocklist(b))
	}

	opts := []Option{WithMetrics(metrics.New()), WithWorkers(conf.Workers)}
	switch conf.CacheBackend {
	case cache.None, "":
	case cache.Local:
		opts = append(opts, WithLocalCache(local.New()))
	case cache.Redis:
		opts = append(opts, WithLocalCache(local.New()), WithRemoteCache(remote.NewRedisClient(conf.Redis)))
	case cache.Elasticsearch:
		client, err := remote.NewElasticsearchClient(conf.Elasticsearch)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithLocalCache(local.New()), WithRemoteCache(client))
	default:
		return nil, fmt.Errorf("invalid cache backend %q", conf.CacheBackend)
	}
	log.Info().Str("cache_backend", string(conf.CacheBackend)).Msg("annotation service configured")

	return New(infection.NewAnnotator(annotatorOpts...), opts...), nil
}
