package main

import (
	"bufio"
	"context"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/service"
)

// config structure
type annotatorConfig struct {
	lib.BaseConfig `mapstructure:",squash"`
	service.Config `mapstructure:",squash"`
	Debug          bool
	NoCache        bool `mapstructure:"no_cache"`
	BatchSize      int  `mapstructure:"batch_size"`
	Input          string
	Output         string
}

var config annotatorConfig

func initConfig() {
	pflag.String("input", "", "JSONL file of parsed documents, stdin when empty.")
	pflag.String("output", "", "File to write annotations to, stdout when empty.")
	pflag.Bool("debug", false, "Record how each infection was found.")

	defaults := service.DefaultConfig()
	defaults["log_level"] = "info"
	defaults["log_format"] = "json"
	defaults["debug"] = false
	defaults["no_cache"] = false
	defaults["batch_size"] = 100
	// the cli runs once, a local cache only helps repeated lines
	defaults["cache_backend"] = "local"

	if err := lib.InitializeConfig("./config/annotator.yml", defaults, &config); err != nil {
		log.Fatal().Err(err).Send()
	}
}

func main() {
	initConfig()

	svc, err := service.FromConfig(config.Config)
	if err != nil {
		log.Fatal().Err(err).Send()
	}

	var in io.Reader = os.Stdin
	if config.Input != "" {
		f, err := os.Open(config.Input)
		if err != nil {
			log.Fatal().Err(err).Send()
		}
		defer f.Close()
		in = f
	}

	var out io.Writer = os.Stdout
	if config.Output != "" {
		f, err := os.Create(config.Output)
		if err != nil {
			log.Fatal().Err(err).Send()
		}
		defer f.Close()
		out = f
	}
	w := bufio.NewWriter(out)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go lib.HandleInterrupt(ctx, cancel)

	n, err := run(ctx, svc, in, w, config.BatchSize, lib.AnnotateOptions{Debug: config.Debug, NoCache: config.NoCache})
	if flushErr := w.Flush(); err == nil {
		err = flushErr
	}
	if err != nil {
		log.Fatal().Err(err).Int("documents", n).Msg("annotation failed")
	}
	log.Info().Int("documents", n).Msg("annotation complete")
}
