package main

import (
	"fmt"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/service"
)

// config structure
type annotationAPIConfig struct {
	lib.BaseConfig `mapstructure:",squash"`
	service.Config `mapstructure:",squash"`
	Server         struct {
		HttpPort     int      `mapstructure:"http_port"`
		AllowOrigins []string `mapstructure:"allow_origins"`
	}
}

var config annotationAPIConfig

func initConfig() {
	defaults := service.DefaultConfig()
	defaults["log_level"] = "info"
	defaults["server"] = map[string]interface{}{
		"http_port":     8080,
		"allow_origins": []string{"*"},
	}

	if err := lib.InitializeConfig("./config/annotation-api.yml", defaults, &config); err != nil {
		log.Fatal().Err(err).Send()
	}
}

func newRouter(s server, allowOrigins []string) *gin.Engine {
	r := gin.New()
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = len(allowOrigins) == 0
	for _, origin := range allowOrigins {
		if origin == "*" {
			corsConfig.AllowAllOrigins = true
		}
	}
	if !corsConfig.AllowAllOrigins {
		corsConfig.AllowOrigins = allowOrigins
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, requestIDHeader)
	corsConfig.ExposeHeaders = []string{requestIDHeader}
	r.Use(requestID, gin.LoggerWithFormatter(lib.JsonLogFormatter), gin.Recovery(), cors.New(corsConfig))
	s.RegisterRoutes(r)
	return r
}

func main() {
	initConfig()

	svc, err := service.FromConfig(config.Config)
	if err != nil {
		log.Fatal().Err(err).Send()
	}

	s := server{
		controller: annotationController{service: svc},
		metrics:    svc.Metrics().Handler(),
	}
	r := newRouter(s, config.Server.AllowOrigins)

	log.Info().Int("port", config.Server.HttpPort).Msg("ready to accept requests")
	if err := r.Run(fmt.Sprintf(":%d", config.Server.HttpPort)); err != nil {
		log.Fatal().Err(err).Send()
	}
}
