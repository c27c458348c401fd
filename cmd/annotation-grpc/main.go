package main

import (
	"context"
	"fmt"
	"net"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc"

	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib"
	grpc_annotator "gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/grpc-annotator"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/service"
)

// config structure
type annotationGrpcConfig struct {
	lib.BaseConfig `mapstructure:",squash"`
	service.Config `mapstructure:",squash"`
	Server         struct {
		GrpcPort int `mapstructure:"grpc_port"`
	}
}

var config annotationGrpcConfig

func initConfig() {
	defaults := service.DefaultConfig()
	defaults["log_level"] = "info"
	defaults["server"] = map[string]interface{}{
		"grpc_port": 50051,
	}

	if err := lib.InitializeConfig("./config/annotation-grpc.yml", defaults, &config); err != nil {
		log.Fatal().Err(err).Send()
	}
}

// serve blocks until lis fails or ctx is done, then stops the server gracefully.
func serve(ctx context.Context, lis net.Listener, svc *service.Service) error {
	var opts []grpc.ServerOption
	grpcServer := grpc.NewServer(opts...)
	grpc_annotator.RegisterAnnotatorServer(grpcServer, grpc_annotator.NewServer(svc))

	go func() {
		<-ctx.Done()
		log.Info().Msg("stopping grpc server")
		grpcServer.GracefulStop()
	}()

	return grpcServer.Serve(lis)
}

func main() {
	initConfig()

	svc, err := service.FromConfig(config.Config)
	if err != nil {
		log.Fatal().Err(err).Send()
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", config.Server.GrpcPort))
	if err != nil {
		log.Fatal().Err(err).Send()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go lib.HandleInterrupt(ctx, cancel)

	log.Info().Int("port", config.Server.GrpcPort).Msg("ready to accept requests")
	if err := serve(ctx, lis, svc); err != nil {
		log.Fatal().Err(err).Send()
	}
}
