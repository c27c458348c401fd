package grpc_annotator

import (
	"context"
	"errors"
	"io"

	"github.com/rs/zerolog/log"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/doc"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/service"
)

type server struct {
	service *service.Service
}

// NewServer serves annotations computed (or cached) by svc.
func NewServer(svc *service.Service) AnnotatorServer {
	return &server{service: svc}
}

func (s *server) Annotate(ctx context.Context, in *AnnotateRequest) (*lib.APIAnnotation, error) {
	res, err := s.service.Annotate(ctx, in.Document, in.Options)
	if err != nil {
		return nil, toStatus(err)
	}
	return res, nil
}

// AnnotateStream answers each request in order until the client closes its
// side of the stream.
func (s *server) AnnotateStream(stream Annotator_AnnotateStreamServer) error {
	for {
		in, err := stream.Recv()
		if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}

		res, err := s.service.Annotate(stream.Context(), in.Document, in.Options)
		if err != nil {
			return toStatus(err)
		}
		if err := stream.Send(res); err != nil {
			return err
		}
	}
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, doc.ErrInvalidDoc):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		log.Error().Err(err).Msg("annotation failed")
		return status.Error(codes.Internal, err.Error())
	}
}
