package main

import (
	"context"
	"errors"
	"io"
	"net/http"

	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/doc"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/service"
)

type controller interface {
	Annotate(ctx context.Context, body io.Reader, opts lib.AnnotateOptions) (*lib.APIAnnotation, error)
	AnnotateBatch(ctx context.Context, body io.Reader, opts lib.AnnotateOptions) ([]*lib.APIAnnotation, error)
	Ready() bool
}

type annotationController struct {
	service *service.Service
}

func (c annotationController) Annotate(ctx context.Context, body io.Reader, opts lib.AnnotateOptions) (*lib.APIAnnotation, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	res, err := c.service.Annotate(ctx, raw, opts)
	return res, asHttpError(err)
}

// AnnotateBatch annotates a JSONL body. Lines are decoded by the service; an
// invalid line fails the whole batch.
func (c annotationController) AnnotateBatch(ctx context.Context, body io.Reader, opts lib.AnnotateOptions) ([]*lib.APIAnnotation, error) {
	var raws [][]byte
	err := doc.NewReader().ReadRawWithCallback(body, func(raw []byte) error {
		raws = append(raws, raw)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(raws) == 0 {
		return []*lib.APIAnnotation{}, nil
	}
	res, err := c.service.AnnotateRaw(ctx, raws, opts)
	return res, asHttpError(err)
}

func (c annotationController) Ready() bool {
	return c.service.Ready()
}

func asHttpError(err error) error {
	if errors.Is(err, doc.ErrInvalidDoc) {
		return NewHttpError(http.StatusBadRequest, err)
	}
	return err
}
