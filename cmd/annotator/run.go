package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/rs/zerolog/log"

	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/doc"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/service"
)

// run annotates the JSONL documents of r in batches of batchSize and writes
// one annotation per line to w, in input order. It returns the number of
// documents written.
func run(ctx context.Context, svc *service.Service, r io.Reader, w io.Writer, batchSize int, opts lib.AnnotateOptions) (int, error) {
	if batchSize < 1 {
		batchSize = 1
	}
	enc := json.NewEncoder(w)
	written := 0

	var batch [][]byte
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		annotations, err := svc.AnnotateRaw(ctx, batch, opts)
		if err != nil {
			return err
		}
		for _, a := range annotations {
			if err := enc.Encode(a); err != nil {
				return err
			}
		}
		written += len(batch)
		log.Debug().Int("documents", written).Msg("batch written")
		batch = batch[:0]
		return nil
	}

	err := doc.NewReader().ReadDocsWithCallback(r, func(_ *doc.Doc, raw []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch = append(batch, raw)
		if len(batch) >= batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return written, err
	}
	return written, flush()
}
