// Package service annotates batches of raw parsed documents, consulting the
// local and remote caches before running the annotator.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/anno"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/cache"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/cache/local"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/cache/remote"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/doc"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/infection"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/metrics"
)

type Service struct {
	annotator   anno.Annotator
	fingerprint string
	localCache  local.Client
	remoteCache remote.Client
	metrics     *metrics.Metrics
	workers     int
}

// Fingerprinter is implemented by annotators whose output depends on their
// configuration. The fingerprint is part of every cache key.
type Fingerprinter interface {
	Fingerprint() string
}

type Option func(*Service)

func WithLocalCache(c local.Client) Option {
	return func(s *Service) { s.localCache = c }
}

func WithRemoteCache(c remote.Client) Option {
	return func(s *Service) { s.remoteCache = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithWorkers bounds the documents annotated concurrently within one batch.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// New returns a service with no caches and private metrics unless options say
// otherwise. The annotator must produce the infections tier.
func New(annotator anno.Annotator, opts ...Option) *Service {
	s := &Service{
		annotator: annotator,
		metrics:   metrics.New(),
		workers:   runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if f, ok := annotator.(Fingerprinter); ok {
		s.fingerprint = f.Fingerprint()
	}
	return s
}

// Digest is the cache key of raw under this service's annotator.
func (s *Service) Digest(raw []byte, debug bool) string {
	return cache.Digest(raw, debug, s.fingerprint)
}

func (s *Service) Metrics() *metrics.Metrics {
	return s.metrics
}

// Ready reports whether the remote cache, if any, can be reached.
func (s *Service) Ready() bool {
	return s.remoteCache == nil || s.remoteCache.Ready()
}

// Annotate annotates a single raw document.
func (s *Service) Annotate(ctx context.Context, raw []byte, opts lib.AnnotateOptions) (*lib.APIAnnotation, error) {
	res, err := s.AnnotateRaw(ctx, [][]byte{raw}, opts)
	if err != nil {
		return nil, err
	}
	return res[0], nil
}

// AnnotateRaw returns one annotation per raw document, in input order. An
// invalid document fails the whole batch; cache failures only cost a lookup.
func (s *Service) AnnotateRaw(ctx context.Context, raws [][]byte, opts lib.AnnotateOptions) ([]*lib.APIAnnotation, error) {
	logger := log.With().Str("batch", uuid.NewString()).Int("documents", len(raws)).Logger()
	logger.Debug().Msg("annotating batch")

	results := make([]*lib.APIAnnotation, len(raws))
	digests := make([]string, len(raws))
	for i, raw := range raws {
		digests[i] = s.Digest(raw, opts.Debug)
	}

	if !opts.NoCache {
		s.lookup(logger, digests, results)
	}

	var misses []int
	for i, res := range results {
		if res == nil {
			misses = append(misses, i)
		}
	}
	s.metrics.CacheMiss.Add(float64(len(misses)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for _, i := range misses {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			d, err := doc.Decode(raws[i])
			if err != nil {
				s.metrics.Errors.WithLabelValues(metrics.StageDecode).Inc()
				return fmt.Errorf("document %d: %w", i, err)
			}
			start := time.Now()
			annotation, err := s.annotate(d, digests[i], opts.Debug)
			if err != nil {
				s.metrics.Errors.WithLabelValues(metrics.StageAnnotate).Inc()
				return fmt.Errorf("document %d: %w", i, err)
			}
			s.metrics.ObserveSince(start)
			results[i] = annotation
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Debug().Err(err).Msg("batch failed")
		return nil, err
	}

	s.store(logger, misses, results)

	s.metrics.Documents.Add(float64(len(raws)))
	for _, res := range results {
		for _, inf := range res.Infections {
			for _, trigger := range infection.TriggerLemmas {
				if anno.HasAttribute(inf.Attributes, trigger) {
					s.metrics.Infections.WithLabelValues(trigger).Inc()
				}
			}
		}
	}
	return results, nil
}

func (s *Service) annotate(d *doc.Doc, digest string, debug bool) (*lib.APIAnnotation, error) {
	document := anno.NewDocument(d)
	if err := document.AddTiers(s.annotator, debug); err != nil {
		return nil, err
	}
	tiers, err := document.RequireTiers(infection.InfectionsTier, anno.SpacySentences)
	if err != nil {
		return nil, err
	}
	return &lib.APIAnnotation{
		Digest:     digest,
		Infections: ToAPIInfections(tiers[0], tiers[1]),
	}, nil
}

// lookup fills results from the local cache, then the remote cache.
func (s *Service) lookup(logger zerolog.Logger, digests []string, results []*lib.APIAnnotation) {
	pending := map[string][]int{}
	for i, digest := range digests {
		if s.localCache != nil {
			if entry := s.localCache.Get(digest); entry != nil {
				results[i] = cached(entry)
				s.metrics.CacheHits.WithLabelValues(string(cache.Local)).Inc()
				continue
			}
		}
		pending[digest] = append(pending[digest], i)
	}
	if s.remoteCache == nil || len(pending) == 0 {
		return
	}

	pipe := s.remoteCache.NewGetPipeline(len(pending))
	for digest := range pending {
		pipe.Get(digest)
	}
	err := pipe.ExecGet(func(digest string, entry *cache.Entry) error {
		if entry == nil || entry.Annotation == nil {
			return nil
		}
		for _, i := range pending[digest] {
			results[i] = cached(entry)
			s.metrics.CacheHits.WithLabelValues("remote").Inc()
		}
		if s.localCache != nil {
			s.localCache.Set(digest, entry)
		}
		return nil
	})
	if err != nil {
		s.metrics.Errors.WithLabelValues(metrics.StageCache).Inc()
		logger.Warn().Err(err).Msg("remote cache lookup failed")
	}
}

// store writes freshly computed annotations to both caches.
func (s *Service) store(logger zerolog.Logger, computed []int, results []*lib.APIAnnotation) {
	if len(computed) == 0 {
		return
	}
	var pipe remote.SetPipeline
	if s.remoteCache != nil {
		pipe = s.remoteCache.NewSetPipeline(len(computed))
	}
	for _, i := range computed {
		entry := &cache.Entry{Digest: results[i].Digest, Annotation: results[i]}
		if s.localCache != nil {
			s.localCache.Set(entry.Digest, entry)
		}
		if pipe == nil {
			continue
		}
		data, err := json.Marshal(entry)
		if err != nil {
			logger.Warn().Err(err).Str("digest", entry.Digest).Msg("could not encode cache entry")
			continue
		}
		pipe.Set(entry.Digest, data)
	}
	if pipe != nil && pipe.Size() > 0 {
		if err := pipe.ExecSet(); err != nil {
			s.metrics.Errors.WithLabelValues(metrics.StageCache).Inc()
			logger.Warn().Err(err).Msg("remote cache store failed")
		}
	}
}

func cached(entry *cache.Entry) *lib.APIAnnotation {
	res := *entry.Annotation
	res.Cached = true
	return &res
}

// ToAPIInfections converts the infections tier, numbering each span by the
// sentence it starts in.
func ToAPIInfections(infections, sentences *anno.Tier) []*lib.APIInfection {
	sentenceOf := make(map[*anno.Span]int, len(infections.Spans))
	for i, group := range sentences.GroupSpansByContainingSpan(infections) {
		for _, s := range group.Contained {
			sentenceOf[s] = i
		}
	}

	res := make([]*lib.APIInfection, 0, len(infections.Spans))
	for _, s := range infections.Spans {
		sentence, ok := sentenceOf[s]
		if !ok {
			sentence = startingSentence(s, sentences)
		}
		inf := &lib.APIInfection{
			Text:            s.Text(),
			Start:           s.Start,
			End:             s.End,
			Sentence:        sentence,
			Attributes:      s.Metadata.Attributes,
			DebugAttributes: s.Metadata.DebugAttributes,
		}
		if s.Metadata.Count != nil {
			inf.Count = *s.Metadata.Count
		}
		res = append(res, inf)
	}
	return res
}

func startingSentence(s *anno.Span, sentences *anno.Tier) int {
	for i, sentence := range sentences.Spans {
		if sentence.Start <= s.Start && s.Start < sentence.End {
			return i
		}
	}
	return -1
}
