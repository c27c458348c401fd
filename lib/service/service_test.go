package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/anno"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/blocklist"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/cache"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/cache/local"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/doc"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/infection"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/testhelpers"
)

type mockAnnotator struct {
	mock.Mock
}

func (m *mockAnnotator) Annotate(d *anno.Document, debug bool) (map[string]*anno.Tier, error) {
	ret := m.Called(d, debug)
	var tiers map[string]*anno.Tier
	if ret.Get(0) != nil {
		tiers = ret.Get(0).(map[string]*anno.Tier)
	}
	return tiers, ret.Error(1)
}

type ServiceSuite struct {
	suite.Suite
	fivePatientsDied      []byte
	somePatientsRecovered []byte
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) raw(d *doc.Doc) []byte {
	b, err := json.Marshal(d)
	s.Require().NoError(err)
	return b
}

func (s *ServiceSuite) SetupSuite() {
	s.fivePatientsDied = s.raw(testhelpers.FivePatientsDied())
	s.somePatientsRecovered = s.raw(testhelpers.SomePatientsRecovered())
}

func (s *ServiceSuite) TestAnnotateRawKeepsInputOrder() {
	svc := New(infection.NewAnnotator(), WithWorkers(2))

	res, err := svc.AnnotateRaw(context.Background(), [][]byte{s.fivePatientsDied, s.somePatientsRecovered, s.fivePatientsDied}, lib.AnnotateOptions{})
	s.Require().NoError(err)
	s.Require().Len(res, 3)

	s.Require().Len(res[0].Infections, 1)
	s.Equal(&lib.APIInfection{
		Text:       "5 patients died",
		Start:      0,
		End:        15,
		Sentence:   0,
		Attributes: []string{"infection", "person", "death"},
		Count:      5,
	}, res[0].Infections[0])
	s.Equal(svc.Digest(s.fivePatientsDied, false), res[0].Digest)

	s.NotNil(res[1].Infections)
	s.Empty(res[1].Infections)
	s.Equal(res[0].Infections, res[2].Infections)

	s.Equal(float64(3), testutil.ToFloat64(svc.Metrics().Documents))
	s.Equal(float64(2), testutil.ToFloat64(svc.Metrics().Infections.WithLabelValues("death")))
}

func (s *ServiceSuite) TestDebugTraces() {
	svc := New(infection.NewAnnotator())

	res, err := svc.Annotate(context.Background(), s.fivePatientsDied, lib.AnnotateOptions{Debug: true})
	s.Require().NoError(err)
	s.Require().Len(res.Infections, 1)
	s.Equal([]string{"attributes from noun chunk", "attributes from ancestors"}, res.Infections[0].DebugAttributes)
	s.Equal(svc.Digest(s.fivePatientsDied, true), res.Digest)
}

func (s *ServiceSuite) TestLocalCache() {
	annotator := &mockAnnotator{}
	annotator.On("Annotate", mock.Anything, false).Return(map[string]*anno.Tier{
		infection.InfectionsTier: anno.NewTier(nil),
	}, nil).Once()

	svc := New(annotator, WithLocalCache(local.New()))
	first, err := svc.Annotate(context.Background(), s.fivePatientsDied, lib.AnnotateOptions{})
	s.Require().NoError(err)
	s.False(first.Cached)

	second, err := svc.Annotate(context.Background(), s.fivePatientsDied, lib.AnnotateOptions{})
	s.Require().NoError(err)
	s.True(second.Cached)
	s.Equal(first.Digest, second.Digest)

	s.Equal(float64(1), testutil.ToFloat64(svc.Metrics().CacheHits.WithLabelValues("local")))
	annotator.AssertExpectations(s.T())
}

func (s *ServiceSuite) TestNoCacheSkipsLookup() {
	localCache := local.New()
	svc := New(infection.NewAnnotator(), WithLocalCache(localCache))
	digest := svc.Digest(s.fivePatientsDied, false)
	localCache.Set(digest, &cache.Entry{Digest: digest, Annotation: &lib.APIAnnotation{Digest: digest}})

	res, err := svc.Annotate(context.Background(), s.fivePatientsDied, lib.AnnotateOptions{NoCache: true})
	s.Require().NoError(err)
	s.False(res.Cached)
	s.Len(res.Infections, 1)
	s.Len(localCache.Get(digest).Annotation.Infections, 1)
}

func (s *ServiceSuite) TestRemoteCacheHit() {
	digest := cache.Digest(s.fivePatientsDied, false, "")
	stored := &lib.APIAnnotation{Digest: digest, Infections: []*lib.APIInfection{{Text: "stored", Count: 9}}}
	remoteCache, get, set := testhelpers.NewMockRemoteCache(map[string]*cache.Entry{
		digest: {Digest: digest, Annotation: stored},
	})
	localCache := local.New()

	annotator := &mockAnnotator{}
	svc := New(annotator, WithRemoteCache(remoteCache), WithLocalCache(localCache))
	res, err := svc.Annotate(context.Background(), s.fivePatientsDied, lib.AnnotateOptions{})
	s.Require().NoError(err)

	s.True(res.Cached)
	s.Equal(9, res.Infections[0].Count)
	s.NotNil(localCache.Get(digest))
	get.AssertCalled(s.T(), "Get", digest)
	set.AssertNotCalled(s.T(), "ExecSet")
	annotator.AssertNotCalled(s.T(), "Annotate", mock.Anything, mock.Anything)
}

func (s *ServiceSuite) TestRemoteCacheStoresMisses() {
	remoteCache, _, set := testhelpers.NewMockRemoteCache(nil)

	svc := New(infection.NewAnnotator(), WithRemoteCache(remoteCache))
	_, err := svc.AnnotateRaw(context.Background(), [][]byte{s.fivePatientsDied, s.somePatientsRecovered}, lib.AnnotateOptions{})
	s.Require().NoError(err)

	set.AssertCalled(s.T(), "ExecSet")
	s.Require().Contains(set.Data, svc.Digest(s.fivePatientsDied, false))

	var entry cache.Entry
	s.Require().NoError(json.Unmarshal(set.Data[svc.Digest(s.fivePatientsDied, false)], &entry))
	s.Equal(5, entry.Annotation.Infections[0].Count)
	s.Equal(float64(2), testutil.ToFloat64(svc.Metrics().CacheMiss))
}

func (s *ServiceSuite) TestRemoteCacheFailureIsNotFatal() {
	get := &testhelpers.GetPipeline{}
	get.On("Get", mock.AnythingOfType("string")).Return()
	get.On("ExecGet").Return(errors.New("connection refused"))
	set := &testhelpers.SetPipeline{}
	set.On("Set", mock.AnythingOfType("string")).Return()
	set.On("ExecSet").Return(errors.New("connection refused"))
	remoteCache := &testhelpers.RemoteClient{}
	remoteCache.On("NewGetPipeline", 1).Return(get)
	remoteCache.On("NewSetPipeline", 1).Return(set)
	remoteCache.On("Ready").Return(false)

	svc := New(infection.NewAnnotator(), WithRemoteCache(remoteCache))
	res, err := svc.Annotate(context.Background(), s.fivePatientsDied, lib.AnnotateOptions{})
	s.Require().NoError(err)
	s.Len(res.Infections, 1)
	s.False(svc.Ready())
	s.Equal(float64(2), testutil.ToFloat64(svc.Metrics().Errors.WithLabelValues("cache")))
}

func (s *ServiceSuite) TestInvalidDocumentFailsBatch() {
	svc := New(infection.NewAnnotator())

	_, err := svc.AnnotateRaw(context.Background(), [][]byte{s.fivePatientsDied, []byte(`{"text":"x","tokens":[{"id":3}]}`)}, lib.AnnotateOptions{})
	s.ErrorIs(err, doc.ErrInvalidDoc)
	s.Contains(err.Error(), "document 1")
	s.Equal(float64(1), testutil.ToFloat64(svc.Metrics().Errors.WithLabelValues("decode")))
}

func (s *ServiceSuite) TestAnnotatorErrorFailsBatch() {
	annotator := &mockAnnotator{}
	annotator.On("Annotate", mock.Anything, false).Return(nil, anno.ErrUnknownTier)

	_, err := New(annotator).Annotate(context.Background(), s.fivePatientsDied, lib.AnnotateOptions{})
	s.ErrorIs(err, anno.ErrUnknownTier)
}

func (s *ServiceSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(infection.NewAnnotator()).Annotate(ctx, s.fivePatientsDied, lib.AnnotateOptions{})
	s.ErrorIs(err, context.Canceled)
}

func (s *ServiceSuite) TestToAPIInfectionsNumbersSentences() {
	d := testhelpers.FivePatientsDied()
	sentences := anno.NewTier([]*anno.Span{
		{Start: 0, End: 2, Doc: d},
		{Start: 2, End: 15, Doc: d},
	})
	count := anno.IntPtr(5)
	infections := anno.NewTier([]*anno.Span{
		anno.NewSpan(0, 15, d, anno.Metadata{Attributes: []string{"death"}, Count: count}),
		anno.NewSpan(2, 10, d, anno.Metadata{Attributes: []string{"infection"}, Count: count}),
	})

	res := ToAPIInfections(infections, sentences)
	s.Require().Len(res, 2)
	s.Equal(0, res[0].Sentence)
	s.Equal(1, res[1].Sentence)
	s.Equal("patients", res[1].Text)
}

func (s *ServiceSuite) TestSharedCacheSeparatesAnnotatorConfigurations() {
	shared := local.New()
	blocksDeath := blocklist.Default()
	blocksDeath.Attributes["death"] = true

	plain := New(infection.NewAnnotator(), WithLocalCache(shared))
	strict := New(infection.NewAnnotator(infection.WithBlocklist(blocksDeath)), WithLocalCache(shared))
	s.NotEqual(plain.Digest(s.fivePatientsDied, false), strict.Digest(s.fivePatientsDied, false))

	first, err := plain.Annotate(context.Background(), s.fivePatientsDied, lib.AnnotateOptions{})
	s.Require().NoError(err)
	s.Len(first.Infections, 1)

	second, err := strict.Annotate(context.Background(), s.fivePatientsDied, lib.AnnotateOptions{})
	s.Require().NoError(err)
	s.False(second.Cached)
	s.Empty(second.Infections)

	again, err := New(infection.NewAnnotator(), WithLocalCache(shared)).Annotate(context.Background(), s.fivePatientsDied, lib.AnnotateOptions{})
	s.Require().NoError(err)
	s.True(again.Cached)
	s.Len(again.Infections, 1)
}
