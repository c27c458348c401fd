package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/mock"

	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib"
)

type mockController struct {
	mock.Mock
}

func (m *mockController) Annotate(ctx context.Context, body io.Reader, opts lib.AnnotateOptions) (*lib.APIAnnotation, error) {
	ret := m.Called(opts)
	var res *lib.APIAnnotation
	if ret.Get(0) != nil {
		res = ret.Get(0).(*lib.APIAnnotation)
	}
	return res, ret.Error(1)
}

func (m *mockController) AnnotateBatch(ctx context.Context, body io.Reader, opts lib.AnnotateOptions) ([]*lib.APIAnnotation, error) {
	ret := m.Called(opts)
	var res []*lib.APIAnnotation
	if ret.Get(0) != nil {
		res = ret.Get(0).([]*lib.APIAnnotation)
	}
	return res, ret.Error(1)
}

func (m *mockController) Ready() bool {
	return m.Called().Bool(0)
}

type apiError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

var _ = Describe("Server", func() {
	var (
		ctrl   *mockController
		router *gin.Engine
	)

	serve := func(method, target, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, target, nil)
		} else {
			req = httptest.NewRequest(method, target, strings.NewReader(body))
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	decodeError := func(rec *httptest.ResponseRecorder) apiError {
		var e apiError
		Ω(json.Unmarshal(rec.Body.Bytes(), &e)).Should(Succeed())
		return e
	}

	BeforeEach(func() {
		ctrl = &mockController{}
		router = newRouter(server{controller: ctrl}, []string{"*"})
	})

	Describe("POST /annotate", func() {
		It("returns the annotation", func() {
			annotation := &lib.APIAnnotation{
				Digest: "abc",
				Infections: []*lib.APIInfection{{
					Text: "5 patients died", End: 15, Attributes: []string{"infection", "person", "death"}, Count: 5,
				}},
			}
			ctrl.On("Annotate", lib.AnnotateOptions{}).Return(annotation, nil).Once()

			rec := serve(http.MethodPost, "/annotate", `{"text": "5 patients died"}`)

			Ω(rec.Code).Should(Equal(http.StatusOK))
			var got lib.APIAnnotation
			Ω(json.Unmarshal(rec.Body.Bytes(), &got)).Should(Succeed())
			Ω(&got).Should(Equal(annotation))
			ctrl.AssertExpectations(GinkgoT())
		})

		It("passes the query options through", func() {
			ctrl.On("Annotate", lib.AnnotateOptions{Debug: true, NoCache: true}).
				Return(&lib.APIAnnotation{Infections: []*lib.APIInfection{}}, nil).Once()

			rec := serve(http.MethodPost, "/annotate?debug=true&no_cache=1", `{}`)

			Ω(rec.Code).Should(Equal(http.StatusOK))
			ctrl.AssertExpectations(GinkgoT())
		})

		It("rejects a non boolean debug parameter", func() {
			rec := serve(http.MethodPost, "/annotate?debug=maybe", `{}`)

			Ω(rec.Code).Should(Equal(http.StatusBadRequest))
			Ω(decodeError(rec).Message).Should(ContainSubstring("debug"))
			ctrl.AssertNotCalled(GinkgoT(), "Annotate", mock.Anything)
		})

		It("rejects a missing body", func() {
			rec := serve(http.MethodPost, "/annotate", "")

			Ω(rec.Code).Should(Equal(http.StatusBadRequest))
			Ω(decodeError(rec)).Should(Equal(apiError{Status: http.StatusBadRequest, Message: "request body missing"}))
		})

		It("maps http errors to their status", func() {
			ctrl.On("Annotate", lib.AnnotateOptions{}).
				Return(nil, NewHttpError(http.StatusBadRequest, errors.New("invalid document"))).Once()

			rec := serve(http.MethodPost, "/annotate", `[]`)

			Ω(rec.Code).Should(Equal(http.StatusBadRequest))
			Ω(decodeError(rec).Message).Should(Equal("invalid document"))
		})

		It("maps other errors to 500", func() {
			ctrl.On("Annotate", lib.AnnotateOptions{}).Return(nil, errors.New("boom")).Once()

			rec := serve(http.MethodPost, "/annotate", `{}`)

			Ω(rec.Code).Should(Equal(http.StatusInternalServerError))
			Ω(decodeError(rec)).Should(Equal(apiError{Status: http.StatusInternalServerError, Message: "boom"}))
		})
	})

	Describe("POST /annotate/batch", func() {
		It("returns one annotation per document", func() {
			ctrl.On("AnnotateBatch", lib.AnnotateOptions{}).
				Return([]*lib.APIAnnotation{{Digest: "a"}, {Digest: "b"}}, nil).Once()

			rec := serve(http.MethodPost, "/annotate/batch", "{}\n{}\n")

			Ω(rec.Code).Should(Equal(http.StatusOK))
			var got []lib.APIAnnotation
			Ω(json.Unmarshal(rec.Body.Bytes(), &got)).Should(Succeed())
			Ω(got).Should(HaveLen(2))
			Ω(got[1].Digest).Should(Equal("b"))
		})
	})

	Describe("GET /healthz", func() {
		It("is ok when the cache is ready", func() {
			ctrl.On("Ready").Return(true).Once()
			Ω(serve(http.MethodGet, "/healthz", "").Code).Should(Equal(http.StatusOK))
		})

		It("is unavailable when the cache is not ready", func() {
			ctrl.On("Ready").Return(false).Once()
			Ω(serve(http.MethodGet, "/healthz", "").Code).Should(Equal(http.StatusServiceUnavailable))
		})
	})

	Describe("middleware", func() {
		It("generates a request id", func() {
			ctrl.On("Ready").Return(true)
			rec := serve(http.MethodGet, "/healthz", "")
			Ω(rec.Header().Get(requestIDHeader)).ShouldNot(BeEmpty())
		})

		It("keeps the caller's request id", func() {
			ctrl.On("Ready").Return(true)
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			req.Header.Set(requestIDHeader, "abc-123")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			Ω(rec.Header().Get(requestIDHeader)).Should(Equal("abc-123"))
		})

		It("answers CORS preflight requests", func() {
			req := httptest.NewRequest(http.MethodOptions, "/annotate", nil)
			req.Header.Set("Origin", "http://example.com")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Ω(rec.Code).Should(Equal(http.StatusNoContent))
			Ω(rec.Header().Get("Access-Control-Allow-Origin")).Should(Equal("*"))
		})
	})
})
