package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib"
)

const requestIDHeader = "X-Request-ID"

type HttpError struct {
	code int
	error
}

func (e HttpError) Error() string {
	return e.error.Error()
}

func (e HttpError) Unwrap() error {
	return e.error
}

func NewHttpError(code int, err error) HttpError {
	return HttpError{
		code:  code,
		error: err,
	}
}

type server struct {
	controller controller
	metrics    http.Handler
}

func (s server) RegisterRoutes(r *gin.Engine) {
	r.POST("/annotate", validateBody, annotateOptions, s.Annotate)
	r.POST("/annotate/batch", validateBody, annotateOptions, s.AnnotateBatch)
	r.GET("/healthz", s.Healthz)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics))
	}
}

func (s server) Annotate(c *gin.Context) {
	opts := c.MustGet(optionsKey).(lib.AnnotateOptions)
	res, err := s.controller.Annotate(c.Request.Context(), c.Request.Body, opts)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s server) AnnotateBatch(c *gin.Context) {
	opts := c.MustGet(optionsKey).(lib.AnnotateOptions)
	res, err := s.controller.AnnotateBatch(c.Request.Context(), c.Request.Body, opts)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s server) Healthz(c *gin.Context) {
	if !s.controller.Ready() {
		abort(c, http.StatusServiceUnavailable, errors.New("cache backend is not ready"))
		return
	}
	c.JSON(http.StatusOK, map[string]interface{}{"status": http.StatusOK, "message": "ok"})
}

const optionsKey = "annotate_options"

// annotateOptions reads the debug and no_cache query parameters.
func annotateOptions(c *gin.Context) {
	var opts lib.AnnotateOptions
	for name, target := range map[string]*bool{"debug": &opts.Debug, "no_cache": &opts.NoCache} {
		v, ok := c.GetQuery(name)
		if !ok {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			handleError(c, NewHttpError(http.StatusBadRequest, fmt.Errorf("invalid %s query parameter - must be a boolean", name)))
			return
		}
		*target = b
	}
	c.Set(optionsKey, opts)
	c.Next()
}

// requestID tags the request with the caller's X-Request-ID, or a new one.
func requestID(c *gin.Context) {
	id := c.GetHeader(requestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(lib.RequestIDKey, id)
	c.Header(requestIDHeader, id)
	c.Next()
}

func validateBody(c *gin.Context) {
	if c.Request.Body == nil || c.Request.Body == http.NoBody || c.Request.ContentLength == 0 {
		handleError(c, NewHttpError(http.StatusBadRequest, errors.New("request body missing")))
		return
	}
	c.Next()
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		abort(c, http.StatusInternalServerError, errors.New("abort called on nil error"))
		return
	}
	var httpErr HttpError
	switch {
	case errors.As(err, &httpErr):
		abort(c, httpErr.code, httpErr.error)
	default:
		log.Error().Err(err).Str(lib.RequestIDKey, c.GetString(lib.RequestIDKey)).Msg("request failed")
		abort(c, http.StatusInternalServerError, err)
	}
}

func abort(c *gin.Context, code int, err error) {
	c.JSON(code, map[string]interface{}{
		"status":  code,
		"message": err.Error(),
	})
	c.Abort()
}
