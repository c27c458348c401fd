package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/infection"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/service"
	"gitlab.mdcatapult.io/informatics/software-engineering/infection-annotator/lib/testhelpers"
)

func newTestController() annotationController {
	return annotationController{service: service.New(infection.NewAnnotator())}
}

func TestControllerAnnotate(t *testing.T) {
	raw, err := json.Marshal(testhelpers.FivePatientsDied())
	require.NoError(t, err)

	res, err := newTestController().Annotate(context.Background(), strings.NewReader(string(raw)), lib.AnnotateOptions{})
	require.NoError(t, err)
	require.Len(t, res.Infections, 1)
	assert.Equal(t, 5, res.Infections[0].Count)
}

func TestControllerAnnotateInvalidDocument(t *testing.T) {
	_, err := newTestController().Annotate(context.Background(), strings.NewReader(`{"text": 1}`), lib.AnnotateOptions{})

	var httpErr HttpError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.code)
}

func TestControllerAnnotateBatch(t *testing.T) {
	var body strings.Builder
	for _, d := range []interface{}{testhelpers.FivePatientsDied(), testhelpers.ConfirmedCasesInBrazil()} {
		line, err := json.Marshal(d)
		require.NoError(t, err)
		body.Write(line)
		body.WriteString("\n")
	}

	res, err := newTestController().AnnotateBatch(context.Background(), strings.NewReader(body.String()), lib.AnnotateOptions{})
	require.NoError(t, err)
	require.Len(t, res, 2)
	require.Len(t, res[1].Infections, 1)
	assert.Equal(t, 12, res[1].Infections[0].Count)
}

func TestControllerAnnotateBatchInvalidLine(t *testing.T) {
	_, err := newTestController().AnnotateBatch(context.Background(), strings.NewReader("{}\nnope\n"), lib.AnnotateOptions{})

	var httpErr HttpError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.code)
	assert.Contains(t, err.Error(), "document 1")
}

func TestControllerAnnotateBatchEmpty(t *testing.T) {
	res, err := newTestController().AnnotateBatch(context.Background(), strings.NewReader("\n"), lib.AnnotateOptions{})
	require.NoError(t, err)
	assert.Empty(t, res)
}
