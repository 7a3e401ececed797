package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaygroundHandler(t *testing.T) {
	h, err := NewPlaygroundHandler("/graphql", zerolog.Nop())
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	h.HandlePlayground(rr, httptest.NewRequest(http.MethodGet, "/playground", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "graphiql")
	assert.Contains(t, rr.Body.String(), "createFetcher")
	assert.Contains(t, rr.Body.String(), "graphql")
}
