package routes

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/AleutianReason/pkg/extensions"
	"github.com/AleutianAI/AleutianReason/services/llm"
	"github.com/AleutianAI/AleutianReason/services/reasoner/datatypes"
	"github.com/AleutianAI/AleutianReason/services/reasoner/handlers"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type okAggregator struct{}

func (okAggregator) RunAggregation(_ context.Context, req *datatypes.AggregationRequest) (*datatypes.AggregationResponse, error) {
	resp := datatypes.NewAggregationResponse(req.RequestID)
	resp.FinalAnswer = "ok"
	return resp, nil
}

func newRouter(opts extensions.ServiceOptions) *gin.Engine {
	router := gin.New()
	SetupRoutes(router, handlers.Deps{Engine: okAggregator{}}, opts,
		"openai", llm.NewTierRegistry("gpt-4o-mini", "gpt-4"))
	return router
}

func TestRoutesWired(t *testing.T) {
	router := newRouter(extensions.DefaultOptions())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/completions", bytes.NewBufferString(`{"prompt":"q"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestRoutesRequireAuthWhenTokenConfigured(t *testing.T) {
	t.Setenv("REASONER_API_TOKEN", "hunter2")
	provider, err := extensions.NewTokenAuthProviderFromEnv()
	require.NoError(t, err)
	require.NotNil(t, provider)

	router := newRouter(extensions.DefaultOptions().WithAuth(provider))

	// Health stays open.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	// API routes reject missing tokens.
	w = httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/v1/completions", bytes.NewBufferString(`{"prompt":"q"}`))
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// And accept the configured one.
	w = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/v1/completions", bytes.NewBufferString(`{"prompt":"q"}`))
	req.Header.Set("Authorization", "Bearer hunter2")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
