package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quizrec/internal/catalog"
	"quizrec/internal/metrics"
	"quizrec/internal/quiz"
	"quizrec/internal/score"
	"quizrec/internal/score/rule"
	"quizrec/internal/service"
	"quizrec/internal/session"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cookieName = "quiz_session"

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	threshold := 50000.0
	preset := rule.Preset{
		Name: "kayak",
		Scoring: score.Config{
			MaxScore: 100,
			Rules: []score.Rule{
				{
					ID: "calm", Type: score.RuleExactMatch, ResponseKey: "waterType", ProductAttribute: "type",
					Logic:     score.Logic{Condition: &score.Condition{Value: score.String("recreational")}, Weight: 40},
					Reasoning: "Built for calm water",
				},
				{
					ID: "budget", Type: score.RuleInverseThreshold, ResponseKey: "budget", ProductAttribute: "priceCents",
					Logic:     score.Logic{Condition: &score.Condition{Value: score.String("budget")}, Threshold: &threshold, Weight: 30},
					Reasoning: "Fits your budget",
				},
			},
		},
		Responses: quiz.Mapping{
			Aliases: []quiz.Alias{
				{From: "water_type", To: "waterType", Values: map[string]string{"lake": "recreational"}},
				{From: "budget", To: "budget"},
			},
		},
	}
	engine, err := preset.Engine()
	require.NoError(t, err)

	c, err := catalog.New([]score.Product{
		{ID: "lake-1", PriceCents: 40000, Attributes: score.Attributes{"type": score.String("recreational"), "priceCents": score.Number(40000)}},
		{ID: "sea-1", PriceCents: 120000, Attributes: score.Attributes{"type": score.String("touring"), "priceCents": score.Number(120000)}},
		{ID: "lake-2", PriceCents: 90000, Attributes: score.Attributes{"type": score.String("recreational"), "priceCents": score.Number(90000)}},
	})
	require.NoError(t, err)

	m := metrics.New()
	svc := service.New(service.Dependencies{
		Preset:   preset,
		Engine:   engine,
		Catalog:  c,
		Sessions: session.NewRepository(5, time.Hour),
		Metrics:  m,
	})
	return NewApiV1Router(svc, m, RouterOptions{SessionCookie: cookieName, Format: catalog.FormatProducts}).Mux()
}

type testEnvelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type testRecommendation struct {
	ID           string   `json:"id"`
	Score        float64  `json:"score"`
	MatchReasons []string `json:"matchReasons"`
}

func do(t *testing.T, h http.Handler, req *http.Request) (*httptest.ResponseRecorder, testEnvelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var env testEnvelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func post(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestResponsesHandler_IssuesSession(t *testing.T) {
	h := newTestHandler(t)

	rec, env := do(t, h, post("/api/v1/responses", `{"responses":{"water_type":"lake"}}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)

	var data map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &data))
	_, err := uuid.Parse(data["sessionId"])
	assert.NoError(t, err)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, cookieName, cookies[0].Name)
	assert.Equal(t, data["sessionId"], cookies[0].Value)
}

func TestResponsesHandler_CookieWins(t *testing.T) {
	h := newTestHandler(t)

	req := post("/api/v1/responses", `{"sessionId":"body-id","responses":{"budget":"budget"}}`)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: "cookie-id"})
	rec, _ := do(t, h, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/responses/cookie-id", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"budget":"budget"}`, string(env.Data))

	rec, _ = do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/responses/body-id", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResponsesHandler_BadBody(t *testing.T) {
	h := newTestHandler(t)

	rec, env := do(t, h, post("/api/v1/responses", `{"responses":`))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.False(t, env.Success)

	rec, env = do(t, h, post("/api/v1/responses", `{"responses":{}}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, env.Error)
}

func TestRecommendationsHandler(t *testing.T) {
	h := newTestHandler(t)

	req := post("/api/v1/responses", `{"responses":{"water_type":"lake","budget":"budget"}}`)
	req.AddCookie(&http.Cookie{Name: cookieName, Value: "s-1"})
	rec, _ := do(t, h, req)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env := do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/s-1?limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var recommendations []testRecommendation
	require.NoError(t, json.Unmarshal(env.Data, &recommendations))
	require.Len(t, recommendations, 2)
	assert.Equal(t, "lake-1", recommendations[0].ID)
	assert.Equal(t, 70.0, recommendations[0].Score)
	assert.Equal(t, []string{"Built for calm water", "Fits your budget"}, recommendations[0].MatchReasons)

	rec, env = do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/s-1?minScore=50", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &recommendations))
	assert.Len(t, recommendations, 1)
}

func TestRecommendationsHandler_Errors(t *testing.T) {
	h := newTestHandler(t)

	rec, _ := do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/ghost", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/ghost?limit=many", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/ghost?limit=500", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, h, httptest.NewRequest(http.MethodGet, "/api/v1/recommendations/ghost?minScore=-1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecommendHandler(t *testing.T) {
	h := newTestHandler(t)

	rec, env := do(t, h, post("/api/v1/recommend",
		`{"responses":{"water_type":"lake"},"productIds":["sea-1","lake-2"],"minScore":1}`))
	require.Equal(t, http.StatusOK, rec.Code)

	var recommendations []testRecommendation
	require.NoError(t, json.Unmarshal(env.Data, &recommendations))
	require.Len(t, recommendations, 1)
	assert.Equal(t, "lake-2", recommendations[0].ID)
}

func TestRecommendHandler_Validation(t *testing.T) {
	h := newTestHandler(t)

	for _, body := range []string{
		`{}`,
		`{"responses":{"budget":"budget"},"limit":-1}`,
		`{"responses":{"budget":"budget"},"productIds":[""]}`,
	} {
		rec, env := do(t, h, post("/api/v1/recommend", body))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.False(t, env.Success, body)
	}
}

func TestExplainHandler(t *testing.T) {
	h := newTestHandler(t)

	rec, env := do(t, h, post("/api/v1/explain/lake-2", `{"responses":{"water_type":"lake","budget":"budget"}}`))
	require.Equal(t, http.StatusOK, rec.Code)

	var explanation score.Explanation
	require.NoError(t, json.Unmarshal(env.Data, &explanation))
	assert.Equal(t, 40.0, explanation.TotalScore)
	assert.Equal(t, 40, explanation.Percentage)
	assert.Len(t, explanation.Breakdown, 2)

	rec, _ = do(t, h, post("/api/v1/explain/missing", `{"responses":{"budget":"budget"}}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestHandler(t)

	do(t, h, post("/api/v1/recommend", `{"responses":{"budget":"budget"}}`))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `quizrec_recommendations_total{preset="kayak"} 1`)
	assert.Contains(t, string(body), `quizrec_http_requests_total{code="200",method="post"} 1`)
}
