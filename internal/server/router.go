package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"quizrec/internal/catalog"
	"quizrec/internal/metrics"
	"quizrec/internal/score"
	"quizrec/internal/service"
	"quizrec/internal/session"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// maxBodyBytes caps request bodies of the quiz endpoints.
const maxBodyBytes = 1 << 20

// ApiV1Router manages routes for API version 1: collecting quiz answers,
// serving recommendations and explanations, metrics and static files.
type ApiV1Router struct {
	service  *service.Service
	metrics  *metrics.Metrics
	validate *validator.Validate
	// format selects the shape of recommendations in responses.
	format catalog.Format
	// static is a directory served under /static/. Empty disables it.
	static string
	// sessionCookie names the cookie carrying the quiz session id.
	sessionCookie string
}

type responsesRequest struct {
	SessionID string          `json:"sessionId" validate:"omitempty,max=128"`
	Responses score.Responses `json:"responses" validate:"required,min=1"`
}

type recommendRequest struct {
	SessionID  string          `json:"sessionId" validate:"omitempty,max=128"`
	Responses  score.Responses `json:"responses" validate:"required_without=SessionID"`
	Limit      int             `json:"limit" validate:"gte=0,lte=100"`
	MinScore   *float64        `json:"minScore" validate:"omitempty,gte=0"`
	ProductIDs []string        `json:"productIds" validate:"omitempty,dive,required"`
}

type recommendQuery struct {
	Limit    int      `validate:"gte=0,lte=100"`
	MinScore *float64 `validate:"omitempty,gte=0"`
}

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Mux returns the handler with every v1 route registered:
//   - POST /api/v1/responses
//   - GET /api/v1/responses/{session}
//   - GET /api/v1/recommendations/{session}
//   - POST /api/v1/recommend
//   - POST /api/v1/explain/{product}
//   - GET /metrics (when metrics are enabled)
//   - GET /static/... (when a static directory is set)
func (ar *ApiV1Router) Mux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/responses", ar.responsesHandler)
	mux.HandleFunc("GET /api/v1/responses/{session}", ar.answersHandler)
	mux.HandleFunc("GET /api/v1/recommendations/{session}", ar.recommendationsHandler)
	mux.HandleFunc("POST /api/v1/recommend", ar.recommendHandler)
	mux.HandleFunc("POST /api/v1/explain/{product}", ar.explainHandler)

	if len(ar.static) != 0 {
		fs := http.FileServer(http.Dir(ar.static))
		mux.Handle("GET /static/", http.StripPrefix("/static/", fs))
	}

	if ar.metrics == nil {
		return mux
	}
	mux.Handle("GET /metrics", ar.metrics.Handler())
	return ar.metrics.Instrument(mux)
}

// responsesHandler stores a batch of answers for the caller's session. The id
// comes from the session cookie, then the body; a fresh one is issued otherwise.
func (ar *ApiV1Router) responsesHandler(w http.ResponseWriter, r *http.Request) {
	var req responsesRequest
	if !ar.decode(w, r, &req) {
		return
	}

	sessionID := req.SessionID
	if cookie, err := r.Cookie(ar.sessionCookie); err == nil && cookie.Value != "" {
		sessionID = cookie.Value
	}
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	ar.service.Submit(sessionID, req.Responses)
	http.SetCookie(w, &http.Cookie{
		Name:     ar.sessionCookie,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"sessionId": sessionID})
}

func (ar *ApiV1Router) answersHandler(w http.ResponseWriter, r *http.Request) {
	answers, err := ar.service.Answers(r.PathValue("session"))
	if err != nil {
		ar.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answers)
}

// recommendationsHandler recommends from the answers stored for a session.
// Optional query parameters: limit and minScore.
func (ar *ApiV1Router) recommendationsHandler(w http.ResponseWriter, r *http.Request) {
	var q recommendQuery
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		q.Limit = limit
	}
	if v := r.URL.Query().Get("minScore"); v != "" {
		minScore, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "minScore must be a number")
			return
		}
		q.MinScore = &minScore
	}
	if err := ar.validate.Struct(&q); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	recommendations, err := ar.service.Recommend(service.Request{
		SessionID: r.PathValue("session"),
		Limit:     q.Limit,
		MinScore:  q.MinScore,
	})
	if err != nil {
		ar.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ar.render(recommendations))
}

func (ar *ApiV1Router) recommendHandler(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if !ar.decode(w, r, &req) {
		return
	}

	recommendations, err := ar.service.Recommend(service.Request{
		SessionID:  req.SessionID,
		Responses:  req.Responses,
		Limit:      req.Limit,
		MinScore:   req.MinScore,
		ProductIDs: req.ProductIDs,
	})
	if err != nil {
		ar.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ar.render(recommendations))
}

func (ar *ApiV1Router) explainHandler(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if !ar.decode(w, r, &req) {
		return
	}

	explanation, err := ar.service.Explain(r.PathValue("product"), service.Request{
		SessionID: req.SessionID,
		Responses: req.Responses,
	})
	if err != nil {
		ar.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, explanation)
}

// decode reads and validates a JSON body. On failure it writes the response
// and returns false.
func (ar *ApiV1Router) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	defer r.Body.Close()

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		slog.Warn("Unable to decode request body", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return false
	}
	if err := ar.validate.Struct(dst); err != nil {
		slog.Warn("Invalid request", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (ar *ApiV1Router) fail(w http.ResponseWriter, err error) {
	var notFound *session.NotFoundError
	switch {
	case errors.As(err, &notFound), errors.Is(err, service.ErrProductNotFound):
		slog.Warn("Not found", "error", err)
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNoResponses):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// render shapes recommendations for the configured catalog format.
func (ar *ApiV1Router) render(recommendations []score.Recommendation) any {
	if ar.format != catalog.FormatPaddles {
		return recommendations
	}
	out := make([]catalog.PaddleResponse, len(recommendations))
	for i, r := range recommendations {
		out[i] = catalog.NewPaddleResponse(r)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	write(w, status, envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	write(w, status, envelope{Error: message})
}

func write(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("Unable to write response", "error", err)
	}
}

// RouterOptions configures NewApiV1Router.
type RouterOptions struct {
	Static        string
	SessionCookie string
	Format        catalog.Format
}

// NewApiV1Router creates the v1 router. Metrics may be nil.
func NewApiV1Router(svc *service.Service, m *metrics.Metrics, opts RouterOptions) *ApiV1Router {
	return &ApiV1Router{
		service:       svc,
		metrics:       m,
		validate:      validator.New(),
		format:        opts.Format,
		static:        opts.Static,
		sessionCookie: opts.SessionCookie,
	}
}
