// Package service wires the scoring engine to sessions, the catalog and the
// recommendation dataset.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"quizrec/internal/catalog"
	"quizrec/internal/events"
	"quizrec/internal/metrics"
	"quizrec/internal/score"
	"quizrec/internal/score/rule"
	"quizrec/internal/session"
)

var (
	// ErrNoResponses is returned when a request carries neither answers nor a session.
	ErrNoResponses = errors.New("responses are required")
	// ErrProductNotFound is returned by Explain for an id outside the catalog.
	ErrProductNotFound = errors.New("product not found")
)

// Request asks for recommendations. Answers are raw quiz answers; when
// SessionID is set they are layered over the answers stored for the session.
type Request struct {
	SessionID  string
	Responses  score.Responses
	Limit      int
	MinScore   *float64
	ProductIDs []string
}

// Service serves one preset over one catalog. It is safe for concurrent use.
type Service struct {
	preset       rule.Preset
	engine       score.Recommender
	catalog      *catalog.Catalog
	sessions     *session.Repository
	events       events.Repository
	metrics      *metrics.Metrics
	defaultLimit int
}

// Dependencies groups what New needs. Events and Metrics are optional.
type Dependencies struct {
	Preset       rule.Preset
	Engine       score.Recommender
	Catalog      *catalog.Catalog
	Sessions     *session.Repository
	Events       events.Repository
	Metrics      *metrics.Metrics
	DefaultLimit int
}

func New(deps Dependencies) *Service {
	s := &Service{
		preset:       deps.Preset,
		engine:       deps.Engine,
		catalog:      deps.Catalog,
		sessions:     deps.Sessions,
		events:       deps.Events,
		metrics:      deps.Metrics,
		defaultLimit: deps.DefaultLimit,
	}
	if s.events == nil {
		s.events = events.NopRepository{}
	}
	return s
}

// Preset returns the preset the service recommends with.
func (s *Service) Preset() rule.Preset {
	return s.preset
}

// Submit stores raw answers for a session.
func (s *Service) Submit(sessionID string, raw score.Responses) {
	s.sessions.Append(sessionID, raw)
}

// Answers returns the merged raw answers of a session.
func (s *Service) Answers(sessionID string) (score.Responses, error) {
	return s.sessions.Merge(sessionID)
}

// Recommend ranks the catalog, or the requested subset of it, for the request.
func (s *Service) Recommend(req Request) ([]score.Recommendation, error) {
	responses, err := s.responses(req)
	if err != nil {
		return nil, err
	}

	products := s.catalog.Products()
	if req.ProductIDs != nil {
		products = s.catalog.Subset(req.ProductIDs)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.defaultLimit
	}

	start := time.Now()
	recommendations := s.engine.Recommend(products, responses, score.RecommendOptions{
		Limit:    limit,
		MinScore: req.MinScore,
	})
	if s.metrics != nil {
		s.metrics.ObserveRecommend(s.preset.Name, len(products), time.Since(start))
	}

	slog.Debug("Recommendations computed",
		"preset", s.preset.Name,
		"session", req.SessionID,
		"products", len(products),
		"returned", len(recommendations),
	)
	s.events.Append(events.NewEvent(req.SessionID, s.preset.Name, responses, recommendations))

	return recommendations, nil
}

// Explain breaks down the score of one catalog product for the request.
func (s *Service) Explain(productID string, req Request) (score.Explanation, error) {
	product, ok := s.catalog.Get(productID)
	if !ok {
		return score.Explanation{}, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
	}

	responses, err := s.responses(req)
	if err != nil {
		return score.Explanation{}, err
	}
	return s.engine.Explain(product, responses), nil
}

// responses resolves the request answers and maps them into scoring keys.
func (s *Service) responses(req Request) (score.Responses, error) {
	raw := req.Responses
	if req.SessionID != "" {
		stored, err := s.sessions.Merge(req.SessionID)
		if err != nil && req.Responses == nil {
			return nil, err
		}
		if stored != nil {
			maps.Copy(stored, req.Responses)
			raw = stored
		}
	}
	if raw == nil {
		return nil, ErrNoResponses
	}
	return s.preset.Responses.Apply(raw), nil
}
