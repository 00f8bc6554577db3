package score

import (
	"cmp"
	"slices"

	"golang.org/x/sync/errgroup"
)

// DefaultLimit is the number of recommendations returned when no limit is given.
const DefaultLimit = 5

// parallelThreshold is the catalog size from which Recommend fans out.
const parallelThreshold = 256

// Recommend scores every product, drops those below the score floor, sorts the
// rest by descending score and returns at most opts.Limit of them. Products
// with equal scores keep their catalog order.
func (e *Engine) Recommend(products []Product, responses Responses, opts RecommendOptions) []Recommendation {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	floor := e.scoreFloor(opts)

	results := e.scoreAll(products, responses)

	recommendations := make([]Recommendation, 0, len(products))
	for i, result := range results {
		if result.Score < floor {
			continue
		}
		recommendations = append(recommendations, Recommendation{
			Product:      products[i],
			Score:        result.Score,
			MatchReasons: result.Reasons,
		})
	}

	slices.SortStableFunc(recommendations, func(a, b Recommendation) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if len(recommendations) > limit {
		recommendations = recommendations[:limit]
	}
	return recommendations
}

func (e *Engine) scoreFloor(opts RecommendOptions) float64 {
	switch {
	case opts.MinScore != nil:
		return *opts.MinScore
	case e.config.MinScore != nil:
		return *e.config.MinScore
	}
	return 0
}

// scoreAll scores products into index-aligned slots. Products share nothing
// but the immutable engine, so large catalogs are split across workers.
func (e *Engine) scoreAll(products []Product, responses Responses) []Result {
	results := make([]Result, len(products))

	if len(products) < parallelThreshold || e.workers < 2 {
		for i := range products {
			results[i] = e.Score(products[i], responses)
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(e.workers)
	for i := range products {
		g.Go(func() error {
			results[i] = e.Score(products[i], responses)
			return nil
		})
	}
	_ = g.Wait()

	return results
}
