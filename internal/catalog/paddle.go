package catalog

import (
	"encoding/json"
	"log/slog"

	"quizrec/internal/score"
)

// Paddle is a pickleball paddle as stored by the product database. Nullable
// columns are pointers; AffiliateURLs is a JSON object encoded as a string.
type Paddle struct {
	ID                string   `json:"id" yaml:"id"`
	Name              string   `json:"name" yaml:"name"`
	Brand             string   `json:"brand" yaml:"brand"`
	PriceCents        int64    `json:"priceCents" yaml:"priceCents"`
	WeightOz          *float64 `json:"weightOz" yaml:"weightOz"`
	GripCircumference *float64 `json:"gripCircumference" yaml:"gripCircumference"`
	CoreMaterial      *string  `json:"coreMaterial" yaml:"coreMaterial"`
	FaceMaterial      *string  `json:"faceMaterial" yaml:"faceMaterial"`
	Shape             *string  `json:"shape" yaml:"shape"`
	PowerRating       *float64 `json:"powerRating" yaml:"powerRating"`
	ControlRating     *float64 `json:"controlRating" yaml:"controlRating"`
	SpinRating        *float64 `json:"spinRating" yaml:"spinRating"`
	SweetSpotSize     *string  `json:"sweetSpotSize" yaml:"sweetSpotSize"`
	ImageURL          *string  `json:"imageUrl" yaml:"imageUrl"`
	AffiliateURLs     *string  `json:"affiliateUrls" yaml:"affiliateUrls"`
}

// Product converts the paddle into a generic product. Paddle specific columns
// move into the attribute bag, nulls included, and the price is duplicated
// there so rules can read it.
func (p Paddle) Product() score.Product {
	product := score.Product{
		ID:            p.ID,
		Name:          p.Name,
		Brand:         p.Brand,
		PriceCents:    p.PriceCents,
		AffiliateURLs: p.affiliateURLs(),
		Attributes: score.Attributes{
			"weightOz":          number(p.WeightOz),
			"gripCircumference": number(p.GripCircumference),
			"coreMaterial":      text(p.CoreMaterial),
			"faceMaterial":      text(p.FaceMaterial),
			"shape":             text(p.Shape),
			"powerRating":       number(p.PowerRating),
			"controlRating":     number(p.ControlRating),
			"spinRating":        number(p.SpinRating),
			"sweetSpotSize":     text(p.SweetSpotSize),
			"priceCents":        score.Number(float64(p.PriceCents)),
		},
	}
	if p.ImageURL != nil {
		product.ImageURL = *p.ImageURL
	}
	return product
}

func (p Paddle) affiliateURLs() map[string]string {
	urls := map[string]string{}
	if p.AffiliateURLs == nil || *p.AffiliateURLs == "" {
		return urls
	}
	if err := json.Unmarshal([]byte(*p.AffiliateURLs), &urls); err != nil {
		slog.Error("Failed to parse affiliate URLs", "paddle", p.ID, "error", err)
		return map[string]string{}
	}
	return urls
}

// PaddlesToProducts converts paddles in order.
func PaddlesToProducts(paddles []Paddle) []score.Product {
	products := make([]score.Product, len(paddles))
	for i, p := range paddles {
		products[i] = p.Product()
	}
	return products
}

// PaddleResponse is the flat paddle shape older API consumers expect.
type PaddleResponse struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Brand         string            `json:"brand"`
	PriceCents    int64             `json:"priceCents"`
	PowerRating   score.Value       `json:"powerRating"`
	ControlRating score.Value       `json:"controlRating"`
	SpinRating    score.Value       `json:"spinRating"`
	WeightOz      score.Value       `json:"weightOz"`
	CoreMaterial  score.Value       `json:"coreMaterial"`
	FaceMaterial  score.Value       `json:"faceMaterial"`
	Shape         score.Value       `json:"shape"`
	SweetSpotSize score.Value       `json:"sweetSpotSize"`
	ImageURL      string            `json:"imageUrl,omitempty"`
	Score         float64           `json:"score"`
	MatchReasons  []string          `json:"matchReasons"`
	AffiliateURLs map[string]string `json:"affiliateUrls"`
}

// NewPaddleResponse flattens a recommendation back into the paddle shape.
func NewPaddleResponse(r score.Recommendation) PaddleResponse {
	attrs := r.Attributes
	return PaddleResponse{
		ID:            r.ID,
		Name:          r.Name,
		Brand:         r.Brand,
		PriceCents:    r.PriceCents,
		PowerRating:   attrs.Get("powerRating"),
		ControlRating: attrs.Get("controlRating"),
		SpinRating:    attrs.Get("spinRating"),
		WeightOz:      attrs.Get("weightOz"),
		CoreMaterial:  attrs.Get("coreMaterial"),
		FaceMaterial:  attrs.Get("faceMaterial"),
		Shape:         attrs.Get("shape"),
		SweetSpotSize: attrs.Get("sweetSpotSize"),
		ImageURL:      r.ImageURL,
		Score:         r.Score,
		MatchReasons:  r.MatchReasons,
		AffiliateURLs: r.AffiliateURLs,
	}
}

func number(v *float64) score.Value {
	if v == nil {
		return score.Null()
	}
	return score.Number(*v)
}

func text(v *string) score.Value {
	if v == nil {
		return score.Null()
	}
	return score.String(*v)
}
