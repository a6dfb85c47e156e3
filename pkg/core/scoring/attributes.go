package scoring

// Deal attributes use a closed, versioned schema: every field is optional via
// pointer so "missing" is a first-class, type-checked state rather than an
// absent map key. Missing fields degrade confidence; they never zero a score.

// StrategicAttributes are declared synergy and fit inputs on a 0-100 scale.
type StrategicAttributes struct {
	SynergyScore   *float64 `json:"synergy_score,omitempty"`
	MarketFit      *float64 `json:"market_fit,omitempty"`
	ProductOverlap *float64 `json:"product_overlap,omitempty"`
}

// RiskFactors are detected risk signals; each present factor can deduct
// points from the inverse-scored risk dimension.
type RiskFactors struct {
	// CustomerConcentration is the top customer's share of revenue, 0-1.
	CustomerConcentration *float64 `json:"customer_concentration,omitempty"`
	RegulatoryExposure    *bool    `json:"regulatory_exposure,omitempty"`
	LitigationPending     *bool    `json:"litigation_pending,omitempty"`
	KeyPersonDependency   *bool    `json:"key_person_dependency,omitempty"`
}

// MarketAttributes describe the target's market.
type MarketAttributes struct {
	MarketSizeUSD        *float64 `json:"market_size_usd,omitempty"`
	MarketGrowthRate     *float64 `json:"market_growth_rate,omitempty"` // fractional, e.g. 0.15
	CompetitiveIntensity *float64 `json:"competitive_intensity,omitempty"` // 0-100, higher = more crowded
}

// TeamAttributes describe management tenure and track record.
type TeamAttributes struct {
	AvgTenureYears  *float64 `json:"avg_tenure_years,omitempty"`
	PriorExits      *int     `json:"prior_exits,omitempty"`
	ManagementDepth *float64 `json:"management_depth,omitempty"` // 0-100
}
