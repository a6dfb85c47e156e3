// Package valuation implements a three-methodology valuation engine: a
// Monte Carlo DCF, comparable company multiples, and precedent transaction
// multiples, reconciled into a single confidence-weighted range.
package valuation

import "time"

// Method identifies a valuation methodology.
type Method string

const (
	MethodDCF       Method = "dcf"
	MethodComps     Method = "comparable_companies"
	MethodPrecedent Method = "precedent_transactions"
)

// MethodResult is one methodology's contribution. Invariant: Low <= Point <=
// High, and Confidence is in [0, 1].
type MethodResult struct {
	Method     Method  `json:"method"`
	Point      float64 `json:"point"`
	Low        float64 `json:"low"`
	High       float64 `json:"high"`
	Confidence float64 `json:"confidence"`
}

// Result is the blended valuation. Methods retains every contributing
// methodology so callers can inspect the reconciliation.
type Result struct {
	ID         string         `json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	Methods    []MethodResult `json:"methods"`
	Point      float64        `json:"point"`
	Low        float64        `json:"low"`
	High       float64        `json:"high"`
	Confidence float64        `json:"confidence"`
	Warnings   []string       `json:"warnings,omitempty"`
}

// percentile returns the nearest-rank percentile of an ascending-sorted
// slice. p is in [0, 1].
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p*float64(len(sorted)-1) + 0.5)
	return sorted[idx]
}

// median of an ascending-sorted slice; even lengths average the middle pair.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
