package valuation

import (
	"sort"
)

// Relative valuation policy constants.
const (
	// MinPeerSample is the sample size below which confidence is capped.
	MinPeerSample = 3
	// SmallSampleConfidenceCap applies when fewer than MinPeerSample peers
	// carry a usable multiple, regardless of computed dispersion.
	SmallSampleConfidenceCap = 0.4
	// DefaultControlPremium adjusts precedent-transaction values: historical
	// deal multiples embed a control premium absent in trading comparables.
	DefaultControlPremium = 0.15
)

// PeerMultiple is one comparable company (trading multiples) or one precedent
// transaction (deal multiples). Zero-valued multiples are treated as absent.
type PeerMultiple struct {
	Name      string  `json:"name"`
	EVRevenue float64 `json:"ev_revenue,omitempty"`
	EVEBITDA  float64 `json:"ev_ebitda,omitempty"`
}

// TargetMetrics are the target company's current metrics the peer multiples
// are applied to.
type TargetMetrics struct {
	Revenue float64 `json:"revenue"`
	EBITDA  float64 `json:"ebitda"`
}

// CalculateComps performs Comparable Company Analysis: peer-median multiple
// applied to the target's corresponding metric.
func CalculateComps(target TargetMetrics, peers []PeerMultiple) (MethodResult, error) {
	return relativeValue(MethodComps, target, peers, 0)
}

// CalculatePrecedents performs Precedent Transaction Analysis. The control
// premium (fractional, e.g. 0.15) scales the implied values.
func CalculatePrecedents(target TargetMetrics, peers []PeerMultiple, controlPremium float64) (MethodResult, error) {
	return relativeValue(MethodPrecedent, target, peers, controlPremium)
}

func relativeValue(method Method, target TargetMetrics, peers []PeerMultiple, premium float64) (MethodResult, error) {
	var ebitdaMults, revMults []float64
	for _, p := range peers {
		if p.EVEBITDA > 0 {
			ebitdaMults = append(ebitdaMults, p.EVEBITDA)
		}
		if p.EVRevenue > 0 {
			revMults = append(revMults, p.EVRevenue)
		}
	}

	// EV/EBITDA is the primary multiple; EV/Revenue is the fallback for
	// pre-profit targets or EBITDA-less peer sets.
	var mults []float64
	var metric float64
	switch {
	case target.EBITDA > 0 && len(ebitdaMults) > 0:
		mults, metric = ebitdaMults, target.EBITDA
	case target.Revenue > 0 && len(revMults) > 0:
		mults, metric = revMults, target.Revenue
	default:
		return MethodResult{}, &InsufficientDataError{Method: method, Reason: "no peer multiple matches an available target metric"}
	}

	sort.Float64s(mults)
	med := median(mults)

	// Interquartile multiple range bounds the implied value.
	lowIdx := int(float64(len(mults)) * 0.25)
	highIdx := int(float64(len(mults)) * 0.75)
	if highIdx >= len(mults) {
		highIdx = len(mults) - 1
	}

	scale := (1 + premium) * metric
	res := MethodResult{
		Method: method,
		Point:  med * scale,
		Low:    mults[lowIdx] * scale,
		High:   mults[highIdx] * scale,
	}

	// Confidence from multiple dispersion, capped for small samples.
	dispersion := (mults[highIdx] - mults[lowIdx]) / med
	res.Confidence = clamp(0.85-dispersion, 0.1, 0.85)
	if len(mults) < MinPeerSample && res.Confidence > SmallSampleConfidenceCap {
		res.Confidence = SmallSampleConfidenceCap
	}

	return res, nil
}
