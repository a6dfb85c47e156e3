package valuation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"dealintel/pkg/core/normalize"
	"dealintel/pkg/models"
)

// Input carries everything a valuation request may supply. Peers, precedents
// and DCF assumptions are all optional, but at least one methodology must be
// computable or Valuate fails with ErrInsufficientInputs.
type Input struct {
	Statements     []models.PeriodFinancials `json:"financial_statements"`
	Peers          []PeerMultiple            `json:"peer_multiples,omitempty"`
	Precedents     []PeerMultiple            `json:"precedent_multiples,omitempty"`
	DCF            *DCFAssumptions           `json:"dcf_assumptions,omitempty"`
	ControlPremium *float64                  `json:"control_premium,omitempty"`
	MonteCarlo     *MonteCarloConfig         `json:"monte_carlo,omitempty"`
}

// Engine reconciles the three methodologies. Stateless per call; safe for
// concurrent use.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Valuate runs every computable methodology and blends them. Per-methodology
// insufficiency is recovered locally (excluded plus a warning); invalid
// caller assumptions and total unavailability are fatal.
func (e *Engine) Valuate(ctx context.Context, in Input) (*Result, error) {
	fs, err := models.NewFinancialStatement(in.Statements...)
	if err != nil {
		return nil, fmt.Errorf("invalid financial statements: %w", err)
	}
	latest, ok := fs.Latest()
	if !ok {
		return nil, fmt.Errorf("%w: no financial periods supplied", ErrInsufficientInputs)
	}

	var methods []MethodResult
	var warnings []string

	exclude := func(err error) error {
		var ide *InsufficientDataError
		if errors.As(err, &ide) {
			warnings = append(warnings, ide.Error())
			return nil
		}
		return err
	}

	// 1. DCF with Monte Carlo overlay.
	if in.DCF != nil {
		mc := MonteCarloConfig{}
		if in.MonteCarlo != nil {
			mc = *in.MonteCarlo
		}
		mr, err := e.runDCF(ctx, fs, latest, *in.DCF, mc)
		if err != nil {
			if err := exclude(err); err != nil {
				return nil, err
			}
		} else {
			methods = append(methods, mr)
		}
	}

	target := TargetMetrics{Revenue: latest.Revenue, EBITDA: latest.EBITDA}

	// 2. Comparable companies.
	if len(in.Peers) > 0 {
		mr, err := CalculateComps(target, in.Peers)
		if err != nil {
			if err := exclude(err); err != nil {
				return nil, err
			}
		} else {
			methods = append(methods, mr)
		}
	}

	// 3. Precedent transactions.
	if len(in.Precedents) > 0 {
		premium := DefaultControlPremium
		if in.ControlPremium != nil {
			if *in.ControlPremium < 0 {
				return nil, &InvalidAssumptionError{Field: "control_premium", Value: *in.ControlPremium, Reason: "must be non-negative"}
			}
			premium = *in.ControlPremium
		}
		mr, err := CalculatePrecedents(target, in.Precedents, premium)
		if err != nil {
			if err := exclude(err); err != nil {
				return nil, err
			}
		} else {
			methods = append(methods, mr)
		}
	}

	res := blend(methods)
	if res == nil {
		return nil, fmt.Errorf("%w: all methodologies excluded (%d warnings)", ErrInsufficientInputs, len(warnings))
	}
	res.Warnings = warnings
	return res, nil
}

func (e *Engine) runDCF(ctx context.Context, fs *models.FinancialStatement, latest models.PeriodFinancials, a DCFAssumptions, mc MonteCarloConfig) (MethodResult, error) {
	params, err := a.resolve(normalize.HistoricalFCFGrowth(fs))
	if err != nil {
		return MethodResult{}, err
	}

	baseFCF := latest.FreeCashFlow()
	if baseFCF <= 0 {
		return MethodResult{}, &InsufficientDataError{Method: MethodDCF, Reason: "latest period has non-positive free cash flow"}
	}

	sim, err := runMonteCarlo(ctx, baseFCF, params, mc)
	if err != nil {
		return MethodResult{}, err
	}

	return MethodResult{
		Method:     MethodDCF,
		Point:      sim.Median,
		Low:        sim.Low,
		High:       sim.High,
		Confidence: dcfConfidence(fs.Len()),
	}, nil
}

// dcfConfidence grows with the depth of the historical record backing the
// projection base.
func dcfConfidence(periods int) float64 {
	conf := 0.45 + 0.05*float64(periods)
	return clamp(conf, 0.5, 0.7)
}

// blend reconciles method results into one range. Zero-confidence methods
// are excluded entirely rather than weighted at zero. Blended bounds are the
// confidence-weighted means of the contributing bounds, i.e. the union of
// the methodology ranges trimmed toward consensus; since every method holds
// low <= point <= high, the blend inherits the invariant.
func blend(methods []MethodResult) *Result {
	var contributing []MethodResult
	for _, m := range methods {
		if m.Confidence > 0 {
			contributing = append(contributing, m)
		}
	}
	if len(contributing) == 0 {
		return nil
	}

	var totalW, point, low, high, conf float64
	for _, m := range contributing {
		totalW += m.Confidence
		point += m.Confidence * m.Point
		low += m.Confidence * m.Low
		high += m.Confidence * m.High
		conf += m.Confidence * m.Confidence
	}

	return &Result{
		ID:         uuid.NewString(),
		CreatedAt:  time.Now().UTC(),
		Methods:    methods,
		Point:      point / totalW,
		Low:        low / totalW,
		High:       high / totalW,
		Confidence: conf / totalW,
	}
}
