package analyzer

import (
	"context"
	"math"

	u "github.com/moratsam/sbox-analysis/util"
	"github.com/moratsam/sbox-analysis/walsh"
)

// nonlinearityOf is 2^(n-1) - max|W(b)|/2 over the nonzero masks b.
// W(0) only reflects the balance of the function.
func nonlinearityOf(s *walsh.Spectrum) int {
	return 1<<(n-1) - s.MaxAbs(1)/2
}

// Nonlinearity is the minimum nonlinearity over the 8 output-bit functions.
func (a *Analyzer) Nonlinearity() int {
	min := math.MaxInt
	for bit := 0; bit < n; bit++ {
		if nl := nonlinearityOf(a.spectrum(bit)); nl < min {
			min = nl
		}
	}
	return min
}

type BICNLResult struct {
	MinNonlinearity     int     `json:"minNonlinearity" yaml:"minNonlinearity"`
	AverageNonlinearity float64 `json:"averageNonlinearity" yaml:"averageNonlinearity"`
	// Nonlinearity of f_i ^ f_j for i < j, in lexicographic (i, j) order.
	Correlations []int `json:"correlations" yaml:"correlations"`
}

// BICNL measures the nonlinearity of the XOR of every pair of output bits.
func (a *Analyzer) BICNL() BICNLResult {
	correlations := make([]int, 0, n*(n-1)/2)
	var s walsh.Spectrum
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			combined := a.booleanFunction(i).Xor(a.booleanFunction(j))
			walsh.TransformInto(&s, combined[:])
			correlations = append(correlations, nonlinearityOf(&s))
		}
	}

	res := BICNLResult{MinNonlinearity: math.MaxInt, Correlations: correlations}
	sum := 0
	for _, nl := range correlations {
		sum += nl
		if nl < res.MinNonlinearity {
			res.MinNonlinearity = nl
		}
	}
	res.AverageNonlinearity = float64(sum) / float64(len(correlations))
	return res
}

type LAPResult struct {
	MaxBias int     `json:"maxBias" yaml:"maxBias"`
	MaxLAP  float64 `json:"maxLAP" yaml:"maxLAP"`
}

func (a *Analyzer) LAP() LAPResult {
	res, err := a.LAPContext(context.Background())
	if err != nil {
		panic(u.WrapErr("lap", err))
	}
	return res
}

// LAPContext takes the largest |W| over every nonzero output mask and every
// input mask, and reports (maxBias / 2^(n-1))^2.
func (a *Analyzer) LAPContext(ctx context.Context) (LAPResult, error) {
	lat, err := a.componentSpectra(ctx)
	if err != nil {
		return LAPResult{}, u.WrapErr("lap", err)
	}
	maxBias := 0
	for b := 1; b < size; b++ {
		if m := lat[b].MaxAbs(0); m > maxBias {
			maxBias = m
		}
	}
	ratio := float64(maxBias) / float64(int(1)<<(n-1))
	return LAPResult{
		MaxBias: maxBias,
		MaxLAP:  ratio * ratio,
	}, nil
}

func (a *Analyzer) TransparencyOrder() float64 {
	to, err := a.TransparencyOrderContext(context.Background())
	if err != nil {
		panic(u.WrapErr("transparency order", err))
	}
	return to
}

// TransparencyOrderContext accumulates, for every nonzero β, the sum over the
// nonzero output masks a of |W_a(β)| and returns the maximum over β of
// n - 2·wt(β) - sum(β) / (M·(M-1)).
func (a *Analyzer) TransparencyOrderContext(ctx context.Context) (float64, error) {
	lat, err := a.componentSpectra(ctx)
	if err != nil {
		return 0, u.WrapErr("transparency order", err)
	}

	var sumAbs [size]int
	for mask := 1; mask < size; mask++ {
		for beta := 1; beta < size; beta++ {
			w := lat[mask][beta]
			if w < 0 {
				w = -w
			}
			sumAbs[beta] += w
		}
	}

	factor := 1.0 / float64(size*(size-1))
	to := math.Inf(-1)
	for beta := 1; beta < size; beta++ {
		term := float64(n-2*u.Weight(byte(beta))) - factor*float64(sumAbs[beta])
		if term > to {
			to = term
		}
	}
	return to, nil
}

// CorrelationImmunity is the minimum over the output bits of the largest m
// such that W(b) == 0 for every nonzero mask b of weight at most m.
func (a *Analyzer) CorrelationImmunity() int {
	min := n
	for bit := 0; bit < n; bit++ {
		if ci := correlationImmunityOf(a.spectrum(bit)); ci < min {
			min = ci
		}
	}
	return min
}

func correlationImmunityOf(s *walsh.Spectrum) int {
	ci := 0
	for m := 1; m <= n; m++ {
		for mask := 1; mask < size; mask++ {
			if u.Weight(byte(mask)) == m && s[mask] != 0 {
				return ci
			}
		}
		ci = m
	}
	return ci
}
