package analyzer

import "math"

type SACResult struct {
	// Matrix[i][j] is the probability that output bit j flips when input bit i flips.
	Matrix       [n][n]float64 `json:"matrix" yaml:"matrix"`
	Score        float64       `json:"score" yaml:"score"`
	MaxDeviation float64       `json:"maxDeviation" yaml:"maxDeviation"`
}

// SAC evaluates the strict avalanche criterion. Score is the mean of the 64
// matrix entries and MaxDeviation the largest |entry - 0.5|.
func (a *Analyzer) SAC() SACResult {
	var res SACResult
	flips := 0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			count := 0
			for x := 0; x < size; x++ {
				y1 := a.table[x]
				y2 := a.table[x^(1<<i)]
				if (y1>>j)&1 != (y2>>j)&1 {
					count++
				}
			}
			res.Matrix[i][j] = float64(count) / size
			flips += count
		}
	}
	res.Score = float64(flips) / float64(n*n*size)
	for i := range res.Matrix {
		for _, p := range res.Matrix[i] {
			res.MaxDeviation = math.Max(res.MaxDeviation, math.Abs(p-0.5))
		}
	}
	return res
}

type BICSACResult struct {
	AverageSAC float64 `json:"averageSAC" yaml:"averageSAC"`
}

// BICSAC is the flip rate of f_i ^ f_j under single input-bit flips,
// averaged first within each output pair and then over the 28 pairs.
func (a *Analyzer) BICSAC() BICSACResult {
	total := 0.0
	pairs := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			changed := 0
			for k := 0; k < n; k++ {
				for x := 0; x < size; x++ {
					y1 := a.table[x]
					y2 := a.table[x^(1<<k)]
					h1 := (y1>>i ^ y1>>j) & 1
					h2 := (y2>>i ^ y2>>j) & 1
					if h1 != h2 {
						changed++
					}
				}
			}
			total += float64(changed) / float64(n*size)
			pairs++
		}
	}
	return BICSACResult{AverageSAC: total / float64(pairs)}
}
