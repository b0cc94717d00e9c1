package analyzer

import "fmt"

type SecurityLevel string

const (
	SecurityHigh   SecurityLevel = "High"
	SecurityMedium SecurityLevel = "Medium"
	SecurityLow    SecurityLevel = "Low"
)

type Summary struct {
	SecurityLevel SecurityLevel `json:"securityLevel" yaml:"securityLevel"`
	Strengths     []string      `json:"strengths" yaml:"strengths"`
	Weaknesses    []string      `json:"weaknesses" yaml:"weaknesses"`
}

// Fixed classification thresholds.
const (
	minStrongNonlinearity = 100
	maxStrongUniformity   = 4
	maxStrongBias         = 32
	maxStrongSACScore     = 0.1
)

// GenerateSummary classifies a report: High with no weaknesses, Medium with at
// most two, Low otherwise.
//
// The SAC check compares the score itself against 0.1, not its distance from
// the ideal 0.5, so well-behaved boxes are listed with poor avalanche.
// TODO: switch to |score-0.5| <= 0.1 once stored reports can be re-classified.
func GenerateSummary(r *Report) Summary {
	s := Summary{
		Strengths:  []string{},
		Weaknesses: []string{},
	}

	if r.Nonlinearity >= minStrongNonlinearity {
		s.Strengths = append(s.Strengths, fmt.Sprintf("High nonlinearity (≥%d)", minStrongNonlinearity))
	} else {
		s.Weaknesses = append(s.Weaknesses, fmt.Sprintf("Low nonlinearity (%d)", r.Nonlinearity))
	}

	if r.DifferentialUniformity <= maxStrongUniformity {
		s.Strengths = append(s.Strengths, fmt.Sprintf("Good differential uniformity (≤%d)", maxStrongUniformity))
	} else {
		s.Weaknesses = append(s.Weaknesses, fmt.Sprintf("High differential uniformity (%d)", r.DifferentialUniformity))
	}

	if r.LAP.MaxBias <= maxStrongBias {
		s.Strengths = append(s.Strengths, "Good linear resistance")
	} else {
		s.Weaknesses = append(s.Weaknesses, "Vulnerable to linear cryptanalysis")
	}

	if r.SAC.Score <= maxStrongSACScore {
		s.Strengths = append(s.Strengths, "Satisfies SAC criterion")
	} else {
		s.Weaknesses = append(s.Weaknesses, "Poor avalanche properties")
	}

	switch {
	case len(s.Weaknesses) == 0:
		s.SecurityLevel = SecurityHigh
	case len(s.Weaknesses) <= 2:
		s.SecurityLevel = SecurityMedium
	default:
		s.SecurityLevel = SecurityLow
	}
	return s
}
