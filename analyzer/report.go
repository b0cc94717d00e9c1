package analyzer

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	u "github.com/moratsam/sbox-analysis/util"
)

type Properties struct {
	Size        int  `json:"size" yaml:"size"`
	IsBalanced  bool `json:"isBalanced" yaml:"isBalanced"`
	IsBijection bool `json:"isBijection" yaml:"isBijection"`
}

// Report holds every metric of a full analysis.
type Report struct {
	Timestamp              time.Time    `json:"timestamp" yaml:"timestamp"`
	Properties             Properties   `json:"sboxProperties" yaml:"sboxProperties"`
	Bijectivity            bool         `json:"bijectivity" yaml:"bijectivity"`
	Nonlinearity           int          `json:"nonlinearity" yaml:"nonlinearity"`
	SAC                    SACResult    `json:"sac" yaml:"sac"`
	BICNL                  BICNLResult  `json:"bicNL" yaml:"bicNL"`
	BICSAC                 BICSACResult `json:"bicSAC" yaml:"bicSAC"`
	LAP                    LAPResult    `json:"lap" yaml:"lap"`
	DAP                    DAPResult    `json:"dap" yaml:"dap"`
	DifferentialUniformity int          `json:"differentialUniformity" yaml:"differentialUniformity"`
	AlgebraicDegree        int          `json:"algebraicDegree" yaml:"algebraicDegree"`
	TransparencyOrder      float64      `json:"transparencyOrder" yaml:"transparencyOrder"`
	CorrelationImmunity    int          `json:"correlationImmunity" yaml:"correlationImmunity"`
	Summary                Summary      `json:"summary" yaml:"summary"`
}

// RunFullAnalysis computes every metric. The shared caches are built first,
// then the metrics run concurrently; each one writes only its own field.
func (a *Analyzer) RunFullAnalysis(ctx context.Context) (*Report, error) {
	start := time.Now()

	// Warm the caches.
	for bit := 0; bit < n; bit++ {
		a.spectrum(bit)
	}
	a.differenceTable()
	if _, err := a.componentSpectra(ctx); err != nil {
		return nil, u.WrapErr("full analysis", err)
	}

	r := &Report{
		Timestamp: time.Now().UTC(),
		Properties: Properties{
			Size:        size,
			IsBalanced:  a.Balanced(),
			IsBijection: a.Bijectivity(),
		},
	}
	r.Bijectivity = r.Properties.IsBijection

	g, gctx := errgroup.WithContext(ctx)
	run := func(name string, metric func() error) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			t := time.Now()
			if err := metric(); err != nil {
				return u.WrapErr(name, err)
			}
			a.logger.Debug("Metric done", "metric", name, "elapsed", time.Since(t))
			return nil
		})
	}

	run("nonlinearity", func() error { r.Nonlinearity = a.Nonlinearity(); return nil })
	run("sac", func() error { r.SAC = a.SAC(); return nil })
	run("bic-nl", func() error { r.BICNL = a.BICNL(); return nil })
	run("bic-sac", func() error { r.BICSAC = a.BICSAC(); return nil })
	run("lap", func() (err error) { r.LAP, err = a.LAPContext(gctx); return })
	run("dap", func() error { r.DAP = a.DAP(); return nil })
	run("differential uniformity", func() error { r.DifferentialUniformity = a.DifferentialUniformity(); return nil })
	run("algebraic degree", func() error { r.AlgebraicDegree = a.AlgebraicDegree(); return nil })
	run("transparency order", func() (err error) { r.TransparencyOrder, err = a.TransparencyOrderContext(gctx); return })
	run("correlation immunity", func() error { r.CorrelationImmunity = a.CorrelationImmunity(); return nil })

	if err := g.Wait(); err != nil {
		return nil, u.WrapErr("full analysis", err)
	}
	r.Summary = GenerateSummary(r)

	a.logger.Info("Analysis complete", "nonlinearity", r.Nonlinearity, "du", r.DifferentialUniformity,
		"level", r.Summary.SecurityLevel, "elapsed", time.Since(start))
	return r, nil
}
