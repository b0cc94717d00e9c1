// Package batch analyses many table files through a staged pipeline:
// read, cache lookup, analysis, then a sink that stores and collects.
package batch

import (
	"context"
	"runtime"

	"github.com/ledgerwatch/log/v3"
	"github.com/moratsam/etherscan/pipeline"

	"github.com/moratsam/sbox-analysis/analyzer"
	"github.com/moratsam/sbox-analysis/store"
	u "github.com/moratsam/sbox-analysis/util"
)

// Result is the outcome for one input file. A failure of one file is
// reported in Err and does not stop the batch.
type Result struct {
	Path        string
	Name        string
	Fingerprint string
	Report      *analyzer.Report
	Cached      bool
	Err         error
}

type Config struct {
	Workers         int          // Maximum concurrent analyses (default: NumCPU).
	JSONPath        string       // gjson path of the table in JSON files.
	Store           *store.Store // Optional; enables reuse and persistence of reports.
	AnalyzerOptions []analyzer.Option
}

func assemblePipeline(cfg Config) *pipeline.Pipeline {
	return pipeline.New(
		pipeline.DynamicWorkerPool(newTableReader(cfg.JSONPath), cfg.Workers),
		pipeline.FIFO(newCacheLookup(cfg.Store)),
		pipeline.DynamicWorkerPool(newTableAnalyzer(cfg.AnalyzerOptions), cfg.Workers),
	)
}

// Run analyses every path and returns one Result per path, in input order.
// The returned error is only set when the pipeline itself fails or ctx ends.
func Run(ctx context.Context, paths []string, cfg Config) ([]Result, error) {
	if cfg.Workers < 1 {
		cfg.Workers = runtime.NumCPU()
	}

	source := &pathSource{paths: paths}
	sink := &resultSink{
		store:   cfg.Store,
		results: make([]Result, len(paths)),
		logger:  log.New("module", "batch"),
	}
	if err := assemblePipeline(cfg).Process(ctx, source, sink); err != nil {
		return nil, u.WrapErr("batch", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, u.WrapErr("batch", err)
	}
	return sink.results, nil
}
