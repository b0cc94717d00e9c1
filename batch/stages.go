package batch

import (
	"context"

	"github.com/ledgerwatch/log/v3"
	"github.com/moratsam/etherscan/pipeline"
	"golang.org/x/xerrors"

	"github.com/moratsam/sbox-analysis/analyzer"
	"github.com/moratsam/sbox-analysis/codec"
	"github.com/moratsam/sbox-analysis/store"
	u "github.com/moratsam/sbox-analysis/util"
)

// Source of the batch pipeline: one payload per input path.
type pathSource struct {
	paths []string
	next  int
}

func (s *pathSource) Error() error { return nil }

func (s *pathSource) Next(ctx context.Context) bool {
	if ctx.Err() != nil || s.next >= len(s.paths) {
		return false
	}
	s.next++
	return true
}

func (s *pathSource) Payload() pipeline.Payload {
	p := payloadPool.Get().(*tablePayload)
	p.ix = s.next - 1
	p.path = s.paths[p.ix]
	return p
}

// This step reads and decodes the table file.
type tableReader struct {
	jsonPath string
}

func newTableReader(jsonPath string) *tableReader {
	return &tableReader{jsonPath}
}

func (r *tableReader) Process(_ context.Context, payload pipeline.Payload) (pipeline.Payload, error) {
	p := payload.(*tablePayload)
	t, err := codec.ReadTable(p.path, r.jsonPath)
	if err != nil {
		p.err = err
		return p, nil
	}
	p.table = t
	p.fingerprint = store.Fingerprint(t.Values)
	return p, nil
}

// This step reuses a stored analysis of the same table.
type cacheLookup struct {
	store *store.Store
}

func newCacheLookup(s *store.Store) *cacheLookup {
	return &cacheLookup{s}
}

func (c *cacheLookup) Process(_ context.Context, payload pipeline.Payload) (pipeline.Payload, error) {
	p := payload.(*tablePayload)
	if p.err != nil || c.store == nil {
		return p, nil
	}
	rec, err := c.store.Get(p.fingerprint)
	switch {
	case err == nil:
		p.report = rec.Report
		p.cached = true
	case !xerrors.Is(err, store.ErrNotFound):
		p.err = err
	}
	return p, nil
}

// This step runs the full analysis.
type tableAnalyzer struct {
	opts []analyzer.Option
}

func newTableAnalyzer(opts []analyzer.Option) *tableAnalyzer {
	return &tableAnalyzer{opts}
}

func (a *tableAnalyzer) Process(ctx context.Context, payload pipeline.Payload) (pipeline.Payload, error) {
	p := payload.(*tablePayload)
	if p.err != nil || p.cached {
		return p, nil
	}
	an, err := analyzer.New(p.table.Values, a.opts...)
	if err != nil {
		p.err = err
		return p, nil
	}
	report, err := an.RunFullAnalysis(ctx)
	if err != nil {
		// Cancellation aborts the whole batch.
		if ctx.Err() != nil {
			return nil, u.WrapErr(p.path, err)
		}
		p.err = err
		return p, nil
	}
	p.report = report
	return p, nil
}

// Sink of the batch pipeline: stores fresh reports and collects results.
type resultSink struct {
	store   *store.Store
	results []Result
	logger  log.Logger
}

func (s *resultSink) Consume(_ context.Context, payload pipeline.Payload) error {
	p := payload.(*tablePayload)
	res := Result{
		Path:        p.path,
		Name:        p.table.Name,
		Fingerprint: p.fingerprint,
		Report:      p.report,
		Cached:      p.cached,
		Err:         p.err,
	}

	if res.Err == nil && !res.Cached && s.store != nil {
		if _, err := s.store.Put(res.Name, p.table.Values, res.Report); err != nil {
			res.Err = u.WrapErr("store report", err)
		}
	}
	if res.Err != nil {
		s.logger.Warn("Table failed", "path", res.Path, "err", res.Err)
	} else {
		s.logger.Info("Table analysed", "path", res.Path, "level", res.Report.Summary.SecurityLevel, "cached", res.Cached)
	}

	s.results[p.ix] = res
	return nil
}
