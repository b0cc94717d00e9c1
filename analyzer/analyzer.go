// Package analyzer computes the cryptanalytic properties of an 8-bit to 8-bit
// substitution box: nonlinearity, avalanche and bit independence, linear and
// differential approximation probabilities, algebraic degree, transparency
// order and correlation immunity.
//
// An Analyzer is immutable after construction. Derived structures (Boolean
// functions, their spectra, the difference distribution table and the
// component spectra) are built lazily, once, and are safe to share between
// goroutines.
package analyzer

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/ledgerwatch/log/v3"
	"golang.org/x/xerrors"

	"github.com/moratsam/sbox-analysis/pu"
	"github.com/moratsam/sbox-analysis/pu/vanilla"
	"github.com/moratsam/sbox-analysis/walsh"
)

const (
	n    = 8      // Input and output width in bits.
	size = 1 << n // Number of table entries.
)

var (
	ErrTableLength = xerrors.New("s-box must contain exactly 256 values")
	ErrValueRange  = xerrors.New("s-box values must lie in 0-255")
)

type Analyzer struct {
	table  [size]byte
	pu     pu.PU
	logger log.Logger

	boolOnce [n]sync.Once
	booleans [n]BooleanFunction

	spectrumOnce [n]sync.Once
	spectra      [n]walsh.Spectrum

	ddtOnce sync.Once
	ddt     *DDT

	// Guards lat. A failed (cancelled) computation is not cached.
	latMu sync.Mutex
	lat   *pu.Spectra
}

type Option func(*Analyzer)

// WithPU sets the processing unit used for the component spectra.
func WithPU(p pu.PU) Option {
	return func(a *Analyzer) {
		a.pu = p
	}
}

func WithLogger(l log.Logger) Option {
	return func(a *Analyzer) {
		a.logger = l
	}
}

// New binds a copy of values to a new Analyzer. values must hold exactly 256
// entries, each in 0..255.
func New(values []int, opts ...Option) (*Analyzer, error) {
	if len(values) != size {
		return nil, xerrors.Errorf("got %d values: %w", len(values), ErrTableLength)
	}
	a := &Analyzer{}
	for i, v := range values {
		if v < 0 || v >= size {
			return nil, xerrors.Errorf("position %d holds %d: %w", i, v, ErrValueRange)
		}
		a.table[i] = byte(v)
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.pu == nil {
		a.pu = vanilla.NewVanillaPU(runtime.NumCPU())
	}
	if a.logger == nil {
		a.logger = log.New("module", "analyzer")
	}
	return a, nil
}

// FromBytes is New for a table already held as bytes.
func FromBytes(b []byte, opts ...Option) (*Analyzer, error) {
	values := make([]int, len(b))
	for i, v := range b {
		values[i] = int(v)
	}
	return New(values, opts...)
}

// Table returns a copy of the bound table.
func (a *Analyzer) Table() [size]byte {
	return a.table
}

// DDT returns a copy of the difference distribution table.
func (a *Analyzer) DDT() *DDT {
	ddt := *a.differenceTable()
	return &ddt
}

// differenceTable returns the cached table, building it on first use.
func (a *Analyzer) differenceTable() *DDT {
	a.ddtOnce.Do(func() {
		start := time.Now()
		a.ddt = BuildDDT(&a.table)
		a.logger.Debug("Built difference distribution table", "elapsed", time.Since(start))
	})
	return a.ddt
}

// componentSpectra returns the cached linear approximation table.
func (a *Analyzer) componentSpectra(ctx context.Context) (*pu.Spectra, error) {
	a.latMu.Lock()
	defer a.latMu.Unlock()
	if a.lat != nil {
		return a.lat, nil
	}

	start := time.Now()
	lat, err := a.pu.ComponentSpectra(ctx, &a.table)
	if err != nil {
		return nil, err
	}
	a.lat = lat
	a.logger.Debug("Computed component spectra", "elapsed", time.Since(start))
	return lat, nil
}

// Bijectivity reports whether the 256 entries are pairwise distinct.
func (a *Analyzer) Bijectivity() bool {
	var seen [size]bool
	distinct := 0
	for _, v := range a.table {
		if !seen[v] {
			seen[v] = true
			distinct++
		}
	}
	return distinct == size
}

// Balanced reports whether every output value occurs exactly once.
func (a *Analyzer) Balanced() bool {
	var counts [size]int
	for _, v := range a.table {
		counts[v]++
	}
	for _, c := range counts {
		if c != 1 {
			return false
		}
	}
	return true
}
