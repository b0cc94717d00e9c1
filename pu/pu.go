package pu

import (
	"context"

	"github.com/moratsam/sbox-analysis/walsh"
)

// Spectra holds, for every 8-bit mask b (row), the Walsh-Hadamard spectrum of
// the component function x -> parity(b · table[x]). This is the linear
// approximation table of the S-box. Row 0 is the spectrum of the zero function.
type Spectra [walsh.Size]walsh.Spectrum

// PU computes the component spectra of a 256-entry table.
// Implementations must return identical output for identical tables.
type PU interface {
	ComponentSpectra(ctx context.Context, table *[walsh.Size]byte) (*Spectra, error)
}
