package analyzer

import (
	"fmt"

	"github.com/moratsam/sbox-analysis/walsh"
)

// BooleanFunction is the truth table of one output bit as a function of the
// input byte. Entries are 0 or 1.
type BooleanFunction [size]byte

// Xor returns the pointwise XOR of two Boolean functions.
func (f *BooleanFunction) Xor(g *BooleanFunction) BooleanFunction {
	var h BooleanFunction
	for x := range h {
		h[x] = f[x] ^ g[x]
	}
	return h
}

// Weight returns the number of inputs mapping to 1.
func (f *BooleanFunction) Weight() int {
	w := 0
	for _, v := range f {
		w += int(v)
	}
	return w
}

// Spectrum returns the Walsh-Hadamard spectrum of f.
func (f *BooleanFunction) Spectrum() walsh.Spectrum {
	return walsh.Transform(f[:])
}

// BooleanFunction returns the truth table of output bit bit (0 = least
// significant). It panics if bit is outside 0..7.
func (a *Analyzer) BooleanFunction(bit int) BooleanFunction {
	return *a.booleanFunction(bit)
}

func (a *Analyzer) booleanFunction(bit int) *BooleanFunction {
	checkBit(bit)
	a.boolOnce[bit].Do(func() {
		f := &a.booleans[bit]
		for x := range f {
			f[x] = (a.table[x] >> bit) & 1
		}
	})
	return &a.booleans[bit]
}

// Spectrum returns the cached Walsh-Hadamard spectrum of output bit bit.
func (a *Analyzer) Spectrum(bit int) walsh.Spectrum {
	return *a.spectrum(bit)
}

func (a *Analyzer) spectrum(bit int) *walsh.Spectrum {
	f := a.booleanFunction(bit)
	a.spectrumOnce[bit].Do(func() {
		walsh.TransformInto(&a.spectra[bit], f[:])
	})
	return &a.spectra[bit]
}

func checkBit(bit int) {
	if bit < 0 || bit >= n {
		panic(fmt.Sprintf("analyzer: output bit %d out of range 0-%d", bit, n-1))
	}
}
