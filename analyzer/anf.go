package analyzer

import u "github.com/moratsam/sbox-analysis/util"

// ANF holds the algebraic normal form coefficients of a Boolean function.
// Index m is the monomial made of the input variables whose bits are set in m.
type ANF [size]byte

// ComputeANF applies the Möbius transform to the truth table f.
func ComputeANF(f *BooleanFunction) ANF {
	anf := ANF(*f)
	for i := 0; i < n; i++ {
		for mask := 0; mask < size; mask++ {
			if (mask>>i)&1 == 1 {
				anf[mask] ^= anf[mask^(1<<i)]
			}
		}
	}
	return anf
}

// Degree is the largest monomial weight with a nonzero coefficient,
// 0 for constant functions.
func (a *ANF) Degree() int {
	deg := 0
	for mask, c := range a {
		if c == 1 {
			if w := u.Weight(byte(mask)); w > deg {
				deg = w
			}
		}
	}
	return deg
}

// Eval evaluates the polynomial at x.
func (a *ANF) Eval(x byte) byte {
	var v byte
	for mask, c := range a {
		if c == 1 && byte(mask)&x == byte(mask) {
			v ^= 1
		}
	}
	return v
}

// AlgebraicDegree is the maximum degree over the 8 output-bit functions.
func (a *Analyzer) AlgebraicDegree() int {
	max := 0
	for bit := 0; bit < n; bit++ {
		anf := ComputeANF(a.booleanFunction(bit))
		if d := anf.Degree(); d > max {
			max = d
		}
	}
	return max
}
