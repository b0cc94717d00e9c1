// Package walsh implements the fast Walsh-Hadamard transform over 8-bit inputs.
package walsh

const Size = 256

// Spectrum holds one signed coefficient per 8-bit mask.
// Every coefficient lies in [-Size, Size].
type Spectrum [Size]int

// Transform returns the Walsh-Hadamard spectrum of f, a truth table of
// Size values in {0,1}. 0 maps to +1 and 1 maps to -1 before the butterfly,
// so W(b) = sum over x of (-1)^(f(x) xor b·x).
func Transform(f []byte) Spectrum {
	var s Spectrum
	TransformInto(&s, f)
	return s
}

// TransformInto writes the spectrum of f into s without allocating.
func TransformInto(s *Spectrum, f []byte) {
	if len(f) != Size {
		panic("walsh: truth table must have 256 entries")
	}
	for i, v := range f {
		if v == 0 {
			s[i] = 1
		} else {
			s[i] = -1
		}
	}
	for h := 1; h < Size; h *= 2 {
		for i := 0; i < Size; i += h * 2 {
			for j := i; j < i+h; j++ {
				x, y := s[j], s[j+h]
				s[j] = x + y
				s[j+h] = x - y
			}
		}
	}
}

// MaxAbs returns the largest |W(b)| for b in [from, Size).
func (s *Spectrum) MaxAbs(from int) int {
	max := 0
	for _, v := range s[from:] {
		if v < 0 {
			v = -v
		}
		if v > max {
			max = v
		}
	}
	return max
}
