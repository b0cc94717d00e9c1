package analyzer

// DDT is the difference distribution table: DDT[a][b] counts the ordered
// input pairs (x1, x2) with x1^x2 == a and S(x1)^S(x2) == b.
type DDT [size][size]int

// BuildDDT enumerates all 2^16 ordered input pairs.
func BuildDDT(table *[size]byte) *DDT {
	ddt := new(DDT)
	for x1 := 0; x1 < size; x1++ {
		for x2 := 0; x2 < size; x2++ {
			ddt[x1^x2][table[x1]^table[x2]]++
		}
	}
	return ddt
}

func (d *DDT) RowSum(row int) int {
	sum := 0
	for _, c := range d[row] {
		sum += c
	}
	return sum
}

// Uniformity is the largest entry outside row 0.
func (d *DDT) Uniformity() int {
	max := 0
	for row := 1; row < size; row++ {
		for _, c := range d[row] {
			if c > max {
				max = c
			}
		}
	}
	return max
}

type DAPResult struct {
	MaxDifferential int     `json:"maxDifferential" yaml:"maxDifferential"`
	MaxDAP          float64 `json:"maxDAP" yaml:"maxDAP"`
	Table           *DDT    `json:"table,omitempty" yaml:"table,omitempty"`
}

// DAP reports the maximum differential approximation probability DU/256
// together with a copy of the table it was read from.
func (a *Analyzer) DAP() DAPResult {
	ddt := a.DDT()
	du := ddt.Uniformity()
	return DAPResult{
		MaxDifferential: du,
		MaxDAP:          float64(du) / size,
		Table:           ddt,
	}
}

func (a *Analyzer) DifferentialUniformity() int {
	return a.differenceTable().Uniformity()
}
