package codec

// Duplicate is a value that occurs more than once.
type Duplicate struct {
	Value int `json:"value" yaml:"value"`
	Count int `json:"count" yaml:"count"`
}

type PermutationCheck struct {
	Size          int         `json:"size" yaml:"size"`
	Min           int         `json:"min" yaml:"min"`
	Max           int         `json:"max" yaml:"max"`
	Unique        int         `json:"uniqueValues" yaml:"uniqueValues"`
	Missing       []int       `json:"missing" yaml:"missing"`
	Duplicates    []Duplicate `json:"duplicates" yaml:"duplicates"`
	IsPermutation bool        `json:"isPermutation" yaml:"isPermutation"`
}

// CheckPermutation lists the values of 0..255 that are missing and those
// that repeat, along with the value range and the number of distinct values.
// Out-of-range values only count towards Min, Max and Unique.
func CheckPermutation(values []int) PermutationCheck {
	pc := PermutationCheck{
		Size:       len(values),
		Missing:    []int{},
		Duplicates: []Duplicate{},
	}

	counts := make([]int, TableSize)
	distinct := make(map[int]struct{}, len(values))
	for i, v := range values {
		if i == 0 || v < pc.Min {
			pc.Min = v
		}
		if i == 0 || v > pc.Max {
			pc.Max = v
		}
		distinct[v] = struct{}{}
		if v >= 0 && v < TableSize {
			counts[v]++
		}
	}
	pc.Unique = len(distinct)

	for v, c := range counts {
		switch {
		case c == 0:
			pc.Missing = append(pc.Missing, v)
		case c > 1:
			pc.Duplicates = append(pc.Duplicates, Duplicate{v, c})
		}
	}
	pc.IsPermutation = len(values) == TableSize && len(pc.Missing) == 0
	return pc
}
