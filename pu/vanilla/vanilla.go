package vanilla

import (
	"context"
	"sync"

	"github.com/moratsam/sbox-analysis/pu"
	u "github.com/moratsam/sbox-analysis/util"
	"github.com/moratsam/sbox-analysis/walsh"
)

type VanillaPU struct {
	workers int
}

// NewVanillaPU returns a pure Go processing unit that spreads the masks over
// the given number of goroutines. workers < 1 is treated as 1.
func NewVanillaPU(workers int) *VanillaPU {
	if workers < 1 {
		workers = 1
	}
	return &VanillaPU{workers}
}

func (v *VanillaPU) Workers() int {
	return v.workers
}

func (v *VanillaPU) ComponentSpectra(ctx context.Context, table *[walsh.Size]byte) (*pu.Spectra, error) {
	spectra := new(pu.Spectra)

	// Create function for transforming every worker_ix-th mask.
	// Rows are disjoint between workers, so no locking is needed.
	wg := new(sync.WaitGroup)
	transformMasks := func(worker_ix int) {
		defer wg.Done()
		f := make([]byte, walsh.Size)
		for mask := worker_ix; mask < walsh.Size; mask += v.workers {
			if ctx.Err() != nil {
				return
			}
			for x := range f { // Truth table of the masked output parity.
				f[x] = u.Dot(byte(mask), table[x])
			}
			walsh.TransformInto(&spectra[mask], f)
		}
	}

	// Spawn workers.
	wg.Add(v.workers)
	for i := 0; i < v.workers; i++ {
		go transformMasks(i)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, u.WrapErr("component spectra", err)
	}
	return spectra, nil
}
