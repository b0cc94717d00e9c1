package batch

import (
	"sync"

	"github.com/moratsam/etherscan/pipeline"

	"github.com/moratsam/sbox-analysis/analyzer"
	"github.com/moratsam/sbox-analysis/codec"
)

var payloadPool = sync.Pool{New: func() interface{} { return new(tablePayload) }}

type tablePayload struct {
	ix          int    // Position of the file in the input list.
	path        string // Table file.
	table       codec.Table
	fingerprint string
	report      *analyzer.Report
	cached      bool  // Report came from the store.
	err         error // First failure for this file; later stages pass it through.
}

func (p *tablePayload) Clone() pipeline.Payload {
	c := payloadPool.Get().(*tablePayload)
	*c = *p
	return c
}

func (p *tablePayload) MarkAsProcessed() {
	*p = tablePayload{}
	payloadPool.Put(p)
}
