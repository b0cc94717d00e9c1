//go:build opencl

package cmd

import (
	"github.com/moratsam/sbox-analysis/pu"
	cl "github.com/moratsam/sbox-analysis/pu/opencl"
)

func newOpenCLPU() (pu.PU, func(), error) {
	p, err := cl.NewOpenCLPU()
	if err != nil {
		return nil, nil, err
	}
	return p, p.Close, nil
}
