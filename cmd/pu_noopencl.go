//go:build !opencl

package cmd

import (
	"golang.org/x/xerrors"

	"github.com/moratsam/sbox-analysis/pu"
)

func newOpenCLPU() (pu.PU, func(), error) {
	return nil, nil, xerrors.New("opencl processor not available: rebuild with -tags opencl")
}
