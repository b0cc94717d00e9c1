//go:build opencl

package opencl

import (
	"context"
	_ "embed"
	"fmt"
	"sync"
	"unsafe"

	"github.com/jgillich/go-opencl/cl"
	"github.com/ledgerwatch/log/v3"
	"golang.org/x/xerrors"

	"github.com/moratsam/sbox-analysis/pu"
	u "github.com/moratsam/sbox-analysis/util"
	"github.com/moratsam/sbox-analysis/walsh"
)

var (
	//go:embed spectra.cl
	kernel_source string
)

const (
	local_dim1 int = 64
)

type OpenCLPU struct {
	mu      sync.Mutex // The kernel args are shared state.
	context *cl.Context
	queue   *cl.CommandQueue
	program *cl.Program
	kernel  *cl.Kernel
}

func NewOpenCLPU() (*OpenCLPU, error) {
	logger := log.New("module", "opencl")

	// Get platforms.
	platforms, err := cl.GetPlatforms()
	if err != nil {
		return nil, u.WrapErr("get platforms", err)
	}
	if len(platforms) == 0 {
		return nil, u.WrapErr("get platforms", xerrors.New("no OpenCL platform found"))
	}
	logger.Info("Using platform", "name", platforms[0].Name(), "profile", platforms[0].Profile(), "version", platforms[0].Version())

	// Get devices.
	devices, err := platforms[0].GetDevices(cl.DeviceTypeAll)
	if err != nil {
		return nil, u.WrapErr("get devices", err)
	}
	if len(devices) == 0 {
		return nil, u.WrapErr("", xerrors.New("GetDevices returned 0 devices"))
	}
	logger.Info("Using device", "name", devices[0].Name(), "type", devices[0].Type().String(), "openclc", devices[0].OpenCLCVersion())

	// Create device context & command queue.
	context, err := cl.CreateContext([]*cl.Device{devices[0]})
	if err != nil {
		return nil, u.WrapErr("create context", err)
	}
	queue, err := context.CreateCommandQueue(devices[0], 0)
	if err != nil {
		return nil, u.WrapErr("create command queue", err)
	}

	// Create kernel.
	program, err := context.CreateProgramWithSource([]string{kernel_source})
	if err != nil {
		return nil, u.WrapErr("create program", err)
	}
	options := fmt.Sprintf("-DSIZE=%d", walsh.Size)
	if err := program.BuildProgram(nil, options); err != nil {
		return nil, u.WrapErr("build program", err)
	}
	kernel, err := program.CreateKernel("spectra")
	if err != nil {
		return nil, u.WrapErr("create kernel", err)
	}

	return &OpenCLPU{context: context, queue: queue, program: program, kernel: kernel}, nil
}

func (c *OpenCLPU) ComponentSpectra(ctx context.Context, table *[walsh.Size]byte) (*pu.Spectra, error) {
	if err := ctx.Err(); err != nil {
		return nil, u.WrapErr("component spectra", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// Enqueue input buffer.
	buf_table, err := c.enqueueArr(table[:])
	if err != nil {
		return nil, u.WrapErr("enqueue table", err)
	}
	defer buf_table.Release()

	// Create output buffer.
	output := make([]int32, walsh.Size*walsh.Size)
	byte_size := int(unsafe.Sizeof(output[0]))
	buf_output, err := c.context.CreateEmptyBuffer(cl.MemWriteOnly, byte_size*len(output))
	if err != nil {
		return nil, u.WrapErr("create output buffer", err)
	}
	defer buf_output.Release()

	// Set kernel args.
	if err := c.kernel.SetArgs(buf_table, buf_output); err != nil {
		return nil, u.WrapErr("set args", err)
	}

	// Enqueue kernel.
	global := []int{walsh.Size, walsh.Size}
	local := []int{1, local_dim1}
	if _, err := c.queue.EnqueueNDRangeKernel(c.kernel, nil, global, local, nil); err != nil {
		return nil, u.WrapErr("enqueue kernel", err)
	}

	// Block until queue is finished.
	if err := c.queue.Finish(); err != nil {
		return nil, u.WrapErr("kernel finish", err)
	}

	// Copy data from OpenCL's output buffer to the go output array.
	ptr := unsafe.Pointer(&output[0])
	if _, err := c.queue.EnqueueReadBuffer(buf_output, true, 0, byte_size*len(output), ptr, nil); err != nil {
		return nil, u.WrapErr("reading data from buffer", err)
	}

	spectra := new(pu.Spectra)
	for mask := range spectra {
		for beta := range spectra[mask] {
			spectra[mask][beta] = int(output[mask*walsh.Size+beta])
		}
	}
	return spectra, nil
}

// Close releases the device resources.
func (c *OpenCLPU) Close() {
	c.kernel.Release()
	c.program.Release()
	c.queue.Release()
	c.context.Release()
}

func (c *OpenCLPU) enqueueArr(arr []byte) (*cl.MemObject, error) {
	elem_size := int(unsafe.Sizeof(arr[0]))
	ptr := unsafe.Pointer(&arr[0])
	buffer, err := c.context.CreateEmptyBuffer(cl.MemReadOnly, elem_size*len(arr))
	if err != nil {
		return nil, u.WrapErr("create buffer", err)
	}
	_, err = c.queue.EnqueueWriteBuffer(buffer, true, 0, elem_size*len(arr), ptr, nil)
	if err != nil {
		buffer.Release()
		return nil, u.WrapErr("enqueue buffer", err)
	}

	return buffer, nil
}
