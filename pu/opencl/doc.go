// Package opencl computes component spectra on an OpenCL device. The
// implementation is only compiled with the opencl build tag, as it links
// against the system OpenCL library.
package opencl
