package io

import (
	"io"
	"os"

	"golang.org/x/xerrors"

	u "github.com/moratsam/sbox-analysis/util"
)

// Table files are tiny; anything past this is not a table.
const MaxFileSize = 1 << 20

const chunk_size = 32 * 1000

func CreateFile(filepath string) (*os.File, error) {
	return os.Create(filepath)
}

func OpenFile(filepath string) (*os.File, error) {
	return os.Open(filepath)
}

func FileSize(filepath string) (int64, error) {
	fi, err := os.Stat(filepath)
	if err != nil {
		return 0, u.WrapErr("get stat", err)
	}
	return fi.Size(), nil
}

func ReadFrom(f *os.File, chunk_size int64) ([]byte, error) {
	chunk := make([]byte, chunk_size)
	count, err := f.Read(chunk)
	if err != nil {
		if err == io.EOF {
			return make([]byte, 0), nil
		}
		return nil, u.WrapErr("read", err)
	}
	return chunk[:count], nil
}

func WriteTo(f *os.File, chunk []byte) error {
	_, err := f.Write(chunk)
	return err
}

// ReadFile reads a whole file of at most MaxFileSize bytes.
func ReadFile(filepath string) ([]byte, error) {
	fsize, err := FileSize(filepath)
	if err != nil {
		return nil, err
	}
	if fsize > MaxFileSize {
		return nil, xerrors.Errorf("%s is %d bytes, limit is %d", filepath, fsize, MaxFileSize)
	}

	f, err := OpenFile(filepath)
	if err != nil {
		return nil, u.WrapErr("open", err)
	}
	defer f.Close()

	data := make([]byte, 0, fsize)
	for {
		chunk, err := ReadFrom(f, chunk_size)
		if err != nil {
			return nil, err
		}
		if len(chunk) == 0 { // EOF
			break
		}
		data = append(data, chunk...)
	}
	return data, nil
}

// WriteFile creates (or truncates) filepath and writes data to it.
func WriteFile(filepath string, data []byte) error {
	f, err := CreateFile(filepath)
	if err != nil {
		return u.WrapErr("create", err)
	}
	if err := WriteTo(f, data); err != nil {
		f.Close()
		return u.WrapErr("write", err)
	}
	return f.Close()
}
