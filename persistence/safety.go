package persistence

import (
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"unsafe"
)

var (
	// ErrUnsupportedArchitecture is returned on CPUs other than amd64 and arm64.
	ErrUnsupportedArchitecture = errors.New("unsupported architecture: only amd64 and arm64 are supported")
	// ErrBigEndian is returned on big-endian systems.
	ErrBigEndian = errors.New("big-endian systems are not supported")
)

func init() {
	if err := validatePlatform(); err != nil {
		panic(fmt.Sprintf("matio/persistence: %v", err))
	}
}

// validatePlatform checks that element bytes in memory match the file layout:
// little-endian with a 64-bit int.
func validatePlatform() error {
	arch := runtime.GOARCH
	if arch != "amd64" && arch != "arm64" {
		return fmt.Errorf("%w: %s", ErrUnsupportedArchitecture, arch)
	}
	if !isLittleEndian() {
		return ErrBigEndian
	}
	if strconv.IntSize != 64 {
		return fmt.Errorf("%w: int is %d bits", ErrUnsupportedArchitecture, strconv.IntSize)
	}
	return nil
}

func isLittleEndian() bool {
	var test uint16 = 0x0001
	return *(*byte)(unsafe.Pointer(&test)) == 1
}

// PlatformInfo describes the current platform.
func PlatformInfo() string {
	endian := "little-endian"
	if !isLittleEndian() {
		endian = "big-endian"
	}
	return fmt.Sprintf("GOOS=%s GOARCH=%s endianness=%s", runtime.GOOS, runtime.GOARCH, endian)
}
