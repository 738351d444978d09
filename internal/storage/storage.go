// Package storage provides OS-level access to block devices and plain
// files behind the wipe.BlockDevice interface, plus device discovery
// for the CLI. The engine itself never touches device identity; it all
// stays behind this package.
package storage

import (
	"fmt"
	"os"
)

// DeviceInfo describes a discovered storage device or a regular file.
type DeviceInfo struct {
	// ID is the OS path used to open the device.
	ID string
	// Size in bytes.
	Size uint64
	// SectorSize is the minimum I/O granularity in bytes.
	SectorSize uint32
	// Type is HDD, SSD, File or Unknown.
	Type string
	// MountPoint is set when the device is currently mounted.
	MountPoint string
	// Removable marks hot-pluggable media.
	Removable bool
}

// List enumerates the storage devices visible to this process.
// Implemented per OS.
func List() ([]DeviceInfo, error) {
	return listDevices()
}

// Open opens the target for wiping with exclusive write access. Regular
// files are addressed with byte granularity; raw devices report their
// logical sector size.
func Open(path string) (*Device, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("inspecting %s: %w", path, err)
	}
	if fi.Mode().IsRegular() {
		return openFile(path, fi.Size())
	}
	return openRaw(path)
}

// OpenReadOnly opens the target for verification-only access.
func OpenReadOnly(path string) (*Device, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("inspecting %s: %w", path, err)
	}
	if fi.Mode().IsRegular() {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", path, err)
		}
		return newDevice(f, uint64(fi.Size()), 1), nil
	}
	return openRawReadOnly(path)
}

func openFile(path string, size int64) (*Device, error) {
	if size == 0 {
		return nil, fmt.Errorf("%s is empty, nothing to wipe", path)
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("opening %s for writing: %w", path, err)
	}
	return newDevice(f, uint64(size), 1), nil
}
