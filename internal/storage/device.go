package storage

import (
	"io"
	"os"

	"github.com/Kostassoid/lethe/internal/wipe"
)

// Device implements wipe.BlockDevice over an open file handle, either a
// regular file or a raw device node.
type Device struct {
	f          *os.File
	size       uint64
	sectorSize uint32
}

func newDevice(f *os.File, size uint64, sectorSize uint32) *Device {
	return &Device{f: f, size: size, sectorSize: sectorSize}
}

// Path returns the OS path the device was opened from.
func (d *Device) Path() string {
	return d.f.Name()
}

func (d *Device) BlockSize() uint32 {
	return d.sectorSize
}

func (d *Device) BlockCount() uint64 {
	return d.size / uint64(d.sectorSize)
}

func (d *Device) ReadAt(buf []byte, offset uint64) error {
	n, err := d.f.ReadAt(buf, int64(offset))
	if err != nil && !(err == io.EOF && n == len(buf)) {
		return &wipe.DeviceError{Op: "read", Offset: offset, Fatal: isFatalErrno(err), Err: err}
	}
	if n != len(buf) {
		return &wipe.DeviceError{Op: "read", Offset: offset, Err: io.ErrUnexpectedEOF}
	}
	return nil
}

func (d *Device) WriteAt(data []byte, offset uint64) error {
	if _, err := d.f.WriteAt(data, int64(offset)); err != nil {
		return &wipe.DeviceError{Op: "write", Offset: offset, Fatal: isFatalErrno(err), Err: err}
	}
	return nil
}

func (d *Device) Flush() error {
	if err := d.f.Sync(); err != nil {
		return &wipe.DeviceError{Op: "flush", Fatal: isFatalErrno(err), Err: err}
	}
	return nil
}

func (d *Device) Close() error {
	return d.f.Close()
}
