package storage

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	dkiocGetBlockSize  = 0x40046418 // DKIOCGETBLOCKSIZE
	dkiocGetBlockCount = 0x40086419 // DKIOCGETBLOCKCOUNT
)

// openRaw opens the character device node, which gives unbuffered
// access on macOS (/dev/rdiskN for /dev/diskN).
func openRaw(path string) (*Device, error) {
	f, err := os.OpenFile(rawPath(path), os.O_RDWR, 0)
	if err != nil {
		if errors.Is(err, unix.EBUSY) {
			return nil, fmt.Errorf("opening %s: %w (make sure the drive is not mounted)", path, err)
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return deviceFromHandle(path, f)
}

func openRawReadOnly(path string) (*Device, error) {
	f, err := os.OpenFile(rawPath(path), os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return deviceFromHandle(path, f)
}

var diskPathPattern = regexp.MustCompile(`^/dev/(r?)(disk\d+)$`)

func rawPath(path string) string {
	if m := diskPathPattern.FindStringSubmatch(path); m != nil && m[1] == "" {
		return "/dev/r" + m[2]
	}
	return path
}

func deviceFromHandle(path string, f *os.File) (*Device, error) {
	var sector uint32
	var count uint64

	if err := ioctlPtr(f.Fd(), dkiocGetBlockSize, unsafe.Pointer(&sector)); err != nil {
		f.Close()
		return nil, fmt.Errorf("querying block size of %s: %w", path, err)
	}
	if err := ioctlPtr(f.Fd(), dkiocGetBlockCount, unsafe.Pointer(&count)); err != nil {
		f.Close()
		return nil, fmt.Errorf("querying block count of %s: %w", path, err)
	}
	if sector == 0 {
		sector = 512
	}

	return newDevice(f, count*uint64(sector), sector), nil
}

func ioctlPtr(fd uintptr, req uint, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, uintptr(req), uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

func isFatalErrno(err error) bool {
	for _, errno := range []unix.Errno{unix.ENODEV, unix.ENXIO, unix.EBADF} {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}

var wholeDiskPattern = regexp.MustCompile(`^disk\d+$`)

func listDevices() ([]DeviceInfo, error) {
	entries, err := os.ReadDir("/dev")
	if err != nil {
		return nil, fmt.Errorf("reading /dev: %w", err)
	}

	var devices []DeviceInfo
	for _, e := range entries {
		if !wholeDiskPattern.MatchString(e.Name()) {
			continue
		}
		id := "/dev/" + e.Name()

		// Size queries need the device opened; skip what we cannot read.
		dev, err := openRawReadOnly(id)
		if err != nil {
			continue
		}
		devices = append(devices, DeviceInfo{
			ID:         id,
			Size:       dev.size,
			SectorSize: dev.sectorSize,
			Type:       "Unknown",
		})
		dev.Close()
	}

	return devices, nil
}
