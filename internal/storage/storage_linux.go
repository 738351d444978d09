package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"
)

// openRaw opens a block device node with O_EXCL, which the kernel
// refuses while any partition of the device is mounted.
func openRaw(path string) (*Device, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_EXCL, 0)
	if err != nil {
		if errors.Is(err, unix.EBUSY) {
			return nil, fmt.Errorf("opening %s: %w (make sure the drive is not mounted)", path, err)
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return deviceFromHandle(path, f)
}

func openRawReadOnly(path string) (*Device, error) {
	f, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return deviceFromHandle(path, f)
}

func deviceFromHandle(path string, f *os.File) (*Device, error) {
	size, err := blockDeviceSize(f.Fd())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("querying size of %s: %w", path, err)
	}
	sector, err := unix.IoctlGetInt(int(f.Fd()), unix.BLKSSZGET)
	if err != nil || sector <= 0 {
		sector = 512
	}
	return newDevice(f, size, uint32(sector)), nil
}

func blockDeviceSize(fd uintptr) (uint64, error) {
	var size uint64
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, unix.BLKGETSIZE64, uintptr(unsafe.Pointer(&size)))
	if errno != 0 {
		return 0, errno
	}
	return size, nil
}

// isFatalErrno classifies OS errors that mean the device itself is gone
// rather than a localized media failure.
func isFatalErrno(err error) bool {
	for _, errno := range []unix.Errno{unix.ENODEV, unix.ENXIO, unix.EBADF, unix.ENOMEDIUM} {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}

// listDevices enumerates whole disks via sysfs.
func listDevices() ([]DeviceInfo, error) {
	entries, err := os.ReadDir("/sys/block")
	if err != nil {
		return nil, fmt.Errorf("reading /sys/block: %w", err)
	}

	mounts := readMounts()

	var devices []DeviceInfo
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "loop") || strings.HasPrefix(name, "ram") ||
			strings.HasPrefix(name, "zram") || strings.HasPrefix(name, "dm-") {
			continue
		}

		sectors := readSysUint(filepath.Join("/sys/block", name, "size"))
		if sectors == 0 {
			continue
		}

		info := DeviceInfo{
			ID: "/dev/" + name,
			// sysfs size is always in 512-byte units
			Size:       sectors * 512,
			SectorSize: uint32(readSysUint(filepath.Join("/sys/block", name, "queue", "logical_block_size"))),
			Type:       "Unknown",
			Removable:  readSysUint(filepath.Join("/sys/block", name, "removable")) == 1,
		}
		if info.SectorSize == 0 {
			info.SectorSize = 512
		}

		switch readSysString(filepath.Join("/sys/block", name, "queue", "rotational")) {
		case "1":
			info.Type = "HDD"
		case "0":
			info.Type = "SSD"
		}

		for dev, mp := range mounts {
			if strings.HasPrefix(dev, info.ID) {
				info.MountPoint = mp
				break
			}
		}

		devices = append(devices, info)
	}

	return devices, nil
}

func readSysUint(path string) uint64 {
	v, err := strconv.ParseUint(readSysString(path), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func readSysString(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func readMounts() map[string]string {
	mounts := make(map[string]string)
	data, err := os.ReadFile("/proc/mounts")
	if err != nil {
		return mounts
	}
	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && strings.HasPrefix(fields[0], "/dev/") {
			mounts[fields[0]] = fields[1]
		}
	}
	return mounts
}
