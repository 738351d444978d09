package storage

import (
	"errors"
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	ioctlDiskGetLengthInfo    = 0x0007405c // IOCTL_DISK_GET_LENGTH_INFO
	ioctlDiskGetDriveGeometry = 0x00070000 // IOCTL_DISK_GET_DRIVE_GEOMETRY
)

type diskGeometry struct {
	Cylinders         int64
	MediaType         uint32
	TracksPerCylinder uint32
	SectorsPerTrack   uint32
	BytesPerSector    uint32
}

func openRaw(path string) (*Device, error) {
	return openRawAccess(path, windows.GENERIC_READ|windows.GENERIC_WRITE, 0)
}

func openRawReadOnly(path string) (*Device, error) {
	return openRawAccess(path, windows.GENERIC_READ, windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE)
}

// openRawAccess opens a \\.\PhysicalDriveN style path. Write access is
// requested with zero sharing so nothing else can hold the volume.
func openRawAccess(path string, access uint32, share uint32) (*Device, error) {
	name, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, fmt.Errorf("invalid device path %s: %w", path, err)
	}

	handle, err := windows.CreateFile(name, access, share, nil, windows.OPEN_EXISTING, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	var length int64
	var returned uint32
	err = windows.DeviceIoControl(handle, ioctlDiskGetLengthInfo,
		nil, 0, (*byte)(unsafe.Pointer(&length)), uint32(unsafe.Sizeof(length)), &returned, nil)
	if err != nil {
		windows.CloseHandle(handle)
		return nil, fmt.Errorf("querying size of %s: %w", path, err)
	}

	var geometry diskGeometry
	sector := uint32(512)
	err = windows.DeviceIoControl(handle, ioctlDiskGetDriveGeometry,
		nil, 0, (*byte)(unsafe.Pointer(&geometry)), uint32(unsafe.Sizeof(geometry)), &returned, nil)
	if err == nil && geometry.BytesPerSector > 0 {
		sector = geometry.BytesPerSector
	}

	return newDevice(os.NewFile(uintptr(handle), path), uint64(length), sector), nil
}

func isFatalErrno(err error) bool {
	for _, errno := range []error{
		windows.ERROR_NOT_READY,
		windows.ERROR_DEVICE_NOT_CONNECTED,
		windows.ERROR_INVALID_HANDLE,
	} {
		if errors.Is(err, errno) {
			return true
		}
	}
	return false
}

func listDevices() ([]DeviceInfo, error) {
	var devices []DeviceInfo
	for n := 0; n < 64; n++ {
		id := fmt.Sprintf(`\\.\PhysicalDrive%d`, n)
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
