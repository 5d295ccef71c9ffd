package gofat

import (
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/nilsbr/gofat/internal/blockdev"
)

func TestSectorReadPropagatesDeviceError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	wantErr := errors.New("simulated read failure")
	device := blockdev.NewMockDevice(ctrl)
	device.EXPECT().ReadAt(int64(0), gomock.Any()).Return(0, wantErr)

	sec := newSector(device, 0, 512)
	if err := sec.read(); err != wantErr {
		t.Errorf("read() error = %v, want %v", err, wantErr)
	}
}

func TestSectorWriteSkipsDeviceCallWhenClean(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// No WriteAt expectation is set; write() must not call it on a
	// never-dirtied sector.
	device := blockdev.NewMockDevice(ctrl)

	sec := newSector(device, 0, 512)
	if err := sec.write(); err != nil {
		t.Errorf("write() on a clean sector error = %v, want nil", err)
	}
}

func TestSectorWritePropagatesDeviceError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	wantErr := errors.New("simulated write failure")
	device := blockdev.NewMockDevice(ctrl)
	device.EXPECT().WriteAt(int64(128), gomock.Any()).Return(0, wantErr)

	sec := newSector(device, 128, 512)
	sec.set8(0, 1) // dirties the sector
	if err := sec.write(); err != wantErr {
		t.Errorf("write() error = %v, want %v", err, wantErr)
	}
}

func TestReadBootSectorPropagatesDeviceReadError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	wantErr := errors.New("simulated device failure")
	device := blockdev.NewMockDevice(ctrl)
	device.EXPECT().ReadAt(int64(0), gomock.Any()).Return(0, wantErr)

	if _, err := readBootSector(device, 512); err != wantErr {
		t.Errorf("readBootSector() error = %v, want %v", err, wantErr)
	}
}
