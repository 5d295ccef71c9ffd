package blockdev

import "testing"

func TestMemDeviceReadWriteRoundTrip(t *testing.T) {
	d, err := NewMemDevice(4096, 512)
	if err != nil {
		t.Fatalf("NewMemDevice() error = %v", err)
	}
	defer d.Close()

	want := []byte("hello block device")
	if _, err := d.WriteAt(512, want); err != nil {
		t.Fatalf("WriteAt() error = %v", err)
	}

	got := make([]byte, len(want))
	if _, err := d.ReadAt(512, got); err != nil {
		t.Fatalf("ReadAt() error = %v", err)
	}

	if string(got) != string(want) {
		t.Errorf("ReadAt() = %q, want %q", got, want)
	}
}

func TestMemDeviceReadOnlyRejectsWrite(t *testing.T) {
	d, err := NewMemDevice(4096, 512)
	if err != nil {
		t.Fatalf("NewMemDevice() error = %v", err)
	}
	defer d.Close()

	d.SetReadOnly(true)

	if _, err := d.WriteAt(0, []byte{1}); err == nil {
		t.Errorf("WriteAt() on read-only device succeeded, want error")
	}
}

func TestMemDeviceCloseThenOperateFails(t *testing.T) {
	d, err := NewMemDevice(512, 512)
	if err != nil {
		t.Fatalf("NewMemDevice() error = %v", err)
	}

	if err := d.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if !d.IsClosed() {
		t.Errorf("IsClosed() = false after Close()")
	}

	if _, err := d.ReadAt(0, make([]byte, 1)); err != ErrClosed {
		t.Errorf("ReadAt() after Close() error = %v, want ErrClosed", err)
	}
}
