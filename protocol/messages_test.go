package protocol

import (
	"bytes"
	"testing"
)

func TestHrDataRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		msg  HrData
		hex  []byte
	}{
		{"spec example", HrData{Key: 5, HR: 72}, []byte{0x63, 0x05, 0x48}},
		{"zero hr", HrData{Key: 0, HR: 0}, []byte{0x63, 0x00, 0x00}},
		{"max values", HrData{Key: 255, HR: 255}, []byte{0x63, 0xFF, 0xFF}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := make([]byte, SizeHrData)
			n := tt.msg.Marshal(buf)
			if n != SizeHrData {
				t.Fatalf("Marshal() = %d, want %d", n, SizeHrData)
			}
			if !bytes.Equal(buf, tt.hex) {
				t.Errorf("Marshal() = % X, want % X", buf, tt.hex)
			}
			got, ok := UnmarshalHrData(buf)
			if !ok {
				t.Fatal("UnmarshalHrData() ok = false, want true")
			}
			if got != tt.msg {
				t.Errorf("UnmarshalHrData() = %+v, want %+v", got, tt.msg)
			}
		})
	}
}

func TestHrDataMarshalTooSmall(t *testing.T) {
	buf := make([]byte, SizeHrData-1)
	if n := (HrData{Key: 1, HR: 2}).Marshal(buf); n != 0 {
		t.Errorf("Marshal() = %d, want 0", n)
	}
}

func TestHrDataUnmarshalTooShort(t *testing.T) {
	for l := 0; l < SizeHrData; l++ {
		buf := make([]byte, l)
		if l > 0 {
			buf[0] = MagicHrData
		}
		if _, ok := UnmarshalHrData(buf); ok {
			t.Errorf("UnmarshalHrData(len=%d) ok = true, want false", l)
		}
	}
}

func TestSetNameMapKeyRoundTrip(t *testing.T) {
	msg := SetNameMapKey{Key: 9}
	buf := make([]byte, SizeSetNameMapKey)
	n := msg.Marshal(buf)
	if n != SizeSetNameMapKey {
		t.Fatalf("Marshal() = %d, want %d", n, SizeSetNameMapKey)
	}
	want := []byte{MagicSetNameMapKey, 0x09}
	if !bytes.Equal(buf, want) {
		t.Errorf("Marshal() = % X, want % X", buf, want)
	}
	got, ok := UnmarshalSetNameMapKey(buf)
	if !ok || got != msg {
		t.Errorf("UnmarshalSetNameMapKey() = %+v, %v, want %+v, true", got, ok, msg)
	}
}

func TestQueryDeviceByMacRoundTrip(t *testing.T) {
	msg := QueryDeviceByMac{Addr: Broadcast}
	buf := make([]byte, SizeQueryDeviceByMac)
	n := msg.Marshal(buf)
	if n != SizeQueryDeviceByMac {
		t.Fatalf("Marshal() = %d, want %d", n, SizeQueryDeviceByMac)
	}
	got, ok := UnmarshalQueryDeviceByMac(buf)
	if !ok {
		t.Fatal("UnmarshalQueryDeviceByMac() ok = false")
	}
	if !got.Addr.IsBroadcast() {
		t.Errorf("Addr = %v, want broadcast", got.Addr)
	}
}

func TestQueryDeviceByMacResponseWithoutDevice(t *testing.T) {
	msg := QueryDeviceByMacResponse{
		RepeaterAddr: Address{1, 2, 3, 4, 5, 6},
		Key:          7,
		Device:       nil,
	}
	buf := make([]byte, msg.Size())
	n := msg.Marshal(buf)
	if n != msg.Size() || n != sizeQueryResponseBase+1 {
		t.Fatalf("Marshal() = %d, want %d", n, sizeQueryResponseBase+1)
	}
	if buf[len(buf)-1] != 0 {
		t.Errorf("trailing length byte = %d, want 0", buf[len(buf)-1])
	}
	got, ok := UnmarshalQueryDeviceByMacResponse(buf)
	if !ok {
		t.Fatal("Unmarshal ok = false")
	}
	if got.Device != nil {
		t.Errorf("Device = %+v, want nil", got.Device)
	}
	if got.RepeaterAddr != msg.RepeaterAddr || got.Key != msg.Key {
		t.Errorf("got %+v, want %+v", got, msg)
	}
}

func TestQueryDeviceByMacResponseWithDevice(t *testing.T) {
	msg := QueryDeviceByMacResponse{
		RepeaterAddr: Address{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF},
		Key:          42,
		Device: &DiscoveredDeviceInfo{
			Addr: Address{1, 1, 1, 1, 1, 1},
			Name: "Polar H10",
		},
	}
	buf := make([]byte, msg.Size())
	n := msg.Marshal(buf)
	if n != msg.Size() {
		t.Fatalf("Marshal() = %d, want %d", n, msg.Size())
	}
	got, ok := UnmarshalQueryDeviceByMacResponse(buf)
	if !ok {
		t.Fatal("Unmarshal ok = false")
	}
	if got.Device == nil {
		t.Fatal("Device = nil, want non-nil")
	}
	if got.Device.Addr != msg.Device.Addr || got.Device.Name != msg.Device.Name {
		t.Errorf("Device = %+v, want %+v", got.Device, msg.Device)
	}
}

func TestQueryDeviceByMacResponseTruncatesLongName(t *testing.T) {
	longName := bytes.Repeat([]byte("x"), 60)
	msg := QueryDeviceByMacResponse{
		RepeaterAddr: Address{1, 2, 3, 4, 5, 6},
		Key:          1,
		Device: &DiscoveredDeviceInfo{
			Addr: Address{9, 9, 9, 9, 9, 9},
			Name: string(longName),
		},
	}
	buf := make([]byte, msg.Size())
	msg.Marshal(buf)
	got, ok := UnmarshalQueryDeviceByMacResponse(buf)
	if !ok {
		t.Fatal("Unmarshal ok = false")
	}
	if len(got.Device.Name) != maxDeviceNameLen {
		t.Errorf("Name length = %d, want %d", len(got.Device.Name), maxDeviceNameLen)
	}
}

func TestQueryDeviceByMacResponseMarshalTooSmall(t *testing.T) {
	msg := QueryDeviceByMacResponse{RepeaterAddr: Broadcast, Key: 1}
	buf := make([]byte, msg.Size()-1)
	if n := msg.Marshal(buf); n != 0 {
		t.Errorf("Marshal() = %d, want 0", n)
	}
}

func TestUnmarshalAnyDispatch(t *testing.T) {
	hr := HrData{Key: 1, HR: 60}
	buf := make([]byte, SizeHrData)
	hr.Marshal(buf)

	msg, ok := UnmarshalAny(buf)
	if !ok {
		t.Fatal("UnmarshalAny() ok = false")
	}
	got, isHr := msg.(HrData)
	if !isHr || got != hr {
		t.Errorf("UnmarshalAny() = %#v, want %#v", msg, hr)
	}
}

func TestUnmarshalAnyUnknownMagic(t *testing.T) {
	buf := []byte{0xFF, 0, 0, 0, 0, 0, 0, 0, 0}
	if _, ok := UnmarshalAny(buf); ok {
		t.Error("UnmarshalAny() ok = true for unknown magic, want false")
	}
}

func TestUnmarshalAnyEmptyBuffer(t *testing.T) {
	if _, ok := UnmarshalAny(nil); ok {
		t.Error("UnmarshalAny(nil) ok = true, want false")
	}
}

func TestAddressString(t *testing.T) {
	addr := Address{0xAA, 0xBB, 0xCC, 0x01, 0x02, 0x03}
	want := "AA:BB:CC:01:02:03"
	if got := addr.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestBroadcastAddress(t *testing.T) {
	if !Broadcast.IsBroadcast() {
		t.Error("Broadcast.IsBroadcast() = false, want true")
	}
	other := Address{1, 2, 3, 4, 5, 6}
	if other.IsBroadcast() {
		t.Error("IsBroadcast() = true for non-broadcast address")
	}
}
