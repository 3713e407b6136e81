package protocol

// Address is a 6-byte BLE MAC address, big-endian in the order the BLE
// stack hands it to us.
type Address [AddrSize]byte

// Broadcast is the distinguished address meaning "any repeater" in a
// QueryDeviceByMac request.
var Broadcast = Address{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// IsBroadcast reports whether addr is the broadcast address.
func (addr Address) IsBroadcast() bool {
	return addr == Broadcast
}

// String renders the address as colon-separated uppercase hex, e.g.
// "AA:BB:CC:DD:EE:FF".
func (addr Address) String() string {
	const hexDigits = "0123456789ABCDEF"
	buf := make([]byte, 0, 17)
	for i, b := range addr {
		if i != 0 {
			buf = append(buf, ':')
		}
		buf = append(buf, hexDigits[b>>4], hexDigits[b&0x0F])
	}
	return string(buf)
}
