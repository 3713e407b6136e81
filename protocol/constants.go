// Package protocol implements the bit-exact wire codec for the LoRa link
// between repeaters and the heart-rate collector. It performs no I/O and
// allocates no heap; every Marshal call writes into a caller-supplied
// buffer.
package protocol

// Magic bytes discriminating the four LoRa message variants. Readers
// dispatch on the first byte of a frame; magics are unique and never
// overlap.
const (
	MagicHrData                   = 0x63
	MagicQueryDeviceByMac         = 0x51
	MagicQueryDeviceByMacResponse = 0x52
	MagicSetNameMapKey            = 0x4B
)

// Fixed frame sizes for the constant-length variants.
const (
	SizeHrData           = 3 // magic + key + hr
	SizeSetNameMapKey    = 2 // magic + key
	SizeQueryDeviceByMac = 7 // magic + addr(6)
)

// QueryDeviceByMacResponse sizing. The base is fixed; the device block is
// variable and length-prefixed.
const (
	sizeQueryResponseBase = 8 // magic + repeater_addr(6) + key
	maxDeviceNameLen      = MaxDeviceNameLen
)

// MaxDeviceNameLen is the longest device name this system carries anywhere:
// on the wire in QueryDeviceByMacResponse, and in the GATT Device
// characteristic. DiscoveredDeviceInfo.Name should be truncated to this
// length as soon as it is built, not just at each encode site.
const MaxDeviceNameLen = 31

// AddrSize is the length in bytes of a BLE address.
const AddrSize = 6
