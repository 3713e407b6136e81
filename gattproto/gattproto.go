// Package gattproto encodes and decodes the two small protobuf-shaped
// payloads exchanged over the GATT Whitelist and Device characteristics.
// Both messages are tiny (one or two fields) so this talks directly to
// google.golang.org/protobuf's low-level wire primitives instead of
// generating full message types with protoc; there is no .proto
// compilation step in a TinyGo build.
package gattproto

import (
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/user/lora-hr-relay/protocol"
)

const maxNameLen = 31

// Field numbers for the device-info message: { bytes mac = 1; string name = 2; }
const (
	fieldMac  = protowire.Number(1)
	fieldName = protowire.Number(2)
)

// EncodeWhitelist encodes the current paired address as a one-field
// protobuf message. addr == nil encodes an empty message, which decodes
// back to nil (an unpair).
func EncodeWhitelist(addr *protocol.Address) []byte {
	if addr == nil {
		return []byte{}
	}
	var buf []byte
	buf = protowire.AppendTag(buf, fieldMac, protowire.BytesType)
	buf = protowire.AppendBytes(buf, addr[:])
	return buf
}

// DecodeWhitelist decodes a Whitelist characteristic write. An empty
// message (or one with no mac field) decodes to addr=nil, meaning unpair.
func DecodeWhitelist(data []byte) (addr *protocol.Address, ok bool) {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, false
		}
		data = data[n:]

		if num == fieldMac && typ == protowire.BytesType {
			mac, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return nil, false
			}
			data = data[n:]
			if len(mac) != protocol.AddrSize {
				return nil, false
			}
			var a protocol.Address
			copy(a[:], mac)
			return &a, true
		}

		n = protowire.ConsumeFieldValue(num, typ, data)
		if n < 0 {
			return nil, false
		}
		data = data[n:]
	}
	return nil, true
}

// EncodeDevice encodes a discovered device as { bytes mac = 1; string name
// = 2; }, truncating name to maxNameLen bytes. dev == nil encodes an empty
// message.
func EncodeDevice(dev *protocol.DiscoveredDeviceInfo) []byte {
	if dev == nil {
		return []byte{}
	}
	name := dev.Name
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}

	var buf []byte
	buf = protowire.AppendTag(buf, fieldMac, protowire.BytesType)
	buf = protowire.AppendBytes(buf, dev.Addr[:])
	buf = protowire.AppendTag(buf, fieldName, protowire.BytesType)
	buf = protowire.AppendString(buf, name)
	return buf
}

// DecodeDevice decodes a device-info message written to the Device
// characteristic.
func DecodeDevice(data []byte) (dev protocol.DiscoveredDeviceInfo, ok bool) {
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return protocol.DiscoveredDeviceInfo{}, false
		}
		data = data[n:]

		switch {
		case num == fieldMac && typ == protowire.BytesType:
			mac, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return protocol.DiscoveredDeviceInfo{}, false
			}
			if len(mac) == protocol.AddrSize {
				copy(dev.Addr[:], mac)
			}
			data = data[n:]
		case num == fieldName && typ == protowire.BytesType:
			name, n := protowire.ConsumeString(data)
			if n < 0 {
				return protocol.DiscoveredDeviceInfo{}, false
			}
			if len(name) > maxNameLen {
				name = name[:maxNameLen]
			}
			dev.Name = name
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return protocol.DiscoveredDeviceInfo{}, false
			}
			data = data[n:]
		}
	}
	return dev, true
}
