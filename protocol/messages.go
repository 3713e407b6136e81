package protocol

// A magic-tagged byte codec for the four LoRa frame types: a Marshal(buf)
// int and an Unmarshal(buf) (msg, ok) pair per variant. Frames are fixed
// or length-prefixed, so there is no CRC or terminal byte. Marshal
// returns 0 on a too-small buffer; Unmarshal checks both magic and length
// before decoding.

// HrData carries one heart-rate sample tagged with the sender's name-map
// key. Wire: magic(1) | key(1) | hr(1).
type HrData struct {
	Key byte
	HR  byte
}

// Marshal writes the frame into buf and returns the number of bytes
// written, or 0 if buf is too small.
func (m HrData) Marshal(buf []byte) int {
	if len(buf) < SizeHrData {
		return 0
	}
	buf[0] = MagicHrData
	buf[1] = m.Key
	buf[2] = m.HR
	return SizeHrData
}

// UnmarshalHrData decodes buf into an HrData, or returns ok=false if buf
// is too short or doesn't start with the HrData magic.
func UnmarshalHrData(buf []byte) (m HrData, ok bool) {
	if len(buf) < SizeHrData || buf[0] != MagicHrData {
		return HrData{}, false
	}
	return HrData{Key: buf[1], HR: buf[2]}, true
}

// QueryDeviceByMac asks repeaters whether they are currently paired with
// Addr. Broadcast asks every repeater. Wire: magic(1) | addr(6).
type QueryDeviceByMac struct {
	Addr Address
}

func (m QueryDeviceByMac) Marshal(buf []byte) int {
	if len(buf) < SizeQueryDeviceByMac {
		return 0
	}
	buf[0] = MagicQueryDeviceByMac
	copy(buf[1:1+AddrSize], m.Addr[:])
	return SizeQueryDeviceByMac
}

func UnmarshalQueryDeviceByMac(buf []byte) (m QueryDeviceByMac, ok bool) {
	if len(buf) < SizeQueryDeviceByMac || buf[0] != MagicQueryDeviceByMac {
		return QueryDeviceByMac{}, false
	}
	copy(m.Addr[:], buf[1:1+AddrSize])
	return m, true
}

// DiscoveredDeviceInfo is the {addr, name} pair a repeater reports about
// its currently paired monitor. Name is truncated to maxDeviceNameLen
// bytes before it is ever placed in a DiscoveredDeviceInfo.
type DiscoveredDeviceInfo struct {
	Addr Address
	Name string
}

// QueryDeviceByMacResponse answers a QueryDeviceByMac. Wire:
// magic(1) | repeater_addr(6) | key(1) | device_len(1) | [addr(6) | name(device_len-6)].
// device_len is 0 when Device is nil.
type QueryDeviceByMacResponse struct {
	RepeaterAddr Address
	Key          byte
	Device       *DiscoveredDeviceInfo
}

// Size returns the number of bytes Marshal will need for this value.
func (m QueryDeviceByMacResponse) Size() int {
	if m.Device == nil {
		return sizeQueryResponseBase + 1
	}
	name := truncateName(m.Device.Name)
	return sizeQueryResponseBase + 1 + AddrSize + len(name)
}

func (m QueryDeviceByMacResponse) Marshal(buf []byte) int {
	need := m.Size()
	if len(buf) < need {
		return 0
	}
	buf[0] = MagicQueryDeviceByMacResponse
	copy(buf[1:1+AddrSize], m.RepeaterAddr[:])
	buf[7] = m.Key
	if m.Device == nil {
		buf[8] = 0
		return need
	}
	name := truncateName(m.Device.Name)
	buf[8] = byte(AddrSize + len(name))
	copy(buf[9:9+AddrSize], m.Device.Addr[:])
	copy(buf[9+AddrSize:9+AddrSize+len(name)], name)
	return need
}

func UnmarshalQueryDeviceByMacResponse(buf []byte) (m QueryDeviceByMacResponse, ok bool) {
	if len(buf) < sizeQueryResponseBase+1 || buf[0] != MagicQueryDeviceByMacResponse {
		return QueryDeviceByMacResponse{}, false
	}
	copy(m.RepeaterAddr[:], buf[1:1+AddrSize])
	m.Key = buf[7]
	deviceLen := int(buf[8])
	if deviceLen == 0 {
		return m, true
	}
	if deviceLen < AddrSize {
		return QueryDeviceByMacResponse{}, false
	}
	need := sizeQueryResponseBase + 1 + deviceLen
	if len(buf) < need {
		return QueryDeviceByMacResponse{}, false
	}
	var dev DiscoveredDeviceInfo
	copy(dev.Addr[:], buf[9:9+AddrSize])
	dev.Name = string(buf[9+AddrSize : 9+deviceLen])
	m.Device = &dev
	return m, true
}

// SetNameMapKey tells a repeater which key to tag its HrData frames with.
// Wire: magic(1) | key(1).
type SetNameMapKey struct {
	Key byte
}

func (m SetNameMapKey) Marshal(buf []byte) int {
	if len(buf) < SizeSetNameMapKey {
		return 0
	}
	buf[0] = MagicSetNameMapKey
	buf[1] = m.Key
	return SizeSetNameMapKey
}

func UnmarshalSetNameMapKey(buf []byte) (m SetNameMapKey, ok bool) {
	if len(buf) < SizeSetNameMapKey || buf[0] != MagicSetNameMapKey {
		return SetNameMapKey{}, false
	}
	return SetNameMapKey{Key: buf[1]}, true
}

func truncateName(name string) string {
	if len(name) > maxDeviceNameLen {
		return name[:maxDeviceNameLen]
	}
	return name
}

// UnmarshalAny dispatches on buf[0] and returns one of HrData,
// QueryDeviceByMac, QueryDeviceByMacResponse or SetNameMapKey. ok is false
// for a short buffer or an unrecognized magic.
func UnmarshalAny(buf []byte) (msg any, ok bool) {
	if len(buf) == 0 {
		return nil, false
	}
	switch buf[0] {
	case MagicHrData:
		return UnmarshalHrData(buf)
	case MagicQueryDeviceByMac:
		return UnmarshalQueryDeviceByMac(buf)
	case MagicQueryDeviceByMacResponse:
		return UnmarshalQueryDeviceByMacResponse(buf)
	case MagicSetNameMapKey:
		return UnmarshalSetNameMapKey(buf)
	default:
		return nil, false
	}
}
