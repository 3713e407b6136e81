// Package gattserver implements the GATT-server adapter (C5): the local
// peripheral role exposing HR-echo, whitelist-control and discovered-device
// characteristics under the standard Heart Rate service.
package gattserver

import (
	"log"

	"tinygo.org/x/bluetooth"

	"github.com/user/lora-hr-relay/gattproto"
	"github.com/user/lora-hr-relay/protocol"
)

var logger = log.New(log.Writer(), "[gatt] ", log.LstdFlags)

// AdvertisedName is this node's advertised local name.
const AdvertisedName = "LoRA-Adapter"

var (
	serviceUUID   = bluetooth.New16BitUUID(0x180d)
	hrEchoUUID    = bluetooth.New16BitUUID(0x2a37)
	whitelistUUID = mustUUID("048b8928-d0a5-43e2-ada9-b925ec62ba27")
	deviceUUID    = mustUUID("12a481f0-9384-413d-b002-f8660566d3b0")
)

func mustUUID(s string) bluetooth.UUID {
	u, err := bluetooth.ParseUUID(s)
	if err != nil {
		panic(err)
	}
	return u
}

// Callbacks consumed by the relay orchestrator, set before Start.
type Callbacks struct {
	// OnAddress fires when the whitelist characteristic is written.
	// addr == nil means the client asked to unpair.
	OnAddress func(addr *protocol.Address)
}

// Server owns the local BLE peripheral role.
type Server struct {
	adapter *bluetooth.Adapter
	cb      Callbacks

	hrEcho    bluetooth.Characteristic
	whitelist bluetooth.Characteristic
	device    bluetooth.Characteristic
}

// New wires a Server to adapter. Start must be called once to advertise
// and register the service.
func New(adapter *bluetooth.Adapter, cb Callbacks) *Server {
	return &Server{adapter: adapter, cb: cb}
}

// Start advertises AdvertisedName and registers the Heart Rate service
// with its three characteristics.
func (s *Server) Start() error {
	adv := s.adapter.DefaultAdvertisement()
	if err := adv.Configure(bluetooth.AdvertisementOptions{
		LocalName:    AdvertisedName,
		ServiceUUIDs: []bluetooth.UUID{serviceUUID},
	}); err != nil {
		return err
	}

	if err := s.adapter.AddService(&bluetooth.Service{
		UUID: serviceUUID,
		Characteristics: []bluetooth.CharacteristicConfig{
			{
				Handle: &s.hrEcho,
				UUID:   hrEchoUUID,
				Value:  []byte{0, 0},
				Flags:  bluetooth.CharacteristicReadPermission | bluetooth.CharacteristicNotifyPermission,
			},
			{
				Handle: &s.whitelist,
				UUID:   whitelistUUID,
				Value:  gattproto.EncodeWhitelist(nil),
				Flags: bluetooth.CharacteristicReadPermission |
					bluetooth.CharacteristicWritePermission |
					bluetooth.CharacteristicNotifyPermission,
				WriteEvent: s.onWhitelistWrite,
			},
			{
				Handle: &s.device,
				UUID:   deviceUUID,
				Value:  gattproto.EncodeDevice(nil),
				Flags:  bluetooth.CharacteristicReadPermission | bluetooth.CharacteristicNotifyPermission,
			},
		},
	}); err != nil {
		return err
	}

	return adv.Start()
}

func (s *Server) onWhitelistWrite(_ bluetooth.Connection, offset int, value []byte) {
	if offset != 0 {
		return
	}
	addr, ok := gattproto.DecodeWhitelist(value)
	if !ok {
		logger.Printf("malformed whitelist write, dropping")
		return
	}
	if s.cb.OnAddress != nil {
		s.cb.OnAddress(addr)
	}
}

// PublishHR writes the raw Heart Rate Measurement payload to the HR-echo
// characteristic and notifies subscribers.
func (s *Server) PublishHR(raw []byte) {
	if _, err := s.hrEcho.Write(raw); err != nil {
		logger.Printf("publish hr: %v", err)
	}
}

// PublishWhitelist updates the whitelist characteristic to reflect the
// current paired address (nil means unpaired) and notifies subscribers.
func (s *Server) PublishWhitelist(addr *protocol.Address) {
	if _, err := s.whitelist.Write(gattproto.EncodeWhitelist(addr)); err != nil {
		logger.Printf("publish whitelist: %v", err)
	}
}

// PublishDevice updates the device-info characteristic and notifies
// subscribers. dev == nil clears it.
func (s *Server) PublishDevice(dev *protocol.DiscoveredDeviceInfo) {
	if _, err := s.device.Write(gattproto.EncodeDevice(dev)); err != nil {
		logger.Printf("publish device: %v", err)
	}
}
