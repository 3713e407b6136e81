// Package relay implements the relay orchestrator (C6): the single
// long-lived coordinator that wires the radio controller, the scan
// manager, persistent config and the GATT server together. It owns the
// HR-notification path, the LoRa-receive path and the whitelist-write
// path described by the component design.
package relay

import (
	"log"
	"sync/atomic"

	"github.com/user/lora-hr-relay/config"
	"github.com/user/lora-hr-relay/protocol"
	"github.com/user/lora-hr-relay/radio"
	"github.com/user/lora-hr-relay/scan"
)

var logger = log.New(log.Writer(), "[relay] ", log.LstdFlags)

// maxFrameSize is large enough for the biggest frame this system emits:
// a QueryDeviceByMacResponse carrying a full 31-byte device name.
const maxFrameSize = 64

// Publisher is the subset of gattserver.Server the orchestrator needs: it
// lets tests exercise the relay without a live BLE peripheral role.
type Publisher interface {
	PublishHR(raw []byte)
	PublishWhitelist(addr *protocol.Address)
	PublishDevice(dev *protocol.DiscoveredDeviceInfo)
}

// Relay is the coordination core (C6). Construct with New, wire OnAddress
// from the GATT server's Callbacks to Relay.OnWhitelistWrite, attach a
// Publisher with AttachGatt, load persisted state with LoadPersisted, and
// run ReceiveLoop on its own goroutine for the process lifetime.
type Relay struct {
	radio   *radio.Controller
	cfg     *config.Store
	scanMgr *scan.Manager
	gatt    Publisher

	localAddr protocol.Address

	// nameMapKey is read from the HR-notification path (scan task
	// context) and written from the LoRa-receive path (relay task
	// context); an atomic holding a byte-range value avoids a lock between
	// them.
	nameMapKey atomic.Uint32
}

// New wires a Relay to its collaborators and installs OnResult/OnData on
// scanMgr. localAddr is this node's own BLE address, used to answer
// QueryDeviceByMac requests addressed to that address.
func New(radioCtrl *radio.Controller, cfg *config.Store, scanMgr *scan.Manager, localAddr protocol.Address) *Relay {
	r := &Relay{
		radio:     radioCtrl,
		cfg:       cfg,
		scanMgr:   scanMgr,
		localAddr: localAddr,
	}
	scanMgr.OnData = r.onHRNotification
	scanMgr.OnResult = r.onScanResult
	scanMgr.OnDisconnect = r.onConfigClientDisconnect
	return r
}

// AttachGatt wires the GATT-server adapter for outgoing publishes. It may
// be called after New, once the server has been constructed with this
// Relay's OnWhitelistWrite as its OnAddress callback.
func (r *Relay) AttachGatt(gatt Publisher) {
	r.gatt = gatt
}

// LoadPersisted restores paired_addr and name_map_key from C2, per the
// startup sequence's step 1. Call once before StartScanningTask.
func (r *Relay) LoadPersisted() {
	if addr, ok := r.cfg.GetAddr(); ok {
		r.scanMgr.SetTargetAddr(&addr)
	}
	r.nameMapKey.Store(uint32(r.cfg.GetNameMapKey()))
}

// onHRNotification implements the HR-notification path: parse the GATT
// Heart Rate Measurement payload, build and transmit an HrData frame, and
// echo the raw bytes to the HR-echo characteristic.
func (r *Relay) onHRNotification(_ protocol.DiscoveredDeviceInfo, data []byte) {
	if len(data) < 2 {
		logger.Printf("HR notification too short (%d bytes), dropping", len(data))
		return
	}

	var hr byte
	if data[0]&0x01 == 0 {
		hr = data[1]
	} else {
		if len(data) < 3 {
			logger.Printf("HR notification claims 16-bit value but is only %d bytes, dropping", len(data))
			return
		}
		v := uint16(data[1]) | uint16(data[2])<<8
		if v > 255 {
			logger.Printf("HR value %d exceeds wire range, clamping to 255", v)
			hr = 255
		} else {
			hr = byte(v)
		}
	}

	msg := protocol.HrData{Key: byte(r.nameMapKey.Load()), HR: hr}
	var buf [protocol.SizeHrData]byte
	n := msg.Marshal(buf[:])
	if n == 0 {
		logger.Printf("HrData marshal returned 0 into a %d-byte buffer", len(buf))
	} else if err := r.radio.TryTransmit(buf[:n]); err != nil {
		logger.Printf("transmit HrData: %v", err)
	}

	if r.gatt != nil {
		r.gatt.PublishHR(data)
	}
}

// onScanResult fires once per transition into Subscribed; it publishes
// the discovered device to the Device characteristic.
func (r *Relay) onScanResult(name string, addr protocol.Address) {
	if r.gatt != nil {
		r.gatt.PublishDevice(&protocol.DiscoveredDeviceInfo{Addr: addr, Name: name})
	}
}

// onConfigClientDisconnect implements the GATT-server adapter's
// on_disconnect callback: the config client (the app that paired us)
// dropping its BLE connection destroys the paired target, exactly like an
// explicit unpair write. The monitor's own disconnect never reaches this
// callback; see scan.Manager.OnDisconnect.
func (r *Relay) onConfigClientDisconnect(protocol.Address) {
	r.OnWhitelistWrite(nil)
}

// OnWhitelistWrite implements the whitelist-write path: it is wired as
// the GATT server's OnAddress callback. addr == nil means unpair.
func (r *Relay) OnWhitelistWrite(addr *protocol.Address) {
	r.scanMgr.SetTargetAddr(addr)

	if addr != nil {
		if err := r.cfg.SetAddr(*addr); err != nil {
			logger.Printf("persist paired address: %v", err)
		}
	} else {
		if err := r.cfg.ClearAddr(); err != nil {
			logger.Printf("persist unpair: %v", err)
		}
	}

	if r.gatt != nil {
		r.gatt.PublishWhitelist(addr)
	}
}

// ReceiveLoop blocks on the radio's packet-received signal and runs the
// LoRa-receive path on each wakeup. It never returns; run it on its own
// goroutine for process lifetime.
func (r *Relay) ReceiveLoop() {
	for range r.radio.PacketReceived {
		r.handleIncoming()
	}
}

// handleIncoming implements the LoRa-receive path.
func (r *Relay) handleIncoming() {
	var buf [maxFrameSize]byte
	n := r.radio.ReceiveInto(buf[:])
	if n == 0 {
		logger.Printf("packet-received signal but no data pending")
		return
	}

	msg, ok := protocol.UnmarshalAny(buf[:n])
	if !ok {
		logger.Printf("unrecognized or malformed LoRa frame, dropping")
		return
	}

	switch m := msg.(type) {
	case protocol.QueryDeviceByMac:
		if !m.Addr.IsBroadcast() && m.Addr != r.localAddr {
			break
		}
		resp := protocol.QueryDeviceByMacResponse{
			RepeaterAddr: r.localAddr,
			Key:          byte(r.nameMapKey.Load()),
			Device:       r.scanMgr.GetDevice(),
		}
		respBuf := make([]byte, resp.Size())
		n := resp.Marshal(respBuf)
		if n == 0 {
			logger.Printf("QueryDeviceByMacResponse marshal returned 0 into a %d-byte buffer", len(respBuf))
			break
		}
		if err := r.radio.TryTransmit(respBuf[:n]); err != nil {
			logger.Printf("transmit query response: %v", err)
		}

	case protocol.SetNameMapKey:
		r.nameMapKey.Store(uint32(m.Key))
		if err := r.cfg.SetNameMapKey(m.Key); err != nil {
			logger.Printf("persist name-map key: %v", err)
		}

	case protocol.HrData, protocol.QueryDeviceByMacResponse:
		// Originated by a peer repeater; nothing for this node to do.

	default:
		logger.Printf("unhandled LoRa message type %T, dropping", m)
	}
}
