//go:build !tinygo && !baremetal

// Package simradio implements radio.Driver for host-side tests: a
// software half-duplex transceiver with no hardware I/O.
package simradio

import (
	"sync"

	"github.com/user/lora-hr-relay/radio"
)

// Driver is an in-memory stand-in for the transceiver. Two Drivers can be
// wired together with Connect to simulate a link between two nodes.
type Driver struct {
	mu     sync.Mutex
	params radio.Params
	rx     [][]byte
	peer   *Driver

	// FailBegin, when set, makes Begin return radio.ErrHardware once.
	FailBegin bool
	// FailNextTx, when set, makes the next Transmit return radio.ErrTxTimeout.
	FailNextTx bool

	controller *radio.Controller
}

// New returns an unconnected simulated driver.
func New() *Driver {
	return &Driver{}
}

// Connect wires a and b so that a.Transmit delivers to b's receive queue
// and vice versa, mirroring two repeaters within LoRa range of each other.
func Connect(a, b *Driver) {
	a.peer = b
	b.peer = a
}

// AttachController lets the driver signal PacketReceived on the owning
// controller after a simulated receive, mirroring the real ISR.
func (d *Driver) AttachController(c *radio.Controller) {
	d.controller = c
}

func (d *Driver) Begin(p radio.Params) error {
	if d.FailBegin {
		d.FailBegin = false
		return radio.ErrHardware{Cause: errBegin{}}
	}
	d.mu.Lock()
	d.params = p
	d.mu.Unlock()
	return nil
}

func (d *Driver) Standby() error      { return nil }
func (d *Driver) StartReceive() error { return nil }

func (d *Driver) Transmit(buf []byte) error {
	if d.FailNextTx {
		d.FailNextTx = false
		return radio.ErrTxTimeout{}
	}
	if d.peer == nil {
		return nil
	}
	frame := make([]byte, len(buf))
	copy(frame, buf)

	d.peer.mu.Lock()
	d.peer.rx = append(d.peer.rx, frame)
	ctrl := d.peer.controller
	d.peer.mu.Unlock()

	if ctrl != nil {
		ctrl.Signal()
	}
	return nil
}

func (d *Driver) ReceiveInto(buf []byte) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.rx) == 0 {
		return 0
	}
	frame := d.rx[0]
	d.rx = d.rx[1:]
	n := copy(buf, frame)
	return n
}

type errBegin struct{}

func (errBegin) Error() string { return "simulated begin failure" }
