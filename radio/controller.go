package radio

import (
	"log"
	"sync"
)

// State is one of the three half-duplex radio states.
type State int

const (
	Idle State = iota
	Receiving
	Transmitting
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Receiving:
		return "Receiving"
	case Transmitting:
		return "Transmitting"
	default:
		return "Unknown"
	}
}

var logger = log.New(log.Writer(), "[radio] ", log.LstdFlags)

// Controller owns the half-duplex LoRa transceiver. Every method that
// touches the radio serializes on a single mutex, matching the source
// design's rule that only one task ever drives the radio; the mutex
// covers the case where a callback context races the relay task.
//
// PacketReceived is a capacity-1 signal fed by the driver's ISR-equivalent
// hook. A non-blocking send from that hook and a blocking receive from
// the relay task give the same semantics as the 1-bit event-group signal
// the source design calls for, without a lock on the send side.
type Controller struct {
	mu     sync.Mutex
	driver Driver
	state  State

	PacketReceived chan struct{}
}

// NewController wires a Controller to driver. The returned controller
// starts in Idle; call Begin then StartReceive to arm reception.
func NewController(driver Driver) *Controller {
	return &Controller{
		driver:         driver,
		state:          Idle,
		PacketReceived: make(chan struct{}, 1),
	}
}

// Signal is the ISR-side hook: it must never block and never allocate.
// Call it from the driver's packet-received interrupt handler.
func (c *Controller) Signal() {
	select {
	case c.PacketReceived <- struct{}{}:
	default:
	}
}

// Begin configures the transceiver with p. On failure the caller's policy
// is to delay and reboot (see cmd/repeater).
func (c *Controller) Begin(p Params) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.driver.Begin(p)
}

// Standby transitions the radio to Idle unconditionally.
func (c *Controller) Standby() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.driver.Standby(); err != nil {
		return err
	}
	c.state = Idle
	return nil
}

// StartReceive arms continuous receive and transitions Idle -> Receiving.
func (c *Controller) StartReceive() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.driver.StartReceive(); err != nil {
		return err
	}
	c.state = Receiving
	return nil
}

// State reports the controller's current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// TryTransmit sends buf. It requires the current state to be Idle or
// Receiving, pauses receive, transitions through Transmitting for the
// duration of the send, then always attempts to re-arm Receiving before
// returning, whether the send succeeded, timed out, or hit a hardware
// error. Transmit errors are logged and returned; the radio is left in
// Idle only when re-arming receive itself fails.
func (c *Controller) TryTransmit(buf []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == Transmitting {
		// c.mu is held for the whole transmit, so this is unreachable;
		// guard it anyway rather than double-key the radio.
		return ErrTxTimeout{}
	}

	// Pause receive before driving the transceiver for TX: on real
	// hardware StartReceive runs a background poll loop against the same
	// SPI bus, and it must be fully stopped before Transmit touches the
	// device, or the two calls race on the wire.
	if err := c.driver.Standby(); err != nil {
		logger.Printf("standby before transmit: %v", err)
	}

	c.state = Transmitting
	err := c.driver.Transmit(buf)

	switch err.(type) {
	case nil:
		// fall through to re-arm below
	case ErrTxTimeout:
		logger.Printf("tx timeout, returning to receive")
	default:
		if err != nil {
			logger.Printf("hardware error on transmit: %v, attempting to return to receive", err)
			if rerr := c.driver.StartReceive(); rerr != nil {
				c.state = Idle
				return err
			}
			c.state = Receiving
			return err
		}
	}

	if rerr := c.driver.StartReceive(); rerr != nil {
		c.state = Idle
		return rerr
	}
	c.state = Receiving
	return err
}

// ReceiveInto copies the pending packet into buf and returns its length,
// 0 if none is pending. It does not change state; the radio remains in
// Receiving continuously between transmits.
func (c *Controller) ReceiveInto(buf []byte) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.driver.ReceiveInto(buf)
}
