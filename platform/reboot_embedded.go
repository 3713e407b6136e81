//go:build tinygo || baremetal

package platform

import "machine"

// Reboot resets the MCU. Used by cmd/repeater when radio.Begin fails at
// boot, per the fatal HwRadioError policy.
func Reboot() {
	machine.CPUReset()
}
