//go:build !tinygo && !baremetal

package platform

import "os"

// Reboot has no host equivalent to an MCU reset; it exits the process so
// a supervisor can restart it, mirroring the same fatal policy.
func Reboot() {
	os.Exit(1)
}
