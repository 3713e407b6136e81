// Command repeater is the firmware entrypoint: it wires the radio
// controller, persistent config, scan manager, GATT server and relay
// orchestrator together and starts them in the order the startup
// sequence requires.
package main

import (
	"log"
	"time"

	"github.com/user/lora-hr-relay/config"
	"github.com/user/lora-hr-relay/gattserver"
	"github.com/user/lora-hr-relay/platform"
	"github.com/user/lora-hr-relay/radio"
	"github.com/user/lora-hr-relay/relay"
	"github.com/user/lora-hr-relay/scan"
)

var logger = log.New(log.Writer(), "[main] ", log.LstdFlags)

func main() {
	// 1. Initialize persistent store.
	store := config.New(platform.NewKVStore())
	if err := store.Init(); err != nil {
		logger.Fatalf("init persistent store: %v", err)
	}

	// 2. Initialize radio; a boot failure is fatal per the HwRadioError
	// policy at boot: delay and reboot rather than run without a radio.
	radioDriver := platform.NewRadioDriver()
	radioCtrl := radio.NewController(radioDriver)
	if a, ok := radioDriver.(interface {
		AttachController(*radio.Controller)
	}); ok {
		a.AttachController(radioCtrl)
	}
	if err := radioCtrl.Begin(radio.DefaultParams); err != nil {
		logger.Printf("radio begin failed: %v, rebooting in 1s", err)
		time.Sleep(1 * time.Second)
		platform.Reboot()
		return
	}

	// 3. Initialize the BLE stack (one adapter serves both the central
	// and peripheral roles), create the scan manager, and read this
	// node's own address for QueryDeviceByMac responses.
	central := platform.NewCentral()
	scanMgr := scan.NewManager(central)

	localAddr, err := central.LocalAddr()
	if err != nil {
		logger.Printf("read local BLE address: %v", err)
	}

	r := relay.New(radioCtrl, store, scanMgr, localAddr)

	gatt := gattserver.New(central.Raw(), gattserver.Callbacks{
		OnAddress: r.OnWhitelistWrite,
	})
	r.AttachGatt(gatt)

	r.LoadPersisted()

	// 4. Start GATT server, then scan manager, then advertising (Start
	// on the GATT server both registers services and starts advertising).
	if err := gatt.Start(); err != nil {
		logger.Fatalf("start gatt server: %v", err)
	}
	scanMgr.StartScanningTask()

	// 5. Arm reception; the packet-received hook lives inside the radio
	// driver and signals radioCtrl.PacketReceived non-blockingly.
	if err := radioCtrl.StartReceive(); err != nil {
		logger.Printf("start receive: %v", err)
	}

	// 6. Publish the initial device-info snapshot if we already have a
	// paired target restored from persistent storage.
	if dev := scanMgr.GetDevice(); dev != nil {
		gatt.PublishDevice(dev)
	}
	if addr := scanMgr.GetTargetAddr(); addr != nil {
		gatt.PublishWhitelist(addr)
	}

	// Spawn the LoRa receive task, then block main forever; the relay
	// task and the scan task do all further work.
	go r.ReceiveLoop()

	logger.Printf("repeater running, local address %s", localAddr)
	select {}
}
