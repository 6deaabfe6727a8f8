// Command gcfflasher programs GCF firmware onto dresden elektronik
// RaspBee/ConBee/Hive Zigbee coordinators. See the cmd package for the
// flag surface (spec §6) and the flasher package for the flashing engine.
package main

import (
	"os"

	"github.com/dresden-elektronik/deconz-flasher/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
