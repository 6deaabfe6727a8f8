package flasher

import "github.com/dresden-elektronik/deconz-flasher/device"

// bootloaderQueryMaxAttempts bounds the probe loop (spec §4.6 step 1/"up to
// 3 attempts").
const bootloaderQueryMaxAttempts = 3

// usesV3 reports whether variant (given the firmware file_type being
// flashed) speaks bootloader V3 rather than V1 (spec §4.6's header:
// "ConBeeV2 firmware >= 30, RaspBeeV2, Hive" vs "ConBeeV1, RaspBeeV1,
// ConBeeV2 firmware <= 29").
func usesV3(variant device.Variant, fileType uint8) bool {
	switch variant {
	case device.RaspBeeV2, device.Hive:
		return true
	case device.ConBeeV2:
		return fileType >= 30
	default:
		return false
	}
}

// handleBootloaderQuery waits for the device's bootloader to identify
// itself, either by an unsolicited V1 ASCII "Bootloader" banner or a V3
// ID_RESPONSE frame, probing for either every 200ms up to 3 attempts
// before giving up (spec §4.6 step 1, and the V3 table's BootloaderQuery
// paragraph).
func handleBootloaderQuery(g *Gcf, ev Event) {
	switch ev.Kind {
	case AsciiReceived:
		if g.ascii.contains("Bootloader") {
			g.plat.ClearTimeout()
			beginV1Sync(g)
		}
	case BootloaderPacketReceived:
		if _, _, ok := v3ParseIDResponse(ev.Packet); ok {
			g.plat.ClearTimeout()
			beginV3Sync(g)
		}
	case Timeout:
		if g.attempts >= bootloaderQueryMaxAttempts {
			g.retry()
			return
		}
		g.attempts++

		fileType := byte(0)
		if g.file != nil {
			fileType = g.file.FileType
		}
		if usesV3(g.variant, fileType) {
			g.sendFramed(v3IDRequest())
		} else {
			g.plat.Write([]byte("ID"))
			g.plat.Flush()
		}
		g.plat.SetTimeout(200)
	}
}
