// USB vendor/product enumeration, used only as a fallback when a serial
// device path itself carries no recognisable substring (spec §4.5 notes the
// classifier "may fall back to platform-specific enumeration"). Most hosts
// never need this: the tty path alone is almost always enough.
//
// Grounded on the teacher pack's use of google/gousb in
// guiperry-HASHER/internal/driver/device/usb_device.go (context/device
// open, descriptor read, close ordering) — the chip-mining command set
// there is irrelevant, only the enumeration shape is reused.
package device

import (
	"fmt"

	"github.com/google/gousb"
)

// Known USB vendor/product IDs for the coordinator families this flasher
// targets. RaspBee boards have no USB identity of their own (they sit on
// the Pi's UART); only the ConBee sticks enumerate over USB.
var usbIDTable = []struct {
	vid, pid gousb.ID
	variant  Variant
	baud     Baudrate
}{
	{0x1cf1, 0x0030, ConBeeV2, Baud115200}, // dresden elektronik ConBee II
	{0x0403, 0x6015, ConBeeV1, Baud38400},  // FTDI FT230X, ConBee I
}

// USBHint enumerates attached USB devices and returns a (variant, baud)
// guess based on vendor/product ID, for use when path-based classification
// returns Unknown. The returned ok is false if no recognised device is
// attached or the USB subsystem can't be opened (e.g. no libusb present).
func USBHint() (variant Variant, baud Baudrate, ok bool) {
	ctx := gousb.NewContext()
	defer ctx.Close()

	for _, entry := range usbIDTable {
		dev, err := ctx.OpenDeviceWithVIDPID(entry.vid, entry.pid)
		if err != nil || dev == nil {
			continue
		}
		dev.Close()
		return entry.variant, entry.baud, true
	}
	return Unknown, BaudUnknown, false
}

// USBHintDescription renders a human-readable "usb vid:pid" tag for
// diagnostic output (spec §6, -l / list mode) identifying which entry of
// usbIDTable matched variant.
func USBHintDescription(variant Variant) string {
	for _, entry := range usbIDTable {
		if entry.variant == variant {
			return fmt.Sprintf("usb %04x:%04x", uint16(entry.vid), uint16(entry.pid))
		}
	}
	return "usb ????:????"
}
