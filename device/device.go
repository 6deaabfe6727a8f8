// Package device infers which coordinator variant and baud rate to use for
// a given serial device path and firmware file (spec §4.5).
//
// Grounded on original_source/gcf.c's path-substring classifier (the
// ttyACM/ttyUSB/ttyAMA/COM ladder and the file-type refinements applied
// afterwards) and on the teacher repo's adapter/registry.go idiom of a
// small ordered table of matchers rather than a long if/else chain.
package device

import (
	"runtime"

	"github.com/dresden-elektronik/deconz-flasher/sstream"
)

// Variant identifies a coordinator hardware family.
type Variant int

const (
	Unknown Variant = iota
	RaspBeeV1
	RaspBeeV2
	ConBeeV1
	ConBeeV2
	Hive
)

func (v Variant) String() string {
	switch v {
	case RaspBeeV1:
		return "RaspBeeV1"
	case RaspBeeV2:
		return "RaspBeeV2"
	case ConBeeV1:
		return "ConBeeV1"
	case ConBeeV2:
		return "ConBeeV2"
	case Hive:
		return "Hive"
	default:
		return "Unknown"
	}
}

// Baudrate is the serial rate used to talk to a given variant.
type Baudrate int

const (
	BaudUnknown Baudrate = 0
	Baud38400   Baudrate = 38400
	Baud115200  Baudrate = 115200
)

type pathMatch struct {
	substr  string
	variant Variant
	baud    Baudrate
}

// pathTable is the ordered "first match wins" ladder from spec §4.5.
var pathTable = []pathMatch{
	{"ttyACM", ConBeeV2, Baud115200},
	{"ConBee_II", ConBeeV2, Baud115200},
	{"cu.usbmodemDE", ConBeeV2, Baud115200},
	{"ttyUSB", ConBeeV1, Baud38400},
	{"usb-FTDI", ConBeeV1, Baud38400},
	{"cu.usbserial", ConBeeV1, Baud38400},
	{"ttyAMA", RaspBeeV1, Baud38400},
	{"ttyAML", RaspBeeV1, Baud38400}, // Odroid
	{"ttyS", RaspBeeV1, Baud38400},
	{"/serial", RaspBeeV1, Baud38400},
}

// Classify infers (variant, baud) for path given the GCF file's file_type,
// target address and firmware version (the latter only matters for the
// RaspBeeV1 -> RaspBeeV2 downstream upgrade). It is a pure function:
// identical inputs always yield identical output.
func Classify(path string, fileType uint8, targetAddress, fwVersion uint32) (Variant, Baudrate) {
	variant, baud := classifyPath(path, fileType, targetAddress)

	// Post-refinements, applied in the order spec §4.5 lists them.
	if fileType == 60 {
		variant, baud = Hive, Baud115200
	} else if variant == ConBeeV1 && fileType > 9 {
		variant = Unknown
	}
	// RaspBeeV2 classified via COM with file_type in [30..39] keeps
	// RaspBeeV2 as-is; no further action needed.

	if variant == RaspBeeV1 && (fwVersion&0x0000FF00 == 0x00000700 || targetAddress == 0x5000) {
		variant = RaspBeeV2
	}

	if baud == BaudUnknown {
		baud = defaultBaud(variant)
	}

	return variant, baud
}

func classifyPath(path string, fileType uint8, targetAddress uint32) (Variant, Baudrate) {
	for _, m := range pathTable {
		var s sstream.Scanner
		sstream.InitFromString(&s, path)
		if s.Find(m.substr) {
			return m.variant, m.baud
		}
	}

	if runtime.GOOS == "windows" {
		var s sstream.Scanner
		sstream.InitFromString(&s, path)
		if s.Find("COM") {
			switch {
			case fileType == 1 && targetAddress == 0:
				return ConBeeV1, Baud38400
			case fileType < 30 && targetAddress == 0x5000:
				return ConBeeV2, Baud115200
			}
		}
	}

	return Unknown, BaudUnknown
}

func defaultBaud(v Variant) Baudrate {
	switch v {
	case ConBeeV2, Hive:
		return Baud115200
	default:
		return Baud38400
	}
}
