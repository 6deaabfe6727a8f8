package device

import "testing"

func TestClassifyRaspBeeV1(t *testing.T) {
	// spec §8 scenario 5.
	v, b := Classify("/dev/ttyAMA0", 7, 0, 0)
	if v != RaspBeeV1 || b != Baud38400 {
		t.Fatalf("got (%v, %v), want (RaspBeeV1, 38400)", v, b)
	}
}

func TestClassifyRaspBeeV1UpgradesToV2ByTarget(t *testing.T) {
	v, b := Classify("/dev/ttyAMA0", 7, 0x5000, 0)
	if v != RaspBeeV2 || b != Baud38400 {
		t.Fatalf("got (%v, %v), want (RaspBeeV2, 38400)", v, b)
	}
}

func TestClassifyRaspBeeV1UpgradesToV2ByFwVersion(t *testing.T) {
	v, _ := Classify("/dev/ttyAMA0", 7, 0, 0x26720700)
	if v != RaspBeeV2 {
		t.Fatalf("got %v, want RaspBeeV2", v)
	}
}

func TestClassifyConBeeV2(t *testing.T) {
	v, b := Classify("/dev/ttyACM0", 7, 0, 0)
	if v != ConBeeV2 || b != Baud115200 {
		t.Fatalf("got (%v, %v), want (ConBeeV2, 115200)", v, b)
	}
}

func TestClassifyConBeeV2MacPath(t *testing.T) {
	v, _ := Classify("/dev/cu.usbmodemDE1234561", 7, 0, 0)
	if v != ConBeeV2 {
		t.Fatalf("got %v, want ConBeeV2", v)
	}
}

func TestClassifyConBeeV1(t *testing.T) {
	v, b := Classify("/dev/ttyUSB0", 7, 0, 0)
	if v != ConBeeV1 || b != Baud38400 {
		t.Fatalf("got (%v, %v), want (ConBeeV1, 38400)", v, b)
	}
}

func TestClassifyConBeeV1RejectsHighFileType(t *testing.T) {
	v, _ := Classify("/dev/ttyUSB0", 12, 0, 0)
	if v != Unknown {
		t.Fatalf("got %v, want Unknown", v)
	}
}

func TestClassifyHiveOverridesPath(t *testing.T) {
	v, b := Classify("/dev/ttyUSB0", 60, 0, 0)
	if v != Hive || b != Baud115200 {
		t.Fatalf("got (%v, %v), want (Hive, 115200)", v, b)
	}
}

func TestClassifyUnknownPath(t *testing.T) {
	v, b := Classify("/dev/nonsense0", 7, 0, 0)
	if v != Unknown || b != Baud38400 {
		t.Fatalf("got (%v, %v), want (Unknown, 38400 default)", v, b)
	}
}

func TestClassifyDoesNotMutateTableAcrossCalls(t *testing.T) {
	// Regression: classifyPath re-initialises its scanner per table entry,
	// so repeated calls against the same path must be idempotent.
	for i := 0; i < 3; i++ {
		v, b := Classify("/dev/ttyAMA0", 7, 0, 0)
		if v != RaspBeeV1 || b != Baud38400 {
			t.Fatalf("iteration %d: got (%v, %v)", i, v, b)
		}
	}
}
