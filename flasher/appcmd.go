package flasher

// Application-mode command byte sequences (spec §6). These are sent
// through the same frame codec as bootloader traffic but are not prefixed
// with the bootloader's 0x81 magic — they address the host command
// channel of firmware that is still running its application, not its
// bootloader.

// watchdogResetCmd requests the device's application firmware reboot into
// its bootloader via a watchdog-timeout write-parameter command.
func watchdogResetCmd() []byte {
	return []byte{0x0B, 0x03, 0x00, 0x0C, 0x00, 0x05, 0x00, 0x26, 0x02, 0x00, 0x00, 0x00}
}

// isWatchdogResetAck reports whether packet is the write-parameter
// response confirming the watchdog-reset parameter (id 0x26) was
// accepted; Gcf.OnReceived dispatches such a packet as UartResetPackage.
func isWatchdogResetAck(packet []byte) bool {
	return len(packet) >= 8 && packet[0] == 0x0B && packet[7] == 0x26
}

// queryStatusCmd builds a "query status" diagnostic command (spec §6),
// used during -c connect mode.
func queryStatusCmd(seq byte) []byte {
	return []byte{0x07, seq, 0x00, 0x08, 0x00, 0x00, 0x00, 0x00}
}

// queryFirmwareVersionCmd builds a "query firmware version" diagnostic
// command, used during -c connect mode.
func queryFirmwareVersionCmd() []byte {
	return []byte{0x0D, 0x05, 0x00, 0x09, 0x00, 0x00, 0x00, 0x00, 0x00}
}
