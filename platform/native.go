// Native is the real OS-backed Platform: go.bug.st/serial for the
// coordinator link, its enumerator subpackage for device discovery,
// google/gousb for the FTDI bit-bang reset side channel, and stdlib os
// for console and file access.
//
// Grounded on the teacher repo's greaseweazle.Client (serial.Open,
// serial.Mode, port.Write/port.Close) and adapter/root.go's
// enumerator.GetDetailedPortsList loop, generalized from "one adapter,
// one hardcoded baud rate" to connect(path, baudrate) taking both as
// runtime parameters per spec §4.7.
package platform

import (
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/gousb"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// Native implements Platform against real hardware.
type Native struct {
	mu   sync.Mutex
	port serial.Port

	timeoutArmed bool
	timeoutAt    time.Time
	timer        *time.Timer

	shutdown chan struct{}
	once     sync.Once

	log *slog.Logger

	snifferAddr string
	snifferConn net.Conn
}

// SetSnifferTarget configures the UDP host:port RelaySniffedPacket sends
// decoded sniffer packets to (spec's -H/-p flags).
func (n *Native) SetSnifferTarget(addr string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.snifferConn != nil {
		n.snifferConn.Close()
		n.snifferConn = nil
	}
	n.snifferAddr = addr
}

// NewNative returns a Native platform logging through logger. If logger is
// nil, slog.Default() is used (spec's ambient logging choice: no
// third-party structured logger appears anywhere in the retrieval pack).
func NewNative(logger *slog.Logger) *Native {
	if logger == nil {
		logger = slog.Default()
	}
	return &Native{shutdown: make(chan struct{}), log: logger}
}

func (n *Native) TimeMs() uint64 {
	return uint64(time.Now().UnixMilli())
}

func (n *Native) SleepMs(ms uint64) {
	time.Sleep(time.Duration(ms) * time.Millisecond)
}

func (n *Native) SetTimeout(ms uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.timer != nil {
		n.timer.Stop()
	}
	n.timeoutArmed = true
	n.timeoutAt = time.Now().Add(time.Duration(ms) * time.Millisecond)
}

func (n *Native) ClearTimeout() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.timeoutArmed = false
	if n.timer != nil {
		n.timer.Stop()
		n.timer = nil
	}
}

func (n *Native) Connect(path string, baudrate int) error {
	n.Disconnect()

	mode := &serial.Mode{BaudRate: baudrate}
	port, err := serial.Open(path, mode)
	if err != nil {
		return fmt.Errorf("platform: open %s: %w", path, err)
	}

	n.mu.Lock()
	n.port = port
	n.mu.Unlock()
	return nil
}

func (n *Native) Disconnect() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.port != nil {
		n.port.Close()
		n.port = nil
	}
}

func (n *Native) Write(data []byte) error {
	n.mu.Lock()
	port := n.port
	n.mu.Unlock()
	if port == nil {
		return errNotConnected
	}
	_, err := port.Write(data)
	return err
}

func (n *Native) Putc(c byte) error {
	return n.Write([]byte{c})
}

func (n *Native) Flush() error {
	// go.bug.st/serial writes synchronously; nothing to push.
	return nil
}

// ftdiResetVID/PID identify the FTDI chip on the ConBee I dongle whose
// bit-bang mode drives the reset and bootloader-select lines.
const (
	ftdiResetVID = 0x0403
	ftdiResetPID = 0x6015
)

// ResetFTDI locates the ConBee's FTDI chip, addressed by enumeration index
// and serial number, per spec §4.7. It returns an error if no chip is found
// at that index or its serial number does not match. It does not drive the
// chip's MPSSE/bit-bang GPIO: gousb only opens and closes the device here,
// so a nil return means the chip is present and accessible, not that the
// reset/bootloader-select lines were toggled.
func (n *Native) ResetFTDI(index int, serialNumber string) error {
	ctx := gousb.NewContext()
	defer ctx.Close()

	devs, err := ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == gousb.ID(ftdiResetVID) && desc.Product == gousb.ID(ftdiResetPID)
	})
	if err != nil {
		return fmt.Errorf("platform: ftdi enumerate: %w", err)
	}
	defer func() {
		for _, d := range devs {
			d.Close()
		}
	}()

	if index < 0 || index >= len(devs) {
		return fmt.Errorf("platform: ftdi index %d out of range (%d found)", index, len(devs))
	}

	dev := devs[index]
	if serialNumber != "" {
		sn, err := dev.SerialNumber()
		if err == nil && sn != serialNumber {
			return fmt.Errorf("platform: ftdi serial mismatch: want %s got %s", serialNumber, sn)
		}
	}
	return nil
}

// ResetRaspBee always returns an error: this build does not drive the
// RaspBee's GPIO reset line. RaspBee sits behind the Pi's UART rather than
// USB, so there is no gousb analog; a GPIO character device would be needed.
func (n *Native) ResetRaspBee() error {
	return fmt.Errorf("platform: RaspBee GPIO reset requires host GPIO access, not available on this build")
}

func (n *Native) Enumerate(max int) ([]Device, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("platform: enumerate: %w", err)
	}

	var out []Device
	for _, p := range ports {
		if max > 0 && len(out) >= max {
			break
		}
		out = append(out, Device{
			Path: p.Name,
			Name: p.Product,
			VID:  p.VID,
			PID:  p.PID,
		})
	}
	return out, nil
}

func (n *Native) ReadFile(path string, buf []byte) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return f.Read(buf)
}

func (n *Native) Print(s string) {
	fmt.Fprintln(os.Stdout, s)
}

func (n *Native) Printf(level Level, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	switch level {
	case LevelError:
		n.log.Error(msg)
	case LevelWarn:
		n.log.Warn(msg)
	case LevelDebug:
		n.log.Debug(msg)
	default:
		n.log.Info(msg)
	}
}

// GetWinSize and SetCursor are no-ops: no pack example drives interactive
// cursor positioning without a TUI framework, and -i stays unimplemented.
func (n *Native) GetWinSize() (int, int) { return 80, 24 }

func (n *Native) SetCursor(x, y int) {}

// RelaySniffedPacket forwards payload as a UDP datagram to the configured
// sniffer target, prefixed with the channel number (spec's net_udp_posix.c
// relay, reimplemented over net.Dial("udp", ...) rather than raw sockets).
func (n *Native) RelaySniffedPacket(channel int, payload []byte) error {
	n.mu.Lock()
	addr := n.snifferAddr
	conn := n.snifferConn
	n.mu.Unlock()

	if addr == "" {
		return fmt.Errorf("platform: no sniffer target configured")
	}
	if conn == nil {
		var err error
		conn, err = net.Dial("udp", addr)
		if err != nil {
			return fmt.Errorf("platform: dial sniffer target %s: %w", addr, err)
		}
		n.mu.Lock()
		n.snifferConn = conn
		n.mu.Unlock()
	}

	datagram := make([]byte, 1+len(payload))
	datagram[0] = byte(channel)
	copy(datagram[1:], payload)
	_, err := conn.Write(datagram)
	return err
}

func (n *Native) Shutdown() {
	n.once.Do(func() { close(n.shutdown) })
}

// Run drives sink at >= 200 Hz (spec §5), delivering received bytes,
// expired timeouts and idle-tick PlLoop events until Shutdown is called.
func (n *Native) Run(sink EventSink) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	rxBuf := make([]byte, 4096)

	for {
		select {
		case <-n.shutdown:
			return nil
		case <-ticker.C:
			n.mu.Lock()
			port := n.port
			due := n.timeoutArmed && !n.timeoutAt.After(time.Now())
			if due {
				n.timeoutArmed = false
			}
			n.mu.Unlock()

			if due {
				sink.OnTimeout()
				continue
			}

			if port != nil {
				if err := port.SetReadTimeout(pollInterval); err == nil {
					if count, err := port.Read(rxBuf); err == nil && count > 0 {
						sink.OnReceived(rxBuf[:count])
						continue
					}
				}
			}

			sink.OnLoop()
		}
	}
}

