package platform

import (
	"errors"
	"fmt"
)

// Mock is an in-memory Platform for driving the flasher's state machine
// from tests without real hardware. Time and timers are stepped explicitly
// by the test via Advance/TimerDue; there is no background goroutine.
//
// Grounded on the facade-plus-fake pairing implied by the teacher's
// FloppyAdapter interface (adapter/adapter.go), generalized to a fully
// scriptable fake since this spec's core has no per-command cobra handler
// to exercise it through — only direct unit tests do.
type Mock struct {
	now uint64

	timeoutArmed bool
	timeoutAt    uint64

	connected bool
	path      string
	baudrate  int

	// Written holds every byte flushed to the wire, in order.
	Written []byte
	// pending accumulates bytes queued by Write/Putc since the last Flush.
	pending []byte
	// Flushes counts completed Flush calls.
	Flushes int

	// Devices is returned by Enumerate.
	Devices []Device

	// Files lets tests stage file contents returned by ReadFile.
	Files map[string][]byte

	// Log accumulates Print/Printf output, most recent last.
	Log []string

	// ResetFTDICalls and ResetRaspBeeCalls record invocation counts.
	ResetFTDICalls    int
	ResetRaspBeeCalls int

	// ShutdownRequested is set once Shutdown is called.
	ShutdownRequested bool

	// Relayed records every packet passed to RelaySniffedPacket.
	Relayed [][]byte

	// FailConnect, when non-nil, is returned by the next Connect call.
	FailConnect error
}

// NewMock returns a ready-to-use Mock with an empty file table.
func NewMock() *Mock {
	return &Mock{Files: map[string][]byte{}}
}

func (m *Mock) TimeMs() uint64 { return m.now }

// Advance moves the mock clock forward by ms milliseconds. It does not by
// itself fire the timer; the caller inspects TimerDue and dispatches the
// timeout itself, mirroring that the real platform delivers OnTimeout as an
// event, not a clock side effect.
func (m *Mock) Advance(ms uint64) { m.now += ms }

func (m *Mock) SleepMs(ms uint64) { m.now += ms }

func (m *Mock) SetTimeout(ms uint64) {
	m.timeoutArmed = true
	m.timeoutAt = m.now + ms
}

func (m *Mock) ClearTimeout() {
	m.timeoutArmed = false
}

// TimerDue reports whether a timer is armed and its deadline has passed.
func (m *Mock) TimerDue() bool {
	return m.timeoutArmed && m.now >= m.timeoutAt
}

func (m *Mock) Connect(path string, baudrate int) error {
	if m.FailConnect != nil {
		err := m.FailConnect
		m.FailConnect = nil
		return err
	}
	m.connected = true
	m.path = path
	m.baudrate = baudrate
	return nil
}

func (m *Mock) Disconnect() {
	m.connected = false
}

// Connected reports whether Connect has succeeded without a matching
// Disconnect, and the most recently connected path/baudrate.
func (m *Mock) Connected() (bool, string, int) {
	return m.connected, m.path, m.baudrate
}

var errNotConnected = errors.New("platform: not connected")

func (m *Mock) Write(data []byte) error {
	if !m.connected {
		return errNotConnected
	}
	m.pending = append(m.pending, data...)
	return nil
}

func (m *Mock) Putc(c byte) error {
	return m.Write([]byte{c})
}

func (m *Mock) Flush() error {
	if !m.connected {
		return errNotConnected
	}
	m.Written = append(m.Written, m.pending...)
	m.pending = m.pending[:0]
	m.Flushes++
	return nil
}

func (m *Mock) ResetFTDI(index int, serial string) error {
	m.ResetFTDICalls++
	return nil
}

func (m *Mock) ResetRaspBee() error {
	m.ResetRaspBeeCalls++
	return nil
}

func (m *Mock) Enumerate(max int) ([]Device, error) {
	if max > 0 && len(m.Devices) > max {
		return m.Devices[:max], nil
	}
	return m.Devices, nil
}

func (m *Mock) ReadFile(path string, buf []byte) (int, error) {
	content, ok := m.Files[path]
	if !ok {
		return 0, fmt.Errorf("platform: no such file %q", path)
	}
	n := copy(buf, content)
	return n, nil
}

func (m *Mock) Print(s string) {
	m.Log = append(m.Log, s)
}

func (m *Mock) Printf(level Level, format string, args ...any) {
	m.Log = append(m.Log, fmt.Sprintf("[%s] %s", level, fmt.Sprintf(format, args...)))
}

func (m *Mock) GetWinSize() (int, int) { return 80, 24 }

func (m *Mock) SetCursor(x, y int) {}

func (m *Mock) RelaySniffedPacket(channel int, payload []byte) error {
	m.Relayed = append(m.Relayed, append([]byte(nil), payload...))
	return nil
}

func (m *Mock) Shutdown() {
	m.ShutdownRequested = true
}

// Run is not used by flasher unit tests, which drive events directly; it
// exists only to satisfy Platform.
func (m *Mock) Run(sink EventSink) error {
	return nil
}

// Deliver feeds data into sink.OnReceived, simulating bytes arriving on the
// wire. The Mock keeps no record of delivered bytes; a test inspects their
// effect through the sink's own state.
func (m *Mock) Deliver(sink EventSink, data []byte) {
	sink.OnReceived(data)
}
