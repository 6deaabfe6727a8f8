package flasher

// State is the tagged variant replacing the original C's function-pointer
// (state, substate) dispatch (spec §9): a plain enum plus a per-state
// handler in gcf.go's package-level handlers table.
type State int

const (
	Void State = iota
	Init
	ResetUart
	ResetFtdi
	ResetRaspBee
	Program
	BootloaderConnect
	BootloaderQuery
	V1ProgramSync
	V1ProgramWriteHeader
	V1ProgramUpload
	V1ProgramValidate
	V3ProgramSync
	V3ProgramUpload
	V3ProgramWaitID
	List
	Connect
	Sniff
	ShutDown
)

func (s State) String() string {
	switch s {
	case Void:
		return "Void"
	case Init:
		return "Init"
	case ResetUart:
		return "ResetUart"
	case ResetFtdi:
		return "ResetFtdi"
	case ResetRaspBee:
		return "ResetRaspBee"
	case Program:
		return "Program"
	case BootloaderConnect:
		return "BootloaderConnect"
	case BootloaderQuery:
		return "BootloaderQuery"
	case V1ProgramSync:
		return "V1ProgramSync"
	case V1ProgramWriteHeader:
		return "V1ProgramWriteHeader"
	case V1ProgramUpload:
		return "V1ProgramUpload"
	case V1ProgramValidate:
		return "V1ProgramValidate"
	case V3ProgramSync:
		return "V3ProgramSync"
	case V3ProgramUpload:
		return "V3ProgramUpload"
	case V3ProgramWaitID:
		return "V3ProgramWaitID"
	case List:
		return "List"
	case Connect:
		return "Connect"
	case Sniff:
		return "Sniff"
	case ShutDown:
		return "ShutDown"
	default:
		return "?"
	}
}
