package sandbox

// State describes the sandbox container lifecycle state.
type State uint8

const (
	StateAbsent State = iota
	StateBuilding
	StateRunning
	StateStopped
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StateBuilding:
		return "building"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}
