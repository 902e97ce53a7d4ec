package workflow

// Phase is a step of the per-file selection machine.
type Phase int

const (
	PhaseSearching Phase = iota
	PhaseSelecting
	PhaseResolving
	PhaseResolved
	PhaseUntimed
)

func (p Phase) String() string {
	switch p {
	case PhaseSearching:
		return "searching"
	case PhaseSelecting:
		return "selecting"
	case PhaseResolving:
		return "resolving"
	case PhaseResolved:
		return "resolved"
	case PhaseUntimed:
		return "untimed"
	default:
		return "unknown"
	}
}
