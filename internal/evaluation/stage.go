package evaluation

// Stage of a single evaluation run. Done and Degraded are terminal.
type Stage int

const (
	StageScoring Stage = iota + 1
	StageValidating
	StageDone
	StageDegraded
)

func (s Stage) String() string {
	switch s {
	case StageScoring:
		return "scoring"
	case StageValidating:
		return "validating"
	case StageDone:
		return "done"
	case StageDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}
