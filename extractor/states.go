package extractor

// state is one step of the extraction state machine.
type state int

const (
	stateStart state = iota
	stateTier1Failed
	stateTier1Parsed
	stateInsufficiencyCheck
	stateTier2
	stateFinalize
	stateDone
)

func (s state) String() string {
	switch s {
	case stateStart:
		return "start"
	case stateTier1Failed:
		return "tier1_failed"
	case stateTier1Parsed:
		return "tier1_parsed"
	case stateInsufficiencyCheck:
		return "insufficiency_check"
	case stateTier2:
		return "tier2"
	case stateFinalize:
		return "finalize"
	case stateDone:
		return "done"
	default:
		return "unknown"
	}
}
