package engine

// State 单代执行的状态机状态
type State int

const (
	StateIdle State = iota
	StatePreflushing
	StateDispensing
	StateWaitingGrowth
	StateAnalyzing
	StateRewinding
	StateDone
)

// String 实现fmt.Stringer
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePreflushing:
		return "preflushing"
	case StateDispensing:
		return "dispensing"
	case StateWaitingGrowth:
		return "waiting_growth"
	case StateAnalyzing:
		return "analyzing"
	case StateRewinding:
		return "rewinding"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}
