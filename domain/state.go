package domain

// State is a step of the process lifecycle.
type State int

const (
	StateUnstarted State = iota
	StateAnnounced
	StateListening
	StateShuttingDown
	StateStopped
)

var stateNames = map[State]string{
	StateUnstarted:    "UNSTARTED",
	StateAnnounced:    "ANNOUNCED",
	StateListening:    "LISTENING",
	StateShuttingDown: "SHUTTING_DOWN",
	StateStopped:      "STOPPED",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// transitions lists legal next states. UNSTARTED may go straight to LISTENING
// when nothing is announced; any started state may begin shutting down.
var transitions = map[State][]State{
	StateUnstarted:    {StateAnnounced, StateListening, StateShuttingDown},
	StateAnnounced:    {StateListening, StateShuttingDown},
	StateListening:    {StateShuttingDown},
	StateShuttingDown: {StateStopped},
}

// CanTransition reports whether s -> next is allowed.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves s.
func (s State) Terminal() bool {
	return s == StateStopped
}
