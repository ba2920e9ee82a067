package jobs

type State string

const (
	StateQueued       State = "queued"
	StateStrategizing State = "strategizing"
	StateGenerating   State = "generating"
	StatePublishing   State = "publishing"
	StateDrafting     State = "drafting"
	StateRecording    State = "recording"
	StateDone         State = "done"
	StateError        State = "error"
)

// transitions holds the allowed successor states for each state. Strategizing
// is optional (social, email and broadcast jobs start generating directly),
// and generating can branch to publishing, drafting or straight to recording
// depending on the automation settings.
var transitions = map[State][]State{
	StateQueued:       {StateStrategizing, StateGenerating, StateError},
	StateStrategizing: {StateGenerating, StateError},
	StateGenerating:   {StatePublishing, StateDrafting, StateRecording, StateError},
	StatePublishing:   {StateRecording, StateError},
	StateDrafting:     {StateRecording, StateError},
	StateRecording:    {StateDone, StateError},
	StateDone:         {},
	StateError:        {},
}

func (s State) CanTransitionTo(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s State) IsTerminal() bool {
	return len(transitions[s]) == 0
}
