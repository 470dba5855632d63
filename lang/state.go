package lang

// State is the engine's execution state.
type State int

const (
	StateRunning State = iota
	StatePaused
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "Running"
	case StatePaused:
		return "Paused"
	case StateTerminated:
		return "Terminated"
	default:
		return "unknown"
	}
}

// Mode selects how the driver is executing the program.
type Mode int

const (
	ModeRun Mode = iota
	ModeDebug
)

func (m Mode) String() string {
	if m == ModeDebug {
		return "Debug"
	}
	return "Run"
}

// Event is something that may change the execution state.
type Event int

const (
	EventProgramEnd   Event = iota // the last frame returned or Program.End ran
	EventPauseRun                  // Program.Pause called in Run mode
	EventPauseDebug                // Program.Pause called in Debug mode
	EventStepBoundary              // a breakpoint or single step reached a statement
	EventResume                    // the driver resumed a paused program
	EventFatal                     // a runtime diagnostic was raised
	EventTerminate                 // the driver stopped the program
)

func (ev Event) String() string {
	switch ev {
	case EventProgramEnd:
		return "ProgramEnd"
	case EventPauseRun:
		return "PauseRun"
	case EventPauseDebug:
		return "PauseDebug"
	case EventStepBoundary:
		return "StepBoundary"
	case EventResume:
		return "Resume"
	case EventFatal:
		return "Fatal"
	case EventTerminate:
		return "Terminate"
	default:
		return "unknown"
	}
}

// PauseEvent returns the event produced by a Pause call in the given mode.
func PauseEvent(mode Mode) Event {
	if mode == ModeDebug {
		return EventPauseDebug
	}
	return EventPauseRun
}

type transition struct {
	from  State
	event Event
}

// transitions lists every state change. Pairs not listed leave the state as
// it is; Terminated has no outgoing entries.
var transitions = map[transition]State{
	{StateRunning, EventProgramEnd}:   StateTerminated,
	{StateRunning, EventPauseRun}:     StateRunning,
	{StateRunning, EventPauseDebug}:   StatePaused,
	{StateRunning, EventStepBoundary}: StatePaused,
	{StateRunning, EventFatal}:        StateTerminated,
	{StateRunning, EventTerminate}:    StateTerminated,

	{StatePaused, EventPauseRun}:   StateRunning,
	{StatePaused, EventPauseDebug}: StateRunning,
	{StatePaused, EventResume}:     StateRunning,
	{StatePaused, EventProgramEnd}: StateTerminated,
	{StatePaused, EventFatal}:      StateTerminated,
	{StatePaused, EventTerminate}:  StateTerminated,
}

// Next returns the state reached from s on ev.
func Next(s State, ev Event) State {
	if next, ok := transitions[transition{s, ev}]; ok {
		return next
	}
	return s
}
