package emu

// EventType distinguishes between event kinds.
type EventType int

const (
	// EventLine carries one stdout line from the engine.
	EventLine EventType = iota + 1
	// EventExited is the terminal event: the engine process has exited and
	// the artifact has been removed. The channel closes after it.
	EventExited
)

// Event wraps stdout lines and process exit for the run stream.
type Event struct {
	Type EventType
	Line string // set for EventLine
	Code int    // set for EventExited; -1 when killed by signal
	Err  error  // set for EventExited on timeout/failure, nil on clean exit
}
