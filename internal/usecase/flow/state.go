package flow

import (
	"fmt"

	"github.com/futig/joke-flows/internal/entity"
)

type State int

const (
	StateReceived State = iota
	StateContextGathering
	StateGenerating
	StateCompleted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateReceived:
		return "received"
	case StateContextGathering:
		return "context_gathering"
	case StateGenerating:
		return "generating"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var transitions = map[State][]State{
	StateReceived:         {StateContextGathering, StateGenerating, StateFailed},
	StateContextGathering: {StateGenerating, StateFailed},
	StateGenerating:       {StateCompleted, StateFailed},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Execution records one run of a flow
type Execution struct {
	Flow      string
	State     State
	History   []State
	Context   entity.RetrievalResult
	ToolCalls []entity.ToolCall
	Rounds    int
	Output    string
	Err       error
}

func newExecution(flow string) *Execution {
	return &Execution{
		Flow:    flow,
		State:   StateReceived,
		History: []State{StateReceived},
	}
}

func (e *Execution) to(s State) {
	if !canTransition(e.State, s) {
		panic(fmt.Sprintf("flow %s: illegal transition %s -> %s", e.Flow, e.State, s))
	}
	e.State = s
	e.History = append(e.History, s)
}

func (e *Execution) fail(err error) *Execution {
	e.Err = err
	e.to(StateFailed)
	return e
}

func (e *Execution) complete(text string) *Execution {
	e.Output = text
	e.to(StateCompleted)
	return e
}
