// Package dispatch is the execution-time contract the host graph uses to run
// one node instance through its adapter.
//
// Each activation walks Idle → Invoking → {Completed, Faulted} exactly once.
// Both end states are terminal: the runtime never retries, and re-invoking a
// node means creating a new activation.
package dispatch

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/vk/graphbridge/internal/adapter"
	"github.com/vk/graphbridge/internal/bridgeerr"
	"github.com/vk/graphbridge/internal/ctxlog"
	"github.com/vk/graphbridge/internal/schema"
)

// State is the lifecycle state of an activation.
type State int32

const (
	// Idle indicates the activation has not started.
	Idle State = iota
	// Invoking indicates the adapter is running.
	Invoking
	// Completed indicates the adapter returned outputs and a successor.
	Completed
	// Faulted indicates the invocation failed.
	Faulted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Invoking:
		return "invoking"
	case Completed:
		return "completed"
	case Faulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// ErrAlreadyActivated is returned when Run is called on an activation that
// has left the Idle state.
var ErrAlreadyActivated = errors.New("activation already started")

// Activation is one execution of one node instance.
type Activation struct {
	spec  *adapter.Specialization
	state atomic.Int32

	// Result is set once the activation completed.
	Result *adapter.Result
	// Err is the fault once the activation faulted.
	Err error
}

// NewActivation creates an idle activation of spec.
func NewActivation(spec *adapter.Specialization) *Activation {
	return &Activation{spec: spec}
}

// State returns the current state.
func (a *Activation) State() State {
	return State(a.state.Load())
}

// Descriptor returns the descriptor of the activated node.
func (a *Activation) Descriptor() *schema.NodeDescriptor {
	return a.spec.Descriptor()
}

// Run invokes the adapter with the given bindings. The returned error is the
// fault, also recorded in Err.
func (a *Activation) Run(ctx context.Context, in adapter.Bindings) error {
	if !a.state.CompareAndSwap(int32(Idle), int32(Invoking)) {
		return ErrAlreadyActivated
	}
	logger := ctxlog.FromContext(ctx).With("node", a.spec.Descriptor().ID)
	logger.Debug("Node activated.", "specialization", a.spec.Key())

	res, err := a.spec.Invoke(ctx, in)
	if err != nil {
		var fault *bridgeerr.DispatchFault
		if !errors.As(err, &fault) {
			err = &bridgeerr.DispatchFault{Descriptor: a.spec.Descriptor().ID, Reason: bridgeerr.FaultInvocationFailed, Err: err}
		}
		a.Err = err
		a.state.Store(int32(Faulted))
		logger.Warn("Node execution faulted.", "error", err)
		return err
	}

	a.Result = res
	a.state.Store(int32(Completed))
	logger.Debug("Node execution completed.", "selected", res.Selected)
	return nil
}

// Successor returns the flow output chosen by a completed activation. It
// reports false for non-flow nodes and for activations that did not complete.
func (a *Activation) Successor() (schema.FlowPortDescriptor, bool) {
	if a.State() != Completed {
		return schema.FlowPortDescriptor{}, false
	}
	succ := a.spec.Descriptor().Successors()
	if a.Result.Selected >= len(succ) {
		return schema.FlowPortDescriptor{}, false
	}
	return succ[a.Result.Selected], true
}

// Runtime activates nodes. It holds no descriptor state of its own.
type Runtime struct{}

// NewRuntime creates a runtime.
func NewRuntime() *Runtime { return &Runtime{} }

// Activate creates an activation of spec and runs it to a terminal state.
func (r *Runtime) Activate(ctx context.Context, spec *adapter.Specialization, in adapter.Bindings) *Activation {
	a := NewActivation(spec)
	_ = a.Run(ctx, in)
	return a
}
