// Package driver owns everything pkg/stepper deliberately refuses to:
// allocating and writing memory, pushing and popping scopes, maintaining
// the call-frame stack a return sentinel unwinds into, and deciding when
// to stop. It is the only package that ever calls stepper.Step.
package driver

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/persistent-c/persistent-c-go/pkg/ast"
	"github.com/persistent-c/persistent-c-go/pkg/cmemory"
	"github.com/persistent-c/persistent-c-go/pkg/cvalue"
	"github.com/persistent-c/persistent-c-go/pkg/stepper"
)

// frame records what to restore when a function's return sentinel is
// reached: the scope active just before the call, and where to resume
// (nil for the outermost frame, meaning the run is over).
type frame struct {
	returnCont *stepper.Control
	priorScope *stepper.Scope
}

// Session drives one program run to completion (or to its step limit),
// applying every effect a Step call requests in order.
type Session struct {
	mem     *cmemory.Memory
	state   *stepper.State
	control *stepper.Control
	frames  []frame

	steps int
	limit int

	log    zerolog.Logger
	trace  bool
	traced []stepper.Effect

	breakpoints map[string]bool
}

// New builds a session ready to run the program's "main" entry point.
// functions are the program's top-level FunctionDecl nodes (Attrs.Name
// set to the function's name); builtins are merged into the same global
// name table. memSize bounds the backing arena.
func New(functions []*ast.Node, builtins map[string]stepper.BuiltinFunc, memSize int, cfg SessionConfig, log zerolog.Logger) (*Session, error) {
	globals, err := buildGlobalMap(functions, builtins)
	if err != nil {
		return nil, err
	}
	main, found := globals["main"]
	if !found || main.Value == nil {
		return nil, fmt.Errorf("driver: program defines no main function")
	}
	mainFn, ok := main.Value.(stepper.FunctionValue)
	if !ok {
		return nil, fmt.Errorf("driver: main is not a function")
	}
	body := mainFn.Node.Child(1)
	if body == nil {
		return nil, fmt.Errorf("driver: main has no body")
	}

	mem := cmemory.New(memSize)
	state := &stepper.State{
		Memory:    &memoryAdapter{mem: mem},
		Scope:     stepper.NewScope(stepper.ScopeFunction, nil),
		GlobalMap: globals,
	}

	s := &Session{
		mem:     mem,
		state:   state,
		control: stepper.Enter(body, stepper.Return(), stepper.ModeValue, stepper.SeqStmt),
		frames:  []frame{{returnCont: nil, priorScope: nil}},
		limit:   cfg.StepLimit,
		log:     log,
		trace:   cfg.Trace,
	}
	return s, nil
}

// Run steps the program to completion, returning main's result (or the
// void value, represented as nil, if it fell off the end without an
// explicit return).
func (s *Session) Run() (cvalue.Value, error) {
	for {
		if s.control.IsReturn {
			top := s.frames[len(s.frames)-1]
			s.frames = s.frames[:len(s.frames)-1]
			s.state.Scope = top.priorScope
			if top.returnCont == nil {
				return s.state.Result, nil
			}
			s.control = top.returnCont
			continue
		}

		if s.limit > 0 && s.steps >= s.limit {
			err := fmt.Errorf("driver: exceeded step limit of %d", s.limit)
			s.log.Error().Err(err).Int("step", s.steps).Msg("session stopped")
			return nil, err
		}

		result := stepper.Step(s.state, s.control)
		s.steps++
		if result.Err != nil {
			err := fmt.Errorf("driver: step %d: %w", s.steps, result.Err)
			s.log.Error().Err(err).Int("step", s.steps).Msg("session stopped")
			return nil, err
		}

		for _, eff := range result.Effects {
			if err := s.apply(eff); err != nil {
				wrapped := fmt.Errorf("driver: step %d: %w", s.steps, err)
				s.log.Error().Err(wrapped).Int("step", s.steps).Msg("session stopped")
				return nil, wrapped
			}
		}

		s.state.Result = result.Result
		s.control = result.Control
	}
}

// Step advances exactly one stepper.Step call and applies its effects,
// for a REPL driving the session one node at a time. It reports whether
// the run has finished.
func (s *Session) Step() (done bool, err error) {
	if s.control.IsReturn {
		top := s.frames[len(s.frames)-1]
		s.frames = s.frames[:len(s.frames)-1]
		s.state.Scope = top.priorScope
		if top.returnCont == nil {
			return true, nil
		}
		s.control = top.returnCont
		return false, nil
	}
	if s.limit > 0 && s.steps >= s.limit {
		err := fmt.Errorf("driver: exceeded step limit of %d", s.limit)
		s.log.Error().Err(err).Int("step", s.steps).Msg("session stopped")
		return true, err
	}
	result := stepper.Step(s.state, s.control)
	s.steps++
	if result.Err != nil {
		err := fmt.Errorf("driver: step %d: %w", s.steps, result.Err)
		s.log.Error().Err(err).Int("step", s.steps).Msg("session stopped")
		return true, err
	}
	for _, eff := range result.Effects {
		if err := s.apply(eff); err != nil {
			wrapped := fmt.Errorf("driver: step %d: %w", s.steps, err)
			s.log.Error().Err(wrapped).Int("step", s.steps).Msg("session stopped")
			return true, wrapped
		}
	}
	s.state.Result = result.Result
	s.control = result.Control
	return false, nil
}

// Result is the most recently produced value, for a REPL's "print" command.
func (s *Session) Result() cvalue.Value { return s.state.Result }

// StepCount reports how many stepper.Step calls have run so far.
func (s *Session) StepCount() int { return s.steps }

// Trace returns every effect applied so far, when the session was built
// with Trace enabled. Used by tests asserting effect ordering.
func (s *Session) Trace() []stepper.Effect { return s.traced }

// CurrentNodeID identifies the AST node the next Step call will dispatch
// on, as a stable string a REPL user can pass back to SetBreakpoint. It
// is empty once the run has finished.
func (s *Session) CurrentNodeID() string {
	if s.control == nil || s.control.IsReturn || s.control.Node == nil {
		return ""
	}
	return fmt.Sprintf("%p", s.control.Node)
}

// SetBreakpoint marks a node id (as reported by CurrentNodeID) so Continue
// stops just before dispatching on it again.
func (s *Session) SetBreakpoint(id string) {
	if s.breakpoints == nil {
		s.breakpoints = make(map[string]bool)
	}
	s.breakpoints[id] = true
}

// ClearBreakpoint removes a previously set breakpoint.
func (s *Session) ClearBreakpoint(id string) {
	delete(s.breakpoints, id)
}

// Continue steps the program until it finishes or the current node hits a
// breakpoint, whichever comes first. It always takes at least one step,
// so re-issuing continue from a breakpoint moves past it rather than
// stopping on the spot.
func (s *Session) Continue() (done bool, err error) {
	first := true
	for {
		if !first {
			if id := s.CurrentNodeID(); id != "" && s.breakpoints[id] {
				return false, nil
			}
		}
		first = false
		done, err = s.Step()
		if err != nil || done {
			return done, err
		}
	}
}

// Evaluate runs a side-effect-free expression node to completion against
// the session's current scope and memory, for a REPL's "print <expr-path>"
// command. It refuses to step through a call: an expression path may
// name and dereference variables, but it may not invoke a function.
func (s *Session) Evaluate(node *ast.Node) (cvalue.Value, error) {
	control := stepper.Enter(node, stepper.Return(), stepper.ModeValue, stepper.SeqExpr)
	for {
		result := stepper.Step(s.state, control)
		if result.Err != nil {
			return nil, result.Err
		}
		for _, eff := range result.Effects {
			if eff.Kind == stepper.EffectCall {
				return nil, fmt.Errorf("driver: expression path may not call a function")
			}
			if err := s.apply(eff); err != nil {
				return nil, err
			}
		}
		control = result.Control
		if control.IsReturn {
			return result.Result, nil
		}
	}
}
