package driver

import (
	"fmt"

	"github.com/persistent-c/persistent-c-go/pkg/cmemory"
	"github.com/persistent-c/persistent-c-go/pkg/cvalue"
	"github.com/persistent-c/persistent-c-go/pkg/stepper"
)

// apply performs exactly the state change an effect declares, in the
// session's own scope chain and memory arena, and logs it when tracing
// is enabled.
func (s *Session) apply(eff stepper.Effect) error {
	if s.trace {
		s.traced = append(s.traced, eff)
		event := s.log.Trace().Int("step", s.steps)
		switch eff.Kind {
		case stepper.EffectEnter:
			event.Str("effect", "enter")
		case stepper.EffectLeave:
			event.Str("effect", "leave")
		case stepper.EffectVarDecl:
			event.Str("effect", "vardecl").Str("name", eff.Name)
		case stepper.EffectLoad:
			event.Str("effect", "load")
		case stepper.EffectStore:
			event.Str("effect", "store")
		case stepper.EffectCall:
			event.Str("effect", "call")
		}
		event.Msg("effect applied")
	}

	switch eff.Kind {
	case stepper.EffectEnter:
		s.state.Scope = stepper.NewScope(stepper.ScopeBlock, s.state.Scope)
		return nil

	case stepper.EffectLeave:
		if s.state.Scope == nil || s.state.Scope.Parent == nil {
			return fmt.Errorf("leave effect with no enclosing scope")
		}
		s.state.Scope = s.state.Scope.Parent
		return nil

	case stepper.EffectVarDecl:
		return s.declareVar(eff)

	case stepper.EffectLoad:
		return nil

	case stepper.EffectStore:
		if eff.Pointer == nil {
			return fmt.Errorf("store effect with nil pointer")
		}
		return cmemory.WriteValue(s.mem, *eff.Pointer, eff.Value)

	case stepper.EffectCall:
		s.frames = append(s.frames, frame{returnCont: eff.ReturnCont, priorScope: s.state.Scope})
		s.state.Scope = stepper.NewScope(stepper.ScopeFunction, s.state.Scope)
		return nil

	default:
		return fmt.Errorf("unknown effect kind %d", eff.Kind)
	}
}

// declareVar allocates backing storage for a new binding and, if its
// initializer is a function or builtin pseudo-value (a parameter bound to
// a callee, which never happens in practice), binds it directly instead.
// Every other declaration gets storage, at least one byte even when its
// type has size 0.
func (s *Session) declareVar(eff stepper.Effect) error {
	if _, isFn := eff.Init.(stepper.FunctionValue); isFn {
		s.state.Scope.Decl[eff.Name] = stepper.DeclRef{Value: eff.Init}
		return nil
	}
	if _, isBuiltin := eff.Init.(stepper.BuiltinValue); isBuiltin {
		s.state.Scope.Decl[eff.Name] = stepper.DeclRef{Value: eff.Init}
		return nil
	}

	addr, err := s.mem.Alloc(eff.DeclType.Size())
	if err != nil {
		return err
	}
	ptr := cvalue.NewPointer(cvalue.NewPointerType(eff.DeclType), addr)
	s.state.Scope.Decl[eff.Name] = stepper.DeclRef{Pointer: &ptr}

	if eff.Init != nil {
		if err := cmemory.WriteValue(s.mem, ptr, eff.Init); err != nil {
			return err
		}
	}
	return nil
}
