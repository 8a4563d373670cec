// Package builtins implements the small set of opaque builtin functions a
// session can make visible to a program, grounded on cmd/able/main.go's
// registerPrint pattern: each builtin owns its own call protocol entirely,
// exactly like any stepper-dispatched function, and is registered into the
// driver's global name table under a plain C identifier.
//
// malloc-style heap allocation is deliberately not provided here; cmemory's
// bump allocator already backs every VarDecl, and a general allocator with
// free/realloc semantics is out of scope.
package builtins

import (
	"fmt"
	"io"

	"github.com/persistent-c/persistent-c-go/pkg/cvalue"
	"github.com/persistent-c/persistent-c-go/pkg/stepper"
)

// Registry returns every builtin this package implements, writing output
// to w (normally os.Stdout; tests pass a bytes.Buffer).
func Registry(w io.Writer) map[string]stepper.BuiltinFunc {
	return map[string]stepper.BuiltinFunc{
		"putchar": putchar(w),
		"abs":     abs,
	}
}

// putchar writes the low byte of its single int argument to w and
// returns it unchanged, matching <stdio.h>'s putchar(int) -> int.
func putchar(w io.Writer) stepper.BuiltinFunc {
	return func(state *stepper.State, cont *stepper.Control, values []cvalue.Value) stepper.Result {
		if len(values) != 1 {
			return stepper.Result{Control: cont, Err: fmt.Errorf("putchar: expected 1 argument, got %d", len(values))}
		}
		iv, ok := values[0].(cvalue.IntegralValue)
		if !ok {
			return stepper.Result{Control: cont, Err: fmt.Errorf("putchar: expected an integral argument, got %T", values[0])}
		}
		if _, err := w.Write([]byte{byte(iv.Int)}); err != nil {
			return stepper.Result{Control: cont, Err: err}
		}
		return stepper.Result{Control: cont, Result: iv}
	}
}

// abs returns the absolute value of its single int argument, matching
// <stdlib.h>'s abs(int) -> int.
func abs(state *stepper.State, cont *stepper.Control, values []cvalue.Value) stepper.Result {
	if len(values) != 1 {
		return stepper.Result{Control: cont, Err: fmt.Errorf("abs: expected 1 argument, got %d", len(values))}
	}
	iv, ok := values[0].(cvalue.IntegralValue)
	if !ok {
		return stepper.Result{Control: cont, Err: fmt.Errorf("abs: expected an integral argument, got %T", values[0])}
	}
	n := iv.Int
	if n < 0 {
		n = -n
	}
	return stepper.Result{Control: cont, Result: cvalue.NewIntegral(iv.Ty, n)}
}
