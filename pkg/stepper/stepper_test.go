package stepper

import (
	"testing"

	"github.com/persistent-c/persistent-c-go/pkg/ast"
	"github.com/persistent-c/persistent-c-go/pkg/cmemory"
	"github.com/persistent-c/persistent-c-go/pkg/cvalue"
)

// memAdapter is a self-contained test harness satisfying the Memory
// interface; it lets these tests drive Step without depending on
// pkg/driver.
type memAdapter struct{ mem *cmemory.Memory }

func (a memAdapter) ReadValue(ptr cvalue.PointerValue) (cvalue.Value, error) {
	return cmemory.ReadValue(a.mem, ptr)
}

// drive runs control to completion against a fresh function scope,
// applying every effect the same way the driver does, and returns the
// final value together with the full effect trace in order.
func drive(t *testing.T, mem *cmemory.Memory, control *Control) (cvalue.Value, []Effect) {
	t.Helper()
	state := &State{
		Memory:    memAdapter{mem: mem},
		Scope:     NewScope(ScopeFunction, nil),
		GlobalMap: map[string]DeclRef{},
	}
	var trace []Effect
	for {
		result := Step(state, control)
		if result.Err != nil {
			t.Fatalf("step failed: %v", result.Err)
		}
		for _, eff := range result.Effects {
			trace = append(trace, eff)
			applyTestEffect(t, state, mem, eff)
		}
		state.Result = result.Result
		control = result.Control
		if control.IsReturn {
			return state.Result, trace
		}
	}
}

func applyTestEffect(t *testing.T, state *State, mem *cmemory.Memory, eff Effect) {
	t.Helper()
	switch eff.Kind {
	case EffectEnter:
		state.Scope = NewScope(ScopeBlock, state.Scope)
	case EffectLeave:
		state.Scope = state.Scope.Parent
	case EffectVarDecl:
		addr, err := mem.Alloc(eff.DeclType.Size())
		if err != nil {
			t.Fatalf("alloc: %v", err)
		}
		ptr := cvalue.NewPointer(cvalue.NewPointerType(eff.DeclType), addr)
		state.Scope.Decl[eff.Name] = DeclRef{Pointer: &ptr}
		if eff.Init != nil {
			if err := cmemory.WriteValue(mem, ptr, eff.Init); err != nil {
				t.Fatalf("write init: %v", err)
			}
		}
	case EffectStore:
		if err := cmemory.WriteValue(mem, *eff.Pointer, eff.Value); err != nil {
			t.Fatalf("store: %v", err)
		}
	case EffectLoad:
		// observability only
	case EffectCall:
		t.Fatalf("unexpected call effect in expression-level test")
	}
}

func intLit(lexeme string) *ast.Node {
	return ast.New(ast.IntegerLiteral, ast.Attrs{Value: lexeme})
}

func intType() *ast.Node {
	return ast.New(ast.BuiltinType, ast.Attrs{Name: "int"})
}

func declRef(name string) *ast.Node {
	return ast.New(ast.DeclRefExpr, ast.Attrs{Identifier: name})
}

func varDecl(name string, typeNode, init *ast.Node) *ast.Node {
	children := []*ast.Node{typeNode}
	if init != nil {
		children = append(children, init)
	}
	return ast.New(ast.VarDecl, ast.Attrs{Name: name}, children...)
}

func binOp(opcode string, lhs, rhs *ast.Node) *ast.Node {
	return ast.New(ast.BinaryOperator, ast.Attrs{Opcode: opcode}, lhs, rhs)
}

func assign(lhs, rhs *ast.Node) *ast.Node {
	return ast.New(ast.BinaryOperator, ast.Attrs{Opcode: "Assign"}, lhs, rhs)
}

func exprStmtBody(exprs ...*ast.Node) *ast.Node {
	return ast.New(ast.CompoundStmt, ast.Attrs{}, exprs...)
}

func returnStmt(expr *ast.Node) *ast.Node {
	if expr == nil {
		return ast.New(ast.ReturnStmt, ast.Attrs{})
	}
	return ast.New(ast.ReturnStmt, ast.Attrs{}, expr)
}

func TestIntegerLiteralSuffixes(t *testing.T) {
	cases := []struct {
		lexeme   string
		wantType string
		wantVal  int64
	}{
		{"42", "int", 42},
		{"42u", "unsigned int", 42},
		{"42l", "long", 42},
		{"42ul", "unsigned long", 42},
		{"42ll", "long long", 42},
		{"42ull", "unsigned long long", 42},
	}
	for _, c := range cases {
		v, ty, err := parseIntegerLiteral(c.lexeme)
		if err != nil {
			t.Fatalf("%s: %v", c.lexeme, err)
		}
		if v != c.wantVal {
			t.Errorf("%s: value = %d, want %d", c.lexeme, v, c.wantVal)
		}
		if ty.String() != c.wantType {
			t.Errorf("%s: type = %s, want %s", c.lexeme, ty, c.wantType)
		}
	}
}

func TestBinaryArithmetic(t *testing.T) {
	mem := cmemory.New(256)
	body := exprStmtBody(returnStmt(binOp("Add", intLit("3"), intLit("4"))))
	control := Enter(body, Return(), ModeValue, SeqStmt)
	result, _ := drive(t, mem, control)
	iv, ok := result.(cvalue.IntegralValue)
	if !ok || iv.Int != 7 {
		t.Fatalf("3+4 = %#v, want 7", result)
	}
}

func TestShortCircuitLAndSkipsRHS(t *testing.T) {
	mem := cmemory.New(256)
	// 0 && (1/0) must short-circuit without evaluating the RHS (which would
	// otherwise fail with a division error).
	rhs := binOp("Div", intLit("1"), intLit("0"))
	body := exprStmtBody(returnStmt(binOp("LAnd", intLit("0"), rhs)))
	control := Enter(body, Return(), ModeValue, SeqStmt)
	result, _ := drive(t, mem, control)
	iv, ok := result.(cvalue.IntegralValue)
	if !ok || iv.Int != 0 {
		t.Fatalf("0 && ... = %#v, want 0", result)
	}
}

func TestVarDeclAssignAndReadBack(t *testing.T) {
	mem := cmemory.New(256)
	body := exprStmtBody(
		ast.New(ast.DeclStmt, ast.Attrs{}, varDecl("x", intType(), intLit("10"))),
		assign(declRef("x"), binOp("Add", declRef("x"), intLit("5"))),
		returnStmt(declRef("x")),
	)
	control := Enter(body, Return(), ModeValue, SeqStmt)
	result, _ := drive(t, mem, control)
	iv, ok := result.(cvalue.IntegralValue)
	if !ok || iv.Int != 15 {
		t.Fatalf("x after x = x + 5 = %#v, want 15", result)
	}
}

func TestPreIncEqualsStoreOfPlusOne(t *testing.T) {
	mem := cmemory.New(256)
	body := exprStmtBody(
		ast.New(ast.DeclStmt, ast.Attrs{}, varDecl("x", intType(), intLit("5"))),
		ast.New(ast.UnaryOperator, ast.Attrs{Opcode: "PreInc"}, declRef("x")),
		returnStmt(declRef("x")),
	)
	control := Enter(body, Return(), ModeValue, SeqStmt)
	result, _ := drive(t, mem, control)
	iv, ok := result.(cvalue.IntegralValue)
	if !ok || iv.Int != 6 {
		t.Fatalf("++x where x=5 = %#v, want 6", result)
	}
}

func TestAddrOfDerefRoundTrip(t *testing.T) {
	mem := cmemory.New(256)
	ptrType := ast.New(ast.PointerType, ast.Attrs{}, intType())
	body := exprStmtBody(
		ast.New(ast.DeclStmt, ast.Attrs{}, varDecl("x", intType(), intLit("99"))),
		ast.New(ast.DeclStmt, ast.Attrs{}, varDecl("p", ptrType, ast.New(ast.UnaryOperator, ast.Attrs{Opcode: "AddrOf"}, declRef("x")))),
		returnStmt(ast.New(ast.UnaryOperator, ast.Attrs{Opcode: "Deref"}, declRef("p"))),
	)
	control := Enter(body, Return(), ModeValue, SeqStmt)
	result, _ := drive(t, mem, control)
	iv, ok := result.(cvalue.IntegralValue)
	if !ok || iv.Int != 99 {
		t.Fatalf("*&x where x=99 = %#v, want 99", result)
	}
}

func TestForLoopSumsToN(t *testing.T) {
	mem := cmemory.New(256)
	// int sum = 0; for (int i = 0; i < 5; i = i + 1) sum = sum + i; return sum;
	initStmt := ast.New(ast.DeclStmt, ast.Attrs{}, varDecl("i", intType(), intLit("0")))
	cond := binOp("LT", declRef("i"), intLit("5"))
	update := assign(declRef("i"), binOp("Add", declRef("i"), intLit("1")))
	loopBody := assign(declRef("sum"), binOp("Add", declRef("sum"), declRef("i")))
	forStmt := ast.New(ast.ForStmt, ast.Attrs{}, initStmt, cond, update, loopBody)

	body := exprStmtBody(
		ast.New(ast.DeclStmt, ast.Attrs{}, varDecl("sum", intType(), intLit("0"))),
		forStmt,
		returnStmt(declRef("sum")),
	)
	control := Enter(body, Return(), ModeValue, SeqStmt)
	result, _ := drive(t, mem, control)
	iv, ok := result.(cvalue.IntegralValue)
	if !ok || iv.Int != 10 {
		t.Fatalf("sum of 0..4 = %#v, want 10", result)
	}
}

func TestBreakStopsLoopEarly(t *testing.T) {
	mem := cmemory.New(256)
	// int i = 0; while (1) { if (i == 3) break; i = i + 1; } return i;
	ifBreak := ast.New(ast.IfStmt, ast.Attrs{},
		binOp("EQ", declRef("i"), intLit("3")),
		ast.New(ast.BreakStmt, ast.Attrs{}))
	loopBody := exprStmtBody(ifBreak, assign(declRef("i"), binOp("Add", declRef("i"), intLit("1"))))
	whileStmt := ast.New(ast.WhileStmt, ast.Attrs{}, intLit("1"), loopBody)

	body := exprStmtBody(
		ast.New(ast.DeclStmt, ast.Attrs{}, varDecl("i", intType(), intLit("0"))),
		whileStmt,
		returnStmt(declRef("i")),
	)
	control := Enter(body, Return(), ModeValue, SeqStmt)
	result, _ := drive(t, mem, control)
	iv, ok := result.(cvalue.IntegralValue)
	if !ok || iv.Int != 3 {
		t.Fatalf("i after break at 3 = %#v, want 3", result)
	}
}

func TestContinueSkipsRestOfBody(t *testing.T) {
	mem := cmemory.New(256)
	// int i = 0; int sum = 0;
	// for (i = 0; i < 5; i = i + 1) { if (i == 2) continue; sum = sum + i; }
	initStmt := assign(declRef("i"), intLit("0"))
	cond := binOp("LT", declRef("i"), intLit("5"))
	update := assign(declRef("i"), binOp("Add", declRef("i"), intLit("1")))
	ifContinue := ast.New(ast.IfStmt, ast.Attrs{},
		binOp("EQ", declRef("i"), intLit("2")),
		ast.New(ast.ContinueStmt, ast.Attrs{}))
	loopBody := exprStmtBody(ifContinue, assign(declRef("sum"), binOp("Add", declRef("sum"), declRef("i"))))
	forStmt := ast.New(ast.ForStmt, ast.Attrs{}, initStmt, cond, update, loopBody)

	body := exprStmtBody(
		ast.New(ast.DeclStmt, ast.Attrs{}, varDecl("i", intType(), intLit("0"))),
		ast.New(ast.DeclStmt, ast.Attrs{}, varDecl("sum", intType(), intLit("0"))),
		forStmt,
		returnStmt(declRef("sum")),
	)
	control := Enter(body, Return(), ModeValue, SeqStmt)
	result, _ := drive(t, mem, control)
	iv, ok := result.(cvalue.IntegralValue)
	// 0+1+3+4 = 8, skipping i==2
	if !ok || iv.Int != 8 {
		t.Fatalf("sum skipping i=2 = %#v, want 8", result)
	}
}

func TestArraySubscriptReadWrite(t *testing.T) {
	mem := cmemory.New(256)
	arrType := ast.New(ast.ConstantArrayType, ast.Attrs{}, intType(), intLit("3"))
	body := exprStmtBody(
		ast.New(ast.DeclStmt, ast.Attrs{}, varDecl("a", arrType, nil)),
		assign(ast.New(ast.ArraySubscriptExpr, ast.Attrs{}, declRef("a"), intLit("1")), intLit("42")),
		returnStmt(ast.New(ast.ArraySubscriptExpr, ast.Attrs{}, declRef("a"), intLit("1"))),
	)
	control := Enter(body, Return(), ModeValue, SeqStmt)
	result, _ := drive(t, mem, control)
	iv, ok := result.(cvalue.IntegralValue)
	if !ok || iv.Int != 42 {
		t.Fatalf("a[1] after a[1] = 42 = %#v, want 42", result)
	}
}

func TestSizeofScalarTypeViaDeclRef(t *testing.T) {
	mem := cmemory.New(256)
	body := exprStmtBody(
		ast.New(ast.DeclStmt, ast.Attrs{}, varDecl("x", intType(), intLit("0"))),
		returnStmt(ast.New(ast.UnaryExprOrTypeTraitExpr, ast.Attrs{}, declRef("x"))),
	)
	control := Enter(body, Return(), ModeValue, SeqStmt)
	result, _ := drive(t, mem, control)
	iv, ok := result.(cvalue.IntegralValue)
	if !ok || iv.Int != 4 {
		t.Fatalf("sizeof(x) where x is int = %#v, want 4", result)
	}
	if iv.Ty != cvalue.ScalarTypes["int"] {
		t.Fatalf("sizeof(x) result type = %v, want int", iv.Ty)
	}
}

func TestUnboundIdentifierFails(t *testing.T) {
	state := &State{Scope: NewScope(ScopeFunction, nil), GlobalMap: map[string]DeclRef{}}
	control := Enter(declRef("nope"), Return(), ModeValue, SeqExpr)
	result := Step(state, control)
	if result.Err == nil {
		t.Fatalf("expected an unbound-identifier error")
	}
	serr, ok := result.Err.(*Error)
	if !ok || serr.Kind != ErrUnboundIdentifier {
		t.Fatalf("expected ErrUnboundIdentifier, got %v", result.Err)
	}
}

func TestEffectOrderingVarDeclPrecedesStore(t *testing.T) {
	mem := cmemory.New(256)
	body := exprStmtBody(
		ast.New(ast.DeclStmt, ast.Attrs{}, varDecl("x", intType(), intLit("1"))),
		assign(declRef("x"), intLit("2")),
		returnStmt(declRef("x")),
	)
	control := Enter(body, Return(), ModeValue, SeqStmt)
	_, trace := drive(t, mem, control)
	declIdx, storeIdx := -1, -1
	for i, eff := range trace {
		switch eff.Kind {
		case EffectVarDecl:
			if declIdx == -1 {
				declIdx = i
			}
		case EffectStore:
			if storeIdx == -1 {
				storeIdx = i
			}
		}
	}
	if declIdx == -1 {
		t.Fatalf("expected a vardecl effect, trace = %+v", trace)
	}
	if storeIdx == -1 {
		t.Fatalf("expected a store effect, trace = %+v", trace)
	}
	if storeIdx < declIdx {
		t.Fatalf("store effect (%d) occurred before vardecl effect (%d)", storeIdx, declIdx)
	}
}

func TestContinueInDoWhileResumesAtCondition(t *testing.T) {
	mem := cmemory.New(256)
	// int i = 0; int sum = 0;
	// do { i = i + 1; if (i == 2) continue; sum = sum + i; } while (i < 4);
	update := assign(declRef("i"), binOp("Add", declRef("i"), intLit("1")))
	ifContinue := ast.New(ast.IfStmt, ast.Attrs{},
		binOp("EQ", declRef("i"), intLit("2")),
		ast.New(ast.ContinueStmt, ast.Attrs{}))
	loopBody := exprStmtBody(update, ifContinue, assign(declRef("sum"), binOp("Add", declRef("sum"), declRef("i"))))
	cond := binOp("LT", declRef("i"), intLit("4"))
	doStmt := ast.New(ast.DoStmt, ast.Attrs{}, loopBody, cond)

	body := exprStmtBody(
		ast.New(ast.DeclStmt, ast.Attrs{}, varDecl("i", intType(), intLit("0"))),
		ast.New(ast.DeclStmt, ast.Attrs{}, varDecl("sum", intType(), intLit("0"))),
		doStmt,
		returnStmt(declRef("sum")),
	)
	control := Enter(body, Return(), ModeValue, SeqStmt)
	result, _ := drive(t, mem, control)
	iv, ok := result.(cvalue.IntegralValue)
	// i runs 1,2,3,4; continue skips adding when i==2: 1+3+4 = 8
	if !ok || iv.Int != 8 {
		t.Fatalf("sum skipping i=2 in do-while = %#v, want 8", result)
	}
}
