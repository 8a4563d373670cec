package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/rs/zerolog"

	"github.com/persistent-c/persistent-c-go/pkg/ast"
	"github.com/persistent-c/persistent-c-go/pkg/builtins"
	"github.com/persistent-c/persistent-c-go/pkg/cvalue"
	"github.com/persistent-c/persistent-c-go/pkg/driver"
)

const cliToolVersion = "pc 0.0.0-dev"

const defaultMemorySize = 1 << 20

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 1
	}

	switch args[0] {
	case "--help", "-h":
		printUsage()
		return 0
	case "--version", "-V", "version":
		fmt.Fprintln(os.Stdout, cliToolVersion)
		return 0
	case "run":
		return runRun(args[1:])
	case "repl":
		return runRepl(args[1:])
	default:
		return runRun(args)
	}
}

// runOptions is the flag surface shared by run and repl: a program path,
// an optional session config, and direct overrides for the config's own
// fields.
type runOptions struct {
	programPath string
	configPath  string
	stepLimit   int
	trace       bool
}

func parseRunOptions(args []string) (runOptions, error) {
	var opts runOptions
	opts.stepLimit = -1

	var positional []string
	i := 0
	for i < len(args) {
		arg := args[i]
		switch {
		case arg == "--config":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("--config requires a path")
			}
			opts.configPath = args[i+1]
			i += 2
		case arg == "--step-limit":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("--step-limit requires a number")
			}
			n, err := strconv.Atoi(args[i+1])
			if err != nil {
				return opts, fmt.Errorf("--step-limit: %w", err)
			}
			opts.stepLimit = n
			i += 2
		case arg == "--trace":
			opts.trace = true
			i++
		default:
			positional = append(positional, arg)
			i++
		}
	}

	if len(positional) != 1 {
		return opts, fmt.Errorf("expected exactly one program file, got %d", len(positional))
	}
	opts.programPath = positional[0]
	return opts, nil
}

func (o runOptions) resolveConfig() (driver.SessionConfig, error) {
	if o.configPath == "" {
		cfg := driver.DefaultSessionConfig()
		return o.applyOverrides(cfg), nil
	}
	cfg, err := driver.LoadSessionConfig(o.configPath)
	if err != nil {
		return driver.SessionConfig{}, err
	}
	return o.applyOverrides(cfg), nil
}

func (o runOptions) applyOverrides(cfg driver.SessionConfig) driver.SessionConfig {
	if o.stepLimit >= 0 {
		cfg.StepLimit = o.stepLimit
	}
	if o.trace {
		cfg.Trace = true
	}
	return cfg
}

func loadProgram(path string) ([]*ast.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading program %s: %w", path, err)
	}
	functions, err := driver.LoadProgramJSON(data)
	if err != nil {
		return nil, err
	}
	return functions, nil
}

func newLogger(w io.Writer, trace bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if trace {
		level = zerolog.TraceLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(level).With().Timestamp().Logger()
}

func runRun(args []string) int {
	opts, err := parseRunOptions(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pc run: %v\n", err)
		return 1
	}
	functions, err := loadProgram(opts.programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	cfg, err := opts.resolveConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	log := newLogger(os.Stderr, cfg.Trace)
	registry, err := driver.SelectBuiltins(builtins.Registry(os.Stdout), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	session, err := driver.New(functions, registry, defaultMemorySize, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	result, err := session.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "runtime error: %v\n", err)
		return 1
	}
	if result != nil {
		fmt.Fprintf(os.Stdout, "main returned %s\n", formatResult(result))
	}
	return 0
}

const replHistoryFile = ".pc_history"

func runRepl(args []string) int {
	opts, err := parseRunOptions(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pc repl: %v\n", err)
		return 1
	}
	functions, err := loadProgram(opts.programPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	cfg, err := opts.resolveConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	cfg.Trace = true

	log := newLogger(os.Stderr, true)
	registry, err := driver.SelectBuiltins(builtins.Registry(os.Stdout), cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	session, err := driver.New(functions, registry, defaultMemorySize, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	fmt.Println("pc single-step debugger. Commands: step, next, continue, print <expr-path>, break <node-id>, quit.")

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, replHistoryFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	finished := false
	for {
		line, err := ln.Prompt("(pc) ")
		if err != nil {
			fmt.Println()
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		ln.AppendHistory(line)

		fields := strings.Fields(line)
		cmd, rest := fields[0], fields[1:]

		switch cmd {
		case "quit", "q":
			return 0
		case "print", "p":
			if len(rest) == 0 {
				if session.Result() == nil {
					fmt.Println("<void>")
				} else {
					fmt.Println(formatResult(session.Result()))
				}
				continue
			}
			node, perr := parseExprPath(rest[0])
			if perr != nil {
				fmt.Fprintf(os.Stderr, "print: %v\n", perr)
				continue
			}
			val, evalErr := session.Evaluate(node)
			if evalErr != nil {
				fmt.Fprintf(os.Stderr, "print %s: %v\n", rest[0], evalErr)
				continue
			}
			fmt.Println(formatResultOrVoid(val))
		case "break", "b":
			if len(rest) == 0 {
				fmt.Println("break requires a node-id (shown by step/next)")
				continue
			}
			session.SetBreakpoint(rest[0])
			fmt.Printf("breakpoint set at node %s\n", rest[0])
		case "step", "s", "next", "n":
			if finished {
				fmt.Println("program already finished")
				continue
			}
			done, stepErr := session.Step()
			if stepErr != nil {
				fmt.Fprintf(os.Stderr, "runtime error: %v\n", stepErr)
				return 1
			}
			if done {
				finished = true
				fmt.Printf("program finished after %d steps, result %s\n", session.StepCount(), formatResultOrVoid(session.Result()))
			} else {
				fmt.Printf("step %d, at node %s\n", session.StepCount(), session.CurrentNodeID())
			}
		case "continue", "c":
			if finished {
				fmt.Println("program already finished")
				continue
			}
			done, runErr := session.Continue()
			if runErr != nil {
				fmt.Fprintf(os.Stderr, "runtime error: %v\n", runErr)
				return 1
			}
			if done {
				finished = true
				fmt.Printf("program finished after %d steps, result %s\n", session.StepCount(), formatResultOrVoid(session.Result()))
			} else {
				fmt.Printf("breakpoint hit at node %s (step %d)\n", session.CurrentNodeID(), session.StepCount())
			}
		default:
			fmt.Printf("unknown command %q\n", cmd)
		}
	}
	return 0
}

// parseExprPath builds an expression node from a small REPL addressing
// grammar: a bare identifier, any number of leading "*" dereferences, and
// an optional trailing "[index]" subscript — e.g. "x", "*p", "a[2]",
// "**pp". Anything else is rejected; print does not evaluate arbitrary C
// expressions, only paths into already-declared variables.
func parseExprPath(path string) (*ast.Node, error) {
	derefs := 0
	for len(path) > 0 && path[0] == '*' {
		derefs++
		path = path[1:]
	}

	ident := path
	index := -1
	if i := strings.IndexByte(path, '['); i >= 0 {
		if !strings.HasSuffix(path, "]") {
			return nil, fmt.Errorf("malformed expression path %q", path)
		}
		ident = path[:i]
		n, err := strconv.Atoi(path[i+1 : len(path)-1])
		if err != nil {
			return nil, fmt.Errorf("malformed array index in %q: %w", path, err)
		}
		index = n
	}
	if ident == "" {
		return nil, fmt.Errorf("missing identifier in expression path")
	}

	node := ast.New(ast.DeclRefExpr, ast.Attrs{Identifier: ident})
	if index >= 0 {
		node = ast.New(ast.ArraySubscriptExpr, ast.Attrs{}, node, ast.New(ast.IntegerLiteral, ast.Attrs{Value: strconv.Itoa(index)}))
	}
	for i := 0; i < derefs; i++ {
		node = ast.New(ast.UnaryOperator, ast.Attrs{Opcode: "Deref"}, node)
	}
	return node, nil
}

func formatResultOrVoid(v cvalue.Value) string {
	if v == nil {
		return "<void>"
	}
	return formatResult(v)
}

func formatResult(v cvalue.Value) string {
	switch val := v.(type) {
	case cvalue.IntegralValue:
		return fmt.Sprintf("%d", val.Int)
	case cvalue.FloatingValue:
		return fmt.Sprintf("%g", val.Float)
	case cvalue.PointerValue:
		return fmt.Sprintf("0x%x", val.Address)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  pc run <program.json> [--config session.yaml] [--step-limit N] [--trace]")
	fmt.Fprintln(os.Stderr, "  pc repl <program.json> [--config session.yaml]")
	fmt.Fprintln(os.Stderr, "  pc --version")
}
