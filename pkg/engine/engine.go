// Package engine loads technology descriptions written in Lisp.
// It wraps zygomys in a sandboxed environment and produces a *tech.Tech
// from user source code.
package engine

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/chazu/loom/pkg/tech"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// EvalResult bundles the full output of loading a technology file.
type EvalResult struct {
	Tech     *tech.Tech
	Errors   []EvalError
	Findings []tech.ValidationError
}

// OK reports whether the technology loaded and passed validation.
func (r EvalResult) OK() bool {
	return r.Tech != nil && len(r.Errors) == 0 && !tech.HasErrors(r.Findings)
}

// Engine wraps the zygomys interpreter.
// It is safe for concurrent use; each call to Evaluate creates a fresh
// sandboxed environment for determinism.
type Engine struct {
	mu         sync.Mutex
	generation uint64
}

// NewEngine creates a new Engine instance.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate takes Lisp source code and produces a new technology.
// Each call creates a fresh zygomys sandbox for deterministic evaluation.
//
// Return semantics:
//   - On success: returns tech + nil errors + nil error
//   - On parse/eval failure: returns nil tech + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*tech.Tech, []EvalError, error) {
	return e.EvaluateContext(context.Background(), source)
}

// EvaluateContext is Evaluate that also gives up when ctx is done.
func (e *Engine) EvaluateContext(ctx context.Context, source string) (*tech.Tech, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		t, evalErrs, err := e.evaluate(source)
		ch <- evalResult{tech: t, errors: evalErrs, err: err}
	}()

	return waitWithTimeout(ctx, ch, gen, &e.mu, &e.generation)
}

// LoadFile evaluates a technology file and validates the result. Read
// failures and fatal evaluation failures are returned as the error.
func (e *Engine) LoadFile(ctx context.Context, path string) (EvalResult, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return EvalResult{}, fmt.Errorf("read tech: %w", err)
	}
	t, evalErrs, err := e.EvaluateContext(ctx, string(src))
	if err != nil {
		return EvalResult{}, fmt.Errorf("%s: %w", path, err)
	}
	res := EvalResult{Tech: t, Errors: evalErrs}
	if t != nil {
		t.Path = path
		res.Findings = tech.Validate(t)
	}
	return res, nil
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*tech.Tech, []EvalError, error) {
	t := tech.New()
	// Empty source is a valid program that produces an empty technology.
	if strings.TrimSpace(source) == "" {
		return t, nil, nil
	}

	// Sandbox mode prevents user code from accessing the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()
	rec := registerBuiltins(env, t)

	err := env.LoadString(preprocessSource(source))
	if err != nil {
		return nil, parseZygomysError(err), nil
	}

	_, err = env.Run()
	if err != nil {
		errs := parseZygomysError(err)
		if rec.err != nil {
			errs[0].Message = rec.err.Error()
		}
		return nil, errs, nil
	}
	return t, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
