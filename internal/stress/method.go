package stress

import (
	"fmt"
	"strings"
)

// Method selects the kind of load a worker generates.
type Method string

const (
	// MethodCPU burns CPU by generating pseudo-random values.
	MethodCPU Method = "cpu"
	// MethodMemory allocates and touches a fresh block every iteration.
	MethodMemory Method = "memory"
)

// ParseMethod parses a method name, case-insensitively.
func ParseMethod(s string) (Method, error) {
	m := Method(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", &ConfigError{Field: "method", Value: s, Err: ErrUnknownMethod}
	}
	return m, nil
}

// Valid reports whether m is a known method.
func (m Method) Valid() bool {
	return m == MethodCPU || m == MethodMemory
}

func (m Method) String() string {
	return string(m)
}

// Isolation selects how workers are executed.
type Isolation string

const (
	// IsolationProcess runs every worker in its own child process.
	IsolationProcess Isolation = "process"
	// IsolationGoroutine runs every worker in a goroutine of this process.
	IsolationGoroutine Isolation = "goroutine"
)

// ParseIsolation parses an isolation mode name.
func ParseIsolation(s string) (Isolation, error) {
	i := Isolation(strings.ToLower(strings.TrimSpace(s)))
	if !i.Valid() {
		return "", &ConfigError{Field: "isolation", Value: s, Err: ErrUnknownIsolation}
	}
	return i, nil
}

// Valid reports whether i is a known isolation mode.
func (i Isolation) Valid() bool {
	return i == IsolationProcess || i == IsolationGoroutine
}

func (i Isolation) String() string {
	return string(i)
}

// Methods returns the accepted method names, for help text.
func Methods() string {
	return fmt.Sprintf("%s|%s", MethodCPU, MethodMemory)
}
