package vm

import "github.com/ethereum/go-ethereum/log"

// defaultInstructionBudget is used by ExecuteProgram when the caller
// passes a zero budget, and is the default set at New unless overridden
// by WithDefaultBudget.
const defaultInstructionBudget = 100_000

// Tracer receives one call per decoded instruction when tracing is
// enabled via WithTracer. It is expensive and off by default.
type Tracer func(pc uint64, instr uint32)

// Option configures a VM at construction.
type Option func(*VM)

// WithLogger sets the structured logger used for load/validate/fault
// records (Debug level) and, if tracing is enabled, per-instruction
// records (Trace level). Defaults to log.Root().
func WithLogger(l log.Logger) Option {
	return func(v *VM) { v.log = l }
}

// WithDefaultBudget overrides the instruction budget ExecuteProgram uses
// when called with budget == 0.
func WithDefaultBudget(budget uint64) Option {
	return func(v *VM) { v.defaultBudget = budget }
}

// WithTracer installs a per-instruction trace callback. Tracing is a
// rare, expensive path: it is only invoked when non-nil.
func WithTracer(t Tracer) Option {
	return func(v *VM) { v.tracer = t }
}
