// Package task selects a concrete Task variant from a TaskDefinition's
// service attribute and implements the four service-specific variants.
package task

import (
	"sync"

	"github.com/c360studio/flowc/ast"
	"github.com/c360studio/flowc/diag"
	"github.com/c360studio/flowc/ir"
)

// Config carries the account/region context needed to compute a concrete
// ASL Resource ARN. It has nothing to do with IR content beyond that
// string; tests and the CLI may supply their own.
type Config struct {
	Region  string
	Account string
}

// DefaultConfig returns placeholder account/region values suitable for
// tests and for rendering before real deployment account wiring exists.
func DefaultConfig() *Config {
	return &Config{Region: "us-east-1", Account: "000000000000"}
}

// Variant knows how to compute a service's ASL Resource field, whether it
// may write a result back into the rolling data document, and how to
// validate its TaskDefinition's attributes.
type Variant interface {
	Resource(def *ir.TaskDefinition, cfg *Config) string
	AllowsResultPath() bool
	Validate(def *ir.TaskDefinition, sink *diag.Sink, pos ast.Pos)
}

// Constructor builds a Variant for a resolved TaskDefinition.
type Constructor func(def *ir.TaskDefinition) Variant

// Registry maps a service name to its Variant constructor. First
// registration wins; safe for concurrent reads after setup.
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

// Register adds a Constructor for a service name. The first registration
// for a given name wins.
func (r *Registry) Register(service string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.ctors[service]; !exists {
		r.ctors[service] = ctor
	}
}

// Build looks up and invokes the constructor registered for def.Service.
// Returns nil if no variant is registered for that service name.
func (r *Registry) Build(def *ir.TaskDefinition) Variant {
	r.mu.RLock()
	ctor, ok := r.ctors[def.Service]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	return ctor(def)
}

// DefaultRegistry is populated once via init() with the four built-in
// service variants; it is read-only for the remainder of the process.
var DefaultRegistry = NewRegistry()

func init() {
	DefaultRegistry.Register("lambda", func(def *ir.TaskDefinition) Variant { return &lambdaVariant{} })
	DefaultRegistry.Register("lambda:pexpm-runner", func(def *ir.TaskDefinition) Variant { return &pexpmRunnerVariant{} })
	DefaultRegistry.Register("ecs", func(def *ir.TaskDefinition) Variant { return &ecsVariant{} })
	DefaultRegistry.Register("ecs:worker", func(def *ir.TaskDefinition) Variant { return &ecsWorkerVariant{} })
}

// New builds an *ir.Task for a resolved TaskDefinition and call site,
// dispatching through DefaultRegistry. wantsResultPath is true when the
// call site is the RHS of a subscript assignment; resultPath is the
// $-path to assign into when that is legal.
func New(cfg *Config, def *ir.TaskDefinition, pos ast.Pos, wantsResultPath bool, resultPath, inputPath string, sink *diag.Sink) *ir.Task {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	variant := DefaultRegistry.Build(def)
	if variant == nil {
		sink.Add(diag.ShapeError, pos, "task class %q uses unrecognized service %q", def.Name, def.Service)
		return nil
	}

	variant.Validate(def, sink, pos)

	t := &ir.Task{
		TaskClass:      def.Name,
		Resource:       variant.Resource(def, cfg),
		TimeoutSeconds: def.Timeout,
		Parameters:     map[string]any{},
	}

	if wantsResultPath {
		if variant.AllowsResultPath() {
			rp := resultPath
			t.ResultPath = &rp
		} else {
			sink.Warn(diag.AttributeError, pos, "service %q cannot return a value; assigning its result is ignored (ResultPath left null)", def.Service)
			t.ResultPath = nil
		}
	}
	if inputPath != "" && inputPath != "$" {
		ip := inputPath
		t.InputPath = &ip
	}

	if def.Service == "ecs:worker" {
		t.HeartbeatSeconds = def.HeartbeatInterval
		t.Parameters["TaskToken.$"] = "$$.Task.Token"
		if def.Spec != "" {
			t.Parameters["Spec"] = def.Spec
		}
	}
	if def.Service == "ecs" || def.Service == "ecs:worker" {
		t.Parameters["Cpu"] = def.CPU
		t.Parameters["Memory"] = def.Memory
	}

	return t
}
