package task

import (
	"fmt"

	"github.com/c360studio/flowc/ast"
	"github.com/c360studio/flowc/diag"
	"github.com/c360studio/flowc/ir"
)

// lambdaAllowedMemory is the restricted set of Lambda memory sizes (MB).
var lambdaAllowedMemory = map[int]bool{
	128: true, 256: true, 512: true, 1024: true, 1536: true, 2048: true,
	3008: true, 4096: true, 5120: true, 6144: true, 7168: true, 8192: true,
	9216: true, 10240: true,
}

// ecsAllowedPairs maps an ECS Fargate cpu unit to its allowed memory
// values (MB).
var ecsAllowedPairs = map[int][]int{
	256:  {512, 1024, 2048},
	512:  {1024, 2048, 3072, 4096},
	1024: {2048, 3072, 4096, 5120, 6144, 7168, 8192},
	2048: {4096, 5120, 6144, 7168, 8192, 9216, 10240, 11264, 12288, 13312, 14336, 15360, 16384},
	4096: {8192, 9216, 10240, 11264, 12288, 13312, 14336, 15360, 16384, 17408, 18432, 19456, 20480, 21504, 22528, 23552, 24576, 25600, 26624, 27648, 28672, 29696, 30720},
}

type lambdaVariant struct{}

func (lambdaVariant) Resource(def *ir.TaskDefinition, cfg *Config) string {
	return fmt.Sprintf("arn:aws:lambda:%s:%s:function:%s", cfg.Region, cfg.Account, def.Name)
}

func (lambdaVariant) AllowsResultPath() bool { return true }

func (lambdaVariant) Validate(def *ir.TaskDefinition, sink *diag.Sink, pos ast.Pos) {
	if def.Timeout <= 0 {
		sink.Add(diag.AttributeError, pos, "task %q: timeout must be positive, got %d", def.Name, def.Timeout)
	}
	if !lambdaAllowedMemory[def.Memory] {
		sink.Add(diag.AttributeError, pos, "task %q: memory %d is not an allowed Lambda memory size", def.Name, def.Memory)
	}
}

// pexpmRunnerVariant is the "lambda:pexpm-runner" service: identical to
// lambda except the Resource points at a shared runner function and the
// task's package is downloaded at runtime from its verbatim run_body
// payload.
type pexpmRunnerVariant struct{}

func (pexpmRunnerVariant) Resource(def *ir.TaskDefinition, cfg *Config) string {
	return fmt.Sprintf("arn:aws:lambda:%s:%s:function:pexpm-runner", cfg.Region, cfg.Account)
}

func (pexpmRunnerVariant) AllowsResultPath() bool { return true }

func (v pexpmRunnerVariant) Validate(def *ir.TaskDefinition, sink *diag.Sink, pos ast.Pos) {
	lambdaVariant{}.Validate(def, sink, pos)
}

type ecsVariant struct{}

func (ecsVariant) Resource(def *ir.TaskDefinition, cfg *Config) string {
	return "arn:aws:states:::ecs:runTask.sync"
}

func (ecsVariant) AllowsResultPath() bool { return false }

func (ecsVariant) Validate(def *ir.TaskDefinition, sink *diag.Sink, pos ast.Pos) {
	if def.Timeout <= 0 {
		sink.Add(diag.AttributeError, pos, "task %q: timeout must be positive, got %d", def.Name, def.Timeout)
	}
	allowedMem, ok := ecsAllowedPairs[def.CPU]
	if !ok {
		sink.Add(diag.AttributeError, pos, "task %q: cpu %d is not an allowed ECS Fargate value", def.Name, def.CPU)
		return
	}
	for _, m := range allowedMem {
		if m == def.Memory {
			return
		}
	}
	sink.Add(diag.AttributeError, pos, "task %q: memory %d is not valid for cpu %d", def.Name, def.Memory, def.CPU)
}

// ecsWorkerVariant implements the "wait for task token" integration
// pattern.
type ecsWorkerVariant struct{}

func (ecsWorkerVariant) Resource(def *ir.TaskDefinition, cfg *Config) string {
	return "arn:aws:states:::ecs:runTask.waitForTaskToken"
}

func (ecsWorkerVariant) AllowsResultPath() bool { return false }

func (ecsWorkerVariant) Validate(def *ir.TaskDefinition, sink *diag.Sink, pos ast.Pos) {
	if def.Spec == "" {
		sink.Add(diag.ShapeError, pos, "task %q: ecs:worker requires spec", def.Name)
	}
	if def.Concurrency < 1 || def.Concurrency > 100 {
		sink.Add(diag.AttributeError, pos, "task %q: concurrency %d out of range [1,100]", def.Name, def.Concurrency)
	}
	if def.HeartbeatInterval != nil && *def.HeartbeatInterval >= def.Timeout {
		sink.Add(diag.AttributeError, pos, "task %q: heartbeat_interval %d must be less than timeout %d", def.Name, *def.HeartbeatInterval, def.Timeout)
	}
	if def.AutoscalingMin != nil && def.AutoscalingMax != nil && *def.AutoscalingMin > *def.AutoscalingMax {
		sink.Add(diag.AttributeError, pos, "task %q: autoscaling_min %d exceeds autoscaling_max %d", def.Name, *def.AutoscalingMin, *def.AutoscalingMax)
	}
	if def.Timeout <= 0 {
		sink.Add(diag.AttributeError, pos, "task %q: timeout must be positive, got %d", def.Name, def.Timeout)
	}
}
