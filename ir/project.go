package ir

// TaskDefinition is the compile-time descriptor of a user task class.
type TaskDefinition struct {
	Name    string
	Service string // lambda | ecs | lambda:pexpm-runner | ecs:worker

	Timeout int // seconds, default 300
	CPU     int // 256|512|1024|2048|4096, ecs* only, default 1024
	Memory  int // default 2048

	RunBody string // verbatim source of the task's entry method
	Spec    string // "package.module:Class", ecs:worker only

	Concurrency       int  // 1..100, ecs:worker only, default 1
	HeartbeatInterval *int // ecs:worker only
	AutoscalingMin    *int
	AutoscalingMax    *int
}

// DefaultTaskDefinition returns a TaskDefinition pre-filled with the
// attribute defaults for a given name and service.
func DefaultTaskDefinition(name, service string) *TaskDefinition {
	if service == "" {
		service = "lambda"
	}
	return &TaskDefinition{
		Name:        name,
		Service:     service,
		Timeout:     300,
		CPU:         1024,
		Memory:      2048,
		Concurrency: 1,
	}
}

// Subscription is the decorator-attached `@subscribe(...)` metadata.
type Subscription struct {
	Project             string
	StateMachineRef     string // defaults to "main"
	Status              string // "success" | "failure"
	TopicArnImportValue *string
}

// StateMachine is a named, decorated state-machine function lowered to a
// graph of states.
type StateMachine struct {
	Name string
	*SubMachine

	ScheduleExpression *string
	Subscription       *Subscription
	Exported           bool
}

// Eligible reports whether a state machine is eligible for direct
// execution: exported, or named "main".
func (sm *StateMachine) Eligible() bool {
	return sm.Exported || sm.Name == "main"
}

// Project is the top-level assembled record: every state-machine function
// and task class defined at module scope.
type Project struct {
	StateMachines     map[string]*StateMachine
	StateMachineOrder []string

	Tasks     map[string]*TaskDefinition
	TaskOrder []string
}

// NewProject returns an empty Project ready for the Assembler to populate.
func NewProject() *Project {
	return &Project{
		StateMachines: make(map[string]*StateMachine),
		Tasks:         make(map[string]*TaskDefinition),
	}
}

// AddStateMachine registers a state machine, recording insertion order.
// It does not check for name collisions against existing entries; the
// Assembler is responsible for reporting duplicate state-machine names.
func (p *Project) AddStateMachine(sm *StateMachine) {
	if _, exists := p.StateMachines[sm.Name]; !exists {
		p.StateMachineOrder = append(p.StateMachineOrder, sm.Name)
	}
	p.StateMachines[sm.Name] = sm
}

// AddTask registers a task definition, recording insertion order.
func (p *Project) AddTask(def *TaskDefinition) {
	if _, exists := p.Tasks[def.Name]; !exists {
		p.TaskOrder = append(p.TaskOrder, def.Name)
	}
	p.Tasks[def.Name] = def
}
