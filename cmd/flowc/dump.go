package main

import "github.com/c360studio/flowc/ir"

// renderProject converts a Project into a plain value tree suitable for
// yaml.Marshal. ir's State variants carry no yaml tags of their own; the
// real ASL-JSON serializer downstream owns that concern, so this dump is
// only a debugging aid.
func renderProject(p *ir.Project) map[string]any {
	tasks := make(map[string]any, len(p.TaskOrder))
	for _, name := range p.TaskOrder {
		tasks[name] = renderTask(p.Tasks[name])
	}

	machines := make(map[string]any, len(p.StateMachineOrder))
	for _, name := range p.StateMachineOrder {
		machines[name] = renderStateMachine(p.StateMachines[name])
	}

	return map[string]any{
		"tasks":          tasks,
		"state_machines": machines,
	}
}

func renderTask(def *ir.TaskDefinition) map[string]any {
	return map[string]any{
		"service":     def.Service,
		"timeout":     def.Timeout,
		"cpu":         def.CPU,
		"memory":      def.Memory,
		"spec":        def.Spec,
		"concurrency": def.Concurrency,
	}
}

func renderStateMachine(sm *ir.StateMachine) map[string]any {
	out := map[string]any{
		"exported": sm.Exported,
		"start_at": sm.StartKey,
		"states":   renderSubMachine(sm.SubMachine),
	}
	if sm.ScheduleExpression != nil {
		out["schedule"] = *sm.ScheduleExpression
	}
	if sm.Subscription != nil {
		out["subscription"] = map[string]any{
			"project":       sm.Subscription.Project,
			"state_machine": sm.Subscription.StateMachineRef,
			"status":        sm.Subscription.Status,
		}
	}
	return out
}

func renderSubMachine(sub *ir.SubMachine) map[string]any {
	states := make(map[string]any, len(sub.Keys))
	for _, key := range sub.Keys {
		states[key] = renderState(sub.States[key])
	}
	return map[string]any{
		"start_at": sub.StartKey,
		"states":   states,
	}
}

func renderState(s ir.State) map[string]any {
	h := s.Header()
	out := map[string]any{
		"kind": string(s.Kind()),
		"end":  h.End,
	}
	if h.Next != "" {
		out["next"] = h.Next
	}
	if h.Comment != "" {
		out["comment"] = h.Comment
	}

	switch st := s.(type) {
	case *ir.Task:
		out["resource"] = st.Resource
		out["task_class"] = st.TaskClass
		if st.ResultPath != nil {
			out["result_path"] = *st.ResultPath
		}
		if len(st.Retry) > 0 {
			out["retry_count"] = len(st.Retry)
		}
		if len(st.Catch) > 0 {
			out["catch_count"] = len(st.Catch)
		}
	case *ir.Choice:
		out["branch_count"] = len(st.Branches)
		out["default"] = st.Default
	case *ir.Map:
		out["items_path"] = st.ItemsPath
		out["iterator"] = renderSubMachine(st.Iterator)
	case *ir.Parallel:
		branches := make([]any, len(st.Branches))
		for i, b := range st.Branches {
			branches[i] = renderSubMachine(b)
		}
		out["branches"] = branches
	case *ir.Pass:
		out["result_path"] = st.ResultPath
	case *ir.Wait:
		if st.Seconds != nil {
			out["seconds"] = *st.Seconds
		}
	case *ir.Fail:
		out["error"] = st.Error
		out["cause"] = st.Cause
	}
	return out
}
