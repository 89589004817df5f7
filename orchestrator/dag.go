// Package orchestrator runs command.Command tasks with dependencies and
// per-resource concurrency limits.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"chapterize/command"
)

// ResourceType represents different kinds of capacity a task consumes
type ResourceType string

const (
	ResourceCPU ResourceType = "cpu" // Encoding (parallel)
	ResourceIO  ResourceType = "io"  // Large sequential writes
)

// Task represents a unit of work with dependencies and resource requirements
type Task struct {
	ID           string
	Command      command.Command
	Dependencies []string // IDs of tasks that must complete before this one
	Resource     ResourceType
	Status       TaskStatus
	Error        error
	StartTime    time.Time
	EndTime      time.Time
}

// TaskStatus represents the current state of a task
type TaskStatus int

const (
	TaskPending TaskStatus = iota
	TaskRunning
	TaskCompleted
	TaskFailed
)

func (s TaskStatus) String() string {
	switch s {
	case TaskPending:
		return "pending"
	case TaskRunning:
		return "running"
	case TaskCompleted:
		return "completed"
	case TaskFailed:
		return "failed"
	default:
		return fmt.Sprintf("TaskStatus(%d)", int(s))
	}
}

// Result is the outcome of one task.
type Result struct {
	TaskID     string
	OutputPath string
	Err        error
	Elapsed    time.Duration
}

// Success reports whether the task completed without error.
func (r *Result) Success() bool {
	return r.Err == nil
}

// ResourceConstraint defines limits for a resource type
type ResourceConstraint struct {
	Type     ResourceType
	MaxSlots int // Maximum concurrent tasks for this resource
}

// ErrDependencyFailed is recorded on tasks that never ran because a
// dependency failed.
var ErrDependencyFailed = fmt.Errorf("dependency failed")

// DAGOrchestrator manages task execution with dependencies and resource constraints
type DAGOrchestrator struct {
	mu          sync.Mutex
	tasks       map[string]*Task
	order       []string
	constraints map[ResourceType]int
	activeSlots map[ResourceType]int

	onProgress func(completed, total int, task *Task)
}

// NewDAGOrchestrator creates a new orchestrator with resource constraints.
// Resources without a constraint are unlimited.
func NewDAGOrchestrator(constraints []ResourceConstraint) *DAGOrchestrator {
	limits := make(map[ResourceType]int, len(constraints))
	for _, c := range constraints {
		limits[c.Type] = max(c.MaxSlots, 1)
	}

	return &DAGOrchestrator{
		tasks:       make(map[string]*Task),
		constraints: limits,
		activeSlots: make(map[ResourceType]int),
	}
}

// AddTask adds a task to the orchestrator
func (o *DAGOrchestrator) AddTask(task *Task) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if task.Command == nil {
		return fmt.Errorf("task %s has no command", task.ID)
	}
	if _, exists := o.tasks[task.ID]; exists {
		return fmt.Errorf("task %s already exists", task.ID)
	}

	task.Status = TaskPending
	o.tasks[task.ID] = task
	o.order = append(o.order, task.ID)
	return nil
}

// SetProgressCallback sets a callback invoked after each task finishes.
// It is never called concurrently.
func (o *DAGOrchestrator) SetProgressCallback(callback func(completed, total int, task *Task)) {
	o.onProgress = callback
}

// Execute runs all tasks respecting dependencies and resource constraints.
//
// Task failures do not stop the run; they are reported in the results,
// which follow the order tasks were added. Dependents of a failed task are
// not started and fail with ErrDependencyFailed. Execute only returns an
// error for an invalid graph or when ctx is cancelled, after running tasks
// have exited.
func (o *DAGOrchestrator) Execute(ctx context.Context) ([]*Result, error) {
	if err := o.validateDAG(); err != nil {
		return nil, err
	}

	total := len(o.order)
	doneCh := make(chan *Task, total)
	finished := 0
	running := 0

	for finished < total {
		if ctx.Err() == nil {
			running += o.launchReady(ctx, doneCh)
		}

		finished += o.failBlocked(total, finished)
		if finished >= total {
			break
		}

		if running == 0 {
			// Nothing in flight and nothing startable: cancelled, or a bug.
			if err := ctx.Err(); err != nil {
				return o.results(), err
			}
			return o.results(), fmt.Errorf("orchestrator stalled with %d tasks left", total-finished)
		}

		task := <-doneCh
		running--
		finished++
		o.reportProgress(finished, total, task)
	}

	if err := ctx.Err(); err != nil {
		return o.results(), err
	}
	return o.results(), nil
}

// launchReady starts every pending task whose dependencies completed and
// whose resource has a free slot. It returns the number started.
func (o *DAGOrchestrator) launchReady(ctx context.Context, doneCh chan<- *Task) int {
	o.mu.Lock()
	defer o.mu.Unlock()

	started := 0
	for _, id := range o.order {
		task := o.tasks[id]
		if task.Status != TaskPending || !o.dependenciesMet(task) || !o.tryAcquireResource(task.Resource) {
			continue
		}

		task.Status = TaskRunning
		task.StartTime = time.Now()
		started++
		go o.executeTask(ctx, task, doneCh)
	}
	return started
}

// failBlocked marks pending tasks downstream of a failed task as failed
// and reports them. It returns the number of tasks it failed.
func (o *DAGOrchestrator) failBlocked(total, finished int) int {
	o.mu.Lock()
	var blocked []*Task
	for changed := true; changed; {
		changed = false
		for _, id := range o.order {
			task := o.tasks[id]
			if task.Status == TaskPending && o.hasFailedDependency(task) {
				task.Status = TaskFailed
				task.Error = ErrDependencyFailed
				task.StartTime = time.Now()
				task.EndTime = task.StartTime
				blocked = append(blocked, task)
				changed = true
			}
		}
	}
	o.mu.Unlock()

	for i, task := range blocked {
		o.reportProgress(finished+i+1, total, task)
	}
	return len(blocked)
}

func (o *DAGOrchestrator) reportProgress(completed, total int, task *Task) {
	if o.onProgress != nil {
		o.onProgress(completed, total, task)
	}
}

// dependenciesMet checks if all dependencies of a task are completed
func (o *DAGOrchestrator) dependenciesMet(task *Task) bool {
	for _, depID := range task.Dependencies {
		if o.tasks[depID].Status != TaskCompleted {
			return false
		}
	}
	return true
}

// hasFailedDependency checks if any direct dependency has failed
func (o *DAGOrchestrator) hasFailedDependency(task *Task) bool {
	for _, depID := range task.Dependencies {
		if o.tasks[depID].Status == TaskFailed {
			return true
		}
	}
	return false
}

// tryAcquireResource attempts to acquire a resource slot. Callers hold mu.
func (o *DAGOrchestrator) tryAcquireResource(resourceType ResourceType) bool {
	limit, exists := o.constraints[resourceType]
	if !exists {
		return true
	}

	if o.activeSlots[resourceType] < limit {
		o.activeSlots[resourceType]++
		return true
	}
	return false
}

// executeTask runs a single task
func (o *DAGOrchestrator) executeTask(ctx context.Context, task *Task, doneCh chan<- *Task) {
	err := task.Command.Run(ctx)

	o.mu.Lock()
	task.EndTime = time.Now()
	if err != nil {
		task.Status = TaskFailed
		task.Error = err
	} else {
		task.Status = TaskCompleted
	}
	if o.activeSlots[task.Resource] > 0 {
		o.activeSlots[task.Resource]--
	}
	o.mu.Unlock()

	doneCh <- task
}

func (o *DAGOrchestrator) results() []*Result {
	o.mu.Lock()
	defer o.mu.Unlock()

	results := make([]*Result, 0, len(o.order))
	for _, id := range o.order {
		task := o.tasks[id]
		if task.Status != TaskCompleted && task.Status != TaskFailed {
			continue
		}
		results = append(results, &Result{
			TaskID:     task.ID,
			OutputPath: task.Command.GetOutputPath(),
			Err:        task.Error,
			Elapsed:    task.EndTime.Sub(task.StartTime),
		})
	}
	return results
}

// validateDAG validates the task graph
func (o *DAGOrchestrator) validateDAG() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	// Check all dependencies exist
	for _, id := range o.order {
		for _, depID := range o.tasks[id].Dependencies {
			if _, exists := o.tasks[depID]; !exists {
				return fmt.Errorf("task %s depends on non-existent task %s", id, depID)
			}
		}
	}

	// Check for cycles (simple DFS-based cycle detection)
	visited := make(map[string]bool)
	recStack := make(map[string]bool)

	var hasCycle func(taskID string) bool
	hasCycle = func(taskID string) bool {
		visited[taskID] = true
		recStack[taskID] = true

		for _, depID := range o.tasks[taskID].Dependencies {
			if !visited[depID] {
				if hasCycle(depID) {
					return true
				}
			} else if recStack[depID] {
				return true
			}
		}

		recStack[taskID] = false
		return false
	}

	for _, id := range o.order {
		if !visited[id] && hasCycle(id) {
			return fmt.Errorf("cycle detected in task dependencies")
		}
	}

	return nil
}

// GetStats returns the number of tasks in each state
func (o *DAGOrchestrator) GetStats() map[string]int {
	o.mu.Lock()
	defer o.mu.Unlock()

	stats := map[string]int{"total": len(o.tasks)}
	for _, task := range o.tasks {
		stats[task.Status.String()]++
	}
	return stats
}
