// Package job gives every batch job the same shape: a name, a run that
// returns per-item counters, and a runner that logs and measures it.
package job

import "context"

// Job names double as console commands.
const (
	GenerateRepeatingTasks     = "generate-repeating-tasks"
	CheckTaskDeadlines         = "check-task-deadlines"
	SendScheduledNotifications = "send-scheduled-notifications"
	SendUnreadDigests          = "send-unread-digests"
	AutoArchiveTasks           = "auto-archive-tasks"
	CalculateProjectMetrics    = "calculate-project-metrics"
)

// Names lists every schedulable job in run order.
func Names() []string {
	return []string{
		GenerateRepeatingTasks,
		CheckTaskDeadlines,
		SendScheduledNotifications,
		SendUnreadDigests,
		AutoArchiveTasks,
		CalculateProjectMetrics,
	}
}

// Result counts what happened to the items a job looked at. Failed items were
// logged and skipped; they do not fail the job.
type Result struct {
	Processed int
	Failed    int
	Skipped   int
}

func (r *Result) Add(other Result) {
	r.Processed += other.Processed
	r.Failed += other.Failed
	r.Skipped += other.Skipped
}

type Job interface {
	Name() string
	Run(ctx context.Context) (Result, error)
}

type funcJob struct {
	name string
	fn   func(ctx context.Context) (Result, error)
}

// Func adapts a function to Job.
func Func(name string, fn func(ctx context.Context) (Result, error)) Job {
	return &funcJob{name: name, fn: fn}
}

func (j *funcJob) Name() string { return j.name }

func (j *funcJob) Run(ctx context.Context) (Result, error) { return j.fn(ctx) }
