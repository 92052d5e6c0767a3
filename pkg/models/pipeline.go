package models

// Step is a stage of the per-task download pipeline. A run may re-enter the
// pipeline at any step to resume a task whose earlier steps already took
// effect in a previous run.
type Step int

const (
	StepAddRemote Step = iota + 1
	StepAwaitReady
	StepFetchLocal
	StepCleanupRemote
)

func (s Step) String() string {
	switch s {
	case StepAddRemote:
		return "add_remote"
	case StepAwaitReady:
		return "await_remote_ready"
	case StepFetchLocal:
		return "fetch_local"
	case StepCleanupRemote:
		return "cleanup_remote"
	default:
		return "unknown"
	}
}
