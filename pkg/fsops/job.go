package fsops

import (
	"context"
	"path"
	"sync"
)

type JobKind string

const (
	JobCopy       JobKind = "copy"
	JobMove       JobKind = "move"
	JobDelete     JobKind = "delete"
	JobRename     JobKind = "rename"
	JobCreateFile JobKind = "create-file"
	JobCreateDir  JobKind = "create-dir"
)

type JobStatus int

const (
	StatusPending JobStatus = iota
	StatusRunning
	StatusDone
	StatusFailed
)

func (s JobStatus) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusDone:
		return "done"
	case StatusFailed:
		return "failed"
	default:
		return "pending"
	}
}

// Outcome is the per-source result of a multi-entry job; partial
// operations report each entry instead of one aggregate verdict.
type Outcome struct {
	Source string
	Err    error
}

// Job is one asynchronous filesystem mutation, owned by the Engine.
type Job struct {
	ID          int64
	Kind        JobKind
	Sources     []string
	Destination string

	run func(ctx context.Context, j *Job) error

	mu       sync.Mutex
	status   JobStatus
	err      error
	outcomes []Outcome
	done     chan struct{}
}

func (j *Job) Status() JobStatus {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

func (j *Job) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}

func (j *Job) Outcomes() []Outcome {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]Outcome(nil), j.outcomes...)
}

// Wait blocks until the job has finished.
func (j *Job) Wait() {
	<-j.done
}

// AffectedDirs lists every directory whose listing the job may have
// changed, for invalidation after completion.
func (j *Job) AffectedDirs() []string {
	seen := make(map[string]bool)
	var dirs []string
	add := func(dir string) {
		if dir != "" && !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	for _, src := range j.Sources {
		add(path.Dir(src))
	}
	if j.Destination != "" {
		add(j.Destination)
		add(path.Dir(j.Destination))
	}
	return dirs
}

func (j *Job) setStatus(s JobStatus) {
	j.mu.Lock()
	j.status = s
	j.mu.Unlock()
}

func (j *Job) addOutcome(source string, err error) {
	j.mu.Lock()
	j.outcomes = append(j.outcomes, Outcome{Source: source, Err: err})
	j.mu.Unlock()
}

func (j *Job) finish(err error) {
	j.mu.Lock()
	j.err = err
	if err != nil {
		j.status = StatusFailed
	} else {
		j.status = StatusDone
	}
	j.mu.Unlock()
	close(j.done)
}
