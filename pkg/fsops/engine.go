package fsops

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/karufm/karu/pkg/files"
	"github.com/karufm/karu/pkg/trash"
)

// Engine executes clipboard and file operations as asynchronous jobs.
// A single worker drains the queue, which serializes jobs touching the
// same directory: listings are only invalidated after a job's
// completion notification, never while it still runs.
type Engine struct {
	store     files.Store
	bin       trash.Bin
	clipboard Clipboard
	queue     chan *Job
	onDone    func(*Job)
	nextID    int64
	log       *logrus.Entry
}

// NewEngine starts the engine's worker. onDone is invoked for every
// finished job; callers queue it onto their event loop for listing
// invalidation and notifications.
func NewEngine(store files.Store, bin trash.Bin, onDone func(*Job)) *Engine {
	e := &Engine{
		store:  store,
		bin:    bin,
		queue:  make(chan *Job, 16),
		onDone: onDone,
		log:    logrus.WithField("component", "fsops"),
	}
	go e.loop()
	return e
}

func (e *Engine) Close() {
	close(e.queue)
}

func (e *Engine) Clipboard() *Clipboard {
	return &e.clipboard
}

// Copy replaces the clipboard; the filesystem is untouched.
func (e *Engine) Copy(entries []files.Entry) {
	e.clipboard.Set(entries, ClipCopy)
}

// Cut replaces the clipboard; entries are marked pending-removal until
// paste completes or the clipboard is cleared.
func (e *Engine) Cut(entries []files.Entry) {
	e.clipboard.Set(entries, ClipCut)
}

// Paste materializes the clipboard into targetDir. Name collisions
// fail the affected entry with ErrConflict unless overwrite is set;
// nothing is ever silently replaced. A cut clipboard is cleared only
// after every entry moved successfully.
func (e *Engine) Paste(targetDir string, overwrite bool) (*Job, error) {
	if e.clipboard.IsEmpty() {
		return nil, files.NewError(files.ErrValidation, targetDir, errors.New("clipboard is empty"))
	}
	entries := e.clipboard.Entries()
	mode := e.clipboard.Mode()
	sources := make([]string, len(entries))
	for i, entry := range entries {
		sources[i] = entry.Path
	}
	kind := JobCopy
	if mode == ClipCut {
		kind = JobMove
	}
	job := e.newJob(kind, sources, targetDir)
	job.run = func(ctx context.Context, j *Job) error {
		failed := 0
		for _, src := range j.Sources {
			dst := path.Join(targetDir, path.Base(src))
			err := e.transferOne(ctx, src, dst, mode == ClipCut, overwrite)
			j.addOutcome(src, err)
			if err != nil {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%s: %d of %d entries failed", j.Kind, failed, len(j.Sources))
		}
		if mode == ClipCut {
			e.clipboard.Clear()
		}
		return nil
	}
	e.enqueue(job)
	return job, nil
}

// Move transfers entries into destDir directly, with paste's conflict
// and cross-filesystem semantics.
func (e *Engine) Move(entries []files.Entry, destDir string, overwrite bool) *Job {
	sources := make([]string, len(entries))
	for i, entry := range entries {
		sources[i] = entry.Path
	}
	job := e.newJob(JobMove, sources, destDir)
	job.run = func(ctx context.Context, j *Job) error {
		failed := 0
		for _, src := range j.Sources {
			dst := path.Join(destDir, path.Base(src))
			err := e.transferOne(ctx, src, dst, true, overwrite)
			j.addOutcome(src, err)
			if err != nil {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("move: %d of %d entries failed", failed, len(j.Sources))
		}
		return nil
	}
	e.enqueue(job)
	return job
}

// Delete moves entries to the trash bin, one outcome per entry.
// Permanent deletion is never a fallback: an unavailable bin fails the
// entry with a trash error.
func (e *Engine) Delete(entries []files.Entry) *Job {
	sources := make([]string, len(entries))
	for i, entry := range entries {
		sources[i] = entry.Path
	}
	job := e.newJob(JobDelete, sources, "")
	job.run = func(ctx context.Context, j *Job) error {
		failed := 0
		for _, src := range j.Sources {
			if err := ctx.Err(); err != nil {
				return err
			}
			err := e.bin.Trash(src)
			if err != nil && errors.Is(err, trash.ErrUnavailable) {
				err = files.NewError(files.ErrTrashUnavailable, src, err)
			}
			j.addOutcome(src, err)
			if err != nil {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("delete: %d of %d entries failed", failed, len(j.Sources))
		}
		return nil
	}
	e.enqueue(job)
	return job
}

// Rename validates newName synchronously, then renames asynchronously.
func (e *Engine) Rename(entry files.Entry, newName string) (*Job, error) {
	if err := validateName(newName); err != nil {
		return nil, err
	}
	newPath := path.Join(entry.DirPath(), newName)
	if newPath == entry.Path {
		return nil, files.NewError(files.ErrValidation, newPath, errors.New("name is unchanged"))
	}
	if _, err := e.store.Stat(newPath); err == nil {
		return nil, files.NewError(files.ErrConflict, newPath, errors.New("an entry with this name already exists"))
	}
	job := e.newJob(JobRename, []string{entry.Path}, newPath)
	job.run = func(ctx context.Context, j *Job) error {
		return e.store.Rename(ctx, entry.Path, newPath)
	}
	e.enqueue(job)
	return job, nil
}

// CreateFile creates an empty file named name in dir. An existing
// sibling fails with ErrExists unless force is set and the sibling is
// a plain file.
func (e *Engine) CreateFile(dir, name string, force bool) (*Job, error) {
	newPath, err := e.validateCreate(dir, name, force, files.KindFile)
	if err != nil {
		return nil, err
	}
	job := e.newJob(JobCreateFile, nil, newPath)
	job.run = func(ctx context.Context, j *Job) error {
		err := e.store.CreateFile(ctx, newPath)
		if force && files.KindOf(err) == files.ErrExists {
			return nil
		}
		return err
	}
	e.enqueue(job)
	return job, nil
}

// CreateDir is CreateFile's directory counterpart.
func (e *Engine) CreateDir(dir, name string, force bool) (*Job, error) {
	newPath, err := e.validateCreate(dir, name, force, files.KindDirectory)
	if err != nil {
		return nil, err
	}
	job := e.newJob(JobCreateDir, nil, newPath)
	job.run = func(ctx context.Context, j *Job) error {
		err := e.store.CreateDir(ctx, newPath)
		if force && files.KindOf(err) == files.ErrExists {
			return nil
		}
		return err
	}
	e.enqueue(job)
	return job, nil
}

// transferOne copies or moves a single tree to dst. Moves try rename
// first and fall back to copy-then-delete-source across filesystems;
// a partially written destination is removed before the error
// surfaces, leaving the source untouched.
func (e *Engine) transferOne(ctx context.Context, src, dst string, move, overwrite bool) error {
	if dst == src {
		// A paste into the entry's own directory. Overwriting here
		// would remove the source itself.
		return files.NewError(files.ErrValidation, dst, errors.New("source and destination are the same"))
	}
	if _, err := e.store.Stat(dst); err == nil {
		if !overwrite {
			return files.NewError(files.ErrConflict, dst, errors.New("destination already exists"))
		}
		if err = e.store.RemoveTree(ctx, dst); err != nil {
			return err
		}
	}
	if move {
		err := e.store.Rename(ctx, src, dst)
		if err == nil || files.KindOf(err) != files.ErrCrossDevice {
			return err
		}
		if err = e.store.CopyTree(ctx, src, dst, nil); err != nil {
			_ = e.store.RemoveTree(ctx, dst)
			return err
		}
		return e.store.RemoveTree(ctx, src)
	}
	return e.store.CopyTree(ctx, src, dst, nil)
}

func (e *Engine) validateCreate(dir, name string, force bool, kind files.Kind) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	newPath := path.Join(dir, name)
	if existing, err := e.store.Stat(newPath); err == nil {
		if !force || existing.Kind != kind {
			return "", files.NewError(files.ErrExists, newPath, errors.New("an entry with this name already exists"))
		}
	}
	return newPath, nil
}

func (e *Engine) newJob(kind JobKind, sources []string, destination string) *Job {
	e.nextID++
	return &Job{
		ID:          e.nextID,
		Kind:        kind,
		Sources:     sources,
		Destination: destination,
		done:        make(chan struct{}),
	}
}

func (e *Engine) enqueue(job *Job) {
	e.queue <- job
}

func (e *Engine) loop() {
	for job := range e.queue {
		job.setStatus(StatusRunning)
		log := e.log.WithFields(logrus.Fields{"job": job.ID, "kind": job.Kind})
		log.Debug("job started")
		err := job.run(context.Background(), job)
		job.finish(err)
		if err != nil {
			log.WithError(err).Warn("job failed")
		} else {
			log.Debug("job done")
		}
		if e.onDone != nil {
			e.onDone(job)
		}
	}
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return files.NewError(files.ErrValidation, name, errors.New("name must not be empty"))
	}
	if strings.ContainsRune(name, '/') {
		return files.NewError(files.ErrValidation, name, errors.New("name must not contain a path separator"))
	}
	if name == "." || name == ".." {
		return files.NewError(files.ErrValidation, name, errors.New("name is reserved"))
	}
	return nil
}
