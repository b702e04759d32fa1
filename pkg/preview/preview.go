package preview

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/karufm/karu/pkg/files"
	"github.com/karufm/karu/pkg/termcap"
)

type StateKind int

const (
	KindNotApplicable StateKind = iota
	KindLoading
	KindText
	KindImage
	KindError
)

func (k StateKind) String() string {
	switch k {
	case KindLoading:
		return "loading"
	case KindText:
		return "text"
	case KindImage:
		return "image"
	case KindError:
		return "error"
	default:
		return "not-applicable"
	}
}

// State is the immutable preview snapshot for one request id. Only the
// highest id's result is ever published; everything else is discarded.
type State struct {
	Kind      StateKind
	RequestID uint64
	Path      string

	// KindText
	Lines     []string
	Truncated bool

	// KindImage
	Payload  []byte
	Protocol termcap.Capability
	Format   string
	Width    int
	Height   int

	// KindError, and a short note for KindNotApplicable
	Reason string
}

// Options bound the pipeline's resource usage.
type Options struct {
	MaxTextBytes  int
	MaxTextLines  int
	MaxImageBytes int64
	MaxImageDim   int
	CellWidth     int
	CellHeight    int
	CacheSize     int
	Colorize      bool
}

func DefaultOptions() Options {
	return Options{
		MaxTextBytes:  64 * 1024,
		MaxTextLines:  256,
		MaxImageBytes: 64 * 1024 * 1024,
		MaxImageDim:   8192,
		CellWidth:     8,
		CellHeight:    16,
		CacheSize:     16,
		Colorize:      true,
	}
}

// Pipeline produces text or protocol-encoded image previews for the
// selected entry. Decode and encode run off the input-handling path; a
// new request supersedes and cancels any in-flight one.
type Pipeline struct {
	store      files.Store
	capability termcap.Capability
	opts       Options
	publish    func(State)
	log        *logrus.Entry

	mu       sync.Mutex
	latestID uint64
	cancel   context.CancelFunc
	cache    *cache
}

// NewPipeline wires the pipeline with a fixed capability so tests can
// pin the protocol. publish receives asynchronous results and must
// queue them onto the caller's event loop.
func NewPipeline(store files.Store, capability termcap.Capability, publish func(State), opts Options) *Pipeline {
	return &Pipeline{
		store:      store,
		capability: capability,
		opts:       opts,
		publish:    publish,
		log:        logrus.WithField("component", "preview"),
		cache:      newCache(opts.CacheSize),
	}
}

func (p *Pipeline) Capability() termcap.Capability {
	return p.capability
}

// Request starts a preview for entry and returns the immediately known
// state: a final one when it can be decided synchronously (directory,
// cache hit, unsupported), otherwise Loading while a worker builds the
// result.
func (p *Pipeline) Request(entry files.Entry, paneCols, paneRows int) State {
	p.mu.Lock()
	p.latestID++
	id := p.latestID
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()

	switch entry.Kind {
	case files.KindDirectory, files.KindSymlink:
		return State{Kind: KindNotApplicable, RequestID: id, Path: entry.Path, Reason: entry.Kind.String()}
	}

	if isImageName(entry.Name) && p.capability == termcap.None {
		return State{Kind: KindNotApplicable, RequestID: id, Path: entry.Path, Reason: "no image protocol"}
	}

	if state, ok := p.cache.get(cacheKey(entry, paneCols, paneRows), entry.ModifiedAt); ok {
		state.RequestID = id
		return state
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.mu.Lock()
	p.cancel = cancel
	p.mu.Unlock()

	go p.build(ctx, id, entry, paneCols, paneRows)
	return State{Kind: KindLoading, RequestID: id, Path: entry.Path}
}

// build runs on a worker goroutine and publishes at most one state.
func (p *Pipeline) build(ctx context.Context, id uint64, entry files.Entry, paneCols, paneRows int) {
	var state State
	if isImageName(entry.Name) {
		state = p.buildImage(ctx, entry, paneCols, paneRows)
	} else {
		state = p.buildText(ctx, entry)
	}
	state.RequestID = id
	state.Path = entry.Path

	if ctx.Err() != nil {
		return
	}
	p.mu.Lock()
	stale := id != p.latestID
	p.mu.Unlock()
	if stale {
		return
	}
	if state.Kind == KindText || state.Kind == KindImage {
		p.cache.put(cacheKey(entry, paneCols, paneRows), entry.ModifiedAt, state)
	}
	if p.publish != nil {
		p.publish(state)
	}
}

func errorState(err error) State {
	return State{Kind: KindError, Reason: err.Error()}
}

func cacheKey(entry files.Entry, paneCols, paneRows int) string {
	return fmt.Sprintf("%s\x00%d\x00%dx%d", entry.Path, entry.Size, paneCols, paneRows)
}
