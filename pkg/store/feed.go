package store

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/vanderheijden86/famtree/pkg/debug"
	"github.com/vanderheijden86/famtree/pkg/watcher"
)

// Feed delivers full snapshots of the member collection.
type Feed interface {
	Subscribe(ctx context.Context) (<-chan Snapshot, error)
	Close() error
}

// FeedOption configures a WatchFeed.
type FeedOption func(*WatchFeed)

// WithDebounce sets how long the feed waits for writes to settle.
func WithDebounce(d time.Duration) FeedOption {
	return func(f *WatchFeed) { f.debounce = d }
}

// WithPolling forces stat polling at interval instead of fsnotify.
func WithPolling(interval time.Duration) FeedOption {
	return func(f *WatchFeed) {
		f.forcePoll = true
		f.pollInterval = interval
	}
}

// WithErrorHandler receives reload and watch errors. The default logs a
// warning.
func WithErrorHandler(fn func(error)) FeedOption {
	return func(f *WatchFeed) { f.onError = fn }
}

// WithClock overrides the LoadedAt stamp source.
func WithClock(now func() time.Time) FeedOption {
	return func(f *WatchFeed) { f.now = now }
}

// WatchFeed turns a Source into a Feed by reloading it whenever its files
// change. The first snapshot is sent immediately. Later snapshots are sent
// in load order; a consumer that falls behind only ever sees the newest
// pending one. Reloads whose content is unchanged are not sent.
type WatchFeed struct {
	src          Source
	debounce     time.Duration
	pollInterval time.Duration
	forcePoll    bool
	onError      func(error)
	now          func() time.Time

	mu         sync.Mutex
	subscribed bool
	closed     bool
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewFeed creates a feed over src.
func NewFeed(src Source, opts ...FeedOption) *WatchFeed {
	f := &WatchFeed{
		src:      src,
		debounce: watcher.DefaultDebounceDuration,
		onError: func(err error) {
			log.Printf("warning: family feed: %v", err)
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Subscribe loads the first snapshot and starts watching. The channel is
// closed when ctx ends or Close is called. A feed has one subscriber.
func (f *WatchFeed) Subscribe(ctx context.Context) (<-chan Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, ErrClosed
	}
	if f.subscribed {
		return nil, ErrSubscribed
	}

	first, err := f.load(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	wopts := []watcher.Option{
		watcher.WithDebounceDuration(f.debounce),
		watcher.WithCompanions(f.src.Companions()...),
		watcher.WithOnError(f.onError),
	}
	if f.forcePoll {
		wopts = append(wopts, watcher.WithForcePoll(true), watcher.WithPollInterval(f.pollInterval))
	}
	w, err := watcher.New(f.src.Path(), wopts...)
	if err != nil {
		cancel()
		return nil, err
	}
	if err := w.Start(ctx); err != nil {
		cancel()
		return nil, err
	}

	out := make(chan Snapshot, 1)
	out <- first
	f.subscribed = true
	f.cancel = cancel
	f.done = make(chan struct{})

	go f.run(ctx, w, out, first.Version)
	return out, nil
}

func (f *WatchFeed) run(ctx context.Context, w *watcher.Watcher, out chan Snapshot, lastVersion string) {
	defer close(f.done)
	defer close(out)
	defer w.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.Changed():
			snap, err := f.load(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				f.onError(err)
				continue
			}
			if snap.Version == lastVersion {
				debug.Log("store: %s changed on disk, content unchanged", f.src.Path())
				continue
			}
			lastVersion = snap.Version
			debug.Log("store: new snapshot %s (%d members)", snap.Version, snap.Len())
			offer(out, snap)
		}
	}
}

// offer replaces any unread snapshot with s. Only run sends on out, so
// after draining there is always room.
func offer(out chan Snapshot, s Snapshot) {
	for {
		select {
		case out <- s:
			return
		default:
		}
		select {
		case <-out:
		default:
		}
	}
}

func (f *WatchFeed) load(ctx context.Context) (Snapshot, error) {
	members, err := f.src.Load(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return NewSnapshot(members, f.src.Path(), f.now()), nil
}

// Close stops watching and waits for the channel to close.
func (f *WatchFeed) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	cancel, done := f.cancel, f.done
	f.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	return nil
}
