package fdcli

import (
	"context"
	"errors"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"oss.terrastruct.com/util-go/xmain"
)

type watcherOpts struct {
	inputPath  string
	outputPath string
	// layout lays out inputPath into outputPath once
	layout func(ctx context.Context) error
}

// watcher lays out the input again whenever it changes.
type watcher struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	ms *xmain.State
	watcherOpts

	layoutCh chan struct{}
	// layoutDone receives after every layout, for tests
	layoutDone chan error

	fw *fsnotify.Watcher

	closeOnce sync.Once

	errMu sync.Mutex
	err   error
}

func newWatcher(ctx context.Context, ms *xmain.State, opts watcherOpts) (*watcher, error) {
	ctx, cancel := context.WithCancel(ctx)

	w := &watcher{
		ctx:    ctx,
		cancel: cancel,

		ms:          ms,
		watcherOpts: opts,

		layoutCh: make(chan struct{}, 1),
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		cancel()
		return nil, err
	}
	w.fw = fw
	return w, nil
}

func (w *watcher) run() error {
	defer w.close()

	w.goFunc(w.watchLoop)
	w.goFunc(w.layoutLoop)

	w.wg.Wait()
	w.close()
	if errors.Is(w.err, context.Canceled) {
		return nil
	}
	return w.err
}

func (w *watcher) close() {
	w.closeOnce.Do(func() {
		w.cancel()
		err := w.fw.Close()
		w.setErr(err)
	})
}

func (w *watcher) setErr(err error) {
	w.errMu.Lock()
	if w.err == nil {
		w.err = err
	}
	w.errMu.Unlock()
}

func (w *watcher) goFunc(fn func(context.Context) error) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer w.cancel()

		err := fn(w.ctx)
		w.setErr(err)
	}()
}

// watchLoop batches bursts of events on the input into one layout request. Editors
// often write a file as a chmod, write, chmod sequence.
func (w *watcher) watchLoop(ctx context.Context) error {
	lastModified := make(map[string]time.Time)

	mt, err := w.ensureAddWatch(ctx, w.inputPath)
	if err != nil {
		return err
	}
	lastModified[w.inputPath] = mt
	w.ms.Log.Info.Printf("laying out %v to %v on every change...", w.ms.HumanPath(w.inputPath), w.ms.HumanPath(w.outputPath))
	w.requestLayout()

	eatBurstTimer := time.NewTimer(0)
	<-eatBurstTimer.C
	// fsnotify misses events, e.g. when the file is replaced by a rename
	pollTicker := time.NewTicker(time.Second * 10)
	defer pollTicker.Stop()

	changed := make(map[string]struct{})

	for {
		select {
		case <-pollTicker.C:
			missed, err := w.pollMissed(ctx, lastModified)
			if err != nil {
				return err
			}
			if missed {
				w.requestLayout()
			}
		case ev, ok := <-w.fw.Events:
			if !ok {
				return errors.New("fsnotify watcher closed")
			}
			w.ms.Log.Debug.Printf("received file system event %v", ev)
			mt, err := w.ensureAddWatch(ctx, ev.Name)
			if err != nil {
				return err
			}
			if ev.Op == fsnotify.Chmod {
				if mt.Equal(lastModified[ev.Name]) {
					// Benign Chmod.
					// See https://github.com/fsnotify/fsnotify/issues/15
					continue
				}
			}
			lastModified[ev.Name] = mt
			changed[ev.Name] = struct{}{}
			eatBurstTimer.Reset(time.Millisecond * 16)
		case <-eatBurstTimer.C:
			if len(changed) == 0 {
				continue
			}
			w.ms.Log.Info.Printf("detected change in %s: laying out again...", w.humanPaths(changed))
			for k := range changed {
				delete(changed, k)
			}
			w.requestLayout()
		case err, ok := <-w.fw.Errors:
			if !ok {
				return errors.New("fsnotify watcher closed")
			}
			w.ms.Log.Error.Printf("fsnotify error: %v", err)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// pollMissed re-adds every watch and reports whether a modification time moved
// without an event.
func (w *watcher) pollMissed(ctx context.Context, lastModified map[string]time.Time) (bool, error) {
	missed := false
	for _, watched := range w.fw.WatchList() {
		mt, err := w.ensureAddWatch(ctx, watched)
		if err != nil {
			return false, err
		}
		if prev, ok := lastModified[watched]; !ok || !mt.Equal(prev) {
			missed = true
			lastModified[watched] = mt
		}
	}
	return missed, nil
}

func (w *watcher) humanPaths(paths map[string]struct{}) string {
	var l []string
	for p := range paths {
		l = append(l, w.ms.HumanPath(p))
	}
	sort.Strings(l)
	return strings.Join(l, ", ")
}

func (w *watcher) requestLayout() {
	select {
	case w.layoutCh <- struct{}{}:
	default:
	}
}

func (w *watcher) ensureAddWatch(ctx context.Context, path string) (time.Time, error) {
	interval := time.Millisecond * 16
	tc := time.NewTimer(0)
	<-tc.C
	for {
		mt, err := w.addWatch(path)
		if err == nil {
			return mt, nil
		}
		if interval >= time.Second {
			w.ms.Log.Error.Printf("failed to watch %q: %v (retrying in %v)", w.ms.HumanPath(path), err, interval)
		}

		tc.Reset(interval)
		select {
		case <-tc.C:
			if interval < time.Second {
				interval = time.Second
			}
			if interval < time.Second*16 {
				interval *= 2
			}
		case <-ctx.Done():
			return time.Time{}, ctx.Err()
		}
	}
}

func (w *watcher) addWatch(path string) (time.Time, error) {
	err := w.fw.Add(path)
	if err != nil {
		return time.Time{}, err
	}
	d, err := os.Stat(path)
	if err != nil {
		return time.Time{}, err
	}
	return d.ModTime(), nil
}

// layoutLoop runs a layout per request. Failed layouts are logged and the loop
// waits for the next change.
func (w *watcher) layoutLoop(ctx context.Context) error {
	first := true
	for {
		select {
		case <-w.layoutCh:
		case <-ctx.Done():
			return ctx.Err()
		}

		prefix := ""
		if !first {
			prefix = "re"
		}
		first = false

		err := w.layout(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return ctx.Err()
			}
			w.ms.Log.Error.Printf("failed to %slayout %s: %v", prefix, w.ms.HumanPath(w.inputPath), err)
		}
		if w.layoutDone != nil {
			select {
			case w.layoutDone <- err:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
