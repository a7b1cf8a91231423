package assetcoord

import (
	"runtime"
	"sync"
)

// SerialMainThread is the default MainThread: a single dedicated goroutine
// draining a task channel, the way framebus.Bus drains its delivery queue.
// Embedding applications with a real main-thread concept (a UI event loop,
// a render thread) should supply their own MainThread tied to it instead —
// this default exists so AssetsManager has somewhere to run without one.
type SerialMainThread struct {
	tasks chan func()

	mu       sync.Mutex
	goroutID string
	started  bool
}

// NewSerialMainThread starts the dedicated goroutine and returns a handle to
// it. Call Stop to shut it down.
func NewSerialMainThread() *SerialMainThread {
	t := &SerialMainThread{tasks: make(chan func(), 256)}
	ready := make(chan struct{})
	go func() {
		t.mu.Lock()
		t.goroutID = currentGoroutineID()
		t.started = true
		t.mu.Unlock()
		close(ready)
		for fn := range t.tasks {
			fn()
		}
	}()
	<-ready
	return t
}

// IsCurrent reports whether the calling goroutine is the dedicated one.
//
// Go deliberately exposes no public goroutine-ID API; this parses it out of
// runtime.Stack, the same trick net/http and several tracing libraries use
// when they need a best-effort goroutine identity. It is not meant to be
// bulletproof for arbitrary production use — only good enough for a default
// MainThread an embedder can replace with their actual main-thread concept.
func (t *SerialMainThread) IsCurrent() bool {
	t.mu.Lock()
	id := t.goroutID
	t.mu.Unlock()
	return id != "" && id == currentGoroutineID()
}

// Dispatch queues fn to run on the dedicated goroutine. Safe to call from
// any goroutine, including the dedicated one itself (fn runs after whatever
// is already queued ahead of it).
func (t *SerialMainThread) Dispatch(fn func()) {
	t.tasks <- fn
}

// Stop closes the task channel, letting the dedicated goroutine exit once
// it drains whatever is already queued.
func (t *SerialMainThread) Stop() {
	close(t.tasks)
}

func currentGoroutineID() string {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	// "goroutine 123 [running]:\n..."
	s := string(buf[:n])
	const prefix = "goroutine "
	if len(s) <= len(prefix) {
		return ""
	}
	s = s[len(prefix):]
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}
