package assetcoord_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/e7canasta/assetflow"
)

// waitFor polls cond until it returns true or the timeout elapses, the way
// framesupplier_test.go polls distributionLoop progress instead of relying
// on a fixed sleep.
func waitFor(cond func() bool, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if cond() {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
}

// fakeObserver records every OnLoad call it receives, in order.
type fakeObserver struct {
	mu    sync.Mutex
	calls []observerCall
}

type observerCall struct {
	observable *assetcoord.Observable
	artifact   any
	errMsg     *string
}

func (o *fakeObserver) OnLoad(observable *assetcoord.Observable, artifact any, errMsg *string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, observerCall{observable: observable, artifact: artifact, errMsg: errMsg})
}

func (o *fakeObserver) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.calls)
}

func (o *fakeObserver) last() (observerCall, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.calls) == 0 {
		return observerCall{}, false
	}
	return o.calls[len(o.calls)-1], true
}

func (o *fakeObserver) snapshot() []observerCall {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]observerCall, len(o.calls))
	copy(out, o.calls)
	return out
}

// fakeResourceLoader resolves (module, path) pairs from an in-memory map.
type fakeResourceLoader struct {
	mu   sync.Mutex
	urls map[string]string
}

func newFakeResourceLoader() *fakeResourceLoader {
	return &fakeResourceLoader{urls: make(map[string]string)}
}

func (f *fakeResourceLoader) set(module, path, url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.urls[module+"|"+path] = url
}

func (f *fakeResourceLoader) ResolveLocalAssetURL(moduleName, path string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.urls[moduleName+"|"+path]
}

// fakeRemoteResources is a minimal RemoteModuleResources manifest.
type fakeRemoteResources struct {
	cacheURLs map[string]string
	all       []assetcoord.PathURL
}

func (r *fakeRemoteResources) ResourceCacheURL(path string) (string, bool) {
	u, ok := r.cacheURLs[path]
	return u, ok
}

func (r *fakeRemoteResources) AllURLs() []assetcoord.PathURL { return r.all }

// fakeRemoteModuleManager lets tests script a sequence of LoadResources
// outcomes, one consumed per call, the way
// framesupplier_test.go scripts a fake worker's responses.
type fakeRemoteModuleManager struct {
	mu    sync.Mutex
	calls int
	// responses is consumed in order across all LoadResources calls
	// (regardless of module name) — enough for this package's single-bundle
	// retry scenario.
	responses []func() (assetcoord.RemoteModuleResources, error)
	async     bool
}

func (f *fakeRemoteModuleManager) push(fn func() (assetcoord.RemoteModuleResources, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, fn)
}

func (f *fakeRemoteModuleManager) LoadResources(_ context.Context, _ string, completion func(assetcoord.RemoteModuleResources, error)) {
	f.mu.Lock()
	f.calls++
	var fn func() (assetcoord.RemoteModuleResources, error)
	if len(f.responses) > 0 {
		fn = f.responses[0]
		f.responses = f.responses[1:]
	}
	async := f.async
	f.mu.Unlock()

	run := func() {
		if fn == nil {
			completion(nil, fmt.Errorf("fakeRemoteModuleManager: no scripted response"))
			return
		}
		res, err := fn()
		completion(res, err)
	}
	if async {
		go run()
	} else {
		run()
	}
}

func (f *fakeRemoteModuleManager) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeCatalog implements AssetCatalog from a fixed map.
type fakeCatalog struct {
	specs map[string][2]int
}

func (c *fakeCatalog) SpecsForName(path string) (int, int, bool) {
	s, ok := c.specs[path]
	if !ok {
		return 0, 0, false
	}
	return s[0], s[1], true
}

// fakeBundle implements Bundle.
type fakeBundle struct {
	name       string
	remote     bool
	catalog    *fakeCatalog
	hasCatalog bool
}

func (b *fakeBundle) Name() string           { return b.name }
func (b *fakeBundle) HasRemoteAssets() bool  { return b.remote }
func (b *fakeBundle) AssetCatalog(name string) (assetcoord.AssetCatalog, bool) {
	if !b.hasCatalog {
		return nil, false
	}
	return b.catalog, true
}

// fakeLoader is a scriptable AssetLoader. When async is true, the load
// result is delivered from a separate goroutine (simulating real decode
// latency); otherwise it completes inline from StartLoadIfNeeded, still on
// whatever goroutine the WorkerQueue dispatched onto.
type fakeLoader struct {
	scheme     string
	outputType string
	reuse      bool
	async      bool
	delay      time.Duration

	result func(req *assetcoord.LoaderRequestHandler) assetcoord.LoadResult

	mu          sync.Mutex
	startCalls  int
	cancelCalls int
	canceled    map[*assetcoord.LoaderRequestHandler]bool
}

func newFakeLoader(scheme, outputType string) *fakeLoader {
	return &fakeLoader{scheme: scheme, outputType: outputType, canceled: make(map[*assetcoord.LoaderRequestHandler]bool)}
}

func (l *fakeLoader) Scheme() string            { return l.scheme }
func (l *fakeLoader) OutputType() string        { return l.outputType }
func (l *fakeLoader) CanReuseLoadedAssets() bool { return l.reuse }

func (l *fakeLoader) StartLoadIfNeeded(req *assetcoord.LoaderRequestHandler) {
	l.mu.Lock()
	l.startCalls++
	l.mu.Unlock()

	run := func() {
		if l.delay > 0 {
			time.Sleep(l.delay)
		}
		l.mu.Lock()
		canceled := l.canceled[req]
		l.mu.Unlock()
		if canceled {
			return
		}
		res := assetcoord.LoadResult{Artifact: "artifact"}
		if l.result != nil {
			res = l.result(req)
		}
		req.Manager().OnLoad(req, res)
	}
	if l.async {
		go run()
	} else {
		run()
	}
}

func (l *fakeLoader) Cancel(req *assetcoord.LoaderRequestHandler) {
	l.mu.Lock()
	l.cancelCalls++
	l.canceled[req] = true
	l.mu.Unlock()
}

func (l *fakeLoader) startCallCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.startCalls
}

func (l *fakeLoader) cancelCallCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancelCalls
}

// newTestManager wires real SerialMainThread/ErrgroupWorkerQueue (not
// inline fakes) because scheduleAssetUpdate and the load-flush path
// dispatch while already holding AssetsManager's lock; a worker queue that
// ran fn synchronously in the caller's goroutine would deadlock against
// itself. See workerqueue.go.
func newTestManager(t interface{ Cleanup(func()) }, cfg assetcoord.Config) (*assetcoord.AssetsManager, *assetcoord.SerialMainThread) {
	mt := assetcoord.NewSerialMainThread()
	cfg.MainThread = mt
	if cfg.WorkerQueue == nil {
		cfg.WorkerQueue = assetcoord.NewErrgroupWorkerQueue()
	}
	if cfg.LoaderRegistry == nil {
		cfg.LoaderRegistry = assetcoord.NewLoaderRegistry()
	}
	t.Cleanup(mt.Stop)
	return assetcoord.NewAssetsManager(cfg), mt
}
