// Command assetflowdemo wires fake collaborators into an AssetsManager and
// drives it through the engine's main scenarios (URL loads, a local-path
// miss, a remote-module retry, reuse coalescing, and pause/flush batching)
// so the coordination core can be exercised outside a test binary.
package main

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/e7canasta/assetflow"
)

type demoLoader struct {
	scheme     string
	outputType string
	reuse      bool
	delay      time.Duration
}

func (l *demoLoader) Scheme() string              { return l.scheme }
func (l *demoLoader) OutputType() string           { return l.outputType }
func (l *demoLoader) CanReuseLoadedAssets() bool   { return l.reuse }

func (l *demoLoader) StartLoadIfNeeded(req *assetcoord.LoaderRequestHandler) {
	go func() {
		if l.delay > 0 {
			time.Sleep(l.delay)
		}
		req.Manager().OnLoad(req, assetcoord.LoadResult{Artifact: "decoded:" + req.URL()})
	}()
}

func (l *demoLoader) Cancel(req *assetcoord.LoaderRequestHandler) {
	slog.Debug("load canceled", "url", req.URL())
}

type demoResourceLoader struct {
	urls map[string]string
}

func (r *demoResourceLoader) ResolveLocalAssetURL(moduleName, path string) string {
	return r.urls[moduleName+"|"+path]
}

type demoRemoteResources struct {
	cacheURLs map[string]string
}

func (r *demoRemoteResources) ResourceCacheURL(path string) (string, bool) {
	u, ok := r.cacheURLs[path]
	return u, ok
}

func (r *demoRemoteResources) AllURLs() []assetcoord.PathURL {
	out := make([]assetcoord.PathURL, 0, len(r.cacheURLs))
	for p, u := range r.cacheURLs {
		out = append(out, assetcoord.PathURL{Path: p, URL: u})
	}
	return out
}

// demoRemoteModuleManager fails the first fetch for "dlc" and succeeds on
// every subsequent one, to exercise S3's retry path.
type demoRemoteModuleManager struct {
	mu       sync.Mutex
	attempts map[string]int
}

func (r *demoRemoteModuleManager) LoadResources(_ context.Context, moduleName string, completion func(assetcoord.RemoteModuleResources, error)) {
	r.mu.Lock()
	r.attempts[moduleName]++
	attempt := r.attempts[moduleName]
	r.mu.Unlock()

	go func() {
		time.Sleep(20 * time.Millisecond)
		if attempt == 1 {
			completion(nil, errFirstFetch)
			return
		}
		completion(&demoRemoteResources{cacheURLs: map[string]string{"skin.png": "https://cdn.example/dlc/skin.png"}}, nil)
	}()
}

var errFirstFetch = slogError("demo: transient fetch failure")

type slogError string

func (e slogError) Error() string { return string(e) }

type demoObserver struct {
	name string
}

func (o *demoObserver) OnLoad(observable *assetcoord.Observable, artifact any, errMsg *string) {
	if errMsg != nil {
		slog.Warn("load failed", "observer", o.name, "key", observable.Key().String(), "err", *errMsg)
		return
	}
	slog.Info("load succeeded", "observer", o.name, "key", observable.Key().String(), "artifact", artifact)
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})))

	registry := assetcoord.NewLoaderRegistry()
	registry.RegisterAssetLoader(&demoLoader{scheme: "https", outputType: "Image", reuse: true, delay: 30 * time.Millisecond})
	registry.RegisterAssetLoader(&demoLoader{scheme: "file", outputType: "Image"})

	mgr := assetcoord.NewAssetsManager(assetcoord.Config{
		LoaderRegistry: registry,
		ResourceLoader: &demoResourceLoader{urls: map[string]string{
			"core": "file:///assets/core/logo.png",
		}},
		RemoteModuleManager: &demoRemoteModuleManager{attempts: make(map[string]int)},
	})
	mgr.RegisterBundle(coreBundle{})
	mgr.RegisterBundle(dlcBundle{})

	// S1: URL happy path.
	mgr.AddAssetLoadObserver(assetcoord.NewURLAssetKey("https://cdn.example/banner.png"),
		&demoObserver{name: "banner-widget"}, context.Background(), "Image", 256, 96, nil)

	// S2: local miss — "missing.png" was never registered with the
	// resource loader, so core's resolution fails permanently.
	mgr.AddAssetLoadObserver(assetcoord.NewBundleAssetKey("core", "missing.png"),
		&demoObserver{name: "splash-screen"}, context.Background(), "Image", 0, 0, nil)

	// S3: remote retry — "dlc" has remote assets; the first fetch fails,
	// the second (triggered by adding a second observer) succeeds.
	skinKey := assetcoord.NewBundleAssetKey("dlc", "skin.png")
	mgr.AddAssetLoadObserver(skinKey, &demoObserver{name: "inventory"}, context.Background(), "Image", 64, 64, nil)
	time.Sleep(60 * time.Millisecond)
	mgr.AddAssetLoadObserver(skinKey, &demoObserver{name: "preview-pane"}, context.Background(), "Image", 64, 64, nil)

	// S4: reuse coalescing — two consumers, same request shape, same key.
	sharedKey := assetcoord.NewURLAssetKey("https://cdn.example/shared-icon.png")
	mgr.AddAssetLoadObserver(sharedKey, &demoObserver{name: "toolbar"}, context.Background(), "Image", 32, 32, "icon")
	mgr.AddAssetLoadObserver(sharedKey, &demoObserver{name: "sidebar"}, context.Background(), "Image", 32, 32, "icon")

	// S6: pause batching — three more loads queued under one pause window.
	mgr.BeginPauseUpdates()
	for i, path := range []string{"a.png", "b.png", "c.png"} {
		mgr.AddAssetLoadObserver(assetcoord.NewURLAssetKey("https://cdn.example/batch/"+path),
			&demoObserver{name: "batch-" + string(rune('a'+i))}, context.Background(), "Image", 16, 16, nil)
	}
	mgr.EndPauseUpdates()

	time.Sleep(400 * time.Millisecond)
	slog.Info("demo complete", "stats", mgr.Stats())
}

type coreBundle struct{}

func (coreBundle) Name() string          { return "core" }
func (coreBundle) HasRemoteAssets() bool { return false }
func (coreBundle) AssetCatalog(string) (assetcoord.AssetCatalog, bool) { return nil, false }

type dlcBundle struct{}

func (dlcBundle) Name() string          { return "dlc" }
func (dlcBundle) HasRemoteAssets() bool { return true }
func (dlcBundle) AssetCatalog(string) (assetcoord.AssetCatalog, bool) { return nil, false }
