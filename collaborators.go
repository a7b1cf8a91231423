package assetcoord

import "context"

// ResourceLoader resolves a (module-name, path) pair shipped with the
// running application into a local URL. An empty string means "not found".
type ResourceLoader interface {
	ResolveLocalAssetURL(moduleName, path string) string
}

// PathURL pairs a bundle-relative path with the URL it resolved to inside a
// fetched remote module's resource manifest.
type PathURL struct {
	Path string
	URL  string
}

// RemoteModuleResources is the manifest reported once a remote module has
// finished downloading.
type RemoteModuleResources interface {
	// ResourceCacheURL returns the cache URL for path, if the module shipped
	// it.
	ResourceCacheURL(path string) (string, bool)
	// AllURLs lists every (path, url) pair in the manifest, used to build a
	// diagnostic error when a requested path is missing.
	AllURLs() []PathURL
}

// RemoteModuleManager asynchronously fetches a named remote module. The
// completion is invoked exactly once, on an arbitrary goroutine, with
// either a manifest or an error.
type RemoteModuleManager interface {
	LoadResources(ctx context.Context, moduleName string, completion func(RemoteModuleResources, error))
}

// Downloader turns a URL under one scheme into raw bytes. The coordination
// core only ever registers one — AssetBytesStore, for its own scheme — it
// does not call Downloader itself; decoding and byte transport belong to
// the AssetLoader/AssetLoaderRegistry ecosystem outside this package.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// AssetLoader turns a resolved URL into a decoded artifact for one (scheme,
// output type) pair. It drives LoaderRequestHandler's lifecycle: the
// manager calls StartLoadIfNeeded once, when a handler is first created
// (consumers that later reuse it do not trigger another call), and Cancel
// once its last consumer drops. The loader reports
// completion asynchronously via AssetsManager.OnLoad.
type AssetLoader interface {
	// Scheme and OutputType identify which requests this loader serves.
	Scheme() string
	OutputType() string

	// CanReuseLoadedAssets reports whether multiple consumers requesting the
	// same (width, height, output type, attached data) may share one
	// LoaderRequestHandler instead of each starting their own load.
	CanReuseLoadedAssets() bool

	// StartLoadIfNeeded begins (or no-ops if already started) the load
	// described by req. Must eventually call req.Manager().OnLoad(req, ...)
	// exactly once, unless canceled first.
	StartLoadIfNeeded(req *LoaderRequestHandler)

	// Cancel aborts an in-flight or not-yet-started load. Idempotent.
	Cancel(req *LoaderRequestHandler)
}

// AssetLoaderRegistry resolves (scheme, output type) to the AssetLoader
// that serves it, and accepts registrations for both AssetLoaders and raw
// Downloaders.
type AssetLoaderRegistry interface {
	Resolve(scheme, outputType string) (AssetLoader, bool)
	RegisterDownloader(scheme string, d Downloader)
	RegisterAssetLoader(loader AssetLoader)
}

// MainThread designates the single goroutine permitted to drive the state
// machine (run performUpdates). IsCurrent must be callable from any
// goroutine; Dispatch must be safe to call from any goroutine and must
// eventually run fn on the designated goroutine.
type MainThread interface {
	IsCurrent() bool
	Dispatch(fn func())
}

// WorkerQueue runs work on a background thread. Async must be safe to call
// from any goroutine.
type WorkerQueue interface {
	Async(fn func())
}

// AssetCatalog supplies expected pixel dimensions for assets bundled with a
// module, keyed by the bundle-relative path.
type AssetCatalog interface {
	SpecsForName(path string) (width, height int, ok bool)
}

// Bundle describes one local module as a source of bundled assets.
type Bundle interface {
	Name() string
	HasRemoteAssets() bool
	// AssetCatalog returns the named catalog (conventionally "res"), if the
	// bundle ships one.
	AssetCatalog(name string) (AssetCatalog, bool)
}

// AssetLoadObserver receives load results. Observable is always delivered,
// even on failure; errMsg is nil on success.
type AssetLoadObserver interface {
	OnLoad(observable *Observable, artifact any, errMsg *string)
}

// Listener is an optional sink notified as the state machine steps.
type Listener interface {
	OnManagedAssetUpdated(snap ManagedAssetSnapshot)
	OnPerformedUpdates()
}

// ManagedAssetSnapshot is an immutable view of a ManagedAsset handed to a
// Listener, so the listener cannot reach back into mutable engine state.
type ManagedAssetSnapshot struct {
	Key           AssetKey
	State         AssetState
	ConsumerCount int
}
