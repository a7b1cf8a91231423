package assetcoord

import "sync"

// LoaderRegistry is the default AssetLoaderRegistry: a map keyed by
// (scheme, output type), plus a side table of registered Downloaders for
// AssetLoader implementations that only know how to decode, not fetch.
type LoaderRegistry struct {
	mu          sync.RWMutex
	loaders     map[string]AssetLoader
	downloaders map[string]Downloader
}

// NewLoaderRegistry creates an empty registry.
func NewLoaderRegistry() *LoaderRegistry {
	return &LoaderRegistry{
		loaders:     make(map[string]AssetLoader),
		downloaders: make(map[string]Downloader),
	}
}

// Resolve looks up the AssetLoader registered for (scheme, outputType).
func (r *LoaderRegistry) Resolve(scheme, outputType string) (AssetLoader, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.loaders[loaderIdentity(scheme, outputType)]
	return l, ok
}

// RegisterDownloader associates a Downloader with scheme. A later
// RegisterAssetLoader for the same scheme is typically a
// DownloaderAssetLoader wrapping this Downloader, but the registry itself
// does not enforce that relationship.
func (r *LoaderRegistry) RegisterDownloader(scheme string, d Downloader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.downloaders[scheme] = d
}

// Downloader returns the Downloader registered for scheme, if any.
func (r *LoaderRegistry) Downloader(scheme string) (Downloader, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.downloaders[scheme]
	return d, ok
}

// RegisterAssetLoader makes loader resolvable under its own
// (Scheme(), OutputType()).
func (r *LoaderRegistry) RegisterAssetLoader(loader AssetLoader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loaders[loaderIdentity(loader.Scheme(), loader.OutputType())] = loader
}

// DownloaderAssetLoader adapts a Downloader into an AssetLoader whose
// decoded artifact is the raw fetched bytes, for schemes where the
// embedding application wants to fetch first and decode in a later stage
// outside this package's scope (§1 non-goals: decoding is not the core's
// job). CanReuseLoadedAssets is false: it has no notion of request shape
// beyond the URL, which the manager already dedupes on the key.
type DownloaderAssetLoader struct {
	scheme     string
	outputType string
	downloader Downloader
}

// NewDownloaderAssetLoader builds an AssetLoader for scheme/outputType
// that fetches through d and hands back raw bytes.
func NewDownloaderAssetLoader(scheme, outputType string, d Downloader) *DownloaderAssetLoader {
	return &DownloaderAssetLoader{scheme: scheme, outputType: outputType, downloader: d}
}

func (l *DownloaderAssetLoader) Scheme() string              { return l.scheme }
func (l *DownloaderAssetLoader) OutputType() string           { return l.outputType }
func (l *DownloaderAssetLoader) CanReuseLoadedAssets() bool   { return false }

func (l *DownloaderAssetLoader) StartLoadIfNeeded(req *LoaderRequestHandler) {
	data, err := l.downloader.Download(req.Context(), req.URL())
	if err != nil {
		req.Manager().OnLoad(req, LoadResult{Err: err})
		return
	}
	req.Manager().OnLoad(req, LoadResult{Artifact: data})
}

func (l *DownloaderAssetLoader) Cancel(req *LoaderRequestHandler) {
	// Download is synchronous by the time Cancel could ever run concurrently
	// with it in this simple adapter; nothing to abort.
}
