package assetcoord

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// AssetBytesStore is a URL allocator and pseudo-downloader for in-memory
// byte buffers registered at runtime. Registering a buffer mints a URL
// under BytesURLScheme; unregistering frees it. It also implements
// Downloader for its own scheme, so a generic AssetLoader built on top of a
// Downloader can serve bytes-scheme requests without knowing buffers ever
// lived in memory.
type AssetBytesStore struct {
	mu      sync.Mutex
	buffers map[string][]byte
}

// NewAssetBytesStore creates an empty store.
func NewAssetBytesStore() *AssetBytesStore {
	return &AssetBytesStore{buffers: make(map[string][]byte)}
}

// Register allocates a fresh URL for data and returns it. data is retained
// by reference; callers must not mutate it afterwards (the same
// zero-copy/immutability contract the rest of this package assumes for
// artifacts).
func (s *AssetBytesStore) Register(data []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	url := fmt.Sprintf("%s://%s", BytesURLScheme, uuid.NewString())
	s.buffers[url] = data
	return url
}

// Unregister frees a previously registered URL. No-op if url is unknown.
func (s *AssetBytesStore) Unregister(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.buffers, url)
}

// Download implements Downloader: it returns the buffer registered for
// url, or an error if it is unknown (e.g. unregistered concurrently).
func (s *AssetBytesStore) Download(_ context.Context, url string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.buffers[url]
	if !ok {
		return nil, fmt.Errorf("assetcoord: no buffer registered for %s", url)
	}
	return data, nil
}

// bytesAssetLoaderAdapter wraps an AssetBytesStore as an AssetLoader whose
// decoded artifact is the raw buffer itself — decoding bytes into an
// image/audio/other payload is explicitly out of scope for this package
// (§1 non-goals), so the adapter hands back []byte unchanged.
type bytesAssetLoaderAdapter struct {
	store *AssetBytesStore
}

func newBytesAssetLoaderAdapter(store *AssetBytesStore) *bytesAssetLoaderAdapter {
	return &bytesAssetLoaderAdapter{store: store}
}

func (a *bytesAssetLoaderAdapter) Scheme() string     { return BytesURLScheme }
func (a *bytesAssetLoaderAdapter) OutputType() string { return OutputTypeBytes }

// CanReuseLoadedAssets is false: the manager skips its reuse probe for this
// loader, so every consumer of a bytes URL gets its own
// LoaderRequestHandler and its own (in-memory) load.
func (a *bytesAssetLoaderAdapter) CanReuseLoadedAssets() bool { return false }

func (a *bytesAssetLoaderAdapter) StartLoadIfNeeded(req *LoaderRequestHandler) {
	data, err := a.store.Download(req.Context(), req.URL())
	if err != nil {
		req.Manager().OnLoad(req, LoadResult{Err: err})
		return
	}
	req.Manager().OnLoad(req, LoadResult{Artifact: data})
}

func (a *bytesAssetLoaderAdapter) Cancel(req *LoaderRequestHandler) {
	// Download above is synchronous and already completed by the time
	// cancellation could observe it; nothing to abort.
}

// OutputTypeBytes is the output type reported by the bytes-store's adapter
// loader: the artifact is the raw registered buffer.
const OutputTypeBytes = "Bytes"
