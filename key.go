package assetcoord

import "strings"

// BytesURLScheme is the synthetic URL scheme reserved by AssetBytesStore for
// in-memory buffers registered at runtime. See bytes_store.go.
const BytesURLScheme = "assetbytes"

// AssetKey is the immutable identity of an asset: either a (bundle, path)
// pair naming an asset shipped inside a module, or a bare URL. Equality and
// hashing are structural, so AssetKey is safe to use directly as a map key.
type AssetKey struct {
	bundle string
	path   string
	url    string
}

// NewBundleAssetKey identifies an asset bundled with the named module at a
// short path relative to the bundle's asset root.
func NewBundleAssetKey(bundle, path string) AssetKey {
	return AssetKey{bundle: bundle, path: path}
}

// NewURLAssetKey identifies an asset by URL. Panics if url does not satisfy
// IsAssetURL — callers that accept untrusted strings should check first.
func NewURLAssetKey(url string) AssetKey {
	if !IsAssetURL(url) {
		panic("assetcoord: not a valid asset URL: " + url)
	}
	return AssetKey{url: url}
}

// IsURL reports whether the key identifies an asset by URL rather than by
// (bundle, path).
func (k AssetKey) IsURL() bool { return k.url != "" }

// Bundle returns the bundle name for a bundle key, or "" for a URL key.
func (k AssetKey) Bundle() string { return k.bundle }

// Path returns the bundle-relative path for a bundle key, or "" for a URL
// key.
func (k AssetKey) Path() string { return k.path }

// URL returns the URL for a URL key, or "" for a bundle key.
func (k AssetKey) URL() string { return k.url }

// String renders the key for logging.
func (k AssetKey) String() string {
	if k.IsURL() {
		return k.url
	}
	return k.bundle + ":" + k.path
}

// IsAssetURL classifies a raw string the way AssetsManager.IsAssetURL does:
// true when it contains "://" or starts with the "data:image/" prefix.
func IsAssetURL(s string) bool {
	if s == "" {
		return false
	}
	return strings.Contains(s, "://") || strings.HasPrefix(s, "data:image/")
}

// IsAssetBytesURL reports whether url was minted by an AssetBytesStore.
func IsAssetBytesURL(url string) bool {
	return strings.HasPrefix(url, BytesURLScheme+"://")
}

// AssetLocation is the resolved address of an asset: a URL plus whether it
// refers to a location already local to the running process.
type AssetLocation struct {
	URL     string
	IsLocal bool
}
