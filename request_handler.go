package assetcoord

import "context"

// LoaderRequestHandler is a refcounted carrier of one in-flight load,
// shared across every AssetConsumer whose request shape matches and whose
// AssetLoader declares CanReuseLoadedAssets. Created when the first
// consumer needs it; torn down once the last consumer drops and
// cancellation has flushed.
type LoaderRequestHandler struct {
	mgr *AssetsManager

	key          AssetKey
	url          string
	outputType   string
	width        int
	height       int
	attachedData any
	ctx          context.Context

	loader AssetLoader

	// payloadCacheKey names the owning ManagedAsset's payloadCaches map
	// slot, shared by every sibling handler serving the same (asset,
	// loader) pair.
	payloadCacheKey string

	consumersCount          int
	scheduledForLoad        bool
	scheduledForCancelation bool
	lastLoadResult          *consumerResult
}

func newLoaderRequestHandler(mgr *AssetsManager, key AssetKey, loc AssetLocation, loader AssetLoader, ctx context.Context, outputType string, w, h int, attached any) *LoaderRequestHandler {
	if ctx == nil {
		ctx = context.Background()
	}
	return &LoaderRequestHandler{
		mgr:             mgr,
		key:             key,
		url:             loc.URL,
		outputType:      outputType,
		width:           w,
		height:          h,
		attachedData:    attached,
		ctx:             ctx,
		loader:          loader,
		payloadCacheKey: loaderIdentity(loader.Scheme(), outputType),
	}
}

// Manager exposes the owning AssetsManager so an AssetLoader implementation
// can report completion via OnLoad.
func (h *LoaderRequestHandler) Manager() *AssetsManager { return h.mgr }

// Key is the asset this load is for.
func (h *LoaderRequestHandler) Key() AssetKey { return h.key }

// URL is the resolved location being loaded.
func (h *LoaderRequestHandler) URL() string { return h.url }

// OutputType is the requested decoded artifact type.
func (h *LoaderRequestHandler) OutputType() string { return h.outputType }

// Size is the requested pixel dimensions.
func (h *LoaderRequestHandler) Size() (width, height int) { return h.width, h.height }

// AttachedData is the opaque caller-supplied value threaded through from
// AddAssetLoadObserver.
func (h *LoaderRequestHandler) AttachedData() any { return h.attachedData }

// Context is the context under which the load was requested.
func (h *LoaderRequestHandler) Context() context.Context { return h.ctx }

// PayloadCache returns the per-(asset, loader) cache blob this handler may
// read. Set it back with SetPayloadCache.
func (h *LoaderRequestHandler) PayloadCache(managed *ManagedAsset) any {
	return managed.payloadCacheFor(h.payloadCacheKey)
}

// SetPayloadCache persists a new cache blob for this handler's (asset,
// loader) pair, visible to sibling handlers created afterwards.
func (h *LoaderRequestHandler) SetPayloadCache(managed *ManagedAsset, v any) {
	managed.setPayloadCacheFor(h.payloadCacheKey, v)
}

// matches reports whether a new request shape could reuse this handler
// (§4.1.4 reuse probe): same (width, height, output type, attached data).
func (h *LoaderRequestHandler) matches(outputType string, w, h2 int, attached any) bool {
	return h.outputType == outputType && h.width == w && h.height == h2 && deepEqual(h.attachedData, attached)
}

// start_load_if_needed / cancel on the AssetLoader interface are called by
// flushLoadRequests; see manager_load.go.
