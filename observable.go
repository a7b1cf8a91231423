package assetcoord

import "sync/atomic"

// Observable is the caller-facing handle to an asset. Exactly one
// Observable exists per key for as long as any holder has requested it and
// not released it (§8 property 2). Multiple calls to
// AssetsManager.GetAsset for the same key return the same *Observable and
// each counts as one holder.
type Observable struct {
	mgr *AssetsManager
	key AssetKey

	refs atomic.Int32

	// expectedWidth/expectedHeight/hasExpectedSz are written only under
	// AssetsManager.mu (from GetAsset and OnAssetCatalogChanged).
	expectedWidth  int
	expectedHeight int
	hasExpectedSz  bool
}

func newObservable(mgr *AssetsManager, key AssetKey) *Observable {
	o := &Observable{mgr: mgr, key: key}
	o.refs.Store(1)
	return o
}

// Key returns the asset key this observable was created for.
func (o *Observable) Key() AssetKey { return o.key }

// ExpectedSize returns the catalog-provided pixel dimensions for the asset,
// if known. Must be read while the manager is not concurrently running
// OnAssetCatalogChanged against the same key to get a consistent pair; both
// fields are written together under the manager lock.
func (o *Observable) ExpectedSize() (width, height int, ok bool) {
	o.mgr.mu.Lock()
	defer o.mgr.mu.Unlock()
	return o.expectedWidth, o.expectedHeight, o.hasExpectedSz
}

func (o *Observable) setExpectedSize(w, h int) {
	o.expectedWidth, o.expectedHeight = w, h
	o.hasExpectedSz = true
}

// retain is called each time GetAsset hands out this same Observable to a
// new caller.
func (o *Observable) retain() { o.refs.Add(1) }

// Release drops one holder's claim on the observable. When the last holder
// releases, the manager is notified (on_observable_destroyed) so it can
// reclaim the ManagedAsset once its consumers are also gone.
func (o *Observable) Release() {
	if o.refs.Add(-1) == 0 {
		o.mgr.onObservableDestroyed(o.key)
	}
}
