package assetcoord

import (
	"context"
	"fmt"
)

// resolveAssetLocation begins resolving key's location (§4.1.2).
// Precondition: managed.state == StateInitial.
func (m *AssetsManager) resolveAssetLocation(tx *Transaction, key AssetKey, managed *ManagedAsset) {
	managed.state = StateResolvingLocation
	m.resolveSeq++
	resolveID := m.resolveSeq
	managed.resolveID = resolveID

	if key.IsURL() {
		managed.state = StateReady
		managed.location = locationOK(AssetLocation{URL: key.URL(), IsLocal: false})
		m.scheduleAssetUpdate(tx, key)
		return
	}

	bundle, hasBundle := m.bundles[key.Bundle()]
	if hasBundle && bundle.HasRemoteAssets() {
		tx.ReleaseLock()
		m.remotes.LoadResources(context.Background(), bundle.Name(), func(res RemoteModuleResources, err error) {
			m.workers.Async(func() {
				m.onLoadingRemoteResourcesCompleted(key, resolveID, res, err)
			})
		})
		tx.AcquireLock()
		return
	}

	tx.ReleaseLock()
	m.workers.Async(func() {
		m.resolveLocalAndUpdate(key, resolveID)
	})
	tx.AcquireLock()
}

// resolveRemoteAssetLocation maps a fetched remote manifest to a location
// for key.Path(), falling back to ResourceLoader for an already-local copy,
// and finally to a diagnostic error listing every known URL in the module
// (§4.1.2).
func (m *AssetsManager) resolveRemoteAssetLocation(key AssetKey, res RemoteModuleResources) (AssetLocation, error) {
	if cacheURL, ok := res.ResourceCacheURL(key.Path()); ok {
		return AssetLocation{URL: cacheURL, IsLocal: false}, nil
	}
	if m.resources != nil {
		if localURL := m.resources.ResolveLocalAssetURL(key.Bundle(), key.Path()); localURL != "" {
			return AssetLocation{URL: localURL, IsLocal: true}, nil
		}
	}
	return AssetLocation{}, fmt.Errorf("assetcoord: %q not found in remote module %q; known paths: %v",
		key.Path(), key.Bundle(), res.AllURLs())
}

// onLoadingRemoteResourcesCompleted is the worker-thread completion for the
// remote-module branch of resolveAssetLocation.
func (m *AssetsManager) onLoadingRemoteResourcesCompleted(key AssetKey, resolveID uint64, res RemoteModuleResources, err error) {
	m.mu.Lock()
	managed, ok := m.assets[key]
	if !ok || managed.resolveID != resolveID {
		m.mu.Unlock()
		m.logDebug("stale remote resolution dropped", "key", key.String())
		return
	}

	if err != nil {
		managed.state = StateFailedRetryable
		managed.location = locationErr(err)
		m.logWarn("remote module fetch failed", "key", key.String(), "err", err)
	} else if loc, lerr := m.resolveRemoteAssetLocation(key, res); lerr != nil {
		// The module itself downloaded fine but this particular path isn't
		// in it; a later retry (another manifest, or a cache warm-up) may
		// still succeed, so this is retryable rather than permanent.
		managed.state = StateFailedRetryable
		managed.location = locationErr(lerr)
		m.logWarn("remote asset path unresolved", "key", key.String(), "err", lerr)
	} else {
		managed.state = StateReady
		managed.location = locationOK(loc)
	}
	m.scheduleAssetUpdate(nil, key)
	m.mu.Unlock()
}

// resolveLocalAndUpdate is the worker-thread completion for the local-only
// branch of resolveAssetLocation.
func (m *AssetsManager) resolveLocalAndUpdate(key AssetKey, resolveID uint64) {
	url := ""
	if m.resources != nil {
		url = m.resources.ResolveLocalAssetURL(key.Bundle(), key.Path())
	}

	m.mu.Lock()
	managed, ok := m.assets[key]
	if !ok || managed.resolveID != resolveID {
		m.mu.Unlock()
		m.logDebug("stale local resolution dropped", "key", key.String())
		return
	}

	if url == "" {
		managed.state = StateFailedPermanently
		managed.location = locationErr(ErrLocalAssetNotFound)
		m.logWarn("local asset not found", "key", key.String())
	} else {
		managed.state = StateReady
		managed.location = locationOK(AssetLocation{URL: url, IsLocal: true})
	}
	m.scheduleAssetUpdate(nil, key)
	m.mu.Unlock()
}
