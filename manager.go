package assetcoord

import (
	"context"
	"log/slog"
	"sync"
)

// Config wires the external collaborators an AssetsManager needs. Logger
// defaults to slog.Default(), and MainThread and WorkerQueue default to
// SerialMainThread/ErrgroupWorkerQueue if nil; the other fields are needed
// for the kinds of assets that use them.
type Config struct {
	MainThread          MainThread
	WorkerQueue         WorkerQueue
	ResourceLoader      ResourceLoader
	RemoteModuleManager RemoteModuleManager
	LoaderRegistry      AssetLoaderRegistry
	Logger              *slog.Logger
}

// AssetsManager is the single registry mapping AssetKey to live load
// state. All mutation paths acquire mu; external calls made during a drain
// (remote fetches, local-resolution dispatch, observer notification) are
// bracketed by a Transaction's ReleaseLock/AcquireLock, and
// flushLoadRequests releases mu around each loader call, so callbacks into
// the manager never deadlock.
type AssetsManager struct {
	mu sync.Mutex

	mainThread MainThread
	workers    WorkerQueue
	resources  ResourceLoader
	remotes    RemoteModuleManager
	loaders    AssetLoaderRegistry
	log        *slog.Logger

	assets map[AssetKey]*ManagedAsset
	bundles map[string]Bundle

	resolveSeq uint64

	scheduledUpdates []AssetKey
	scheduledSet     map[AssetKey]bool

	pauseCount int
	currentTx  *Transaction

	pendingLoadRequests []*LoaderRequestHandler
	pendingSet          map[*LoaderRequestHandler]bool
	flushScheduled      bool

	listener Listener

	removeUnusedLocalAssets bool

	bytesStore *AssetBytesStore
}

// NewAssetsManager builds an AssetsManager from its collaborators.
func NewAssetsManager(cfg Config) *AssetsManager {
	if cfg.MainThread == nil {
		cfg.MainThread = NewSerialMainThread()
	}
	if cfg.WorkerQueue == nil {
		cfg.WorkerQueue = NewErrgroupWorkerQueue()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &AssetsManager{
		mainThread:   cfg.MainThread,
		workers:      cfg.WorkerQueue,
		resources:    cfg.ResourceLoader,
		remotes:      cfg.RemoteModuleManager,
		loaders:      cfg.LoaderRegistry,
		log:          cfg.Logger,
		assets:       make(map[AssetKey]*ManagedAsset),
		bundles:      make(map[string]Bundle),
		scheduledSet: make(map[AssetKey]bool),
		pendingSet:   make(map[*LoaderRequestHandler]bool),
	}
}

// RegisterBundle makes bundle resolvable by name so AssetKeys that name it
// can be resolved and reported to OnAssetCatalogChanged. Not part of
// spec.md's surface verbatim — the spec's AssetKey carries a bundle
// reference but leaves how bundles are looked up unspecified; this is the
// natural registry for it.
func (m *AssetsManager) RegisterBundle(b Bundle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bundles[b.Name()] = b
}

// SetShouldRemoveUnusedLocalAssets gates whether a bundle-keyed
// ManagedAsset with no consumers and no observable is evicted. URL-keyed
// assets are always evicted once unused (§4.1.1).
func (m *AssetsManager) SetShouldRemoveUnusedLocalAssets(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeUnusedLocalAssets = v
}

// SetListener installs an optional sink notified after each asset step and
// after each drain. Pass nil to remove it.
func (m *AssetsManager) SetListener(l Listener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listener = l
}

// IsAssetURL is the pure classifier helper named in §6.
func (m *AssetsManager) IsAssetURL(s string) bool { return IsAssetURL(s) }

// IsAssetAlive reports whether key currently has a ManagedAsset, without
// creating one. Unlike GetAsset/getAssetLocked, a miss here is not an
// implicit registration.
func (m *AssetsManager) IsAssetAlive(key AssetKey) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.assets[key]
	return ok
}

// GetResolvedAssetLocation returns key's currently resolved location, if
// any, without registering a consumer or creating a ManagedAsset for a key
// that isn't already alive. The second return is false when the key has no
// ManagedAsset, or the ManagedAsset has no resolved location yet.
func (m *AssetsManager) GetResolvedAssetLocation(key AssetKey) (AssetLocation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	managed, ok := m.assets[key]
	if !ok {
		return AssetLocation{}, false
	}
	if managed.location.isOK() {
		return managed.location.location, true
	}
	return AssetLocation{}, false
}

// GetAsset returns the key's Observable, creating the ManagedAsset and its
// Observable if absent. For a bundle key whose bundle has a registered
// asset catalog, the Observable is seeded with the catalog's expected
// pixel dimensions.
func (m *AssetsManager) GetAsset(key AssetKey) *Observable {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getAssetLocked(key)
}

func (m *AssetsManager) getAssetLocked(key AssetKey) *Observable {
	managed, ok := m.assets[key]
	if !ok {
		managed = newManagedAsset(key)
		m.assets[key] = managed
	}
	if managed.observable != nil {
		managed.observable.retain()
		return managed.observable
	}
	obs := newObservable(m, key)
	managed.observable = obs
	if !key.IsURL() {
		if w, h, ok := m.catalogSizeLocked(key); ok {
			obs.setExpectedSize(w, h)
			managed.expectedWidth, managed.expectedHeight, managed.hasExpectedSz = w, h, true
		}
	}
	return obs
}

func (m *AssetsManager) catalogSizeLocked(key AssetKey) (w, h int, ok bool) {
	bundle, ok := m.bundles[key.Bundle()]
	if !ok {
		return 0, 0, false
	}
	catalog, ok := bundle.AssetCatalog("res")
	if !ok {
		return 0, 0, false
	}
	return catalog.SpecsForName(key.Path())
}

// CreateAssetWithBytes registers an in-memory buffer and returns the
// Observable for its synthesized URL key. Lazily instantiates the
// package's AssetBytesStore on first call and registers its scheme both as
// a Downloader and, via an adapter, as an AssetLoader (§4.1).
func (m *AssetsManager) CreateAssetWithBytes(data []byte) *Observable {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bytesStore == nil {
		m.bytesStore = NewAssetBytesStore()
		if m.loaders != nil {
			m.loaders.RegisterDownloader(BytesURLScheme, m.bytesStore)
			m.loaders.RegisterAssetLoader(newBytesAssetLoaderAdapter(m.bytesStore))
		}
	}
	url := m.bytesStore.Register(data)
	key := NewURLAssetKey(url)
	return m.getAssetLocked(key)
}

// SetResolvedAssetLocation forces key's resolved location, bypassing
// normal resolution (§4.1). No-op if the key is already Ready with the
// same location. Otherwise every existing consumer is reset to Initial and
// detached from its request handler, resolveID is reset, payload caches
// are cleared, and the asset is marked Ready at the new location.
func (m *AssetsManager) SetResolvedAssetLocation(key AssetKey, loc AssetLocation) {
	m.mu.Lock()
	defer m.mu.Unlock()

	managed, ok := m.assets[key]
	if !ok {
		managed = newManagedAsset(key)
		m.assets[key] = managed
	}
	if managed.state == StateReady && managed.location.isOK() && managed.location.location == loc {
		return
	}

	for _, c := range managed.consumers {
		c.lastResult = consumerResult{}
		c.state = ConsumerInitial
		c.notified = false
		if c.handler != nil {
			m.detachConsumerFromHandler(c)
		}
	}

	managed.resolveID = 0
	managed.clearPayloadCaches()
	managed.state = StateReady
	managed.location = locationOK(loc)

	if managed.hasConsumers() {
		m.scheduleAssetUpdate(nil, key)
	}
}

// AddAssetLoadObserver registers observer's interest in key under the
// given request shape. Creates the ManagedAsset if absent. If the asset
// was FailedRetryable, it is reset to Initial so resolution is retried
// (§3, §8 scenario S3); every sibling consumer already sitting Failed with
// the asset-level error (the only way a consumer reaches Failed while the
// asset itself is FailedRetryable, per §4.1.3's Initial branch) is reset
// alongside it, so the retry it asked for actually reaches them too.
func (m *AssetsManager) AddAssetLoadObserver(key AssetKey, observer AssetLoadObserver, ctx context.Context, outputType string, prefWidth, prefHeight int, attachedData any) {
	m.mu.Lock()
	defer m.mu.Unlock()

	managed, ok := m.assets[key]
	if !ok {
		managed = newManagedAsset(key)
		m.assets[key] = managed
	}
	managed.consumers = append(managed.consumers, newConsumer(observer, ctx, outputType, prefWidth, prefHeight, attachedData))

	if managed.state == StateFailedRetryable {
		managed.state = StateInitial
		for _, c := range managed.consumers {
			if c.state == ConsumerFailed {
				c.state = ConsumerInitial
				c.lastResult = consumerResult{}
				c.notified = false
			}
		}
	}

	m.scheduleAssetUpdate(nil, key)
}

// RemoveAssetLoadObserver clears the observer field on the first consumer
// of key still pointing at observer. For a consumer in Initial/Failed/
// Loaded, removal from managed.consumers happens later, through the state
// machine (§4.1.3) — nextConsumerToUpdate picks it up as a removal
// candidate on the next scan. A consumer that is Loading is a special
// case: nextConsumerToUpdate always skips Loading consumers (§4.1.3), so
// deferring its cleanup the same way would leave an in-flight load's
// consumers_count refcount undecremented until the load happens to finish
// on its own — cancellation would never actually cancel anything (§8
// scenario S5 requires Cancel to fire promptly). So a Loading consumer is
// detached from its handler and removed immediately, inline, rather than
// waiting for a scan that will never select it while it stays Loading.
func (m *AssetsManager) RemoveAssetLoadObserver(key AssetKey, observer AssetLoadObserver) {
	m.mu.Lock()
	defer m.mu.Unlock()

	managed, ok := m.assets[key]
	if !ok {
		return
	}
	for _, c := range managed.consumers {
		if c.observer == observer {
			c.observer = nil
			if c.state == ConsumerLoading {
				m.removeStrayConsumer(managed, c)
			}
			break
		}
	}
	m.scheduleAssetUpdate(nil, key)
}

// UpdateAssetLoadObserverPreferredSize is declared in spec.md as an
// unimplemented entry point (§9 Open Question); it schedules an update and
// otherwise no-ops, exactly as the spec instructs implementers not to
// infer further semantics for it.
func (m *AssetsManager) UpdateAssetLoadObserverPreferredSize(key AssetKey, observer AssetLoadObserver, width, height int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.assets[key]; !ok {
		return
	}
	m.scheduleAssetUpdate(nil, key)
}

// OnAssetCatalogChanged refreshes expected size on every Observable whose
// key names bundle.
func (m *AssetsManager) OnAssetCatalogChanged(bundle Bundle) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bundles[bundle.Name()] = bundle
	for key, managed := range m.assets {
		if key.IsURL() || key.Bundle() != bundle.Name() || managed.observable == nil {
			continue
		}
		if w, h, ok := m.catalogSizeLocked(key); ok {
			managed.observable.setExpectedSize(w, h)
			managed.expectedWidth, managed.expectedHeight, managed.hasExpectedSz = w, h, true
		}
	}
}

// onObservableDestroyed is the manager's reaction to the last holder of an
// Observable releasing it (§4.4). It simply re-schedules the key so
// removeManagedAssetIfNeeded gets a chance to collect it.
func (m *AssetsManager) onObservableDestroyed(key AssetKey) {
	m.mu.Lock()
	managed, ok := m.assets[key]
	if ok {
		managed.observable = nil
		m.scheduleAssetUpdate(nil, key)
	}
	m.mu.Unlock()
}

// ManagerStats is an operational snapshot, not named in spec.md but
// carried as ambient affordance (SPEC_FULL.md, "Supplemented features").
type ManagerStats struct {
	ManagedAssets       int
	ByState             map[AssetState]int
	PendingLoadRequests int
	BytesStoreEntries   int
}

// Stats returns a point-in-time snapshot of manager state.
func (m *AssetsManager) Stats() ManagerStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := ManagerStats{
		ManagedAssets:       len(m.assets),
		ByState:             make(map[AssetState]int),
		PendingLoadRequests: len(m.pendingLoadRequests),
	}
	for _, managed := range m.assets {
		stats.ByState[managed.state]++
	}
	if m.bytesStore != nil {
		stats.BytesStoreEntries = len(m.bytesStore.buffers)
	}
	return stats
}

func (m *AssetsManager) logWarn(msg string, args ...any) { m.log.Warn(msg, args...) }
func (m *AssetsManager) logInfo(msg string, args ...any) { m.log.Info(msg, args...) }
func (m *AssetsManager) logDebug(msg string, args ...any) {
	m.log.Debug(msg, args...)
}

func errString(err error) *string {
	if err == nil {
		return nil
	}
	s := err.Error()
	return &s
}
