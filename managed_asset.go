package assetcoord

// ManagedAsset is the manager's per-key aggregate: location, consumers, and
// payload cache for one AssetKey. Owned exclusively by AssetsManager; never
// accessed without holding AssetsManager.mu.
type ManagedAsset struct {
	key AssetKey

	state     AssetState
	resolveID uint64

	observable *Observable

	location locationResult

	consumers []*AssetConsumer

	// payloadCaches holds one opaque blob per loader identity
	// ("scheme|outputType"), shared across every LoaderRequestHandler the
	// manager creates against this asset for that loader.
	payloadCaches map[string]any

	expectedWidth  int
	expectedHeight int
	hasExpectedSz  bool
}

func newManagedAsset(key AssetKey) *ManagedAsset {
	return &ManagedAsset{
		key:           key,
		state:         StateInitial,
		payloadCaches: make(map[string]any),
	}
}

func (m *ManagedAsset) hasConsumers() bool   { return len(m.consumers) > 0 }
func (m *ManagedAsset) hasNoConsumers() bool { return len(m.consumers) == 0 }
func (m *ManagedAsset) noObservable() bool   { return m.observable == nil }

func (m *ManagedAsset) payloadCacheFor(loaderIdentity string) any {
	return m.payloadCaches[loaderIdentity]
}

func (m *ManagedAsset) setPayloadCacheFor(loaderIdentity string, v any) {
	m.payloadCaches[loaderIdentity] = v
}

func (m *ManagedAsset) clearPayloadCaches() {
	m.payloadCaches = make(map[string]any)
}

func (m *ManagedAsset) removeConsumer(c *AssetConsumer) {
	for i, existing := range m.consumers {
		if existing == c {
			m.consumers = append(m.consumers[:i], m.consumers[i+1:]...)
			return
		}
	}
}

func loaderIdentity(scheme, outputType string) string {
	return scheme + "|" + outputType
}
