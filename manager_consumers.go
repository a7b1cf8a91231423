package assetcoord

// updateAssetConsumers advances a single consumer of managed and
// re-schedules key if more than one was eligible (§4.1.3).
func (m *AssetsManager) updateAssetConsumers(tx *Transaction, key AssetKey, managed *ManagedAsset) {
	c, hasMore := nextConsumerToUpdate(managed)
	if hasMore {
		m.scheduleAssetUpdate(tx, key)
	}
	if c == nil {
		return
	}
	m.doUpdateAssetConsumer(tx, key, managed, c)
}

// nextConsumerToUpdate implements the priority scan of §4.1.3: a consumer
// whose observer has been cleared is a removal candidate and, once found,
// outranks any non-removal candidate already picked earlier in the scan.
// Among the rest, consumers in Initial/Failed/Loaded are candidates.
func nextConsumerToUpdate(managed *ManagedAsset) (selected *AssetConsumer, hasMore bool) {
	var selectedIsRemoval bool
	candidates := 0

	for _, c := range managed.consumers {
		if c.notified || c.state == ConsumerLoading || c.state == ConsumerRemoved {
			continue
		}
		isRemoval := c.observer == nil
		isCandidate := isRemoval || c.state == ConsumerInitial || c.state == ConsumerFailed || c.state == ConsumerLoaded
		if !isCandidate {
			continue
		}
		candidates++
		switch {
		case selected == nil:
			selected, selectedIsRemoval = c, isRemoval
		case isRemoval && !selectedIsRemoval:
			selected, selectedIsRemoval = c, true
		}
	}
	return selected, candidates > 1
}

func (m *AssetsManager) doUpdateAssetConsumer(tx *Transaction, key AssetKey, managed *ManagedAsset, c *AssetConsumer) {
	if c.observer == nil {
		m.removeStrayConsumer(managed, c)
		// Step the key once more so removeManagedAssetIfNeeded can collect
		// the asset if this was its last consumer.
		m.scheduleAssetUpdate(tx, key)
		return
	}

	switch c.state {
	case ConsumerInitial:
		if managed.state == StateFailedRetryable || managed.state == StateFailedPermanently {
			c.state = ConsumerFailed
			c.lastResult = consumerErr(managed.location.err)
			m.scheduleAssetUpdate(tx, key)
			return
		}
		m.loadForConsumer(tx, key, managed, c, managed.location.location)
	case ConsumerLoading:
		// Defensive: a consumer should never be scanned into this branch
		// while Loading (nextConsumerToUpdate skips it), but if it somehow
		// is, treat it the same as a stray removal rather than guessing at
		// further semantics.
		m.removeStrayConsumer(managed, c)
	case ConsumerFailed:
		m.notifyAssetConsumer(tx, key, managed, c)
	case ConsumerLoaded:
		m.notifyAssetConsumer(tx, key, managed, c)
	case ConsumerRemoved:
		// unreachable: nextConsumerToUpdate never selects a Removed consumer.
	}
}

func (m *AssetsManager) removeStrayConsumer(managed *ManagedAsset, c *AssetConsumer) {
	managed.removeConsumer(c)
	c.state = ConsumerRemoved
	c.lastResult = consumerResult{}
	if c.handler != nil {
		m.detachConsumerFromHandler(c)
	}
}

// notifyAssetConsumer delivers c's current result to its observer,
// releasing the manager lock for the duration of the callback (§4.1.3).
func (m *AssetsManager) notifyAssetConsumer(tx *Transaction, key AssetKey, managed *ManagedAsset, c *AssetConsumer) {
	c.notified = true
	observer := c.observer
	result := c.lastResult
	observable := m.observableForNotify(managed, key)

	tx.ReleaseLock()
	observer.OnLoad(observable, result.artifact, errString(result.err))
	tx.AcquireLock()
}

// observableForNotify returns managed's Observable if one is still held
// externally, or an ad-hoc, unretained one otherwise — spec.md requires
// the observable be delivered in every notification (§7), but an ad-hoc
// delivery must never itself keep a ManagedAsset alive once its last real
// holder has released it.
func (m *AssetsManager) observableForNotify(managed *ManagedAsset, key AssetKey) *Observable {
	if managed.observable != nil {
		return managed.observable
	}
	o := newObservable(m, key)
	o.refs.Store(0)
	if managed.hasExpectedSz {
		o.setExpectedSize(managed.expectedWidth, managed.expectedHeight)
	}
	return o
}
