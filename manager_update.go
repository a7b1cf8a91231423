package assetcoord

// scheduleAssetUpdate is the update scheduler (§4.1.1). When tx is
// non-nil, the caller is already inside a drain on this transaction and
// the key is simply queued on it. Otherwise the key goes on the
// manager-level queue, and a drain is triggered if none is already
// pending.
//
// spec.md's "current transaction" is a process-wide thread-local, looked
// up implicitly by descendants of perform_updates. Go has no goroutine
// locals, so this package takes the spec's own fallback: pass tx
// explicitly. The one place that still needs to distinguish "am I being
// called reentrantly from inside the active drain" without a tx argument
// — onObservableDestroyed and async completions — checks
// m.currentTx != nil && m.mainThread.IsCurrent(), which is true exactly
// when the call is a synchronous reentry from the main thread's own
// in-flight drain.
func (m *AssetsManager) scheduleAssetUpdate(tx *Transaction, key AssetKey) {
	if tx == nil && m.currentTx != nil && m.mainThread.IsCurrent() {
		tx = m.currentTx
	}
	if tx != nil {
		tx.EnqueueUpdate(key)
		return
	}

	first := len(m.scheduledUpdates) == 0
	if !m.scheduledSet[key] {
		m.scheduledSet[key] = true
		m.scheduledUpdates = append(m.scheduledUpdates, key)
	}

	if m.pauseCount != 0 || !first {
		return
	}
	if m.mainThread.IsCurrent() {
		m.performUpdatesLocked()
		m.mu.Unlock()
		m.notifyPerformedUpdates()
		m.mu.Lock()
	} else {
		m.mainThread.Dispatch(m.performUpdates)
	}
}

// performUpdates runs a full drain. Must run only on the main thread; it
// is dispatched there. scheduleAssetUpdate, when it already holds mu on the
// main thread, calls performUpdatesLocked directly instead.
func (m *AssetsManager) performUpdates() {
	m.mu.Lock()
	m.performUpdatesLocked()
	m.mu.Unlock()
	m.notifyPerformedUpdates()
}

// performUpdatesLocked assumes mu is already held and returns with it
// still held; it is split out so scheduleAssetUpdate can drain inline
// without a double-lock when it is already holding mu on the main thread.
func (m *AssetsManager) performUpdatesLocked() {
	tx := newTransaction(m)
	m.currentTx = tx
	for _, k := range m.scheduledUpdates {
		tx.EnqueueUpdate(k)
	}
	m.scheduledUpdates = nil
	m.scheduledSet = make(map[AssetKey]bool)

	for {
		key, ok := tx.DequeueUpdate()
		if !ok {
			break
		}
		m.updateAsset(tx, key)
	}
	m.currentTx = nil
}

func (m *AssetsManager) notifyPerformedUpdates() {
	if m.listener != nil {
		m.listener.OnPerformedUpdates()
	}
}

// updateAsset is one state-machine step for key (§4.1.1).
func (m *AssetsManager) updateAsset(tx *Transaction, key AssetKey) {
	managed, ok := m.assets[key]
	if !ok {
		return
	}
	if m.removeManagedAssetIfNeeded(key, managed) {
		return
	}

	switch managed.state {
	case StateInitial:
		if managed.hasConsumers() {
			m.resolveAssetLocation(tx, key, managed)
		}
	case StateResolvingLocation:
		// wait for the in-flight resolution to complete.
	case StateReady, StateFailedRetryable, StateFailedPermanently:
		m.updateAssetConsumers(tx, key, managed)
	}

	if m.listener != nil {
		m.listener.OnManagedAssetUpdated(ManagedAssetSnapshot{
			Key:           key,
			State:         managed.state,
			ConsumerCount: len(managed.consumers),
		})
	}
}

// removeManagedAssetIfNeeded erases managed from the registry (and its
// bytes-store entry, if any) when it has no consumers, no observable, and
// is either URL-keyed or local eviction is enabled (§4.1.1).
func (m *AssetsManager) removeManagedAssetIfNeeded(key AssetKey, managed *ManagedAsset) bool {
	if !managed.hasNoConsumers() || !managed.noObservable() {
		return false
	}
	if !key.IsURL() && !m.removeUnusedLocalAssets {
		return false
	}

	if m.bytesStore != nil && IsAssetBytesURL(key.URL()) {
		m.bytesStore.Unregister(key.URL())
	}

	delete(m.assets, key)
	m.logInfo("managed asset removed", "key", key.String())
	return true
}

// BeginPauseUpdates increments the pause counter; drains do not occur
// while it is positive (§4.3).
func (m *AssetsManager) BeginPauseUpdates() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pauseCount++
}

// EndPauseUpdates decrements the pause counter. If this call brings it to
// zero and updates are pending, it drains inline on the main thread or
// dispatches a drain otherwise.
func (m *AssetsManager) EndPauseUpdates() {
	m.mu.Lock()
	if m.pauseCount <= 0 {
		m.mu.Unlock()
		panic("assetcoord: EndPauseUpdates without matching BeginPauseUpdates")
	}

	reachesZero := m.pauseCount == 1
	hasQueued := len(m.scheduledUpdates) > 0
	onMain := m.mainThread.IsCurrent()

	if reachesZero && hasQueued && onMain {
		m.performUpdatesLocked()
		m.pauseCount--
		m.tryScheduleFlushLoadRequestsLocked()
		m.mu.Unlock()
		m.notifyPerformedUpdates()
		return
	}

	m.pauseCount--
	dispatchDrain := reachesZero && hasQueued && !onMain
	m.mu.Unlock()

	if dispatchDrain {
		m.mainThread.Dispatch(m.performUpdates)
		return
	}
	if reachesZero {
		m.tryScheduleFlushLoadRequests()
	}
}

// FlushUpdates drains immediately if on the main thread and updates are
// pending; otherwise it is a no-op (§4.3).
func (m *AssetsManager) FlushUpdates() {
	m.mu.Lock()
	if !m.mainThread.IsCurrent() || len(m.scheduledUpdates) == 0 {
		m.mu.Unlock()
		return
	}
	m.performUpdatesLocked()
	m.mu.Unlock()
	m.notifyPerformedUpdates()
}
