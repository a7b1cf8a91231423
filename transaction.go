package assetcoord

// Transaction is a scoped drain context owning AssetsManager.mu for the
// duration of one performUpdates call. It queues keys awaiting a state
// machine step and lets callers temporarily release the manager lock
// around external calls (remote fetches, local-resolution dispatch,
// observer notification) with support for nested release/acquire pairs.
//
// Unlike the original design (a process-wide thread-local "current
// transaction"), this package threads *Transaction explicitly through the
// call chain, per spec.md's own fallback for languages without
// thread-locals — idiomatic Go has no goroutine-local storage.
type Transaction struct {
	mgr *AssetsManager

	queue  []AssetKey
	queued map[AssetKey]bool

	releaseDepth int
}

func newTransaction(mgr *AssetsManager) *Transaction {
	return &Transaction{mgr: mgr, queued: make(map[AssetKey]bool)}
}

// EnqueueUpdate appends key to the drain queue if it is not already
// present.
func (t *Transaction) EnqueueUpdate(key AssetKey) {
	if t.queued[key] {
		return
	}
	t.queued[key] = true
	t.queue = append(t.queue, key)
}

// DequeueUpdate pops the front of the drain queue.
func (t *Transaction) DequeueUpdate() (AssetKey, bool) {
	if len(t.queue) == 0 {
		return AssetKey{}, false
	}
	key := t.queue[0]
	t.queue = t.queue[1:]
	delete(t.queued, key)
	return key, true
}

// ReleaseLock releases the manager lock so an external call (which may
// call back into the manager) can run without deadlocking. Nested calls
// are supported: only the outermost ReleaseLock actually unlocks.
func (t *Transaction) ReleaseLock() {
	t.releaseDepth++
	if t.releaseDepth == 1 {
		t.mgr.mu.Unlock()
	}
}

// AcquireLock re-acquires the manager lock released by ReleaseLock. Must be
// paired 1:1 with ReleaseLock calls.
func (t *Transaction) AcquireLock() {
	t.releaseDepth--
	if t.releaseDepth == 0 {
		t.mgr.mu.Lock()
	}
}
