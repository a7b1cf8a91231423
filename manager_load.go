package assetcoord

import (
	"fmt"
	"strings"
)

// LoadResult is the value-or-error outcome an AssetLoader reports back to
// the manager via OnLoad.
type LoadResult struct {
	Artifact any
	Err      error
}

// loadForConsumer resolves an AssetLoader for c's request and either
// attaches c to a reusable in-flight LoaderRequestHandler or starts a new
// one (§4.1.4).
func (m *AssetsManager) loadForConsumer(tx *Transaction, key AssetKey, managed *ManagedAsset, c *AssetConsumer, loc AssetLocation) {
	scheme := urlScheme(loc.URL)
	loader, ok := m.loaders.Resolve(scheme, c.outputType)
	if !ok {
		c.state = ConsumerFailed
		c.lastResult = consumerErr(fmt.Errorf("%w: scheme=%q output_type=%q", ErrNoLoader, scheme, c.outputType))
		m.scheduleAssetUpdate(tx, key)
		return
	}

	c.state = ConsumerLoading

	if loader.CanReuseLoadedAssets() {
		for _, sibling := range managed.consumers {
			if sibling == c || sibling.handler == nil || sibling.handler.scheduledForCancelation {
				continue
			}
			if sibling.handler.matches(c.outputType, c.prefWidth, c.prefHeight, c.attachedData) {
				h := sibling.handler
				m.updateConsumerRequestHandler(c, h)
				if h.lastLoadResult != nil {
					m.onConsumerLoad(c, *h.lastLoadResult)
					m.scheduleAssetUpdate(tx, key)
				}
				return
			}
		}
	}

	handler := newLoaderRequestHandler(m, key, loc, loader, c.ctx, c.outputType, c.prefWidth, c.prefHeight, c.attachedData)
	m.updateConsumerRequestHandler(c, handler)
}

// updateConsumerRequestHandler replaces c's request handler, adjusting
// refcounts on the outgoing and incoming handlers and queuing either for
// the next flush (§4.1.4).
func (m *AssetsManager) updateConsumerRequestHandler(c *AssetConsumer, newHandler *LoaderRequestHandler) {
	if outgoing := c.handler; outgoing != nil {
		outgoing.consumersCount--
		if outgoing.consumersCount == 0 && !outgoing.scheduledForCancelation {
			outgoing.scheduledForCancelation = true
			m.enqueuePendingLoadRequest(outgoing)
		}
	}

	c.handler = newHandler

	if newHandler != nil {
		newHandler.consumersCount++
		if !newHandler.scheduledForLoad {
			newHandler.scheduledForLoad = true
			m.enqueuePendingLoadRequest(newHandler)
		}
	}

	m.tryScheduleFlushLoadRequestsLocked()
}

func (m *AssetsManager) detachConsumerFromHandler(c *AssetConsumer) {
	m.updateConsumerRequestHandler(c, nil)
}

func (m *AssetsManager) enqueuePendingLoadRequest(h *LoaderRequestHandler) {
	if m.pendingSet[h] {
		return
	}
	m.pendingSet[h] = true
	m.pendingLoadRequests = append(m.pendingLoadRequests, h)
}

// tryScheduleFlushLoadRequestsLocked dispatches flushLoadRequests on the
// worker queue if one is not already in flight and there is work to do.
// Assumes mu is held.
func (m *AssetsManager) tryScheduleFlushLoadRequestsLocked() {
	if m.flushScheduled || m.pauseCount != 0 || len(m.pendingLoadRequests) == 0 {
		return
	}
	m.flushScheduled = true
	m.workers.Async(m.flushLoadRequests)
}

func (m *AssetsManager) tryScheduleFlushLoadRequests() {
	m.mu.Lock()
	m.tryScheduleFlushLoadRequestsLocked()
	m.mu.Unlock()
}

// flushLoadRequests drains pendingLoadRequests on the worker thread,
// holding the lock across each dequeue but not across the loader call
// itself (§4.1.4).
func (m *AssetsManager) flushLoadRequests() {
	for {
		m.mu.Lock()
		if len(m.pendingLoadRequests) == 0 || m.pauseCount != 0 {
			m.flushScheduled = false
			m.mu.Unlock()
			return
		}

		req := m.pendingLoadRequests[0]
		m.pendingLoadRequests = m.pendingLoadRequests[1:]
		delete(m.pendingSet, req)
		cancel := req.scheduledForCancelation
		if cancel {
			req.lastLoadResult = nil
		}
		m.mu.Unlock()

		if cancel {
			req.loader.Cancel(req)
		} else {
			req.loader.StartLoadIfNeeded(req)
		}
	}
}

// OnLoad is called by an AssetLoader, on any goroutine, to report the
// outcome of a load it was driving (§4.1.5). Stale or already-canceled
// requests are dropped silently.
func (m *AssetsManager) OnLoad(req *LoaderRequestHandler, result LoadResult) {
	internal := consumerResult{set: true, artifact: result.Artifact, err: result.Err}

	m.mu.Lock()
	managed, ok := m.assets[req.key]
	if !ok || req.scheduledForCancelation {
		m.mu.Unlock()
		m.logDebug("load result dropped", "key", req.key.String(), "canceled", req.scheduledForCancelation, "present", ok)
		return
	}

	req.lastLoadResult = &internal
	for _, c := range managed.consumers {
		if c.handler == req {
			m.onConsumerLoad(c, internal)
		}
	}
	m.scheduleAssetUpdate(nil, req.key)
	m.mu.Unlock()
}

// onConsumerLoad applies one load outcome to a single consumer (§4.1.5).
func (m *AssetsManager) onConsumerLoad(c *AssetConsumer, result consumerResult) {
	c.notified = false

	switch {
	case result.err != nil:
		c.state = ConsumerFailed
		c.lastResult = consumerErr(result.err)
	case result.artifact == nil:
		c.state = ConsumerFailed
		c.lastResult = consumerErr(ErrNilArtifact)
	default:
		c.state = ConsumerLoaded
		c.lastResult = consumerOK(result.artifact)
	}
}

// urlScheme extracts the scheme portion of a URL ("https", "assetbytes",
// "data", ...) for AssetLoaderRegistry lookups.
func urlScheme(url string) string {
	if i := strings.IndexByte(url, ':'); i >= 0 {
		return url[:i]
	}
	return ""
}
