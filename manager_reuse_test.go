package assetcoord_test

import (
	"context"
	"testing"
	"time"

	"github.com/e7canasta/assetflow"
)

// TestReuseCoalescing is S4: two consumers with matching (width, height,
// output type, attached data) against a loader that declares
// CanReuseLoadedAssets must share exactly one LoaderRequestHandler.
func TestReuseCoalescing(t *testing.T) {
	registry := assetcoord.NewLoaderRegistry()
	loader := newFakeLoader("https", "Image")
	loader.reuse = true
	loader.async = true
	loader.delay = 80 * time.Millisecond
	registry.RegisterAssetLoader(loader)

	mgr, _ := newTestManager(t, assetcoord.Config{LoaderRegistry: registry})
	key := assetcoord.NewURLAssetKey("https://x/shared.png")

	o1 := &fakeObserver{}
	o2 := &fakeObserver{}
	mgr.AddAssetLoadObserver(key, o1, context.Background(), "Image", 64, 64, "x")

	// Give the first consumer a chance to create the handler and start the
	// (still in-flight, delayed) load before the second one joins.
	if !waitFor(func() bool { return loader.startCallCount() == 1 }, testTimeout) {
		t.Fatalf("first load never started")
	}
	mgr.AddAssetLoadObserver(key, o2, context.Background(), "Image", 64, 64, "x")

	if !waitFor(func() bool { return o1.count() == 1 && o2.count() == 1 }, testTimeout) {
		t.Fatalf("expected both observers notified, got o1=%d o2=%d", o1.count(), o2.count())
	}
	if loader.startCallCount() != 1 {
		t.Errorf("expected exactly one load to start (coalesced), got %d", loader.startCallCount())
	}
	c1, _ := o1.last()
	c2, _ := o2.last()
	if c1.artifact != c2.artifact {
		t.Errorf("expected both observers to receive the same artifact, got %v and %v", c1.artifact, c2.artifact)
	}
}

// TestCancellationOnLastObserverRemoved is S5: removing the sole observer
// before its load completes marks the handler for cancellation and the
// loader's Cancel is eventually called exactly once; the removed observer
// never sees a success.
func TestCancellationOnLastObserverRemoved(t *testing.T) {
	registry := assetcoord.NewLoaderRegistry()
	loader := newFakeLoader("https", "Image")
	loader.async = true
	loader.delay = 80 * time.Millisecond
	registry.RegisterAssetLoader(loader)

	mgr, _ := newTestManager(t, assetcoord.Config{LoaderRegistry: registry})
	key := assetcoord.NewURLAssetKey("https://x/cancel.png")
	o1 := &fakeObserver{}

	mgr.AddAssetLoadObserver(key, o1, context.Background(), "Image", 0, 0, nil)

	if !waitFor(func() bool { return loader.startCallCount() == 1 }, testTimeout) {
		t.Fatalf("load never started")
	}
	mgr.RemoveAssetLoadObserver(key, o1)

	if !waitFor(func() bool { return loader.cancelCallCount() == 1 }, testTimeout) {
		t.Fatalf("expected Cancel to be called exactly once, got %d", loader.cancelCallCount())
	}

	// Let the delayed load finish in the background; the removed observer
	// must never see a success notification even though the load itself
	// ran to completion.
	time.Sleep(150 * time.Millisecond)
	if o1.count() != 0 {
		t.Errorf("expected the removed observer to receive no notification, got %d calls", o1.count())
	}
	if !waitFor(func() bool { return mgr.Stats().ManagedAssets == 0 }, testTimeout) {
		t.Fatalf("expected the managed asset to be collected once cancellation settled, stats=%+v", mgr.Stats())
	}
}
