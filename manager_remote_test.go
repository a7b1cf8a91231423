package assetcoord_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/e7canasta/assetflow"
)

// TestRemoteRetry is S3: the first remote fetch fails, the asset goes
// FailedRetryable and the first observer sees the error; adding a second
// observer resets the asset to Initial, triggers a second fetch which
// succeeds, and both observers eventually see the artifact.
func TestRemoteRetry(t *testing.T) {
	registry := assetcoord.NewLoaderRegistry()
	loader := newFakeLoader("https", "Image")
	registry.RegisterAssetLoader(loader)

	remotes := &fakeRemoteModuleManager{async: true}
	errE1 := fmt.Errorf("fetch failed")
	remotes.push(func() (assetcoord.RemoteModuleResources, error) { return nil, errE1 })

	mgr, _ := newTestManager(t, assetcoord.Config{LoaderRegistry: registry, RemoteModuleManager: remotes})
	mgr.RegisterBundle(&fakeBundle{name: "game", remote: true})

	key := assetcoord.NewBundleAssetKey("game", "hero.png")
	o1 := &fakeObserver{}
	mgr.AddAssetLoadObserver(key, o1, context.Background(), "Image", 0, 0, nil)

	if !waitFor(func() bool { return o1.count() == 1 }, testTimeout) {
		t.Fatalf("observer 1 never saw the first failure")
	}
	call, _ := o1.last()
	if call.errMsg == nil {
		t.Fatalf("expected observer 1 to see an error")
	}
	if !waitFor(func() bool { return mgr.Stats().ByState[assetcoord.StateFailedRetryable] == 1 }, testTimeout) {
		t.Fatalf("expected FailedRetryable, got %+v", mgr.Stats())
	}

	res := &fakeRemoteResources{cacheURLs: map[string]string{"hero.png": "https://cdn/hero.png"}}
	remotes.push(func() (assetcoord.RemoteModuleResources, error) { return res, nil })

	o2 := &fakeObserver{}
	mgr.AddAssetLoadObserver(key, o2, context.Background(), "Image", 0, 0, nil)

	if !waitFor(func() bool { return o2.count() == 1 }, testTimeout) {
		t.Fatalf("observer 2 never saw the eventual success")
	}
	call2, _ := o2.last()
	if call2.errMsg != nil {
		t.Errorf("observer 2 expected success, got error %q", *call2.errMsg)
	}
	if call2.artifact != "artifact" {
		t.Errorf("observer 2 expected artifact, got %v", call2.artifact)
	}

	if !waitFor(func() bool { return o1.count() == 2 }, testTimeout) {
		t.Fatalf("observer 1 never saw the retried success, calls=%d", o1.count())
	}
	last1, _ := o1.last()
	if last1.errMsg != nil {
		t.Errorf("observer 1's second notification should be the success, got error %q", *last1.errMsg)
	}

	if remotes.callCount() != 2 {
		t.Errorf("expected exactly 2 remote fetches, got %d", remotes.callCount())
	}
}

// TestRemoteLocalFallback exercises the branch of resolveRemoteAssetLocation
// where the fetched manifest doesn't contain the path but ResourceLoader
// already has a local copy.
func TestRemoteLocalFallback(t *testing.T) {
	registry := assetcoord.NewLoaderRegistry()
	registry.RegisterAssetLoader(newFakeLoader("file", "Image"))

	remotes := &fakeRemoteModuleManager{}
	res := &fakeRemoteResources{cacheURLs: map[string]string{}}
	remotes.push(func() (assetcoord.RemoteModuleResources, error) { return res, nil })

	resources := newFakeResourceLoader()
	resources.set("game", "hero.png", "file:///local/hero.png")

	mgr, _ := newTestManager(t, assetcoord.Config{LoaderRegistry: registry, RemoteModuleManager: remotes, ResourceLoader: resources})
	mgr.RegisterBundle(&fakeBundle{name: "game", remote: true})

	key := assetcoord.NewBundleAssetKey("game", "hero.png")
	obs := &fakeObserver{}
	mgr.AddAssetLoadObserver(key, obs, context.Background(), "Image", 0, 0, nil)

	if !waitFor(func() bool { return obs.count() == 1 }, testTimeout) {
		t.Fatalf("observer not notified")
	}
	call, _ := obs.last()
	if call.errMsg != nil {
		t.Errorf("expected success via local fallback, got error %q", *call.errMsg)
	}
}
