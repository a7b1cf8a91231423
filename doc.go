// Package assetcoord implements an asset coordination engine: a
// single-writer registry that maps stable identities ("asset keys") to live
// load state, coalesces concurrent interest from many observers into
// at-most-one outstanding load per unique request, and drives each asset
// through a deterministic resolution -> loading -> notification pipeline.
//
// # Philosophy
//
// The engine does not decode bytes, cache them on disk, or move them over
// the network. It only answers one question well: "given N observers
// interested in the same asset under possibly different request shapes,
// what is the minimum set of loads in flight, and when do they notify?"
//
// # Collaborators
//
// The engine consumes five narrow interfaces supplied by the embedding
// application: ResourceLoader (local path resolution), RemoteModuleManager
// (remote module fetch), AssetLoaderRegistry (scheme+type -> AssetLoader),
// MainThread (single-writer dispatch) and WorkerQueue (background
// dispatch). See collaborators.go.
//
// # Basic usage
//
//	mgr := assetcoord.NewAssetsManager(assetcoord.Config{
//	    MainThread:          assetcoord.NewSerialMainThread(),
//	    WorkerQueue:         assetcoord.NewErrgroupWorkerQueue(),
//	    ResourceLoader:      myLoader,
//	    RemoteModuleManager: myRemotes,
//	    LoaderRegistry:      myRegistry,
//	})
//
//	obs := mgr.GetAsset(assetcoord.NewURLAssetKey("https://example.com/x.png"))
//	mgr.AddAssetLoadObserver(obs.Key(), observer, ctx, "Image", 64, 64, nil)
//
// All public methods are safe to call from any goroutine. The state machine
// itself is single-writer: it only ever advances on the goroutine designated
// by MainThread.
package assetcoord
