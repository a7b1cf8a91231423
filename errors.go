package assetcoord

import "errors"

// Sentinel errors for the coordination engine's error taxonomy (§4.5, §7).
// Kinds are distinguished by which field holds the error — ManagedAsset vs
// AssetConsumer — not by a custom error type hierarchy.
var (
	// ErrLocalAssetNotFound is the ManagedAsset error for a bundle key whose
	// ResourceLoader could not produce a URL. Terminal: FailedPermanently.
	ErrLocalAssetNotFound = errors.New("assetcoord: local asset not found")

	// ErrNilArtifact is the per-consumer error when an AssetLoader reports
	// success with a nil artifact.
	ErrNilArtifact = errors.New("assetcoord: asset loader provided a null asset")

	// ErrNoLoader is the per-consumer error when no AssetLoader is
	// registered for a (scheme, output type) pair.
	ErrNoLoader = errors.New("assetcoord: no asset loader for scheme and output type")
)
