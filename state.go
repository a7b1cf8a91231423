package assetcoord

// AssetState is the lifecycle state of a ManagedAsset.
//
// Invariant: State == Ready implies the resolved location is a value;
// State in {FailedRetryable, FailedPermanently} implies it is an error.
type AssetState int

const (
	StateInitial AssetState = iota
	StateResolvingLocation
	StateReady
	StateFailedRetryable
	StateFailedPermanently
)

func (s AssetState) String() string {
	switch s {
	case StateInitial:
		return "initial"
	case StateResolvingLocation:
		return "resolving_location"
	case StateReady:
		return "ready"
	case StateFailedRetryable:
		return "failed_retryable"
	case StateFailedPermanently:
		return "failed_permanently"
	default:
		return "unknown"
	}
}

// ConsumerState is the lifecycle state of a single AssetConsumer.
type ConsumerState int

const (
	ConsumerInitial ConsumerState = iota
	ConsumerLoading
	ConsumerLoaded
	ConsumerFailed
	ConsumerRemoved
)

func (s ConsumerState) String() string {
	switch s {
	case ConsumerInitial:
		return "initial"
	case ConsumerLoading:
		return "loading"
	case ConsumerLoaded:
		return "loaded"
	case ConsumerFailed:
		return "failed"
	case ConsumerRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// locationResult is a resolved location or the error that prevented
// resolving one — the value-or-error representation used throughout this
// package (§7: "Results are represented uniformly as either value-or-error").
type locationResult struct {
	set      bool
	location AssetLocation
	err      error
}

func locationOK(loc AssetLocation) locationResult {
	return locationResult{set: true, location: loc}
}

func locationErr(err error) locationResult {
	return locationResult{set: true, err: err}
}

func (r locationResult) isOK() bool { return r.set && r.err == nil }

// consumerResult is the value-or-error outcome delivered to one consumer.
type consumerResult struct {
	set      bool
	artifact any
	err      error
}

func consumerOK(artifact any) consumerResult {
	return consumerResult{set: true, artifact: artifact}
}

func consumerErr(err error) consumerResult {
	return consumerResult{set: true, err: err}
}
