package assetcoord

import "context"

// AssetConsumer is one observer's registered interest in an asset. It is
// owned by the ManagedAsset it belongs to and never outlives it.
type AssetConsumer struct {
	observer AssetLoadObserver // cleared by RemoveAssetLoadObserver; nil means "pending removal"
	ctx      context.Context

	outputType   string
	prefWidth    int
	prefHeight   int
	attachedData any

	state      ConsumerState
	lastResult consumerResult
	notified   bool

	handler *LoaderRequestHandler
}

func newConsumer(observer AssetLoadObserver, ctx context.Context, outputType string, w, h int, attached any) *AssetConsumer {
	if ctx == nil {
		ctx = context.Background()
	}
	return &AssetConsumer{
		observer:     observer,
		ctx:          ctx,
		outputType:   outputType,
		prefWidth:    w,
		prefHeight:   h,
		attachedData: attached,
		state:        ConsumerInitial,
	}
}

// matchesRequest reports whether this consumer's request shape matches the
// given one for the purposes of LoaderRequestHandler reuse (§4.1.4 step 3).
func (c *AssetConsumer) matchesRequest(outputType string, w, h int, attached any) bool {
	return c.outputType == outputType && c.prefWidth == w && c.prefHeight == h && deepEqual(c.attachedData, attached)
}
