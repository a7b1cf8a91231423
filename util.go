package assetcoord

import "reflect"

// deepEqual compares two opaque attached-data values for the purposes of
// LoaderRequestHandler reuse matching. attached data is caller-supplied and
// not guaranteed comparable with ==, so reflect.DeepEqual is the pragmatic
// choice here rather than requiring callers to implement an Equal method.
func deepEqual(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
