// Package registry provides a generic thread-safe registry for values indexed by key.
//
// Registry is tuned for lookup-heavy use with sync.RWMutex. The event package
// keeps its runtime-registered generator names in one:
//
//	names := registry.New[event.Generator, string]()
//	if !names.Claim(70, "gripper") {
//	    // 70 already has a name
//	}
//
//	name, ok := names.Get(70)
//
// Find performs a reverse lookup by scanning a snapshot, which is fine for the
// small tables this package is meant for.
//
// # Thread Safety
//
// All methods are safe for concurrent use. Range and Find iterate over a
// snapshot, so callbacks may call Register or Delete without deadlocking.
package registry
