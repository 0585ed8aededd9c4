// Package persist adapts a secure key-value facility to the asynchronous
// storage-engine contract used by state-persistence layers.
//
// A state-persistence layer stores serialized state under keys it chooses
// itself, such as "persist:root". Those keys often contain characters the
// facility rejects, so the adapter passes every key through a Replacer first.
// Each operation then runs on its own goroutine and returns a
// *future.Future that settles exactly once; failures, including panics in
// the facility or the replacer, surface as rejections and never as
// synchronous panics.
//
// Usage:
//
//	store, _ := securestore.Open(ctx, cfg)
//	engine := persist.New(store, &persist.Options{ReplaceCharacter: "-"})
//
//	if _, err := engine.SetItem(ctx, "persist:root", state).Wait(ctx); err != nil {
//		return err
//	}
//	v, err := engine.GetItem(ctx, "persist:root").Wait(ctx) // v is nil when absent
package persist
