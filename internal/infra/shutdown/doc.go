// Package shutdown provides signal-aware contexts and ordered cleanup.
//
// Usage:
//
//	ctx, stop := shutdown.WithSignals(context.Background())
//	defer stop()
//
//	hooks := shutdown.NewHooks(5 * time.Second)
//	hooks.Add(store.Close)
//	defer hooks.Run()
package shutdown
