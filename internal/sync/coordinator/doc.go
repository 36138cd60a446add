// Package coordinator provides background synchronization coordination for the launch store.
//
// It sits on top of sync.Manager and handles:
//
//   - Scheduling: one cycle at startup, then one cycle per configured interval
//   - Manual triggers that never overlap a scheduled cycle
//   - Status tracking through status.Tracker
//   - Graceful shutdown
//
// # Core Interface
//
//	type Coordinator interface {
//	    Start(ctx context.Context) error
//	    Stop() error
//	    TriggerSync(ctx context.Context, trigger status.Trigger) (*sync.Result, error)
//	}
//
// # Usage Example
//
//	syncManager := sync.NewDefaultSyncManager(fetcher, store)
//	coord := coordinator.New(syncManager, tracker, cfg.Sync, syncPipeline)
//
//	g.Go(func() error { return coord.Start(ctx) })
//
//	// ... run server ...
//
//	_ = coord.Stop()
//
// # Error Handling
//
// Every cycle runs inside the sync resilience pipeline. A failed cycle is
// logged, recorded as Failed and the loop keeps its normal interval. A cycle
// that panics is recovered, reported as an UNKNOWN_ERROR and the next wait
// is shortened to the error backoff interval. Status persistence errors are
// logged and never stop the loop.
package coordinator
