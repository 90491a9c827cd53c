// Package snapshot stores catalog loads in SQLite.
//
// Each stored run holds the load summary, every catalog instance encoded as JSON
// and every diagnostic the load produced. Runs are keyed by the load's run id, so
// the rows written for one load can be matched against its log lines.
//
// # Usage
//
//	store, err := snapshot.Open(ctx, &cfg.Snapshot, logger)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	manager.OnLoad(store.Hook(ctx))
//
// Reading back:
//
//	run, err := store.Latest(ctx)
//	bow, err := store.Get(ctx, run.ID, "Bow")
//	diags, err := store.Diagnostics(ctx, run.ID)
//
// The store uses the pure Go modernc.org/sqlite driver, so no cgo toolchain is
// required. Setting snapshot.retain prunes older runs after every save.
package snapshot
