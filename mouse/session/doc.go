// Package session manages micromouse run sessions.
//
// Each session owns one engine.MouseEngine and the maze it runs in. The
// Manager keeps live sessions in memory and, when given a Store, writes
// them through so a restarted server can resume every run where it
// stopped. Two stores are provided:
//
//   - FileStore: one JSON document per session in a directory
//   - BadgerStore: an embedded badger key/value database
//
// Generated session ids are UUIDs. Stored documents carry the maze next to
// the run state, so later edits to the maze directory do not break them.
//
// Usage:
//
//	store, err := session.NewBadgerStore("data/sessions")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer store.Close()
//
//	manager := session.NewManagerWithStore(store)
//	if err := manager.Restore(); err != nil {
//		log.Printf("Warning: %v", err)
//	}
package session
