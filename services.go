package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/wricardo/micromouse/mouse/config"
	"github.com/wricardo/micromouse/mouse/service"
	"github.com/wricardo/micromouse/mouse/session"
)

const (
	idleCheckEvery = time.Hour
	idleLimit      = 24 * time.Hour
	storeSyncEvery = 5 * time.Second
)

// openStore returns the session store named by kind and a func that
// releases it
func openStore(kind, dir string) (session.Store, func() error, error) {
	switch kind {
	case "", "file":
		fs, err := session.NewFileStore(dir)
		if err != nil {
			return nil, nil, err
		}
		return fs, func() error { return nil }, nil
	case "badger":
		db, err := session.NewBadgerStore(dir)
		if err != nil {
			return nil, nil, err
		}
		return db, db.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown session store %q (use file or badger)", kind)
}

// initializeServices builds the run service over the maze directory and the
// session store, restores stored sessions and starts the housekeeping loops,
// which stop with ctx. The returned func flushes sessions and closes the store.
func initializeServices(ctx context.Context) (service.RunService, func(), error) {
	configs, err := config.NewManager(*configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create config manager: %w", err)
	}
	log.Printf("Loaded %d mazes from %s (default: %s)", configs.Count(), *configDir, configs.GetDefault().Name)

	st, closeStore, err := openStore(*store, *sessionsDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open session store: %w", err)
	}

	sessions := session.NewManagerWithStore(st)
	if err := sessions.Restore(); err != nil {
		log.Printf("Warning: %v", err)
	}

	go every(ctx, idleCheckEvery, func() {
		if n := sessions.EvictIdle(idleLimit); n > 0 {
			log.Printf("Evicted %d idle sessions", n)
		}
	})
	go every(ctx, storeSyncEvery, func() {
		if n := pruneOrphans(sessions, st); n > 0 {
			log.Printf("Store sync: dropped %d sessions missing from the store", n)
		}
	})

	shutdown := func() {
		if err := sessions.Flush(); err != nil {
			log.Printf("Warning: Failed to save sessions: %v", err)
		}
		if err := closeStore(); err != nil {
			log.Printf("Warning: Failed to close session store: %v", err)
		}
	}
	return service.NewRunService(sessions, configs), shutdown, nil
}

// every calls fn on each tick until ctx is done
func every(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

// pruneOrphans evicts live sessions whose stored copy is gone, so removing
// a session document by hand ends that run
func pruneOrphans(sessions *session.Manager, st session.Store) int {
	if st == nil {
		return 0
	}
	n := 0
	for _, s := range sessions.List() {
		if st.Has(s.ID) {
			continue
		}
		if sessions.Evict(s.ID) == nil {
			log.Printf("Session %s no longer stored; evicted", s.ID)
			n++
		}
	}
	return n
}
