package session

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/wricardo/micromouse/mouse/service"
)

var sessionPrefix = []byte("session/")

// BadgerStore keeps sessions in an embedded badger database
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore opens (or creates) the database in dir. An empty dir
// gives a store that lives in memory only.
func NewBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil).WithInMemory(dir == "")
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger store: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// Close flushes pending writes
func (b *BadgerStore) Close() error {
	return b.db.Close()
}

func key(id string) []byte {
	return append(append([]byte{}, sessionPrefix...), id...)
}

func (b *BadgerStore) Put(s *service.Session) error {
	data, err := marshalSession(s)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(s.ID), data)
	})
}

func (b *BadgerStore) Fetch(id string) (*service.Session, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return nil, ErrSessionNotFound
	case err != nil:
		return nil, fmt.Errorf("read session %s: %w", id, err)
	}
	return unmarshalSession(data)
}

func (b *BadgerStore) Remove(id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key(id)); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrSessionNotFound
		} else if err != nil {
			return err
		}
		return txn.Delete(key(id))
	})
}

func (b *BadgerStore) IDs() ([]string, error) {
	var ids []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = sessionPrefix

		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			ids = append(ids, string(it.Item().Key()[len(sessionPrefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return ids, nil
}

func (b *BadgerStore) Has(id string) bool {
	if checkID(id) != nil {
		return false
	}
	return b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key(id))
		return err
	}) == nil
}
