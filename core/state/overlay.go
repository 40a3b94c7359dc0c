package state

import (
	"errors"
	"fmt"
	"sync"

	"qststaking/storage"
)

// Overlay stages writes on top of a database. Reads observe staged values
// first. Nothing reaches the database until Commit, which applies every
// staged write in a single batch.
type Overlay struct {
	mu      sync.Mutex
	db      storage.Database
	writes  map[string][]byte
	deleted map[string]struct{}
	done    bool
}

var errOverlayClosed = errors.New("state: overlay already committed or discarded")

// NewOverlay creates an empty overlay over db.
func NewOverlay(db storage.Database) *Overlay {
	return &Overlay{
		db:      db,
		writes:  make(map[string][]byte),
		deleted: make(map[string]struct{}),
	}
}

// Get returns the staged or persisted value stored under key.
func (o *Overlay) Get(key []byte) ([]byte, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	k := string(key)
	if value, ok := o.writes[k]; ok {
		return append([]byte(nil), value...), nil
	}
	if _, ok := o.deleted[k]; ok {
		return nil, storage.ErrNotFound
	}
	return o.db.Get(key)
}

// Has reports whether key resolves to a value.
func (o *Overlay) Has(key []byte) (bool, error) {
	_, err := o.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Put stages a write.
func (o *Overlay) Put(key, value []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.done {
		return errOverlayClosed
	}
	k := string(key)
	delete(o.deleted, k)
	o.writes[k] = append([]byte(nil), value...)
	return nil
}

// Delete stages a deletion.
func (o *Overlay) Delete(key []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.done {
		return errOverlayClosed
	}
	k := string(key)
	delete(o.writes, k)
	o.deleted[k] = struct{}{}
	return nil
}

// Pending returns the number of staged operations.
func (o *Overlay) Pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.writes) + len(o.deleted)
}

// Commit writes every staged operation to the database atomically and closes
// the overlay.
func (o *Overlay) Commit() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.done {
		return errOverlayClosed
	}
	batch := o.db.NewBatch()
	for k, value := range o.writes {
		batch.Put([]byte(k), value)
	}
	for k := range o.deleted {
		batch.Delete([]byte(k))
	}
	if batch.Len() > 0 {
		if err := batch.Write(); err != nil {
			return fmt.Errorf("state: commit overlay: %w", err)
		}
	}
	o.reset()
	return nil
}

// Discard drops every staged operation and closes the overlay.
func (o *Overlay) Discard() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.reset()
}

func (o *Overlay) reset() {
	o.writes = make(map[string][]byte)
	o.deleted = make(map[string]struct{})
	o.done = true
}
