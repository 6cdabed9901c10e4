package store

import (
	"bytes"
	"fmt"

	"go.etcd.io/bbolt"
)

// Partition is a named, byte-ordered key-value map inside the store.
//
// Writes inside one Update call commit atomically and reads inside one View
// call see a consistent snapshot. Nothing is atomic across partitions or
// across calls.
type Partition struct {
	db   *bbolt.DB
	name []byte
}

// Name returns the partition name.
func (p *Partition) Name() string {
	return string(p.name)
}

// View runs fn in a read-only transaction.
func (p *Partition) View(fn func(*Txn) error) error {
	return p.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(p.name)
		if b == nil {
			return fmt.Errorf("partition %q is missing", p.name)
		}
		return fn(&Txn{bucket: b})
	})
}

// Update runs fn in a read-write transaction. If fn returns an error every
// write made through the Txn is discarded.
func (p *Partition) Update(fn func(*Txn) error) error {
	return p.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(p.name)
		if b == nil {
			return fmt.Errorf("partition %q is missing", p.name)
		}
		return fn(&Txn{bucket: b, writable: true})
	})
}

// Txn is a transaction scoped to one partition. It must not be used after
// the View or Update callback returns.
type Txn struct {
	bucket   *bbolt.Bucket
	writable bool
}

// Get returns a copy of the value stored under key, or nil if absent.
func (t *Txn) Get(key []byte) []byte {
	v := t.bucket.Get(key)
	if v == nil {
		return nil
	}
	return bytes.Clone(v)
}

// Put stores value under key, replacing any existing value.
func (t *Txn) Put(key, value []byte) error {
	if !t.writable {
		return fmt.Errorf("put in read-only transaction")
	}
	return t.bucket.Put(key, value)
}

// Delete removes key. Deleting an absent key is a no-op.
func (t *Txn) Delete(key []byte) error {
	if !t.writable {
		return fmt.Errorf("delete in read-only transaction")
	}
	return t.bucket.Delete(key)
}

// ForEach calls fn for every entry in key order. The slices passed to fn
// are only valid during the call.
func (t *Txn) ForEach(fn func(key, value []byte) error) error {
	return t.bucket.ForEach(fn)
}
