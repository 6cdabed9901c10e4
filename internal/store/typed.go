package store

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var (
	encMode = mustEncMode()
	decMode = mustDecMode()
)

func mustEncMode() cbor.EncMode {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("store: build cbor encoder: %v", err))
	}
	return em
}

func mustDecMode() cbor.DecMode {
	dm, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("store: build cbor decoder: %v", err))
	}
	return dm
}

// CorruptValueError is the panic value raised when bytes written by this
// layer no longer decode. It signals a broken invariant, not a user error.
type CorruptValueError struct {
	Partition string
	Key       string
	Err       error
}

func (e *CorruptValueError) Error() string {
	return fmt.Sprintf("corrupt value in partition %q at key %q: %v", e.Partition, e.Key, e.Err)
}

func (e *CorruptValueError) Unwrap() error {
	return e.Err
}

// Table binds a partition to exactly one value type V. Values are stored in
// deterministic CBOR.
type Table[V any] struct {
	part *Partition
}

// NewTable wraps p. Every value in p must have been written as V.
func NewTable[V any](p *Partition) *Table[V] {
	return &Table[V]{part: p}
}

// Partition returns the underlying raw partition.
func (t *Table[V]) Partition() *Partition {
	return t.part
}

// View runs fn in a read-only transaction.
func (t *Table[V]) View(fn func(*TableTxn[V]) error) error {
	return t.part.View(func(txn *Txn) error {
		return fn(&TableTxn[V]{txn: txn, partition: t.part.Name()})
	})
}

// Update runs fn in a read-write transaction.
func (t *Table[V]) Update(fn func(*TableTxn[V]) error) error {
	return t.part.Update(func(txn *Txn) error {
		return fn(&TableTxn[V]{txn: txn, partition: t.part.Name()})
	})
}

// Get reads a single key in its own transaction.
func (t *Table[V]) Get(key []byte) (value V, found bool, err error) {
	err = t.View(func(tx *TableTxn[V]) error {
		value, found = tx.Get(key)
		return nil
	})
	return value, found, err
}

// TableTxn is a typed view of a partition transaction.
type TableTxn[V any] struct {
	txn       *Txn
	partition string
}

// Get decodes the value under key.
func (tx *TableTxn[V]) Get(key []byte) (V, bool) {
	var v V
	raw := tx.txn.Get(key)
	if raw == nil {
		return v, false
	}
	return tx.decode(key, raw), true
}

// Put encodes and stores v under key.
func (tx *TableTxn[V]) Put(key []byte, v V) error {
	raw, err := encMode.Marshal(v)
	if err != nil {
		// V is fixed at compile time, so this is a programming error.
		panic(fmt.Sprintf("store: encode %T for partition %q: %v", v, tx.partition, err))
	}
	return tx.txn.Put(key, raw)
}

// Delete removes key. Absent keys are ignored.
func (tx *TableTxn[V]) Delete(key []byte) error {
	return tx.txn.Delete(key)
}

// ForEach decodes every entry in key order.
func (tx *TableTxn[V]) ForEach(fn func(key []byte, v V) error) error {
	return tx.txn.ForEach(func(key, raw []byte) error {
		return fn(key, tx.decode(key, raw))
	})
}

func (tx *TableTxn[V]) decode(key, raw []byte) V {
	var v V
	if err := decMode.Unmarshal(raw, &v); err != nil {
		panic(&CorruptValueError{Partition: tx.partition, Key: string(key), Err: err})
	}
	return v
}
