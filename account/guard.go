package account

import "encoding/binary"

// Ref is a shared hold on one resource of a record. It must be released
// exactly once, on every exit path of the scope that acquired it:
//
//	ref, err := acct.TryBorrowData()
//	if err != nil {
//	    return err
//	}
//	defer ref.Release()
//
// Release on an already released Ref is a no-op. Copies of a Ref share
// nothing; releasing two copies releases twice.
type Ref struct {
	state    *byte
	view     []byte
	res      Resource
	released bool
}

// Bytes returns the read-only view. Callers must not write through it and
// must not retain it past Release.
func (r *Ref) Bytes() []byte {
	return r.view
}

// Uint64 decodes the view as a little-endian u64, which is how a balance is
// stored.
func (r *Ref) Uint64() uint64 {
	return binary.LittleEndian.Uint64(r.view)
}

// Resource returns the resource the hold is on.
func (r *Ref) Resource() Resource {
	return r.res
}

// Release returns the shared hold.
func (r *Ref) Release() {
	if r.released || r.state == nil {
		return
	}
	r.released = true
	releaseShared(r.state, r.res)
	r.view = nil
}

// RefMut is an exclusive hold on one resource of a record, with the same
// release contract as Ref.
type RefMut struct {
	state    *byte
	view     []byte
	res      Resource
	released bool
}

// Bytes returns the mutable view.
func (r *RefMut) Bytes() []byte {
	return r.view
}

// Uint64 decodes the view as a little-endian u64.
func (r *RefMut) Uint64() uint64 {
	return binary.LittleEndian.Uint64(r.view)
}

// SetUint64 stores v little-endian into the view.
func (r *RefMut) SetUint64(v uint64) {
	binary.LittleEndian.PutUint64(r.view, v)
}

// Resource returns the resource the hold is on.
func (r *RefMut) Resource() Resource {
	return r.res
}

// Release returns the exclusive hold.
func (r *RefMut) Release() {
	if r.released || r.state == nil {
		return
	}
	r.released = true
	releaseExclusive(r.state, r.res)
	r.view = nil
}
