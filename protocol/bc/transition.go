package bc

import "io"

// Transition is a proposed change from a set of consumed records to a set
// of produced records under a declared intent. It has no identity of its
// own until a ledger commits it.
type Transition struct {
	Consumed []*AssetRecord `json:"consumed"`
	Produced []*AssetRecord `json:"produced"`
	Intent   Intent         `json:"intent"`
}

// NewTransition creates a new Transition.
func NewTransition(consumed, produced []*AssetRecord, intent Intent) *Transition {
	return &Transition{
		Consumed: consumed,
		Produced: produced,
		Intent:   intent,
	}
}

// WriteTo writes the canonical encoding signers commit to.
func (t *Transition) WriteTo(w io.Writer) (int64, error) {
	hw := &hashWriter{w: w}
	hw.writeUvarint(uint64(t.Intent))
	hw.writeUvarint(uint64(len(t.Consumed)))
	for _, r := range t.Consumed {
		r.writeTo(hw)
	}
	hw.writeUvarint(uint64(len(t.Produced)))
	for _, r := range t.Produced {
		r.writeTo(hw)
	}
	return hw.n, hw.err
}

// SigHash returns the digest every required signer signs.
func (t *Transition) SigHash() Hash {
	h, _ := sumWriterTo(t)
	return h
}

// NewTransitionID derives the ledger identity of a committed transition
// from its signature hash and a nonce chosen at commit time.
func NewTransitionID(sigHash Hash, nonce []byte) Hash {
	h, _ := sumWriterTo(writerFunc(func(hw *hashWriter) {
		hw.write(sigHash[:])
		hw.writeVarstr(nonce)
	}))
	return h
}

// EntryID identifies the record produced at position by a committed
// transition.
func EntryID(transitionID Hash, position uint64) Hash {
	h, _ := sumWriterTo(writerFunc(func(hw *hashWriter) {
		hw.write(transitionID[:])
		hw.writeUvarint(position)
	}))
	return h
}
