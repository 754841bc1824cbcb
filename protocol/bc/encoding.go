package bc

import (
	"encoding/binary"
	"io"
)

// hashWriter accumulates the first write error so the canonical encoders
// below can stay linear.
type hashWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (hw *hashWriter) write(b []byte) {
	if hw.err != nil {
		return
	}
	n, err := hw.w.Write(b)
	hw.n += int64(n)
	hw.err = err
}

func (hw *hashWriter) writeUvarint(x uint64) {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], x)
	hw.write(buf[:n])
}

// writeVarstr writes a length-prefixed byte string.
func (hw *hashWriter) writeVarstr(b []byte) {
	hw.writeUvarint(uint64(len(b)))
	hw.write(b)
}

// writerFunc adapts an encoder closure to io.WriterTo.
type writerFunc func(hw *hashWriter)

func (f writerFunc) WriteTo(w io.Writer) (int64, error) {
	hw := &hashWriter{w: w}
	f(hw)
	return hw.n, hw.err
}
