package bc

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"golang.org/x/crypto/sha3"
)

// Hash is a sha3-256 digest.
type Hash [32]byte

// EmptyStringHash is the digest of empty input.
var EmptyStringHash = Hash(sha3.Sum256(nil))

// NewHash convert the input byte array to hash
func NewHash(b32 [32]byte) Hash {
	return Hash(b32)
}

// MarshalText satisfies the TextMarshaler interface.
// It returns the bytes of h encoded in hex,
// for formats that can't hold arbitrary binary data.
// It never returns an error.
func (h Hash) MarshalText() ([]byte, error) {
	v := make([]byte, 64)
	hex.Encode(v, h[:])
	return v, nil
}

// UnmarshalText satisfies the TextUnmarshaler interface.
// It decodes hex data from b into h.
func (h *Hash) UnmarshalText(v []byte) error {
	if len(v) != 64 {
		return fmt.Errorf("bad length hash string %d", len(v))
	}
	var b [32]byte
	if _, err := hex.Decode(b[:], v); err != nil {
		return err
	}
	*h = Hash(b)
	return nil
}

// UnmarshalJSON satisfies the json.Unmarshaler interface.
// If b is a JSON-encoded null, it copies the zero-value into h. Otherwise, it
// decodes hex data from b into h.
func (h *Hash) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*h = Hash{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return h.UnmarshalText([]byte(s))
}

// Bytes returns the byte representation
func (h Hash) Bytes() []byte {
	b := h
	return b[:]
}

// WriteTo satisfies the io.WriterTo interface.
func (h Hash) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(h[:])
	return int64(n), err
}

// String returns the hash in hex encoded format
func (h Hash) String() string {
	str, _ := h.MarshalText()
	return string(str)
}

// IsZero tells whether a Hash pointer is nil or points to an all-zero
// hash.
func (h *Hash) IsZero() bool {
	if h == nil {
		return true
	}
	return *h == Hash{}
}

// sumWriterTo hashes everything wt writes.
func sumWriterTo(wt io.WriterTo) (h Hash, err error) {
	hasher := sha3.New256()
	if _, err = wt.WriteTo(hasher); err != nil {
		return h, err
	}
	hasher.Sum(h[:0])
	return h, nil
}
