package bc

import "io"

// AssetRecord is one unit of custody of a metal: a quantity of some asset
// kind, the party that issued it and the party currently entitled to it.
// Records are values; a change of owner produces a new record.
type AssetRecord struct {
	AssetKind string `json:"asset_kind"`
	Quantity  uint64 `json:"quantity"`
	Issuer    Party  `json:"issuer"`
	Owner     Party  `json:"owner"`
}

// NewAssetRecord creates a new AssetRecord.
func NewAssetRecord(assetKind string, quantity uint64, issuer, owner Party) *AssetRecord {
	return &AssetRecord{
		AssetKind: assetKind,
		Quantity:  quantity,
		Issuer:    issuer,
		Owner:     owner,
	}
}

// WithOwner returns a copy of r owned by owner. Kind, quantity and issuer
// are carried over unchanged.
func (r *AssetRecord) WithOwner(owner Party) *AssetRecord {
	return NewAssetRecord(r.AssetKind, r.Quantity, r.Issuer, owner)
}

// Equal reports whether two records hold the same four fields.
func (r *AssetRecord) Equal(o *AssetRecord) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.AssetKind == o.AssetKind &&
		r.Quantity == o.Quantity &&
		r.Issuer.Equal(o.Issuer) &&
		r.Owner.Equal(o.Owner)
}

// WriteTo writes the canonical encoding of the record.
func (r *AssetRecord) WriteTo(w io.Writer) (int64, error) {
	hw := &hashWriter{w: w}
	r.writeTo(hw)
	return hw.n, hw.err
}

func (r *AssetRecord) writeTo(hw *hashWriter) {
	if r == nil {
		hw.write([]byte{0})
		return
	}
	hw.write([]byte{1})
	hw.writeVarstr([]byte(r.AssetKind))
	hw.writeUvarint(r.Quantity)
	r.Issuer.writeTo(hw)
	r.Owner.writeTo(hw)
}

// Hash returns the content hash of the record. Records with identical
// fields share a hash.
func (r *AssetRecord) Hash() Hash {
	h, _ := sumWriterTo(r)
	return h
}
