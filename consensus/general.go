package consensus

// Metals accepted by the ledger. Records naming any other asset kind are
// rejected by validation.
const (
	Gold   = "Gold"
	Silver = "Silver"
)

var supportedAssets = map[string]bool{
	Gold:   true,
	Silver: true,
}

// IsSupportedAsset reports whether kind is on the metal allow-list. The
// comparison is exact: "gold" is not "Gold".
func IsSupportedAsset(kind string) bool {
	return supportedAssets[kind]
}

// SupportedAssets returns the allow-list in a stable order.
func SupportedAssets() []string {
	return []string{Gold, Silver}
}
