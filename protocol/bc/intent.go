package bc

import (
	"fmt"

	"github.com/metalledger/metal/errors"
)

// ErrUnknownIntent is returned when decoding a name or value outside the
// intent set.
var ErrUnknownIntent = errors.New("unknown intent")

// Intent declares the kind of change a transition makes. The set is closed;
// validation rejects any value not listed here.
type Intent uint8

// Intent values. The zero value is deliberately not a valid intent.
const (
	IntentIssue Intent = iota + 1
	IntentTransfer
)

var intentNames = map[Intent]string{
	IntentIssue:    "issue",
	IntentTransfer: "transfer",
}

func (i Intent) String() string {
	if name, ok := intentNames[i]; ok {
		return name
	}
	return fmt.Sprintf("intent(%d)", uint8(i))
}

// ParseIntent maps a name produced by String back to its Intent.
func ParseIntent(name string) (Intent, error) {
	for i, n := range intentNames {
		if n == name {
			return i, nil
		}
	}
	return 0, errors.WithDetailf(ErrUnknownIntent, "name %q", name)
}

// MarshalText satisfies the TextMarshaler interface.
func (i Intent) MarshalText() ([]byte, error) {
	if _, ok := intentNames[i]; !ok {
		return nil, errors.WithDetailf(ErrUnknownIntent, "cannot marshal %s", i)
	}
	return []byte(i.String()), nil
}

// UnmarshalText satisfies the TextUnmarshaler interface.
func (i *Intent) UnmarshalText(b []byte) error {
	parsed, err := ParseIntent(string(b))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}
