package version

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	gover "github.com/hashicorp/go-version"
)

func TestRevisionLen(t *testing.T) {
	if revisionLen > 16 {
		t.Error("revisionLen too long")
	}
}

func TestCompare(t *testing.T) {
	rand.Seed(time.Now().UnixNano())
	rev := fmt.Sprintf("%016x", rand.Uint64())[:revisionLen]

	v1, err := gover.NewVersion(Version)
	if err != nil {
		t.Fatal("Version 1 format error.")
	}
	v2, err := gover.NewVersion(Version + "+" + rev)
	if err != nil {
		t.Fatal("Version 2 format error.")
	}
	if v1.GreaterThan(v2) || v2.GreaterThan(v1) {
		t.Error("build metadata must not affect ordering")
	}
}

func TestCompatibleWith(t *testing.T) {
	defer func(v string) { Version = v }(Version)
	Version = "1.4.2"

	cases := []struct {
		other string
		want  bool
	}{
		{"1.4.2", true},
		{"1.0.0", true},
		{"1.9.3+abcdef12", true},
		{"0.9.0", false},
		{"2.0.0", false},
	}
	for _, c := range cases {
		got, err := CompatibleWith(c.other)
		if err != nil {
			t.Errorf("CompatibleWith(%s): %v", c.other, err)
			continue
		}
		if got != c.want {
			t.Errorf("CompatibleWith(%s) = %v, want %v", c.other, got, c.want)
		}
	}

	if _, err := CompatibleWith("not a version"); err == nil {
		t.Error("expected an error for a malformed version")
	}
}

func TestNewer(t *testing.T) {
	defer func(v string) { Version = v }(Version)
	Version = "1.4.2"

	for other, want := range map[string]bool{"1.4.3": true, "2.0.0": true, "1.4.2": false, "1.3.9": false} {
		got, err := Newer(other)
		if err != nil || got != want {
			t.Errorf("Newer(%s) = %v, %v; want %v", other, got, err, want)
		}
	}
}
