package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/metalledger/metal/errors"
)

var wd, _ = os.Getwd()

// ExpectError fails t unless the root of fn's error is expected.
func ExpectError(t testing.TB, expected error, msg string, fn func() error) {
	t.Helper()
	if actual := fn(); errors.Root(actual) != expected {
		t.Errorf("%s: got error %v, expected %v", msg, actual, expected)
	}
}

// FatalErr reports err along with the stack trace recorded when it was
// first wrapped.
func FatalErr(t testing.TB, err error) {
	t.Helper()
	args := []interface{}{err}
	for _, frame := range errors.Stack(err) {
		file := frame.File
		if rel, err := filepath.Rel(wd, file); err == nil && !strings.HasPrefix(rel, "../") {
			file = rel
		}
		funcname := frame.Func[strings.IndexByte(frame.Func, '.')+1:]
		args = append(args, fmt.Sprintf("\n%s:%d: %s", file, frame.Line, funcname))
	}
	t.Fatal(args...)
}
