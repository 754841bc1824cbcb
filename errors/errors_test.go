package errors

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestWrap(t *testing.T) {
	err := errors.New("0")
	err1 := Wrap(err, "1")
	err2 := Wrap(err1, "2")
	err3 := Wrap(err2)

	if got := Root(err1); got != err {
		t.Fatalf("Root(%v)=%v want %v", err1, got, err)
	}

	if got := Root(err2); got != err {
		t.Fatalf("Root(%v)=%v want %v", err2, got, err)
	}

	if err2.Error() != "2: 1: 0" {
		t.Fatalf("err msg = %s want '2: 1: 0'", err2.Error())
	}

	if err3.Error() != "2: 1: 0" {
		t.Fatalf("err msg = %s want '2: 1: 0'", err3.Error())
	}

	if len(Stack(err3)) == 0 {
		t.Fatal("wrapped error has no stack trace")
	}
}

func TestWrapNil(t *testing.T) {
	var err error

	if err1 := Wrap(err, "1"); err1 != nil {
		t.Fatal("wrapping nil error should yield nil")
	}
	if err1 := WithDetail(err, "1"); err1 != nil {
		t.Fatal("detailing nil error should yield nil")
	}
	if err1 := WithData(err, "k", "v"); err1 != nil {
		t.Fatal("adding data to nil error should yield nil")
	}
}

func TestWrapf(t *testing.T) {
	err := errors.New("0")
	err1 := Wrapf(err, "there are %d errors being wrapped", 1)
	if err1.Error() != "there are 1 errors being wrapped: 0" {
		t.Fatalf("err msg = %s want 'there are 1 errors being wrapped: 0'", err1.Error())
	}
}

func TestDetail(t *testing.T) {
	root := errors.New("foo")
	cases := []struct {
		err     error
		detail  string
		message string
	}{
		{root, "", "foo"},
		{WithDetail(root, "bar"), "bar", "bar: foo"},
		{WithDetail(WithDetail(root, "bar"), "baz"), "bar; baz", "baz: bar: foo"},
		{Wrap(WithDetail(root, "bar"), "baz"), "bar", "baz: bar: foo"},
		{WithDetailf(root, "quantity %d", 10), "quantity 10", "quantity 10: foo"},
	}

	for _, c := range cases {
		if got := Detail(c.err); got != c.detail {
			t.Errorf("Detail(%v) = %v want %v", c.err, got, c.detail)
		}
		if got := c.err.Error(); got != c.message {
			t.Errorf("Error() = %v want %v", got, c.message)
		}
		if Root(c.err) != root {
			t.Errorf("Root(%v) = %v want %v", c.err, Root(c.err), root)
		}
	}
}

func TestData(t *testing.T) {
	root := errors.New("foo")
	err := WithData(root, "a", 1)
	err = WithData(err, "b", "two")

	want := map[string]interface{}{"a": 1, "b": "two"}
	if got := Data(err); !reflect.DeepEqual(got, want) {
		t.Errorf("Data(%v) = %v want %v", err, got, want)
	}
	if err.Error() != "foo" {
		t.Errorf("data must not change the message, got %q", err.Error())
	}
	if Data(root) != nil {
		t.Errorf("Data(root) = %v want nil", Data(root))
	}
}

func TestSub(t *testing.T) {
	x := errors.New("x")
	y := errors.New("y")

	cases := []struct{ root, err, want error }{
		{nil, nil, nil},
		{x, nil, nil},
		{nil, y, nil},
		{x, y, x},
		{x, Wrap(y, "w"), x},
	}

	for _, c := range cases {
		if got := Root(Sub(c.root, c.err)); got != c.want {
			t.Errorf("Root(Sub(%v, %v)) = %v want %v", c.root, c.err, got, c.want)
		}
	}

	if got := Sub(x, Wrap(y, "w")).Error(); !strings.HasPrefix(got, "w") {
		t.Errorf("Sub kept message %q, want context prefix", got)
	}
}

func TestStdlibCompat(t *testing.T) {
	root := errors.New("root")
	err := WithDetail(Wrap(root, "ctx"), "detail")
	if !errors.Is(err, root) {
		t.Errorf("errors.Is(%v, root) = false", err)
	}
}
