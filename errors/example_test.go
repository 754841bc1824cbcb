package errors_test

import "github.com/metalledger/metal/errors"

var ErrUnknownParty = errors.New("unknown party")

func ExampleSub() {
	err := resolve()
	if err != nil {
		err = errors.Sub(ErrUnknownParty, err)
		return
	}
}

func ExampleSub_return() {
	err := resolve()
	err = errors.Sub(ErrUnknownParty, err)
	return
}

func resolve() error { return nil }
