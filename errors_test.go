package napihost

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSTypeErrorMessage(t *testing.T) {
	err := &JSTypeError{Code: "E_ARG", Message: "expected a number"}
	assert.Equal(t, "TypeError [E_ARG]: expected a number", err.Error())

	bare := &JSTypeError{Message: "expected a number"}
	assert.Equal(t, "TypeError: expected a number", bare.Error())
}

func TestJSErrorUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &JSError{Code: "E_IO", Message: "failed", Cause: cause}
	assert.ErrorIs(t, err, cause)
}

func TestJSRangeErrorUnwrap(t *testing.T) {
	cause := errors.New("out of range")
	err := &JSRangeError{Message: "index too large", Cause: cause}
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "RangeError: index too large", err.Error())
}
