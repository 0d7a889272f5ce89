package napihost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusStringKnownValues(t *testing.T) {
	cases := map[Status]string{
		StatusOK:                  "ok",
		StatusInvalidArg:          "invalid_arg",
		StatusNumberExpected:      "number_expected",
		StatusPendingException:    "pending_exception",
		StatusEscapeCalledTwice:   "escape_called_twice",
		StatusHandleScopeMismatch: "handle_scope_mismatch",
		StatusWouldDeadlock:       "would_deadlock",
		StatusCannotRunJS:         "cannot_run_js",
	}
	for status, want := range cases {
		assert.Equal(t, want, status.String())
	}
}

func TestStatusStringUnknown(t *testing.T) {
	assert.Equal(t, "unknown_status", Status(999).String())
}

func TestPropertyAttributesAreDistinctBits(t *testing.T) {
	assert.NotZero(t, AttributeWritable)
	assert.NotZero(t, AttributeEnumerable)
	assert.NotZero(t, AttributeConfigurable)
	assert.NotZero(t, AttributeStatic)
	assert.Zero(t, AttributeWritable&AttributeEnumerable)
	assert.Zero(t, AttributeConfigurable&AttributeStatic)
}
