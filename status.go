package napihost

// Status mirrors napi_status value-for-value. Add-ons compiled against real
// NAPI headers expect these exact ordinals; do not renumber.
type Status int32

const (
	StatusOK Status = iota
	StatusInvalidArg
	StatusObjectExpected
	StatusStringExpected
	StatusNameExpected
	StatusFunctionExpected
	StatusNumberExpected
	StatusBooleanExpected
	StatusArrayExpected
	StatusGenericFailure
	StatusPendingException
	StatusCancelled
	StatusEscapeCalledTwice
	StatusHandleScopeMismatch
	StatusCallbackScopeMismatch
	StatusQueueFull
	StatusClosing
	StatusBigintExpected
	StatusDateExpected
	StatusArraybufferExpected
	StatusDetachableArraybufferExpected
	StatusWouldDeadlock
	StatusNoExternalBuffersAllowed
	StatusCannotRunJS
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusInvalidArg:
		return "invalid_arg"
	case StatusObjectExpected:
		return "object_expected"
	case StatusStringExpected:
		return "string_expected"
	case StatusNameExpected:
		return "name_expected"
	case StatusFunctionExpected:
		return "function_expected"
	case StatusNumberExpected:
		return "number_expected"
	case StatusBooleanExpected:
		return "boolean_expected"
	case StatusArrayExpected:
		return "array_expected"
	case StatusGenericFailure:
		return "generic_failure"
	case StatusPendingException:
		return "pending_exception"
	case StatusCancelled:
		return "cancelled"
	case StatusEscapeCalledTwice:
		return "escape_called_twice"
	case StatusHandleScopeMismatch:
		return "handle_scope_mismatch"
	case StatusCallbackScopeMismatch:
		return "callback_scope_mismatch"
	case StatusQueueFull:
		return "queue_full"
	case StatusClosing:
		return "closing"
	case StatusBigintExpected:
		return "bigint_expected"
	case StatusDateExpected:
		return "date_expected"
	case StatusArraybufferExpected:
		return "arraybuffer_expected"
	case StatusDetachableArraybufferExpected:
		return "detachable_arraybuffer_expected"
	case StatusWouldDeadlock:
		return "would_deadlock"
	case StatusNoExternalBuffersAllowed:
		return "no_external_buffers_allowed"
	case StatusCannotRunJS:
		return "cannot_run_js"
	default:
		return "unknown_status"
	}
}

// ValueType mirrors napi_valuetype.
type ValueType int32

const (
	TypeUndefined ValueType = iota
	TypeNull
	TypeBoolean
	TypeNumber
	TypeString
	TypeSymbol
	TypeObject
	TypeFunction
	TypeExternal
	TypeBigint
)

// TypedArrayType mirrors napi_typedarray_type.
type TypedArrayType int32

const (
	TypedArrayInt8 TypedArrayType = iota
	TypedArrayUint8
	TypedArrayUint8Clamped
	TypedArrayInt16
	TypedArrayUint16
	TypedArrayInt32
	TypedArrayUint32
	TypedArrayFloat32
	TypedArrayFloat64
	TypedArrayBigint64
	TypedArrayBiguint64
)

// PropertyAttributes mirrors the napi_property_attributes bitfield.
type PropertyAttributes uint32

const (
	AttributeDefault       PropertyAttributes = 0
	AttributeWritable      PropertyAttributes = 1 << 0
	AttributeEnumerable    PropertyAttributes = 1 << 1
	AttributeConfigurable  PropertyAttributes = 1 << 2
	AttributeStatic        PropertyAttributes = 1 << 10
)
