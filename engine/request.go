package engine

// Type identifies the kind of request and selects its handler.
type Type string

// Built-in request types registered by New.
const (
	TypeHTTPGet  Type = "HTTP_GET"
	TypeHTTPPost Type = "HTTP_POST"
)

// FieldType is the description key holding the request type.
const FieldType = "type"

// Description is the opaque input of one request. Apart from FieldType its
// keys are defined by the handler. It must not be modified while a call is
// in flight.
type Description map[string]any

// Type returns the request type, or false when it is missing, empty or not a string.
func (d Description) Type() (Type, bool) {
	switch v := d[FieldType].(type) {
	case string:
		return Type(v), v != ""
	case Type:
		return v, v != ""
	default:
		return "", false
	}
}
