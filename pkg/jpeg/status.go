package jpeg

import (
	"errors"
	"strconv"
	"strings"

	"github.com/jpfielding/libjpeg.go/pkg/codec"
)

// statusSeparator splits the numeric code from the message in the
// composite status payload. Messages never contain it.
const statusSeparator = "::::"

// successMessage is the message paired with code 0.
const successMessage = "Normal conclusion of run"

// Status is the composite decode outcome in its legacy textual shape:
// a numeric code and a message joined by "::::". Code 0 is success;
// every failure carries a negative code from the codec error table.
type Status struct {
	Code    int
	Message string
}

// OK reports whether the status describes a successful run.
func (s Status) OK() bool { return s.Code == 0 }

// String renders the composite payload "<code>::::<message>".
func (s Status) String() string {
	return strconv.Itoa(s.Code) + statusSeparator + s.Message
}

// ParseStatus splits a composite payload back into its parts. The input
// must contain the separator with a valid integer before it; String and
// ParseStatus round-trip exactly.
func ParseStatus(s string) (Status, error) {
	head, msg, ok := strings.Cut(s, statusSeparator)
	if !ok {
		return Status{}, codec.Errorf(codec.CodeParameterMissing, "status %q has no separator", s)
	}
	code, err := strconv.Atoi(head)
	if err != nil {
		return Status{}, codec.Errorf(codec.CodeValueOutOfRange, "status code %q is not an integer", head)
	}
	return Status{Code: code, Message: msg}, nil
}

// StatusOf converts an error from this package into its status form.
// nil maps to success; a *codec.Error keeps its code and message; any
// other error is classed as an object construction failure.
func StatusOf(err error) Status {
	if err == nil {
		return Status{Code: 0, Message: successMessage}
	}
	var ce *codec.Error
	if errors.As(err, &ce) {
		return Status{Code: ce.Code, Message: ce.Message}
	}
	return Status{Code: codec.CodeObjectFailure, Message: err.Error()}
}

// GetParametersWithStatus is GetParameters with the error rendered as a
// Status, for callers interoperating with the legacy composite format.
func GetParametersWithStatus(data []byte) (codec.Parameters, Status) {
	p, err := GetParameters(data)
	return p, StatusOf(err)
}

// DecodeWithStatus is Decode with the error rendered as a Status.
func DecodeWithStatus(data []byte, t codec.Transform) ([]byte, codec.Parameters, Status) {
	buf, p, err := Decode(data, t)
	return buf, p, StatusOf(err)
}
