package codec

import "fmt"

// Error code values. The numbering is inherited from the thorfdbg/libjpeg
// error table so that callers built against the original wrapper keep
// seeing the codes they already handle. 0 is success and is never carried
// by an Error.
const (
	CodeParameterOutOfRange = -1024 // a parameter for a function was out of range
	CodeStreamEmpty         = -1025 // stream run out of data
	CodeBlockEmpty          = -1026 // a code block run out of data
	CodeUnputcFailed        = -1027 // unputc/unget on an empty stream
	CodeValueOutOfRange     = -1028 // some parameter run out of range
	CodeOperationNotApply   = -1029 // the requested operation does not apply
	CodeObjectExists        = -1030 // tried to create an already existing object
	CodeObjectMissing       = -1031 // tried to access a non-existing object
	CodeParameterMissing    = -1032 // a non-optional parameter was left out
	CodeDelayedFF           = -1033 // forgot to delay a 0xFF
	CodeNotImplemented      = -1034 // internal: requested operation is not available
	CodePhaseError          = -1035 // internal: pass results do not coincide
	CodeNotAJPEG            = -1036 // the stream is no valid jpeg stream
	CodeDuplicateMarker     = -1037 // a unique marker turned up more than once
	CodeMisplacedMarker     = -1038 // a misplaced marker segment was found
	CodeUnsupportedProfile  = -1040 // parameters valid but unsupported by the profile
	CodeThreadFailure       = -1041 // internal: worker thread terminated unexpectedly
	CodeNoHuffmanCode       = -1042 // symbol without a defined Huffman code
	CodeObjectFailure       = -2046 // failed to construct the JPEG object
)

// descriptions maps error codes to their canonical one-line description.
var descriptions = map[int]string{
	CodeParameterOutOfRange: "A parameter for a function was out of range",
	CodeStreamEmpty:         "Stream run out of data",
	CodeBlockEmpty:          "A code block run out of data",
	CodeUnputcFailed:        "Tried to perform an unputc or an unget on an empty stream",
	CodeValueOutOfRange:     "Some parameter run out of range",
	CodeOperationNotApply:   "The requested operation does not apply",
	CodeObjectExists:        "Tried to create an already existing object",
	CodeObjectMissing:       "Tried to access a non-existing object",
	CodeParameterMissing:    "A non-optional parameter was left out",
	CodeDelayedFF:           "Forgot to delay a 0xFF",
	CodeNotImplemented:      "Internal error: the requested operation is not available",
	CodePhaseError:          "Internal error: an item computed on a former pass does not coincide with the same item on a later pass",
	CodeNotAJPEG:            "The stream passed in is no valid jpeg stream",
	CodeDuplicateMarker:     "A unique marker turned up more than once. The input stream is most likely corrupt",
	CodeMisplacedMarker:     "A misplaced marker segment was found",
	CodeUnsupportedProfile:  "The specified parameters are valid, but are not supported by the selected profile",
	CodeThreadFailure:       "Internal error: the worker thread that was currently active had to terminate unexpectedly",
	CodeNoHuffmanCode:       "The encoder tried to emit a symbol for which no Huffman code was defined",
	CodeObjectFailure:       "Failed to construct the JPEG object",
}

// Describe returns the canonical description for a known error code, or
// an empty string for codes outside the table.
func Describe(code int) string {
	return descriptions[code]
}

// Error is a decode failure with a numeric class and a human-readable
// message. The code is one of the Code* constants above; the message adds
// call-site detail (offset, marker, expected value).
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("libjpeg error %d: %s", e.Code, e.Message)
}

// Errorf builds an Error with a formatted message.
func Errorf(code int, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}
