package types

// MaxImageBytes is the upload ceiling for soil photos.
const MaxImageBytes = 10 << 20 // 10 MB

// Rejection kinds. Every rejected transition carries one of these and leaves
// session state unchanged.
const (
	KindValidation   = "validation"   // bad file type/size, empty required field
	KindCapability   = "capability"   // geolocation/camera unavailable or denied
	KindPrecondition = "precondition" // action invoked before its dependency exists
	KindBusy         = "busy"         // the slot is already loading
	KindNotFound     = "not_found"
)

type TransitionError struct {
	Kind    string `json:"kind"`
	Message string `json:"error"`
}

func (e *TransitionError) Error() string { return e.Message }

func Validation(msg string) *TransitionError   { return &TransitionError{KindValidation, msg} }
func Capability(msg string) *TransitionError   { return &TransitionError{KindCapability, msg} }
func Precondition(msg string) *TransitionError { return &TransitionError{KindPrecondition, msg} }
func Busy(msg string) *TransitionError         { return &TransitionError{KindBusy, msg} }
func NotFound(msg string) *TransitionError     { return &TransitionError{KindNotFound, msg} }
