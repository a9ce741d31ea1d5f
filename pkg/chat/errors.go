package chat

// ErrorKind tags a failure with how it must be routed: sender-only,
// room-wide, or swallowed after logging.
type ErrorKind string

const (
	KindAuth          ErrorKind = "auth_failure"
	KindValidation    ErrorKind = "validation_failure"
	KindAuthorization ErrorKind = "authorization_failure"
	KindPersistence   ErrorKind = "persistence_failure"
	KindEnrichment    ErrorKind = "enrichment_failure"
)

type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// KindOf extracts the kind of a pipeline error, or "" for plain errors.
func KindOf(err error) ErrorKind {
	if ee, ok := err.(*Error); ok {
		return ee.Kind
	}
	return ""
}
