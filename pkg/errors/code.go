package errors

// ErrorCode identifies a class of failure.
type ErrorCode int

// Code ranges:
// 10000-10999: system & common errors
// 11000-11999: datastore errors
// 12000-12999: queue errors
// 13000-13999: sandbox & judge errors
const (
	Success ErrorCode = 10000

	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	ServiceUnavailable  ErrorCode = 10004
	Timeout             ErrorCode = 10005
	ValidationFailed    ErrorCode = 10006

	DatabaseError        ErrorCode = 11000
	RecordNotFound       ErrorCode = 11001
	SubmissionNotFound   ErrorCode = 11002
	ProblemNotFound      ErrorCode = 11003
	SubmissionNotPending ErrorCode = 11004

	QueueError       ErrorCode = 12000
	QueueEmpty       ErrorCode = 12001
	MessageMalformed ErrorCode = 12002

	SandboxError      ErrorCode = 13000
	JudgeSystemError  ErrorCode = 13001
	UnknownLanguage   ErrorCode = 13002
	DataPackError     ErrorCode = 13003
	DataPackCorrupted ErrorCode = 13004
	StorageError      ErrorCode = 13005
)

var codeMessages = map[ErrorCode]string{
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	ServiceUnavailable:  "Service unavailable",
	Timeout:             "Operation timed out",
	ValidationFailed:    "Validation failed",

	DatabaseError:        "Database error",
	RecordNotFound:       "Record not found",
	SubmissionNotFound:   "Submission not found",
	ProblemNotFound:      "Problem not found",
	SubmissionNotPending: "Submission is not pending",

	QueueError:       "Queue error",
	QueueEmpty:       "Queue is empty",
	MessageMalformed: "Message is malformed",

	SandboxError:      "Sandbox error",
	JudgeSystemError:  "Judge system error",
	UnknownLanguage:   "Unknown language",
	DataPackError:     "Data pack error",
	DataPackCorrupted: "Data pack is corrupted",
	StorageError:      "Object storage error",
}

// Message returns the default message for the code.
func (c ErrorCode) Message() string {
	if msg, ok := codeMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus maps the code to an HTTP status for API responses.
func (c ErrorCode) HTTPStatus() int {
	switch c {
	case Success:
		return 200
	case InvalidParams, ValidationFailed, MessageMalformed, UnknownLanguage:
		return 400
	case NotFound, RecordNotFound, SubmissionNotFound, ProblemNotFound:
		return 404
	case SubmissionNotPending:
		return 409
	case ServiceUnavailable:
		return 503
	case Timeout:
		return 504
	default:
		return 500
	}
}
