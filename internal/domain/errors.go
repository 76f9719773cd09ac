package domain

import "fmt"

type ErrCode string

const (
	CodeValidation       ErrCode = "VALIDATION_ERROR"
	CodeGatewayRejected  ErrCode = "GATEWAY_REJECTED"
	CodeTransport        ErrCode = "TRANSPORT_ERROR"
	CodeInvalidReference ErrCode = "INVALID_REFERENCE"
	CodeNotFound         ErrCode = "NOT_FOUND"
)

// User-facing messages. Raw gateway details never end up in these.
const (
	MsgInvalidPhone    = "Namba si sahihi."
	MsgGatewayRejected = "Ombi la malipo halikufanikiwa."
	MsgSystemError     = "Samahani, kumetokea tatizo la kimfumo."
	MsgCheckPhoneTitle = "Angalia Simu Yako!"
	MsgCheckPhoneBody  = "Tumekutumia ombi la malipo. Tafadhali weka namba yako ya siri kuthibitisha."
	MsgAwaitingConfirm = "Inasubiri Uthibitisho"
)

// Error carries a taxonomy code, the message safe to show a buyer, and
// the underlying cause for the logs.
type Error struct {
	Code    ErrCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NewError(code ErrCode, msg string, err error) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}
