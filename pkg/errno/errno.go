package errno

import (
	"errors"

	"wallet-tx/pkg/address"
	"wallet-tx/pkg/filler"
	"wallet-tx/pkg/transaction"
)

// Errno defines the error code logic
type Errno struct {
	Code    int
	Message string
}

func (e Errno) Error() string {
	return e.Message
}

// WithMessage returns a copy of e carrying msg.
func (e Errno) WithMessage(msg string) Errno {
	e.Message = msg
	return e
}

// Decode tries to convert an error to a code and message. Library errors keep their own
// message so callers see which field or byte was wrong.
func Decode(err error) (int, string) {
	if err == nil {
		return OK.Code, OK.Message
	}

	var (
		typed       Errno
		typedPtr    *Errno
		validation  *transaction.ValidationError
		unsupported *transaction.UnsupportedTransactionError
		decodeErr   *transaction.DecodeError
		recovery    *transaction.RecoveryError
		network     *filler.NetworkError
	)
	switch {
	case errors.As(err, &typedPtr):
		return typedPtr.Code, typedPtr.Message
	case errors.As(err, &typed):
		return typed.Code, typed.Message
	case errors.As(err, &validation):
		return ErrTxValidation.Code, err.Error()
	case errors.As(err, &unsupported):
		return ErrTxUnsupported.Code, err.Error()
	case errors.As(err, &decodeErr):
		return ErrTxDecode.Code, err.Error()
	case errors.Is(err, transaction.ErrNoSignature):
		return ErrTxNotSigned.Code, err.Error()
	case errors.As(err, &recovery):
		return ErrTxRecovery.Code, err.Error()
	case errors.As(err, &network):
		return ErrNetwork.Code, err.Error()
	case errors.Is(err, address.ErrInvalidAddress), errors.Is(err, address.ErrChecksumMismatch):
		return ErrTxValidation.Code, err.Error()
	default:
		return InternalServerError.Code, err.Error()
	}
}

// Retryable reports whether the failed operation may succeed when repeated unchanged.
func Retryable(err error) bool {
	var network *filler.NetworkError
	return errors.As(err, &network)
}

// Common Errors
var (
	OK                  = Errno{Code: 0, Message: "Success"}
	InternalServerError = Errno{Code: 10001, Message: "Internal server error"}
	ErrBind             = Errno{Code: 10002, Message: "Error occurred while binding the request body to the struct"}
	ErrDatabase         = Errno{Code: 10004, Message: "Database error"}
	ErrNetwork          = Errno{Code: 10005, Message: "Node unavailable"}
)

// Transaction Errors (30000+)
var (
	ErrTxValidation   = Errno{Code: 30001, Message: "Invalid transaction fields"}
	ErrTxUnsupported  = Errno{Code: 30002, Message: "Unsupported transaction type"}
	ErrTxDecode       = Errno{Code: 30003, Message: "Malformed transaction bytes"}
	ErrTxRecovery     = Errno{Code: 30004, Message: "Sender recovery failed"}
	ErrTxNotSigned    = Errno{Code: 30005, Message: "Transaction is not signed"}
	ErrTxNotFound     = Errno{Code: 30101, Message: "Transaction not found"}
	ErrSignerDisabled = Errno{Code: 30201, Message: "No signing key configured"}
)
