package transaction

import (
	"errors"
	"fmt"
)

// ErrNoSignature 表示 RLP 列表在 payload 字段之后没有签名三元组。
// Decode 以此区分未签名交易与已签名交易，它不会返回给调用方。
var ErrNoSignature = errors.New("transaction: no signature")

// ValidationError is returned when a field record cannot form a valid transaction.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("transaction: invalid %s: %s", e.Field, e.Reason)
}

func missingField(f Field) error {
	return &ValidationError{Field: string(f), Reason: "required field is missing"}
}

// UnsupportedTransactionError reports a type tag or value shape outside the four known variants.
type UnsupportedTransactionError struct {
	Type string
}

func (e *UnsupportedTransactionError) Error() string {
	return fmt.Sprintf("transaction: unsupported transaction type %s", e.Type)
}

// DecodeError reports raw bytes that do not form a well-shaped transaction.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transaction: decode: %s: %v", e.Reason, e.Err)
	}
	return "transaction: decode: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

func decodeErrorf(format string, args ...interface{}) error {
	return &DecodeError{Reason: fmt.Sprintf(format, args...)}
}

// RecoveryError reports a signature from which no public key could be recovered.
type RecoveryError struct {
	Reason string
	Err    error
}

func (e *RecoveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transaction: recover sender: %s: %v", e.Reason, e.Err)
	}
	return "transaction: recover sender: " + e.Reason
}

func (e *RecoveryError) Unwrap() error { return e.Err }
