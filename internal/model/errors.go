package model

import "errors"

// ErrorKind classifies client failures.
type ErrorKind string

const (
	KindMissingWallet         ErrorKind = "missing_wallet"
	KindChainMismatch         ErrorKind = "chain_mismatch_unrecoverable"
	KindUserRejected          ErrorKind = "user_rejected"
	KindInsufficientInput     ErrorKind = "insufficient_input"
	KindQuoteUnavailable      ErrorKind = "quote_unavailable"
	KindAllowanceInsufficient ErrorKind = "allowance_insufficient"
	KindTransactionReverted   ErrorKind = "transaction_reverted"
	KindNetworkUnavailable    ErrorKind = "network_unavailable"
	KindCooldownUnknown       ErrorKind = "cooldown_unknown"
	KindCooldownActive        ErrorKind = "cooldown_active"
	KindNotConnected          ErrorKind = "not_connected"
	KindUnknown               ErrorKind = "unknown"
)

// Error is a classified failure with a user-facing message.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

// NewError builds a classified error. An empty message falls back to the wrapped error's text.
func NewError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the outermost classified error in the chain.
func KindOf(err error) ErrorKind {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
