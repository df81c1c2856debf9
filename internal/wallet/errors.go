package wallet

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
)

// Standard wallet error codes (EIP-1193 / EIP-3326).
const (
	CodeUserRejected      = 4001
	CodeUnauthorized      = 4100
	CodeUnrecognizedChain = 4902
)

// ProviderError is an error reported by the wallet with a numeric code.
type ProviderError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s (code %d)", e.Message, e.Code)
}

// ErrorCode implements rpc.Error.
func (e *ProviderError) ErrorCode() int { return e.Code }

// ErrorData implements rpc.DataError.
func (e *ProviderError) ErrorData() interface{} { return e.Data }

// ErrUserRejected is returned when the user declines a wallet prompt.
var ErrUserRejected = &ProviderError{Code: CodeUserRejected, Message: "User rejected the request."}

func errUnrecognizedChain(id string) error {
	return &ProviderError{Code: CodeUnrecognizedChain, Message: "Unrecognized chain ID " + id + ". Try adding the chain using wallet_addEthereumChain first."}
}

// ErrorCode extracts the wallet or JSON-RPC error code from err.
func ErrorCode(err error) (int, bool) {
	var coded rpc.Error
	if errors.As(err, &coded) {
		return coded.ErrorCode(), true
	}
	return 0, false
}

// IsUnrecognizedChain reports whether a switch failed because the wallet does not know the network.
func IsUnrecognizedChain(err error) bool {
	if err == nil {
		return false
	}
	if code, ok := ErrorCode(err); ok && code == CodeUnrecognizedChain {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "unrecognized")
}

// IsUserRejected reports whether the user declined the prompt.
func IsUserRejected(err error) bool {
	code, ok := ErrorCode(err)
	return ok && code == CodeUserRejected
}
