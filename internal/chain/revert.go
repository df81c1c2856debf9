package chain

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"neuraswap/internal/model"
)

// RevertReason decodes an Error(string) revert payload carried in a JSON-RPC error.
func RevertReason(err error) (string, bool) {
	var dataErr rpc.DataError
	if !errors.As(err, &dataErr) {
		return "", false
	}
	var raw []byte
	switch data := dataErr.ErrorData().(type) {
	case string:
		decoded, decodeErr := hexutil.Decode(data)
		if decodeErr != nil {
			return "", false
		}
		raw = decoded
	case []byte:
		raw = data
	default:
		return "", false
	}
	reason, unpackErr := abi.UnpackRevert(raw)
	if unpackErr != nil || reason == "" {
		return "", false
	}
	return reason, true
}

// ErrorMessage picks the most specific message available: a decoded revert reason,
// then a classified client message, then the error text itself.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	if reason, ok := RevertReason(err); ok {
		return reason
	}
	var classified *model.Error
	if errors.As(err, &classified) && classified.Message != "" {
		return classified.Message
	}
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return strings.TrimSpace(rpcErr.Error())
	}
	return err.Error()
}
