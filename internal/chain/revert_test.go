package chain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"neuraswap/internal/model"
)

type dataError struct {
	msg  string
	data interface{}
}

func (e *dataError) Error() string          { return e.msg }
func (e *dataError) ErrorCode() int         { return 3 }
func (e *dataError) ErrorData() interface{} { return e.data }

func revertPayload(t *testing.T, reason string) string {
	t.Helper()
	strType, err := abi.NewType("string", "", nil)
	if err != nil {
		t.Fatalf("abi type: %v", err)
	}
	packed, err := abi.Arguments{{Type: strType}}.Pack(reason)
	if err != nil {
		t.Fatalf("pack reason: %v", err)
	}
	selector := []byte{0x08, 0xc3, 0x79, 0xa0}
	return hexutil.Encode(append(selector, packed...))
}

func TestRevertReason(t *testing.T) {
	err := fmt.Errorf("estimate gas: %w", &dataError{msg: "execution reverted", data: revertPayload(t, "SLIPPAGE")})

	reason, ok := RevertReason(err)
	if !ok || reason != "SLIPPAGE" {
		t.Fatalf("reason mismatch: %q %v", reason, ok)
	}
	if got := ErrorMessage(err); got != "SLIPPAGE" {
		t.Fatalf("message mismatch: %s", got)
	}
}

func TestErrorMessageFallbacks(t *testing.T) {
	if got := ErrorMessage(&dataError{msg: "execution reverted", data: "0xzz"}); got != "execution reverted" {
		t.Fatalf("rpc message mismatch: %s", got)
	}
	classified := model.NewError(model.KindInsufficientInput, "enter amount > 0", nil)
	if got := ErrorMessage(fmt.Errorf("swap: %w", classified)); got != "enter amount > 0" {
		t.Fatalf("classified message mismatch: %s", got)
	}
	if got := ErrorMessage(errors.New("boom")); got != "boom" {
		t.Fatalf("generic message mismatch: %s", got)
	}
	if ErrorMessage(nil) != "" {
		t.Fatalf("nil must render empty")
	}
}
