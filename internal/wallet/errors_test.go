package wallet

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsUnrecognizedChain(t *testing.T) {
	assert.True(t, IsUnrecognizedChain(errUnrecognizedChain("0x10b")))
	assert.True(t, IsUnrecognizedChain(fmt.Errorf("switch: %w", errUnrecognizedChain("0x1"))))
	assert.True(t, IsUnrecognizedChain(errors.New("Unrecognized chain ID")))
	assert.False(t, IsUnrecognizedChain(ErrUserRejected))
	assert.False(t, IsUnrecognizedChain(nil))
}

func TestIsUserRejected(t *testing.T) {
	assert.True(t, IsUserRejected(fmt.Errorf("sign: %w", ErrUserRejected)))
	assert.False(t, IsUserRejected(errors.New("rejected")))

	code, ok := ErrorCode(ErrUserRejected)
	assert.True(t, ok)
	assert.Equal(t, CodeUserRejected, code)
}
