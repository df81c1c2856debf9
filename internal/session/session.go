package session

import (
	"github.com/ethereum/go-ethereum/common"

	"neuraswap/internal/contracts"
	"neuraswap/internal/model"
)

// Status is the connection lifecycle state.
type Status int

const (
	Disconnected Status = iota
	Connecting
	Connected
	Failed
)

func (s Status) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Session is one live wallet attachment. It is replaced, never mutated, on reconnect.
type Session struct {
	Account       common.Address
	ChainVerified bool
	Contracts     *contracts.Bundle
	decimals      *DecimalsCache
}

// Decimals returns the decimals fetched for ref when the session was opened.
func (s *Session) Decimals(ref model.TokenRef) uint8 {
	if s == nil || s.decimals == nil {
		return 0
	}
	v, _ := s.decimals.Get(ref)
	return v
}
