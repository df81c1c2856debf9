package model

// Activity kinds recorded in the journal.
const (
	ActivityApprove      = "approve"
	ActivitySwap         = "swap"
	ActivityAddLiquidity = "add_liquidity"
	ActivityClaim        = "claim"
)

// ActivityRecord is one confirmed transaction sent by the client.
type ActivityRecord struct {
	ChainID     uint64 `json:"chain_id"`
	Account     string `json:"account"`
	Kind        string `json:"kind"`
	TxHash      string `json:"tx_hash"`
	BlockNumber uint64 `json:"block_number"`
	Token       string `json:"token,omitempty"`
	AmountIn    string `json:"amount_in,omitempty"`
	AmountOut   string `json:"amount_out,omitempty"`
	MinOut      string `json:"min_out,omitempty"`
	AmountHouse string `json:"amount_house,omitempty"`
	AmountBicy  string `json:"amount_bicy,omitempty"`
	RecordedAt  string `json:"recorded_at"`
}
