package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// TxAction is a marketplace write operation
type TxAction string

const (
	TxActionBuy         TxAction = "buy"
	TxActionList        TxAction = "list"
	TxActionUnlist      TxAction = "unlist"
	TxActionUpdatePrice TxAction = "update-price"
)

// IsValid reports whether a is a known action
func (a TxAction) IsValid() bool {
	switch a {
	case TxActionBuy, TxActionList, TxActionUnlist, TxActionUpdatePrice:
		return true
	}
	return false
}

// TxStatus is the confirmation state of a tracked transaction
type TxStatus string

const (
	TxStatusPending   TxStatus = "PENDING"
	TxStatusConfirmed TxStatus = "CONFIRMED"
	TxStatusFailed    TxStatus = "FAILED"
)

// MarketplaceTransaction is a wallet-submitted write the service watches until it lands
type MarketplaceTransaction struct {
	ID          uuid.UUID   `json:"id"`
	SessionID   uuid.UUID   `json:"sessionId"`
	Action      TxAction    `json:"action"`
	TokenID     string      `json:"tokenId"`
	TxHash      string      `json:"txHash"`
	Status      TxStatus    `json:"status"`
	Error       null.String `json:"error"`
	BlockNumber null.Uint64 `json:"blockNumber"`
	ConfirmedAt null.Time   `json:"confirmedAt"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// TxRequest is an unsigned transaction for the user's wallet to sign
type TxRequest struct {
	To      string `json:"to"`
	Data    string `json:"data"`
	Value   string `json:"value"`
	ChainID int64  `json:"chainId"`
	Action  string `json:"action"`
	TokenID string `json:"tokenId"`
}
