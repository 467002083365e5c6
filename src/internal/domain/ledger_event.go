package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type LedgerEventType string

const (
	LedgerEventAccountCreated   LedgerEventType = "account.created"
	LedgerEventFundsDeposited   LedgerEventType = "funds.deposited"
	LedgerEventFundsTransferred LedgerEventType = "funds.transferred"
)

type LedgerEvent struct {
	ID                  string          `json:"id"`
	Type                LedgerEventType `json:"type"`
	AccountName         string          `json:"accountName"`
	CounterpartyAccount string          `json:"counterpartyAccount,omitempty"`
	Amount              decimal.Decimal `json:"amount"`
	Balance             decimal.Decimal `json:"balance"`
	OccurredAt          time.Time       `json:"occurredAt"`
}

type EventPublisher interface {
	Publish(ctx context.Context, event LedgerEvent) error
}
