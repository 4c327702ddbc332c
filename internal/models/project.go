package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Project struct {
	ID                      uuid.UUID
	OwnerID                 uuid.UUID
	Name                    string
	Description             string
	BitcoinAddress          string
	GoalAmount              decimal.Decimal
	GoalCurrency            string
	LegacyRaisedAmount      decimal.Decimal
	BitcoinBalanceBTC       decimal.Decimal
	BitcoinBalanceUpdatedAt sql.NullTime
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// MaxMediaSlots is the number of media positions a project can hold.
const MaxMediaSlots = 3

type MediaAttachment struct {
	ID          uuid.UUID
	ProjectID   uuid.UUID
	StoragePath string
	Position    int
	AltText     string
	CreatedAt   time.Time
}
