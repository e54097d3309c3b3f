package models

import (
	"time"

	"gorm.io/datatypes"
)

type SignalSource string

const (
	SignalSourceWebhook SignalSource = "webhook"
	SignalSourceConfirm SignalSource = "confirm"
)

type PaymentSignalLogStatus string

const (
	PaymentSignalLogStatusReceived     PaymentSignalLogStatus = "received"
	PaymentSignalLogStatusHandled      PaymentSignalLogStatus = "handled"
	PaymentSignalLogStatusHandleFailed PaymentSignalLogStatus = "handle_failed"
)

// PaymentSignalLog records every inbound payment signal (webhook delivery or
// client confirm) and its handling result, for audit and manual
// reconciliation of contradictory signals.
type PaymentSignalLog struct {
	ID            string                 `gorm:"column:id;type:uuid;primary_key" json:"id"`
	Source        SignalSource           `gorm:"column:source;type:varchar(16);not null" json:"source"`
	UserID        *string                `gorm:"column:user_id;type:uuid" json:"user_id"`
	TraceID       string                 `gorm:"column:trace_id;type:varchar(128)" json:"trace_id"`
	TransactionID string                 `gorm:"column:transaction_id;type:varchar(64);index" json:"transaction_id"`
	SignalTime    time.Time              `gorm:"column:signal_time" json:"signal_time"`
	Data          datatypes.JSON         `gorm:"column:data;type:jsonb" json:"data"`
	Result        *datatypes.JSON        `gorm:"column:result;type:jsonb" json:"result"`
	Status        PaymentSignalLogStatus `gorm:"column:status;type:varchar(32);not null" json:"status"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

func (PaymentSignalLog) TableName() string { return "payment_signal_log" }
