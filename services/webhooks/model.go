package webhooks

import "time"

type Status string

const (
	StatusReceived  Status = "received"
	StatusProcessed Status = "processed"
	StatusFailed    Status = "failed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusReceived, StatusProcessed, StatusFailed:
		return true
	}
	return false
}

// Log is the audit record of one inbound webhook. ErrorMessage is set
// exactly when Status is failed; ProcessedAt only when processed.
type Log struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Source       string     `gorm:"size:100;not null;index" json:"source"`
	Payload      string     `gorm:"type:text" json:"payload"`
	Status       Status     `gorm:"size:20;not null;default:received;index" json:"status"`
	ErrorMessage *string    `gorm:"type:text" json:"error_message"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`
	ProcessedAt  *time.Time `json:"processed_at"`
}

func (Log) TableName() string {
	return "webhook_logs"
}
