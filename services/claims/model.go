package claims

import "time"

type Status string

const (
	StatusPending  Status = "pending"
	StatusVerified Status = "verified"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusRejected:
		return true
	}
	return false
}

// Claim is an anonymous attestation awaiting adjudication. VerifiedAt is
// non-nil exactly when Status is verified. Version increments on every
// status write.
type Claim struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	ClaimURL         *string    `gorm:"size:500" json:"claim_url"`
	VerificationCode *string    `gorm:"size:100" json:"verification_code"`
	IPAddress        string     `gorm:"size:45" json:"ip_address"`
	UserAgent        string     `gorm:"size:500" json:"user_agent"`
	Status           Status     `gorm:"size:20;not null;default:pending;index" json:"status"`
	Version          uint       `gorm:"not null;default:1" json:"version"`
	CreatedAt        time.Time  `gorm:"index" json:"created_at"`
	VerifiedAt       *time.Time `json:"verified_at"`
}

func (Claim) TableName() string {
	return "claims"
}

// PublicClaim is the projection shown to anonymous callers. It never
// carries the submitter's address or user agent.
type PublicClaim struct {
	ID         uint       `json:"id"`
	Status     Status     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	VerifiedAt *time.Time `json:"verified_at"`
}

func (c *Claim) Public() *PublicClaim {
	return &PublicClaim{
		ID:         c.ID,
		Status:     c.Status,
		CreatedAt:  c.CreatedAt,
		VerifiedAt: c.VerifiedAt,
	}
}
