package claims

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mileusna/useragent"
	"github.com/tech-arch1tect/angrymail/config"
	"github.com/tech-arch1tect/angrymail/database"
	"github.com/tech-arch1tect/angrymail/internal/apperrors"
	"github.com/tech-arch1tect/angrymail/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	maxClaimURLLength  = 500
	maxCodeLength      = 100
	maxUserAgentLength = 500
)

var (
	ErrMissingFields = apperrors.Validation("claim_url or verification_code required")
	ErrClaimURLLong  = apperrors.Validation("claim_url must be at most 500 characters")
	ErrCodeLong      = apperrors.Validation("verification_code must be at most 100 characters")
	ErrInvalidStatus = apperrors.Validation("Invalid status")
	ErrClaimNotFound = apperrors.NotFound("Claim not found")
	ErrConflict      = apperrors.Conflict("claim was modified by another request")
)

// Notifier delivers claim verification notices.
type Notifier interface {
	NotifyClaimVerification(ctx context.Context, email, code, claimURL string) bool
}

type SubmitInput struct {
	ClaimURL         string
	VerificationCode string
	IPAddress        string
	UserAgent        string
}

type ClaimPage struct {
	Claims     []Claim             `json:"claims"`
	Pagination database.Pagination `json:"pagination"`
}

type Service struct {
	gateway  *database.Gateway
	notifier Notifier
	config   *config.ClaimsConfig
	logger   *logging.Service
	now      func() time.Time
}

func NewService(gateway *database.Gateway, notifier Notifier, cfg *config.ClaimsConfig, logger *logging.Service) *Service {
	return &Service{
		gateway:  gateway,
		notifier: notifier,
		config:   cfg,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) SubmitClaim(ctx context.Context, input SubmitInput) (*Claim, error) {
	claimURL := optional(input.ClaimURL)
	code := optional(input.VerificationCode)

	if claimURL == nil && code == nil {
		return nil, ErrMissingFields
	}
	if claimURL != nil && utf8.RuneCountInString(*claimURL) > maxClaimURLLength {
		return nil, ErrClaimURLLong
	}
	if code != nil && utf8.RuneCountInString(*code) > maxCodeLength {
		return nil, ErrCodeLong
	}

	claim := &Claim{
		ClaimURL:         claimURL,
		VerificationCode: code,
		IPAddress:        input.IPAddress,
		UserAgent:        truncate(input.UserAgent, maxUserAgentLength),
		Status:           StatusPending,
		Version:          1,
	}
	if err := s.gateway.Insert(ctx, claim); err != nil {
		return nil, err
	}

	ua := useragent.Parse(input.UserAgent)
	s.logger.Info("claim submitted",
		zap.Uint("claim_id", claim.ID),
		zap.String("ip_address", claim.IPAddress),
		zap.String("browser", ua.Name),
		zap.String("os", ua.OS),
		zap.Bool("bot", ua.Bot),
		zap.Bool("has_url", claimURL != nil),
		zap.Bool("has_code", code != nil))

	return claim, nil
}

func (s *Service) GetClaimStatus(ctx context.Context, id uint) (*PublicClaim, error) {
	claim, err := s.find(ctx, s.gateway, id)
	if err != nil {
		return nil, err
	}
	return claim.Public(), nil
}

// ListClaims pages through claims newest first. An empty or "all" filter
// matches every status.
func (s *Service) ListClaims(ctx context.Context, statusFilter string, page, limit int) (*ClaimPage, error) {
	q := database.Query{Model: &Claim{}, Order: "created_at DESC, id DESC"}

	if statusFilter != "" && statusFilter != "all" {
		status := Status(statusFilter)
		if !status.Valid() {
			return nil, ErrInvalidStatus
		}
		q.Where, q.Args = "status = ?", []any{status}
	}

	pagination := database.NewPagination(page, limit, s.config.DefaultPageSize, s.config.MaxPageSize)

	total, err := s.gateway.Count(ctx, q)
	if err != nil {
		return nil, err
	}

	q.Limit, q.Offset = pagination.Limit, pagination.Offset()
	claims := []Claim{}
	if err := s.gateway.QueryMany(ctx, &claims, q); err != nil {
		return nil, err
	}

	return &ClaimPage{Claims: claims, Pagination: pagination.WithTotal(total)}, nil
}

// SetClaimStatus records an administrator decision. The write only applies
// if the row still carries expectedVersion (or the version read here when
// nil); otherwise ErrConflict is returned and nothing changes.
func (s *Service) SetClaimStatus(ctx context.Context, id uint, newStatus Status, expectedVersion *uint) (*Claim, error) {
	if !newStatus.Valid() {
		return nil, ErrInvalidStatus
	}

	var updated *Claim
	err := s.gateway.RunInTransaction(ctx, func(tx *database.Gateway) error {
		current, err := s.find(ctx, tx, id)
		if err != nil {
			return err
		}

		version := current.Version
		if expectedVersion != nil {
			version = *expectedVersion
		}

		values := map[string]any{
			"status":      newStatus,
			"verified_at": nil,
			"version":     gorm.Expr("version + ?", 1),
		}
		if newStatus == StatusVerified {
			values["verified_at"] = s.now()
		}

		rows, err := tx.Update(ctx, values, database.Query{
			Model: &Claim{},
			Where: "id = ? AND version = ?",
			Args:  []any{id, version},
		})
		if err != nil {
			return err
		}
		if rows == 0 {
			return ErrConflict
		}

		updated, err = s.find(ctx, tx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			s.logger.Warn("claim status conflict",
				zap.Uint("claim_id", id),
				zap.String("status", string(newStatus)))
		}
		return nil, err
	}

	s.logger.Info("claim status updated",
		zap.Uint("claim_id", id),
		zap.String("status", string(newStatus)),
		zap.Uint("version", updated.Version))
	return updated, nil
}

func (s *Service) RecentClaims(ctx context.Context, n int) ([]Claim, error) {
	if n < 1 {
		n = 10
	}
	claims := []Claim{}
	err := s.gateway.QueryMany(ctx, &claims, database.Query{
		Model: &Claim{},
		Order: "created_at DESC, id DESC",
		Limit: n,
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *Service) CountByStatus(ctx context.Context, status Status) (int64, error) {
	if !status.Valid() {
		return 0, ErrInvalidStatus
	}
	return s.gateway.Count(ctx, database.Query{
		Model: &Claim{},
		Where: "status = ?",
		Args:  []any{status},
	})
}

// SendVerificationNotice mails the claim's verification code to email.
// The bool reports whether the transport accepted the message.
func (s *Service) SendVerificationNotice(ctx context.Context, id uint, email string) (bool, error) {
	if strings.TrimSpace(email) == "" {
		return false, apperrors.Validation("email required")
	}

	claim, err := s.find(ctx, s.gateway, id)
	if err != nil {
		return false, err
	}
	if s.notifier == nil {
		return false, nil
	}

	var code, claimURL string
	if claim.VerificationCode != nil {
		code = *claim.VerificationCode
	}
	if claim.ClaimURL != nil {
		claimURL = *claim.ClaimURL
	}

	sent := s.notifier.NotifyClaimVerification(ctx, strings.TrimSpace(email), code, claimURL)
	s.logger.Info("claim verification notice",
		zap.Uint("claim_id", id),
		zap.Bool("sent", sent))
	return sent, nil
}

func (s *Service) find(ctx context.Context, gw *database.Gateway, id uint) (*Claim, error) {
	var claim Claim
	err := gw.QueryOne(ctx, &claim, database.Query{Where: "id = ?", Args: []any{id}})
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrClaimNotFound
		}
		return nil, err
	}
	return &claim, nil
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func truncate(value string, max int) string {
	if utf8.RuneCountInString(value) <= max {
		return value
	}
	return string([]rune(value)[:max])
}
