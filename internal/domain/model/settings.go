package model

import (
	"time"

	"hotspot-pix-portal/internal/domain"
)

// RouterSettings holds the MikroTik management API credentials the
// provisioner uses. Admin edits go through Validate as whole-record
// replacements, never ad hoc field mutation.
type RouterSettings struct {
	Address   string // host or host:port of the RouterOS REST API
	Username  string
	Password  string
	UpdatedAt time.Time
}

func (s *RouterSettings) Validate() error {
	if s.Address == "" || s.Username == "" {
		return domain.ErrInvalidArgument
	}
	return nil
}

// PaymentSettings holds the PIX receiving key and the webhook signing
// secret issued by the payment provider.
type PaymentSettings struct {
	PixKey        string
	WebhookSecret string
	UpdatedAt     time.Time
}

func (s *PaymentSettings) Validate() error {
	if s.PixKey == "" {
		return domain.ErrInvalidArgument
	}
	return nil
}
