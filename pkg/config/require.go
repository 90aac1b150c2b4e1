package config

import (
	"errors"
	"fmt"
	"strings"
)

var ErrMissingEnv = errors.New("missing required env")

// Validate reports every required setting that is unset.
func (c Config) Validate() error {
	var missing []string
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if len(c.JWTAccessSecret) == 0 {
		missing = append(missing, "JWT_SECRET")
	}
	if len(c.JWTRefreshSecret) == 0 {
		missing = append(missing, "JWT_REFRESH_SECRET")
	}
	if (c.RazorpayKeyID == "") != (c.RazorpayKeySecret == "") {
		missing = append(missing, "RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET must be set together")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}
	return nil
}
