package config

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Validate checks that the merged configuration is usable. It runs after all
// overlay sources so a bad override fails fast at startup.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.HTTPAddr, validation.Required),
		validation.Field(&c.DatabaseDSN, validation.Required),
		validation.Field(&c.SecretKey, validation.Required),
		validation.Field(&c.AccessTokenValidityDuration, validation.Required),
	)
}
