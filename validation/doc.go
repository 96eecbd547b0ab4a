// Package validation checks configuration structs.
//
// Struct tags cover the static rules:
//
//	type RetryConfig struct {
//	    MaxAttempts int `mapstructure:"max_attempts" validate:"gte=1"`
//	}
//	err := validation.Validate(cfg)
//
// Cross-field rules go through a Validator:
//
//	v := validation.New()
//	v.OneOf("mode", cfg.Mode, modes).Merge("retry", validation.Validate(cfg.Retry))
//	err := v.Validate()
//
// Both return a VALIDATION_ERROR AppError whose "fields" detail lists
// every failing field.
package validation
