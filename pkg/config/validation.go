package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// This function uses go-playground/validator for declarative validation
// via struct tags, with additional custom validation for rules that
// cannot be expressed in tags.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
//
// Returns an error describing validation failures.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}
	return validateCustomRules(cfg)
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	// The badger store needs a database path
	if cfg.Metadata.Type == "badger" {
		path, _ := cfg.Metadata.Badger["db_path"].(string)
		if path == "" {
			return fmt.Errorf("metadata.badger: db_path is required")
		}
	}

	// The S3 store needs a bucket and region up front; discovering the
	// omission at boot is friendlier than an SDK error mid-request
	if cfg.Blob.Type == "s3" {
		bucket, _ := cfg.Blob.S3["bucket"].(string)
		if bucket == "" {
			return fmt.Errorf("blob.s3: bucket is required")
		}
		region, _ := cfg.Blob.S3["region"].(string)
		if region == "" {
			return fmt.Errorf("blob.s3: region is required")
		}
	}

	// Admin ids must not be blank entries
	for i, admin := range cfg.Authz.Admins {
		if admin == "" {
			return fmt.Errorf("authz.admins[%d]: admin user id must not be empty", i)
		}
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
