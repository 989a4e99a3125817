package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Upper bounds the on-disk format can record (LFS_NAME_MAX, LFS_FILE_MAX and
// LFS_ATTR_MAX are all capped at these in littlefs itself).
const (
	maxNameMax = 1022
	maxFileMax = 2147483647
	maxAttrMax = 1022
)

// Validate validates the configuration using struct tags and custom rules.
//
// This function uses go-playground/validator for declarative validation
// via struct tags, with additional custom validation for complex rules
// that cannot be expressed in tags.
//
// Returns an error describing validation failures.
func Validate(cfg *Config) error {
	// Run struct tag validation
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	// Custom validation rules that can't be expressed in tags
	return validateCustomRules(cfg)
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	limits := cfg.Engine.Limits
	if limits.NameMax > maxNameMax {
		return fmt.Errorf("engine.limits.name_max: %d exceeds %d", limits.NameMax, maxNameMax)
	}
	if limits.FileMax > maxFileMax {
		return fmt.Errorf("engine.limits.file_max: %d exceeds %d", limits.FileMax, maxFileMax)
	}
	if limits.AttrMax > maxAttrMax {
		return fmt.Errorf("engine.limits.attr_max: %d exceeds %d", limits.AttrMax, maxAttrMax)
	}

	switch cfg.Engine.Type {
	case "badger":
		inMemory, _ := cfg.Engine.Badger["in_memory"].(bool)
		if path, _ := cfg.Engine.Badger["path"].(string); path == "" && !inMemory {
			return fmt.Errorf("engine.badger: path is required unless in_memory is set")
		}
	case "s3":
		if bucket, _ := cfg.Engine.S3["bucket"].(string); bucket == "" {
			return fmt.Errorf("engine.s3: bucket is required")
		}
		if region, _ := cfg.Engine.S3["region"].(string); region == "" {
			return fmt.Errorf("engine.s3: region is required")
		}
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		// Return the first validation error with context
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
