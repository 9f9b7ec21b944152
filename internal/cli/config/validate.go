package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/leapstack-labs/leapgrid/internal/catalog"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their config key, not the Go field name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		return fmt.Errorf("invalid configuration:\n  %s", strings.Join(msgs, "\n  "))
	}

	if !catalog.IsRegistered(c.Catalog.Type) {
		return &catalog.UnknownLoaderError{Type: c.Catalog.Type, Available: catalog.ListLoaders()}
	}

	seen := make(map[string]bool, len(c.Columns))
	for _, col := range c.Columns {
		if seen[col.ID] {
			return fmt.Errorf("duplicate column id %q", col.ID)
		}
		seen[col.ID] = true
	}
	return nil
}

// fieldMessage renders one validation failure with its dotted config key,
// e.g. "ui.port must be at most 65535".
func fieldMessage(fe validator.FieldError) string {
	// The namespace starts with the root struct name.
	_, key, _ := strings.Cut(fe.Namespace(), ".")
	switch fe.Tag() {
	case "required":
		return key + " is required"
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", key, fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", key, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", key, strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s is invalid (%s)", key, fe.Tag())
	}
}
