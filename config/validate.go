package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"chapterize/command/artwork"
	"chapterize/internal/logger"
	"chapterize/probe"
)

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New()

	// Report YAML key names so messages match the config file
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	return v
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	errors := c.structErrors()

	if c.Source != "" {
		if info, err := os.Stat(c.Source); err != nil {
			errors = append(errors, fmt.Sprintf("source directory does not exist: %s", c.Source))
		} else if !info.IsDir() {
			errors = append(errors, fmt.Sprintf("source is not a directory: %s", c.Source))
		}
	}

	if !slices.Contains(probe.DurationStrategies(), c.Probe.DurationStrategy) {
		errors = append(errors, fmt.Sprintf("invalid duration strategy '%s', must be one of: %s",
			c.Probe.DurationStrategy, strings.Join(probe.DurationStrategies(), ", ")))
	}

	if !slices.Contains(probe.TagStrategies(), c.Probe.TagStrategy) {
		errors = append(errors, fmt.Sprintf("invalid tag strategy '%s', must be one of: %s",
			c.Probe.TagStrategy, strings.Join(probe.TagStrategies(), ", ")))
	}

	if _, err := probe.ParsePolicy(c.Probe.OnFailure); err != nil {
		errors = append(errors, err.Error())
	}

	if _, err := artwork.ParseTool(c.Artwork.Tool); err != nil {
		errors = append(errors, err.Error())
	}

	if !logger.ValidLevel(c.Log.Level) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s'", c.Log.Level))
	}

	if c.Probe.Timeout < 0 || c.Encode.Timeout < 0 || c.Artwork.Timeout < 0 {
		errors = append(errors, "timeouts cannot be negative (use 0 for no limit)")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// structErrors runs the struct tag rules and renders each failure as
// "<yaml.path> <message>".
func (c *Config) structErrors() []string {
	err := structValidator.Struct(c)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(validationErrs))
	for _, e := range validationErrs {
		_, field, _ := strings.Cut(e.Namespace(), ".")
		messages = append(messages, field+" "+friendlyMessage(e))
	}
	return messages
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(e.Param(), " ", ", ")
	case "startswith":
		return fmt.Sprintf("must start with %q", e.Param())
	case "gt":
		return "must be greater than " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	default:
		return "is invalid"
	}
}
