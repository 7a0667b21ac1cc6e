package config

import (
	"fmt"
	"regexp"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

var validFieldTypes = map[string]bool{
	"date": true, "currency": true, "postal": true,
	"phone": true, "bool": true, "text": true,
}

// Validate checks the configuration for required fields and valid values.
// Configuration errors fail here, before any record is processed.
func (c *Config) Validate() error {
	var errors ValidationErrors

	if c.Paths.Input == "" {
		errors = append(errors, ValidationError{
			Field:   "paths.input",
			Message: "input directory is required",
		})
	}
	if c.Paths.Output == "" {
		errors = append(errors, ValidationError{
			Field:   "paths.output",
			Message: "output directory is required",
		})
	}

	if len(c.Pipelines) == 0 {
		errors = append(errors, ValidationError{
			Field:   "pipelines",
			Message: "at least one pipeline must be defined",
		})
	}
	for name, p := range c.Pipelines {
		if err := c.validatePipeline(name, &p); err != nil {
			errors = append(errors, err...)
		}
	}

	if err := c.validateLogging(); err != nil {
		errors = append(errors, err...)
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}

// ValidateDatabase checks the database section. Split from Validate because
// only the extraction commands need a reachable database.
func (c *Config) ValidateDatabase() error {
	var errors ValidationErrors

	if c.Database.Host == "" {
		errors = append(errors, ValidationError{
			Field:   "database.host",
			Message: "host is required",
		})
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   "database.port",
			Message: "port must be between 1 and 65535",
		})
	}
	if c.Database.User == "" {
		errors = append(errors, ValidationError{
			Field:   "database.user",
			Message: "user is required",
		})
	}
	if c.Database.Database == "" {
		errors = append(errors, ValidationError{
			Field:   "database.database",
			Message: "database name is required",
		})
	}

	validTLS := map[string]bool{"disable": true, "preferred": true, "required": true, "": true}
	if !validTLS[c.Database.TLS] {
		errors = append(errors, ValidationError{
			Field:   "database.tls",
			Message: "tls must be 'disable', 'preferred', or 'required'",
		})
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validatePipeline(name string, p *PipelineConfig) ValidationErrors {
	var errors ValidationErrors
	prefix := fmt.Sprintf("pipelines.%s", name)

	errors = append(errors, validateSnapshot(prefix+".source", &p.Source)...)
	errors = append(errors, validateSnapshot(prefix+".ledger", &p.Ledger)...)

	if p.IdentifierColumn == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".identifier_column",
			Message: "identifier_column is required",
		})
	}

	if !p.Enrichment.Key.IsZero() {
		errors = append(errors, validateKeySpec(prefix+".enrichment.key", p.Enrichment.Key)...)
	}

	return errors
}

func validateSnapshot(prefix string, s *SnapshotConfig) ValidationErrors {
	var errors ValidationErrors

	if s.Subdir == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".subdir",
			Message: "subdir is required",
		})
	}
	if s.Pattern == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".pattern",
			Message: "pattern is required",
		})
	}

	for raw, canonical := range s.Rename {
		if strings.TrimSpace(canonical) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("%s.rename.%s", prefix, raw),
				Message: "rename target must not be empty",
			})
		}
	}

	errors = append(errors, validateKeySpec(prefix+".key", s.Key)...)

	if s.KeyPattern != "" {
		if _, err := regexp.Compile(s.KeyPattern); err != nil {
			errors = append(errors, ValidationError{
				Field:   prefix + ".key_pattern",
				Message: fmt.Sprintf("invalid pattern: %v", err),
			})
		}
	}

	for field, spec := range s.Fields {
		if !validFieldTypes[spec.Type] {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("%s.fields.%s.type", prefix, field),
				Message: "type must be one of date, currency, postal, phone, bool, text",
			})
		}
		if spec.Type == "postal" && spec.Length <= 0 {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("%s.fields.%s.length", prefix, field),
				Message: "postal fields require a positive length",
			})
		}
	}

	return errors
}

func validateKeySpec(prefix string, k KeySpec) ValidationErrors {
	var errors ValidationErrors

	switch {
	case len(k.Components) > 0 && k.Passthrough != "":
		errors = append(errors, ValidationError{
			Field:   prefix,
			Message: "components and passthrough are mutually exclusive",
		})
	case len(k.Components) == 0 && k.Passthrough == "":
		errors = append(errors, ValidationError{
			Field:   prefix,
			Message: "either components or passthrough must be set",
		})
	case len(k.Components) > 0 && k.Separator == "":
		errors = append(errors, ValidationError{
			Field:   prefix + ".separator",
			Message: "separator is required with components",
		})
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}
