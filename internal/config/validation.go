package config

import (
	"fmt"
	"net/url"
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

// Validate checks the configuration for required fields and valid values.
//
// Query parameters that have a domain meaning of their own (search radius,
// magnitude range, coordinate syntax) are checked by the finder so that they
// surface as RangeError/FormatError; Validate only rejects values that would
// make the tool misbehave regardless of the sky region.
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.validateQuery()...)
	errors = append(errors, c.validateCrossRef()...)
	errors = append(errors, c.validateServices()...)
	errors = append(errors, c.validateProcessing()...)
	errors = append(errors, c.validateOutput()...)

	if c.Archive.Enabled {
		errors = append(errors, c.validateDatabase("archive.database", &c.Archive.Database)...)
	}

	errors = append(errors, c.validateLogging()...)

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateQuery() ValidationErrors {
	var errors ValidationErrors

	if c.Query.RUWEMax < 0 {
		errors = append(errors, ValidationError{
			Field:   "query.ruwe_max",
			Message: "ruwe_max cannot be negative",
		})
	}

	if c.Query.RowLimit == 0 || c.Query.RowLimit < -1 {
		errors = append(errors, ValidationError{
			Field:   "query.row_limit",
			Message: "row_limit must be positive or -1 for unlimited",
		})
	}

	for i, cat := range c.Query.Catalogs {
		if strings.TrimSpace(cat) == "" {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("query.catalogs[%d]", i),
				Message: "catalog name cannot be empty",
			})
		}
	}

	return errors
}

func (c *Config) validateCrossRef() ValidationErrors {
	var errors ValidationErrors

	if strings.TrimSpace(c.CrossRef.ReleaseTag) == "" {
		errors = append(errors, ValidationError{
			Field:   "crossref.release_tag",
			Message: "release_tag is required",
		})
	}

	if strings.TrimSpace(c.CrossRef.BinaryToken) == "" {
		errors = append(errors, ValidationError{
			Field:   "crossref.binary_token",
			Message: "binary_token is required",
		})
	}

	return errors
}

func (c *Config) validateServices() ValidationErrors {
	var errors ValidationErrors

	check := func(field, raw string) {
		if raw == "" {
			errors = append(errors, ValidationError{Field: field, Message: "url is required"})
			return
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errors = append(errors, ValidationError{Field: field, Message: "url must be an absolute http(s) URL"})
		}
	}

	check("services.vizier_url", c.Services.VizieRURL)
	check("services.simbad_url", c.Services.SimbadURL)

	return errors
}

func (c *Config) validateProcessing() ValidationErrors {
	var errors ValidationErrors

	if c.Processing.Concurrency <= 0 {
		errors = append(errors, ValidationError{
			Field:   "processing.concurrency",
			Message: "concurrency must be positive",
		})
	}

	if c.Processing.RequestsPerSecond <= 0 {
		errors = append(errors, ValidationError{
			Field:   "processing.requests_per_second",
			Message: "requests_per_second must be positive",
		})
	}

	if c.Processing.Burst <= 0 {
		errors = append(errors, ValidationError{
			Field:   "processing.burst",
			Message: "burst must be positive",
		})
	}

	if c.Processing.MaxRetries < 0 {
		errors = append(errors, ValidationError{
			Field:   "processing.max_retries",
			Message: "max_retries cannot be negative",
		})
	}

	if c.Processing.InitialBackoffSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "processing.initial_backoff_seconds",
			Message: "initial_backoff_seconds cannot be negative",
		})
	}

	if c.Processing.TimeoutSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "processing.timeout_seconds",
			Message: "timeout_seconds cannot be negative",
		})
	}

	return errors
}

func (c *Config) validateOutput() ValidationErrors {
	var errors ValidationErrors

	if strings.TrimSpace(c.Output.Path) == "" {
		errors = append(errors, ValidationError{
			Field:   "output.path",
			Message: "path is required",
		})
	}

	return errors
}

func (c *Config) validateDatabase(prefix string, db *DatabaseConfig) ValidationErrors {
	var errors ValidationErrors

	if db.Host == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".host",
			Message: "host is required",
		})
	}

	if db.Port <= 0 || db.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".port",
			Message: "port must be between 1 and 65535",
		})
	}

	if db.User == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".user",
			Message: "user is required",
		})
	}

	if db.Database == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".database",
			Message: "database name is required",
		})
	}

	validTLS := map[string]bool{"disable": true, "preferred": true, "required": true, "": true}
	if !validTLS[db.TLS] {
		errors = append(errors, ValidationError{
			Field:   prefix + ".tls",
			Message: "tls must be 'disable', 'preferred', or 'required'",
		})
	}

	if db.MaxConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".max_connections",
			Message: "max_connections cannot be negative",
		})
	}

	if db.MaxIdleConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".max_idle_connections",
			Message: "max_idle_connections cannot be negative",
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
