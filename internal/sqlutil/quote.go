// Package sqlutil provides quoting helpers for the MySQL run archive and for
// the ADQL queries sent to SIMBAD.
package sqlutil

import (
	"regexp"
	"strings"
)

// QuoteIdentifier quotes a MySQL identifier (table name, column name) with backticks.
// It escapes any existing backticks by doubling them.
// Example: "starsift_run" -> "`starsift_run`"
func QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// validIdentifierRegex restricts identifiers to alphanumerics and underscore.
var validIdentifierRegex = regexp.MustCompile("^[a-zA-Z0-9_]+$")

// IsValidIdentifier checks if a name is a valid MySQL identifier.
func IsValidIdentifier(name string) bool {
	return validIdentifierRegex.MatchString(name)
}

// QuoteIdentifierSafe quotes a MySQL identifier after validating it.
// Returns an error if the identifier contains invalid characters.
func QuoteIdentifierSafe(name string) (string, error) {
	if !IsValidIdentifier(name) {
		return "", &InvalidIdentifierError{Name: name}
	}
	return QuoteIdentifier(name), nil
}

// InvalidIdentifierError is returned when an identifier contains invalid characters.
type InvalidIdentifierError struct {
	Name string
}

func (e *InvalidIdentifierError) Error() string {
	return "invalid identifier: " + e.Name + " (must contain only alphanumeric characters and underscores)"
}

// QuoteLiteral renders s as an ADQL/SQL string literal, doubling embedded
// single quotes. ADQL has no backslash escapes.
// Example: "Gaia DR3 42" -> "'Gaia DR3 42'"
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// catalogNameRegex matches VizieR catalog designations such as
// "I/350/gaiaedr3", "B/wds" or "J/A+A/649/A6".
var catalogNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_+.\-]*(/[A-Za-z0-9_+.\-]+)*$`)

// IsValidCatalogName reports whether name looks like a VizieR catalog designation.
func IsValidCatalogName(name string) bool {
	return catalogNameRegex.MatchString(name)
}
