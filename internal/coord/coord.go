// Package coord resolves free-form RA/Dec strings into sky coordinates.
//
// Two notations are accepted, separated by whitespace only:
//
//	"11 02 24.8763629208 -77 33 35.667131796"  sexagesimal (RA in hours, Dec in degrees)
//	"165.520318183 -77.5599075361"             decimal degrees for both axes
//
// More than two tokens selects the sexagesimal reading.
package coord

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Units identifies how the two axes of an input string are expressed.
type Units int

const (
	// UnitsDegreeDegree is decimal degrees for both RA and Dec.
	UnitsDegreeDegree Units = iota
	// UnitsHourDegree is RA in hour angle and Dec in degrees, both sexagesimal.
	UnitsHourDegree
)

func (u Units) String() string {
	switch u {
	case UnitsHourDegree:
		return "hourangle/degree"
	case UnitsDegreeDegree:
		return "degree/degree"
	default:
		return fmt.Sprintf("Units(%d)", int(u))
	}
}

// Coordinate is an ICRS position in decimal degrees.
type Coordinate struct {
	RA    float64
	Dec   float64
	Units Units  // notation of the input it was parsed from
	Raw   string // original input
}

// String renders the position the way VizieR expects it in "-c".
func (c Coordinate) String() string {
	return fmt.Sprintf("%.8f %+.8f", c.RA, c.Dec)
}

// invalidChars matches anything outside digits, whitespace, '+', '-' and '.'.
var invalidChars = regexp.MustCompile(`[^0-9\s+\-.]`)

// ResolveArgs turns positional CLI arguments into a single coordinate string.
// A coordinate must be passed as one quoted argument.
func ResolveArgs(args []string) (string, error) {
	switch len(args) {
	case 0:
		return "", formatErr("", "coordinate is required")
	case 1:
		return args[0], nil
	default:
		return "", formatErr(strings.Join(args, " "),
			"remove unnecessary brackets; pass RA/Dec as a single string separated by spaces")
	}
}

// ResolveUnits validates the character set and structure of input and
// reports which notation it uses.
func ResolveUnits(input string) (Units, error) {
	if strings.Contains(input, ":") {
		return 0, formatErr(input, "separate by spaces only")
	}
	if bad := invalidChars.FindAllString(input, -1); len(bad) > 0 {
		return 0, formatErr(input, "invalid character(s) %q; separate by spaces only and no brackets", strings.Join(bad, ""))
	}

	tokens := strings.Fields(input)
	if len(tokens) == 0 {
		return 0, formatErr(input, "coordinate is empty")
	}
	if len(tokens) > 2 {
		return UnitsHourDegree, nil
	}
	return UnitsDegreeDegree, nil
}

// Parse resolves input and converts it to decimal degrees.
func Parse(input string) (Coordinate, error) {
	units, err := ResolveUnits(input)
	if err != nil {
		return Coordinate{}, err
	}

	tokens := strings.Fields(input)
	var ra, dec float64
	switch units {
	case UnitsHourDegree:
		ra, dec, err = parseSexagesimal(input, tokens)
	default:
		ra, dec, err = parseDegrees(input, tokens)
	}
	if err != nil {
		return Coordinate{}, err
	}

	return Coordinate{RA: ra, Dec: dec, Units: units, Raw: input}, nil
}

func parseDegrees(input string, tokens []string) (float64, float64, error) {
	if len(tokens) != 2 {
		return 0, 0, formatErr(input, "expected RA and Dec in degrees")
	}

	ra, err := parseNumber(input, tokens[0])
	if err != nil {
		return 0, 0, err
	}
	dec, err := parseNumber(input, tokens[1])
	if err != nil {
		return 0, 0, err
	}

	if ra < 0 || ra >= 360 {
		return 0, 0, formatErr(input, "right ascension %v out of range [0, 360)", ra)
	}
	if dec < -90 || dec > 90 {
		return 0, 0, formatErr(input, "declination %v out of range [-90, 90]", dec)
	}
	return ra, dec, nil
}

// parseSexagesimal reads "h m [s] d m [s]". The field count must be even so
// it can be split evenly between the axes.
func parseSexagesimal(input string, tokens []string) (float64, float64, error) {
	if len(tokens) != 4 && len(tokens) != 6 {
		return 0, 0, formatErr(input, "expected 'h m s d m s' or 'h m d m', got %d fields", len(tokens))
	}
	half := len(tokens) / 2

	hours, err := sexagesimalValue(input, tokens[:half], "right ascension")
	if err != nil {
		return 0, 0, err
	}
	if hours < 0 || hours >= 24 {
		return 0, 0, formatErr(input, "right ascension %vh out of range [0, 24)", hours)
	}

	dec, err := sexagesimalValue(input, tokens[half:], "declination")
	if err != nil {
		return 0, 0, err
	}
	if dec < -90 || dec > 90 {
		return 0, 0, formatErr(input, "declination %v out of range [-90, 90]", dec)
	}

	return hours * 15, dec, nil
}

// sexagesimalValue combines lead, minutes and optional seconds. The sign is
// taken from the lead token text so "-00 30 00" stays negative.
func sexagesimalValue(input string, fields []string, axis string) (float64, error) {
	lead, err := parseNumber(input, fields[0])
	if err != nil {
		return 0, err
	}
	negative := strings.HasPrefix(fields[0], "-")

	value := math.Abs(lead)
	scale := 60.0
	for _, f := range fields[1:] {
		if strings.ContainsAny(f, "+-") {
			return 0, formatErr(input, "%s minutes/seconds cannot be signed", axis)
		}
		part, err := parseNumber(input, f)
		if err != nil {
			return 0, err
		}
		if part >= 60 {
			return 0, formatErr(input, "%s field %v must be below 60", axis, part)
		}
		value += part / scale
		scale *= 60
	}

	if negative {
		value = -value
	}
	return value, nil
}

func parseNumber(input, token string) (float64, error) {
	v, err := strconv.ParseFloat(token, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, formatErr(input, "%q is not a number", token)
	}
	return v, nil
}
