package parser

import (
	"strconv"

	"github.com/CESNET/flowfilter/pkg/value"
)

// parseIntLiteral parses a decimal integer token into the widest
// unsigned representation; the analyser later coerces it down to Int
// where an operator requires signedness (spec.md §4A).
func parseIntLiteral(text string) (value.Value, error) {
	u, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		return value.Value{}, err
	}
	return value.UInt(u), nil
}

func parseFloatLiteral(text string) (value.Value, error) {
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return value.Value{}, err
	}
	return value.Float(f), nil
}
