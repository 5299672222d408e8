// README: DRC mobile-money number handling: validation, international formatting, operator lookup, masking.
package mobilepay

import (
	"regexp"
	"strings"
)

const UnknownOperator = "Unknown Operator"

var numberPattern = regexp.MustCompile(`^(243[0-9]{9}|0[0-9]{9})$`)

var numberCleaner = strings.NewReplacer(" ", "", "\t", "", "-", "", "(", "", ")", "")

type prefixRange struct {
	lo, hi   string
	operator string
}

// operatorPrefixes are the three digits after the 243 country code.
var operatorPrefixes = []prefixRange{
	{"810", "819", "Airtel Money"},
	{"820", "829", "Orange Money"},
	{"970", "979", "M-PESA"},
	{"900", "909", "AfriMoney"},
}

func CleanNumber(n string) string {
	return numberCleaner.Replace(n)
}

// ValidNumber accepts 243XXXXXXXXX or 0XXXXXXXXX after removing spaces, dashes and parentheses.
func ValidNumber(n string) bool {
	return numberPattern.MatchString(CleanNumber(n))
}

// FormatNumber converts a local 0XXXXXXXXX number to 243XXXXXXXXX.
func FormatNumber(n string) string {
	clean := CleanNumber(n)
	if strings.HasPrefix(clean, "0") {
		return "243" + clean[1:]
	}
	return clean
}

func Operator(n string) string {
	formatted := FormatNumber(n)
	if len(formatted) < 6 {
		return UnknownOperator
	}
	prefix := formatted[3:6]
	for _, r := range operatorPrefixes {
		if prefix >= r.lo && prefix <= r.hi {
			return r.operator
		}
	}
	return UnknownOperator
}

// MaskNumber keeps the first and last three characters. Short inputs are returned as is.
func MaskNumber(n string) string {
	if len(n) < 8 {
		return n
	}
	return n[:3] + "****" + n[len(n)-3:]
}
