package security

import "regexp"

func mustRegex(expr string) *regexp.Regexp {
	return regexp.MustCompile(expr)
}
