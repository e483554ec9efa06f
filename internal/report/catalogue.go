package report

import (
	"regexp"
	"strings"
)

const (
	DefaultCataloguePrefix = "CW"
	DefaultCatalogueNumber = "001"
)

var cataloguePattern = regexp.MustCompile(`^([A-Za-z]+)[\s-]*([0-9]+)$`)

// ParseCatalogue splits a combined catalogue name such as "CG01" into its
// letter prefix and digit suffix.
func ParseCatalogue(name string) (string, string) {
	match := cataloguePattern.FindStringSubmatch(strings.TrimSpace(name))
	if match == nil {
		return DefaultCataloguePrefix, DefaultCatalogueNumber
	}
	return strings.ToUpper(match[1]), match[2]
}

func FormatCatalogue(prefix string, number string) string {
	return prefix + number
}

func validCatalogue(name string) bool {
	return cataloguePattern.MatchString(strings.TrimSpace(name))
}
