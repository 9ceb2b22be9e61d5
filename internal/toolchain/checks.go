package toolchain

import (
	"net/url"
	"regexp"
	"sync"

	"github.com/google/uuid"
)

var (
	digitChain = regexp.MustCompile(`^[0-9]+$`)
	number     = regexp.MustCompile(`^[+-]?(?:[0-9]+(?:[eE][+-]?[0-9]+)?|[0-9]*\.[0-9]+(?:[eE][+-]?[0-9]+)?)$`)
	email      = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)
	phone      = regexp.MustCompile(`^(?:\+\s?)?(?:\(\+?\d+(?:[\s\-.]?\d+)?\)|\d+)(?:[\s\-.]?(?:\(\d+(?:[\s\-.]?\d+)?\)|\d+))*(?:\s?(?:x|ext\.?)\s?\d+)?$`)
)

// patterns caches the expressions compiled by IsRegexMatch.
var patterns sync.Map

func checkFunctions() []function {
	return []function{
		{"IsDigitChain", matcher(digitChain)},
		{"IsNumber", matcher(number)},
		{"IsEmail", matcher(email)},
		{"IsPhone", matcher(phone)},
		{"IsUrl", isURL},
		{"IsRegexMatch", isRegexMatch},
		{"Guid", func(s string) (uuid.UUID, error) { return uuid.Parse(s) }},
	}
}

func matcher(re *regexp.Regexp) func(s *string) bool {
	return func(s *string) bool {
		return s != nil && re.MatchString(*s)
	}
}

func isURL(s *string) bool {
	if s == nil {
		return false
	}
	u, err := url.ParseRequestURI(*s)
	if err != nil || u.Host == "" {
		return false
	}
	switch u.Scheme {
	case "http", "https", "ftp":
		return true
	default:
		return false
	}
}

func isRegexMatch(s, pattern *string) (bool, error) {
	if s == nil || pattern == nil {
		return false, nil
	}
	if cached, ok := patterns.Load(*pattern); ok {
		return cached.(*regexp.Regexp).MatchString(*s), nil
	}
	re, err := regexp.Compile(*pattern)
	if err != nil {
		return false, err
	}
	patterns.Store(*pattern, re)
	return re.MatchString(*s), nil
}
