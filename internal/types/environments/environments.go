package environments

import "strings"

// Environment selects the logger profile and the .env file loaded at startup.
type Environment string

const (
	Production  Environment = "production"
	Development Environment = "development"
	Staging     Environment = "staging"
	Test        Environment = "test"
)

// Parse normalizes an APP_ENV value. An empty value means Development.
func Parse(s string) Environment {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Development
	}
	return Environment(s)
}
