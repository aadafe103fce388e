package staging

import (
	"fmt"
	"os"
	"regexp"
)

// Finding identifies the sensitive pattern that blocked staging.
type Finding struct {
	Category string
	Pattern  string
}

// Inspector scans bytes for disallowed sensitive patterns. A nil Finding
// means the content is clear. Implementations read the full content; no
// streaming optimization is guaranteed.
type Inspector interface {
	Scan(data []byte) (*Finding, error)
	ScanFile(path string) (*Finding, error)
}

// SecretDetectedError indicates staging was refused because the content
// matched a sensitive pattern.
type SecretDetectedError struct {
	Category string
	Pattern  string
}

func (e *SecretDetectedError) Error() string {
	return fmt.Sprintf("secret detected: category=%s pattern=%s", e.Category, e.Pattern)
}

// secretRule pairs a compiled matcher with its reporting identifiers.
type secretRule struct {
	category string
	pattern  string
	re       *regexp.Regexp
}

// defaultRules cover common credential shapes. The inspection engine proper
// is pluggable; these keep the stager safe out of the box.
var defaultRules = []secretRule{
	{
		category: "cloud-credentials",
		pattern:  "aws-access-key-id",
		re:       regexp.MustCompile(`\b(?:AKIA|ASIA)[0-9A-Z]{16}\b`),
	},
	{
		category: "private-key",
		pattern:  "pem-private-key",
		re:       regexp.MustCompile(`-----BEGIN (?:RSA |EC |OPENSSH |DSA )?PRIVATE KEY-----`),
	},
	{
		category: "api-token",
		pattern:  "github-token",
		re:       regexp.MustCompile(`\bgh[pousr]_[0-9A-Za-z]{36,}\b`),
	},
	{
		category: "api-token",
		pattern:  "generic-secret-assignment",
		re:       regexp.MustCompile(`(?i)\b(?:api[_-]?key|secret[_-]?key|auth[_-]?token)\s*[:=]\s*['"][0-9A-Za-z/+_-]{16,}['"]`),
	},
}

// RegexpInspector is the default Inspector, backed by a fixed rule set.
type RegexpInspector struct {
	rules []secretRule
}

// NewRegexpInspector creates an inspector with the default rules.
func NewRegexpInspector() *RegexpInspector {
	return &RegexpInspector{rules: defaultRules}
}

// Scan checks data against every rule and reports the first match.
func (i *RegexpInspector) Scan(data []byte) (*Finding, error) {
	for _, rule := range i.rules {
		if rule.re.Match(data) {
			return &Finding{Category: rule.category, Pattern: rule.pattern}, nil
		}
	}
	return nil, nil
}

// ScanFile reads the file fully and scans it.
func (i *RegexpInspector) ScanFile(path string) (*Finding, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file for inspection: %w", err)
	}
	return i.Scan(data)
}
