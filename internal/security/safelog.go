package security

import (
	"regexp"
	"strings"
)

// sensitiveFields contains field names that should be masked in logs.
var sensitiveFields = map[string]bool{
	"api_key":     true,
	"apikey":      true,
	"secret":      true,
	"password":    true,
	"token":       true,
	"bearer":      true,
	"credential":  true,
	"credentials": true,
}

// sensitivePatterns matches inline secrets in free-form text.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(api[_-]?key|secret[_-]?key|access[_-]?token|auth[_-]?token|bearer|password)[=:\s]+["']?([^\s"']+)["']?`),
	regexp.MustCompile(`(sk-[A-Za-z0-9-]{20,})`), // OpenAI keys
}

// MaskValue masks a secret for display, keeping the first and last two
// characters of values long enough to stay unidentifiable.
func MaskValue(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 8 {
		return "****"
	}
	return value[:2] + strings.Repeat("*", len(value)-4) + value[len(value)-2:]
}

// MaskString masks any inline secrets found in free-form text before
// it is logged or printed.
func MaskString(s string) string {
	for _, re := range sensitivePatterns {
		s = re.ReplaceAllStringFunc(s, func(match string) string {
			groups := re.FindStringSubmatch(match)
			if len(groups) == 3 {
				return groups[1] + "=" + MaskValue(groups[2])
			}
			return MaskValue(match)
		})
	}
	return s
}

// SensitiveField reports whether a config or log field name holds a
// secret.
func SensitiveField(name string) bool {
	return sensitiveFields[strings.ToLower(name)]
}
