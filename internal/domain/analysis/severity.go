package analysis

import "strings"

// Severity enum
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ParseSeverity maps a free-form level onto the closed severity set.
// Missing or unrecognized values ("unknown" included) map to low.
func ParseSeverity(s string) Severity {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical":
		return SeverityCritical
	case "high", "severe", "major":
		return SeverityHigh
	case "medium", "moderate":
		return SeverityMedium
	case "low", "minor", "info", "informational":
		return SeverityLow
	default:
		return SeverityLow
	}
}
