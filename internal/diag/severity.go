package diag

// Severity classifies a diagnostic.
type Severity uint8

const (
	// SevTrace is internal progress reporting (cache hits, rewrite abstains).
	SevTrace Severity = iota
	// SevInfo is user-facing informational output.
	SevInfo
	// SevWarning marks a recoverable problem.
	SevWarning
	// SevError marks a problem that fails the operation.
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevTrace:
		return "trace"
	case SevInfo:
		return "info"
	case SevWarning:
		return "warning"
	case SevError:
		return "error"
	default:
		return "unknown"
	}
}
