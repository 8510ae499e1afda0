package types

// Severity grades a validation finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationMessage is one finding about a file.
type ValidationMessage struct {
	Severity Severity `json:"severity" yaml:"severity"`
	Message  string   `json:"message" yaml:"message"`
}

// ValidationResult collects the findings of a file check.
type ValidationResult struct {
	Path     string              `json:"path" yaml:"path"`
	Messages []ValidationMessage `json:"messages" yaml:"messages"`
}

// OK reports whether no finding is an error.
func (r ValidationResult) OK() bool {
	for _, m := range r.Messages {
		if m.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Errorf appends an error finding.
func (r *ValidationResult) Errorf(msg string) {
	r.Messages = append(r.Messages, ValidationMessage{Severity: SeverityError, Message: msg})
}
