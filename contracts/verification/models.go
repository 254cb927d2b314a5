package verification

// Verdict is the only part of a verification result other modules see.
type Verdict struct {
	Compliant bool     `json:"compliant"`
	Errors    []string `json:"errors,omitempty"`
}
