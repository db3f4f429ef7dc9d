package tamperfy

// Label is the discrete verdict attached to a Result.
type Label string

const (
	LabelAuthentic         Label = "Authentic"
	LabelSuspicious        Label = "Suspicious"
	LabelLikelyTampered    Label = "Likely Tampered"    // image pipeline
	LabelLikelyManipulated Label = "Likely Manipulated" // text pipeline

	LabelNoImage      Label = "No Image"
	LabelFileNotFound Label = "Error: File Not Found"
	LabelCannotOpen   Label = "Error: Cannot Open"
	LabelNoText       Label = "No Text"
)

// Severity grades a text Finding.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Finding is a single itemized text signal.
type Finding struct {
	Rule     string   `json:"rule"`
	Severity Severity `json:"severity"`
	Excerpt  string   `json:"excerpt"`
}

// Signal is one analyzer's clamped contribution to a fused score.
type Signal struct {
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	Degraded bool    `json:"degraded,omitempty"` // analyzer fell back to its neutral value
}

// Result is the outcome of one detection call.
type Result struct {
	Score    float64   `json:"score"`
	Label    Label     `json:"label"`
	Findings []Finding `json:"findings"` // text only (never nil, may be empty)
	Signals  []Signal  `json:"signals,omitempty"`

	// Fingerprint is the perceptual dHash of the decoded image, empty for text
	// and sentinel results.
	Fingerprint string `json:"fingerprint,omitempty"`

	hash    uint64
	hasHash bool
}

// sentinel builds a terminal zero-score result that never reached fusion.
func sentinel(label Label) Result {
	return Result{Label: label, Findings: []Finding{}}
}

// Signal returns the named analyzer signal, if present.
func (r Result) Signal(name string) (Signal, bool) {
	for _, s := range r.Signals {
		if s.Name == name {
			return s, true
		}
	}
	return Signal{}, false
}

// fused reports whether r went through fusion rather than being a sentinel.
func (r Result) fused() bool {
	return len(r.Signals) > 0
}
