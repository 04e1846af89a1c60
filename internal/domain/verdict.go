package domain

// AnalysisMethod names the classification path that produced a verdict.
type AnalysisMethod string

const (
	AnalysisLocal  AnalysisMethod = "local"
	AnalysisRemote AnalysisMethod = "remote"
)

// Score bounds for sustainabilityScore.
const (
	MinScore = 1
	MaxScore = 10
)

// MaxAlternatives caps the number of alternatives a verdict may carry.
const MaxAlternatives = 3

// Supplier is a concrete sourcing option for an alternative. Website is
// untrusted and is empty whenever it could not be verified.
type Supplier struct {
	Name    string `json:"name"`
	Website string `json:"website,omitempty"`
}

// Alternative is an ecologically preferable substitute for the intercepted item.
type Alternative struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Benefits    string     `json:"benefits"`
	SearchTerms []string   `json:"searchTerms"`
	Suppliers   []Supplier `json:"suppliers,omitempty"`
}

func (a Alternative) clone() Alternative {
	out := a
	out.SearchTerms = append([]string(nil), a.SearchTerms...)
	if a.Suppliers != nil {
		out.Suppliers = append([]Supplier(nil), a.Suppliers...)
	}
	return out
}

// PrimarySearchTerm is the term used when the alternative is picked.
func (a Alternative) PrimarySearchTerm() string {
	for _, t := range a.SearchTerms {
		if t != "" {
			return t
		}
	}
	return a.Name
}

// Verdict is the outcome of classifying a ProductRecord. Build it with
// NewVerdict; a later verdict replaces an earlier one, it never mutates it.
type Verdict struct {
	IsSustainable       bool           `json:"isSustainable"`
	SustainabilityScore int            `json:"sustainabilityScore"`
	Reason              string         `json:"reason"`
	Alternatives        []Alternative  `json:"alternatives"`
	AnalysisMethod      AnalysisMethod `json:"analysisMethod"`
}

// NewVerdict clamps the score, caps alternatives at MaxAlternatives and drops
// them entirely for sustainable items. Alternatives are deep-copied.
func NewVerdict(sustainable bool, score int, reason string, alts []Alternative, method AnalysisMethod) Verdict {
	if score < MinScore {
		score = MinScore
	}
	if score > MaxScore {
		score = MaxScore
	}

	var kept []Alternative
	if !sustainable {
		for _, a := range alts {
			if len(kept) == MaxAlternatives {
				break
			}
			if a.Name == "" {
				continue
			}
			kept = append(kept, a.clone())
		}
	}
	if kept == nil {
		kept = []Alternative{}
	}

	return Verdict{
		IsSustainable:       sustainable,
		SustainabilityScore: score,
		Reason:              reason,
		Alternatives:        kept,
		AnalysisMethod:      method,
	}
}

// NeedsDecision reports whether the verdict should interrupt the user.
func (v Verdict) NeedsDecision() bool {
	return !v.IsSustainable && len(v.Alternatives) > 0
}

// AlternativeNames lists alternative names in display order.
func (v Verdict) AlternativeNames() []string {
	names := make([]string, 0, len(v.Alternatives))
	for _, a := range v.Alternatives {
		names = append(names, a.Name)
	}
	return names
}

// Clone returns a deep copy safe to hand to another goroutine.
func (v Verdict) Clone() Verdict {
	out := v
	out.Alternatives = make([]Alternative, 0, len(v.Alternatives))
	for _, a := range v.Alternatives {
		out.Alternatives = append(out.Alternatives, a.clone())
	}
	return out
}
