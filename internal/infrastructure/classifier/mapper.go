package classifier

import (
	"fmt"
	"math"
	"strings"

	"github.com/ecoswap/backend/internal/domain"
)

// Request types of the classification contract.
const (
	RequestAnalyzeProduct = "analyze_product"
	RequestFindSuppliers  = "find_suppliers"
)

// Request is the body sent to the classification service.
type Request struct {
	RequestType  string                `json:"requestType"`
	ProductInfo  *domain.ProductRecord `json:"productInfo,omitempty"`
	Alternatives []string              `json:"alternatives,omitempty"`
}

// AnalyzeResponse is the analyze_product answer. Pointer fields detect
// missing keys.
type AnalyzeResponse struct {
	IsSustainable       *bool             `json:"isSustainable"`
	Reason              string            `json:"reason"`
	SustainabilityScore *float64          `json:"sustainabilityScore"`
	Alternatives        []WireAlternative `json:"alternatives"`
}

// WireAlternative is an alternative as the service sends it.
type WireAlternative struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Benefits    string   `json:"benefits"`
	SearchTerms []string `json:"searchTerms"`
}

// WireSupplier is a supplier as the service sends it; Website is untrusted.
type WireSupplier struct {
	Name    string `json:"name"`
	Website string `json:"website"`
}

// SuppliersResponse maps alternative names to supplier candidates.
type SuppliersResponse map[string][]WireSupplier

// MapAnalyzeResponse converts a service answer into a verdict. Missing
// required fields or an out-of-range score make the payload malformed.
func MapAnalyzeResponse(resp AnalyzeResponse) (domain.Verdict, error) {
	if resp.IsSustainable == nil {
		return domain.Verdict{}, fmt.Errorf("%w: missing isSustainable", domain.ErrClassifierResponse)
	}
	if resp.SustainabilityScore == nil || math.IsNaN(*resp.SustainabilityScore) ||
		*resp.SustainabilityScore < domain.MinScore || *resp.SustainabilityScore > domain.MaxScore {
		return domain.Verdict{}, fmt.Errorf("%w: sustainabilityScore out of range", domain.ErrClassifierResponse)
	}

	alts := make([]domain.Alternative, 0, len(resp.Alternatives))
	for _, w := range resp.Alternatives {
		name := strings.TrimSpace(w.Name)
		if name == "" {
			continue
		}
		terms := make([]string, 0, len(w.SearchTerms))
		for _, t := range w.SearchTerms {
			if t = strings.TrimSpace(t); t != "" {
				terms = append(terms, t)
			}
		}
		if len(terms) == 0 {
			terms = []string{name}
		}
		alts = append(alts, domain.Alternative{
			Name:        name,
			Description: strings.TrimSpace(w.Description),
			Benefits:    strings.TrimSpace(w.Benefits),
			SearchTerms: terms,
		})
	}

	score := int(math.Round(*resp.SustainabilityScore))
	return domain.NewVerdict(*resp.IsSustainable, score, strings.TrimSpace(resp.Reason), alts, domain.AnalysisRemote), nil
}

// MapSuppliersResponse converts the supplier mapping. Websites pass through
// untouched; verification happens where they are rendered.
func MapSuppliersResponse(resp SuppliersResponse) map[string][]domain.Supplier {
	out := make(map[string][]domain.Supplier, len(resp))
	for name, list := range resp {
		for _, s := range list {
			out[name] = append(out[name], domain.Supplier{Name: s.Name, Website: s.Website})
		}
	}
	return out
}
