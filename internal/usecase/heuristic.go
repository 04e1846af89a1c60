package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/ecoswap/backend/internal/domain"
)

// Keyword tables are written folded (lowercase, no accents). A trailing "*"
// matches any word starting with the stem; otherwise the whole word or
// phrase must appear.

// badCategory groups non-sustainable signals under a reason and a generic
// fallback alternative.
type badCategory struct {
	name     string
	reason   string
	terms    []string
	fallback domain.Alternative
}

var badCategories = []badCategory{
	{
		name:   "disposable_plastic",
		reason: "item descartável ou de plástico de uso único",
		terms: []string{
			"descartave*", "disposable", "plastic*", "isopor", "styrofoam",
			"poliestireno", "polipropileno", "single use", "uso unico",
		},
		fallback: domain.Alternative{
			Name:        "Versão reutilizável",
			Description: "Substitua o item descartável por uma versão durável e lavável.",
			Benefits:    "Elimina resíduo plástico de uso único",
			SearchTerms: []string{"reutilizavel"},
		},
	},
	{
		name:   "non_eco_material",
		reason: "material de origem fóssil ou de difícil reciclagem",
		terms: []string{
			"pvc", "polietileno", "nylon", "acrilico", "sintetic*", "garrafa pet", "vinil*",
		},
		fallback: domain.Alternative{
			Name:        "Alternativa em material reciclado",
			Description: "Prefira o mesmo item fabricado com material reciclado ou natural.",
			Benefits:    "Reduz extração de matéria-prima virgem",
			SearchTerms: []string{"reciclado"},
		},
	},
	{
		name:   "non_certified_paper_cleaning",
		reason: "papel sem certificação ou produto de limpeza com químicos agressivos",
		terms: []string{
			"papel sulfite", "papel a4", "papel toalha", "guardanapo*", "lenco de papel",
			"detergent*", "desinfetante*", "alvejante*", "agua sanitaria", "cloro",
			"sabao em po", "limpador*", "bleach", "paper towel*", "printer paper",
		},
		fallback: domain.Alternative{
			Name:        "Versão certificada ou biodegradável",
			Description: "Procure papel com selo FSC ou limpadores biodegradáveis.",
			Benefits:    "Manejo florestal responsável e menos poluição da água",
			SearchTerms: []string{"biodegradavel"},
		},
	},
}

var sustainableSignals = []string{
	"biodegradave*", "biodegradable", "compostave*", "compostable", "reciclad*",
	"recycled", "reutilizave*", "reusable", "retornave*", "refil", "refill",
	"bambu", "bamboo", "fsc", "ecologic*", "eco", "organic*", "amido de milho",
	"bagaco de cana", "selo verde",
}

// fastPathTerms mark items that are unambiguously disposable.
var fastPathTerms = []string{
	"descartave*", "disposable", "isopor", "styrofoam", "poliestireno", "single use", "uso unico",
}

// alternativeRule maps item keywords to substitutes, in priority order.
type alternativeRule struct {
	keywords     []string
	alternatives []domain.Alternative
}

var alternativeRules = []alternativeRule{
	{
		keywords: []string{"copo*", "cup*"},
		alternatives: []domain.Alternative{
			{
				Name:        "Copo biodegradável",
				Description: "Copo de papel ou amido de milho que se decompõe em poucos meses.",
				Benefits:    "Compostável e livre de plástico",
				SearchTerms: []string{"copo biodegradavel", "copo compostavel"},
			},
			{
				Name:        "Copo reutilizável",
				Description: "Copo de inox, vidro ou bambu para uso contínuo.",
				Benefits:    "Substitui centenas de copos descartáveis",
				SearchTerms: []string{"copo reutilizavel"},
			},
		},
	},
	{
		keywords: []string{"prato*", "plate*"},
		alternatives: []domain.Alternative{
			{
				Name:        "Prato de bagaço de cana compostável",
				Description: "Prato feito de fibra de cana-de-açúcar.",
				Benefits:    "Compostável e resistente a líquidos quentes",
				SearchTerms: []string{"prato bagaco de cana", "prato compostavel"},
			},
			{
				Name:        "Prato biodegradável de folha",
				Description: "Prato prensado a partir de folhas naturais.",
				Benefits:    "Biodegradável e sem aditivos",
				SearchTerms: []string{"prato biodegradavel"},
			},
		},
	},
	{
		keywords: []string{"talher*", "garfo*", "faca*", "colher*", "cutlery", "fork*", "spoon*"},
		alternatives: []domain.Alternative{
			{
				Name:        "Talheres de bambu reutilizáveis",
				Description: "Kit de talheres de bambu laváveis.",
				Benefits:    "Duráveis e de fonte renovável",
				SearchTerms: []string{"talher bambu"},
			},
			{
				Name:        "Talheres de madeira compostáveis",
				Description: "Talheres de madeira certificada para eventos.",
				Benefits:    "Compostáveis após o uso",
				SearchTerms: []string{"talher madeira biodegradavel"},
			},
		},
	},
	{
		keywords: []string{"canudo*", "straw*"},
		alternatives: []domain.Alternative{
			{
				Name:        "Canudo de papel biodegradável",
				Description: "Canudo de papel resistente para bebidas frias.",
				Benefits:    "Biodegradável em semanas",
				SearchTerms: []string{"canudo papel biodegradavel"},
			},
			{
				Name:        "Canudo de inox reutilizável",
				Description: "Canudo de aço inox com escova de limpeza.",
				Benefits:    "Dura anos sem gerar resíduo",
				SearchTerms: []string{"canudo inox"},
			},
		},
	},
	{
		keywords: []string{"sacola*", "saco*", "bag*"},
		alternatives: []domain.Alternative{
			{
				Name:        "Sacola retornável de algodão",
				Description: "Sacola de algodão cru reutilizável.",
				Benefits:    "Substitui sacolas plásticas por anos",
				SearchTerms: []string{"sacola retornavel"},
			},
			{
				Name:        "Saco compostável de amido de milho",
				Description: "Saco para lixo orgânico feito de amido.",
				Benefits:    "Compostável junto com o resíduo orgânico",
				SearchTerms: []string{"saco compostavel"},
			},
		},
	},
	{
		keywords: []string{"marmita*", "embalage*", "isopor", "bandeja*", "pote*"},
		alternatives: []domain.Alternative{
			{
				Name:        "Embalagem compostável de bagaço de cana",
				Description: "Embalagem térmica de fibra vegetal.",
				Benefits:    "Substitui isopor e é compostável",
				SearchTerms: []string{"embalagem bagaco de cana"},
			},
			{
				Name:        "Pote de vidro reutilizável",
				Description: "Pote de vidro com tampa para armazenamento.",
				Benefits:    "Reutilizável e reciclável indefinidamente",
				SearchTerms: []string{"pote vidro"},
			},
		},
	},
	{
		keywords: []string{"garrafa*", "bottle*"},
		alternatives: []domain.Alternative{
			{
				Name:        "Garrafa reutilizável de inox",
				Description: "Garrafa térmica de aço inox.",
				Benefits:    "Evita garrafas PET descartáveis",
				SearchTerms: []string{"garrafa inox reutilizavel"},
			},
		},
	},
	{
		keywords: []string{"guardanapo*", "papel toalha", "paper towel*"},
		alternatives: []domain.Alternative{
			{
				Name:        "Guardanapo de papel reciclado",
				Description: "Guardanapo feito com fibras recicladas.",
				Benefits:    "Menos corte de árvores",
				SearchTerms: []string{"guardanapo reciclado"},
			},
			{
				Name:        "Pano de algodão reutilizável",
				Description: "Pano lavável para limpeza e mesa.",
				Benefits:    "Substitui rolos de papel descartável",
				SearchTerms: []string{"pano algodao reutilizavel"},
			},
		},
	},
	{
		keywords: []string{"papel*", "paper"},
		alternatives: []domain.Alternative{
			{
				Name:        "Papel reciclado certificado FSC",
				Description: "Papel de escritório produzido com fibras recicladas.",
				Benefits:    "Certificação de manejo florestal responsável",
				SearchTerms: []string{"papel reciclado", "papel fsc"},
			},
		},
	},
	{
		keywords: []string{"detergent*", "desinfetante*", "alvejante*", "agua sanitaria", "cloro", "limpador*", "sabao*", "bleach"},
		alternatives: []domain.Alternative{
			{
				Name:        "Detergente biodegradável concentrado",
				Description: "Detergente de base vegetal em embalagem refil.",
				Benefits:    "Biodegradável e com menos embalagem",
				SearchTerms: []string{"detergente biodegradavel"},
			},
			{
				Name:        "Limpador multiuso ecológico refil",
				Description: "Limpador concentrado sem cloro.",
				Benefits:    "Menos químicos agressivos na água",
				SearchTerms: []string{"limpador ecologico refil"},
			},
		},
	},
}

// LocalClassifier is the keyword heuristic used when the remote classifier
// is slow, failing or disabled. It is deterministic for a given FullText.
type LocalClassifier struct{}

// NewLocalClassifier returns the keyword heuristic.
func NewLocalClassifier() *LocalClassifier {
	return &LocalClassifier{}
}

// AnalyzeProduct satisfies domain.Classifier; it never fails.
func (c *LocalClassifier) AnalyzeProduct(_ context.Context, product domain.ProductRecord) (domain.Verdict, error) {
	return c.Classify(product), nil
}

// Classify computes the local verdict for product.
func (c *LocalClassifier) Classify(product domain.ProductRecord) domain.Verdict {
	padded := paddedText(domain.FoldText(product.FullText))

	if matchesAny(padded, sustainableSignals) {
		return domain.NewVerdict(true, 8,
			"Item possui indicação de material sustentável", nil, domain.AnalysisLocal)
	}

	var hits []badCategory
	for _, cat := range badCategories {
		if matchesAny(padded, cat.terms) {
			hits = append(hits, cat)
		}
	}
	if len(hits) == 0 {
		return domain.NewVerdict(true, 6,
			"Nenhum indicador de impacto ambiental encontrado", nil, domain.AnalysisLocal)
	}

	reasons := make([]string, 0, len(hits))
	for _, h := range hits {
		reasons = append(reasons, h.reason)
	}
	reason := fmt.Sprintf("Item não sustentável: %s", strings.Join(reasons, "; "))

	return domain.NewVerdict(false, 4-len(hits), reason, alternativesFor(padded, hits), domain.AnalysisLocal)
}

// IsUnambiguouslyDisposable reports whether product qualifies for the fast
// path: it names a disposable item and carries no sustainable signal.
func (c *LocalClassifier) IsUnambiguouslyDisposable(product domain.ProductRecord) bool {
	padded := paddedText(domain.FoldText(product.FullText))
	return matchesAny(padded, fastPathTerms) && !matchesAny(padded, sustainableSignals)
}

// alternativesFor collects substitutes from the rule table, falling back to
// each hit category's generic suggestion, capped at MaxAlternatives.
func alternativesFor(padded string, hits []badCategory) []domain.Alternative {
	seen := make(map[string]bool)
	var out []domain.Alternative
	add := func(a domain.Alternative) {
		if len(out) < domain.MaxAlternatives && !seen[a.Name] {
			seen[a.Name] = true
			out = append(out, a)
		}
	}

	for _, rule := range alternativeRules {
		if !matchesAny(padded, rule.keywords) {
			continue
		}
		for _, a := range rule.alternatives {
			add(a)
		}
	}
	if len(out) == 0 {
		for _, h := range hits {
			add(h.fallback)
		}
	}
	return out
}

func matchesAny(padded string, terms []string) bool {
	for _, t := range terms {
		if stem, ok := strings.CutSuffix(t, "*"); ok {
			if hasTermPrefix(padded, stem) {
				return true
			}
			continue
		}
		if hasTerm(padded, t) {
			return true
		}
	}
	return false
}
