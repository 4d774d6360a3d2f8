package models

import (
	"regexp"
	"strings"
)

// brandFamily groups the loose name fragments scraped listings use for a
// chip manufacturer. Matching is a substring heuristic and can misfire,
// e.g. "core" matches any name containing the word.
type brandFamily struct {
	canonical string
	terms     []string
	words     []string
}

var (
	nvidiaFamily = brandFamily{canonical: "NVIDIA", terms: []string{"nvidia", "geforce", "rtx"}}
	amdFamily    = brandFamily{canonical: "AMD", terms: []string{"amd", "ryzen", "threadripper", "radeon"}, words: []string{"rx"}}
	intelFamily  = brandFamily{canonical: "INTEL", terms: []string{"intel", "core"}}

	families = map[string]brandFamily{
		"nvidia": nvidiaFamily,
		"amd":    amdFamily,
		"intel":  intelFamily,
	}

	gpuPriority = []brandFamily{nvidiaFamily, amdFamily, intelFamily}
	cpuPriority = []brandFamily{intelFamily, amdFamily}

	wordPatterns = map[string]*regexp.Regexp{}
)

func init() {
	for _, f := range families {
		for _, w := range f.words {
			wordPatterns[w] = regexp.MustCompile(`\b` + regexp.QuoteMeta(w) + `\b`)
		}
	}
}

func (f brandFamily) matchesManufacturer(manufacturer string) bool {
	for _, t := range f.terms {
		if strings.Contains(manufacturer, t) {
			return true
		}
	}
	return false
}

func (f brandFamily) matchesName(name string) bool {
	if f.matchesManufacturer(name) {
		return true
	}
	for _, w := range f.words {
		if wordPatterns[w].MatchString(name) {
			return true
		}
	}
	return false
}

// manufacturerCondition builds the listing predicate for one requested
// manufacturer. Known families match the manufacturer column or the product
// name; anything else is a plain substring match on the manufacturer.
func manufacturerCondition(requested string) (string, []interface{}) {
	key := strings.ToLower(strings.TrimSpace(requested))
	family, ok := families[key]
	if !ok {
		return "products.manufacturer ILIKE ?", []interface{}{containsPattern(strings.TrimSpace(requested))}
	}

	var (
		parts []string
		args  []interface{}
	)
	for _, t := range family.terms {
		like := containsPattern(t)
		parts = append(parts, "products.manufacturer ILIKE ?", "products.name ILIKE ?")
		args = append(args, like, like)
	}
	for _, w := range family.words {
		parts = append(parts, "products.name ~* ?")
		args = append(args, `\m`+regexp.QuoteMeta(w)+`\M`)
	}
	return "(" + strings.Join(parts, " OR ") + ")", args
}

// IsGPUType reports whether a product type denotes graphics cards.
func IsGPUType(productType string) bool {
	t := strings.ToLower(productType)
	return strings.Contains(t, "gpu") || strings.Contains(t, "graphics")
}

// IsCPUType reports whether a product type denotes processors.
func IsCPUType(productType string) bool {
	t := strings.ToLower(productType)
	return strings.Contains(t, "cpu") || strings.Contains(t, "processor")
}

// CanonicalManufacturer derives the manufacturer shown for a product. GPUs
// and CPUs are forced onto a known family, checking the manufacturer field
// before the product name; other types keep the scraped value.
func CanonicalManufacturer(productType string, manufacturer *string, name string) *string {
	var priority []brandFamily
	switch {
	case IsGPUType(productType):
		priority = gpuPriority
	case IsCPUType(productType):
		priority = cpuPriority
	default:
		return manufacturer
	}

	raw := ""
	if manufacturer != nil {
		raw = strings.TrimSpace(*manufacturer)
	}
	lowerRaw := strings.ToLower(raw)
	lowerName := strings.ToLower(name)

	for _, f := range priority {
		if lowerRaw != "" && f.matchesManufacturer(lowerRaw) {
			return &f.canonical
		}
	}
	for _, f := range priority {
		if f.matchesName(lowerName) {
			return &f.canonical
		}
	}
	if raw == "" {
		return nil
	}
	upper := strings.ToUpper(raw)
	return &upper
}
