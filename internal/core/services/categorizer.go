package services

import (
	"sort"
	"strings"

	"github.com/pennyworth-app/pennyworth_backend/internal/core/domain"
)

// CategoryRules maps an internal category primary to the merchant keywords
// that imply it. Taxonomy management lives outside this service; the rules
// are injected at construction.
type CategoryRules map[string][]string

// DefaultCategoryRules is the packaged rule table used when no override is
// supplied.
func DefaultCategoryRules() CategoryRules {
	return CategoryRules{
		"FOOD_AND_DRINK": {"restaurant", "coffee", "cafe", "doordash", "grubhub", "mcdonald"},
		"GROCERIES":      {"grocery", "market", "whole foods", "trader joe", "safeway", "kroger"},
		"TRANSPORTATION": {"uber", "lyft", "mta", "transit", "parking", "shell", "chevron"},
		"UTILITIES":      {"coned", "con edison", "electric", "water", "gas co", "internet", "comcast", "verizon"},
		"ENTERTAINMENT":  {"netflix", "spotify", "hulu", "cinema", "steam"},
		"SHOPPING":       {"amazon", "target", "walmart", "costco"},
		"HEALTH":         {"pharmacy", "cvs", "walgreens", "clinic", "dental"},
		"RENT_AND_HOME":  {"rent", "mortgage", "landlord", "home depot"},
	}
}

// CategoryResolver maps transactions to internal spending categories by
// merchant and description keyword lookup.
type CategoryResolver struct {
	rules CategoryRules
	order []string // sorted category names, so "first match wins" is deterministic
}

// NewCategoryResolver creates a resolver over the given rules; nil falls back
// to the packaged defaults.
func NewCategoryResolver(rules CategoryRules) *CategoryResolver {
	if rules == nil {
		rules = DefaultCategoryRules()
	}
	order := make([]string, 0, len(rules))
	for category := range rules {
		order = append(order, category)
	}
	sort.Strings(order)
	return &CategoryResolver{rules: rules, order: order}
}

// Resolve returns the category for a transaction. A specific (non-generic)
// current category is never overwritten. Merchant keyword matches win over
// description matches; the first match wins; no match leaves the generic
// category in place.
func (r *CategoryResolver) Resolve(merchantName, name string, current domain.Category) domain.Category {
	if !current.IsGeneric() {
		return current
	}

	if merchant := strings.ToLower(strings.TrimSpace(merchantName)); merchant != "" {
		if primary, ok := r.matchKeywords(merchant); ok {
			return domain.Category{Primary: primary, Detailed: current.Detailed}
		}
	}

	if desc := strings.ToLower(strings.TrimSpace(name)); desc != "" {
		if primary, ok := r.matchKeywords(desc); ok {
			return domain.Category{Primary: primary, Detailed: current.Detailed}
		}
	}

	return current
}

// matchKeywords checks text against every category's keyword list. Both
// directions count: the keyword appearing in the text, or the text being an
// exact keyword.
func (r *CategoryResolver) matchKeywords(text string) (string, bool) {
	for _, category := range r.order {
		for _, kw := range r.rules[category] {
			if strings.Contains(text, kw) || text == kw {
				return category, true
			}
		}
	}
	return "", false
}
