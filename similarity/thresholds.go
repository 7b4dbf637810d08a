package similarity

import (
	"fmt"
	"strconv"
	"strings"
)

// UseCase names a comparison whose match threshold is configured separately.
type UseCase string

const (
	ThemeDedup      UseCase = "theme_dedup"
	ThemeMerge      UseCase = "theme_merge"
	EvidenceToTheme UseCase = "evidence_to_theme"
	GeneralSearch   UseCase = "general_search"
	FacetClustering UseCase = "facet_clustering"
	PersonMatch     UseCase = "person_match"
)

// UseCases lists every known use case in a stable order.
func UseCases() []UseCase {
	return []UseCase{ThemeDedup, ThemeMerge, EvidenceToTheme, GeneralSearch, FacetClustering, PersonMatch}
}

// ParseUseCase converts a name such as "theme_dedup" or "theme-dedup" to a UseCase.
func ParseUseCase(s string) (UseCase, error) {
	u := UseCase(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	for _, known := range UseCases() {
		if u == known {
			return u, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownUseCase, s)
}

// Thresholds is the table of minimum cosine scores per use case.
// It is a value type; With returns a modified copy.
type Thresholds struct {
	ThemeDedup      float32
	ThemeMerge      float32
	EvidenceToTheme float32
	GeneralSearch   float32
	FacetClustering float32
	PersonMatch     float32
}

// DefaultThresholds returns the production threshold table.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ThemeDedup:      0.85,
		ThemeMerge:      0.80,
		EvidenceToTheme: 0.55,
		GeneralSearch:   0.50,
		FacetClustering: 0.40,
		PersonMatch:     0.80,
	}
}

// For returns the threshold for u.
func (t Thresholds) For(u UseCase) (float32, error) {
	p := t.field(u)
	if p == nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownUseCase, u)
	}
	return *p, nil
}

// With returns a copy of t with the threshold for u replaced.
func (t Thresholds) With(u UseCase, value float32) (Thresholds, error) {
	if value < 0 || value > 1 {
		return t, fmt.Errorf("%w: %s=%v", ErrThresholdOutOfRange, u, value)
	}
	p := t.field(u)
	if p == nil {
		return t, fmt.Errorf("%w: %q", ErrUnknownUseCase, u)
	}
	*p = value
	return t, nil
}

// WithOverrides applies "use_case=value" assignments, as given on a command line.
func (t Thresholds) WithOverrides(assignments []string) (Thresholds, error) {
	for _, a := range assignments {
		name, raw, ok := strings.Cut(a, "=")
		if !ok {
			return t, fmt.Errorf("threshold override %q: expected use_case=value", a)
		}
		u, err := ParseUseCase(name)
		if err != nil {
			return t, err
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 32)
		if err != nil {
			return t, fmt.Errorf("threshold override %q: %w", a, err)
		}
		if t, err = t.With(u, float32(v)); err != nil {
			return t, err
		}
	}
	return t, nil
}

// Validate checks that every threshold lies in [0, 1].
func (t Thresholds) Validate() error {
	for _, u := range UseCases() {
		v, _ := t.For(u)
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s=%v", ErrThresholdOutOfRange, u, v)
		}
	}
	return nil
}

// field returns a pointer into t, which is the receiver's own copy.
func (t *Thresholds) field(u UseCase) *float32 {
	switch u {
	case ThemeDedup:
		return &t.ThemeDedup
	case ThemeMerge:
		return &t.ThemeMerge
	case EvidenceToTheme:
		return &t.EvidenceToTheme
	case GeneralSearch:
		return &t.GeneralSearch
	case FacetClustering:
		return &t.FacetClustering
	case PersonMatch:
		return &t.PersonMatch
	}
	return nil
}
