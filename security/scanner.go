package security

import (
	"fmt"
	"strings"

	"github.com/grzegorzmaniak/fieldguard/helpers"
	"go.uber.org/zap"
)

// UnknownPatternPolicy decides what CheckPattern reports for a pattern name
// the library does not contain.
type UnknownPatternPolicy uint8

const (
	// AllowUnknownPattern treats an unknown pattern name as secure.
	AllowUnknownPattern UnknownPatternPolicy = iota

	// DenyUnknownPattern treats an unknown pattern name as insecure.
	DenyUnknownPattern
)

// ParseUnknownPatternPolicy accepts "allow" or "deny" (case-insensitive). Empty means allow.
func ParseUnknownPatternPolicy(name string) (UnknownPatternPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "allow":
		return AllowUnknownPattern, nil
	case "deny":
		return DenyUnknownPattern, nil
	default:
		return AllowUnknownPattern, fmt.Errorf("security: unknown pattern policy %q", name)
	}
}

// UnknownPatternDescription is reported when DenyUnknownPattern rejects a lookup.
const UnknownPatternDescription = "Security check is not configured"

// ScanResult is the outcome of a scan. Match is set only when Secure is false.
type ScanResult struct {
	Secure bool     `json:"secure"`
	Match  *Pattern `json:"match,omitempty"`
}

// Scanner evaluates values against a Library.
type Scanner struct {
	library       *Library
	unknownPolicy UnknownPatternPolicy
}

type ScannerOption func(*Scanner)

// WithUnknownPatternPolicy sets the CheckPattern policy for unknown names.
func WithUnknownPatternPolicy(policy UnknownPatternPolicy) ScannerOption {
	return func(s *Scanner) {
		s.unknownPolicy = policy
	}
}

// NewScanner builds a scanner over library. A nil library uses DefaultLibrary.
func NewScanner(library *Library, opts ...ScannerOption) *Scanner {
	if library == nil {
		library = DefaultLibrary()
	}

	s := &Scanner{library: library}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Library returns the pattern library the scanner iterates.
func (s *Scanner) Library() *Library {
	return s.library
}

// Scan returns the first pattern, in library order, that matches value.
// The first match wins even when a later pattern is more severe.
func (s *Scanner) Scan(value interface{}) ScanResult {
	str := helpers.Stringify(value)
	for _, p := range s.library.patterns {
		if p.Matches(str) {
			match := p
			zap.L().Warn("Security threat detected",
				zap.String("pattern", p.Name),
				zap.Stringer("threatLevel", p.ThreatLevel))
			return ScanResult{Secure: false, Match: &match}
		}
	}
	return ScanResult{Secure: true}
}

// ScanAll returns every matching pattern in library order.
func (s *Scanner) ScanAll(value interface{}) []Pattern {
	str := helpers.Stringify(value)
	matches := make([]Pattern, 0)
	for _, p := range s.library.patterns {
		if p.Matches(str) {
			matches = append(matches, p)
		}
	}
	return matches
}

// CheckPattern evaluates value against a single named pattern.
func (s *Scanner) CheckPattern(name string, value interface{}) ScanResult {
	p, ok := s.library.ByName(name)
	if !ok {
		zap.L().Warn("Security pattern not found",
			zap.String("pattern", name),
			zap.Bool("denied", s.unknownPolicy == DenyUnknownPattern))

		if s.unknownPolicy == DenyUnknownPattern {
			return ScanResult{Secure: false, Match: &Pattern{
				Name:        name,
				ThreatLevel: ThreatLow,
				Description: UnknownPatternDescription,
			}}
		}
		return ScanResult{Secure: true}
	}

	if p.Matches(helpers.Stringify(value)) {
		return ScanResult{Secure: false, Match: &p}
	}
	return ScanResult{Secure: true}
}

// MostSevere picks the highest threat level among matches; ties keep the earliest.
func MostSevere(matches []Pattern) (Pattern, bool) {
	if len(matches) == 0 {
		return Pattern{}, false
	}

	worst := matches[0]
	for _, p := range matches[1:] {
		if p.ThreatLevel > worst.ThreatLevel {
			worst = p
		}
	}
	return worst, true
}
