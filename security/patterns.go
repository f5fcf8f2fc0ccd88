package security

import (
	"fmt"
	"regexp"
	"strings"
)

// ThreatLevel is the ordered severity of a security pattern: low < medium < high < critical.
type ThreatLevel uint8

const (
	ThreatLow ThreatLevel = iota + 1
	ThreatMedium
	ThreatHigh
	ThreatCritical
)

func (l ThreatLevel) String() string {
	switch l {
	case ThreatLow:
		return "low"
	case ThreatMedium:
		return "medium"
	case ThreatHigh:
		return "high"
	case ThreatCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// MarshalText lets threat levels appear by name in JSON and YAML output.
func (l ThreatLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func (l *ThreatLevel) UnmarshalText(text []byte) error {
	parsed, err := ParseThreatLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseThreatLevel converts a level name (case-insensitive) into a ThreatLevel.
func ParseThreatLevel(name string) (ThreatLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "low":
		return ThreatLow, nil
	case "medium":
		return ThreatMedium, nil
	case "high":
		return ThreatHigh, nil
	case "critical":
		return ThreatCritical, nil
	default:
		return 0, fmt.Errorf("security: unknown threat level %q", name)
	}
}

// Pattern is a named threat-detection expression.
type Pattern struct {
	Name        string         `json:"name"`
	Regex       *regexp.Regexp `json:"-"`
	ThreatLevel ThreatLevel    `json:"threatLevel"`
	Description string         `json:"description"`
}

// Expression returns the source of the compiled expression.
func (p Pattern) Expression() string {
	if p.Regex == nil {
		return ""
	}
	return p.Regex.String()
}

// Matches reports whether the pattern occurs anywhere in value.
func (p Pattern) Matches(value string) bool {
	return p.Regex != nil && p.Regex.MatchString(value)
}

// Library is the immutable, ordered set of security patterns.
// Scan order is definition order.
type Library struct {
	patterns []Pattern
	byName   map[string]int
}

// NewLibrary builds a library from the given patterns, preserving their order.
// Names must be unique and every pattern must carry a compiled expression.
func NewLibrary(patterns ...Pattern) (*Library, error) {
	lib := &Library{
		patterns: make([]Pattern, 0, len(patterns)),
		byName:   make(map[string]int, len(patterns)),
	}

	for _, p := range patterns {
		if p.Name == "" {
			return nil, fmt.Errorf("security: pattern name cannot be empty")
		}
		if p.Regex == nil {
			return nil, fmt.Errorf("security: pattern %q has no expression", p.Name)
		}
		if _, dup := lib.byName[p.Name]; dup {
			return nil, fmt.Errorf("security: duplicate pattern name %q", p.Name)
		}
		lib.byName[p.Name] = len(lib.patterns)
		lib.patterns = append(lib.patterns, p)
	}

	return lib, nil
}

// All returns every pattern in scan order. The returned slice is a copy.
func (l *Library) All() []Pattern {
	out := make([]Pattern, len(l.patterns))
	copy(out, l.patterns)
	return out
}

// ByName looks up a single pattern.
func (l *Library) ByName(name string) (Pattern, bool) {
	idx, ok := l.byName[name]
	if !ok {
		return Pattern{}, false
	}
	return l.patterns[idx], true
}

// ByLevel returns the patterns whose level equals level exactly, in scan order.
func (l *Library) ByLevel(level ThreatLevel) []Pattern {
	out := make([]Pattern, 0)
	for _, p := range l.patterns {
		if p.ThreatLevel == level {
			out = append(out, p)
		}
	}
	return out
}

// Len returns the number of patterns in the library.
func (l *Library) Len() int {
	return len(l.patterns)
}

// Pattern names of the default library.
const (
	SQLInjectionUnion        = "sql_injection_union"
	SQLInjectionStacked      = "sql_injection_stacked_query"
	SQLInjectionTautology    = "sql_injection_tautology"
	SQLInjectionComment      = "sql_injection_comment"
	XSSScriptTag             = "xss_script_tag"
	XSSEventHandler          = "xss_event_handler"
	XSSJavascriptURI         = "xss_javascript_uri"
	XSSEmbeddedObject        = "xss_embedded_object"
	CommandInjectionChain    = "command_injection_chain"
	CommandInjectionSubshell = "command_injection_subshell"
	PathTraversal            = "path_traversal"
	PathTraversalEncoded     = "path_traversal_encoded"
	NoSQLInjectionOperator   = "nosql_injection_operator"
	LDAPInjectionFilter      = "ldap_injection_filter"
)

type definition struct {
	name        string
	expression  string
	level       ThreatLevel
	description string
}

// SQL injection first, then XSS, command injection, path traversal, NoSQL/LDAP.
var defaultDefinitions = []definition{
	{SQLInjectionUnion, `(?i)\bunion\b[\s\S]*\bselect\b`, ThreatCritical, "Potential SQL injection detected (UNION SELECT)"},
	{SQLInjectionStacked, `(?i);\s*(drop|delete|insert|update|alter|create|truncate|exec|execute)\b`, ThreatCritical, "Potential SQL injection detected (stacked query)"},
	{SQLInjectionTautology, `(?i)['"]\s*(or|and)\s+['"]?\w+['"]?\s*=\s*['"]?\w+`, ThreatHigh, "Potential SQL injection detected (boolean tautology)"},
	{SQLInjectionComment, `['"]\s*(--|#|/\*)`, ThreatHigh, "Potential SQL injection detected (comment sequence)"},
	{XSSScriptTag, `(?i)<\s*/?\s*script\b`, ThreatCritical, "Potential XSS attack detected (script tag)"},
	{XSSEventHandler, `(?i)\bon[a-z]+\s*=`, ThreatHigh, "Potential XSS attack detected (inline event handler)"},
	{XSSJavascriptURI, `(?i)javascript\s*:`, ThreatHigh, "Potential XSS attack detected (javascript: URI)"},
	{XSSEmbeddedObject, `(?i)<\s*(iframe|object|embed)\b`, ThreatMedium, "Potential XSS attack detected (embedded object)"},
	{CommandInjectionChain, "(?i)[;&|`]\\s*(rm|cat|ls|wget|curl|nc|bash|sh|chmod|chown|whoami|ping|id)\\b", ThreatCritical, "Potential command injection detected"},
	{CommandInjectionSubshell, "\\$\\([^)]*\\)|`[^`]*`", ThreatHigh, "Potential command injection detected (command substitution)"},
	{PathTraversal, `\.\.[/\\]`, ThreatHigh, "Potential path traversal detected"},
	{PathTraversalEncoded, `(?i)(%2e%2e|\.\.)(%2f|%5c)`, ThreatHigh, "Potential path traversal detected (encoded)"},
	{NoSQLInjectionOperator, `(?i)\$(where|ne|eq|gt|gte|lt|lte|regex|in|nin|or|and|not|exists|expr)\b`, ThreatHigh, "Potential NoSQL injection detected"},
	{LDAPInjectionFilter, `\*\)\s*\(|\)\s*\(\s*[|&!]`, ThreatMedium, "Potential LDAP injection detected"},
}

// DefaultLibrary returns the built-in pattern library.
func DefaultLibrary() *Library {
	patterns := make([]Pattern, 0, len(defaultDefinitions))
	for _, d := range defaultDefinitions {
		patterns = append(patterns, Pattern{
			Name:        d.name,
			Regex:       regexp.MustCompile(d.expression),
			ThreatLevel: d.level,
			Description: d.description,
		})
	}

	lib, err := NewLibrary(patterns...)
	if err != nil {
		panic(err)
	}
	return lib
}
