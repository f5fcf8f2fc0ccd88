package rules

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Extra characters appended to the character class of name-like fields.
const (
	UserNameExtraChars  = "._-"
	GroupNameExtraChars = "_-"
)

// FieldConfig is the typed configuration of one well-known field.
// A nil pointer means "not configured" and selects the documented default.
type FieldConfig struct {
	MinLength           *int    `json:"minLength,omitempty" yaml:"minLength,omitempty" validate:"omitempty,gte=0,lte=10000"`
	MaxLength           *int    `json:"maxLength,omitempty" yaml:"maxLength,omitempty" validate:"omitempty,gte=1,lte=10000"`
	Required            *bool   `json:"required,omitempty" yaml:"required,omitempty"`
	AllowNumbers        *bool   `json:"allowNumbers,omitempty" yaml:"allowNumbers,omitempty"`
	AllowUsernameChars  *bool   `json:"allowUsernameChars,omitempty" yaml:"allowUsernameChars,omitempty"`
	AllowGroupNameChars *bool   `json:"allowGroupNameChars,omitempty" yaml:"allowGroupNameChars,omitempty"`
	LatinOnly           *bool   `json:"latinOnly,omitempty" yaml:"latinOnly,omitempty"`
	RequireLetter       *bool   `json:"requireLetter,omitempty" yaml:"requireLetter,omitempty"`
	RequireNumber       *bool   `json:"requireNumber,omitempty" yaml:"requireNumber,omitempty"`
	Regex               *string `json:"regex,omitempty" yaml:"regex,omitempty"`
	Mask                *string `json:"mask,omitempty" yaml:"mask,omitempty" validate:"omitempty,max=64"`
}

// fieldDefaults are the documented defaults of a well-known field.
type fieldDefaults struct {
	label         string
	minLength     int
	maxLength     int
	required      bool
	allowNumbers  bool
	allowExtras   bool
	latinOnly     bool
	extraChars    string
	charsHint     string
	fallbackRegex *regexp.Regexp
}

var wellKnownDefaults = map[string]fieldDefaults{
	FieldUserName: {
		label: "Username", minLength: 1, maxLength: 50, required: true,
		allowNumbers: true, allowExtras: true, latinOnly: true, extraChars: UserNameExtraChars,
	},
	FieldGroupName: {
		label: "Group name", minLength: 1, maxLength: 100, required: true,
		allowNumbers: true, allowExtras: true, latinOnly: false, extraChars: GroupNameExtraChars,
	},
	FieldEmail: {
		label: "Email", minLength: 5, maxLength: 254, required: true,
		fallbackRegex: defaultEmailRegex,
	},
	FieldTelephoneNumber: {
		label: "Telephone number", minLength: 7, maxLength: 20, required: false,
		fallbackRegex: defaultTelephoneRegex,
	},
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

func stringOr(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}

// BuildCharacterPattern assembles an anchored full-string pattern from a letter
// class (ASCII or any Unicode letter), optional digits and optional extra characters.
func BuildCharacterPattern(latinOnly, allowNumbers bool, extraChars string) string {
	var class strings.Builder
	if latinOnly {
		class.WriteString("A-Za-z")
	} else {
		class.WriteString(`\p{L}`)
	}
	if allowNumbers {
		class.WriteString("0-9")
	}
	class.WriteString(escapeClassChars(extraChars))
	return "^[" + class.String() + "]+$"
}

// escapeClassChars escapes the characters that carry meaning inside a bracket expression.
func escapeClassChars(chars string) string {
	var b strings.Builder
	for _, r := range chars {
		switch r {
		case '\\', ']', '[', '^', '-':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Anchor makes expression match whole values only. The expression is always
// grouped, so a top-level alternation such as ^a|b$ cannot match a substring.
func Anchor(expression string) string {
	return "^(?:" + expression + ")$"
}

// MaskToPattern converts an input mask into an anchored pattern.
// '9' and '#' stand for one digit, every other character is literal.
func MaskToPattern(mask string) string {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range mask {
		switch r {
		case '9', '#':
			b.WriteString("[0-9]")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return b.String()
}

func describeClass(latinOnly, allowNumbers bool, extraChars string) string {
	parts := []string{"letters"}
	if latinOnly {
		parts[0] = "Latin letters"
	}
	if allowNumbers {
		parts = append(parts, "numbers")
	}
	if extraChars != "" {
		chars := make([]string, 0, len(extraChars))
		for _, r := range extraChars {
			chars = append(chars, fmt.Sprintf("'%c'", r))
		}
		parts = append(parts, strings.Join(chars, " "))
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
}

// BuildFromConfig constructs the rule for a well-known field type from cfg.
// It depends only on its inputs. A malformed configured expression never fails
// the build: the field's fallback pattern is used and the rule is marked Fallback.
func BuildFromConfig(fieldType string, cfg FieldConfig) (*Rule, error) {
	def, ok := wellKnownDefaults[fieldType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotWellKnown, fieldType)
	}

	rule := &Rule{
		FieldType:     fieldType,
		Label:         def.label,
		MinLength:     intOr(cfg.MinLength, def.minLength),
		MaxLength:     intOr(cfg.MaxLength, def.maxLength),
		Required:      boolOr(cfg.Required, def.required),
		RequireLetter: boolOr(cfg.RequireLetter, false),
		RequireNumber: boolOr(cfg.RequireNumber, false),
		Source:        SourceConfigured,
	}

	hint := ""
	switch fieldType {
	case FieldUserName, FieldGroupName:
		latinOnly := boolOr(cfg.LatinOnly, def.latinOnly)
		allowNumbers := boolOr(cfg.AllowNumbers, def.allowNumbers)
		allowExtras := def.allowExtras
		if fieldType == FieldUserName {
			allowExtras = boolOr(cfg.AllowUsernameChars, allowExtras)
		} else {
			allowExtras = boolOr(cfg.AllowGroupNameChars, allowExtras)
		}

		extras := ""
		if allowExtras {
			extras = def.extraChars
		}

		// - The class is assembled from fixed fragments, it always compiles.
		rule.Pattern = regexp.MustCompile(BuildCharacterPattern(latinOnly, allowNumbers, extras))
		hint = describeClass(latinOnly, allowNumbers, extras)

	case FieldEmail, FieldTelephoneNumber:
		rule.Pattern = def.fallbackRegex
		expression := strings.TrimSpace(stringOr(cfg.Regex, ""))
		mask := strings.TrimSpace(stringOr(cfg.Mask, ""))

		switch {
		case expression != "":
			compiled, err := regexp.Compile(Anchor(expression))
			if err != nil {
				zap.L().Warn("Configured pattern is malformed, using fallback",
					zap.String("fieldType", fieldType),
					zap.String("regex", expression),
					zap.Error(err))
				rule.Fallback = true
				break
			}
			rule.Pattern = compiled

		case mask != "" && fieldType == FieldTelephoneNumber:
			rule.Pattern = regexp.MustCompile(MaskToPattern(mask))
			maskLength := utf8.RuneCountInString(mask)
			if cfg.MinLength == nil {
				rule.MinLength = maskLength
			}
			if cfg.MaxLength == nil {
				rule.MaxLength = maskLength
			}
		}
	}

	if rule.MaxLength > 0 && rule.MinLength > rule.MaxLength {
		zap.L().Warn("Configured minimum length exceeds maximum, using defaults",
			zap.String("fieldType", fieldType),
			zap.Int("minLength", rule.MinLength),
			zap.Int("maxLength", rule.MaxLength))
		rule.MinLength = def.minLength
		rule.MaxLength = def.maxLength
	}

	rule.Messages = defaultMessages(rule.Label, rule.MinLength, rule.MaxLength, hint)
	if fieldType == FieldEmail {
		rule.Messages[MessageInvalid] = "Email address is invalid"
		delete(rule.Messages, MessageInvalidChars)
	}
	if fieldType == FieldTelephoneNumber {
		rule.Messages[MessageInvalid] = "Telephone number is invalid"
		delete(rule.Messages, MessageInvalidChars)
	}

	return rule, nil
}
