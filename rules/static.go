package rules

import "regexp"

// Well-known field types have a configuration-driven builder.
const (
	FieldUserName        = "userName"
	FieldGroupName       = "groupName"
	FieldEmail           = "email"
	FieldTelephoneNumber = "telephoneNumber"
)

// Legacy field types kept in the static table.
const (
	FieldUserNameLegacy        = "user_name"
	FieldGroupNameLegacy       = "group_name"
	FieldTelephoneNumberLegacy = "telephone_number"
	FieldTextShort             = "text_short"
	FieldTextMedium            = "text_medium"
	FieldTextLong              = "text_long"
	FieldDescription           = "description"
)

const (
	DefaultEmailPattern     = `^[^\s@]+@[^\s@]+\.[^\s@]+$`
	DefaultTelephonePattern = `^\+?[0-9\s()\-]{7,20}$`
)

var (
	staticUserNamePattern  = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)
	staticGroupNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	defaultEmailRegex      = regexp.MustCompile(DefaultEmailPattern)
	defaultTelephoneRegex  = regexp.MustCompile(DefaultTelephonePattern)
)

// IsWellKnown reports whether fieldType has a configuration-driven builder.
func IsWellKnown(fieldType string) bool {
	switch fieldType {
	case FieldUserName, FieldGroupName, FieldEmail, FieldTelephoneNumber:
		return true
	default:
		return false
	}
}

// WellKnownFields lists the configuration-driven field types.
func WellKnownFields() []string {
	return []string{FieldUserName, FieldGroupName, FieldEmail, FieldTelephoneNumber}
}

func userNameRule(fieldType string) *Rule {
	r := &Rule{
		FieldType:     fieldType,
		Label:         "Username",
		Pattern:       staticUserNamePattern,
		MinLength:     3,
		MaxLength:     25,
		Required:      true,
		RequireLetter: true,
		Source:        SourceStatic,
	}
	r.Messages = defaultMessages(r.Label, r.MinLength, r.MaxLength, "letters, numbers, dots, underscores and hyphens")
	return r
}

func groupNameRule(fieldType string) *Rule {
	r := &Rule{
		FieldType: fieldType,
		Label:     "Group name",
		Pattern:   staticGroupNamePattern,
		MinLength: 2,
		MaxLength: 50,
		Required:  true,
		Source:    SourceStatic,
	}
	r.Messages = defaultMessages(r.Label, r.MinLength, r.MaxLength, "letters, numbers, underscores and hyphens")
	return r
}

func emailRule(fieldType string) *Rule {
	r := &Rule{
		FieldType: fieldType,
		Label:     "Email",
		Pattern:   defaultEmailRegex,
		MinLength: 5,
		MaxLength: 254,
		Required:  true,
		Source:    SourceStatic,
	}
	r.Messages = defaultMessages(r.Label, r.MinLength, r.MaxLength, "")
	r.Messages[MessageInvalid] = "Email address is invalid"
	delete(r.Messages, MessageInvalidChars)
	return r
}

func telephoneRule(fieldType string) *Rule {
	r := &Rule{
		FieldType: fieldType,
		Label:     "Telephone number",
		Pattern:   defaultTelephoneRegex,
		MinLength: 7,
		MaxLength: 20,
		Source:    SourceStatic,
	}
	r.Messages = defaultMessages(r.Label, r.MinLength, r.MaxLength, "digits, spaces, parentheses, hyphens and a leading plus")
	return r
}

func freeTextRule(fieldType, label string, maxLength int) *Rule {
	r := &Rule{
		FieldType: fieldType,
		Label:     label,
		MaxLength: maxLength,
		Source:    SourceStatic,
	}
	r.Messages = defaultMessages(r.Label, r.MinLength, r.MaxLength, "")
	return r
}

// StaticRules returns a fresh copy of the built-in rule table keyed by field type.
func StaticRules() map[string]*Rule {
	table := []*Rule{
		userNameRule(FieldUserName),
		userNameRule(FieldUserNameLegacy),
		groupNameRule(FieldGroupName),
		groupNameRule(FieldGroupNameLegacy),
		emailRule(FieldEmail),
		telephoneRule(FieldTelephoneNumber),
		telephoneRule(FieldTelephoneNumberLegacy),
		freeTextRule(FieldTextShort, "Text", 50),
		freeTextRule(FieldTextMedium, "Text", 255),
		freeTextRule(FieldTextLong, "Text", 2000),
		freeTextRule(FieldDescription, "Description", 1000),
	}

	out := make(map[string]*Rule, len(table))
	for _, r := range table {
		out[r.FieldType] = r
	}
	return out
}
