package model

import "fmt"

// SectionType is the closed enumeration of section kinds a document may hold.
// Adding a kind means extending the registry below, never ad hoc payloads.
type SectionType string

const (
	TypePersonalInfo   SectionType = "personal_info"
	TypeEducation      SectionType = "education"
	TypeExperience     SectionType = "experience"
	TypeProjects       SectionType = "projects"
	TypeSkills         SectionType = "skills"
	TypeSummary        SectionType = "summary"
	TypeCertifications SectionType = "certifications"
	TypeAwards         SectionType = "awards"
	TypeLeadership     SectionType = "leadership"
	TypeResearch       SectionType = "research"
	TypePublications   SectionType = "publications"
	TypeVolunteer      SectionType = "volunteer"
	TypeLanguages      SectionType = "languages"
	TypeInterests      SectionType = "interests"
	TypeCustom         SectionType = "custom"
)

// Valid reports whether t is a registered section type.
func (t SectionType) Valid() bool {
	_, ok := registry[t]
	return ok
}

func (t SectionType) String() string { return string(t) }

// ParseSectionType converts user input into a SectionType. Unknown values are
// a validation failure, not a programming error.
func ParseSectionType(s string) (SectionType, error) {
	t := SectionType(s)
	if !t.Valid() {
		return "", NewValidationError("parse_section_type", fmt.Sprintf("unknown section type %q", s))
	}
	return t, nil
}

// PayloadKind describes the shape of a section's data.
type PayloadKind int

const (
	// KindPersonal sections carry no payload; the data lives in Document.PersonalInfo.
	KindPersonal PayloadKind = iota
	// KindEntries sections hold an ordered list of entries with stable ids.
	KindEntries
	// KindSkills sections hold ordered category -> text pairs.
	KindSkills
	// KindText sections hold one free-text block.
	KindText
	// KindItems sections hold a flat list of short strings.
	KindItems
)

func (k PayloadKind) String() string {
	switch k {
	case KindPersonal:
		return "personal"
	case KindEntries:
		return "entries"
	case KindSkills:
		return "skills"
	case KindText:
		return "text"
	case KindItems:
		return "items"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalText renders the kind by name in JSON output.
func (k PayloadKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}
