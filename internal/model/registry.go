package model

import "fmt"

// FieldRole tells the renderers where an entry field goes.
type FieldRole string

const (
	RoleHeading    FieldRole = "heading"
	RoleSubheading FieldRole = "subheading"
	RoleLocation   FieldRole = "location"
	RoleStart      FieldRole = "start"
	RoleEnd        FieldRole = "end"
	RoleDate       FieldRole = "date"
	RoleLink       FieldRole = "link"
	RoleDetail     FieldRole = "detail"
)

// Field is one named string field of an entry payload.
type Field struct {
	Name  string    `json:"name"`
	Label string    `json:"label"`
	Role  FieldRole `json:"role"`
	// Key fields identify an entry. An entry whose key fields are all blank
	// is not rendered.
	Key bool `json:"key,omitempty"`
}

// Binding names the template each renderer uses for a section type.
type Binding struct {
	Preview string `json:"preview"`
	Export  string `json:"export"`
}

// Descriptor is the registry's contract for one section type.
type Descriptor struct {
	Type         SectionType `json:"type"`
	DefaultTitle string      `json:"defaultTitle"`
	Kind         PayloadKind `json:"kind"`
	// Repeatable types may appear in more than one section of a document.
	Repeatable bool `json:"repeatable"`
	// MinEntries is the payload-level floor for multi-entry sections.
	MinEntries int     `json:"minEntries,omitempty"`
	Fields     []Field `json:"fields,omitempty"`
	Binding    Binding `json:"binding"`
}

// IsMultiEntry reports whether the payload is a list of entries with ids.
func (d Descriptor) IsMultiEntry() bool { return d.Kind == KindEntries }

// NewPayload returns the default empty payload for the type. Multi-entry
// payloads start with MinEntries blank entries, ids left for the caller.
func (d Descriptor) NewPayload() Payload {
	switch d.Kind {
	case KindEntries:
		l := &EntryList{Entries: []Entry{}}
		for i := 0; i < d.MinEntries; i++ {
			l.Entries = append(l.Entries, Entry{Fields: map[string]string{}})
		}
		return l
	case KindSkills:
		return &SkillSet{Groups: []SkillGroup{}}
	case KindText:
		return &TextBlock{}
	case KindItems:
		return &ItemList{Items: []string{}}
	default:
		return PersonalRef{}
	}
}

// Field returns the descriptor field with the given name.
func (d Descriptor) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// KeyFields lists the identity fields of an entry payload.
func (d Descriptor) KeyFields() []string {
	var out []string
	for _, f := range d.Fields {
		if f.Key {
			out = append(out, f.Name)
		}
	}
	return out
}

var typeOrder = []SectionType{
	TypePersonalInfo,
	TypeSummary,
	TypeExperience,
	TypeEducation,
	TypeProjects,
	TypeSkills,
	TypeCertifications,
	TypeAwards,
	TypeLeadership,
	TypeResearch,
	TypePublications,
	TypeVolunteer,
	TypeLanguages,
	TypeInterests,
	TypeCustom,
}

func span(start, end string) []Field {
	return []Field{
		{Name: start, Label: "Start", Role: RoleStart},
		{Name: end, Label: "End", Role: RoleEnd},
	}
}

func entries(fields ...[]Field) []Field {
	var out []Field
	for _, f := range fields {
		out = append(out, f...)
	}
	return out
}

var registry = map[SectionType]Descriptor{
	TypePersonalInfo: {
		Type: TypePersonalInfo, DefaultTitle: "Personal Information", Kind: KindPersonal,
		Binding: Binding{Preview: "header", Export: "header"},
	},
	TypeSummary: {
		Type: TypeSummary, DefaultTitle: "Summary", Kind: KindText,
		Binding: Binding{Preview: "text", Export: "text"},
	},
	TypeExperience: {
		Type: TypeExperience, DefaultTitle: "Experience", Kind: KindEntries, MinEntries: 1,
		Fields: entries([]Field{
			{Name: "role", Label: "Role", Role: RoleHeading, Key: true},
			{Name: "company", Label: "Company", Role: RoleSubheading, Key: true},
			{Name: "location", Label: "Location", Role: RoleLocation},
		}, span("startDate", "endDate")),
		Binding: Binding{Preview: "entries", Export: "entries"},
	},
	TypeEducation: {
		Type: TypeEducation, DefaultTitle: "Education", Kind: KindEntries, MinEntries: 1,
		Fields: entries([]Field{
			{Name: "institution", Label: "Institution", Role: RoleHeading, Key: true},
			{Name: "degree", Label: "Degree", Role: RoleSubheading, Key: true},
			{Name: "field", Label: "Field of Study", Role: RoleSubheading},
			{Name: "location", Label: "Location", Role: RoleLocation},
		}, span("startDate", "endDate"), []Field{
			{Name: "gpa", Label: "GPA", Role: RoleDetail},
		}),
		Binding: Binding{Preview: "entries", Export: "entries"},
	},
	TypeProjects: {
		Type: TypeProjects, DefaultTitle: "Projects", Kind: KindEntries, MinEntries: 1,
		Fields: entries([]Field{
			{Name: "name", Label: "Name", Role: RoleHeading, Key: true},
			{Name: "role", Label: "Role", Role: RoleSubheading},
			{Name: "url", Label: "Link", Role: RoleLink},
		}, span("startDate", "endDate"), []Field{
			{Name: "technologies", Label: "Technologies", Role: RoleDetail},
		}),
		Binding: Binding{Preview: "entries", Export: "entries"},
	},
	TypeSkills: {
		Type: TypeSkills, DefaultTitle: "Skills", Kind: KindSkills,
		Binding: Binding{Preview: "skills", Export: "skills"},
	},
	TypeCertifications: {
		Type: TypeCertifications, DefaultTitle: "Certifications", Kind: KindEntries,
		Fields: []Field{
			{Name: "name", Label: "Name", Role: RoleHeading, Key: true},
			{Name: "issuer", Label: "Issuer", Role: RoleSubheading},
			{Name: "date", Label: "Date", Role: RoleDate},
			{Name: "url", Label: "Link", Role: RoleLink},
			{Name: "credentialId", Label: "Credential ID", Role: RoleDetail},
		},
		Binding: Binding{Preview: "entries", Export: "entries"},
	},
	TypeAwards: {
		Type: TypeAwards, DefaultTitle: "Awards", Kind: KindEntries,
		Fields: []Field{
			{Name: "title", Label: "Title", Role: RoleHeading, Key: true},
			{Name: "issuer", Label: "Issuer", Role: RoleSubheading},
			{Name: "date", Label: "Date", Role: RoleDate},
			{Name: "description", Label: "", Role: RoleDetail},
		},
		Binding: Binding{Preview: "entries", Export: "entries"},
	},
	TypeLeadership: {
		Type: TypeLeadership, DefaultTitle: "Leadership", Kind: KindEntries,
		Fields: entries([]Field{
			{Name: "role", Label: "Role", Role: RoleHeading, Key: true},
			{Name: "organization", Label: "Organization", Role: RoleSubheading, Key: true},
			{Name: "location", Label: "Location", Role: RoleLocation},
		}, span("startDate", "endDate")),
		Binding: Binding{Preview: "entries", Export: "entries"},
	},
	TypeResearch: {
		Type: TypeResearch, DefaultTitle: "Research", Kind: KindEntries,
		Fields: entries([]Field{
			{Name: "title", Label: "Title", Role: RoleHeading, Key: true},
			{Name: "institution", Label: "Institution", Role: RoleSubheading, Key: true},
			{Name: "location", Label: "Location", Role: RoleLocation},
		}, span("startDate", "endDate"), []Field{
			{Name: "advisor", Label: "Advisor", Role: RoleDetail},
		}),
		Binding: Binding{Preview: "entries", Export: "entries"},
	},
	TypePublications: {
		Type: TypePublications, DefaultTitle: "Publications", Kind: KindEntries,
		Fields: []Field{
			{Name: "title", Label: "Title", Role: RoleHeading, Key: true},
			{Name: "venue", Label: "Venue", Role: RoleSubheading},
			{Name: "date", Label: "Date", Role: RoleDate},
			{Name: "url", Label: "Link", Role: RoleLink},
			{Name: "authors", Label: "", Role: RoleDetail},
		},
		Binding: Binding{Preview: "entries", Export: "entries"},
	},
	TypeVolunteer: {
		Type: TypeVolunteer, DefaultTitle: "Volunteer Experience", Kind: KindEntries,
		Fields: entries([]Field{
			{Name: "role", Label: "Role", Role: RoleHeading, Key: true},
			{Name: "organization", Label: "Organization", Role: RoleSubheading, Key: true},
			{Name: "location", Label: "Location", Role: RoleLocation},
		}, span("startDate", "endDate")),
		Binding: Binding{Preview: "entries", Export: "entries"},
	},
	TypeLanguages: {
		Type: TypeLanguages, DefaultTitle: "Languages", Kind: KindEntries,
		Fields: []Field{
			{Name: "language", Label: "Language", Role: RoleHeading, Key: true},
			{Name: "proficiency", Label: "Proficiency", Role: RoleSubheading},
		},
		Binding: Binding{Preview: "entries", Export: "entries"},
	},
	TypeInterests: {
		Type: TypeInterests, DefaultTitle: "Interests", Kind: KindItems,
		Binding: Binding{Preview: "items", Export: "items"},
	},
	TypeCustom: {
		Type: TypeCustom, DefaultTitle: "Custom Section", Kind: KindEntries, Repeatable: true,
		Fields: entries([]Field{
			{Name: "title", Label: "Title", Role: RoleHeading, Key: true},
			{Name: "subtitle", Label: "Subtitle", Role: RoleSubheading, Key: true},
			{Name: "location", Label: "Location", Role: RoleLocation},
			{Name: "url", Label: "Link", Role: RoleLink},
		}, span("startDate", "endDate")),
		Binding: Binding{Preview: "entries", Export: "entries"},
	},
}

// Describe returns the descriptor for t. The enumeration is closed, so an
// unknown type is a programming error and panics.
func Describe(t SectionType) Descriptor {
	d, ok := registry[t]
	if !ok {
		panic(fmt.Sprintf("model: unknown section type %q", string(t)))
	}
	return d
}

// Lookup is the non-panicking form of Describe, for data read from outside.
func Lookup(t SectionType) (Descriptor, bool) {
	d, ok := registry[t]
	return d, ok
}

// Types lists every registered type in canonical order.
func Types() []SectionType {
	out := make([]SectionType, len(typeOrder))
	copy(out, typeOrder)
	return out
}

// Descriptors lists every descriptor in canonical order.
func Descriptors() []Descriptor {
	out := make([]Descriptor, 0, len(typeOrder))
	for _, t := range typeOrder {
		out = append(out, registry[t])
	}
	return out
}

// ListAvailable returns the types that can still be added to a document
// already holding existing. Non-repeatable types drop out once present.
func ListAvailable(existing []SectionType) []SectionType {
	present := make(map[SectionType]bool, len(existing))
	for _, t := range existing {
		present[t] = true
	}
	var out []SectionType
	for _, t := range typeOrder {
		if present[t] && !registry[t].Repeatable {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Bindings returns the section type -> template binding table shared by the
// preview and export renderers.
func Bindings() map[SectionType]Binding {
	out := make(map[SectionType]Binding, len(registry))
	for t, d := range registry {
		out[t] = d.Binding
	}
	return out
}
