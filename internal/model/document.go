package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// SchemaVersion is written into every canonical document.
const SchemaVersion = 2

// PersonalInfo is the flat contact block rendered as the document header.
type PersonalInfo struct {
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	LinkedIn  string `json:"linkedin,omitempty"`
	GitHub    string `json:"github,omitempty"`
	Location  string `json:"location,omitempty"`
	Portfolio string `json:"portfolio,omitempty"`
}

// IsZero reports whether no personal field is filled.
func (p PersonalInfo) IsZero() bool {
	return strings.TrimSpace(p.FullName+p.Email+p.Phone+p.LinkedIn+p.GitHub+p.Location+p.Portfolio) == ""
}

// Section is the unit of structural composition of a document.
type Section struct {
	ID      string      `json:"id"`
	Type    SectionType `json:"type"`
	Title   string      `json:"title"`
	Order   int         `json:"order"`
	Visible bool        `json:"visible"`
	Data    Payload     `json:"data"`
}

// Clone returns a deep copy of the section.
func (s Section) Clone() Section {
	out := s
	if s.Data != nil {
		out.Data = s.Data.Clone()
	}
	return out
}

// Entries returns the entry payload of a multi-entry section.
func (s Section) Entries() (*EntryList, bool) {
	l, ok := s.Data.(*EntryList)
	return l, ok
}

type sectionJSON struct {
	ID      string          `json:"id"`
	Type    SectionType     `json:"type"`
	Title   string          `json:"title"`
	Order   int             `json:"order"`
	Visible *bool           `json:"visible"`
	Data    json.RawMessage `json:"data"`
}

// UnmarshalJSON decodes data according to the registry descriptor of the
// section type. Unknown types keep their data as raw bytes.
func (s *Section) UnmarshalJSON(b []byte) error {
	var aux sectionJSON
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	out := Section{ID: aux.ID, Type: aux.Type, Title: aux.Title, Order: aux.Order, Visible: true}
	if aux.Visible != nil {
		out.Visible = *aux.Visible
	}
	d, ok := Lookup(aux.Type)
	if !ok {
		out.Data = &RawPayload{Raw: append(json.RawMessage{}, aux.Data...)}
		*s = out
		return nil
	}
	p, err := decodePayload(d, aux.Data)
	if err != nil {
		return fmt.Errorf("section %s (%s): %w", aux.ID, aux.Type, err)
	}
	out.Data = p
	*s = out
	return nil
}

// MarshalJSON guarantees a non-null payload for known types.
func (s Section) MarshalJSON() ([]byte, error) {
	data := s.Data
	if data == nil {
		if d, ok := Lookup(s.Type); ok {
			data = d.NewPayload()
		} else {
			data = &RawPayload{}
		}
	}
	type plain Section
	p := plain(s)
	p.Data = data
	return json.Marshal(p)
}

// Document is the aggregate root: personal info plus ordered sections.
type Document struct {
	Version      int          `json:"version"`
	PersonalInfo PersonalInfo `json:"personalInfo"`
	Sections     []Section    `json:"sections"`
}

// Clone returns a deep copy, safe to hand to another goroutine.
func (d Document) Clone() Document {
	out := Document{Version: d.Version, PersonalInfo: d.PersonalInfo}
	out.Sections = make([]Section, len(d.Sections))
	for i, s := range d.Sections {
		out.Sections[i] = s.Clone()
	}
	return out
}

// Ordered returns the sections in render order: ascending Order, ties broken
// by insertion (slice) position.
func (d Document) Ordered() []Section {
	out := make([]Section, len(d.Sections))
	copy(out, d.Sections)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Section returns the section with the given id and its slice index.
func (d Document) Section(id string) (Section, int, bool) {
	for i, s := range d.Sections {
		if s.ID == id {
			return s, i, true
		}
	}
	return Section{}, -1, false
}

// Types lists the section types present in the document.
func (d Document) Types() []SectionType {
	out := make([]SectionType, 0, len(d.Sections))
	for _, s := range d.Sections {
		out = append(out, s.Type)
	}
	return out
}

// MaxSectionOrder bounds section order values so that appending after the
// last section or shifting collisions cannot overflow.
const MaxSectionOrder = 1_000_000

// MaxOrder returns the largest order value, or -1 for an empty document.
func (d Document) MaxOrder() int {
	max := -1
	for _, s := range d.Sections {
		if s.Order > max {
			max = s.Order
		}
	}
	return max
}

// Marshal encodes the canonical form. Map keys are sorted by encoding/json,
// so equal documents encode to equal bytes.
func (d Document) Marshal() ([]byte, error) {
	if d.Sections == nil {
		d.Sections = []Section{}
	}
	if d.Version == 0 {
		d.Version = SchemaVersion
	}
	return json.Marshal(d)
}

// Equal compares two documents by canonical encoding.
func (d Document) Equal(other Document) bool {
	a, errA := d.Marshal()
	b, errB := other.Marshal()
	return errA == nil && errB == nil && bytes.Equal(a, b)
}

// StarterTypes is the canonical starter set of a fresh document.
var StarterTypes = []SectionType{
	TypePersonalInfo,
	TypeExperience,
	TypeEducation,
	TypeProjects,
	TypeSkills,
}

// NewDocument builds a fresh document with the starter set. newID supplies
// section and entry ids.
func NewDocument(newID func() string) Document {
	doc := Document{Version: SchemaVersion, Sections: make([]Section, 0, len(StarterTypes))}
	for i, t := range StarterTypes {
		doc.Sections = append(doc.Sections, NewSection(t, i, newID))
	}
	return doc
}

// NewSection builds a visible section of type t with registry defaults.
// Seeded entries get fresh ids from newID.
func NewSection(t SectionType, order int, newID func() string) Section {
	d := Describe(t)
	data := d.NewPayload()
	if l, ok := data.(*EntryList); ok {
		for i := range l.Entries {
			l.Entries[i].ID = newID()
		}
	}
	return Section{
		ID:      newID(),
		Type:    t,
		Title:   d.DefaultTitle,
		Order:   order,
		Visible: true,
		Data:    data,
	}
}
