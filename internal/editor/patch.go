package editor

import (
	"fmt"
	"strings"

	"resume-builder/internal/model"
)

// SectionPatch edits a section payload in place. The payload handed to Apply
// is a private copy owned by the operation.
type SectionPatch interface {
	Kind() string
	Apply(d model.Descriptor, data model.Payload, newID IDGenerator) error
}

func entryList(op string, data model.Payload) (*model.EntryList, error) {
	l, ok := data.(*model.EntryList)
	if !ok {
		return nil, model.NewValidationError(op, "section does not hold entries")
	}
	return l, nil
}

func findEntry(op string, l *model.EntryList, id string) (int, error) {
	i := l.Index(id)
	if i < 0 {
		return -1, model.NewValidationError(op, fmt.Sprintf("entry %q not found", id))
	}
	return i, nil
}

func checkFields(op string, d model.Descriptor, fields map[string]string) error {
	for name := range fields {
		if _, ok := d.Field(name); !ok {
			return model.NewValidationError(op, fmt.Sprintf("%s entries have no field %q", d.Type, name))
		}
	}
	return nil
}

func cleanBullets(in []string) []string {
	out := make([]string, 0, len(in))
	for _, b := range in {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// SetEntryFields overwrites the given fields of one entry. Other fields and
// the entry id are untouched.
type SetEntryFields struct {
	EntryID string            `json:"entryId"`
	Fields  map[string]string `json:"fields"`
}

func (SetEntryFields) Kind() string { return "set_entry_fields" }

func (p SetEntryFields) Apply(d model.Descriptor, data model.Payload, _ IDGenerator) error {
	l, err := entryList(p.Kind(), data)
	if err != nil {
		return err
	}
	i, err := findEntry(p.Kind(), l, p.EntryID)
	if err != nil {
		return err
	}
	if err := checkFields(p.Kind(), d, p.Fields); err != nil {
		return err
	}
	e := &l.Entries[i]
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	for k, v := range p.Fields {
		e.Fields[k] = v
	}
	return nil
}

// SetEntryBullets replaces the bullet list of one entry. Blank bullets are
// dropped.
type SetEntryBullets struct {
	EntryID string   `json:"entryId"`
	Bullets []string `json:"bullets"`
}

func (SetEntryBullets) Kind() string { return "set_entry_bullets" }

func (p SetEntryBullets) Apply(_ model.Descriptor, data model.Payload, _ IDGenerator) error {
	l, err := entryList(p.Kind(), data)
	if err != nil {
		return err
	}
	i, err := findEntry(p.Kind(), l, p.EntryID)
	if err != nil {
		return err
	}
	l.Entries[i].Bullets = cleanBullets(p.Bullets)
	return nil
}

// AddEntry appends a new entry with a fresh id.
type AddEntry struct {
	Fields  map[string]string `json:"fields,omitempty"`
	Bullets []string          `json:"bullets,omitempty"`
}

func (AddEntry) Kind() string { return "add_entry" }

func (p AddEntry) Apply(d model.Descriptor, data model.Payload, newID IDGenerator) error {
	l, err := entryList(p.Kind(), data)
	if err != nil {
		return err
	}
	if err := checkFields(p.Kind(), d, p.Fields); err != nil {
		return err
	}
	e := model.Entry{ID: newID(), Fields: map[string]string{}, Bullets: cleanBullets(p.Bullets)}
	for k, v := range p.Fields {
		e.Fields[k] = v
	}
	l.Entries = append(l.Entries, e)
	return nil
}

// RemoveEntry deletes one entry. The registry's MinEntries floor is kept.
type RemoveEntry struct {
	EntryID string `json:"entryId"`
}

func (RemoveEntry) Kind() string { return "remove_entry" }

func (p RemoveEntry) Apply(d model.Descriptor, data model.Payload, _ IDGenerator) error {
	l, err := entryList(p.Kind(), data)
	if err != nil {
		return err
	}
	i, err := findEntry(p.Kind(), l, p.EntryID)
	if err != nil {
		return err
	}
	if len(l.Entries) <= d.MinEntries {
		return model.NewValidationError(p.Kind(), fmt.Sprintf("%s needs at least %d entries", d.Type, d.MinEntries))
	}
	l.Entries = append(l.Entries[:i], l.Entries[i+1:]...)
	return nil
}

// MoveEntry moves one entry to Index, clamped to the list bounds.
type MoveEntry struct {
	EntryID string `json:"entryId"`
	Index   int    `json:"index"`
}

func (MoveEntry) Kind() string { return "move_entry" }

func (p MoveEntry) Apply(_ model.Descriptor, data model.Payload, _ IDGenerator) error {
	l, err := entryList(p.Kind(), data)
	if err != nil {
		return err
	}
	i, err := findEntry(p.Kind(), l, p.EntryID)
	if err != nil {
		return err
	}
	to := p.Index
	if to < 0 {
		to = 0
	}
	if to > len(l.Entries)-1 {
		to = len(l.Entries) - 1
	}
	e := l.Entries[i]
	rest := append(l.Entries[:i:i], l.Entries[i+1:]...)
	out := make([]model.Entry, 0, len(l.Entries))
	out = append(out, rest[:to]...)
	out = append(out, e)
	out = append(out, rest[to:]...)
	l.Entries = out
	return nil
}

// SetText replaces the body of a free-text section.
type SetText struct {
	Text string `json:"text"`
}

func (SetText) Kind() string { return "set_text" }

func (p SetText) Apply(_ model.Descriptor, data model.Payload, _ IDGenerator) error {
	t, ok := data.(*model.TextBlock)
	if !ok {
		return model.NewValidationError(p.Kind(), "section does not hold text")
	}
	t.Text = p.Text
	return nil
}

// SetSkill creates or updates a skill group. Categories match case-insensitively.
type SetSkill struct {
	Category string `json:"category"`
	Items    string `json:"items"`
}

func (SetSkill) Kind() string { return "set_skill" }

func (p SetSkill) Apply(_ model.Descriptor, data model.Payload, _ IDGenerator) error {
	s, ok := data.(*model.SkillSet)
	if !ok {
		return model.NewValidationError(p.Kind(), "section does not hold skills")
	}
	category := strings.TrimSpace(p.Category)
	if category == "" {
		return model.NewValidationError(p.Kind(), "skill category must not be blank")
	}
	if i := s.Index(category); i >= 0 {
		s.Groups[i].Items = p.Items
		return nil
	}
	s.Groups = append(s.Groups, model.SkillGroup{Category: category, Items: p.Items})
	return nil
}

// RemoveSkill deletes a skill group.
type RemoveSkill struct {
	Category string `json:"category"`
}

func (RemoveSkill) Kind() string { return "remove_skill" }

func (p RemoveSkill) Apply(_ model.Descriptor, data model.Payload, _ IDGenerator) error {
	s, ok := data.(*model.SkillSet)
	if !ok {
		return model.NewValidationError(p.Kind(), "section does not hold skills")
	}
	i := s.Index(strings.TrimSpace(p.Category))
	if i < 0 {
		return model.NewValidationError(p.Kind(), fmt.Sprintf("skill category %q not found", p.Category))
	}
	s.Groups = append(s.Groups[:i], s.Groups[i+1:]...)
	return nil
}

// SetItems replaces a flat item list.
type SetItems struct {
	Items []string `json:"items"`
}

func (SetItems) Kind() string { return "set_items" }

func (p SetItems) Apply(_ model.Descriptor, data model.Payload, _ IDGenerator) error {
	l, ok := data.(*model.ItemList)
	if !ok {
		return model.NewValidationError(p.Kind(), "section does not hold items")
	}
	l.Items = cleanBullets(p.Items)
	return nil
}
