// Package editor holds the live document of an edit session and applies
// structural operations to it. Every operation is a pure transformation: it
// returns a new snapshot and never mutates the one it was given.
package editor

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"resume-builder/internal/model"
)

// IDGenerator returns a fresh identifier that was never handed out before.
type IDGenerator func() string

const maxTitleLen = 120

func notFound(op, id string) error {
	return model.NewValidationError(op, fmt.Sprintf("section %q not found", id))
}

// AddSection appends a section of type t after every existing section.
// Non-repeatable types already present are rejected.
func AddSection(doc model.Document, t model.SectionType, newID IDGenerator) (model.Document, error) {
	d, ok := model.Lookup(t)
	if !ok {
		return doc, model.NewValidationError("add_section", fmt.Sprintf("unknown section type %q", t))
	}
	if !d.Repeatable {
		for _, s := range doc.Sections {
			if s.Type == t {
				return doc, model.NewValidationError("add_section", fmt.Sprintf("document already has a %s section", t))
			}
		}
	}
	order := doc.MaxOrder() + 1
	if order > model.MaxSectionOrder {
		return doc, model.NewValidationError("add_section", "section order limit reached")
	}
	out := doc.Clone()
	out.Sections = append(out.Sections, model.NewSection(t, order, newID))
	return out, nil
}

// RemoveSection deletes a section. The last remaining section cannot be
// removed; the orders of the others are left as they are.
func RemoveSection(doc model.Document, id string) (model.Document, error) {
	_, idx, ok := doc.Section(id)
	if !ok {
		return doc, notFound("remove_section", id)
	}
	if len(doc.Sections) == 1 {
		return doc, model.NewValidationError("remove_section", "a document needs at least one section")
	}
	out := doc.Clone()
	out.Sections = append(out.Sections[:idx], out.Sections[idx+1:]...)
	return out, nil
}

// ReorderSection moves a section to newOrder. Sections already at that order
// and any directly following ones are pushed down by one so that order values
// stay pairwise distinct.
func ReorderSection(doc model.Document, id string, newOrder int) (model.Document, error) {
	_, idx, ok := doc.Section(id)
	if !ok {
		return doc, notFound("reorder_section", id)
	}
	if newOrder < 0 || newOrder > model.MaxSectionOrder {
		return doc, model.NewValidationError("reorder_section", fmt.Sprintf("order must be between 0 and %d", model.MaxSectionOrder))
	}
	out := doc.Clone()
	out.Sections[idx].Order = newOrder

	others := make([]int, 0, len(out.Sections)-1)
	for i := range out.Sections {
		if i != idx {
			others = append(others, i)
		}
	}
	sort.SliceStable(others, func(a, b int) bool {
		return out.Sections[others[a]].Order < out.Sections[others[b]].Order
	})
	next := newOrder
	for _, i := range others {
		s := &out.Sections[i]
		if s.Order < newOrder {
			continue
		}
		if s.Order > next {
			break
		}
		next++
		if next > model.MaxSectionOrder {
			return doc, model.NewValidationError("reorder_section", "section order limit reached")
		}
		s.Order = next
	}
	return out, nil
}

// RenameSection sets a section's display title.
func RenameSection(doc model.Document, id, title string) (model.Document, error) {
	_, idx, ok := doc.Section(id)
	if !ok {
		return doc, notFound("rename_section", id)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return doc, model.NewValidationError("rename_section", "title must not be blank")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return doc, model.NewValidationError("rename_section", fmt.Sprintf("title longer than %d characters", maxTitleLen))
	}
	out := doc.Clone()
	out.Sections[idx].Title = title
	return out, nil
}

// SetVisibility hides or shows a section. Hidden sections keep their data.
func SetVisibility(doc model.Document, id string, visible bool) (model.Document, error) {
	_, idx, ok := doc.Section(id)
	if !ok {
		return doc, notFound("set_visibility", id)
	}
	out := doc.Clone()
	out.Sections[idx].Visible = visible
	return out, nil
}

// UpdateSectionData applies a payload patch to one section. Entry ids are
// kept on edit and only generated for inserted entries.
func UpdateSectionData(doc model.Document, id string, patch SectionPatch, newID IDGenerator) (model.Document, error) {
	s, idx, ok := doc.Section(id)
	if !ok {
		return doc, notFound("update_section_data", id)
	}
	if patch == nil {
		return doc, model.NewValidationError("update_section_data", "missing patch")
	}
	d, known := model.Lookup(s.Type)
	if !known {
		return doc, model.NewValidationError("update_section_data", fmt.Sprintf("section type %q cannot be edited", s.Type))
	}
	out := doc.Clone()
	data := out.Sections[idx].Data
	if data == nil {
		data = d.NewPayload()
	}
	if err := patch.Apply(d, data, newID); err != nil {
		return doc, err
	}
	out.Sections[idx].Data = data
	return out, nil
}

// PersonalInfoPatch sets the non-nil fields.
type PersonalInfoPatch struct {
	FullName  *string `json:"fullName,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	LinkedIn  *string `json:"linkedin,omitempty"`
	GitHub    *string `json:"github,omitempty"`
	Location  *string `json:"location,omitempty"`
	Portfolio *string `json:"portfolio,omitempty"`
}

// UpdatePersonalInfo applies p to the personal info block.
func UpdatePersonalInfo(doc model.Document, p PersonalInfoPatch) (model.Document, error) {
	out := doc.Clone()
	pi := &out.PersonalInfo
	for _, f := range []struct {
		src *string
		dst *string
	}{
		{p.FullName, &pi.FullName},
		{p.Email, &pi.Email},
		{p.Phone, &pi.Phone},
		{p.LinkedIn, &pi.LinkedIn},
		{p.GitHub, &pi.GitHub},
		{p.Location, &pi.Location},
		{p.Portfolio, &pi.Portfolio},
	} {
		if f.src != nil {
			*f.dst = *f.src
		}
	}
	return out, nil
}

// ReplaceDocument swaps in an imported canonical document after validation.
func ReplaceDocument(doc model.Document, next model.Document) (model.Document, error) {
	if err := model.Validate(next); err != nil {
		return doc, err
	}
	out := next.Clone()
	out.Version = model.SchemaVersion
	return out, nil
}
