package render

import (
	"log/slog"

	"resume-builder/internal/model"
)

// Item is one rendered entry.
type Item struct {
	ID         string
	Heading    string
	Subheading string
	Location   string
	Dates      string
	Link       *Link
	Details    []string
	Bullets    []string
}

type Contact struct {
	Kind  string
	Label string
	Href  string
}

type Header struct {
	Name     string
	Contacts []Contact
}

type SkillLine struct {
	Category string
	Items    string
}

// Block is one visible section after the rule table ran. Exactly one of
// Header, Items, Skills, Paragraphs or List is used, picked by Kind.
type Block struct {
	SectionID  string
	Type       model.SectionType
	Title      string
	Kind       model.PayloadKind
	Binding    model.Binding
	Header     *Header
	Items      []Item
	Skills     []SkillLine
	Paragraphs []string
	List       []string
	// Continued marks an export fragment that carries on a block from the
	// previous page.
	Continued bool
}

// slice returns the fragment holding rows [from, to). An items block is
// set inline and measured as a single row, so it is never cut.
func (b Block) slice(from, to int, continued bool) Block {
	out := b
	out.Continued = continued
	switch b.Kind {
	case model.KindEntries:
		out.Items = b.Items[from:to]
	case model.KindSkills:
		out.Skills = b.Skills[from:to]
	case model.KindText:
		out.Paragraphs = b.Paragraphs[from:to]
	}
	return out
}

// Layout is the renderer-neutral form of a document: visible blocks in
// ascending section order.
type Layout struct {
	Blocks []Block
}

// BuildLayout runs the rule table over doc. Hidden sections never reach the
// layout. Unknown section types are skipped and logged.
func BuildLayout(doc model.Document, logger *slog.Logger) Layout {
	if logger == nil {
		logger = slog.Default()
	}
	var l Layout
	hasPersonal := false
	for _, s := range doc.Sections {
		if s.Type == model.TypePersonalInfo {
			hasPersonal = true
		}
	}
	if !hasPersonal && !doc.PersonalInfo.IsZero() {
		d := model.Describe(model.TypePersonalInfo)
		l.Blocks = append(l.Blocks, Block{
			Type:    model.TypePersonalInfo,
			Kind:    model.KindPersonal,
			Binding: d.Binding,
			Header:  buildHeader(doc.PersonalInfo),
		})
	}

	for _, s := range doc.Ordered() {
		if !s.Visible {
			continue
		}
		d, ok := model.Lookup(s.Type)
		if !ok {
			logger.Warn("render skip: unknown section type", "section", s.ID, "type", string(s.Type))
			continue
		}
		if s.Data != nil && s.Data.Kind() != d.Kind {
			logger.Warn("render skip: payload does not match section type", "section", s.ID, "type", string(s.Type))
			continue
		}
		b := Block{SectionID: s.ID, Type: s.Type, Title: s.Title, Kind: d.Kind, Binding: d.Binding}
		switch data := s.Data.(type) {
		case *model.EntryList:
			for _, e := range data.Entries {
				if Suppressed(d, e) {
					continue
				}
				b.Items = append(b.Items, buildItem(d, e))
			}
		case *model.SkillSet:
			b.Skills = skillLines(data)
		case *model.TextBlock:
			b.Paragraphs = paragraphs(data.Text)
		case *model.ItemList:
			b.List = CleanLines(data.Items)
		default:
			if d.Kind == model.KindPersonal {
				b.Header = buildHeader(doc.PersonalInfo)
			}
		}
		l.Blocks = append(l.Blocks, b)
	}
	return l
}
