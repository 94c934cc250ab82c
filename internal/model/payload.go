package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Payload is the type-specific data of a section. The registry decides which
// concrete payload a section type carries.
type Payload interface {
	Kind() PayloadKind
	Clone() Payload
}

// Entry is one item of a multi-entry section. Its id is assigned on insert
// and never changes afterwards.
type Entry struct {
	ID      string
	Fields  map[string]string
	Bullets []string
}

// Get returns the named field, or "" when unset.
func (e Entry) Get(name string) string {
	if e.Fields == nil {
		return ""
	}
	return e.Fields[name]
}

func (e Entry) clone() Entry {
	out := Entry{ID: e.ID, Fields: make(map[string]string, len(e.Fields))}
	for k, v := range e.Fields {
		out.Fields[k] = v
	}
	if e.Bullets != nil {
		out.Bullets = append([]string{}, e.Bullets...)
	}
	return out
}

// MarshalJSON writes the entry as one flat object: id, fields, bullets.
func (e Entry) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(e.Fields)+2)
	for k, v := range e.Fields {
		m[k] = v
	}
	m["id"] = e.ID
	bullets := e.Bullets
	if bullets == nil {
		bullets = []string{}
	}
	m["bullets"] = bullets
	return json.Marshal(m)
}

// UnmarshalJSON accepts the flat object form. Scalars are stringified and
// unusable values dropped so that hand-edited records still load.
func (e *Entry) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := Entry{Fields: map[string]string{}}
	for k, v := range raw {
		switch k {
		case "id":
			out.ID = scalarString(v)
		case "bullets":
			out.Bullets = stringList(v)
		default:
			if s, ok := fieldString(v); ok {
				out.Fields[k] = s
			}
		}
	}
	*e = out
	return nil
}

// EntryList is the payload of multi-entry sections. Entry order is the
// stored array order and is significant.
type EntryList struct {
	Entries []Entry
}

func (*EntryList) Kind() PayloadKind { return KindEntries }

func (l *EntryList) Clone() Payload {
	out := &EntryList{Entries: make([]Entry, len(l.Entries))}
	for i, e := range l.Entries {
		out.Entries[i] = e.clone()
	}
	return out
}

// Index returns the position of the entry with the given id, or -1.
func (l *EntryList) Index(id string) int {
	for i, e := range l.Entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (l *EntryList) MarshalJSON() ([]byte, error) {
	entries := l.Entries
	if entries == nil {
		entries = []Entry{}
	}
	return json.Marshal(struct {
		Entries []Entry `json:"entries"`
	}{entries})
}

func (l *EntryList) UnmarshalJSON(b []byte) error {
	var aux struct {
		Entries []json.RawMessage `json:"entries"`
	}
	// a bare array is accepted as the entries themselves
	if t := bytes.TrimSpace(b); len(t) > 0 && t[0] == '[' {
		if err := json.Unmarshal(t, &aux.Entries); err != nil {
			return err
		}
	} else if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	l.Entries = make([]Entry, 0, len(aux.Entries))
	for _, raw := range aux.Entries {
		var e Entry
		if err := json.Unmarshal(raw, &e); err != nil {
			continue
		}
		l.Entries = append(l.Entries, e)
	}
	return nil
}

// SkillGroup is one category of the skills section.
type SkillGroup struct {
	Category string `json:"category"`
	Items    string `json:"items"`
}

// SkillSet keeps skills as ordered category -> text pairs.
type SkillSet struct {
	Groups []SkillGroup
}

func (*SkillSet) Kind() PayloadKind { return KindSkills }

func (s *SkillSet) Clone() Payload {
	return &SkillSet{Groups: append([]SkillGroup{}, s.Groups...)}
}

// Index returns the position of the category (case-insensitive), or -1.
func (s *SkillSet) Index(category string) int {
	for i, g := range s.Groups {
		if strings.EqualFold(g.Category, category) {
			return i
		}
	}
	return -1
}

func (s *SkillSet) MarshalJSON() ([]byte, error) {
	groups := s.Groups
	if groups == nil {
		groups = []SkillGroup{}
	}
	return json.Marshal(struct {
		Groups []SkillGroup `json:"groups"`
	}{groups})
}

// UnmarshalJSON accepts {"groups":[...]}, a bare array of groups, or the
// legacy category -> text object (key order preserved).
func (s *SkillSet) UnmarshalJSON(b []byte) error {
	t := bytes.TrimSpace(b)
	if len(t) == 0 || bytes.Equal(t, []byte("null")) {
		s.Groups = []SkillGroup{}
		return nil
	}
	if t[0] == '[' {
		var groups []SkillGroup
		if err := json.Unmarshal(t, &groups); err != nil {
			return err
		}
		s.Groups = groups
		return nil
	}
	var shape map[string]json.RawMessage
	if err := json.Unmarshal(t, &shape); err != nil {
		return err
	}
	if g, ok := shape["groups"]; ok && len(shape) == 1 {
		var groups []SkillGroup
		if err := json.Unmarshal(g, &groups); err != nil {
			return err
		}
		s.Groups = groups
		return nil
	}
	groups, err := orderedPairs(t)
	if err != nil {
		return err
	}
	s.Groups = groups
	return nil
}

// TextBlock is a single free-text payload, e.g. the summary.
type TextBlock struct {
	Text string `json:"text"`
}

func (*TextBlock) Kind() PayloadKind { return KindText }

func (t *TextBlock) Clone() Payload { return &TextBlock{Text: t.Text} }

// ItemList is a flat list of short strings, e.g. interests.
type ItemList struct {
	Items []string
}

func (*ItemList) Kind() PayloadKind { return KindItems }

func (l *ItemList) Clone() Payload { return &ItemList{Items: append([]string{}, l.Items...)} }

func (l *ItemList) MarshalJSON() ([]byte, error) {
	items := l.Items
	if items == nil {
		items = []string{}
	}
	return json.Marshal(struct {
		Items []string `json:"items"`
	}{items})
}

func (l *ItemList) UnmarshalJSON(b []byte) error {
	t := bytes.TrimSpace(b)
	if len(t) > 0 && t[0] == '[' {
		l.Items = stringList(t)
		return nil
	}
	var aux struct {
		Items json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(t, &aux); err != nil {
		return err
	}
	l.Items = stringList(aux.Items)
	return nil
}

// PersonalRef is the empty payload of the personal_info section; the data
// lives on Document.PersonalInfo.
type PersonalRef struct{}

func (PersonalRef) Kind() PayloadKind { return KindPersonal }

func (PersonalRef) Clone() Payload { return PersonalRef{} }

func (PersonalRef) MarshalJSON() ([]byte, error) { return []byte("{}"), nil }

// RawPayload keeps the data of a section whose type this build does not
// know, so it survives a load/save round trip untouched.
type RawPayload struct {
	Raw json.RawMessage
}

// Kind is not one of the registered kinds.
func (*RawPayload) Kind() PayloadKind { return -1 }

func (r *RawPayload) Clone() Payload {
	return &RawPayload{Raw: append(json.RawMessage{}, r.Raw...)}
}

func (r *RawPayload) MarshalJSON() ([]byte, error) {
	if len(r.Raw) == 0 {
		return []byte("null"), nil
	}
	return r.Raw, nil
}

// decodePayload builds the payload for d from raw JSON. Empty input yields an
// empty payload of the right kind (no seeded entries).
func decodePayload(d Descriptor, raw json.RawMessage) (Payload, error) {
	empty := len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
	var p Payload
	switch d.Kind {
	case KindEntries:
		l := &EntryList{Entries: []Entry{}}
		if !empty {
			if err := json.Unmarshal(raw, l); err != nil {
				return &EntryList{Entries: []Entry{}}, err
			}
		}
		p = l
	case KindSkills:
		s := &SkillSet{Groups: []SkillGroup{}}
		if !empty {
			if err := json.Unmarshal(raw, s); err != nil {
				return &SkillSet{Groups: []SkillGroup{}}, err
			}
		}
		p = s
	case KindText:
		t := &TextBlock{}
		if !empty {
			if err := json.Unmarshal(raw, t); err != nil {
				// a bare string is accepted as the text itself
				var s string
				if json.Unmarshal(raw, &s) != nil {
					return &TextBlock{}, err
				}
				t.Text = s
			}
		}
		p = t
	case KindItems:
		l := &ItemList{Items: []string{}}
		if !empty {
			if err := json.Unmarshal(raw, l); err != nil {
				return &ItemList{Items: []string{}}, err
			}
		}
		p = l
	default:
		p = PersonalRef{}
	}
	return p, nil
}

// scalarString converts a JSON scalar into its string form; other values
// yield "".
func scalarString(raw json.RawMessage) string {
	s, _ := fieldString(raw)
	return s
}

func fieldString(raw json.RawMessage) (string, bool) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	case []any:
		parts := make([]string, 0, len(t))
		for _, it := range t {
			if s, ok := it.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", "), true
	default:
		return "", false
	}
}

// stringList reads an array of strings. A single string is split on new
// lines; non-string array items are dropped.
func stringList(raw json.RawMessage) []string {
	out := []string{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return out
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return out
	}
	switch t := v.(type) {
	case string:
		for _, line := range strings.Split(t, "\n") {
			line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-•*"))
			if line != "" {
				out = append(out, line)
			}
		}
	case []any:
		for _, it := range t {
			if s, ok := it.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

// orderedPairs decodes a JSON object into category -> text pairs while
// keeping the key order of the source document.
func orderedPairs(b []byte) ([]SkillGroup, error) {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("skills: expected object")
	}
	groups := []SkillGroup{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		text, ok := fieldString(raw)
		if !ok {
			continue
		}
		groups = append(groups, SkillGroup{Category: key, Items: text})
	}
	return groups, nil
}
