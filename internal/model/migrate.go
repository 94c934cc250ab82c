package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// LegacyOrder is the fixed order given to sections synthesised from the flat
// legacy shape. Gaps are kept so that migrated documents render in the same
// relative order the legacy layout used.
var LegacyOrder = map[SectionType]int{
	TypeEducation:  0,
	TypeExperience: 1,
	TypeProjects:   2,
	TypeSkills:     3,
}

var legacyKeys = []SectionType{TypeEducation, TypeExperience, TypeProjects, TypeSkills}

// legacyAliases maps legacy field names onto registry field names.
var legacyAliases = map[SectionType]map[string]string{
	TypeExperience: {
		"position": "role", "title": "role", "jobTitle": "role",
		"employer": "company", "organization": "company",
	},
	TypeEducation: {
		"school": "institution", "university": "institution", "college": "institution",
		"major": "field", "fieldOfStudy": "field", "graduationDate": "endDate",
	},
	TypeProjects: {
		"title": "name", "projectName": "name", "link": "url",
		"techStack": "technologies", "tech": "technologies", "stack": "technologies",
	},
}

var commonAliases = map[string]string{
	"start": "startDate", "from": "startDate",
	"end": "endDate", "to": "endDate",
}

var bulletKeys = []string{"bullets", "highlights", "responsibilities", "achievements", "description"}

var titleOverrideKeys = []string{"sectionTitles", "customSectionTitles", "sectionNames"}

// HasSectionsArray is the versioned predicate that tells canonical records
// from legacy flat ones: canonical records expose a "sections" array.
func HasSectionsArray(raw map[string]json.RawMessage) bool {
	v, ok := raw["sections"]
	if !ok {
		return false
	}
	v = bytes.TrimSpace(v)
	return len(v) > 0 && v[0] == '['
}

// Migrate turns a persisted record into a canonical Document. It is pure and
// total: malformed input is defaulted and reported as anomalies, never as an
// error. Migrating an already canonical record returns it unchanged, so
// Migrate(Marshal(Migrate(x))) equals Migrate(x).
func Migrate(raw []byte) (Document, []Anomaly) {
	var anomalies []Anomaly
	doc := Document{Version: SchemaVersion, Sections: []Section{}}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil || top == nil {
		anomalies = append(anomalies, Anomaly{Path: "$", Reason: "record is not a JSON object; using empty document"})
		return doc, anomalies
	}

	doc.PersonalInfo, anomalies = decodePersonalInfo(top, anomalies)

	if HasSectionsArray(top) {
		doc.Sections, anomalies = decodeCanonicalSections(top["sections"], anomalies)
		return doc, anomalies
	}

	titles := legacyTitles(top)
	for _, t := range legacyKeys {
		v, ok := top[string(t)]
		if !ok {
			continue
		}
		data, present := legacyPayload(t, v)
		if !present {
			continue
		}
		title := Describe(t).DefaultTitle
		if custom := strings.TrimSpace(titles[string(t)]); custom != "" {
			title = custom
		}
		doc.Sections = append(doc.Sections, Section{
			ID:      "legacy-" + string(t),
			Type:    t,
			Title:   title,
			Order:   LegacyOrder[t],
			Visible: true,
			Data:    data,
		})
	}
	return doc, anomalies
}

var personalAliases = map[string]string{
	"fullName": "fullName", "name": "fullName", "full_name": "fullName",
	"email": "email",
	"phone": "phone", "phoneNumber": "phone",
	"linkedin": "linkedin", "linkedIn": "linkedin",
	"github": "github", "gitHub": "github",
	"location": "location", "address": "location",
	"portfolio": "portfolio", "website": "portfolio",
}

func decodePersonalInfo(top map[string]json.RawMessage, anomalies []Anomaly) (PersonalInfo, []Anomaly) {
	var raw json.RawMessage
	for _, k := range []string{"personalInfo", "personal_info", "personal"} {
		if v, ok := top[k]; ok {
			raw = v
			break
		}
	}
	var p PersonalInfo
	if len(raw) == 0 {
		return p, anomalies
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return p, append(anomalies, Anomaly{Path: "personalInfo", Reason: "not an object; defaulted"})
	}
	set := map[string]string{}
	for k, v := range fields {
		name, ok := personalAliases[k]
		if !ok {
			continue
		}
		if _, taken := set[name]; taken && k != name {
			continue
		}
		if s, ok := fieldString(v); ok {
			set[name] = strings.TrimSpace(s)
		}
	}
	p.FullName = set["fullName"]
	p.Email = set["email"]
	p.Phone = set["phone"]
	p.LinkedIn = set["linkedin"]
	p.GitHub = set["github"]
	p.Location = set["location"]
	p.Portfolio = set["portfolio"]
	return p, anomalies
}

func decodeCanonicalSections(raw json.RawMessage, anomalies []Anomaly) ([]Section, []Anomaly) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []Section{}, append(anomalies, Anomaly{Path: "sections", Reason: err.Error()})
	}
	out := make([]Section, 0, len(items))
	for i, item := range items {
		path := fmt.Sprintf("sections[%d]", i)
		var aux sectionJSON
		if err := json.Unmarshal(item, &aux); err != nil {
			anomalies = append(anomalies, Anomaly{Path: path, Reason: "unreadable section dropped: " + err.Error()})
			continue
		}
		s := Section{ID: aux.ID, Type: aux.Type, Title: aux.Title, Order: aux.Order, Visible: true}
		if aux.Visible != nil {
			s.Visible = *aux.Visible
		}
		if s.ID == "" {
			s.ID = fmt.Sprintf("section-%d", i)
			anomalies = append(anomalies, Anomaly{Path: path + ".id", Reason: "missing; assigned " + s.ID})
		}
		d, known := Lookup(s.Type)
		if !known {
			s.Data = &RawPayload{Raw: append(json.RawMessage{}, aux.Data...)}
			anomalies = append(anomalies, Anomaly{Path: path + ".type", Reason: fmt.Sprintf("unknown type %q kept verbatim", s.Type)})
			out = append(out, s)
			continue
		}
		if strings.TrimSpace(s.Title) == "" {
			s.Title = d.DefaultTitle
		}
		p, err := decodePayload(d, aux.Data)
		if err != nil {
			anomalies = append(anomalies, Anomaly{Path: path + ".data", Reason: "malformed payload defaulted: " + err.Error()})
		}
		if l, ok := p.(*EntryList); ok {
			for j := range l.Entries {
				if l.Entries[j].ID == "" {
					l.Entries[j].ID = fmt.Sprintf("%s-%d", s.ID, j)
					anomalies = append(anomalies, Anomaly{Path: fmt.Sprintf("%s.data.entries[%d].id", path, j), Reason: "missing; assigned " + l.Entries[j].ID})
				}
			}
		}
		s.Data = p
		out = append(out, s)
	}
	return out, anomalies
}

func legacyTitles(top map[string]json.RawMessage) map[string]string {
	out := map[string]string{}
	for _, k := range titleOverrideKeys {
		v, ok := top[k]
		if !ok {
			continue
		}
		var m map[string]json.RawMessage
		if json.Unmarshal(v, &m) != nil {
			continue
		}
		for t, raw := range m {
			if s, ok := fieldString(raw); ok {
				if _, set := out[t]; !set {
					out[t] = s
				}
			}
		}
	}
	return out
}

// legacyPayload converts one legacy top-level value. present is false when
// the value is absent, empty or unusable.
func legacyPayload(t SectionType, raw json.RawMessage) (Payload, bool) {
	if t == TypeSkills {
		return legacySkills(raw)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || len(items) == 0 {
		return nil, false
	}
	d := Describe(t)
	l := &EntryList{Entries: make([]Entry, 0, len(items))}
	for i, item := range items {
		e := legacyEntry(t, d, item)
		if e.ID == "" {
			e.ID = fmt.Sprintf("legacy-%s-%d", t, i)
		}
		l.Entries = append(l.Entries, e)
	}
	return l, true
}

func legacyEntry(t SectionType, d Descriptor, raw json.RawMessage) Entry {
	e := Entry{Fields: map[string]string{}, Bullets: []string{}}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		// a bare string becomes the heading
		if s, ok := fieldString(raw); ok && len(d.Fields) > 0 {
			e.Fields[d.Fields[0].Name] = s
		}
		return e
	}
	aliases := legacyAliases[t]
	for k, v := range fields {
		if k == "id" {
			e.ID = scalarString(v)
			continue
		}
		if isBulletKey(k) {
			continue
		}
		name := k
		if a, ok := aliases[k]; ok {
			name = a
		} else if a, ok := commonAliases[k]; ok {
			name = a
		}
		if _, canonical := d.Field(k); canonical || e.Fields[name] == "" {
			if s, ok := fieldString(v); ok {
				e.Fields[name] = s
			}
		}
	}
	for _, k := range bulletKeys {
		if v, ok := fields[k]; ok {
			e.Bullets = append(e.Bullets, stringList(v)...)
		}
	}
	return e
}

func isBulletKey(k string) bool {
	for _, b := range bulletKeys {
		if b == k {
			return true
		}
	}
	return false
}

func legacySkills(raw json.RawMessage) (Payload, bool) {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 {
		return nil, false
	}
	switch t[0] {
	case '{', '[':
		s := &SkillSet{}
		if err := json.Unmarshal(t, s); err != nil || len(s.Groups) == 0 {
			if t[0] == '[' {
				// a plain list of skill names
				items := stringList(t)
				if len(items) == 0 {
					return nil, false
				}
				return &SkillSet{Groups: []SkillGroup{{Category: "Skills", Items: strings.Join(items, ", ")}}}, true
			}
			return nil, false
		}
		return s, true
	default:
		text, ok := fieldString(t)
		if !ok || strings.TrimSpace(text) == "" {
			return nil, false
		}
		return &SkillSet{Groups: []SkillGroup{{Category: "Skills", Items: text}}}, true
	}
}
