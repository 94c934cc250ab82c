package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyEducationSkills = `{
	"personalInfo": {"fullName": "Jane Doe", "email": "jane@example.com", "phone": "555"},
	"education": [{"school": "MIT", "degree": "BSc", "major": "CS", "startDate": "2016-09", "endDate": "2020-06"}],
	"skills": {"Languages": "Go, Python", "Tools": "Docker"}
}`

func TestMigrate_LegacyPartialKeepsPriorityGaps(t *testing.T) {
	doc, anomalies := Migrate([]byte(legacyEducationSkills))
	assert.Empty(t, anomalies)

	require.Len(t, doc.Sections, 2)
	edu, skills := doc.Sections[0], doc.Sections[1]

	assert.Equal(t, TypeEducation, edu.Type)
	assert.Equal(t, 0, edu.Order)
	assert.Equal(t, "legacy-education", edu.ID)
	assert.True(t, edu.Visible)
	assert.Equal(t, "Education", edu.Title)

	assert.Equal(t, TypeSkills, skills.Type)
	assert.Equal(t, 3, skills.Order)

	l, ok := edu.Entries()
	require.True(t, ok)
	require.Len(t, l.Entries, 1)
	e := l.Entries[0]
	assert.Equal(t, "legacy-education-0", e.ID)
	assert.Equal(t, "MIT", e.Get("institution"))
	assert.Equal(t, "CS", e.Get("field"))

	groups := skills.Data.(*SkillSet).Groups
	require.Len(t, groups, 2)
	assert.Equal(t, "Languages", groups[0].Category)

	assert.Equal(t, "Jane Doe", doc.PersonalInfo.FullName)
}

func TestMigrate_LegacyTitleOverrideAndAliases(t *testing.T) {
	raw := `{
		"experience": [{"company": "Acme", "position": "Engineer", "description": "Built X\nShipped Y", "from": "2020-01"}],
		"projects": [],
		"sectionTitles": {"experience": "Work History"}
	}`
	doc, _ := Migrate([]byte(raw))

	require.Len(t, doc.Sections, 1, "empty legacy arrays are not synthesised")
	s := doc.Sections[0]
	assert.Equal(t, "Work History", s.Title)
	assert.Equal(t, 1, s.Order)

	l, _ := s.Entries()
	e := l.Entries[0]
	assert.Equal(t, "Engineer", e.Get("role"))
	assert.Equal(t, "2020-01", e.Get("startDate"))
	assert.Equal(t, []string{"Built X", "Shipped Y"}, e.Bullets)
	assert.Equal(t, PersonalInfo{}, doc.PersonalInfo)
}

func TestMigrate_Idempotent(t *testing.T) {
	inputs := map[string]string{
		"legacy":      legacyEducationSkills,
		"legacy-full": `{"education":[{"school":"A"}],"experience":[{"company":"B","bullets":["x"]}],"projects":[{"title":"C","link":"https://c.dev"}],"skills":["Go","SQL"]}`,
		"canonical":   `{"version":2,"personalInfo":{"fullName":"J"},"sections":[{"id":"s1","type":"summary","title":"About","order":5,"visible":false,"data":{"text":"hello"}}]}`,
		"no-ids":      `{"sections":[{"type":"experience","order":1,"data":{"entries":[{"company":"Acme"}]}}]}`,
		"unknown":     `{"sections":[{"id":"x","type":"hobbies","title":"H","order":0,"visible":true,"data":{"a":1}}]}`,
		"garbage":     `[1,2,3]`,
		"malformed":   `{"personalInfo":"nope","education":"nope","skills":42}`,
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			once, _ := Migrate([]byte(in))
			raw, err := once.Marshal()
			require.NoError(t, err)
			twice, _ := Migrate(raw)
			assert.True(t, once.Equal(twice), "migrate(migrate(x)) != migrate(x)")
		})
	}
}

func TestMigrate_CanonicalReturnedAsIs(t *testing.T) {
	in := `{"version":2,"personalInfo":{"fullName":"J","email":"j@x.io","phone":""},"sections":[{"id":"s1","type":"summary","title":"About","order":5,"visible":false,"data":{"text":"hello"}}]}`
	doc, anomalies := Migrate([]byte(in))
	assert.Empty(t, anomalies)
	require.Len(t, doc.Sections, 1)
	s := doc.Sections[0]
	assert.Equal(t, "About", s.Title)
	assert.Equal(t, 5, s.Order)
	assert.False(t, s.Visible)

	out, err := doc.Marshal()
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestMigrate_MalformedInputIsTotal(t *testing.T) {
	for _, in := range []string{"", "null", "not json", `"str"`, `{"sections":[42, {"id":"a","type":"skills","order":0,"data":"bad"}]}`} {
		assert.NotPanics(t, func() {
			doc, _ := Migrate([]byte(in))
			assert.NotNil(t, doc.Sections)
		}, in)
	}

	doc, anomalies := Migrate([]byte(`{"sections":[42, {"id":"a","type":"skills","order":0,"data":"bad"}]}`))
	require.Len(t, doc.Sections, 1)
	assert.Equal(t, KindSkills, doc.Sections[0].Data.Kind())
	assert.Len(t, anomalies, 2)
}

func TestMigrate_AssignsDeterministicMissingIDs(t *testing.T) {
	in := []byte(`{"sections":[{"type":"experience","order":1,"data":{"entries":[{"company":"Acme"}]}}]}`)
	a, anomalies := Migrate(in)
	b, _ := Migrate(in)
	assert.NotEmpty(t, anomalies)
	assert.Equal(t, "section-0", a.Sections[0].ID)
	assert.Equal(t, "Experience", a.Sections[0].Title)
	l, _ := a.Sections[0].Entries()
	assert.Equal(t, "section-0-0", l.Entries[0].ID)
	assert.True(t, a.Equal(b))
}

func TestHasSectionsArray(t *testing.T) {
	doc, _ := Migrate([]byte(`{"sections":{"not":"an array"},"skills":{"A":"b"}}`))
	require.Len(t, doc.Sections, 1, "a non-array sections key is treated as legacy")
	assert.Equal(t, TypeSkills, doc.Sections[0].Type)
}
