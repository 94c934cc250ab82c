package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"resume-builder/internal/model"
)

func TestDateRange(t *testing.T) {
	tests := []struct {
		start, end, want string
	}{
		{"2020-01", "2022-06", "Jan 2020 – Jun 2022"},
		{"2020-01", "", "Jan 2020 – Present"},
		{"", "2022-06", "Jun 2022"},
		{"", "", ""},
		{"2019", "present", "2019 – Present"},
		{" Spring 2018 ", "2019-13", "Spring 2018 – 2019-13"},
		{"2021-03-15", "Current", "Mar 2021 – Present"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, DateRange(tc.start, tc.end), "%q..%q", tc.start, tc.end)
	}
}

func TestLinks(t *testing.T) {
	assert.Equal(t, "coursera.org", LinkLabel("https://www.coursera.org/verify/ABC123"))
	assert.Equal(t, "github.com", LinkLabel("github.com/jane/project"))
	assert.Equal(t, "docs.aws.amazon.com", LinkLabel("https://docs.aws.amazon.com/guide"))
	assert.Equal(t, "blog.example.com", LinkLabel("blog.example.com/post/1"))
	assert.Equal(t, "www.com", LinkLabel("https://www.com"), "www. is kept when the rest is a public suffix")
	assert.Equal(t, "example.co.uk", LinkLabel("http://www.example.co.uk/about"))
	assert.Equal(t, "not a url", LinkLabel("not a url"))

	assert.Equal(t, "https://github.com/jane/project", Href("github.com/jane/project"))
	assert.Equal(t, "http://example.com/x?y=1", Href(" http://example.com/x?y=1 "))
	assert.Equal(t, "mailto:jane@example.com", Href("mailto:jane@example.com"))
	assert.Equal(t, "", Href("  "))

	assert.Equal(t, "linkedin.com/in/jane", ProfileLabel("https://www.linkedin.com/in/jane/"))
}

func TestSuppressed_KeyFieldsOnly(t *testing.T) {
	d := model.Describe(model.TypeExperience)

	blankKeys := model.Entry{ID: "e1", Fields: map[string]string{"location": "Berlin"}, Bullets: []string{"Built X"}}
	assert.True(t, Suppressed(d, blankKeys), "bullets do not rescue an entry with blank key fields")

	roleOnly := model.Entry{ID: "e2", Fields: map[string]string{"role": "Engineer", "company": "  "}}
	assert.False(t, Suppressed(d, roleOnly))
}

func TestBuildItem_Roles(t *testing.T) {
	d := model.Describe(model.TypeEducation)
	it := buildItem(d, model.Entry{ID: "e1", Fields: map[string]string{
		"institution": "MIT",
		"degree":      "BSc",
		"field":       "Computer Science",
		"startDate":   "2016-09",
		"gpa":         "3.9",
	}, Bullets: []string{" Dean's list ", "", "  "}})

	assert.Equal(t, "MIT", it.Heading)
	assert.Equal(t, "BSc, Computer Science", it.Subheading)
	assert.Equal(t, "Sep 2016 – Present", it.Dates)
	assert.Equal(t, []string{"GPA: 3.9"}, it.Details)
	assert.Equal(t, []string{"Dean's list"}, it.Bullets)
}

func TestBuildHeader(t *testing.T) {
	h := buildHeader(model.PersonalInfo{
		FullName: " Jane Doe ",
		Email:    "jane@example.com",
		Phone:    "+1 (555) 010-2030",
		GitHub:   "janedoe",
		LinkedIn: "https://www.linkedin.com/in/jane-doe",
	})
	assert.Equal(t, "Jane Doe", h.Name)

	byKind := map[string]Contact{}
	for _, c := range h.Contacts {
		byKind[c.Kind] = c
	}
	assert.Equal(t, "tel:+15550102030", byKind["phone"].Href)
	assert.Equal(t, "github.com/janedoe", byKind["github"].Label)
	assert.Equal(t, "https://github.com/janedoe", byKind["github"].Href)
	assert.Equal(t, "linkedin.com/in/jane-doe", byKind["linkedin"].Label)
	assert.Equal(t, "https://www.linkedin.com/in/jane-doe", byKind["linkedin"].Href)
	assert.NotContains(t, byKind, "location")
}
