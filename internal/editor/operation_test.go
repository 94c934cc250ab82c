package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-builder/internal/model"
)

func TestDecodeOperation(t *testing.T) {
	tests := []struct {
		in   string
		want Operation
	}{
		{`{"op":"add_section","type":"awards"}`, AddSectionOp{Type: model.TypeAwards}},
		{`{"op":"remove_section","sectionId":"s1"}`, RemoveSectionOp{SectionID: "s1"}},
		{`{"op":"reorder_section","sectionId":"s1","order":0}`, ReorderSectionOp{SectionID: "s1", Order: 0}},
		{`{"op":"rename_section","sectionId":"s1","title":"Work"}`, RenameSectionOp{SectionID: "s1", Title: "Work"}},
		{`{"op":"set_visibility","sectionId":"s1","visible":false}`, SetVisibilityOp{SectionID: "s1", Visible: false}},
		{
			`{"op":"update_section_data","sectionId":"s1","patch":{"kind":"set_text","text":"hi"}}`,
			UpdateSectionDataOp{SectionID: "s1", Patch: &SetText{Text: "hi"}},
		},
		{
			`{"op":"update_section_data","sectionId":"s1","patch":{"kind":"move_entry","entryId":"e1","index":2}}`,
			UpdateSectionDataOp{SectionID: "s1", Patch: &MoveEntry{EntryID: "e1", Index: 2}},
		},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			op, err := DecodeOperation([]byte(tc.in))
			require.NoError(t, err)
			assert.Equal(t, tc.want, op)
		})
	}
}

func TestDecodeOperation_PersonalInfo(t *testing.T) {
	op, err := DecodeOperation([]byte(`{"op":"update_personal_info","personalInfo":{"fullName":"Jane"}}`))
	require.NoError(t, err)
	p := op.(UpdatePersonalInfoOp).Patch
	require.NotNil(t, p.FullName)
	assert.Equal(t, "Jane", *p.FullName)
	assert.Nil(t, p.Email)
}

func TestDecodeOperation_Rejects(t *testing.T) {
	for _, in := range []string{
		`not json`,
		`{}`,
		`{"op":"explode"}`,
		`{"op":"add_section","type":"hobbies"}`,
		`{"op":"remove_section"}`,
		`{"op":"reorder_section","sectionId":"s1"}`,
		`{"op":"set_visibility","sectionId":"s1"}`,
		`{"op":"update_section_data","sectionId":"s1"}`,
		`{"op":"update_section_data","sectionId":"s1","patch":{"kind":"nope"}}`,
		`{"op":"replace_document","document":{"sections":"x"}}`,
	} {
		_, err := DecodeOperation([]byte(in))
		assert.ErrorIs(t, err, model.ErrValidation, in)
	}
}
