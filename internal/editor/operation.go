package editor

import (
	"encoding/json"
	"fmt"

	"resume-builder/internal/model"
)

// Operation is one edit against a snapshot.
type Operation interface {
	Name() string
	Apply(doc model.Document, newID IDGenerator) (model.Document, error)
}

type AddSectionOp struct{ Type model.SectionType }

func (AddSectionOp) Name() string { return "add_section" }
func (o AddSectionOp) Apply(doc model.Document, newID IDGenerator) (model.Document, error) {
	return AddSection(doc, o.Type, newID)
}

type RemoveSectionOp struct{ SectionID string }

func (RemoveSectionOp) Name() string { return "remove_section" }
func (o RemoveSectionOp) Apply(doc model.Document, _ IDGenerator) (model.Document, error) {
	return RemoveSection(doc, o.SectionID)
}

type ReorderSectionOp struct {
	SectionID string
	Order     int
}

func (ReorderSectionOp) Name() string { return "reorder_section" }
func (o ReorderSectionOp) Apply(doc model.Document, _ IDGenerator) (model.Document, error) {
	return ReorderSection(doc, o.SectionID, o.Order)
}

type RenameSectionOp struct {
	SectionID string
	Title     string
}

func (RenameSectionOp) Name() string { return "rename_section" }
func (o RenameSectionOp) Apply(doc model.Document, _ IDGenerator) (model.Document, error) {
	return RenameSection(doc, o.SectionID, o.Title)
}

type SetVisibilityOp struct {
	SectionID string
	Visible   bool
}

func (SetVisibilityOp) Name() string { return "set_visibility" }
func (o SetVisibilityOp) Apply(doc model.Document, _ IDGenerator) (model.Document, error) {
	return SetVisibility(doc, o.SectionID, o.Visible)
}

type UpdateSectionDataOp struct {
	SectionID string
	Patch     SectionPatch
}

func (UpdateSectionDataOp) Name() string { return "update_section_data" }
func (o UpdateSectionDataOp) Apply(doc model.Document, newID IDGenerator) (model.Document, error) {
	return UpdateSectionData(doc, o.SectionID, o.Patch, newID)
}

type UpdatePersonalInfoOp struct{ Patch PersonalInfoPatch }

func (UpdatePersonalInfoOp) Name() string { return "update_personal_info" }
func (o UpdatePersonalInfoOp) Apply(doc model.Document, _ IDGenerator) (model.Document, error) {
	return UpdatePersonalInfo(doc, o.Patch)
}

type ReplaceDocumentOp struct{ Document model.Document }

func (ReplaceDocumentOp) Name() string { return "replace_document" }
func (o ReplaceDocumentOp) Apply(doc model.Document, _ IDGenerator) (model.Document, error) {
	return ReplaceDocument(doc, o.Document)
}

// envelope is the wire form of an operation:
//
//	{"op":"rename_section","sectionId":"...","title":"Work"}
type envelope struct {
	Op           string             `json:"op"`
	Type         string             `json:"type,omitempty"`
	SectionID    string             `json:"sectionId,omitempty"`
	Order        *int               `json:"order,omitempty"`
	Title        *string            `json:"title,omitempty"`
	Visible      *bool              `json:"visible,omitempty"`
	PersonalInfo *PersonalInfoPatch `json:"personalInfo,omitempty"`
	Patch        json.RawMessage    `json:"patch,omitempty"`
	Document     json.RawMessage    `json:"document,omitempty"`
}

type patchEnvelope struct {
	Kind string `json:"kind"`
}

// DecodeOperation parses the JSON form of an operation. Malformed input is
// reported as a validation error.
func DecodeOperation(raw []byte) (Operation, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, model.NewValidationError("decode_operation", err.Error())
	}
	invalid := func(reason string) error { return model.NewValidationError(env.Op, reason) }
	needSection := func() error {
		if env.SectionID == "" {
			return invalid("sectionId is required")
		}
		return nil
	}

	switch env.Op {
	case "add_section":
		t, err := model.ParseSectionType(env.Type)
		if err != nil {
			return nil, err
		}
		return AddSectionOp{Type: t}, nil
	case "remove_section":
		if err := needSection(); err != nil {
			return nil, err
		}
		return RemoveSectionOp{SectionID: env.SectionID}, nil
	case "reorder_section":
		if err := needSection(); err != nil {
			return nil, err
		}
		if env.Order == nil {
			return nil, invalid("order is required")
		}
		return ReorderSectionOp{SectionID: env.SectionID, Order: *env.Order}, nil
	case "rename_section":
		if err := needSection(); err != nil {
			return nil, err
		}
		if env.Title == nil {
			return nil, invalid("title is required")
		}
		return RenameSectionOp{SectionID: env.SectionID, Title: *env.Title}, nil
	case "set_visibility":
		if err := needSection(); err != nil {
			return nil, err
		}
		if env.Visible == nil {
			return nil, invalid("visible is required")
		}
		return SetVisibilityOp{SectionID: env.SectionID, Visible: *env.Visible}, nil
	case "update_personal_info":
		if env.PersonalInfo == nil {
			return nil, invalid("personalInfo is required")
		}
		return UpdatePersonalInfoOp{Patch: *env.PersonalInfo}, nil
	case "update_section_data":
		if err := needSection(); err != nil {
			return nil, err
		}
		p, err := DecodePatch(env.Patch)
		if err != nil {
			return nil, err
		}
		return UpdateSectionDataOp{SectionID: env.SectionID, Patch: p}, nil
	case "replace_document":
		if len(env.Document) == 0 {
			return nil, invalid("document is required")
		}
		doc, err := DecodeDocument(env.Document)
		if err != nil {
			return nil, err
		}
		return ReplaceDocumentOp{Document: doc}, nil
	case "":
		return nil, model.NewValidationError("decode_operation", "op is required")
	default:
		return nil, model.NewValidationError("decode_operation", fmt.Sprintf("unknown op %q", env.Op))
	}
}

// DecodeDocument checks raw against the document schema and decodes it.
func DecodeDocument(raw []byte) (model.Document, error) {
	if err := model.ValidateJSON(raw); err != nil {
		return model.Document{}, err
	}
	var doc model.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return model.Document{}, model.NewValidationError("replace_document", err.Error())
	}
	return doc, nil
}

// DecodePatch parses a section payload patch keyed by its "kind".
func DecodePatch(raw json.RawMessage) (SectionPatch, error) {
	if len(raw) == 0 {
		return nil, model.NewValidationError("update_section_data", "patch is required")
	}
	var head patchEnvelope
	if err := json.Unmarshal(raw, &head); err != nil {
		return nil, model.NewValidationError("update_section_data", err.Error())
	}
	var p SectionPatch
	switch head.Kind {
	case "set_entry_fields":
		p = &SetEntryFields{}
	case "set_entry_bullets":
		p = &SetEntryBullets{}
	case "add_entry":
		p = &AddEntry{}
	case "remove_entry":
		p = &RemoveEntry{}
	case "move_entry":
		p = &MoveEntry{}
	case "set_text":
		p = &SetText{}
	case "set_skill":
		p = &SetSkill{}
	case "remove_skill":
		p = &RemoveSkill{}
	case "set_items":
		p = &SetItems{}
	default:
		return nil, model.NewValidationError("update_section_data", fmt.Sprintf("unknown patch kind %q", head.Kind))
	}
	if err := json.Unmarshal(raw, p); err != nil {
		return nil, model.NewValidationError(head.Kind, err.Error())
	}
	return p, nil
}
