package models

import "time"

// Field types accepted in template definitions.
const (
	FieldTypeText     = "text"
	FieldTypeDatetime = "datetime"
	FieldTypeNumber   = "number"
	FieldTypeArray    = "array"
	FieldTypeBoolean  = "boolean"
)

// FieldDescriptor describes one piece of information a report type needs.
type FieldDescriptor struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
	Type        string `json:"type"`
}

// TemplateDefinition declares the required fields for a report type.
// RequiredFields is ordered; every entry must have a matching descriptor
// in FieldDefinitions. Edits never retroactively alter already-validated
// reports; validation reads the template at submission time only.
type TemplateDefinition struct {
	ID               string                     `json:"id"`
	OrgID            string                     `json:"orgId"`
	Name             string                     `json:"name"`
	RequiredFields   []string                   `json:"requiredFields"`
	FieldDefinitions map[string]FieldDescriptor `json:"fieldDefinitions"`
	CreatedBy        string                     `json:"createdBy"`
	CreatedAt        time.Time                  `json:"createdAt"`
	UpdatedAt        time.Time                  `json:"updatedAt"`
}

// Validate enforces the template invariant: every required key has a
// descriptor with a known type. Called at create/update time, never at
// validation time.
func (t *TemplateDefinition) Validate() error {
	for _, key := range t.RequiredFields {
		def, ok := t.FieldDefinitions[key]
		if !ok {
			return &InvalidTemplateError{Key: key, Reason: "no field definition for required key"}
		}
		switch def.Type {
		case FieldTypeText, FieldTypeDatetime, FieldTypeNumber, FieldTypeArray, FieldTypeBoolean:
		default:
			return &InvalidTemplateError{Key: key, Reason: "unknown field type " + def.Type}
		}
	}
	return nil
}

// RequiredDescriptors returns the descriptors for the required keys,
// preserving the template's declared order.
func (t *TemplateDefinition) RequiredDescriptors() []FieldDescriptor {
	if len(t.RequiredFields) == 0 {
		return nil
	}
	descs := make([]FieldDescriptor, 0, len(t.RequiredFields))
	for _, key := range t.RequiredFields {
		if def, ok := t.FieldDefinitions[key]; ok {
			if def.Key == "" {
				def.Key = key
			}
			descs = append(descs, def)
		}
	}
	return descs
}
