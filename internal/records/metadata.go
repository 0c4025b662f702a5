package records

import (
	"strings"

	"redcap-client/internal/redcap"
)

const (
	// CompletionFieldSuffix names the synthetic per-instrument field that
	// records entry status. It is never declared in the data dictionary.
	CompletionFieldSuffix = "_complete"

	// dataAccessGroupField is reported on rows without belonging to any
	// instrument.
	dataAccessGroupField = "redcap_data_access_group"
)

// SelectorMap holds, per choice-typed field, the raw code to display label
// mapping used to decode exported values.
type SelectorMap map[string]map[string]string

// Metadata is the resolved, read-only lookup state for one tree build.
type Metadata struct {
	// RecordIDField is the field name of the first data-dictionary entry.
	// Declaration order is the only signal for which field identifies the
	// subject.
	RecordIDField string

	// FieldForms maps every declared field, plus one synthetic
	// "<instrument>_complete" per instrument, to its owning instrument.
	FieldForms map[string]string

	// FieldTypes maps declared fields to their parsed type.
	FieldTypes map[string]FieldType

	// EventForms maps each event to the set of instruments it can carry.
	// Events absent here are obsolete; no data under them is valid.
	EventForms map[string]map[string]bool

	Selectors SelectorMap
}

// ResolveMetadata derives all lookup tables from the two metadata exports.
// Empty inputs yield empty maps; downstream components then produce an empty
// tree rather than an error.
func ResolveMetadata(defs []redcap.FieldDefinition, mappings []redcap.EventMapping) *Metadata {
	meta := &Metadata{
		FieldForms: make(map[string]string, len(defs)),
		FieldTypes: make(map[string]FieldType, len(defs)),
		EventForms: make(map[string]map[string]bool),
		Selectors:  make(SelectorMap),
	}

	forms := make(map[string]bool)
	for i, def := range defs {
		if i == 0 {
			meta.RecordIDField = def.FieldName
		}
		fieldType := ParseFieldType(def.FieldType)
		meta.FieldForms[def.FieldName] = def.FormName
		meta.FieldTypes[def.FieldName] = fieldType
		forms[def.FormName] = true

		switch {
		case fieldType.hasChoiceList():
			meta.Selectors[def.FieldName] = parseChoices(def.SelectChoices)
		case fieldType == FieldTypeYesNo:
			meta.Selectors[def.FieldName] = map[string]string{"1": "Yes", "0": "No"}
		case fieldType == FieldTypeTrueFalse:
			meta.Selectors[def.FieldName] = map[string]string{"1": "True", "0": "False"}
		}
	}

	for form := range forms {
		completion := form + CompletionFieldSuffix
		meta.FieldForms[completion] = form
		meta.Selectors[completion] = map[string]string{
			"2": "Complete",
			"1": "Unverified",
			"0": "Incomplete",
		}
	}

	for _, iem := range mappings {
		if meta.EventForms[iem.UniqueEventName] == nil {
			meta.EventForms[iem.UniqueEventName] = make(map[string]bool)
		}
		meta.EventForms[iem.UniqueEventName][iem.Form] = true
	}

	return meta
}

// CompletionField returns the synthetic completion field name for a form.
func (m *Metadata) CompletionField(form string) string {
	return form + CompletionFieldSuffix
}

// FormFields inverts FieldForms: every field (synthetic completion fields
// included) grouped by owning instrument.
func (m *Metadata) FormFields() map[string][]string {
	out := make(map[string][]string)
	for field, form := range m.FieldForms {
		out[form] = append(out[form], field)
	}
	return out
}

// parseChoices decodes a "code, label | code, label" choice list. Labels may
// themselves contain commas, so each segment splits on the first comma only.
func parseChoices(raw string) map[string]string {
	choices := make(map[string]string)
	for _, segment := range strings.Split(raw, "|") {
		if strings.TrimSpace(segment) == "" {
			continue
		}
		parts := strings.SplitN(segment, ",", 2)
		code := strings.TrimSpace(parts[0])
		label := ""
		if len(parts) == 2 {
			label = strings.TrimSpace(parts[1])
		}
		choices[code] = label
	}
	return choices
}
