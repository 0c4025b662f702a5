package redcap

// Record is one exported row. Flat exports carry arbitrary field columns, EAV
// exports carry the fixed record/field_name/value triple plus event and
// repeat markers, and the repeat-instance marker arrives as a JSON number for
// the first instance and a string for later ones, so rows stay loosely typed
// until normalization.
type Record map[string]interface{}

// ExportType selects the record export shape.
type ExportType string

const (
	ExportFlat ExportType = "flat"
	ExportEAV  ExportType = "eav"
)

// RecordOptions parameterizes a record export. Zero values ask for raw codes
// and raw headers, which is what tree assembly needs.
type RecordOptions struct {
	Type             ExportType
	Labels           bool // decoded labels instead of raw codes
	LabelHeaders     bool
	CheckboxLabels   bool
	SurveyFields     bool
	DataAccessGroups bool
	Records          []string // restrict to these record ids
	Fields           []string // restrict to these fields
}

// ImportOptions parameterizes a record import.
type ImportOptions struct {
	Type       ExportType
	Overwrite  bool
	AutoNumber bool
}

// FieldDefinition is one data-dictionary entry. Declaration order is
// significant: the first field in the dictionary is the record identifier.
type FieldDefinition struct {
	FieldName     string `json:"field_name"`
	FormName      string `json:"form_name"`
	FieldType     string `json:"field_type"`
	FieldLabel    string `json:"field_label,omitempty"`
	SelectChoices string `json:"select_choices_or_calculations,omitempty"`
}

// EventMapping ties an instrument (form) to a unique event.
type EventMapping struct {
	ArmNum          int    `json:"arm_num,omitempty"`
	UniqueEventName string `json:"unique_event_name"`
	Form            string `json:"form"`
}

// Arm is a study arm.
type Arm struct {
	ArmNum int    `json:"arm_num"`
	Name   string `json:"name"`
}

// Event carries event details (names, numbers, labels, offsets).
type Event struct {
	EventName       string `json:"event_name"`
	ArmNum          int    `json:"arm_num"`
	UniqueEventName string `json:"unique_event_name,omitempty"`
	DayOffset       int    `json:"day_offset,omitempty"`
	OffsetMin       int    `json:"offset_min,omitempty"`
	OffsetMax       int    `json:"offset_max,omitempty"`
}

// Instrument maps an internal instrument name to its display label.
type Instrument struct {
	InstrumentName  string `json:"instrument_name"`
	InstrumentLabel string `json:"instrument_label"`
}

// ExportFieldName maps a field (and selected choice) to its exported column.
type ExportFieldName struct {
	OriginalFieldName string `json:"original_field_name"`
	ChoiceValue       string `json:"choice_value,omitempty"`
	ExportFieldName   string `json:"export_field_name"`
}

// RepeatingFormEvent declares a repeating instrument/event combination.
type RepeatingFormEvent struct {
	EventName  string `json:"event_name,omitempty"`
	FormName   string `json:"form_name,omitempty"`
	CustomLabel string `json:"custom_form_label,omitempty"`
}

// User is a project user with privileges.
type User struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
}

// File is an exported file-upload attachment.
type File struct {
	Filename string
	Body     []byte
}
