package records

// FieldType is the closed set of data-dictionary field types the resolver
// dispatches on. Anything unrecognized collapses to FieldTypeOther, which
// needs no value decoding.
type FieldType int

const (
	FieldTypeText FieldType = iota
	FieldTypeNotes
	FieldTypeDropdown
	FieldTypeRadio
	FieldTypeCheckbox
	FieldTypeYesNo
	FieldTypeTrueFalse
	FieldTypeOther
)

func ParseFieldType(s string) FieldType {
	switch s {
	case "text":
		return FieldTypeText
	case "notes":
		return FieldTypeNotes
	case "dropdown":
		return FieldTypeDropdown
	case "radio":
		return FieldTypeRadio
	case "checkbox":
		return FieldTypeCheckbox
	case "yesno":
		return FieldTypeYesNo
	case "truefalse":
		return FieldTypeTrueFalse
	default:
		return FieldTypeOther
	}
}

func (t FieldType) String() string {
	switch t {
	case FieldTypeText:
		return "text"
	case FieldTypeNotes:
		return "notes"
	case FieldTypeDropdown:
		return "dropdown"
	case FieldTypeRadio:
		return "radio"
	case FieldTypeCheckbox:
		return "checkbox"
	case FieldTypeYesNo:
		return "yesno"
	case FieldTypeTrueFalse:
		return "truefalse"
	default:
		return "other"
	}
}

// hasChoiceList reports whether the dictionary carries an explicit
// code-to-label list for this type.
func (t FieldType) hasChoiceList() bool {
	switch t {
	case FieldTypeDropdown, FieldTypeRadio, FieldTypeCheckbox:
		return true
	case FieldTypeText, FieldTypeNotes, FieldTypeYesNo, FieldTypeTrueFalse, FieldTypeOther:
		return false
	}
	return false
}
