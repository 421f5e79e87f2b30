package scanner

// FieldType is the semantic category a control is classified into,
// independent of its raw HTML type.
type FieldType string

// Semantic field types that appear in a catalog.
const (
	TypeText           FieldType = "text"
	TypeEmail          FieldType = "email"
	TypePassword       FieldType = "password"
	TypePhone          FieldType = "phone"
	TypeURL            FieldType = "url"
	TypeSearch         FieldType = "search"
	TypeNumber         FieldType = "number"
	TypeRange          FieldType = "range"
	TypeDate           FieldType = "date"
	TypeDatetime       FieldType = "datetime"
	TypeTime           FieldType = "time"
	TypeMonth          FieldType = "month"
	TypeWeek           FieldType = "week"
	TypeColor          FieldType = "color"
	TypeFile           FieldType = "file"
	TypeTextarea       FieldType = "textarea"
	TypeSelectOne      FieldType = "select-one"
	TypeSelectMultiple FieldType = "select-multiple"
	TypeCheckbox       FieldType = "checkbox"
	TypeRadio          FieldType = "radio"
)

// Control types. They are classified so they can be dropped; a catalog
// never contains them.
const (
	TypeHidden FieldType = "hidden"
	TypeSubmit FieldType = "submit"
	TypeButton FieldType = "button"
	TypeReset  FieldType = "reset"
	TypeImage  FieldType = "image"
)

var inputTypes = map[string]FieldType{
	"text":            TypeText,
	"email":           TypeEmail,
	"password":        TypePassword,
	"tel":             TypePhone,
	"url":             TypeURL,
	"search":          TypeSearch,
	"number":          TypeNumber,
	"range":           TypeRange,
	"date":            TypeDate,
	"datetime-local":  TypeDatetime,
	"datetime":        TypeDatetime,
	"time":            TypeTime,
	"month":           TypeMonth,
	"week":            TypeWeek,
	"color":           TypeColor,
	"file":            TypeFile,
	"checkbox":        TypeCheckbox,
	"radio":           TypeRadio,
	"hidden":          TypeHidden,
	"submit":          TypeSubmit,
	"button":          TypeButton,
	"reset":           TypeReset,
	"image":           TypeImage,
	"textarea":        TypeTextarea,
	"select-one":      TypeSelectOne,
	"select-multiple": TypeSelectMultiple,
}

// Classify maps a DOM control type (as reported by dom.Element.Type) to
// its semantic type. Unknown input types are treated as text.
func Classify(domType string) FieldType {
	if t, ok := inputTypes[domType]; ok {
		return t
	}
	return TypeText
}

// IsControl reports whether t is a button-like control that never carries
// user data.
func (t FieldType) IsControl() bool {
	switch t {
	case TypeSubmit, TypeButton, TypeReset, TypeImage, TypeHidden:
		return true
	}
	return false
}

// IsTextual reports whether values of t are written verbatim with the
// maxlength rule applied.
func (t FieldType) IsTextual() bool {
	switch t {
	case TypeText, TypeEmail, TypePassword, TypePhone, TypeURL, TypeSearch, TypeTextarea:
		return true
	}
	return false
}
