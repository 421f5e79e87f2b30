package scanner

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/entrhq/formpilot/pkg/dom"
	"github.com/entrhq/formpilot/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scan(t *testing.T, src string, opts ...Option) ([]FieldRecord, *dom.Document) {
	t.Helper()
	doc, err := dom.ParseString(src)
	require.NoError(t, err)
	return New(opts...).Scan(doc), doc
}

func labels(records []FieldRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Label
	}
	return out
}

func TestScan_FiltersIneligible(t *testing.T) {
	records, _ := scan(t, `
		<form>
			<input type="hidden" name="session">
			<input name="authenticity_token" aria-label="Token">
			<input id="CSRF-field" aria-label="Guard">
			<input name="g-recaptcha-response" aria-label="Captcha">
			<input aria-label="Disabled" disabled>
			<input type="email" aria-label="Locked" readonly>
			<input aria-label="Readonly text" readonly>
			<div style="display:none"><input aria-label="Invisible"></div>
			<input aria-label="Ghost" style="visibility: hidden">
			<input class="hp" aria-label="Website" data-formpilot-hidden>
			<input type="submit" value="Send">
			<input type="button" aria-label="Push">
			<input type="reset" aria-label="Reset">
			<input type="image" aria-label="Image">
			<input name="first_name">
		</form>`)

	assert.Equal(t, []string{"Readonly text", "First name"}, labels(records))
}

func TestScan_OrderFormsThenStandalone(t *testing.T) {
	records, _ := scan(t, `
		<input aria-label="Loose one">
		<form id="a"><input aria-label="A1"><textarea aria-label="A2"></textarea></form>
		<input aria-label="Loose two">
		<form id="b"><select aria-label="B1"><option>x</option></select></form>
		<input aria-label="Attached" form="a">`)

	assert.Equal(t, []string{"A1", "A2", "Attached", "B1", "Loose one", "Loose two"}, labels(records))
}

func TestScan_NestedWrappersKeepDocumentOrder(t *testing.T) {
	records, _ := scan(t, `
		<form>
			<div><input aria-label="First"></div>
			<input aria-label="Second">
			<div><div><textarea aria-label="Third"></textarea></div></div>
			<select aria-label="Fourth"><option>x</option></select>
		</form>`)
	assert.Equal(t, []string{"First", "Second", "Third", "Fourth"}, labels(records))

	records, _ = scan(t, `
		<form>
			<label><input type="radio" name="fruit" value="a"> Apple</label>
			<input type="radio" name="fruit" value="b"> Banana
		</form>`)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"Apple", "Banana"}, records[0].Options)
}

// failingLabeler errors on one label and panics on another.
type failingLabeler struct {
	inner *LabelResolver
}

func (f failingLabeler) Resolve(el *dom.Element) (Label, error) {
	switch el.GetAttr("aria-label") {
	case "Broken":
		return Label{}, errors.New("metadata unavailable")
	case "Explodes":
		panic("detached node")
	}
	return f.inner.Resolve(el)
}

func TestScan_SkipsFieldsThatFailExtraction(t *testing.T) {
	var buf bytes.Buffer
	records, _ := scan(t, `
		<form>
			<input aria-label="Before">
			<input aria-label="Broken">
			<textarea aria-label="Explodes"></textarea>
			<input aria-label="After">
		</form>`,
		WithLabelResolver(failingLabeler{inner: NewLabelResolver()}),
		WithLogger(logging.NewWriterLogger("scanner", &buf)))

	assert.Equal(t, []string{"Before", "After"}, labels(records))

	out := buf.String()
	assert.Contains(t, out, "[WARN] skipping field: extract field 1 (<input>): resolve label: metadata unavailable")
	assert.Contains(t, out, "extract field 2 (<textarea>): panic while reading metadata: detached node")
	assert.Equal(t, 2, strings.Count(out, "skipping field"))
}

func TestScan_Deterministic(t *testing.T) {
	doc, err := dom.ParseString(`<form><label for="e">Email *</label><input id="e" type="email"><input name="zip_code"></form>`)
	require.NoError(t, err)
	s := New()

	first := s.Scan(doc)
	second := s.Scan(doc)
	assert.Equal(t, first, second)
}

func TestScan_TypesAndMetadata(t *testing.T) {
	records, _ := scan(t, `
		<form>
			<label for="phone">Phone:</label><input id="phone" type="tel" maxlength="12" placeholder="555-0100">
			<input type="datetime-local" aria-label="Meeting">
			<input type="weird" aria-label="Unknown">
			<input aria-label="Code" pattern="[A-Z]{3,8}">
			<input aria-label="Bad max" maxlength="-4">
			<select multiple aria-label="Colors"><option>Red</option><option></option><option>Blue</option></select>
			<textarea aria-label="Bio" required></textarea>
			<input type="checkbox" aria-label="Terms" aria-required="true">
		</form>`)

	require.Len(t, records, 8)

	phone := records[0]
	assert.Equal(t, "Phone", phone.Label)
	assert.Equal(t, TypePhone, phone.Type)
	assert.Equal(t, 12, phone.MaxLength)
	assert.Equal(t, "555-0100", phone.Placeholder)
	assert.Equal(t, "phone", phone.ID)

	assert.Equal(t, TypeDatetime, records[1].Type)
	assert.Equal(t, TypeText, records[2].Type)
	assert.Equal(t, 8, records[3].MaxLength)
	assert.Equal(t, 0, records[4].MaxLength)
	assert.False(t, records[4].HasMaxLength())

	assert.Equal(t, TypeSelectMultiple, records[5].Type)
	assert.Equal(t, []string{"Red", "Blue"}, records[5].Options)

	assert.Equal(t, TypeTextarea, records[6].Type)
	assert.True(t, records[6].Required)
	assert.True(t, records[7].Required)
	assert.False(t, phone.Required)
}

func TestScan_RequiredFromLabel(t *testing.T) {
	records, _ := scan(t, `
		<label for="a">Email Address *</label><input id="a">
		<label for="b">Company (required)</label><input id="b">
		<label for="c">Nickname</label><input id="c">`)

	require.Len(t, records, 3)
	assert.Equal(t, "Email Address", records[0].Label)
	assert.True(t, records[0].Required)
	assert.True(t, records[1].Required)
	assert.False(t, records[2].Required)
}

func TestScan_RadioOptionsAndGroup(t *testing.T) {
	records, _ := scan(t, `
		<form>
			<fieldset><legend>Gender</legend>
				<label><input type="radio" name="gender" value="m"> Male</label>
				<input type="radio" id="f" name="gender" value="f"><label for="f">Female</label>
				<input type="radio" name="gender" value="x"> Other
				<input type="radio" name="gender" value="none">
			</fieldset>
		</form>
		<input type="radio" name="gender" value="elsewhere">`)

	require.Len(t, records, 5)
	assert.Equal(t, []string{"Male", "Female", "Other", "none"}, records[0].Options)
	assert.Equal(t, "Gender", records[0].Group)
	assert.Equal(t, []string{"elsewhere"}, records[4].Options)
	assert.Equal(t, "Gender", records[4].Group, "radio without legend uses its name")
}

func TestScan_ExtraDenylist(t *testing.T) {
	deny, err := NewDenylist("*honeypot*", "  ")
	require.NoError(t, err)
	records, _ := scan(t, `<input name="HoneyPot_email" aria-label="Trap"><input aria-label="Real">`, WithDenylist(deny))
	assert.Equal(t, []string{"Real"}, labels(records))
	assert.Equal(t, []string{"*honeypot*"}, deny.Patterns())

	_, err = NewDenylist("[unclosed")
	assert.Error(t, err)
}

func TestScan_Dedup(t *testing.T) {
	records, doc := scan(t, `<form><input aria-label="Only"></form>`)
	require.Len(t, records, 1)
	assert.NotNil(t, doc.Element(records[0].Handle))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		in   string
		want FieldType
	}{
		{"tel", TypePhone},
		{"datetime-local", TypeDatetime},
		{"select-one", TypeSelectOne},
		{"textarea", TypeTextarea},
		{"submit", TypeSubmit},
		{"bogus", TypeText},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Classify(tt.in); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
