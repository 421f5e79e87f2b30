package inject

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/entrhq/formpilot/pkg/dom"
	"github.com/entrhq/formpilot/pkg/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	doc     *dom.Document
	clock   *dom.ManualClock
	records []scanner.FieldRecord
	writer  *Writer
}

func newFixture(t *testing.T, src string, opts ...WriterOption) *fixture {
	t.Helper()
	clock := dom.NewManualClock(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))
	doc, err := dom.ParseString(src, dom.WithClock(clock))
	require.NoError(t, err)
	return &fixture{
		doc:     doc,
		clock:   clock,
		records: scanner.New().Scan(doc),
		writer:  NewWriter(doc, opts...),
	}
}

func (f *fixture) record(t *testing.T, label string) scanner.FieldRecord {
	t.Helper()
	for _, r := range f.records {
		if r.Label == label {
			return r
		}
	}
	t.Fatalf("no field labelled %q", label)
	return scanner.FieldRecord{}
}

func (f *fixture) el(t *testing.T, label string) *dom.Element {
	t.Helper()
	el := f.doc.Element(f.record(t, label).Handle)
	require.NotNil(t, el)
	return el
}

func (f *fixture) inject(t *testing.T, label, content string) error {
	t.Helper()
	return f.writer.Inject(context.Background(), f.record(t, label), content)
}

func TestInject_TextTruncatesToMaxLength(t *testing.T) {
	f := newFixture(t, `<input aria-label="Code" maxlength="10"><textarea aria-label="Notes" maxlength="4"></textarea>`)

	content := "abcdefghijklmnopqrst"
	require.NoError(t, f.inject(t, "Code", content))
	got := f.el(t, "Code").Value()
	assert.Len(t, got, 10)
	assert.Equal(t, content[:10], got)

	require.NoError(t, f.inject(t, "Notes", "héllo wörld"))
	assert.Equal(t, "héll", f.el(t, "Notes").Value())
}

func TestInject_TextVerbatimWithoutLimit(t *testing.T) {
	f := newFixture(t, `<input type="email" aria-label="Email"><input type="tel" aria-label="Phone">`)
	require.NoError(t, f.inject(t, "Email", " jane@example.com "))
	assert.Equal(t, " jane@example.com ", f.el(t, "Email").Value())
	require.NoError(t, f.inject(t, "Phone", "+44 20 7946 0000"))
	assert.Equal(t, "+44 20 7946 0000", f.el(t, "Phone").Value())
}

func TestInject_Checkbox(t *testing.T) {
	f := newFixture(t, `<input type="checkbox" aria-label="Agree">`)

	tests := []struct {
		answer  string
		checked bool
	}{
		{"Yes", true},
		{"No", false},
		{" AGREE ", true},
		{"1", true},
		{"maybe", false},
		{"on", true},
		{"Yes.", true},
		{"true!", true},
		{"No.", false},
		{"", false},
	}
	for _, tt := range tests {
		require.NoError(t, f.inject(t, "Agree", tt.answer))
		assert.Equal(t, tt.checked, f.el(t, "Agree").Checked(), "answer %q", tt.answer)
	}
}

func TestInject_Date(t *testing.T) {
	f := newFixture(t, `<input type="date" aria-label="Start" value="2020-01-01"><input type="datetime-local" aria-label="Meeting">`)

	require.NoError(t, f.inject(t, "Start", "on 5 March 2024"))
	assert.Equal(t, "2024-03-05", f.el(t, "Start").Value())

	require.NoError(t, f.inject(t, "Meeting", "March 7th, 2024 at 10:00"))
	assert.Equal(t, "2024-03-07", f.el(t, "Meeting").Value())

	err := f.inject(t, "Start", "whenever suits")
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "2024-03-05", f.el(t, "Start").Value(), "failed parse leaves value")
}

func TestInject_NumberRange(t *testing.T) {
	f := newFixture(t, `<input type="number" aria-label="Quantity" min="1" max="100" value="7">`)

	err := f.inject(t, "Quantity", "150 items")
	require.ErrorIs(t, err, ErrOutOfRange)
	assert.Equal(t, "7", f.el(t, "Quantity").Value())

	require.ErrorIs(t, f.inject(t, "Quantity", "0"), ErrOutOfRange)
	require.ErrorAs(t, f.inject(t, "Quantity", "lots"), new(*ParseError))
	assert.Equal(t, "7", f.el(t, "Quantity").Value())

	require.NoError(t, f.inject(t, "Quantity", "about 42 items"))
	assert.Equal(t, "42", f.el(t, "Quantity").Value())
}

func TestInject_NumberLeadingDecimal(t *testing.T) {
	f := newFixture(t, `<input type="number" aria-label="Ratio" min="0" max="1"><input type="number" aria-label="Offset">`)

	require.NoError(t, f.inject(t, "Ratio", ".5"))
	assert.Equal(t, ".5", f.el(t, "Ratio").Value())

	require.NoError(t, f.inject(t, "Offset", "-.25 degrees"))
	assert.Equal(t, "-.25", f.el(t, "Offset").Value())
}

func TestInject_SelectOne(t *testing.T) {
	f := newFixture(t, `
		<select aria-label="Country">
			<option value="">Choose</option>
			<option value="us">United States</option>
			<option value="ca">Canada</option>
		</select>`)

	require.NoError(t, f.inject(t, "Country", "canada"))
	assert.Equal(t, "ca", f.el(t, "Country").Value())

	require.NoError(t, f.inject(t, "Country", "us"))
	assert.Equal(t, "us", f.el(t, "Country").Value())

	require.ErrorIs(t, f.inject(t, "Country", "Mars"), ErrNoOption)
	assert.Equal(t, "us", f.el(t, "Country").Value())
}

func TestInject_SelectExactBeforeSubstring(t *testing.T) {
	f := newFixture(t, `
		<select aria-label="Gender">
			<option value="f">Female</option>
			<option value="m">Male</option>
		</select>
		<select multiple aria-label="Roles">
			<option value="sa">Senior Admin</option>
			<option value="a">Admin</option>
			<option value="u">User</option>
		</select>`)

	require.NoError(t, f.inject(t, "Gender", "Male"))
	assert.Equal(t, "m", f.el(t, "Gender").Value())

	require.NoError(t, f.inject(t, "Gender", "fem"))
	assert.Equal(t, "f", f.el(t, "Gender").Value(), "containment still applies")

	require.NoError(t, f.inject(t, "Roles", "admin, user"))
	selected, err := f.doc.QueryAll("//select[@multiple]/option[@selected]")
	require.NoError(t, err)
	var values []string
	for _, o := range selected {
		values = append(values, o.OptionValue())
	}
	assert.Equal(t, []string{"a", "u"}, values)
}

func TestInject_SelectMultiple(t *testing.T) {
	f := newFixture(t, `
		<select multiple aria-label="Languages">
			<option selected>Go</option>
			<option selected>Rust</option>
			<option>Python</option>
		</select>`)

	require.NoError(t, f.inject(t, "Languages", "python; go"))
	selected, err := f.doc.QueryAll("//option[@selected]")
	require.NoError(t, err)
	var texts []string
	for _, o := range selected {
		texts = append(texts, o.Text())
	}
	assert.Equal(t, []string{"Go", "Python"}, texts)

	require.ErrorIs(t, f.inject(t, "Languages", "COBOL, Fortran"), ErrNoOption)
}

func TestInject_RadioExactBeforeSubstring(t *testing.T) {
	f := newFixture(t, `
		<form>
			<input type="radio" name="gender" value="male" id="m"><label for="m">Male</label>
			<input type="radio" name="gender" value="female" id="fe"><label for="fe">Female</label>
		</form>`)

	require.NoError(t, f.inject(t, "Male", "female"))
	assert.False(t, f.el(t, "Male").Checked())
	assert.True(t, f.el(t, "Female").Checked())

	require.NoError(t, f.inject(t, "Female", "MALE"))
	assert.True(t, f.el(t, "Male").Checked())
	assert.False(t, f.el(t, "Female").Checked())

	require.ErrorIs(t, f.inject(t, "Male", "prefer not to say"), ErrNoOption)
	assert.True(t, f.el(t, "Male").Checked())
}

func TestInject_RadioGroupErrorLeavesGroup(t *testing.T) {
	f := newFixture(t, `
		<form>
			<input type="radio" name="plan" value="basic" aria-label="Basic" checked>
			<input type="radio" name="plan" value="pro" aria-label="Pro">
		</form>`)

	calls := 0
	orig := radioGroup
	radioGroup = func(el *dom.Element) ([]*dom.Element, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("group lookup failed")
		}
		return orig(el)
	}
	t.Cleanup(func() { radioGroup = orig })

	err := f.inject(t, "Basic", "pro")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resolve radio group: group lookup failed")
	assert.True(t, f.el(t, "Basic").Checked())
	assert.False(t, f.el(t, "Pro").Checked())
	assert.Equal(t, 0, f.writer.Session().Len())
}

func TestInject_RadioScopedToForm(t *testing.T) {
	f := newFixture(t, `
		<form><input type="radio" name="plan" value="basic" aria-label="Form basic" checked></form>
		<input type="radio" name="plan" value="basic" aria-label="Loose basic">
		<input type="radio" name="plan" value="pro" aria-label="Loose pro">`)

	require.NoError(t, f.inject(t, "Loose basic", "pro"))
	assert.True(t, f.el(t, "Loose pro").Checked())
	assert.True(t, f.el(t, "Form basic").Checked(), "other form's group untouched")
}

func TestInject_Blocked(t *testing.T) {
	f := newFixture(t, `<input aria-label="Name"><input aria-label="City"><input aria-label="Zip">`)

	f.el(t, "Name").SetAttr("style", "display: none")
	f.el(t, "City").SetAttr("disabled", "")
	f.el(t, "Zip").SetAttr("readonly", "")

	for _, label := range []string{"Name", "City", "Zip"} {
		require.ErrorIs(t, f.inject(t, label, "x"), ErrInteractionBlocked, label)
		assert.Equal(t, "", f.el(t, label).Value())
	}
}

func TestInject_Stale(t *testing.T) {
	f := newFixture(t, `<div><input aria-label="Name"></div>`)
	el := f.el(t, "Name")
	el.Node().Parent.RemoveChild(el.Node())

	require.ErrorIs(t, f.inject(t, "Name", "x"), ErrStale)
}

func TestInject_UnsupportedType(t *testing.T) {
	f := newFixture(t, `<input type="color" aria-label="Colour" value="#000000">`)
	require.ErrorIs(t, f.inject(t, "Colour", "red"), ErrUnsupportedType)
	assert.Equal(t, "#000000", f.el(t, "Colour").Value())
}

func TestInject_FocusesAndSettlesBeforeWriting(t *testing.T) {
	f := newFixture(t, `<input aria-label="Name">`, WithSettleDelay(250*time.Millisecond))
	el := f.el(t, "Name")
	start := f.clock.Now()

	var valueAtFocus string
	el.AddEventListener("focus", func(*dom.Event) { valueAtFocus = el.Value() })

	require.NoError(t, f.inject(t, "Name", "Jane"))
	assert.Equal(t, "", valueAtFocus)
	assert.Equal(t, el.Handle(), f.doc.ActiveElement().Handle())
	assert.Equal(t, 250*time.Millisecond, f.clock.Now().Sub(start))
}

func TestInject_FiresEventSequence(t *testing.T) {
	f := newFixture(t, `<form id="f"><input aria-label="Name"><input aria-label="Other"></form>`)
	var seen []string
	form := f.doc.ByID("f")
	for _, typ := range []string{"input", "change", "blur"} {
		form.AddEventListener(typ, func(ev *dom.Event) { seen = append(seen, ev.Type) })
	}

	require.NoError(t, f.inject(t, "Name", "Jane"))
	assert.Equal(t, []string{"input", "change", "blur", "input"}, seen)

	seen = nil
	f.el(t, "Other").SetAttr("disabled", "")
	require.Error(t, f.inject(t, "Other", "x"))
	assert.Empty(t, seen, "failed writes fire no events")
}

func TestInject_RecoversPanics(t *testing.T) {
	f := newFixture(t, `<input aria-label="Name">`)
	f.el(t, "Name").AddEventListener("focus", func(*dom.Event) { panic("page script exploded") })

	err := f.inject(t, "Name", "Jane")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic")
	assert.Equal(t, "", f.el(t, "Name").Value())
}

func TestInject_ContextCancelled(t *testing.T) {
	f := newFixture(t, `<input aria-label="Name">`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.writer.Inject(ctx, f.record(t, "Name"), "Jane")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "", f.el(t, "Name").Value())
}

func TestInject_HighlightDoesNotStack(t *testing.T) {
	f := newFixture(t, `<input aria-label="Name" style="color: red;"><input aria-label="City">`)
	name := f.el(t, "Name")

	require.NoError(t, f.inject(t, "Name", "Jane"))
	require.NoError(t, f.inject(t, "Name", "Jane"))
	require.NoError(t, f.inject(t, "City", "Paris"))

	assert.Equal(t, 1, strings.Count(name.GetAttr("style"), HighlightStyle))
	assert.True(t, strings.HasPrefix(name.GetAttr("style"), "color: red; "))
	assert.Equal(t, 2, f.writer.Highlighter().Active())
	assert.Equal(t, 2, f.doc.Scheduler().Pending())

	f.clock.Advance(time.Second)
	f.doc.Scheduler().RunDue()
	assert.Equal(t, 2, f.writer.Highlighter().Active(), "still lit before the deadline")

	require.NoError(t, f.doc.Scheduler().Drain(context.Background()))
	assert.Equal(t, "color: red;", name.GetAttr("style"))
	assert.False(t, f.el(t, "City").HasAttr("style"))
	assert.Equal(t, 0, f.writer.Highlighter().Active())
}

func TestInject_WithoutHighlighter(t *testing.T) {
	f := newFixture(t, `<input aria-label="Name">`, WithHighlighter(nil))
	require.NoError(t, f.inject(t, "Name", "Jane"))
	assert.False(t, f.el(t, "Name").HasAttr("style"))
	assert.Equal(t, 0, f.doc.Scheduler().Pending())
}
