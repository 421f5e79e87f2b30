package inject

import (
	"context"
	"testing"

	"github.com/entrhq/formpilot/pkg/dom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rollbackForm = `
	<form>
		<input aria-label="Name" value="orig">
		<input aria-label="Nickname">
		<input type="checkbox" aria-label="Agree">
		<select aria-label="Size"><option>S</option><option selected>M</option><option>L</option></select>
		<textarea aria-label="Bio">old</textarea>
		<input type="radio" name="plan" value="basic" aria-label="Basic" checked><input type="radio" name="plan" value="pro" aria-label="Pro">
	</form>`

func TestSession_RecordsInWriteOrder(t *testing.T) {
	f := newFixture(t, rollbackForm)
	require.NoError(t, f.inject(t, "Bio", "new"))
	require.NoError(t, f.inject(t, "Name", "first"))
	require.NoError(t, f.inject(t, "Bio", "newer"))

	s := f.writer.Session()
	require.Equal(t, 2, s.Len())
	entries := s.Entries()
	assert.Equal(t, "Bio", entries[0].Label)
	assert.Equal(t, "Name", entries[1].Label)

	v, ok := s.Value(f.record(t, "Bio").Handle)
	require.True(t, ok)
	assert.Equal(t, TextValue{Text: "newer"}, v)
	assert.NotEmpty(t, s.ID)
}

func TestSession_RollbackRestoresOriginalState(t *testing.T) {
	f := newFixture(t, rollbackForm)
	writes := map[string]string{
		"Name":     "Jane",
		"Nickname": "JJ",
		"Agree":    "yes",
		"Size":     "L",
		"Bio":      "Hello there",
		"Basic":    "pro",
	}
	for label, content := range writes {
		require.NoError(t, f.inject(t, label, content), label)
	}
	require.True(t, f.el(t, "Pro").Checked())
	require.Equal(t, "L", f.el(t, "Size").Value())

	var changes int
	f.doc.AddEventListener(f.doc.Handle(), "change", func(*dom.Event) { changes++ })

	restored, err := f.writer.Session().Rollback(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(writes), restored)
	assert.Equal(t, len(writes), changes)

	assert.Equal(t, "orig", f.el(t, "Name").Value())
	assert.False(t, f.el(t, "Nickname").HasAttr("value"))
	assert.False(t, f.el(t, "Agree").Checked())
	assert.Equal(t, "M", f.el(t, "Size").Value())
	assert.Equal(t, "old", f.el(t, "Bio").Value())
	assert.True(t, f.el(t, "Basic").Checked())
	assert.False(t, f.el(t, "Pro").Checked())
	assert.Equal(t, 0, f.writer.Session().Len())
}

func TestSession_RollbackSkipsDetached(t *testing.T) {
	f := newFixture(t, `<div><input aria-label="Gone"></div><input aria-label="Kept" value="k">`)
	require.NoError(t, f.inject(t, "Gone", "x"))
	require.NoError(t, f.inject(t, "Kept", "y"))

	gone := f.el(t, "Gone")
	gone.Node().Parent.RemoveChild(gone.Node())

	restored, err := f.writer.Session().Rollback(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, restored)
	assert.Equal(t, "k", f.el(t, "Kept").Value())
}

func TestSession_Reset(t *testing.T) {
	f := newFixture(t, rollbackForm)
	require.NoError(t, f.inject(t, "Name", "Jane"))

	f.writer.Session().Reset()
	assert.Equal(t, 0, f.writer.Session().Len())

	restored, err := f.writer.Session().Rollback(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, restored)
	assert.Equal(t, "Jane", f.el(t, "Name").Value(), "reset does not touch the document")
}
