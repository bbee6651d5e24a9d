package memdom_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domkit-go/domkit/host"
	"github.com/domkit-go/domkit/host/memdom"
)

func TestSelectorTagIDClass(t *testing.T) {
	doc := memdom.NewDocument()
	row := memdom.NewElement("div")
	row.AddClass("row")
	doc.AppendChild(row)
	btn := memdom.NewElement("button")
	btn.SetID("go")
	btn.AddClass("primary")
	row.AppendChild(btn)

	ok, err := btn.Matches("button#go.primary")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = btn.Matches("a#go")
	require.NoError(t, err)
	assert.False(t, ok, "tag mismatch must not match")

	ok, err = btn.Matches(".row")
	require.NoError(t, err)
	assert.False(t, ok, "the button itself has no 'row' class")
}

func TestSelectorChildAndDescendantCombinators(t *testing.T) {
	doc := memdom.NewDocument()
	section := memdom.NewElement("section")
	doc.AppendChild(section)
	row := memdom.NewElement("div")
	row.AddClass("row")
	section.AppendChild(row)
	btn := memdom.NewElement("button")
	row.AppendChild(btn)

	ok, err := btn.Matches(".row > button")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = btn.Matches("section > button")
	require.NoError(t, err)
	assert.False(t, ok, "button's immediate parent is .row, not section")

	ok, err = btn.Matches("section button")
	require.NoError(t, err)
	assert.True(t, ok, "descendant combinator matches any ancestor depth")
}

func TestSelectorSyntaxErrorIsReported(t *testing.T) {
	el := memdom.NewElement("div")
	_, err := el.Matches("")
	assert.Error(t, err)

	_, err = el.Matches(">")
	assert.Error(t, err)
}

func TestAppendChildReparentsAndMarksConnected(t *testing.T) {
	doc := memdom.NewDocument()
	a := memdom.NewElement("div")
	b := memdom.NewElement("div")

	assert.False(t, a.IsConnected())
	a.AppendChild(b)
	assert.False(t, b.IsConnected(), "a itself is still detached")

	doc.AppendChild(a)
	assert.True(t, a.IsConnected())
	assert.True(t, b.IsConnected(), "connecting a must propagate to its subtree")

	other := memdom.NewElement("div")
	doc.AppendChild(other)
	other.AppendChild(b)
	assert.True(t, b.IsConnected())
	assert.Equal(t, host.Node(other), b.Parent(), "reparenting must move b out of a's subtree")
}

func TestRemoveDisconnectsAndNotifiesDocumentObserver(t *testing.T) {
	doc := memdom.NewDocument()
	row := memdom.NewElement("div")
	doc.AppendChild(row)
	btn := memdom.NewElement("button")
	row.AppendChild(btn)

	var notified bool
	var removedRoot host.Node
	cancel := doc.Observe(func(rec host.MutationRecord) {
		notified = true
		if len(rec.RemovedRoots) > 0 {
			removedRoot = rec.RemovedRoots[0]
		}
	})
	defer cancel()

	row.Remove()
	assert.True(t, notified)
	assert.Equal(t, host.Node(row), removedRoot)
	assert.False(t, row.IsConnected())
	assert.False(t, btn.IsConnected(), "removing a subtree root disconnects its descendants too")
}

func TestWindowHasNoParentAndNeverMatches(t *testing.T) {
	win := memdom.Window{}
	assert.Nil(t, win.Parent())
	assert.True(t, win.IsConnected())
	assert.Equal(t, host.KindWindow, win.Kind())
	ok, err := win.Matches("button")
	require.NoError(t, err)
	assert.False(t, ok)
}
