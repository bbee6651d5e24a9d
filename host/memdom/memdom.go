// Package memdom is a deterministic, in-memory implementation of the
// host.Document/host.Node contract. It exists so the event dispatcher and
// memory governor can be driven and tested without a real browser, and so an
// embedder with no DOM at all (a headless worker, a test harness) has a
// usable host out of the box.
//
// It is intentionally small: a CSS selector subset (tag, #id, .class, the
// child ">" and descendant combinators) is enough to exercise delegation
// (spec §4.1 point 4) without pulling in a full CSS engine.
package memdom

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/domkit-go/domkit/host"
)

var nextID uint64

func freshID(prefix string) string {
	n := atomic.AddUint64(&nextID, 1)
	return fmt.Sprintf("%s-%d", prefix, n)
}

// Element is an in-memory stand-in for a DOM element.
type Element struct {
	id       string
	tag      string
	attrs    map[string]string
	classes  map[string]struct{}
	parent   host.Node
	children []*Element
	doc      *Document

	mu        sync.Mutex
	connected bool
}

// NewElement creates a detached element with the given tag name. Attach it
// to a parent with AppendChild to make it connected.
func NewElement(tag string) *Element {
	return &Element{
		id:      freshID("el"),
		tag:     tag,
		attrs:   make(map[string]string),
		classes: make(map[string]struct{}),
	}
}

func (e *Element) ID() string        { return e.id }
func (e *Element) Kind() host.Kind    { return host.KindElement }
func (e *Element) Parent() host.Node {
	if e.parent == nil {
		return nil
	}
	return e.parent
}

// IsConnected reports whether this element is reachable from a Document via
// parent links. This is the DOM-presence check the detach sweep uses (spec
// §4.4).
func (e *Element) IsConnected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.connected
}

// SetID sets the element's "id" attribute, used by "#foo" selectors.
func (e *Element) SetID(id string) *Element {
	e.attrs["id"] = id
	return e
}

// AddClass adds a CSS class, used by ".foo" selectors.
func (e *Element) AddClass(class string) *Element {
	e.classes[class] = struct{}{}
	return e
}

// SetAttr sets an arbitrary attribute.
func (e *Element) SetAttr(key, value string) *Element {
	e.attrs[key] = value
	return e
}

// AppendChild attaches child as the last child of e. If e is connected (or
// is itself the document), child's subtree becomes connected too.
func (e *Element) AppendChild(child *Element) {
	child.detachFromCurrentParent()
	child.parent = e
	e.children = append(e.children, child)
	child.doc = e.doc
	if e.isConnectedRoot() {
		child.markConnected(true, e.doc)
	}
}

// Remove detaches e (and its subtree) from its parent. If e was connected,
// the owning Document is notified of the removed subtree root.
func (e *Element) Remove() {
	parent := e.parent
	if parent == nil {
		return
	}
	wasConnected := e.IsConnected()
	owningDoc := e.doc
	switch p := parent.(type) {
	case *Element:
		p.removeChild(e)
	case *Document:
		p.removeChild(e)
	}
	e.parent = nil
	e.markConnected(false, nil)
	if wasConnected && owningDoc != nil {
		owningDoc.notifyRemoved(e)
	}
}

func (e *Element) detachFromCurrentParent() {
	if e.parent == nil {
		return
	}
	switch p := e.parent.(type) {
	case *Element:
		p.removeChild(e)
	case *Document:
		p.removeChild(e)
	}
	e.parent = nil
}

func (e *Element) removeChild(child *Element) {
	for i, c := range e.children {
		if c == child {
			e.children = append(e.children[:i], e.children[i+1:]...)
			return
		}
	}
}

func (e *Element) isConnectedRoot() bool {
	return e.IsConnected()
}

func (e *Element) markConnected(connected bool, doc *Document) {
	e.mu.Lock()
	e.connected = connected
	e.mu.Unlock()
	e.doc = doc
	for _, c := range e.children {
		c.markConnected(connected, doc)
	}
}

// Matches implements a small selector subset: a sequence of compound
// selectors separated by ">" (direct child) or whitespace (descendant), each
// compound selector being an optional tag name followed by any number of
// "#id" and ".class" parts. Matching walks ancestors from e outward,
// consuming compound selectors right to left — the same algorithm real CSS
// engines use for closest()-style lookups.
func (e *Element) Matches(selector string) (bool, error) {
	compounds, combinators, err := parseSelector(selector)
	if err != nil {
		return false, err
	}
	return matchChain(e, compounds, combinators), nil
}

type compoundSelector struct {
	tag     string
	id      string
	classes []string
}

// parseSelector splits "div.row > button#go" into compound selectors and
// the combinators between them (index i is the combinator between compound
// i and compound i+1; combinators[i] is ">" or " ").
func parseSelector(selector string) ([]compoundSelector, []byte, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return nil, nil, fmt.Errorf("memdom: empty selector")
	}
	var tokens []string
	var combinators []byte
	fields := strings.Fields(selector)
	pending := ""
	for _, f := range fields {
		if f == ">" {
			if pending == "" {
				return nil, nil, fmt.Errorf("memdom: invalid selector %q: dangling combinator", selector)
			}
			tokens = append(tokens, pending)
			combinators = append(combinators, '>')
			pending = ""
			continue
		}
		if strings.HasSuffix(f, ">") {
			tokens = append(tokens, strings.TrimSuffix(f, ">"))
			combinators = append(combinators, '>')
			continue
		}
		if pending != "" {
			tokens = append(tokens, pending)
			combinators = append(combinators, ' ')
		}
		pending = f
	}
	if pending != "" {
		tokens = append(tokens, pending)
	}
	if len(tokens) == 0 {
		return nil, nil, fmt.Errorf("memdom: invalid selector %q", selector)
	}

	compounds := make([]compoundSelector, 0, len(tokens))
	for _, tok := range tokens {
		cs, err := parseCompound(tok)
		if err != nil {
			return nil, nil, err
		}
		compounds = append(compounds, cs)
	}
	return compounds, combinators, nil
}

func parseCompound(tok string) (compoundSelector, error) {
	var cs compoundSelector
	i := 0
	for i < len(tok) && tok[i] != '#' && tok[i] != '.' {
		i++
	}
	cs.tag = tok[:i]
	for i < len(tok) {
		switch tok[i] {
		case '#':
			j := i + 1
			for j < len(tok) && tok[j] != '.' && tok[j] != '#' {
				j++
			}
			if j == i+1 {
				return cs, fmt.Errorf("memdom: invalid selector fragment %q", tok)
			}
			cs.id = tok[i+1 : j]
			i = j
		case '.':
			j := i + 1
			for j < len(tok) && tok[j] != '.' && tok[j] != '#' {
				j++
			}
			if j == i+1 {
				return cs, fmt.Errorf("memdom: invalid selector fragment %q", tok)
			}
			cs.classes = append(cs.classes, tok[i+1:j])
			i = j
		default:
			return cs, fmt.Errorf("memdom: invalid selector fragment %q", tok)
		}
	}
	return cs, nil
}

func (cs compoundSelector) matchesElement(e *Element) bool {
	if cs.tag != "" && cs.tag != "*" && !strings.EqualFold(cs.tag, e.tag) {
		return false
	}
	if cs.id != "" && e.attrs["id"] != cs.id {
		return false
	}
	for _, c := range cs.classes {
		if _, ok := e.classes[c]; !ok {
			return false
		}
	}
	return true
}

// matchChain matches the rightmost compound against e, then walks ancestors
// to satisfy remaining compounds in order, honoring ">" as "must be the
// immediate parent" and " " as "must be some ancestor".
func matchChain(e *Element, compounds []compoundSelector, combinators []byte) bool {
	last := len(compounds) - 1
	if !compounds[last].matchesElement(e) {
		return false
	}
	cursor := e.Parent()
	for i := last - 1; i >= 0; i-- {
		combinator := combinators[i]
		if combinator == '>' {
			el, ok := cursor.(*Element)
			if !ok || !compounds[i].matchesElement(el) {
				return false
			}
			cursor = el.Parent()
			continue
		}
		found := false
		for cursor != nil {
			el, ok := cursor.(*Element)
			if !ok {
				break
			}
			if compounds[i].matchesElement(el) {
				found = true
				cursor = el.Parent()
				break
			}
			cursor = el.Parent()
		}
		if !found {
			return false
		}
	}
	return true
}

// Document is the root of a memdom tree and the host.Document implementation.
type Document struct {
	Element
	observersMu sync.Mutex
	observers   map[int]func(host.MutationRecord)
	nextObsID   int
}

// NewDocument creates a connected, empty document root.
func NewDocument() *Document {
	d := &Document{
		Element: Element{
			id:      "document",
			tag:     "#document",
			attrs:   make(map[string]string),
			classes: make(map[string]struct{}),
		},
		observers: make(map[int]func(host.MutationRecord)),
	}
	d.Element.connected = true
	d.Element.doc = d
	return d
}

func (d *Document) Kind() host.Kind { return host.KindDocument }
func (d *Document) Parent() host.Node { return nil }
func (d *Document) IsConnected() bool { return true }

// AppendChild attaches child directly under the document root. child.Parent
// afterward returns d itself (not the embedded Element), so a propagation
// path walked via Parent() terminates at the same value callers compare
// against when building a dispatch path.
func (d *Document) AppendChild(child *Element) {
	child.detachFromCurrentParent()
	child.parent = d
	d.children = append(d.children, child)
	child.doc = d
	child.markConnected(true, d)
}

func (d *Document) removeChild(child *Element) {
	d.Element.removeChild(child)
}

// Observe registers a mutation callback, invoked once per Remove() call on a
// connected subtree root reachable from this document (spec §4.4).
func (d *Document) Observe(cb func(host.MutationRecord)) (cancel func()) {
	d.observersMu.Lock()
	id := d.nextObsID
	d.nextObsID++
	d.observers[id] = cb
	d.observersMu.Unlock()

	return func() {
		d.observersMu.Lock()
		delete(d.observers, id)
		d.observersMu.Unlock()
	}
}

func (d *Document) notifyRemoved(root *Element) {
	d.observersMu.Lock()
	cbs := make([]func(host.MutationRecord), 0, len(d.observers))
	for _, cb := range d.observers {
		cbs = append(cbs, cb)
	}
	d.observersMu.Unlock()

	rec := host.MutationRecord{RemovedRoots: []host.Node{root}}
	for _, cb := range cbs {
		cb(rec)
	}
}

// Window is a singleton stand-in for the browser window object. It has no
// parent and is never reached by walking Parent() chains — the dispatcher
// appends it explicitly at the end of every connected target's propagation
// path (spec §4.1 point 1); a detached target's path does not include it.
type Window struct{}

func (Window) ID() string             { return "window" }
func (Window) Kind() host.Kind         { return host.KindWindow }
func (Window) Parent() host.Node       { return nil }
func (Window) IsConnected() bool       { return true }
func (Window) Matches(string) (bool, error) { return false, nil }
