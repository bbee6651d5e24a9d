package core

import (
	"sort"

	"github.com/domkit-go/domkit/host"
	"github.com/domkit-go/domkit/owner"
)

// delegationIndex holds the global handler table and the two caches derived
// from it (spec §3, §4.2). The global table is authoritative; everything
// else here is a pure memoization that can be dropped and rebuilt (spec §9
// ambiguity resolution).
type delegationIndex struct {
	global map[HandlerID]*handlerRecord
	nextID uint64
	nextSeq uint64

	// elementIndex: node id -> event type -> handler ids bound to that node
	// (direct or delegated registrations), spec §4.2 "Element index".
	elementIndex map[string]map[EventType]map[HandlerID]struct{}

	// windowHandlers holds ids of window-targeted handlers, which never
	// appear in elementIndex (spec §3 invariant).
	windowHandlers map[HandlerID]struct{}

	// typeSelectorIndex: event type -> selector -> handler ids, maintained in
	// sync for diagnostics/rebinding (spec §4.2 "Type-selector index").
	typeSelectorIndex map[EventType]map[string]map[HandlerID]struct{}

	// matchCache: target node id -> selector -> cached closest-match result
	// (spec §3 "Selector Match Cache").
	matchCache map[string]map[string]matchEntry
}

type matchEntry struct {
	matched host.Node
	ok      bool // whether a match was found; false means "no match", not "uncached"
}

func newDelegationIndex() *delegationIndex {
	return &delegationIndex{
		global:            make(map[HandlerID]*handlerRecord),
		elementIndex:      make(map[string]map[EventType]map[HandlerID]struct{}),
		windowHandlers:    make(map[HandlerID]struct{}),
		typeSelectorIndex: make(map[EventType]map[string]map[HandlerID]struct{}),
		matchCache:        make(map[string]map[string]matchEntry),
	}
}

func (idx *delegationIndex) reserveID() HandlerID {
	idx.nextID++
	return HandlerID(idx.nextID)
}

func (idx *delegationIndex) reserveSeq() uint64 {
	idx.nextSeq++
	return idx.nextSeq
}

func (idx *delegationIndex) add(rec *handlerRecord) {
	idx.global[rec.id] = rec

	if rec.windowOwned {
		idx.windowHandlers[rec.id] = struct{}{}
	} else {
		byType, ok := idx.elementIndex[rec.target.ID()]
		if !ok {
			byType = make(map[EventType]map[HandlerID]struct{})
			idx.elementIndex[rec.target.ID()] = byType
		}
		set, ok := byType[rec.eventType]
		if !ok {
			set = make(map[HandlerID]struct{})
			byType[rec.eventType] = set
		}
		set[rec.id] = struct{}{}
	}

	if rec.selector != "" {
		bySelector, ok := idx.typeSelectorIndex[rec.eventType]
		if !ok {
			bySelector = make(map[string]map[HandlerID]struct{})
			idx.typeSelectorIndex[rec.eventType] = bySelector
		}
		set, ok := bySelector[rec.selector]
		if !ok {
			set = make(map[HandlerID]struct{})
			bySelector[rec.selector] = set
		}
		set[rec.id] = struct{}{}
	}
}

// remove deletes id from the global table and every index, returning
// whether it had been present.
func (idx *delegationIndex) remove(id HandlerID) bool {
	rec, ok := idx.global[id]
	if !ok {
		return false
	}
	delete(idx.global, id)

	if rec.windowOwned {
		delete(idx.windowHandlers, id)
	} else if byType, ok := idx.elementIndex[rec.target.ID()]; ok {
		if set, ok := byType[rec.eventType]; ok {
			delete(set, id)
			if len(set) == 0 {
				delete(byType, rec.eventType)
			}
		}
		if len(byType) == 0 {
			delete(idx.elementIndex, rec.target.ID())
		}
	}

	if rec.selector != "" {
		if bySelector, ok := idx.typeSelectorIndex[rec.eventType]; ok {
			if set, ok := bySelector[rec.selector]; ok {
				delete(set, id)
				if len(set) == 0 {
					delete(bySelector, rec.selector)
				}
			}
			if len(bySelector) == 0 {
				delete(idx.typeSelectorIndex, rec.eventType)
			}
		}
	}
	return true
}

// removeByElement removes every handler bound directly to the given node id
// (not including handlers merely matched to it via delegation), returning
// the removed ids.
func (idx *delegationIndex) removeByElement(nodeID string) []HandlerID {
	byType, ok := idx.elementIndex[nodeID]
	if !ok {
		return nil
	}
	var removed []HandlerID
	for _, set := range byType {
		for id := range set {
			removed = append(removed, id)
		}
	}
	for _, id := range removed {
		idx.remove(id)
	}
	delete(idx.matchCache, nodeID)
	return removed
}

// removeByOwner removes every handler tagged with the given owner group.
func (idx *delegationIndex) removeByOwner(group owner.GroupID) []HandlerID {
	if group.IsNil() {
		return nil
	}
	var removed []HandlerID
	for id, rec := range idx.global {
		if rec.ownerGroup == group {
			removed = append(removed, id)
		}
	}
	for _, id := range removed {
		idx.remove(id)
	}
	return removed
}

// handlersAt returns the handlers bound to nodeID for the given type and
// phase, sorted descending by priority with registration order breaking
// ties (spec §4.1 "Ordering contract"). Stale ids (present in an index but
// missing from the global table) are dropped and the index pruned.
func (idx *delegationIndex) handlersAt(nodeID string, t EventType, ph phase) []*handlerRecord {
	byType, ok := idx.elementIndex[nodeID]
	if !ok {
		return nil
	}
	set, ok := byType[t]
	if !ok {
		return nil
	}
	var recs []*handlerRecord
	var stale []HandlerID
	for id := range set {
		rec, ok := idx.global[id]
		if !ok {
			stale = append(stale, id)
			continue
		}
		if rec.phase() != ph {
			continue
		}
		recs = append(recs, rec)
	}
	for _, id := range stale {
		delete(set, id)
	}
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].priority != recs[j].priority {
			return recs[i].priority > recs[j].priority
		}
		return recs[i].seq < recs[j].seq
	})
	return recs
}

// windowHandlersFor returns window-owned handlers for the given type and
// phase, in priority order (spec §4.2: "retrieved by linear scan restricted
// to window-flagged records").
func (idx *delegationIndex) windowHandlersFor(t EventType, ph phase) []*handlerRecord {
	var recs []*handlerRecord
	for id := range idx.windowHandlers {
		rec, ok := idx.global[id]
		if !ok {
			continue
		}
		if rec.eventType != t || rec.phase() != ph {
			continue
		}
		recs = append(recs, rec)
	}
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].priority != recs[j].priority {
			return recs[i].priority > recs[j].priority
		}
		return recs[i].seq < recs[j].seq
	})
	return recs
}

// lookupMatch consults the selector match cache for (targetID, selector).
func (idx *delegationIndex) lookupMatch(targetID, selector string) (matchEntry, bool) {
	bySelector, ok := idx.matchCache[targetID]
	if !ok {
		return matchEntry{}, false
	}
	entry, ok := bySelector[selector]
	return entry, ok
}

func (idx *delegationIndex) storeMatch(targetID, selector string, entry matchEntry) {
	bySelector, ok := idx.matchCache[targetID]
	if !ok {
		bySelector = make(map[string]matchEntry)
		idx.matchCache[targetID] = bySelector
	}
	bySelector[selector] = entry
}

// invalidateMatchCache drops the entire selector match cache (spec §4.4
// "Cache bound enforcement"; it is pure memoization and rebuilds lazily).
func (idx *delegationIndex) invalidateMatchCache() {
	idx.matchCache = make(map[string]map[string]matchEntry)
}

func (idx *delegationIndex) handlerCount() int {
	return len(idx.global)
}

func (idx *delegationIndex) handlerCountForElement(nodeID string) int {
	byType, ok := idx.elementIndex[nodeID]
	if !ok {
		return 0
	}
	count := 0
	for _, set := range byType {
		count += len(set)
	}
	return count
}
