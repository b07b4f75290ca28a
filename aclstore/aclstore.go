/*
 * Copyright (c) 2024-2026, Casey Morbern (<casey@maitred.dev>)
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package aclstore holds the authoritative mapping from object paths to ACL
entries. An entry grants a role to a subject at a path, with a propagate
flag saying whether the grant flows down to descendant paths.

The store is an exact-match index: fetching the entries at one path is a
single map probe, and the evaluator walks the (short) ancestor chain of the
path being checked rather than ever scanning the whole table. The entry
slice for a path is never modified in place - mutations build a fresh slice
and swap it in - so a reader holding a slice from EntriesAt always sees
either the pre- or post-mutation state, never a torn entry.

Access control on mutations is NOT enforced here; the store trusts its
caller. The authz facade is the only component that may call Insert and
Remove, and it checks Access.Modify (and the lockout guard) first.
*/
package aclstore

import (
	"sort"
	"sync"

	"github.com/cmorbern/maitred/objpath"
	"github.com/cmorbern/maitred/role"
	"github.com/cmorbern/maitred/util"
	"github.com/tideland/golib/logger"
)

// Entry is a single ACL entry: a role granted to a subject at a path. A
// subject starting with "@" names a group.
type Entry struct {
	Path      objpath.ObjectPath
	Subject   string
	Role      string
	Propagate bool
}

// NewEntry validates and assembles an ACL entry. The path must normalize,
// the subject must be well formed, and the role must be defined.
func NewEntry(rawPath string, subject string, roleName string, propagate bool) (*Entry, util.Gerror) {
	p, err := objpath.Normalize(rawPath)
	if err != nil {
		return nil, err
	}
	if !util.ValidateSubjectName(subject) {
		return nil, util.Errorf("invalid subject '%s'", subject)
	}
	if !role.Exists(roleName) {
		return nil, util.NotFoundError("unknown role '%s'", roleName)
	}
	e := &Entry{Path: p, Subject: subject, Role: roleName, Propagate: propagate}
	return e, nil
}

// Key identifies an entry by path, subject and role. Propagate is an
// attribute of the grant, not part of its identity; re-inserting an entry
// with a different propagate flag updates the existing grant.
func (e *Entry) Key() string {
	return util.JoinStr(e.Path.String(), "##", e.Subject, "##", e.Role)
}

func (e *Entry) String() string {
	prop := "propagate"
	if !e.Propagate {
		prop = "no-propagate"
	}
	return util.JoinStr(e.Path.String(), " ", e.Subject, " ", e.Role, " ", prop)
}

// Store maps object paths to their ACL entries.
type Store struct {
	entries map[objpath.ObjectPath][]*Entry
	persist Persister
	m       sync.RWMutex
}

var defaultStore = NewStore()

// Default returns the process-wide ACL store.
func Default() *Store {
	return defaultStore
}

// NewStore creates an empty ACL store with no persistence attached.
func NewStore() *Store {
	return &Store{entries: make(map[objpath.ObjectPath][]*Entry)}
}

// SetPersister attaches the persistence collaborator notified on every
// mutation. Call it before Load, and before any mutations.
func (s *Store) SetPersister(p Persister) {
	s.m.Lock()
	defer s.m.Unlock()
	s.persist = p
}

// Load populates the store from the attached persister. An entry
// referencing a role that is no longer defined is skipped with a logged
// warning rather than failing the whole load; an unreadable backend is an
// error.
func (s *Store) Load() error {
	s.m.Lock()
	defer s.m.Unlock()
	if s.persist == nil {
		return nil
	}
	stored, err := s.persist.LoadAll()
	if err != nil {
		return err
	}
	fresh := make(map[objpath.ObjectPath][]*Entry)
	for _, e := range stored {
		if _, perr := objpath.Normalize(e.Path.String()); perr != nil {
			logger.Warningf("skipping stored ACL entry with bad path '%s'", e.Path)
			continue
		}
		if !role.Exists(e.Role) {
			logger.Warningf("skipping stored ACL entry %s: unknown role '%s'", e.Key(), e.Role)
			continue
		}
		fresh[e.Path] = append(fresh[e.Path], e)
	}
	s.entries = fresh
	return nil
}

// EntriesAt returns the entries attached to exactly this path. Descendant
// and ancestor paths do not figure into it. The returned slice must not be
// modified.
func (s *Store) EntriesAt(p objpath.ObjectPath) []*Entry {
	s.m.RLock()
	defer s.m.RUnlock()
	return s.entries[p]
}

// Insert adds an entry to the store, replacing an existing grant for the
// same (path, subject, role) if the propagate flag changed. The persister
// is given the change first; if the durable write fails, the in-memory
// state is left untouched and the error is surfaced.
func (s *Store) Insert(e *Entry) util.Gerror {
	s.m.Lock()
	defer s.m.Unlock()
	cur := s.entries[e.Path]
	for _, existing := range cur {
		if existing.Key() == e.Key() {
			if existing.Propagate == e.Propagate {
				// nothing to do
				return nil
			}
			break
		}
	}
	if s.persist != nil {
		if perr := s.persist.OnChange(e, OpInsert); perr != nil {
			return util.PersistenceError(perr)
		}
	}
	fresh := make([]*Entry, 0, len(cur)+1)
	for _, existing := range cur {
		if existing.Key() != e.Key() {
			fresh = append(fresh, existing)
		}
	}
	fresh = append(fresh, e)
	s.entries[e.Path] = fresh
	return nil
}

// Remove deletes the grant matching the entry's (path, subject, role). The
// propagate flag is not consulted. As with Insert, the durable write
// happens first and a failure leaves memory untouched.
func (s *Store) Remove(e *Entry) util.Gerror {
	s.m.Lock()
	defer s.m.Unlock()
	cur := s.entries[e.Path]
	found := false
	for _, existing := range cur {
		if existing.Key() == e.Key() {
			found = true
			break
		}
	}
	if !found {
		return util.NotFoundError("no ACL entry %s", e.Key())
	}
	if s.persist != nil {
		if perr := s.persist.OnChange(e, OpRemove); perr != nil {
			return util.PersistenceError(perr)
		}
	}
	fresh := make([]*Entry, 0, len(cur)-1)
	for _, existing := range cur {
		if existing.Key() != e.Key() {
			fresh = append(fresh, existing)
		}
	}
	if len(fresh) == 0 {
		delete(s.entries, e.Path)
	} else {
		s.entries[e.Path] = fresh
	}
	return nil
}

// AllEntries returns every entry in the store, ordered by path, subject and
// role.
func (s *Store) AllEntries() []*Entry {
	s.m.RLock()
	defer s.m.RUnlock()
	var all []*Entry
	for _, ents := range s.entries {
		all = append(all, ents...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Key() < all[j].Key() })
	return all
}

// EntriesForSubject returns every entry granted directly to the given
// subject, ordered by path.
func (s *Store) EntriesForSubject(subject string) []*Entry {
	var matched []*Entry
	for _, e := range s.AllEntries() {
		if e.Subject == subject {
			matched = append(matched, e)
		}
	}
	return matched
}

// Subtree returns the entries at the given path and every descendant of it.
func (s *Store) Subtree(p objpath.ObjectPath) []*Entry {
	var matched []*Entry
	for _, e := range s.AllEntries() {
		if e.Path == p || p.IsAncestorOf(e.Path) {
			matched = append(matched, e)
		}
	}
	return matched
}

// Count returns the number of entries in the store.
func (s *Store) Count() int {
	s.m.RLock()
	defer s.m.RUnlock()
	c := 0
	for _, ents := range s.entries {
		c += len(ents)
	}
	return c
}
