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

package authz

import (
	"sort"
	"strings"
	"time"

	"github.com/cmorbern/maitred/aclstore"
	"github.com/cmorbern/maitred/objpath"
	"github.com/cmorbern/maitred/privilege"
	"github.com/cmorbern/maitred/role"
	"github.com/cmorbern/maitred/util"
)

/* The evaluator proper. A check walks the ancestor chain of the path from
 * the root down to the path itself. At each level it collects the entries
 * that apply: the subject must match (directly, or through a group the
 * subject belongs to), and an entry marked no-propagate only applies at the
 * path itself, never at an ancestor. The DEEPEST level with at least one
 * applicable entry decides the outcome; everything above it is shadowed.
 * Within that level all applicable entries pool their roles' privileges.
 * No applicable entry on the whole chain means denial. */

func (a *Authorizer) evaluate(subject string, p objpath.ObjectPath, privName string) bool {
	start := time.Now()
	decided := false
	allowed := false
	for _, level := range p.Ancestors() {
		matched := false
		levelAllows := false
		for _, e := range a.store.EntriesAt(level) {
			if level != p && !e.Propagate {
				continue
			}
			if !a.subjectMatches(subject, e.Subject) {
				continue
			}
			r, err := role.Lookup(e.Role)
			if err != nil {
				continue
			}
			matched = true
			if r.Grants(privName) {
				levelAllows = true
			}
		}
		if matched {
			decided = true
			allowed = levelAllows
		}
	}
	trackCheck(start, decided && allowed)
	return decided && allowed
}

func (a *Authorizer) subjectMatches(subject string, entrySubject string) bool {
	if entrySubject == subject {
		return true
	}
	if strings.HasPrefix(entrySubject, "@") && a.groups != nil {
		return a.groups.IsMember(subject, entrySubject[1:])
	}
	return false
}

// PrivilegesAt returns the subject's full effective privilege set at the
// given path, sorted. Useful for inspection; checks should use Check, which
// can answer from the decision cache.
func (a *Authorizer) PrivilegesAt(subject string, rawPath string) ([]string, util.Gerror) {
	p, err := objpath.Normalize(rawPath)
	if err != nil {
		return nil, err
	}
	var effective map[string]bool
	for _, level := range p.Ancestors() {
		var levelSet map[string]bool
		for _, e := range a.store.EntriesAt(level) {
			if level != p && !e.Propagate {
				continue
			}
			if !a.subjectMatches(subject, e.Subject) {
				continue
			}
			r, rerr := role.Lookup(e.Role)
			if rerr != nil {
				continue
			}
			if levelSet == nil {
				levelSet = make(map[string]bool)
			}
			for _, pn := range privilege.Names() {
				if r.Grants(pn) {
					levelSet[pn] = true
				}
			}
		}
		if levelSet != nil {
			effective = levelSet
		}
	}
	privs := make([]string, 0, len(effective))
	for pn := range effective {
		privs = append(privs, pn)
	}
	sort.Strings(privs)
	return privs, nil
}

// EntriesAffecting returns the ACL entries that figure into checks at the
// given path for any subject: everything on the ancestor chain, minus
// no-propagate entries at ancestors.
func (a *Authorizer) EntriesAffecting(rawPath string) ([]*aclstore.Entry, util.Gerror) {
	p, err := objpath.Normalize(rawPath)
	if err != nil {
		return nil, err
	}
	var ents []*aclstore.Entry
	for _, level := range p.Ancestors() {
		for _, e := range a.store.EntriesAt(level) {
			if level != p && !e.Propagate {
				continue
			}
			ents = append(ents, e)
		}
	}
	return ents, nil
}
