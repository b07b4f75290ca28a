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
Package privilege holds the static catalogue of privileges maitred knows
about. Privileges are atomic named permissions like "Resource.Modify", each
scoped to the namespace of the object tree where it's meaningful. The
catalogue is assembled once at process start from the definitions in this
package and never changes afterwards; ACL entries and roles referencing a
privilege that isn't here must be rejected when they're loaded, not at
evaluation time, so a typo can't turn into a silent no-op.

A privilege may be declared as a superset of more specific privileges (e.g.
Resource.Modify covers Resource.Guest.Modify). The coverage relation is
expanded into a precomputed table at init, so evaluation never does string
matching to answer "does privilege A satisfy a check for B".
*/
package privilege

import (
	"sort"

	"github.com/cmorbern/maitred/objpath"
	"github.com/cmorbern/maitred/util"
)

// Privilege is an atomic named permission, valid under a particular
// namespace of the object hierarchy.
type Privilege struct {
	Name      string
	Namespace objpath.ObjectPath
	covers    map[string]bool
}

var registry = buildRegistry()

func buildRegistry() map[string]*Privilege {
	reg := make(map[string]*Privilege, len(privilegeDefs))
	for _, d := range privilegeDefs {
		reg[d.name] = &Privilege{
			Name:      d.name,
			Namespace: objpath.ObjectPath(d.namespace),
			covers:    map[string]bool{d.name: true},
		}
	}
	// Expand the declared superset relations into a transitive closure.
	// The catalogue is tiny, so looping until the expansion settles is
	// fine.
	for changed := true; changed; {
		changed = false
		for _, d := range privilegeDefs {
			p := reg[d.name]
			for _, sub := range d.covers {
				if _, ok := reg[sub]; !ok {
					// a definitions bug, not runtime input
					panic("privilege " + d.name + " declared a superset of unknown privilege " + sub)
				}
				for covered := range reg[sub].covers {
					if !p.covers[covered] {
						p.covers[covered] = true
						changed = true
					}
				}
			}
		}
	}
	return reg
}

// Lookup returns the named privilege, or an UnknownPrivilege error if no
// such privilege is defined.
func Lookup(name string) (*Privilege, util.Gerror) {
	p, ok := registry[name]
	if !ok {
		return nil, util.NotFoundError("unknown privilege '%s'", name)
	}
	return p, nil
}

// Exists reports whether the named privilege is defined.
func Exists(name string) bool {
	_, ok := registry[name]
	return ok
}

// Covers reports whether holding p satisfies a check for the named
// privilege, either because it is that privilege or because p is a declared
// superset of it.
func (p *Privilege) Covers(name string) bool {
	return p.covers[name]
}

// Covered returns the names of every privilege p satisfies, itself
// included, sorted.
func (p *Privilege) Covered() []string {
	names := make([]string, 0, len(p.covers))
	for n := range p.covers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// All returns every defined privilege, sorted by name.
func All() []*Privilege {
	privs := make([]*Privilege, 0, len(registry))
	for _, p := range registry {
		privs = append(privs, p)
	}
	sort.Slice(privs, func(i, j int) bool { return privs[i].Name < privs[j].Name })
	return privs
}

// Names returns the names of every defined privilege, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
