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
Package role holds the catalogue of roles, each a named immutable set of
privileges. The builtin roles are defined here; additional roles may be
added from the configuration file at startup with LoadCustom, before any
evaluation starts. Roles are flat - a role never references another role.

ACL entries grant roles, not bare privileges, so the evaluator expands an
entry's role through this package on every check. Each role precomputes the
full set of privilege names it satisfies (supersets included), which keeps
that expansion a map probe.
*/
package role

import (
	"sort"
	"sync"

	"github.com/cmorbern/maitred/privilege"
	"github.com/cmorbern/maitred/util"
)

// Role is a named, immutable set of privileges.
type Role struct {
	Name       string
	Builtin    bool
	privileges []string
	grants     map[string]bool
}

var registry = make(map[string]*Role)
var m sync.RWMutex

func init() {
	for name, privs := range builtinRoleDefs() {
		r, err := newRole(name, privs, true)
		if err != nil {
			// builtin definitions referencing unknown privileges
			// are a bug in this package, not bad input
			panic(err.Error())
		}
		registry[name] = r
	}
}

func newRole(name string, privNames []string, builtin bool) (*Role, util.Gerror) {
	if !util.ValidateName(name) {
		return nil, util.Errorf("invalid role name '%s'", name)
	}
	r := &Role{
		Name:       name,
		Builtin:    builtin,
		privileges: make([]string, 0, len(privNames)),
		grants:     make(map[string]bool),
	}
	seen := make(map[string]bool)
	for _, pn := range privNames {
		p, err := privilege.Lookup(pn)
		if err != nil {
			return nil, util.Errorf("role '%s' references unknown privilege '%s'", name, pn)
		}
		if seen[pn] {
			continue
		}
		seen[pn] = true
		r.privileges = append(r.privileges, pn)
		for _, covered := range p.Covered() {
			r.grants[covered] = true
		}
	}
	sort.Strings(r.privileges)
	return r, nil
}

// Lookup returns the named role, or an UnknownRole error if no such role is
// defined.
func Lookup(name string) (*Role, util.Gerror) {
	m.RLock()
	defer m.RUnlock()
	r, ok := registry[name]
	if !ok {
		return nil, util.NotFoundError("unknown role '%s'", name)
	}
	return r, nil
}

// Exists reports whether the named role is defined.
func Exists(name string) bool {
	m.RLock()
	defer m.RUnlock()
	_, ok := registry[name]
	return ok
}

// Grants reports whether this role satisfies a check for the named
// privilege, directly or through a superset privilege it holds.
func (r *Role) Grants(privName string) bool {
	return r.grants[privName]
}

// Privileges returns the names of the privileges the role was defined with,
// sorted. Privileges only reachable through a superset are not listed.
func (r *Role) Privileges() []string {
	privs := make([]string, len(r.privileges))
	copy(privs, r.privileges)
	return privs
}

// All returns every defined role, sorted by name.
func All() []*Role {
	m.RLock()
	defer m.RUnlock()
	roles := make([]*Role, 0, len(registry))
	for _, r := range registry {
		roles = append(roles, r)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i].Name < roles[j].Name })
	return roles
}

// LoadCustom adds roles defined in the configuration file to the catalogue.
// It must run at startup, before evaluation begins. A definition referencing
// an unknown privilege fails the whole load; builtin roles cannot be
// redefined.
func LoadCustom(defs map[string][]string) util.Gerror {
	m.Lock()
	defer m.Unlock()
	pending := make(map[string]*Role, len(defs))
	for name, privs := range defs {
		if existing, ok := registry[name]; ok && existing.Builtin {
			return util.Errorf("role '%s' is builtin and cannot be redefined", name)
		}
		r, err := newRole(name, privs, false)
		if err != nil {
			return err
		}
		pending[name] = r
	}
	// nothing lands until the whole batch validates
	for name, r := range pending {
		registry[name] = r
	}
	return nil
}
