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
Package group provides subject groups for ACL entries to target. An ACL
entry whose subject starts with "@" names a group rather than an individual
subject; the evaluator asks this package whether the requesting subject is a
member, directly or through a nested group.

Membership lives alongside the ACL data in the data store or SQL backend.
Identity itself (what "alice@pam" means, whether the account exists) belongs
to the external realm management component; here subjects are opaque
strings.
*/
package group

import (
	"net/http"
	"sync"

	"github.com/cmorbern/maitred/config"
	"github.com/cmorbern/maitred/datastore"
	"github.com/cmorbern/maitred/util"
)

// Group is a named collection of subjects, possibly including other groups.
type Group struct {
	Name    string
	Members []string
	Groups  []string
	m       sync.RWMutex
}

// New creates a group with the given name. The group is not stored until
// Save is called.
func New(name string) (*Group, util.Gerror) {
	if name == "" {
		err := util.Errorf("Field 'name' missing")
		return nil, err
	}
	if !util.ValidateName(name) {
		err := util.Errorf("Field 'name' invalid")
		return nil, err
	}
	var found bool
	if config.UsingDB() {
		var cerr error
		found, cerr = checkForGroupSQL(datastore.Dbh, name)
		if cerr != nil {
			return nil, util.CastErr(cerr)
		}
	} else {
		ds := datastore.New()
		_, found = ds.Get("group", name)
	}
	if found {
		err := util.Errorf("Group %s already exists", name)
		err.SetStatus(http.StatusConflict)
		return nil, err
	}
	g := &Group{
		Name:    name,
		Members: []string{},
		Groups:  []string{},
	}
	return g, nil
}

// Get fetches a group by name.
func Get(name string) (*Group, util.Gerror) {
	if name == "" {
		err := util.Errorf("Field 'name' missing")
		return nil, err
	}
	if config.UsingDB() {
		g, err := getGroupSQL(name)
		if err != nil {
			return nil, err
		}
		return g, nil
	}
	ds := datastore.New()
	g, found := ds.Get("group", name)
	if !found {
		err := util.NotFoundError("group '%s' not found", name)
		return nil, err
	}
	return g.(*Group), nil
}

// Save stores the group.
func (g *Group) Save() util.Gerror {
	g.m.RLock()
	defer g.m.RUnlock()
	if config.UsingDB() {
		return g.saveSQL()
	}
	ds := datastore.New()
	ds.Set("group", g.Name, g)
	return nil
}

// Delete removes the group. Other groups holding it as a member have it
// scrubbed from their subgroup lists.
func (g *Group) Delete() util.Gerror {
	if config.UsingDB() {
		return g.deleteSQL()
	}
	ds := datastore.New()
	ds.Delete("group", g.Name)
	for _, og := range AllGroups() {
		if found, _ := og.checkForGroup(g.Name); found {
			og.DelGroup(g.Name)
			og.Save()
		}
	}
	return nil
}

// AddMember adds a subject to the group. Adding a member twice is a no-op.
func (g *Group) AddMember(subject string) util.Gerror {
	if !util.ValidateSubjectName(subject) || subject[0] == '@' {
		return util.Errorf("invalid group member '%s'", subject)
	}
	g.m.Lock()
	defer g.m.Unlock()
	for _, mem := range g.Members {
		if mem == subject {
			return nil
		}
	}
	g.Members = append(g.Members, subject)
	return nil
}

// DelMember removes a subject from the group.
func (g *Group) DelMember(subject string) util.Gerror {
	g.m.Lock()
	defer g.m.Unlock()
	for i, mem := range g.Members {
		if mem == subject {
			g.Members = append(g.Members[:i], g.Members[i+1:]...)
			return nil
		}
	}
	return util.Errorf("subject %s not in group %s", subject, g.Name)
}

// AddGroup adds another group as a member of this one. The subgroup must
// already exist, and the addition is refused if it would create a membership
// cycle.
func (g *Group) AddGroup(name string) util.Gerror {
	if name == g.Name {
		return util.Errorf("group %s cannot be a member of itself", name)
	}
	sub, err := Get(name)
	if err != nil {
		return err
	}
	if circ, cerr := sub.reaches(g.Name, make(map[string]bool)); cerr != nil {
		return util.CastErr(cerr)
	} else if circ {
		err := util.Errorf("adding group %s to %s would create a membership cycle", name, g.Name)
		err.SetStatus(http.StatusConflict)
		return err
	}
	g.m.Lock()
	defer g.m.Unlock()
	if found, _ := g.checkForGroup(name); !found {
		g.Groups = append(g.Groups, name)
	}
	return nil
}

// DelGroup removes a subgroup from this group.
func (g *Group) DelGroup(name string) util.Gerror {
	g.m.Lock()
	defer g.m.Unlock()
	if found, pos := g.checkForGroup(name); found {
		g.Groups = append(g.Groups[:pos], g.Groups[pos+1:]...)
		return nil
	}
	return util.Errorf("group %s not in group %s", name, g.Name)
}

func (g *Group) checkForGroup(name string) (bool, int) {
	for i, gr := range g.Groups {
		if gr == name {
			return true, i
		}
	}
	return false, 0
}

// SeekMember reports whether the subject is a member of the group, directly
// or through any chain of nested groups. Groups already visited are skipped,
// so a stale cycle in stored data cannot hang the walk.
func (g *Group) SeekMember(subject string) bool {
	return g.seekMember(subject, make(map[string]bool))
}

func (g *Group) seekMember(subject string, seen map[string]bool) bool {
	g.m.RLock()
	defer g.m.RUnlock()
	if seen[g.Name] {
		return false
	}
	seen[g.Name] = true
	for _, mem := range g.Members {
		if mem == subject {
			return true
		}
	}
	for _, sub := range g.Groups {
		sg, err := Get(sub)
		if err != nil {
			continue
		}
		if sg.seekMember(subject, seen) {
			return true
		}
	}
	return false
}

// AllGroups returns every stored group.
func AllGroups() []*Group {
	if config.UsingDB() {
		gs, err := allGroupsSQL()
		if err != nil {
			return nil
		}
		return gs
	}
	ds := datastore.New()
	names := ds.GetList("group")
	groups := make([]*Group, 0, len(names))
	for _, n := range names {
		g, err := Get(n)
		if err != nil {
			continue
		}
		groups = append(groups, g)
	}
	return groups
}

// Resolver answers membership queries for the permission evaluator. It
// satisfies the authz.MemberResolver interface.
type Resolver struct{}

// IsMember reports whether the subject belongs to the named group.
func (r Resolver) IsMember(subject string, groupName string) bool {
	g, err := Get(groupName)
	if err != nil {
		return false
	}
	return g.SeekMember(subject)
}
