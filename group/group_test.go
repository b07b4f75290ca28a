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

package group

import (
	"testing"

	"github.com/cmorbern/maitred/config"
)

func init() {
	// keep the data store from gob-encoding everything in tests
	config.Config.UseUnsafeMemStore = true
}

func TestNewAndGet(t *testing.T) {
	g, err := New("operators")
	if err != nil {
		t.Fatalf("creating a group failed: %s", err.Error())
	}
	g.AddMember("alice@pam")
	g.Save()
	g2, err := Get("operators")
	if err != nil {
		t.Fatalf("fetching the group back failed: %s", err.Error())
	}
	if !g2.SeekMember("alice@pam") {
		t.Errorf("alice@pam should be a member of operators")
	}
	if g2.SeekMember("bob@pam") {
		t.Errorf("bob@pam should not be a member of operators")
	}
}

func TestDuplicateGroup(t *testing.T) {
	g, _ := New("dupers")
	g.Save()
	if _, err := New("dupers"); err == nil {
		t.Errorf("creating a group twice should have failed")
	}
}

func TestBadMember(t *testing.T) {
	g, _ := New("strict")
	if err := g.AddMember("@nested-as-member"); err == nil {
		t.Errorf("a group subject should not be accepted as a direct member")
	}
	if err := g.AddMember("has spaces"); err == nil {
		t.Errorf("an invalid subject should not be accepted as a member")
	}
}

func TestDelMember(t *testing.T) {
	g, _ := New("ephemeral")
	g.AddMember("carol@pam")
	g.Save()
	if err := g.DelMember("carol@pam"); err != nil {
		t.Fatalf("removing a member failed: %s", err.Error())
	}
	g.Save()
	g2, _ := Get("ephemeral")
	if g2.SeekMember("carol@pam") {
		t.Errorf("carol@pam should have been removed")
	}
	if err := g.DelMember("carol@pam"); err == nil {
		t.Errorf("removing a member twice should fail")
	}
}

func TestNestedMembership(t *testing.T) {
	inner, _ := New("inner")
	inner.AddMember("dave@ldap")
	inner.Save()
	outer, _ := New("outer")
	if err := outer.AddGroup("inner"); err != nil {
		t.Fatalf("nesting a group failed: %s", err.Error())
	}
	outer.Save()
	if !outer.SeekMember("dave@ldap") {
		t.Errorf("membership should resolve through nested groups")
	}
}

func TestCircularMembership(t *testing.T) {
	a, _ := New("cyc-a")
	a.Save()
	b, _ := New("cyc-b")
	b.Save()
	c, _ := New("cyc-c")
	c.Save()
	if err := a.AddGroup("cyc-b"); err != nil {
		t.Fatalf("adding cyc-b to cyc-a failed: %s", err.Error())
	}
	a.Save()
	if err := b.AddGroup("cyc-c"); err != nil {
		t.Fatalf("adding cyc-c to cyc-b failed: %s", err.Error())
	}
	b.Save()
	if err := c.AddGroup("cyc-a"); err == nil {
		t.Errorf("closing a membership cycle should have been refused")
	}
	if err := a.AddGroup("cyc-a"); err == nil {
		t.Errorf("a group should not be allowed as a member of itself")
	}
}

func TestResolver(t *testing.T) {
	g, _ := New("resolvers")
	g.AddMember("erin@pam")
	g.Save()
	var r Resolver
	if !r.IsMember("erin@pam", "resolvers") {
		t.Errorf("resolver should report erin@pam in resolvers")
	}
	if r.IsMember("erin@pam", "no-such-group") {
		t.Errorf("resolver should report false for a missing group")
	}
}
