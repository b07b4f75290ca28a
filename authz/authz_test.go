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
	"sync/atomic"
	"testing"

	"github.com/cmorbern/maitred/aclstore"
	"github.com/cmorbern/maitred/config"
	"github.com/cmorbern/maitred/objpath"
	"github.com/cmorbern/maitred/privilege"
	"github.com/cmorbern/maitred/role"
	"github.com/cmorbern/maitred/util"
)

type staticResolver map[string][]string

func (sr staticResolver) IsMember(subject string, groupName string) bool {
	for _, m := range sr[groupName] {
		if m == subject {
			return true
		}
	}
	return false
}

func newTestAuthorizer(t *testing.T) *Authorizer {
	return New(aclstore.NewStore(), staticResolver{"operators": {"alice@pam", "carol@ldap"}})
}

func seed(t *testing.T, a *Authorizer, path, subject, roleName string, propagate bool) {
	e, err := aclstore.NewEntry(path, subject, roleName, propagate)
	if err != nil {
		t.Fatalf("building entry %s %s %s: %s", path, subject, roleName, err.Error())
	}
	if err := a.Store().Insert(e); err != nil {
		t.Fatalf("seeding entry %s: %s", e.Key(), err.Error())
	}
}

func checkAllowed(t *testing.T, a *Authorizer, subject, path, priv string, want bool) {
	t.Helper()
	got, err := a.Check(subject, path, priv)
	if err != nil {
		t.Fatalf("Check(%s, %s, %s): %s", subject, path, priv, err.Error())
	}
	if got != want {
		t.Errorf("Check(%s, %s, %s) = %v, want %v", subject, path, priv, got, want)
	}
}

func TestDefaultDeny(t *testing.T) {
	a := newTestAuthorizer(t)
	checkAllowed(t, a, "alice@pam", "/resource/node1", privilege.ResourceAudit, false)
	checkAllowed(t, a, "alice@pam", "/", privilege.SystemAudit, false)
}

func TestCheckBadInput(t *testing.T) {
	a := newTestAuthorizer(t)
	if _, err := a.Check("alice@pam", "/resource", "No.SuchPrivilege"); err == nil {
		t.Errorf("check of an unknown privilege did not error")
	} else if err.Status() != 404 {
		t.Errorf("unknown privilege returned status %d, want 404", err.Status())
	}
	if _, err := a.Check("alice@pam", "resource", privilege.ResourceAudit); err == nil {
		t.Errorf("check of a malformed path did not error")
	}
}

func TestRootGrantReachesEverywhere(t *testing.T) {
	a := newTestAuthorizer(t)
	seed(t, a, "/", "alice@pam", role.Administrator, true)
	checkAllowed(t, a, "alice@pam", "/", privilege.AccessModify, true)
	checkAllowed(t, a, "alice@pam", "/resource/cluster9/guest/100", privilege.ResourceGuestModify, true)
	checkAllowed(t, a, "bob@pam", "/resource/cluster9/guest/100", privilege.ResourceGuestModify, false)
}

func TestClosestWins(t *testing.T) {
	a := newTestAuthorizer(t)
	seed(t, a, "/", "alice@pam", role.Administrator, true)
	seed(t, a, "/resource", "alice@pam", role.Auditor, true)
	// the /resource entry shadows the root one below /resource
	checkAllowed(t, a, "alice@pam", "/resource/node1", privilege.ResourceModify, false)
	checkAllowed(t, a, "alice@pam", "/resource/node1", privilege.ResourceAudit, true)
	// elsewhere the root grant still rules
	checkAllowed(t, a, "alice@pam", "/system", privilege.SystemModify, true)
}

func TestNoAccessMasksInheritedGrants(t *testing.T) {
	a := newTestAuthorizer(t)
	seed(t, a, "/", "alice@pam", role.Administrator, true)
	seed(t, a, "/system", "alice@pam", role.NoAccess, true)
	checkAllowed(t, a, "alice@pam", "/system", privilege.SystemAudit, false)
	checkAllowed(t, a, "alice@pam", "/system/network", privilege.SystemAudit, false)
	checkAllowed(t, a, "alice@pam", "/resource", privilege.ResourceModify, true)
}

func TestPropagateGating(t *testing.T) {
	a := newTestAuthorizer(t)
	seed(t, a, "/resource", "alice@pam", role.ResourceAdministrator, false)
	// no-propagate entries bind at their own path
	checkAllowed(t, a, "alice@pam", "/resource", privilege.ResourceModify, true)
	// but never at descendants
	checkAllowed(t, a, "alice@pam", "/resource/node1", privilege.ResourceModify, false)
}

func TestNonPropagatingEntryDoesNotShadow(t *testing.T) {
	a := newTestAuthorizer(t)
	seed(t, a, "/", "alice@pam", role.Auditor, true)
	seed(t, a, "/resource", "alice@pam", role.NoAccess, false)
	// the NoAccess mask holds only at /resource itself
	checkAllowed(t, a, "alice@pam", "/resource", privilege.ResourceAudit, false)
	// below it, the no-propagate entry is invisible and the root grant applies
	checkAllowed(t, a, "alice@pam", "/resource/node1", privilege.ResourceAudit, true)
}

func TestSameDepthUnion(t *testing.T) {
	a := newTestAuthorizer(t)
	seed(t, a, "/resource/node1", "alice@pam", role.ResourceAuditor, true)
	seed(t, a, "/resource/node1", "alice@pam", role.SystemAuditor, true)
	checkAllowed(t, a, "alice@pam", "/resource/node1", privilege.ResourceAudit, true)
	checkAllowed(t, a, "alice@pam", "/resource/node1", privilege.SystemAudit, true)
	checkAllowed(t, a, "alice@pam", "/resource/node1", privilege.ResourceModify, false)
}

func TestDeeperGrantExtends(t *testing.T) {
	a := newTestAuthorizer(t)
	seed(t, a, "/resource", "alice@pam", role.Auditor, true)
	seed(t, a, "/resource/node1", "alice@pam", role.ResourceAdministrator, true)
	// at node1 the deeper entry decides alone
	checkAllowed(t, a, "alice@pam", "/resource/node1", privilege.ResourceModify, true)
	checkAllowed(t, a, "alice@pam", "/resource/node1/guest/100", privilege.ResourceModify, true)
	// sibling nodes only see the /resource auditor grant
	checkAllowed(t, a, "alice@pam", "/resource/node2", privilege.ResourceModify, false)
	checkAllowed(t, a, "alice@pam", "/resource/node2", privilege.ResourceAudit, true)
}

func TestScopedResourceAdministrator(t *testing.T) {
	a := newTestAuthorizer(t)
	seed(t, a, "/resource/node1", "alice@pam", role.ResourceAdministrator, true)
	checkAllowed(t, a, "alice@pam", "/resource/node1/guest/100", privilege.ResourceModify, true)
	checkAllowed(t, a, "alice@pam", "/system", privilege.SystemModify, false)
	checkAllowed(t, a, "alice@pam", "/resource", privilege.ResourceModify, false)
}

func TestSupersetPrivilege(t *testing.T) {
	a := newTestAuthorizer(t)
	seed(t, a, "/resource", "alice@pam", role.ResourceAdministrator, true)
	// Resource.Modify covers Resource.Guest.Modify
	checkAllowed(t, a, "alice@pam", "/resource/node1/guest/100", privilege.ResourceGuestModify, true)
	// coverage runs one way only
	seed(t, a, "/resource", "bob@pam", role.NoAccess, true)
	checkAllowed(t, a, "bob@pam", "/resource", privilege.ResourceModify, false)
}

func TestGroupGrants(t *testing.T) {
	a := newTestAuthorizer(t)
	seed(t, a, "/resource", "@operators", role.ResourceAuditor, true)
	checkAllowed(t, a, "alice@pam", "/resource/node1", privilege.ResourceAudit, true)
	checkAllowed(t, a, "carol@ldap", "/resource/node1", privilege.ResourceAudit, true)
	checkAllowed(t, a, "bob@pam", "/resource/node1", privilege.ResourceAudit, false)
}

func TestGroupGrantsWithoutResolver(t *testing.T) {
	a := New(aclstore.NewStore(), nil)
	seed(t, a, "/resource", "@operators", role.ResourceAuditor, true)
	checkAllowed(t, a, "alice@pam", "/resource", privilege.ResourceAudit, false)
}

func TestAuthorizeForbidden(t *testing.T) {
	a := newTestAuthorizer(t)
	err := a.Authorize("bob@pam", "/resource", privilege.ResourceAudit)
	if err == nil {
		t.Fatalf("Authorize for an unprivileged subject did not error")
	}
	if err.Status() != 403 {
		t.Errorf("denial returned status %d, want 403", err.Status())
	}
	if err.Error() != "forbidden" {
		t.Errorf("denial leaked detail: %s", err.Error())
	}
}

func TestBootstrap(t *testing.T) {
	a := newTestAuthorizer(t)
	if err := a.Bootstrap("root@pam"); err != nil {
		t.Fatalf("bootstrap on an empty store: %s", err.Error())
	}
	checkAllowed(t, a, "root@pam", "/access/realm", privilege.RealmAllocate, true)
	// a second bootstrap, and any bootstrap on a non-empty store, is a no-op
	if err := a.Bootstrap("other@pam"); err != nil {
		t.Fatalf("bootstrap on a populated store: %s", err.Error())
	}
	checkAllowed(t, a, "other@pam", "/", privilege.SystemAudit, false)
	if c := a.Store().Count(); c != 1 {
		t.Errorf("expected 1 entry after repeated bootstrap, got %d", c)
	}
}

func TestGrantRequiresAccessModify(t *testing.T) {
	a := newTestAuthorizer(t)
	seed(t, a, "/", "root@pam", role.Administrator, true)
	if err := a.Grant("bob@pam", "/resource", "carol@ldap", role.Auditor, true); err == nil {
		t.Errorf("grant by an unprivileged actor was accepted")
	}
	if err := a.Grant("root@pam", "/resource", "carol@ldap", role.Auditor, true); err != nil {
		t.Fatalf("grant by the administrator failed: %s", err.Error())
	}
	checkAllowed(t, a, "carol@ldap", "/resource/node1", privilege.ResourceAudit, true)
}

func TestGrantScopedAdministration(t *testing.T) {
	a := newTestAuthorizer(t)
	seed(t, a, "/", "root@pam", role.Administrator, true)
	// an administrator of /resource only may not hand out grants elsewhere
	if err := a.Grant("root@pam", "/resource", "dave@pam", role.Administrator, true); err != nil {
		t.Fatalf("grant failed: %s", err.Error())
	}
	if err := a.Grant("dave@pam", "/resource/node1", "bob@pam", role.Auditor, true); err != nil {
		t.Errorf("grant inside dave@pam's scope was refused: %s", err.Error())
	}
	if err := a.Grant("dave@pam", "/system", "bob@pam", role.Auditor, true); err == nil {
		t.Errorf("grant outside dave@pam's scope was accepted")
	}
}

func TestRevoke(t *testing.T) {
	a := newTestAuthorizer(t)
	seed(t, a, "/", "root@pam", role.Administrator, true)
	seed(t, a, "/resource", "alice@pam", role.Auditor, true)
	if err := a.Revoke("root@pam", "/resource", "alice@pam", role.Auditor); err != nil {
		t.Fatalf("revoke failed: %s", err.Error())
	}
	checkAllowed(t, a, "alice@pam", "/resource", privilege.ResourceAudit, false)
	if err := a.Revoke("root@pam", "/resource", "alice@pam", role.Auditor); err == nil {
		t.Errorf("revoking an absent grant did not error")
	}
}

func TestRevokeLockoutGuard(t *testing.T) {
	a := newTestAuthorizer(t)
	seed(t, a, "/", "root@pam", role.Administrator, true)
	if err := a.Revoke("root@pam", "/", "root@pam", role.Administrator); err == nil {
		t.Fatalf("revoking the only Access.Modify grant was accepted")
	}
	// with a second administrator anywhere, the revocation goes through
	seed(t, a, "/access", "alice@pam", role.Administrator, true)
	if err := a.Revoke("root@pam", "/", "root@pam", role.Administrator); err != nil {
		t.Errorf("revoke with another administrator present failed: %s", err.Error())
	}
}

func TestRevokeNonAccessRoleIgnoresGuard(t *testing.T) {
	a := newTestAuthorizer(t)
	seed(t, a, "/", "root@pam", role.Administrator, true)
	seed(t, a, "/system", "alice@pam", role.SystemAuditor, true)
	if err := a.Revoke("root@pam", "/system", "alice@pam", role.SystemAuditor); err != nil {
		t.Errorf("revoking an audit-only grant tripped the lockout guard: %s", err.Error())
	}
}

func TestDecisionCacheInvalidation(t *testing.T) {
	config.Config.CacheDecisions = true
	config.Config.CacheTTL = 30
	defer func() { config.Config.CacheDecisions = false }()
	a := newTestAuthorizer(t)
	seed(t, a, "/", "root@pam", role.Administrator, true)
	// prime the cache with a denial
	checkAllowed(t, a, "alice@pam", "/resource", privilege.ResourceAudit, false)
	if err := a.Grant("root@pam", "/resource", "alice@pam", role.Auditor, true); err != nil {
		t.Fatalf("grant failed: %s", err.Error())
	}
	// the mutation must have flushed the cached denial
	checkAllowed(t, a, "alice@pam", "/resource", privilege.ResourceAudit, true)
	if err := a.Revoke("root@pam", "/resource", "alice@pam", role.Auditor); err != nil {
		t.Fatalf("revoke failed: %s", err.Error())
	}
	checkAllowed(t, a, "alice@pam", "/resource", privilege.ResourceAudit, false)
}

func TestStaleDecisionNotCachedPastMutation(t *testing.T) {
	config.Config.CacheDecisions = true
	config.Config.CacheTTL = 30
	defer func() { config.Config.CacheDecisions = false }()
	a := newTestAuthorizer(t)
	seed(t, a, "/", "root@pam", role.Administrator, true)
	seed(t, a, "/resource", "alice@pam", role.Auditor, true)
	p, err := objpath.Normalize("/resource")
	if err != nil {
		t.Fatalf("normalizing path: %s", err.Error())
	}
	ckey := util.JoinStr("alice@pam", "##", p.String(), "##", privilege.ResourceAudit)
	// an answer computed before the revoke below lands
	gen := atomic.LoadUint64(&a.gen)
	stale := a.evaluate("alice@pam", p, privilege.ResourceAudit)
	if !stale {
		t.Fatalf("expected the pre-revoke evaluation to allow")
	}
	if rerr := a.Revoke("root@pam", "/resource", "alice@pam", role.Auditor); rerr != nil {
		t.Fatalf("revoke failed: %s", rerr.Error())
	}
	// the late cache fill must be dropped, not recorded
	a.cacheDecision(ckey, gen, stale)
	if _, hit := a.dc.Get(ckey); hit {
		t.Errorf("an answer from before the revoke was cached past its flush")
	}
	checkAllowed(t, a, "alice@pam", "/resource", privilege.ResourceAudit, false)
}

func TestPrivilegesAt(t *testing.T) {
	a := newTestAuthorizer(t)
	seed(t, a, "/resource", "alice@pam", role.ResourceAuditor, true)
	privs, err := a.PrivilegesAt("alice@pam", "/resource/node1")
	if err != nil {
		t.Fatalf("PrivilegesAt: %s", err.Error())
	}
	want := []string{privilege.ResourceAudit, privilege.ResourceGuestAudit}
	if len(privs) != len(want) {
		t.Fatalf("expected privileges %v, got %v", want, privs)
	}
	for i, p := range want {
		if privs[i] != p {
			t.Errorf("expected privileges %v, got %v", want, privs)
		}
	}
	none, err := a.PrivilegesAt("bob@pam", "/resource/node1")
	if err != nil {
		t.Fatalf("PrivilegesAt: %s", err.Error())
	}
	if len(none) != 0 {
		t.Errorf("unprivileged subject has privileges: %v", none)
	}
}

func TestEntriesAffecting(t *testing.T) {
	a := newTestAuthorizer(t)
	seed(t, a, "/", "root@pam", role.Administrator, true)
	seed(t, a, "/resource", "alice@pam", role.Auditor, false)
	seed(t, a, "/resource/node1", "bob@pam", role.ResourceAuditor, true)
	ents, err := a.EntriesAffecting("/resource/node1")
	if err != nil {
		t.Fatalf("EntriesAffecting: %s", err.Error())
	}
	// the no-propagate entry at /resource does not reach node1
	if len(ents) != 2 {
		t.Errorf("expected 2 affecting entries, got %d: %v", len(ents), ents)
	}
}
