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
Package authz is the single entry point for permission questions and
permission changes. Checks ask whether a subject holds a privilege at an
object path; the answer comes from walking the path's ancestor chain in
the ACL store and expanding the granted roles, with the entries closest
to the path winning over entries higher up. A subject with no matching
entry anywhere on the chain is denied.

Mutations go through Grant and Revoke, which enforce that the actor holds
Access.Modify at the target path and refuse a revocation that would leave
nobody able to administer permissions at all.
*/
package authz

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cmorbern/maitred/aclstore"
	"github.com/cmorbern/maitred/config"
	"github.com/cmorbern/maitred/eventlog"
	"github.com/cmorbern/maitred/objpath"
	"github.com/cmorbern/maitred/privilege"
	"github.com/cmorbern/maitred/role"
	"github.com/cmorbern/maitred/util"
	"github.com/pmylund/go-cache"
	"github.com/tideland/golib/logger"
)

// MemberResolver answers group membership questions for group-subject ACL
// entries. Group subjects are stored as "@name"; the resolver is asked with
// the bare group name. Membership is expected to be transitive through
// nested groups.
type MemberResolver interface {
	IsMember(subject string, groupName string) bool
}

// Authorizer evaluates permission checks against an ACL store and applies
// permission changes to it.
type Authorizer struct {
	store  *aclstore.Store
	groups MemberResolver
	dc     *cache.Cache
	gen    uint64 // bumped on every mutation, fences off stale cache fills
	mut    sync.Mutex
}

// New creates an Authorizer over the given store. The resolver may be nil,
// in which case group-subject entries never match. Decision caching is
// switched on from the configuration.
func New(store *aclstore.Store, groups MemberResolver) *Authorizer {
	a := &Authorizer{store: store, groups: groups}
	if config.Config.CacheDecisions {
		ttl := time.Duration(config.Config.CacheTTL) * time.Second
		a.dc = cache.New(ttl, ttl*2)
	}
	return a
}

// Check reports whether the subject holds the named privilege at the given
// path. An unknown privilege or a malformed path is an error; a subject
// with no grants is simply denied.
func (a *Authorizer) Check(subject string, rawPath string, privName string) (bool, util.Gerror) {
	if !privilege.Exists(privName) {
		return false, util.NotFoundError("unknown privilege '%s'", privName)
	}
	p, err := objpath.Normalize(rawPath)
	if err != nil {
		return false, err
	}
	if a.dc != nil {
		ckey := util.JoinStr(subject, "##", p.String(), "##", privName)
		if v, hit := a.dc.Get(ckey); hit {
			return v.(bool), nil
		}
		gen := atomic.LoadUint64(&a.gen)
		allowed := a.evaluate(subject, p, privName)
		a.cacheDecision(ckey, gen, allowed)
		return allowed, nil
	}
	return a.evaluate(subject, p, privName), nil
}

// cacheDecision records an answer that was computed while the store was at
// generation gen. An answer a mutation has since invalidated is dropped
// rather than cached, so a check racing a Grant or Revoke cannot put the
// pre-mutation answer back after the mutation's flush.
func (a *Authorizer) cacheDecision(ckey string, gen uint64, allowed bool) {
	if atomic.LoadUint64(&a.gen) != gen {
		return
	}
	a.dc.Set(ckey, allowed, cache.DefaultExpiration)
	// A flush may have run between the load above and the Set.
	if atomic.LoadUint64(&a.gen) != gen {
		a.dc.Delete(ckey)
	}
}

// Authorize is Check with a forbidden error on denial. The error carries no
// detail about why - callers relay it to the requester, and the reason for
// a denial is nobody's business but the administrator's.
func (a *Authorizer) Authorize(subject string, rawPath string, privName string) util.Gerror {
	allowed, err := a.Check(subject, rawPath, privName)
	if err != nil {
		return err
	}
	if !allowed {
		return util.ForbiddenError()
	}
	return nil
}

// Grant gives the subject a role at a path, performed by actor. The actor
// must hold Access.Modify at that path. Granting an entry that already
// exists only updates its propagate flag.
func (a *Authorizer) Grant(actor string, rawPath string, subject string, roleName string, propagate bool) util.Gerror {
	e, err := aclstore.NewEntry(rawPath, subject, roleName, propagate)
	if err != nil {
		return err
	}
	a.mut.Lock()
	defer a.mut.Unlock()
	if err = a.Authorize(actor, e.Path.String(), privilege.AccessModify); err != nil {
		return err
	}
	if err = a.store.Insert(e); err != nil {
		return err
	}
	a.flush()
	if lerr := eventlog.LogEvent(actor, eventlog.ActionGrant, e.Path, e.Subject, e.Role, e.Propagate); lerr != nil {
		logger.Warningf("recording grant event: %s", lerr.Error())
	}
	return nil
}

// Revoke removes the subject's grant of a role at a path, performed by
// actor. The actor must hold Access.Modify at that path. Revoking the last
// remaining grant of Access.Modify anywhere is refused, so that permission
// administration always stays possible for someone.
func (a *Authorizer) Revoke(actor string, rawPath string, subject string, roleName string) util.Gerror {
	e, err := aclstore.NewEntry(rawPath, subject, roleName, false)
	if err != nil {
		return err
	}
	a.mut.Lock()
	defer a.mut.Unlock()
	if err = a.Authorize(actor, e.Path.String(), privilege.AccessModify); err != nil {
		return err
	}
	if a.wouldLockOut(e) {
		return util.Errorf("refusing to revoke the last grant of %s", privilege.AccessModify)
	}
	if err = a.store.Remove(e); err != nil {
		return err
	}
	a.flush()
	if lerr := eventlog.LogEvent(actor, eventlog.ActionRevoke, e.Path, e.Subject, e.Role, false); lerr != nil {
		logger.Warningf("recording revoke event: %s", lerr.Error())
	}
	return nil
}

// wouldLockOut reports whether removing this entry would leave no entry in
// the whole store granting Access.Modify.
func (a *Authorizer) wouldLockOut(e *aclstore.Entry) bool {
	r, err := role.Lookup(e.Role)
	if err != nil || !r.Grants(privilege.AccessModify) {
		return false
	}
	for _, other := range a.store.AllEntries() {
		if other.Key() == e.Key() {
			continue
		}
		or, oerr := role.Lookup(other.Role)
		if oerr == nil && or.Grants(privilege.AccessModify) {
			return false
		}
	}
	return true
}

// Bootstrap grants the configured root administrator the Administrator role
// at the root path, if and only if the store holds no entries at all. It
// runs at startup so a fresh installation has someone who can hand out
// permissions.
func (a *Authorizer) Bootstrap(rootAdmin string) util.Gerror {
	a.mut.Lock()
	defer a.mut.Unlock()
	if a.store.Count() > 0 {
		return nil
	}
	e, err := aclstore.NewEntry(objpath.Root.String(), rootAdmin, role.Administrator, true)
	if err != nil {
		return err
	}
	if err = a.store.Insert(e); err != nil {
		return err
	}
	a.flush()
	logger.Infof("empty ACL table: granted %s to %s at %s", role.Administrator, rootAdmin, objpath.Root)
	if lerr := eventlog.LogEvent("bootstrap", eventlog.ActionGrant, e.Path, e.Subject, e.Role, true); lerr != nil {
		logger.Warningf("recording bootstrap event: %s", lerr.Error())
	}
	return nil
}

// Store returns the ACL store this authorizer evaluates against.
func (a *Authorizer) Store() *aclstore.Store {
	return a.store
}

func (a *Authorizer) flush() {
	atomic.AddUint64(&a.gen, 1)
	if a.dc != nil {
		a.dc.Flush()
	}
}
