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

package aclstore

import (
	"fmt"

	"github.com/cmorbern/maitred/config"
	"github.com/cmorbern/maitred/datastore"
)

// Mutation operations handed to a Persister.
const (
	OpInsert = "insert"
	OpRemove = "remove"
)

// Persister is the persistence collaborator for the ACL store. LoadAll
// fetches the full entry set at startup; OnChange is called for every
// mutation, before the in-memory change commits. An OnChange error aborts
// the mutation - memory and durable storage never drift apart silently.
type Persister interface {
	LoadAll() ([]*Entry, error)
	OnChange(e *Entry, op string) error
}

// DataStorePersister keeps ACL entries in the in-memory data store, which
// in turn may be frozen to disk on an interval. This is the backend used
// when maitred runs without an SQL database.
type DataStorePersister struct{}

// LoadAll fetches every ACL entry from the data store.
func (dsp DataStorePersister) LoadAll() ([]*Entry, error) {
	ds := datastore.New()
	keys := ds.GetList("acl")
	entries := make([]*Entry, 0, len(keys))
	for _, k := range keys {
		val, found := ds.Get("acl", k)
		if !found {
			continue
		}
		e, ok := val.(*Entry)
		if !ok {
			return nil, fmt.Errorf("ACL entry under key %s has unexpected type %T", k, val)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// OnChange mirrors a mutation into the data store.
func (dsp DataStorePersister) OnChange(e *Entry, op string) error {
	ds := datastore.New()
	switch op {
	case OpInsert:
		ds.Set("acl", e.Key(), e)
	case OpRemove:
		ds.Delete("acl", e.Key())
	default:
		return fmt.Errorf("unknown ACL mutation op %s", op)
	}
	return nil
}

// NewPersister returns the persistence backend matching the server
// configuration: SQL-backed when an SQL database is configured, otherwise
// the data store.
func NewPersister() Persister {
	if config.UsingDB() {
		return SQLPersister{}
	}
	return DataStorePersister{}
}
