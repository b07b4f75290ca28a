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

package privilege

// Names for the privileges that other packages check against directly.
const (
	SystemAudit         = "System.Audit"
	SystemModify        = "System.Modify"
	ResourceAudit       = "Resource.Audit"
	ResourceModify      = "Resource.Modify"
	ResourceMigrate     = "Resource.Migrate"
	ResourceGuestAudit  = "Resource.Guest.Audit"
	ResourceGuestModify = "Resource.Guest.Modify"
	AccessAudit         = "Access.Audit"
	AccessModify        = "Access.Modify"
	RealmAllocate       = "Realm.Allocate"
)

// The privilege catalogue. "covers" declares the superset relation: holding
// the privilege also satisfies checks for everything it covers.
var privilegeDefs = []struct {
	name      string
	namespace string
	covers    []string
}{
	{SystemAudit, "/system", nil},
	{SystemModify, "/system", nil},
	{ResourceAudit, "/resource", []string{ResourceGuestAudit}},
	{ResourceModify, "/resource", []string{ResourceGuestModify}},
	{ResourceMigrate, "/resource", nil},
	{ResourceGuestAudit, "/resource", nil},
	{ResourceGuestModify, "/resource", nil},
	{AccessAudit, "/access", nil},
	{AccessModify, "/access", nil},
	{RealmAllocate, "/access/realm", nil},
}
