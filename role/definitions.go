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

package role

import (
	"strings"

	"github.com/cmorbern/maitred/privilege"
)

// Names of the builtin roles.
const (
	Administrator         = "Administrator"
	Auditor               = "Auditor"
	SystemAdministrator   = "SystemAdministrator"
	SystemAuditor         = "SystemAuditor"
	ResourceAdministrator = "ResourceAdministrator"
	ResourceAuditor       = "ResourceAuditor"
	AccessAuditor         = "AccessAuditor"
	NoAccess              = "NoAccess"
)

/* The builtin role set. Administrator always holds Access.Modify, so that
 * permission changes stay possible as long as someone, somewhere, holds
 * Administrator - the facade's lockout guard leans on this.
 *
 * NoAccess holds nothing at all. Granting it at a path masks grants
 * inherited from above, since the deepest level with a matching entry
 * decides the outcome. */

func builtinRoleDefs() map[string][]string {
	all := privilege.Names()

	var audits []string
	for _, p := range all {
		if strings.HasSuffix(p, ".Audit") {
			audits = append(audits, p)
		}
	}

	var resource []string
	for _, p := range all {
		if strings.HasPrefix(p, "Resource.") {
			resource = append(resource, p)
		}
	}

	return map[string][]string{
		Administrator:         all,
		Auditor:               audits,
		SystemAdministrator:   {privilege.SystemAudit, privilege.SystemModify},
		SystemAuditor:         {privilege.SystemAudit},
		ResourceAdministrator: resource,
		ResourceAuditor:       {privilege.ResourceAudit},
		AccessAuditor:         {privilege.AccessAudit},
		NoAccess:              {},
	}
}
