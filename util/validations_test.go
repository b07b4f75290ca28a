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

package util

import (
	"testing"
)

func TestValidateName(t *testing.T) {
	goodNames := []string{"operators", "billing-admins", "r_1.2"}
	badNames := []string{"", "spaced out", "sl/ash", "naughty!"}
	for _, n := range goodNames {
		if !ValidateName(n) {
			t.Errorf("name %q should have validated", n)
		}
	}
	for _, n := range badNames {
		if ValidateName(n) {
			t.Errorf("name %q should not have validated", n)
		}
	}
}

func TestValidateSubjectName(t *testing.T) {
	goodSubjects := []string{"alice@pam", "root@pam", "@operators", "svc-backup@ldap"}
	badSubjects := []string{"", "@", "Alice Smith", "bad/subject"}
	for _, s := range goodSubjects {
		if !ValidateSubjectName(s) {
			t.Errorf("subject %q should have validated", s)
		}
	}
	for _, s := range badSubjects {
		if ValidateSubjectName(s) {
			t.Errorf("subject %q should not have validated", s)
		}
	}
}

func TestValidatePrivilegeName(t *testing.T) {
	goodPrivs := []string{"Access.Modify", "Resource.Guest.Audit", "Realm.Allocate"}
	badPrivs := []string{"", "modify", "Access", "Access.", "access.modify"}
	for _, p := range goodPrivs {
		if !ValidatePrivilegeName(p) {
			t.Errorf("privilege name %q should have validated", p)
		}
	}
	for _, p := range badPrivs {
		if ValidatePrivilegeName(p) {
			t.Errorf("privilege name %q should not have validated", p)
		}
	}
}
