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
	"regexp"
)

/* Validations for different types and input. */

// ValidateName validates a generic object name - role names, group names and
// the like.
func ValidateName(name string) bool {
	m, _ := regexp.MatchString("[^A-Za-z0-9_.-]", name)
	return !m && name != ""
}

// ValidateSubjectName validates a subject identifier. Subjects look like
// "alice@pam" or, for a group subject, "@operators". The identity realm
// portion is opaque to maitred, but the character set is still constrained.
func ValidateSubjectName(name string) bool {
	if name == "" {
		return false
	}
	s := name
	if s[0] == '@' {
		s = s[1:]
		return ValidateName(s)
	}
	m, _ := regexp.MatchString("[^a-z0-9@_.-]", s)
	return !m
}

// ValidatePrivilegeName validates the shape of a privilege name, e.g.
// "Resource.Guest.Modify". It says nothing about whether the privilege is
// actually registered.
var privRe = regexp.MustCompile(`^[A-Z][A-Za-z0-9]*(\.[A-Z][A-Za-z0-9]*)+$`)

func ValidatePrivilegeName(name string) bool {
	return privRe.MatchString(name)
}
