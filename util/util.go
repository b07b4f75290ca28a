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

// Package util contains various utility functions that are useful across all
// of maitred, along with convenience wrappers for the gerror Error type.
package util

import (
	"net/http"
	"strings"

	"github.com/cmorbern/maitred/gerror"
)

// Gerror is an error type that wraps around the gerror Error type.
type Gerror interface {
	gerror.Error
}

// Errorf creates a new Gerror, with a formatted error string.
func Errorf(format string, a ...interface{}) Gerror {
	return gerror.Errorf(format, a...)
}

// CastErr will easily cast a different kind of error to a Gerror.
func CastErr(err error) Gerror {
	return gerror.CastErr(err)
}

// NotFoundError returns a Gerror with a 404 status.
func NotFoundError(format string, a ...interface{}) Gerror {
	err := Errorf(format, a...)
	err.SetStatus(http.StatusNotFound)
	return err
}

// ForbiddenError returns the uniform "forbidden" Gerror handed out for every
// denied or guarded operation. The message never varies, so the caller can't
// learn anything about the ACL table from it.
func ForbiddenError() Gerror {
	return gerror.StatusError("forbidden", http.StatusForbidden)
}

// PersistenceError wraps an error from a persistence backend with a 500
// status. These must always be surfaced to the mutation caller, never
// swallowed.
func PersistenceError(err error) Gerror {
	gerr := Errorf("persistence failure: %s", err.Error())
	gerr.SetStatus(http.StatusInternalServerError)
	return gerr
}

// JoinStr joins strings together, an easier-to-read (and for some purposes
// faster) shorthand for the usual fmt.Sprintf battery.
func JoinStr(args ...string) string {
	return strings.Join(args, "")
}
