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
Package objpath parses and normalizes the hierarchical object paths that ACL
entries attach to, like "/resource/pve-cluster-1/guest/100" or
"/access/realm". Paths are filesystem-like: ordered slash-separated segments
under the root "/". Segments holding remote or resource identifiers are
opaque tokens and never parsed further.

Everything here is a pure function of its input; no I/O, no locks.
*/
package objpath

import (
	"strings"

	"github.com/cmorbern/maitred/util"
)

// ObjectPath is a normalized hierarchical object identifier. The zero value
// is not valid; get one from Normalize (or use Root).
type ObjectPath string

// Root is the root of the object hierarchy. Every path is a descendant of
// Root.
const Root ObjectPath = "/"

// Normalize parses a raw path string into an ObjectPath. It returns an error
// for anything malformed: an empty string, a missing leading slash, empty
// segments ("//"), or a trailing slash on anything other than the root
// itself.
func Normalize(raw string) (ObjectPath, util.Gerror) {
	if raw == "/" {
		return Root, nil
	}
	if raw == "" {
		return "", util.Errorf("invalid path: empty")
	}
	if raw[0] != '/' {
		return "", util.Errorf("invalid path '%s': no leading slash", raw)
	}
	if strings.HasSuffix(raw, "/") {
		return "", util.Errorf("invalid path '%s': trailing slash", raw)
	}
	for _, seg := range strings.Split(raw[1:], "/") {
		if seg == "" {
			return "", util.Errorf("invalid path '%s': empty segment", raw)
		}
		if strings.ContainsAny(seg, " \t\n") {
			return "", util.Errorf("invalid path '%s': whitespace in segment", raw)
		}
	}
	return ObjectPath(raw), nil
}

// String returns the path as a plain string.
func (p ObjectPath) String() string {
	return string(p)
}

// IsRoot reports whether p is the root path.
func (p ObjectPath) IsRoot() bool {
	return p == Root
}

// Segments returns the path's segments in order. The root path has no
// segments.
func (p ObjectPath) Segments() []string {
	if p.IsRoot() {
		return nil
	}
	return strings.Split(string(p)[1:], "/")
}

// Depth returns the number of segments in the path. The root is depth 0.
func (p ObjectPath) Depth() int {
	return len(p.Segments())
}

// Parent returns the path's immediate parent. The root is its own parent.
func (p ObjectPath) Parent() ObjectPath {
	if p.IsRoot() {
		return Root
	}
	i := strings.LastIndex(string(p), "/")
	if i == 0 {
		return Root
	}
	return ObjectPath(string(p)[:i])
}

// Ancestors returns every ancestor of p from the root down to p itself,
// inclusive, ordered root first. For "/a/b" it returns ["/", "/a", "/a/b"].
func (p ObjectPath) Ancestors() []ObjectPath {
	segs := p.Segments()
	chain := make([]ObjectPath, 0, len(segs)+1)
	chain = append(chain, Root)
	cur := ""
	for _, seg := range segs {
		cur = cur + "/" + seg
		chain = append(chain, ObjectPath(cur))
	}
	return chain
}

// IsAncestorOf reports whether p is a strict ancestor of q; a path is not
// its own ancestor. Prefixes only count at segment boundaries, so "/re" is
// not an ancestor of "/resource".
func (p ObjectPath) IsAncestorOf(q ObjectPath) bool {
	if p == q {
		return false
	}
	if p.IsRoot() {
		return true
	}
	return strings.HasPrefix(string(q), string(p)+"/")
}
