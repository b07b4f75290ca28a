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

/*
 * We desperately want to avoid circular reference loops with group
 * membership, where one group has another group as a member, and that group
 * in turn has the first group as a member - also at more levels than just
 * the one (a -> b -> c -> a). Group membership is simple enough that a map
 * of the groups seen so far while walking the subgroup chain does the job;
 * nothing as heavy as a dependency graph is needed.
 */

// reaches reports whether the named target group can be reached from g by
// following subgroup membership.
func (g *Group) reaches(target string, seen map[string]bool) (bool, error) {
	if g.Name == target {
		return true, nil
	}
	if seen[g.Name] {
		return false, nil
	}
	seen[g.Name] = true
	g.m.RLock()
	subs := make([]string, len(g.Groups))
	copy(subs, g.Groups)
	g.m.RUnlock()
	for _, sub := range subs {
		sg, err := Get(sub)
		if err != nil {
			continue
		}
		if found, ferr := sg.reaches(target, seen); ferr != nil {
			return false, ferr
		} else if found {
			return true, nil
		}
	}
	return false, nil
}
