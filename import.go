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

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/cmorbern/maitred/aclstore"
	"github.com/cmorbern/maitred/config"
	"github.com/cmorbern/maitred/eventlog"
	"github.com/cmorbern/maitred/group"
	"github.com/cmorbern/maitred/objpath"
	gversion "github.com/hashicorp/go-version"
	"github.com/tideland/golib/logger"
)

func importAll(fileName string, store *aclstore.Store) error {
	fp, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer fp.Close()
	exportedData := &ExportData{}
	dec := json.NewDecoder(fp)
	if err = dec.Decode(&exportedData); err != nil {
		return err
	}

	if exportedData.MajorVersion != ExportMajorVersion {
		return fmt.Errorf("unsupported dump format version %d.%d", exportedData.MajorVersion, exportedData.MinorVersion)
	}
	// A dump made by a newer maitred may hold data this one doesn't know
	// what to do with.
	if exportedData.MaitredVersion != "" {
		dumpVer, verr := gversion.NewVersion(exportedData.MaitredVersion)
		if verr != nil {
			return verr
		}
		curVer, verr := gversion.NewVersion(config.Version)
		if verr != nil {
			return verr
		}
		if dumpVer.GreaterThan(curVer) {
			return fmt.Errorf("dump was made by maitred %s, this is %s; upgrade first", exportedData.MaitredVersion, config.Version)
		}
	}
	logger.Infof("Importing data, format version %d.%d created on %s", exportedData.MajorVersion, exportedData.MinorVersion, exportedData.CreatedTime)

	// Groups come first so group-subject ACL entries resolve right away.
	// Subgroup links are wired in a second pass, once every group exists.
	for _, v := range exportedData.Data["group"] {
		gd, derr := dumpMap(v)
		if derr != nil {
			return derr
		}
		name, derr := dumpString(gd, "Name")
		if derr != nil {
			return derr
		}
		g, gerr := group.New(name)
		if gerr != nil {
			return gerr
		}
		mems, derr := dumpStringList(gd, "Members")
		if derr != nil {
			return derr
		}
		for _, mem := range mems {
			if gerr = g.AddMember(mem); gerr != nil {
				return gerr
			}
		}
		if gerr = g.Save(); gerr != nil {
			return gerr
		}
	}
	for _, v := range exportedData.Data["group"] {
		gd, derr := dumpMap(v)
		if derr != nil {
			return derr
		}
		subs, derr := dumpStringList(gd, "Groups")
		if derr != nil {
			return derr
		}
		if len(subs) == 0 {
			continue
		}
		name, derr := dumpString(gd, "Name")
		if derr != nil {
			return derr
		}
		g, gerr := group.Get(name)
		if gerr != nil {
			return gerr
		}
		for _, sub := range subs {
			if gerr = g.AddGroup(sub); gerr != nil {
				return gerr
			}
		}
		if gerr = g.Save(); gerr != nil {
			return gerr
		}
	}

	for _, v := range exportedData.Data["acl_entry"] {
		ed, derr := dumpMap(v)
		if derr != nil {
			return derr
		}
		epath, derr := dumpString(ed, "Path")
		if derr != nil {
			return derr
		}
		subject, derr := dumpString(ed, "Subject")
		if derr != nil {
			return derr
		}
		roleName, derr := dumpString(ed, "Role")
		if derr != nil {
			return derr
		}
		prop, derr := dumpBool(ed, "Propagate")
		if derr != nil {
			return derr
		}
		e, eerr := aclstore.NewEntry(epath, subject, roleName, prop)
		if eerr != nil {
			return eerr
		}
		if eerr = store.Insert(e); eerr != nil {
			return eerr
		}
	}

	for _, v := range exportedData.Data["event"] {
		evd, derr := dumpMap(v)
		if derr != nil {
			return derr
		}
		ts, derr := dumpString(evd, "time")
		if derr != nil {
			return derr
		}
		t, terr := time.Parse(time.RFC3339, ts)
		if terr != nil {
			return terr
		}
		rawPath, derr := dumpString(evd, "path")
		if derr != nil {
			return derr
		}
		p, perr := objpath.Normalize(rawPath)
		if perr != nil {
			return perr
		}
		ev := &eventlog.Event{Time: t, Path: p}
		strFields := map[string]*string{
			"id":      &ev.ID,
			"actor":   &ev.Actor,
			"action":  &ev.Action,
			"subject": &ev.Subject,
			"role":    &ev.Role,
		}
		for key, dst := range strFields {
			if *dst, derr = dumpString(evd, key); derr != nil {
				return derr
			}
		}
		if ev.Propagate, derr = dumpBool(evd, "propagate"); derr != nil {
			return derr
		}
		if everr := eventlog.Import(ev); everr != nil {
			return everr
		}
	}

	return nil
}

/* Dumps are decoded into interface{} soup; these pull typed fields back out
 * without panicking on a malformed or hand-edited file. */

func dumpMap(v interface{}) (map[string]interface{}, error) {
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("malformed dump: expected an object, got %T", v)
	}
	return m, nil
}

func dumpString(m map[string]interface{}, key string) (string, error) {
	s, ok := m[key].(string)
	if !ok {
		return "", fmt.Errorf("malformed dump: field %s missing or not a string", key)
	}
	return s, nil
}

func dumpBool(m map[string]interface{}, key string) (bool, error) {
	b, ok := m[key].(bool)
	if !ok {
		return false, fmt.Errorf("malformed dump: field %s missing or not a boolean", key)
	}
	return b, nil
}

// dumpStringList treats an absent or null field as empty, but a field of the
// wrong shape as an error.
func dumpStringList(m map[string]interface{}, key string) ([]string, error) {
	raw, present := m[key]
	if !present || raw == nil {
		return nil, nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("malformed dump: field %s is not a list", key)
	}
	strs := make([]string, len(list))
	for i, v := range list {
		s, sok := v.(string)
		if !sok {
			return nil, fmt.Errorf("malformed dump: field %s holds a non-string entry", key)
		}
		strs[i] = s
	}
	return strs, nil
}
