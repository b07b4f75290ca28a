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
	"os"
	"time"

	"github.com/cmorbern/maitred/aclstore"
	"github.com/cmorbern/maitred/config"
	"github.com/cmorbern/maitred/eventlog"
	"github.com/cmorbern/maitred/group"
)

// ExportData is the dump file format: the ACL entries, groups and logged
// events, with enough version information to check a dump before loading
// it.
type ExportData struct {
	MajorVersion   int
	MinorVersion   int
	MaitredVersion string
	CreatedTime    time.Time
	Data           map[string][]interface{}
}

const ExportMajorVersion = 1
const ExportMinorVersion = 0

// Export all data to a json file. This can help with upgrading maitred if
// save file compatibility is broken between releases, or with transferring
// data between the in-memory and SQL backends.
func exportAll(fileName string, store *aclstore.Store) error {
	exportedData := &ExportData{
		MajorVersion:   ExportMajorVersion,
		MinorVersion:   ExportMinorVersion,
		MaitredVersion: config.Version,
		CreatedTime:    time.Now(),
	}
	exportedData.Data = make(map[string][]interface{})

	entries := store.AllEntries()
	acls := make([]interface{}, len(entries))
	for i, e := range entries {
		acls[i] = e
	}
	exportedData.Data["acl_entry"] = acls

	allGroups := group.AllGroups()
	groups := make([]interface{}, len(allGroups))
	for i, g := range allGroups {
		groups[i] = g
	}
	exportedData.Data["group"] = groups

	allEvents := eventlog.AllEvents()
	events := make([]interface{}, len(allEvents))
	for i, ev := range allEvents {
		events[i] = ev
	}
	exportedData.Data["event"] = events

	fp, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer fp.Close()
	enc := json.NewEncoder(fp)
	if err = enc.Encode(&exportedData); err != nil {
		return err
	}
	return nil
}
