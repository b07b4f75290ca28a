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

package eventlog

import (
	"testing"
	"time"

	"github.com/cmorbern/maitred/config"
	"github.com/cmorbern/maitred/objpath"
	"github.com/cmorbern/maitred/role"
)

func init() {
	config.Config.UseUnsafeMemStore = true
	config.Config.LogEvents = true
}

func clearEvents(t *testing.T) {
	for _, ev := range AllEvents() {
		if err := ev.Delete(); err != nil {
			t.Fatalf("clearing events: %s", err.Error())
		}
	}
}

func TestLogAndFetchEvent(t *testing.T) {
	clearEvents(t)
	err := LogEvent("root@pam", ActionGrant, objpath.ObjectPath("/resource"), "alice@pam", role.Auditor, true)
	if err != nil {
		t.Fatalf("logging an event: %s", err.Error())
	}
	evts := AllEvents()
	if len(evts) != 1 {
		t.Fatalf("expected 1 event, got %d", len(evts))
	}
	ev := evts[0]
	if ev.Actor != "root@pam" || ev.Action != ActionGrant || ev.Subject != "alice@pam" || ev.Role != role.Auditor {
		t.Errorf("event fields wrong: %+v", ev)
	}
	got, err := Get(ev.ID)
	if err != nil {
		t.Fatalf("fetching event by id: %s", err.Error())
	}
	if got == nil || got.ID != ev.ID {
		t.Errorf("Get returned the wrong event: %+v", got)
	}
}

func TestLogEventDisabled(t *testing.T) {
	clearEvents(t)
	config.Config.LogEvents = false
	defer func() { config.Config.LogEvents = true }()
	if err := LogEvent("root@pam", ActionRevoke, objpath.ObjectPath("/"), "bob@pam", role.NoAccess, false); err != nil {
		t.Fatalf("logging with events disabled errored: %s", err.Error())
	}
	if evts := AllEvents(); len(evts) != 0 {
		t.Errorf("event was recorded with logging disabled")
	}
}

func TestAllEventsNewestFirst(t *testing.T) {
	clearEvents(t)
	subjects := []string{"a@pam", "b@pam", "c@pam"}
	for _, s := range subjects {
		if err := LogEvent("root@pam", ActionGrant, objpath.ObjectPath("/system"), s, role.SystemAuditor, true); err != nil {
			t.Fatalf("logging an event: %s", err.Error())
		}
		time.Sleep(2 * time.Millisecond)
	}
	evts := AllEvents()
	if len(evts) != 3 {
		t.Fatalf("expected 3 events, got %d", len(evts))
	}
	for i := 1; i < len(evts); i++ {
		if evts[i-1].Time.Before(evts[i].Time) {
			t.Errorf("events out of order: %s before %s", evts[i-1].Subject, evts[i].Subject)
		}
	}
}

func TestPurgeBefore(t *testing.T) {
	clearEvents(t)
	if err := LogEvent("root@pam", ActionGrant, objpath.ObjectPath("/"), "old@pam", role.Auditor, true); err != nil {
		t.Fatalf("logging an event: %s", err.Error())
	}
	time.Sleep(2 * time.Millisecond)
	cutoff := time.Now()
	time.Sleep(2 * time.Millisecond)
	if err := LogEvent("root@pam", ActionGrant, objpath.ObjectPath("/"), "new@pam", role.Auditor, true); err != nil {
		t.Fatalf("logging an event: %s", err.Error())
	}
	purged, err := PurgeBefore(cutoff)
	if err != nil {
		t.Fatalf("purging events: %s", err.Error())
	}
	if purged != 1 {
		t.Errorf("expected 1 purged event, got %d", purged)
	}
	evts := AllEvents()
	if len(evts) != 1 || evts[0].Subject != "new@pam" {
		t.Errorf("wrong events survived the purge: %+v", evts)
	}
}
