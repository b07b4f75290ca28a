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
Package eventlog tracks permission changes: who granted or revoked which
role for which subject at which path, and when. Events are written after
the change has taken effect; a failure to record one is logged but does
not undo the change.
*/
package eventlog

import (
	"sort"
	"time"

	"github.com/cmorbern/maitred/config"
	"github.com/cmorbern/maitred/datastore"
	"github.com/cmorbern/maitred/objpath"
	"github.com/pborman/uuid"
	"github.com/tideland/golib/logger"
)

// Actions recorded in the event log.
const (
	ActionGrant  = "grant"
	ActionRevoke = "revoke"
)

// Event is one recorded permission change.
type Event struct {
	ID        string             `json:"id"`
	Time      time.Time          `json:"time"`
	Actor     string             `json:"actor"`
	Action    string             `json:"action"`
	Path      objpath.ObjectPath `json:"path"`
	Subject   string             `json:"subject"`
	Role      string             `json:"role"`
	Propagate bool               `json:"propagate"`
}

// LogEvent records a permission change performed by the given actor. It is
// a no-op unless event logging is enabled in the configuration.
func LogEvent(actor string, action string, p objpath.ObjectPath, subject string, roleName string, propagate bool) error {
	if !config.Config.LogEvents {
		return nil
	}
	ev := &Event{
		ID:        uuid.New(),
		Time:      time.Now(),
		Actor:     actor,
		Action:    action,
		Path:      p,
		Subject:   subject,
		Role:      roleName,
		Propagate: propagate,
	}
	logger.Debugf("logging %s of %s for %s at %s by %s", action, roleName, subject, p, actor)
	if config.UsingDB() {
		return ev.writeEventSQL()
	}
	return ev.writeEventInMem()
}

func (ev *Event) writeEventInMem() error {
	ds := datastore.New()
	ds.Set("event", ev.ID, ev)
	return nil
}

// Import restores an event from an export dump, keeping its original ID and
// timestamp.
func Import(ev *Event) error {
	if config.UsingDB() {
		return ev.writeEventSQL()
	}
	return ev.writeEventInMem()
}

// Get fetches one event by its id.
func Get(id string) (*Event, error) {
	if config.UsingDB() {
		return getEventSQL(id)
	}
	ds := datastore.New()
	val, found := ds.Get("event", id)
	if !found {
		return nil, nil
	}
	ev, ok := val.(*Event)
	if !ok {
		return nil, nil
	}
	return ev, nil
}

// Delete removes a logged event.
func (ev *Event) Delete() error {
	if config.UsingDB() {
		return ev.deleteSQL()
	}
	ds := datastore.New()
	ds.Delete("event", ev.ID)
	return nil
}

// AllEvents returns every logged event, newest first.
func AllEvents() []*Event {
	if config.UsingDB() {
		evts, err := allEventsSQL()
		if err != nil {
			logger.Errorf("fetching events from the database: %s", err.Error())
			return nil
		}
		return evts
	}
	ds := datastore.New()
	var evts []*Event
	for _, id := range ds.GetList("event") {
		val, found := ds.Get("event", id)
		if !found {
			continue
		}
		if ev, ok := val.(*Event); ok {
			evts = append(evts, ev)
		}
	}
	sort.Slice(evts, func(i, j int) bool { return evts[i].Time.After(evts[j].Time) })
	return evts
}

// PurgeBefore removes all events older than the given time, returning how
// many were deleted.
func PurgeBefore(t time.Time) (int64, error) {
	if config.UsingDB() {
		return purgeSQL(t)
	}
	ds := datastore.New()
	var purged int64
	for _, ev := range AllEvents() {
		if ev.Time.Before(t) {
			ds.Delete("event", ev.ID)
			purged++
		}
	}
	return purged, nil
}
