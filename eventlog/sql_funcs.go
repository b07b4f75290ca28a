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

/* Generic SQL functions for events */

import (
	"database/sql"
	"time"

	"github.com/cmorbern/maitred/config"
	"github.com/cmorbern/maitred/datastore"
	"github.com/cmorbern/maitred/objpath"
)

func (ev *Event) fillEventFromSQL(row datastore.ResRow) error {
	var tb time.Time
	var p string
	err := row.Scan(&ev.ID, &tb, &ev.Actor, &ev.Action, &p, &ev.Subject, &ev.Role, &ev.Propagate)
	if err != nil {
		return err
	}
	ev.Time = tb
	ev.Path = objpath.ObjectPath(p)
	return nil
}

func (ev *Event) writeEventSQL() error {
	tx, err := datastore.Dbh.Begin()
	if err != nil {
		return err
	}
	var sqlStmt string
	if config.Config.UseMySQL {
		sqlStmt = "INSERT INTO events (id, at, actor, action, path, subject, role, propagate) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"
	} else {
		sqlStmt = "INSERT INTO maitred.events (id, at, actor, action, path, subject, role, propagate) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)"
	}
	_, err = tx.Exec(sqlStmt, ev.ID, ev.Time, ev.Actor, ev.Action, ev.Path.String(), ev.Subject, ev.Role, ev.Propagate)
	if err != nil {
		tx.Rollback()
		return err
	}
	tx.Commit()
	return nil
}

func getEventSQL(id string) (*Event, error) {
	ev := new(Event)
	var sqlStmt string
	if config.Config.UseMySQL {
		sqlStmt = "SELECT id, at, actor, action, path, subject, role, propagate FROM events WHERE id = ?"
	} else {
		sqlStmt = "SELECT id, at, actor, action, path, subject, role, propagate FROM maitred.events WHERE id = $1"
	}
	stmt, err := datastore.Dbh.Prepare(sqlStmt)
	if err != nil {
		return nil, err
	}
	defer stmt.Close()
	row := stmt.QueryRow(id)
	if err = ev.fillEventFromSQL(row); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return ev, nil
}

func (ev *Event) deleteSQL() error {
	tx, err := datastore.Dbh.Begin()
	if err != nil {
		return err
	}
	var sqlStmt string
	if config.Config.UseMySQL {
		sqlStmt = "DELETE FROM events WHERE id = ?"
	} else {
		sqlStmt = "DELETE FROM maitred.events WHERE id = $1"
	}
	if _, err = tx.Exec(sqlStmt, ev.ID); err != nil {
		tx.Rollback()
		return err
	}
	tx.Commit()
	return nil
}

func allEventsSQL() ([]*Event, error) {
	var sqlStmt string
	if config.Config.UseMySQL {
		sqlStmt = "SELECT id, at, actor, action, path, subject, role, propagate FROM events ORDER BY at DESC"
	} else {
		sqlStmt = "SELECT id, at, actor, action, path, subject, role, propagate FROM maitred.events ORDER BY at DESC"
	}
	rows, err := datastore.Dbh.Query(sqlStmt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	var evts []*Event
	for rows.Next() {
		ev := new(Event)
		if err = ev.fillEventFromSQL(rows); err != nil {
			rows.Close()
			return nil, err
		}
		evts = append(evts, ev)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return evts, nil
}

func purgeSQL(t time.Time) (int64, error) {
	tx, err := datastore.Dbh.Begin()
	if err != nil {
		return 0, err
	}
	var sqlStmt string
	if config.Config.UseMySQL {
		sqlStmt = "DELETE FROM events WHERE at < ?"
	} else {
		sqlStmt = "DELETE FROM maitred.events WHERE at < $1"
	}
	res, err := tx.Exec(sqlStmt, t)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	purged, _ := res.RowsAffected()
	tx.Commit()
	return purged, nil
}
