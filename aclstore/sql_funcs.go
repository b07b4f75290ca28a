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

package aclstore

/* Generic SQL functions for ACL entries */

import (
	"fmt"

	"github.com/cmorbern/maitred/config"
	"github.com/cmorbern/maitred/datastore"
	"github.com/cmorbern/maitred/objpath"
)

// SQLPersister keeps ACL entries in the configured SQL database, using the
// shared database handle.
type SQLPersister struct{}

// LoadAll fetches every ACL entry from the database.
func (sp SQLPersister) LoadAll() ([]*Entry, error) {
	var sqlStmt string
	if config.Config.UseMySQL {
		sqlStmt = "SELECT path, subject, role, propagate FROM acls ORDER BY path, subject, role"
	} else {
		sqlStmt = "SELECT path, subject, role, propagate FROM maitred.acls ORDER BY path, subject, role"
	}
	rows, err := datastore.Dbh.Query(sqlStmt)
	if err != nil {
		return nil, err
	}
	var entries []*Entry
	for rows.Next() {
		e := new(Entry)
		var p string
		if err = rows.Scan(&p, &e.Subject, &e.Role, &e.Propagate); err != nil {
			rows.Close()
			return nil, err
		}
		e.Path = objpath.ObjectPath(p)
		entries = append(entries, e)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// OnChange mirrors a mutation into the database.
func (sp SQLPersister) OnChange(e *Entry, op string) error {
	switch op {
	case OpInsert:
		if config.Config.UseMySQL {
			return e.insertMySQL()
		}
		return e.insertPostgreSQL()
	case OpRemove:
		return e.removeSQL()
	default:
		return fmt.Errorf("unknown ACL mutation op %s", op)
	}
}

func (e *Entry) removeSQL() error {
	var sqlStmt string
	if config.Config.UseMySQL {
		sqlStmt = "DELETE FROM acls WHERE path = ? AND subject = ? AND role = ?"
	} else {
		sqlStmt = "DELETE FROM maitred.acls WHERE path = $1 AND subject = $2 AND role = $3"
	}
	tx, err := datastore.Dbh.Begin()
	if err != nil {
		return err
	}
	if _, err = tx.Exec(sqlStmt, e.Path.String(), e.Subject, e.Role); err != nil {
		tx.Rollback()
		return err
	}
	tx.Commit()
	return nil
}
