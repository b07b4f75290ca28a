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

/* MySQL specific functions for ACL entries */

import (
	"github.com/cmorbern/maitred/datastore"
)

func (e *Entry) insertMySQL() error {
	tx, err := datastore.Dbh.Begin()
	if err != nil {
		return err
	}
	sqlStmt := "INSERT INTO acls (path, subject, role, propagate) VALUES (?, ?, ?, ?) ON DUPLICATE KEY UPDATE propagate = VALUES(propagate)"
	if _, err = tx.Exec(sqlStmt, e.Path.String(), e.Subject, e.Role, e.Propagate); err != nil {
		tx.Rollback()
		return err
	}
	tx.Commit()
	return nil
}
