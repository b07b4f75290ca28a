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

// General functions for maitred database connections, if running in that
// mode. Database engine specific functions are in their respective source
// files.

package datastore

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/cmorbern/maitred/config"
	// just want the side effects
	_ "github.com/go-sql-driver/mysql"
	// just want the side effects
	_ "github.com/lib/pq"
)

// Dbh is the database handle, shared around.
var Dbh *sql.DB

// MySQLTimeFormat is the format to use for dates and times with MySQL.
const MySQLTimeFormat = "2006-01-02 15:04:05"

// Dbhandle is an interface for db handle types that can execute queries.
type Dbhandle interface {
	Prepare(query string) (*sql.Stmt, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	Query(query string, args ...interface{}) (*sql.Rows, error)
	Exec(query string, args ...interface{}) (sql.Result, error)
}

// ResRow is an interface for rows returned by Query, or a single row returned
// by QueryRow. Used for passing in a db handle or a transaction to a
// function.
type ResRow interface {
	Scan(dest ...interface{}) error
}

// ConnectDB connects to a database with the database name and a map of
// connection options. Currently supports MySQL and PostgreSQL.
func ConnectDB(dbEngine string, params interface{}) (*sql.DB, error) {
	switch strings.ToLower(dbEngine) {
	case "mysql", "postgres":
		var connectStr string
		var cerr error
		switch strings.ToLower(dbEngine) {
		case "mysql":
			connectStr, cerr = formatMysqlConStr(params)
		case "postgres":
			// no error needed at this step with postgres
			connectStr = formatPostgresqlConStr(params)
		}
		if cerr != nil {
			return nil, cerr
		}
		db, err := sql.Open(strings.ToLower(dbEngine), connectStr)
		if err != nil {
			return nil, err
		}
		if err = db.Ping(); err != nil {
			return nil, err
		}
		db.SetMaxIdleConns(config.Config.DbPoolSize)
		db.SetMaxOpenConns(config.Config.MaxConn)
		return db, nil
	default:
		err := fmt.Errorf("cannot connect to database: unsupported database type %s", dbEngine)
		return nil, err
	}
}
