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

/* Generic SQL functions for groups */

import (
	"database/sql"

	"github.com/cmorbern/maitred/config"
	"github.com/cmorbern/maitred/datastore"
	"github.com/cmorbern/maitred/util"
)

func checkForGroupSQL(dbhandle datastore.Dbhandle, name string) (bool, error) {
	var sqlStmt string
	if config.Config.UseMySQL {
		sqlStmt = "SELECT COUNT(*) FROM groups WHERE name = ?"
	} else {
		sqlStmt = "SELECT COUNT(*) FROM maitred.groups WHERE name = $1"
	}
	stmt, err := dbhandle.Prepare(sqlStmt)
	if err != nil {
		return false, err
	}
	defer stmt.Close()
	var c int
	err = stmt.QueryRow(name).Scan(&c)
	if err != nil {
		return false, err
	}
	return c != 0, nil
}

func getGroupSQL(name string) (*Group, util.Gerror) {
	var sqlStmt string
	if config.Config.UseMySQL {
		sqlStmt = "SELECT name FROM groups WHERE name = ?"
	} else {
		sqlStmt = "SELECT name FROM maitred.groups WHERE name = $1"
	}
	stmt, err := datastore.Dbh.Prepare(sqlStmt)
	if err != nil {
		return nil, util.CastErr(err)
	}
	defer stmt.Close()
	g := new(Group)
	err = stmt.QueryRow(name).Scan(&g.Name)
	if err == sql.ErrNoRows {
		return nil, util.NotFoundError("group '%s' not found", name)
	} else if err != nil {
		return nil, util.CastErr(err)
	}
	if err = g.fillMembersSQL(); err != nil {
		return nil, util.CastErr(err)
	}
	return g, nil
}

func (g *Group) fillMembersSQL() error {
	var memStmt, subStmt string
	if config.Config.UseMySQL {
		memStmt = "SELECT member FROM group_members WHERE group_name = ? ORDER BY member"
		subStmt = "SELECT subgroup FROM group_subgroups WHERE group_name = ? ORDER BY subgroup"
	} else {
		memStmt = "SELECT member FROM maitred.group_members WHERE group_name = $1 ORDER BY member"
		subStmt = "SELECT subgroup FROM maitred.group_subgroups WHERE group_name = $1 ORDER BY subgroup"
	}
	g.Members = []string{}
	g.Groups = []string{}

	rows, err := datastore.Dbh.Query(memStmt, g.Name)
	if err != nil {
		return err
	}
	for rows.Next() {
		var mem string
		if err = rows.Scan(&mem); err != nil {
			rows.Close()
			return err
		}
		g.Members = append(g.Members, mem)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return err
	}

	rows, err = datastore.Dbh.Query(subStmt, g.Name)
	if err != nil {
		return err
	}
	for rows.Next() {
		var sub string
		if err = rows.Scan(&sub); err != nil {
			rows.Close()
			return err
		}
		g.Groups = append(g.Groups, sub)
	}
	rows.Close()
	return rows.Err()
}

func (g *Group) saveSQL() util.Gerror {
	tx, err := datastore.Dbh.Begin()
	if err != nil {
		return util.CastErr(err)
	}
	var upsert, delMem, delSub, insMem, insSub string
	if config.Config.UseMySQL {
		upsert = "INSERT IGNORE INTO groups (name) VALUES (?)"
		delMem = "DELETE FROM group_members WHERE group_name = ?"
		delSub = "DELETE FROM group_subgroups WHERE group_name = ?"
		insMem = "INSERT INTO group_members (group_name, member) VALUES (?, ?)"
		insSub = "INSERT INTO group_subgroups (group_name, subgroup) VALUES (?, ?)"
	} else {
		upsert = "INSERT INTO maitred.groups (name) VALUES ($1) ON CONFLICT (name) DO NOTHING"
		delMem = "DELETE FROM maitred.group_members WHERE group_name = $1"
		delSub = "DELETE FROM maitred.group_subgroups WHERE group_name = $1"
		insMem = "INSERT INTO maitred.group_members (group_name, member) VALUES ($1, $2)"
		insSub = "INSERT INTO maitred.group_subgroups (group_name, subgroup) VALUES ($1, $2)"
	}
	if _, err = tx.Exec(upsert, g.Name); err != nil {
		tx.Rollback()
		return util.CastErr(err)
	}
	if _, err = tx.Exec(delMem, g.Name); err != nil {
		tx.Rollback()
		return util.CastErr(err)
	}
	if _, err = tx.Exec(delSub, g.Name); err != nil {
		tx.Rollback()
		return util.CastErr(err)
	}
	for _, mem := range g.Members {
		if _, err = tx.Exec(insMem, g.Name, mem); err != nil {
			tx.Rollback()
			return util.CastErr(err)
		}
	}
	for _, sub := range g.Groups {
		if _, err = tx.Exec(insSub, g.Name, sub); err != nil {
			tx.Rollback()
			return util.CastErr(err)
		}
	}
	tx.Commit()
	return nil
}

func (g *Group) deleteSQL() util.Gerror {
	tx, err := datastore.Dbh.Begin()
	if err != nil {
		return util.CastErr(err)
	}
	var delGrp, delMem, delSub, scrub string
	if config.Config.UseMySQL {
		delGrp = "DELETE FROM groups WHERE name = ?"
		delMem = "DELETE FROM group_members WHERE group_name = ?"
		delSub = "DELETE FROM group_subgroups WHERE group_name = ?"
		scrub = "DELETE FROM group_subgroups WHERE subgroup = ?"
	} else {
		delGrp = "DELETE FROM maitred.groups WHERE name = $1"
		delMem = "DELETE FROM maitred.group_members WHERE group_name = $1"
		delSub = "DELETE FROM maitred.group_subgroups WHERE group_name = $1"
		scrub = "DELETE FROM maitred.group_subgroups WHERE subgroup = $1"
	}
	for _, stmt := range []string{delMem, delSub, scrub, delGrp} {
		if _, err = tx.Exec(stmt, g.Name); err != nil {
			tx.Rollback()
			return util.CastErr(err)
		}
	}
	tx.Commit()
	return nil
}

func allGroupsSQL() ([]*Group, error) {
	var sqlStmt string
	if config.Config.UseMySQL {
		sqlStmt = "SELECT name FROM groups ORDER BY name"
	} else {
		sqlStmt = "SELECT name FROM maitred.groups ORDER BY name"
	}
	rows, err := datastore.Dbh.Query(sqlStmt)
	if err != nil {
		return nil, err
	}
	var names []string
	for rows.Next() {
		var n string
		if err = rows.Scan(&n); err != nil {
			rows.Close()
			return nil, err
		}
		names = append(names, n)
	}
	rows.Close()
	if err = rows.Err(); err != nil {
		return nil, err
	}
	groups := make([]*Group, 0, len(names))
	for _, n := range names {
		g, gerr := getGroupSQL(n)
		if gerr != nil {
			return nil, gerr
		}
		groups = append(groups, g)
	}
	return groups, nil
}
