/* A privilege and ACL evaluation daemon for datacenter management tools, as
 * the piece that decides who may do what to which object. */

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
	"bufio"
	"encoding/gob"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cmorbern/maitred/aclstore"
	"github.com/cmorbern/maitred/authz"
	"github.com/cmorbern/maitred/config"
	"github.com/cmorbern/maitred/datastore"
	"github.com/cmorbern/maitred/eventlog"
	"github.com/cmorbern/maitred/group"
	"github.com/cmorbern/maitred/objpath"
	"github.com/cmorbern/maitred/privilege"
	"github.com/cmorbern/maitred/role"
	"github.com/raintank/met/helper"
	"github.com/tideland/golib/logger"
)

func main() {
	cmdArgs, cerr := config.ParseConfigOptions()
	if cerr != nil {
		logger.Fatalf(cerr.Error())
		os.Exit(1)
	}

	/* Here goes nothing, db... */
	if config.UsingDB() {
		var derr error
		if config.Config.UseMySQL {
			datastore.Dbh, derr = datastore.ConnectDB("mysql", config.Config.MySQL)
		} else if config.Config.UsePostgreSQL {
			datastore.Dbh, derr = datastore.ConnectDB("postgres", config.Config.PostgreSQL)
		}
		if derr != nil {
			logger.Fatalf(derr.Error())
			os.Exit(1)
		}
	}

	gobRegister()
	ds := datastore.New()
	if config.Config.FreezeData && config.Config.DataStoreFile != "" {
		uerr := ds.Load(config.Config.DataStoreFile)
		if uerr != nil {
			logger.Fatalf(uerr.Error())
			os.Exit(1)
		}
	}

	if len(config.Config.Roles) > 0 {
		if rerr := role.LoadCustom(config.Config.Roles); rerr != nil {
			logger.Fatalf(rerr.Error())
			os.Exit(1)
		}
	}

	store := aclstore.Default()
	store.SetPersister(aclstore.NewPersister())
	if lerr := store.Load(); lerr != nil {
		logger.Fatalf(lerr.Error())
		os.Exit(1)
	}

	metricsBackend, merr := helper.New(config.Config.UseStatsd, config.Config.StatsdAddr, config.Config.StatsdType, "maitred", config.Config.StatsdInstance)
	if merr != nil {
		logger.Fatalf(merr.Error())
		os.Exit(1)
	}
	authz.InitializeMetrics(metricsBackend)

	auth := authz.New(store, group.Resolver{})
	if berr := auth.Bootstrap(config.Config.RootAdmin); berr != nil {
		logger.Fatalf(berr.Error())
		os.Exit(1)
	}

	/* handle import/export */
	if config.Config.DoExport {
		fmt.Printf("Exporting data to %s....\n", config.Config.ImpExFile)
		err := exportAll(config.Config.ImpExFile, store)
		if err != nil {
			logger.Criticalf("Something went wrong during the export: %s", err.Error())
			os.Exit(1)
		}
		fmt.Println("All done!")
		os.Exit(0)
	} else if config.Config.DoImport {
		fmt.Printf("Importing data from %s....\n", config.Config.ImpExFile)
		err := importAll(config.Config.ImpExFile, store)
		if err != nil {
			logger.Criticalf("Something went wrong during the import: %s", err.Error())
			os.Exit(1)
		}
		saveData(ds)
		if config.UsingDB() {
			datastore.Dbh.Close()
		}
		fmt.Println("All done.")
		os.Exit(0)
	}

	if len(cmdArgs) > 0 {
		err := runCommand(auth, cmdArgs)
		saveData(ds)
		if config.UsingDB() {
			datastore.Dbh.Close()
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
		os.Exit(0)
	}

	setSaveTicker(ds)
	handleSignals(ds)

	/* No command given: take commands from stdin until EOF. */
	shell(auth)
	saveData(ds)
	if config.UsingDB() {
		datastore.Dbh.Close()
	}
}

func shell(auth *authz.Authorizer) {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		args := strings.Fields(sc.Text())
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" || args[0] == "quit" {
			return
		}
		if err := runCommand(auth, args); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
		}
	}
	if err := sc.Err(); err != nil {
		logger.Errorf("reading commands: %s", err.Error())
	}
}

func runCommand(auth *authz.Authorizer, args []string) error {
	cmd := args[0]
	args = args[1:]
	switch cmd {
	case "grant":
		if len(args) < 4 {
			return fmt.Errorf("usage: grant <actor> <path> <subject> <role> [no-propagate]")
		}
		propagate := true
		if len(args) > 4 && args[4] == "no-propagate" {
			propagate = false
		}
		if err := auth.Grant(args[0], args[1], args[2], args[3], propagate); err != nil {
			return fmt.Errorf("grant: %s", err.Error())
		}
		fmt.Printf("granted %s to %s at %s\n", args[3], args[2], args[1])
	case "revoke":
		if len(args) != 4 {
			return fmt.Errorf("usage: revoke <actor> <path> <subject> <role>")
		}
		if err := auth.Revoke(args[0], args[1], args[2], args[3]); err != nil {
			return fmt.Errorf("revoke: %s", err.Error())
		}
		fmt.Printf("revoked %s from %s at %s\n", args[3], args[2], args[1])
	case "check":
		if len(args) != 3 {
			return fmt.Errorf("usage: check <subject> <path> <privilege>")
		}
		allowed, err := auth.Check(args[0], args[1], args[2])
		if err != nil {
			return fmt.Errorf("check: %s", err.Error())
		}
		if allowed {
			fmt.Println("allowed")
		} else {
			fmt.Println("denied")
		}
	case "perms":
		if len(args) != 2 {
			return fmt.Errorf("usage: perms <subject> <path>")
		}
		privs, err := auth.PrivilegesAt(args[0], args[1])
		if err != nil {
			return fmt.Errorf("perms: %s", err.Error())
		}
		for _, p := range privs {
			fmt.Println(p)
		}
	case "list":
		var ents []*aclstore.Entry
		if len(args) > 0 {
			p, err := objpath.Normalize(args[0])
			if err != nil {
				return fmt.Errorf("list: %s", err.Error())
			}
			ents = auth.Store().Subtree(p)
		} else {
			ents = auth.Store().AllEntries()
		}
		for _, e := range ents {
			fmt.Println(e.String())
		}
	case "affecting":
		if len(args) != 1 {
			return fmt.Errorf("usage: affecting <path>")
		}
		ents, err := auth.EntriesAffecting(args[0])
		if err != nil {
			return fmt.Errorf("affecting: %s", err.Error())
		}
		for _, e := range ents {
			fmt.Println(e.String())
		}
	case "roles":
		for _, r := range role.All() {
			fmt.Printf("%s: %s\n", r.Name, strings.Join(r.Privileges(), ", "))
		}
	case "privs":
		for _, p := range privilege.All() {
			fmt.Printf("%s (namespace %s)\n", p.Name, p.Namespace)
		}
	case "events":
		for _, ev := range eventlog.AllEvents() {
			fmt.Printf("%s %s %s %s %s %s propagate=%v\n", ev.Time.Format(time.RFC3339), ev.Actor, ev.Action, ev.Role, ev.Subject, ev.Path, ev.Propagate)
		}
	case "group":
		return runGroupCommand(args)
	default:
		return fmt.Errorf("unknown command '%s'", cmd)
	}
	return nil
}

func runGroupCommand(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: group <create|delete|show|list|add|remove|add-group|del-group> ...")
	}
	sub := args[0]
	args = args[1:]
	switch sub {
	case "create":
		if len(args) != 1 {
			return fmt.Errorf("usage: group create <name>")
		}
		g, err := group.New(args[0])
		if err != nil {
			return fmt.Errorf("group create: %s", err.Error())
		}
		if err = g.Save(); err != nil {
			return fmt.Errorf("group create: %s", err.Error())
		}
	case "delete":
		if len(args) != 1 {
			return fmt.Errorf("usage: group delete <name>")
		}
		g, err := group.Get(args[0])
		if err != nil {
			return fmt.Errorf("group delete: %s", err.Error())
		}
		if err = g.Delete(); err != nil {
			return fmt.Errorf("group delete: %s", err.Error())
		}
	case "show":
		if len(args) != 1 {
			return fmt.Errorf("usage: group show <name>")
		}
		g, err := group.Get(args[0])
		if err != nil {
			return fmt.Errorf("group show: %s", err.Error())
		}
		fmt.Printf("%s\n\tmembers: %s\n\tgroups: %s\n", g.Name, strings.Join(g.Members, ", "), strings.Join(g.Groups, ", "))
	case "list":
		for _, g := range group.AllGroups() {
			fmt.Println(g.Name)
		}
	case "add", "remove":
		if len(args) != 2 {
			return fmt.Errorf("usage: group %s <name> <subject>", sub)
		}
		g, err := group.Get(args[0])
		if err != nil {
			return fmt.Errorf("group %s: %s", sub, err.Error())
		}
		if sub == "add" {
			err = g.AddMember(args[1])
		} else {
			err = g.DelMember(args[1])
		}
		if err != nil {
			return fmt.Errorf("group %s: %s", sub, err.Error())
		}
		if err = g.Save(); err != nil {
			return fmt.Errorf("group %s: %s", sub, err.Error())
		}
	case "add-group", "del-group":
		if len(args) != 2 {
			return fmt.Errorf("usage: group %s <name> <subgroup>", sub)
		}
		g, err := group.Get(args[0])
		if err != nil {
			return fmt.Errorf("group %s: %s", sub, err.Error())
		}
		if sub == "add-group" {
			err = g.AddGroup(args[1])
		} else {
			err = g.DelGroup(args[1])
		}
		if err != nil {
			return fmt.Errorf("group %s: %s", sub, err.Error())
		}
		if err = g.Save(); err != nil {
			return fmt.Errorf("group %s: %s", sub, err.Error())
		}
	default:
		return fmt.Errorf("unknown group command '%s'", sub)
	}
	return nil
}

func saveData(ds *datastore.DataStore) {
	if config.Config.FreezeData && config.Config.DataStoreFile != "" {
		if err := ds.Save(config.Config.DataStoreFile); err != nil {
			logger.Errorf(err.Error())
		}
	}
}

func setSaveTicker(ds *datastore.DataStore) {
	if config.Config.FreezeData {
		ticker := time.NewTicker(time.Second * time.Duration(config.Config.FreezeInterval))
		go func() {
			for range ticker.C {
				saveData(ds)
			}
		}()
	}
}

func handleSignals(ds *datastore.DataStore) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	// if we receive a SIGINT or SIGTERM, do cleanup here.
	go func() {
		for sig := range c {
			if sig == os.Interrupt || sig == syscall.SIGTERM {
				logger.Infof("cleaning up...")
				saveData(ds)
				if config.UsingDB() {
					datastore.Dbh.Close()
				}
				os.Exit(0)
			} else if sig == syscall.SIGHUP {
				logger.Infof("Reloading configuration...")
				config.ParseConfigOptions()
			}
		}
	}()
}

func gobRegister() {
	e := new(aclstore.Entry)
	gob.Register(e)
	g := new(group.Group)
	gob.Register(g)
	ev := new(eventlog.Event)
	gob.Register(ev)
	m := make(map[string]interface{})
	gob.Register(m)
	var ss []string
	gob.Register(ss)
	msss := make(map[string][]string)
	gob.Register(msss)
}
