/* Maitred configuration. */

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

// Package config parses command line flags and config files, and defines
// options used elsewhere in maitred.
package config

import (
	"fmt"
	"os"
	"path"

	"github.com/BurntSushi/toml"
	"github.com/jessevdk/go-flags"
	"github.com/tideland/golib/logger"
)

// Conf is the master struct for holding configuration options.
type Conf struct {
	ConfFile          string              `toml:"conf-file"`
	DataStoreFile     string              `toml:"data-file"`
	FreezeInterval    int                 `toml:"freeze-interval"`
	FreezeData        bool                `toml:"freeze-data"`
	DebugLevel        int                 `toml:"debug-level"`
	LogLevel          string              `toml:"log-level"`
	LogFile           string              `toml:"log-file"`
	SysLog            bool                `toml:"syslog"`
	LogEvents         bool                `toml:"log-events"`
	UseMySQL          bool                `toml:"use-mysql"`
	MySQL             MySQLdb             `toml:"mysql"`
	UsePostgreSQL     bool                `toml:"use-postgresql"`
	PostgreSQL        PostgreSQLdb        `toml:"postgresql"`
	DbPoolSize        int                 `toml:"db-pool-size"`
	MaxConn           int                 `toml:"max-connections"`
	UseUnsafeMemStore bool                `toml:"use-unsafe-mem-store"`
	UseStatsd         bool                `toml:"use-statsd"`
	StatsdAddr        string              `toml:"statsd-addr"`
	StatsdType        string              `toml:"statsd-type"`
	StatsdInstance    string              `toml:"statsd-instance"`
	CacheDecisions    bool                `toml:"cache-decisions"`
	CacheTTL          int                 `toml:"cache-ttl"`
	RootAdmin         string              `toml:"root-admin"`
	Roles             map[string][]string `toml:"roles"`
	DoExport          bool
	DoImport          bool
	ImpExFile         string
}

// MySQLdb holds MySQL connection options.
type MySQLdb struct {
	Username    string
	Password    string
	Protocol    string
	Address     string
	Port        string
	Dbname      string
	ExtraParams map[string]string `toml:"extra_params"`
}

// PostgreSQLdb holds PostgreSQL connection options.
type PostgreSQLdb struct {
	Username string
	Password string
	Host     string
	Port     string
	Dbname   string
	SSLMode  string
}

// Options holds options set from the command line, which are then merged with
// the configuration file. Options from the command line take precedence over
// ones from the config file.
type Options struct {
	Version           bool   `short:"v" long:"version" description:"Print version info."`
	Verbose           []bool `short:"V" long:"verbose" description:"Show verbose debug information. Repeat for more verbosity."`
	ConfFile          string `short:"c" long:"config" description:"Specify a config file to use."`
	DataStoreFile     string `short:"D" long:"data-file" description:"File to save ACL data store data to."`
	FreezeInterval    int    `short:"F" long:"freeze-interval" description:"Interval in seconds to freeze in-memory data structures to disk if there have been any changes (requires -D/--data-file option to be set). (Default 10 seconds.)"`
	LogFile           string `short:"L" long:"log-file" description:"Log to file X"`
	SysLog            bool   `short:"s" long:"syslog" description:"Log to syslog rather than a log file."`
	LogEvents         bool   `long:"log-events" description:"Log changes to ACL entries and groups."`
	Export            string `short:"x" long:"export" description:"Export all ACL data to the given file, exiting afterwards. Should be used with caution. Cannot be used at the same time as -m/--import."`
	Import            string `short:"m" long:"import" description:"Import data from the given file, exiting afterwards. Cannot be used at the same time as -x/--export."`
	UseMySQL          bool   `long:"use-mysql" description:"Use a MySQL database for data storage. Configure database options in the config file."`
	UsePostgreSQL     bool   `long:"use-postgresql" description:"Use a PostgreSQL database for data storage. Configure database options in the config file."`
	UseUnsafeMemStore bool   `long:"use-unsafe-mem-store" description:"Use the faster, but less safe, old method of storing data in the in-memory data store with pointers, rather than encoding the data with gob and giving each requestor its own copy."`
	UseStatsd         bool   `long:"use-statsd" description:"Whether or not to collect statistics about maitred and send them to statsd."`
	StatsdAddr        string `long:"statsd-addr" description:"IP address and port of statsd instance to connect to. (default 'localhost:8125')"`
	StatsdType        string `long:"statsd-type" description:"statsd format, can be either 'standard' or 'datadog' (default 'standard')"`
	StatsdInstance    string `long:"statsd-instance" description:"Statsd instance name to use for this server. Defaults to the server's hostname, with '.' replaced by '_'."`
	RootAdmin         string `long:"root-admin" description:"Subject granted the Administrator role at / when the ACL table is empty, so a fresh installation is not born locked out. (default 'root@pam')"`
}

// Version is the current maitred version.
const Version = "0.3.1"

/* The general plan mirrors the old one: read the command line options first,
 * so we know whether to look for a different config file, then parse the
 * config file, then apply the command line options on top of it. */

func initConfig() *Conf { return &Conf{} }

// Config is the global configuration struct, with the options specified on
// the command line or in the config file.
var Config = initConfig()

// UsingDB returns true if maitred is configured to use an SQL backend for
// ACL storage rather than the in-memory data store.
func UsingDB() bool {
	return Config.UseMySQL || Config.UsePostgreSQL
}

// ParseConfigOptions reads and applies arguments from the command line and
// the configuration file, merging the two. It returns any arguments left over
// after flag parsing; those are one-shot administrative commands for main to
// dispatch.
func ParseConfigOptions() ([]string, error) {
	var opts = &Options{}
	cmdArgs, err := flags.Parse(opts)

	if err != nil {
		if ferr, ok := err.(*flags.Error); ok && ferr.Type == flags.ErrHelp {
			os.Exit(0)
		} else {
			logger.Criticalf(err.Error())
			os.Exit(1)
		}
	}

	if opts.Version {
		fmt.Printf("maitred version %s\n", Version)
		os.Exit(0)
	}

	/* Load the config file. Command-line options have precedence over
	 * config file options. */
	if opts.ConfFile != "" {
		if _, err := toml.DecodeFile(opts.ConfFile, Config); err != nil {
			return nil, err
		}
		Config.ConfFile = opts.ConfFile
	}

	if opts.Export != "" && opts.Import != "" {
		err := fmt.Errorf("Cannot use -x/--export and -m/--import flags together.")
		return nil, err
	}
	if opts.Export != "" {
		Config.DoExport = true
		Config.ImpExFile = opts.Export
	} else if opts.Import != "" {
		Config.DoImport = true
		Config.ImpExFile = opts.Import
	}

	if opts.DataStoreFile != "" {
		Config.DataStoreFile = opts.DataStoreFile
	}
	if Config.DataStoreFile != "" {
		Config.FreezeData = true
	}
	if opts.FreezeInterval != 0 {
		Config.FreezeInterval = opts.FreezeInterval
	}
	if Config.FreezeInterval == 0 {
		Config.FreezeInterval = 10
	}

	if opts.LogFile != "" {
		Config.LogFile = opts.LogFile
	}
	if opts.SysLog {
		Config.SysLog = opts.SysLog
	}
	if opts.LogEvents {
		Config.LogEvents = opts.LogEvents
	}
	if Config.LogFile != "" {
		lfp, lerr := os.Create(Config.LogFile)
		if lerr != nil {
			logger.Criticalf(lerr.Error())
			os.Exit(1)
		}
		logger.SetLogger(logger.NewTimeformatLogger(lfp, "2006-01-02T15:04:05.999Z07:00"))
	} else {
		logger.SetLogger(logger.NewGoLogger())
	}

	if dlev := len(opts.Verbose); dlev != 0 {
		Config.DebugLevel = dlev
	}
	if Config.LogLevel != "" && Config.DebugLevel == 0 {
		Config.DebugLevel = debugLevelFromName(Config.LogLevel)
	}
	if Config.DebugLevel > 4 {
		Config.DebugLevel = 4
	}
	// DebugLevel starts at "warning" and works its way up to "debug".
	lev := int(logger.LevelWarning) - Config.DebugLevel
	if lev < int(logger.LevelDebug) {
		lev = int(logger.LevelDebug)
	}
	logger.SetLevel(logger.LogLevel(lev))
	logger.Debugf("maitred version %s starting", Version)

	if opts.UseMySQL {
		Config.UseMySQL = opts.UseMySQL
	}
	if opts.UsePostgreSQL {
		Config.UsePostgreSQL = opts.UsePostgreSQL
	}
	if Config.UseMySQL && Config.UsePostgreSQL {
		err := fmt.Errorf("The MySQL and PostgreSQL options cannot be used at the same time.")
		return nil, err
	}
	if Config.DbPoolSize == 0 {
		Config.DbPoolSize = 10
	}
	if Config.MaxConn == 0 {
		Config.MaxConn = 25
	}
	if UsingDB() && Config.FreezeData {
		logger.Warningf("The freeze-data options are moot with an SQL backend; ignoring them.")
		Config.FreezeData = false
	}

	if opts.UseUnsafeMemStore {
		Config.UseUnsafeMemStore = opts.UseUnsafeMemStore
	}

	if opts.UseStatsd {
		Config.UseStatsd = opts.UseStatsd
	}
	if opts.StatsdAddr != "" {
		Config.StatsdAddr = opts.StatsdAddr
	}
	if opts.StatsdType != "" {
		Config.StatsdType = opts.StatsdType
	}
	if opts.StatsdInstance != "" {
		Config.StatsdInstance = opts.StatsdInstance
	}
	if Config.StatsdAddr == "" {
		Config.StatsdAddr = "localhost:8125"
	}
	if Config.StatsdType == "" {
		Config.StatsdType = "standard"
	}
	if Config.StatsdInstance == "" {
		hn, herr := os.Hostname()
		if herr != nil {
			hn = "localhost"
		}
		Config.StatsdInstance = replaceDots(hn)
	}

	if Config.CacheTTL == 0 {
		Config.CacheTTL = 30
	}

	if opts.RootAdmin != "" {
		Config.RootAdmin = opts.RootAdmin
	}
	if Config.RootAdmin == "" {
		Config.RootAdmin = "root@pam"
	}

	if Config.ConfFile != "" && Config.DataStoreFile != "" && !path.IsAbs(Config.DataStoreFile) {
		Config.DataStoreFile = path.Join(path.Dir(Config.ConfFile), Config.DataStoreFile)
	}

	return cmdArgs, nil
}

/* Named log levels become the DebugLevel offset subtracted from the warning
 * baseline: positive offsets get louder, negative ones quieter. */
func debugLevelFromName(name string) int {
	switch name {
	case "debug":
		return 2
	case "info":
		return 1
	case "warning":
		return 0
	case "error":
		return -1
	case "critical":
		return -2
	default:
		logger.Warningf("unknown log-level %q in config file, using 'warning'", name)
		return 0
	}
}

func replaceDots(s string) string {
	b := []byte(s)
	for i := range b {
		if b[i] == '.' {
			b[i] = '_'
		}
	}
	return string(b)
}
