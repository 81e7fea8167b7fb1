/*
 * GSClient
 *
 * Copyright 2026 The GSClient Authors. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

/*
Package server contains the code for the GSClient server.

The server connects to the query cluster, keeps the graph metadata in sync and
exposes both through a REST API.
*/
package server

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"devt.de/krotik/common/datautil"
	"devt.de/krotik/common/fileutil"
	"devt.de/krotik/common/httputil"
	"devt.de/krotik/common/lockutil"
	"devt.de/krotik/common/logutil"
	"devt.de/krotik/common/timeutil"
	"devt.de/krotik/gsclient/api"
	v1 "devt.de/krotik/gsclient/api/v1"
	"devt.de/krotik/gsclient/cluster"
	"devt.de/krotik/gsclient/config"
	"devt.de/krotik/gsclient/ecal"
	"devt.de/krotik/gsclient/ecal/gsfunc"
	"devt.de/krotik/gsclient/meta"
	"devt.de/krotik/gsclient/reader"
	"devt.de/krotik/gsclient/transport"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

/*
Using custom consolelogger type so we can test log.Fatal calls with unit tests. Overwrite
these if the server should not call os.Exit on a fatal error.
*/
type consolelogger func(v ...interface{})

var fatal = consolelogger(log.Fatal)
var print = consolelogger(log.Print)

/*
Base path for all file (used by unit tests)
*/
var basepath = ""

/*
closableFetcher is a metadata fetcher which runs background tasks.
*/
type closableFetcher interface {
	meta.Fetcher
	Close() error
}

/*
StartServer runs the GSClient server. The server uses config.Config for all its
configuration parameters.
*/
func StartServer() {
	StartServerWithSingleOp(nil)
}

/*
StartServerWithSingleOp runs the GSClient server. If the singleOperation function is
not nil then the server executes the function and exits if the function returns true.
*/
func StartServerWithSingleOp(singleOperation func(*cluster.Client, meta.Fetcher) bool) {
	var err error
	var fetcher meta.Fetcher

	print(fmt.Sprintf("GSClient %v", config.ProductVersion))

	// Ensure we have a configuration - use the default configuration if nothing was set

	if config.Config == nil {
		config.LoadDefaultConfig()
	}

	// Setup logging

	setupLogging()

	// Create the ECAL interpreter first so its event bridge can track metadata changes

	env := gsfunc.NewEnvironment()
	trackers := []meta.Tracker{v1.MetaEvents}

	if config.Bool(config.EnableECAL) {
		scriptFolder := filepath.Join(basepath, config.Str(config.ECALScriptFolder))

		print("Loading ECAL scripts in ", scriptFolder)

		ensurePath(scriptFolder)

		api.SI = ecal.NewScriptingInterpreter(scriptFolder, env)

		if err = api.SI.Run(); err != nil {
			fatal("Failed to start ECAL scripting interpreter:", err)
			return
		}

		trackers = append(trackers, api.SI.Bridge)
	}

	// Connect to the query cluster

	endpoints := config.StrList(config.EndpointList)

	print(fmt.Sprintf("Connecting to %v cluster channels: %v", len(endpoints),
		strings.Join(endpoints, ", ")))

	channels, err := transport.Dial(endpoints)
	if err != nil {
		fatal("Failed to connect to cluster:", err)
		return
	}

	client := cluster.NewClient(channels, int(config.Int(config.ResultBufferSize)))
	timeout := time.Duration(config.Int(config.RPCTimeoutMS)) * time.Millisecond

	// Create the metadata fetcher

	var metaReader meta.Reader

	if url := config.Str(config.MetaServiceURL); url != "" {
		print("Reading metadata from service: ", url)
		metaReader = reader.NewHTTPReader(url)

	} else {
		schemaFile := filepath.Join(basepath, config.Str(config.MetaSchemaFile))
		statsFile := config.Str(config.MetaStatsFile)

		if statsFile != "" {
			statsFile = filepath.Join(basepath, statsFile)
		}

		print("Reading metadata from file: ", schemaFile)
		metaReader = reader.NewFileReader(schemaFile, statsFile)
	}

	costBasedPlanner := config.Bool(config.PlannerIsOn) &&
		strings.EqualFold(config.Str(config.PlannerOpt), "CBO")

	if config.Bool(config.EnableDynamicMeta) {
		schemaInterval := time.Duration(config.Int(config.SchemaFetchIntervalMS)) * time.Millisecond
		statsInterval := time.Duration(config.Int(config.StatisticsFetchIntervalMS)) * time.Millisecond

		print(fmt.Sprintf("Starting metadata synchronization (cost based planner: %v)", costBasedPlanner))

		df := meta.NewDynamicFetcher(metaReader, schemaInterval, statsInterval, costBasedPlanner, trackers...)
		df.SyncSchema()
		df.Start()

		fetcher = df

	} else {

		print(fmt.Sprintf("Loading static metadata (cost based planner: %v)", costBasedPlanner))

		if fetcher, err = meta.NewStaticFetcher(metaReader, costBasedPlanner, trackers...); err != nil {
			client.Close()
			fatal("Failed to load metadata:", err)
			return
		}
	}

	env.SetFetcher(fetcher)
	env.SetClient(client, timeout)

	api.Fetcher = fetcher
	api.Client = client

	defer func() {

		print("Closing cluster channels")

		if cf, ok := fetcher.(closableFetcher); ok {
			cf.Close()
		}

		if api.SI != nil && api.SI.Bridge != nil {
			api.SI.Bridge.Close()
		}

		if err := client.Close(); err != nil {
			fatal(err)
			return
		}

		os.RemoveAll(filepath.Join(basepath, config.Str(config.LockFile)))
	}()

	// Handle single operation - these are operations which work on the client
	// and then exit.

	if singleOperation != nil && singleOperation(client, fetcher) {
		return
	}

	// Setting other API parameters

	api.APIHost = config.Str(config.HTTPHost) + ":" + config.Str(config.HTTPPort)
	v1.DefaultQueryTimeout = timeout

	// Register REST endpoints

	api.RegisterRestEndpoints(api.GeneralEndpointMap)
	api.RegisterRestEndpoints(v1.V1EndpointMap)

	if config.Bool(config.EnableMetrics) {
		api.HandleFunc("/metrics", promhttp.Handler().ServeHTTP)
	}

	// Start HTTP server and enable REST API

	hs := &httputil.HTTPServer{}

	var wg sync.WaitGroup
	wg.Add(1)

	port := config.Str(config.HTTPPort)

	print("Starting server on: ", api.APIHost)

	go hs.RunHTTPServer(":"+port, &wg)

	// Wait until the server has started

	wg.Wait()

	if hs.LastError != nil {
		fatal(hs.LastError)
		return
	}

	// Create a lockfile so the server can be shut down

	lf := lockutil.NewLockFile(filepath.Join(basepath, config.Str(config.LockFile)), time.Duration(2)*time.Second)

	lf.Start()

	go func() {

		// Check if the lockfile watcher is running and
		// call shutdown once it has finished

		for lf.WatcherRunning() {
			time.Sleep(time.Duration(1) * time.Second)
		}

		print("Lockfile was modified")

		hs.Shutdown()
	}()

	// Add to the wait group so we can wait for the shutdown

	wg.Add(1)

	print("Waiting for shutdown")
	wg.Wait()

	print("Shutting down")
}

/*
logLevels lists all log levels from the lowest to the highest priority.
*/
var logLevels = []logutil.Level{logutil.Debug, logutil.Info, logutil.Warning, logutil.Error}

/*
levelEnabled checks if messages of a given level pass a configured log level.
*/
func levelEnabled(configured logutil.Level, l logutil.Level) bool {
	pos := func(lvl logutil.Level) int {
		for i, ll := range logLevels {
			if ll == lvl {
				return i
			}
		}
		return 0
	}
	return pos(l) >= pos(configured)
}

/*
setupLogging routes the log messages of all components which pass the configured
log level into the console sink and the event log of the REST API.
*/
func setupLogging() {
	level := logutil.StringToLoglevel(config.Str(config.LogLevel))
	if level == "" {
		level = logutil.Info
	}

	logutil.ClearLogSinks()
	logutil.GetLogger("").AddLogSink(level, logutil.SimpleFormatter(), os.Stderr)

	api.EventLog = datautil.NewRingBuffer(int(config.Int(config.EventLogHistory)))

	logger := func(scope string, msgLevel logutil.Level) func(v ...interface{}) {

		if !levelEnabled(level, msgLevel) {
			return func(v ...interface{}) {}
		}

		l := logutil.GetLogger(scope)

		return func(v ...interface{}) {
			switch msgLevel {
			case logutil.Debug:
				l.Debug(v...)
			case logutil.Warning:
				l.Warning(v...)
			default:
				l.Info(v...)
			}
			api.EventLog.Log(timeutil.MakeTimestamp(), " [", scope, "] ", fmt.Sprint(v...))
		}
	}

	meta.LogInfo = logger("meta", logutil.Info)
	meta.LogDebug = logger("meta", logutil.Debug)
	meta.LogWarning = logger("meta", logutil.Warning)

	cluster.LogInfo = logger("cluster", logutil.Info)
	cluster.LogDebug = logger("cluster", logutil.Debug)

	transport.LogInfo = logger("transport", logutil.Info)
	transport.LogDebug = logger("transport", logutil.Debug)

	reader.LogDebug = logger("reader", logutil.Debug)
}

/*
ensurePath ensures that a given relative path exists.
*/
func ensurePath(path string) {
	if res, _ := fileutil.PathExists(path); !res {
		if err := os.Mkdir(path, 0770); err != nil {
			fatal("Could not create directory:", err.Error())
			return
		}
	}
}
