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
Package meta contains the local cache of graph metadata which is used for query
planning.

Snapshot

A snapshot is an immutable bundle of schema, stored procedures and optional
statistics of a graph. A new snapshot is published whenever the graph id or the
schema version changes and whenever new statistics are available.

DynamicFetcher

The dynamic fetcher keeps the published snapshot fresh with two periodic tasks:
one reads the schema and one reads the statistics. Both tasks run under one lock.
Readers get the most recently published snapshot without taking the lock.

Each schema generation starts in the state Initialized and ends either in Synced
(real statistics are available) or in Mocked (statistics are unavailable or
disabled). Trackers are notified at least once per generation about statistics -
if necessary with a snapshot which carries no statistics.

StaticFetcher

The static fetcher reads metadata and statistics once and never changes its
snapshot.
*/
package meta

import (
	"errors"
	"fmt"
	"log"
)

// Logging
// =======

/*
Logger is a function which processes log messages from the metadata cache
*/
type Logger func(v ...interface{})

/*
LogInfo is called if an info message is logged in the metadata cache
*/
var LogInfo = Logger(log.Print)

/*
LogWarning is called if a failure is absorbed by the metadata cache
*/
var LogWarning = Logger(log.Print)

/*
LogDebug is called if a debug message is logged in the metadata cache
(by default disabled)
*/
var LogDebug = Logger(LogNull)

/*
LogNull is a discarding logger to be used for disabling loggers
*/
var LogNull = func(v ...interface{}) {
}

// Errors
// ======

/*
Error is a metadata related error
*/
type Error struct {
	Type   error  // Error type (to be used for equal checks)
	Detail string // Details of this error
}

/*
Error returns a human-readable string representation of this error.
*/
func (me *Error) Error() string {
	if me.Detail != "" {
		return fmt.Sprintf("MetaError: %v (%v)", me.Type, me.Detail)
	}

	return fmt.Sprintf("MetaError: %v", me.Type)
}

/*
Is reports if the error has the given error type.
*/
func (me *Error) Is(target error) bool {
	return me.Type == target
}

/*
Metadata related error types
*/
var (
	ErrReading  = errors.New("Could not read metadata")
	ErrNotFound = errors.New("Not found")
	ErrConfig   = errors.New("Invalid configuration")
)

// Interfaces
// ==========

/*
Reader reads metadata from a metadata source.
*/
type Reader interface {

	/*
		ReadMeta reads the current graph id, snapshot id, schema and stored procedures.
	*/
	ReadMeta() (*Meta, error)

	/*
		ReadStats reads the statistics of a graph. Returns nil if no statistics exist.
	*/
	ReadStats(id GraphID) (*Statistics, error)

	/*
		SyncStatsEnabled checks if statistics should be synchronized for a graph.
	*/
	SyncStatsEnabled(id GraphID) (bool, error)
}

/*
Tracker is notified about metadata changes. Trackers are called from within the
synchronization of the fetcher. They must not block for long and must not call
the fetcher's sync functions.
*/
type Tracker interface {

	/*
		OnSchemaChanged is called when a new graph or schema version was seen.
	*/
	OnSchemaChanged(s *Snapshot)

	/*
		OnStatsChanged is called when statistics were updated or mocked.
	*/
	OnStatsChanged(s *Snapshot)
}

/*
Fetcher provides the current metadata snapshot.
*/
type Fetcher interface {

	/*
		Fetch returns the current snapshot. Returns false if no snapshot has been
		published yet.
	*/
	Fetch() (*Snapshot, bool)
}
