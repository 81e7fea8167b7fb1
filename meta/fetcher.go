/*
 * GSClient
 *
 * Copyright 2026 The GSClient Authors. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package meta

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

/*
StatsState is the freshness state of the statistics of a schema generation.
*/
type StatsState int32

/*
Known freshness states
*/
const (
	Initialized StatsState = iota // New schema generation - statistics are undecided
	Mocked                        // Statistics are unavailable or disabled
	Synced                        // Statistics were read from the metadata source
)

/*
String returns a string representation of a freshness state.
*/
func (s StatsState) String() string {
	switch s {
	case Initialized:
		return "initialized"
	case Mocked:
		return "mocked"
	case Synced:
		return "synced"
	}
	return fmt.Sprintf("unknown(%d)", int32(s))
}

/*
DynamicFetcher keeps a metadata snapshot fresh by periodically reading schema and
statistics from a Reader.
*/
type DynamicFetcher struct {
	reader         Reader        // Source of metadata
	trackers       []Tracker     // Trackers which are notified about changes
	schemaInterval time.Duration // Interval of the schema task (<= 0 disables it)
	statsInterval  time.Duration // Interval of the statistics task (<= 0 disables it)

	lock         *sync.Mutex               // Lock for all sync operations
	snapshot     atomic.Pointer[Snapshot] // Published snapshot
	state        atomic.Int32              // Freshness state of the current generation
	statsEnabled *bool                     // Cached result of the statistics check (sticky)

	runLock *sync.Mutex     // Lock for starting and stopping the periodic tasks
	stop    chan struct{}   // Closed to stop the periodic tasks
	wg      *sync.WaitGroup // Waitgroup for the periodic tasks
}

/*
NewDynamicFetcher creates a new DynamicFetcher. Statistics are disabled if the
planner does not use cost based optimization or if the statistics interval is not
positive. The periodic tasks are started with Start.
*/
func NewDynamicFetcher(reader Reader, schemaInterval time.Duration, statsInterval time.Duration,
	costBasedPlanner bool, trackers ...Tracker) *DynamicFetcher {

	df := &DynamicFetcher{
		reader:         reader,
		trackers:       trackers,
		schemaInterval: schemaInterval,
		statsInterval:  statsInterval,
		lock:           &sync.Mutex{},
		runLock:        &sync.Mutex{},
		wg:             &sync.WaitGroup{},
	}

	if !costBasedPlanner || statsInterval <= 0 {
		disabled := false
		df.statsEnabled = &disabled
		df.statsInterval = 0
	}

	return df
}

/*
AddTracker adds a tracker which is notified about all future changes.
*/
func (df *DynamicFetcher) AddTracker(t Tracker) {
	df.lock.Lock()
	defer df.lock.Unlock()

	df.trackers = append(df.trackers, t)
}

/*
Fetch returns the most recently published snapshot. This call never waits for
a running sync operation.
*/
func (df *DynamicFetcher) Fetch() (*Snapshot, bool) {
	s := df.snapshot.Load()
	return s, s != nil
}

/*
State returns the freshness state of the current schema generation.
*/
func (df *DynamicFetcher) State() StatsState {
	return StatsState(df.state.Load())
}

/*
Procedure looks up a stored procedure. If the procedure is not known the schema
is synchronized once before the lookup is repeated.
*/
func (df *DynamicFetcher) Procedure(name string) (*Procedure, error) {

	if s, ok := df.Fetch(); ok {
		if p, ok := s.Procedure(name); ok {
			return p, nil
		}
	}

	LogDebug("Procedure ", name, " not found - synchronizing schema")

	df.SyncSchema()

	if s, ok := df.Fetch(); ok {
		if p, ok := s.Procedure(name); ok {
			return p, nil
		}
	}

	return nil, &Error{ErrNotFound, fmt.Sprint("Procedure ", name)}
}

// Periodic tasks
// ==============

/*
Start starts the periodic schema and statistics tasks. The first run of each task
happens after its interval.
*/
func (df *DynamicFetcher) Start() {
	df.runLock.Lock()
	defer df.runLock.Unlock()

	if df.stop != nil {
		return
	}

	df.stop = make(chan struct{})

	if df.schemaInterval > 0 {
		LogInfo("Synchronizing schema every ", df.schemaInterval)
		df.runTask(df.schemaInterval, df.SyncSchema)
	}

	if df.statsInterval > 0 {
		LogInfo("Synchronizing statistics every ", df.statsInterval)
		df.runTask(df.statsInterval, df.SyncStats)
	}
}

/*
Close stops the periodic tasks and waits until they have finished.
*/
func (df *DynamicFetcher) Close() error {
	df.runLock.Lock()
	defer df.runLock.Unlock()

	if df.stop == nil {
		return nil
	}

	close(df.stop)
	df.wg.Wait()
	df.stop = nil

	LogDebug("Metadata synchronization stopped")

	return nil
}

/*
runTask runs a given task in its own goroutine at a fixed rate.
*/
func (df *DynamicFetcher) runTask(interval time.Duration, task func()) {
	stop := df.stop

	df.wg.Add(1)

	go func() {
		defer df.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				task()
			case <-stop:
				return
			}
		}
	}()
}

// Sync operations
// ===============

/*
SyncSchema reads the metadata and publishes a new snapshot if the graph or the
schema version has changed. Statistics are synchronized afterwards if the current
schema generation has not yet reached its final state. Errors are logged and
never returned.
*/
func (df *DynamicFetcher) SyncSchema() {
	df.lock.Lock()
	defer df.lock.Unlock()

	defer df.recoverSync("schema")

	df.syncSchema()
}

/*
SyncStats reads the statistics of the current graph and publishes them. Errors
are logged and never returned.
*/
func (df *DynamicFetcher) SyncStats() {
	df.lock.Lock()
	defer df.lock.Unlock()

	defer df.recoverSync("statistics")

	df.syncStats()
}

/*
recoverSync logs a panic of a sync operation. Must be deferred.
*/
func (df *DynamicFetcher) recoverSync(what string) {
	if r := recover(); r != nil {
		syncCounter.WithLabelValues(what, "error").Inc()
		LogWarning("Failed to synchronize ", what, ": ", r)
	}
}

/*
syncSchema is the schema task. Must be called under lock.
*/
func (df *DynamicFetcher) syncSchema() {

	m, err := df.reader.ReadMeta()

	if err == nil && m.Schema == nil {
		err = &Error{ErrReading, fmt.Sprint("No schema for graph ", m.GraphID)}
	}

	if err != nil {
		syncCounter.WithLabelValues("schema", "error").Inc()
		LogWarning("Failed to read metadata: ", err)
		return
	}

	syncCounter.WithLabelValues("schema", "ok").Inc()

	current := df.snapshot.Load()

	if current == nil || current.GraphID() != m.GraphID ||
		current.SchemaVersion() != m.Schema.Version {

		df.setState(Initialized)

		current = NewSnapshot(m, nil)
		df.snapshot.Store(current)

		LogInfo("New schema for graph ", m.GraphID, " (version: ", m.Schema.Version, ")")

		for _, t := range df.trackers {
			t.OnSchemaChanged(current)
		}
	}

	enabled := df.isStatsEnabled(current.GraphID())
	state := df.State()

	if enabled && state != Synced || !enabled && state != Mocked {
		LogDebug("Synchronizing statistics of graph ", current.GraphID(), " (state: ", state, ")")
		df.syncStats()
	}
}

/*
syncStats is the statistics task. Must be called under lock.
*/
func (df *DynamicFetcher) syncStats() {

	current := df.snapshot.Load()

	if current == nil {
		return
	}

	// Every schema generation gets at least one statistics notification

	defer df.mockStats()

	if !df.isStatsEnabled(current.GraphID()) {
		return
	}

	stats, err := df.reader.ReadStats(current.GraphID())

	if err != nil {
		syncCounter.WithLabelValues("statistics", "error").Inc()
		LogWarning("Failed to read statistics of graph ", current.GraphID(), ": ", err)
		return
	}

	LogDebug("Statistics of graph ", current.GraphID(), ": ", stats)

	if stats == nil || stats.VertexCount == 0 {
		return
	}

	syncCounter.WithLabelValues("statistics", "ok").Inc()

	current = current.WithStatistics(stats)
	df.snapshot.Store(current)

	LogInfo("Updating statistics of graph ", current.GraphID())

	for _, t := range df.trackers {
		t.OnStatsChanged(current)
	}

	df.setState(Synced)
}

/*
mockStats notifies all trackers with the current snapshot if the current schema
generation has no statistics yet.
*/
func (df *DynamicFetcher) mockStats() {

	defer func() {
		if r := recover(); r != nil {
			LogWarning("Failed to mock statistics: ", r)
		}
	}()

	current := df.snapshot.Load()

	if current == nil || df.State() != Initialized {
		return
	}

	LogInfo("Mocking statistics of graph ", current.GraphID())

	for _, t := range df.trackers {
		t.OnStatsChanged(current)
	}

	df.setState(Mocked)
}

/*
isStatsEnabled checks if statistics are enabled. The first successful check is
cached. Must be called under lock.
*/
func (df *DynamicFetcher) isStatsEnabled(id GraphID) bool {

	if df.statsEnabled != nil {
		return *df.statsEnabled
	}

	enabled, err := df.reader.SyncStatsEnabled(id)

	if err != nil {
		LogWarning("Failed to check if statistics are enabled - assuming they are not: ", err)
		return false
	}

	df.statsEnabled = &enabled

	return enabled
}

/*
setState sets the freshness state.
*/
func (df *DynamicFetcher) setState(s StatsState) {
	df.state.Store(int32(s))
	stateGauge.Set(float64(s))
}
