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
Package ecal connects GSClient to the event condition action language (ECAL).

Metadata changes are forwarded as events into an ECAL event processor. Scripts
can react to them with sinks:

	sink schemaSink
	  kindmatch [ "gs.meta.schema" ],
	{
	  log("New schema version: ", event.state.version)
	}
*/
package ecal

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"devt.de/krotik/common/errorutil"
	"devt.de/krotik/ecal/engine"
	"devt.de/krotik/ecal/scope"
	"devt.de/krotik/ecal/util"
	"devt.de/krotik/gsclient/meta"
)

/*
Kinds of metadata events which are forwarded to ECAL.
*/
const (

	/*
	   EventSchemaChanged is thrown when a new graph or schema version was seen.

	   State: graph, snapshot, version, procedures
	*/
	EventSchemaChanged = "gs.meta.schema"

	/*
	   EventStatsChanged is thrown when statistics were updated or mocked.

	   State: graph, snapshot, version, procedures, mocked, statistics
	*/
	EventStatsChanged = "gs.meta.stats"
)

/*
NotificationQueueSize is the number of metadata changes which can wait to be
forwarded. Further changes are dropped until the queue has room again.
*/
var NotificationQueueSize = 64

/*
notification is a queued metadata change. Notifications with a done channel
only mark a position in the queue.
*/
type notification struct {
	kind     string
	snapshot *meta.Snapshot
	done     chan struct{}
}

/*
EventBridge is a metadata tracker which forwards all metadata changes to ECAL.
Tracker calls only enqueue a change. A single worker forwards the queued changes
in order.
*/
type EventBridge struct {
	Processor engine.Processor
	Logger    util.Logger

	forward func(string, *meta.Snapshot) error // Function which forwards a change
	queue   chan *notification                 // Pending changes
	stop    chan struct{}                      // Closed when the bridge is closed
	once    sync.Once                          // Guard for closing stop
	dropped uint64                             // Number of dropped changes
}

/*
NewEventBridge creates a new EventBridge and starts its worker.
*/
func NewEventBridge(processor engine.Processor, logger util.Logger) *EventBridge {
	eb := &EventBridge{
		Processor: processor,
		Logger:    logger,
		queue:     make(chan *notification, NotificationQueueSize),
		stop:      make(chan struct{}),
	}
	eb.forward = eb.Forward

	go eb.run()

	return eb
}

/*
OnSchemaChanged queues a schema change.
*/
func (eb *EventBridge) OnSchemaChanged(s *meta.Snapshot) {
	eb.enqueue(EventSchemaChanged, s)
}

/*
OnStatsChanged queues a statistics change.
*/
func (eb *EventBridge) OnStatsChanged(s *meta.Snapshot) {
	eb.enqueue(EventStatsChanged, s)
}

/*
Dropped returns the number of changes which were dropped because the queue was full.
*/
func (eb *EventBridge) Dropped() uint64 {
	return atomic.LoadUint64(&eb.dropped)
}

/*
Flush waits until all changes which were queued before the call have been forwarded.
*/
func (eb *EventBridge) Flush() {
	marker := &notification{done: make(chan struct{})}

	select {
	case eb.queue <- marker:
	case <-eb.stop:
		return
	}

	select {
	case <-marker.done:
	case <-eb.stop:
	}
}

/*
Close stops the worker of the bridge. Queued changes are discarded.
*/
func (eb *EventBridge) Close() {
	eb.once.Do(func() {
		close(eb.stop)
	})
}

/*
enqueue adds a change to the queue without blocking.
*/
func (eb *EventBridge) enqueue(kind string, s *meta.Snapshot) {
	select {
	case eb.queue <- &notification{kind: kind, snapshot: s}:
	default:
		atomic.AddUint64(&eb.dropped, 1)

		if eb.Logger != nil {
			eb.Logger.LogDebug(fmt.Sprintf("Dropped metadata event %v (version %v): queue is full",
				kind, s.SchemaVersion()))
		}
	}
}

/*
run forwards queued changes until the bridge is closed.
*/
func (eb *EventBridge) run() {
	for {
		select {
		case n := <-eb.queue:
			if n.done != nil {
				close(n.done)
				continue
			}

			eb.forward(n.kind, n.snapshot)

		case <-eb.stop:
			return
		}
	}
}

/*
Forward injects a metadata event into the ECAL processor and waits until all
triggered sinks have finished. Errors raised in sinks are returned.
*/
func (eb *EventBridge) Forward(kind string, s *meta.Snapshot) error {
	var err error

	eventName := fmt.Sprintf("GSClient: %v", kind)
	eventKind := strings.Split(kind, ".")

	// Skip the state construction if no rule would trigger

	if !eb.Processor.IsTriggering(engine.NewEvent(eventName, eventKind, nil)) {
		return nil
	}

	procs := s.ProcedureNames()
	procList := make([]interface{}, len(procs))
	for i, p := range procs {
		procList[i] = p
	}

	state := map[interface{}]interface{}{
		"graph":      string(s.GraphID()),
		"snapshot":   float64(s.SnapshotID()),
		"version":    s.SchemaVersion(),
		"procedures": procList,
	}

	if kind == EventStatsChanged {
		stats, ok := s.Statistics()

		state["mocked"] = !ok
		state["statistics"] = nil

		if ok {
			state["statistics"] = scope.ConvertJSONToECALObject(map[string]interface{}{
				"vertex_count":       float64(stats.VertexCount),
				"edge_count":         float64(stats.EdgeCount),
				"vertex_type_counts": countMap(stats.VertexTypeCounts),
				"edge_type_counts":   countMap(stats.EdgeTypeCounts),
			})
		}
	}

	var m engine.Monitor
	m, err = eb.Processor.AddEventAndWait(engine.NewEvent(eventName, eventKind, state), nil)

	if err == nil {

		// Check if an error was raised in a sink

		if errs := m.(*engine.RootMonitor).AllErrors(); len(errs) > 0 {
			var errList []error

			for _, e := range errs {
				errList = append(errList, e)
			}

			err = &errorutil.CompositeError{Errors: errList}
		}
	}

	if err != nil {
		eb.Logger.LogDebug(fmt.Sprintf("Metadata event %v was handled by ECAL and returned: %v", kind, err))
	}

	return err
}

func countMap(m map[string]int64) map[string]interface{} {
	ret := make(map[string]interface{}, len(m))
	for k, v := range m {
		ret[k] = float64(v)
	}
	return ret
}
