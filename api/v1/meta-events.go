/*
 * GSClient
 *
 * Copyright 2026 The GSClient Authors. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package v1

import (
	"fmt"
	"net/http"
	"sync"

	"devt.de/krotik/common/cryptutil"
	"devt.de/krotik/common/stringutil"
	"devt.de/krotik/ecal/engine"
	"devt.de/krotik/ecal/scope"
	"devt.de/krotik/gsclient/api"
	"devt.de/krotik/gsclient/ecal"
	"devt.de/krotik/gsclient/meta"
	"github.com/gorilla/websocket"
)

/*
EndpointMetaEvents is the metadata event endpoint URL (rooted). Handles websockets under meta-events/
*/
const EndpointMetaEvents = api.APIRoot + APIv1 + "/meta-events/"

/*
upgrader can upgrade normal requests to websocket communications
*/
var upgrader = websocket.Upgrader{
	Subprotocols:    []string{"gs-meta-events"},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

/*
SubscriberQueueSize is the number of pending events per subscriber. Subscribers
which fall further behind are disconnected.
*/
var SubscriberQueueSize = 16

/*
MetaEvents is the hub which distributes metadata changes to all websocket
subscribers. It must be added as tracker to the metadata fetcher.
*/
var MetaEvents = NewMetaEventHub()

/*
eventWriter is the connection of a subscriber.
*/
type eventWriter interface {
	WriteMessage(msgType string, payload interface{}) error
	Close(msg string)
}

/*
subscriber is a connection with its queue of pending events.
*/
type subscriber struct {
	writer eventWriter                 // Connection of the subscriber
	queue  chan map[string]interface{} // Pending events
	done   chan struct{}               // Closed when the subscriber is removed
}

/*
MetaEventHub is a metadata tracker which pushes all changes to subscribers.
Notifications only enqueue events. Each subscriber has its own goroutine which
writes to the connection.
*/
type MetaEventHub struct {
	lock        *sync.RWMutex          // Lock for subscribers
	subscribers map[string]*subscriber // Subscribers by communication id
}

/*
NewMetaEventHub creates a new MetaEventHub.
*/
func NewMetaEventHub() *MetaEventHub {
	return &MetaEventHub{&sync.RWMutex{}, make(map[string]*subscriber)}
}

/*
OnSchemaChanged pushes a schema change to all subscribers.
*/
func (h *MetaEventHub) OnSchemaChanged(s *meta.Snapshot) {
	h.broadcast("schema", s)
}

/*
OnStatsChanged pushes a statistics change to all subscribers.
*/
func (h *MetaEventHub) OnStatsChanged(s *meta.Snapshot) {
	h.broadcast("stats", s)
}

/*
Subscribers returns the number of current subscribers.
*/
func (h *MetaEventHub) Subscribers() int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.subscribers)
}

/*
add registers a subscriber. An initial event is sent before all broadcasts.
*/
func (h *MetaEventHub) add(id string, w eventWriter, initial map[string]interface{}) {
	sub := &subscriber{w, make(chan map[string]interface{}, SubscriberQueueSize+1), make(chan struct{})}

	if initial != nil {
		sub.queue <- initial
	}

	h.lock.Lock()
	h.subscribers[id] = sub
	h.lock.Unlock()

	go h.drain(id, sub)
}

/*
remove unregisters a subscriber. Returns nil if the subscriber was already removed.
*/
func (h *MetaEventHub) remove(id string) *subscriber {
	h.lock.Lock()
	defer h.lock.Unlock()

	sub, ok := h.subscribers[id]
	if !ok {
		return nil
	}

	delete(h.subscribers, id)
	close(sub.done)

	return sub
}

/*
drain writes the pending events of a subscriber until it is removed or a write
fails.
*/
func (h *MetaEventHub) drain(id string, sub *subscriber) {
	for {
		select {
		case payload := <-sub.queue:
			if err := sub.writer.WriteMessage("meta_event", payload); err != nil {
				if h.remove(id) != nil {
					sub.writer.Close(err.Error())
				}
				return
			}
		case <-sub.done:
			return
		}
	}
}

/*
broadcast enqueues a change for all subscribers. Subscribers with a full queue
are removed and their connection is closed in the background.
*/
func (h *MetaEventHub) broadcast(change string, s *meta.Snapshot) {
	var slow []string

	payload := snapshotSummary(s)
	payload["change"] = change

	h.lock.RLock()
	for id, sub := range h.subscribers {
		select {
		case sub.queue <- payload:
		default:
			slow = append(slow, id)
		}
	}
	h.lock.RUnlock()

	for _, id := range slow {
		if sub := h.remove(id); sub != nil {
			go sub.writer.Close("Subscriber is too slow")
		}
	}
}

/*
snapshotSummary returns the data of a snapshot which is sent to subscribers.
*/
func snapshotSummary(s *meta.Snapshot) map[string]interface{} {
	stats, ok := s.Statistics()

	return map[string]interface{}{
		"graph":      s.GraphID(),
		"snapshot":   s.SnapshotID(),
		"version":    s.SchemaVersion(),
		"procedures": s.ProcedureNames(),
		"mocked":     !ok,
		"statistics": stats,
	}
}

/*
MetaEventsEndpointInst creates a new endpoint handler.
*/
func MetaEventsEndpointInst() api.RestEndpointHandler {
	return &metaEventsEndpoint{}
}

/*
Handler object for metadata event subscriptions.
*/
type metaEventsEndpoint struct {
	*api.DefaultEndpointHandler
}

/*
HandleGET handles a metadata event subscription.
*/
func (e *metaEventsEndpoint) HandleGET(w http.ResponseWriter, r *http.Request, resources []string) {

	// Update the incomming connection to a websocket
	// If the upgrade fails then the client gets an HTTP error response.

	conn, err := upgrader.Upgrade(w, r, nil)

	if err != nil {

		// We give details here on what went wrong

		w.Write([]byte(err.Error()))
		return
	}

	commID := fmt.Sprintf("%x", cryptutil.GenerateUUID())

	wc := ecal.NewWebsocketConnection(commID, conn)

	if err = wc.Init(); err != nil {
		wc.Close(err.Error())
		return
	}

	// The current state is the first event of the subscriber

	var current map[string]interface{}

	if api.Fetcher != nil {
		if s, ok := api.Fetcher.Fetch(); ok {
			current = snapshotSummary(s)
			current["change"] = "current"
		}
	}

	MetaEvents.add(commID, wc, current)
	defer MetaEvents.remove(commID)

	if api.SI != nil {
		api.SI.RegisterSock(wc)
		defer api.SI.DeregisterSock(wc)
	}

	for {
		var fatal bool
		var data map[string]interface{}

		if data, fatal, err = wc.ReadData(); err != nil {

			if fatal {
				break
			}

			wc.WriteMessage("error", err.Error())
			continue
		}

		if val, ok := data["close"]; ok && stringutil.IsTrueValue(fmt.Sprint(val)) {
			wc.Close("")
			break
		}

		// Other messages are forwarded to ECAL

		if api.SI != nil && api.SI.Interpreter != nil {
			event := engine.NewEvent("WebSocketRequest", []string{"gs", "web", "sock", "data"},
				map[interface{}]interface{}{
					"commID": commID,
					"data":   scope.ConvertJSONToECALObject(data),
				})

			if _, err = api.SI.Interpreter.RuntimeProvider.Processor.AddEvent(event, nil); err != nil {
				wc.WriteMessage("error", err.Error())
			}
		}
	}
}

/*
SwaggerDefs is used to describe the endpoint in swagger.
*/
func (e *metaEventsEndpoint) SwaggerDefs(s map[string]interface{}) {
	// No swagger definitions for this endpoint as it only handles websocket requests
}
