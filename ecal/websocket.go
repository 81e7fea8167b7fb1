/*
 * GSClient
 *
 * Copyright 2026 The GSClient Authors. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package ecal

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

/*
WriteTimeout is the time a write to a websocket may take
*/
var WriteTimeout = 10 * time.Second

/*
WebsocketConnection models a single websocket connection of a metadata event
subscriber.

Websocket connections support one concurrent reader and one concurrent writer.
See: https://godoc.org/github.com/gorilla/websocket#hdr-Concurrency
*/
type WebsocketConnection struct {
	CommID string          // Communication id of the connection
	Conn   *websocket.Conn // Underlying websocket
	RMutex *sync.Mutex     // Reader lock
	WMutex *sync.Mutex     // Writer lock
}

/*
NewWebsocketConnection creates a new WebsocketConnection object.
*/
func NewWebsocketConnection(commID string, c *websocket.Conn) *WebsocketConnection {
	return &WebsocketConnection{
		CommID: commID,
		Conn:   c,
		RMutex: &sync.Mutex{},
		WMutex: &sync.Mutex{}}
}

/*
Init initializes the websocket connection and tells the subscriber its
communication id.
*/
func (wc *WebsocketConnection) Init() error {
	return wc.WriteMessage("init_success", map[string]interface{}{})
}

/*
ReadData reads data from the websocket connection. Returns true as second
value if the connection is unusable.
*/
func (wc *WebsocketConnection) ReadData() (map[string]interface{}, bool, error) {
	var data map[string]interface{}
	var fatal = true

	wc.RMutex.Lock()
	_, msg, err := wc.Conn.ReadMessage()
	wc.RMutex.Unlock()

	if err == nil {
		fatal = false
		err = json.Unmarshal(msg, &data)
	}

	return data, fatal, err
}

/*
WriteData writes a data message to the websocket.
*/
func (wc *WebsocketConnection) WriteData(data interface{}) error {
	return wc.WriteMessage("data", data)
}

/*
WriteMessage writes a message of a given type to the websocket.
*/
func (wc *WebsocketConnection) WriteMessage(msgType string, payload interface{}) error {
	jsonData, err := json.Marshal(map[string]interface{}{
		"commID":  wc.CommID,
		"type":    msgType,
		"payload": payload,
	})

	if err == nil {
		wc.WMutex.Lock()
		defer wc.WMutex.Unlock()

		wc.Conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
		err = wc.Conn.WriteMessage(websocket.TextMessage, jsonData)
	}

	return err
}

/*
Close closes the websocket connection.
*/
func (wc *WebsocketConnection) Close(msg string) {
	wc.WMutex.Lock()
	wc.Conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(
			websocket.CloseNormalClosure, msg), time.Now().Add(WriteTimeout))
	wc.WMutex.Unlock()

	wc.Conn.Close()
}
