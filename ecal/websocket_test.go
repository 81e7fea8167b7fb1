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
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"

	"devt.de/krotik/common/errorutil"
	"devt.de/krotik/common/httputil"
	"devt.de/krotik/ecal/engine"
	"devt.de/krotik/gsclient/ecal/gsfunc"
	"github.com/gorilla/websocket"
)

const TESTPORT = ":9096"

func TestWebsocketHandling(t *testing.T) {
	sockUpgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}

	si := NewScriptingInterpreter("", gsfunc.NewEnvironment())

	unknownEvent := engine.NewEvent("WebSocketRequest", []string{"gs", "web", "sock", "msg"},
		map[interface{}]interface{}{
			"commID":  "456",
			"payload": "bla",
		})

	if err := si.HandleSockEvent(nil, nil, unknownEvent, 0); err == nil ||
		err.Error() != "Could not send data to unknown websocket - commID: 456" {
		t.Error("Unexpected result:", err)
		return
	}

	http.HandleFunc("/httpserver_test", func(w http.ResponseWriter, r *http.Request) {

		conn, err := sockUpgrader.Upgrade(w, r, nil)
		errorutil.AssertOk(err)

		wc := NewWebsocketConnection("123", conn)
		si.RegisterSock(wc)
		defer func() {
			si.DeregisterSock(wc)
		}()

		errorutil.AssertOk(wc.Init())

		data, _, err := wc.ReadData()
		errorutil.AssertOk(err)
		errorutil.AssertTrue(fmt.Sprint(data) == "map[foo:bar]", fmt.Sprint("data is:", data))

		// Simulate that a script raised an event which writes to the websocket

		event := engine.NewEvent("WebSocketRequest", []string{"gs", "web", "sock", "msg"},
			map[interface{}]interface{}{
				"commID": "123",
				"payload": map[interface{}]interface{}{
					"version": "v1",
				},
				"close": true,
			})

		si.HandleSockEvent(nil, nil, event, 0)
	})

	hs := &httputil.HTTPServer{}

	var wg sync.WaitGroup
	wg.Add(1)

	go hs.RunHTTPServer(TESTPORT, &wg)

	wg.Wait()

	// Server is started

	if hs.LastError != nil {
		t.Error(hs.LastError)
		return
	}

	defer func() {
		wg.Add(1)
		hs.Shutdown()
		wg.Wait()
	}()

	queryURL := "ws://localhost" + TESTPORT + "/httpserver_test"

	c, _, err := websocket.DefaultDialer.Dial(queryURL, nil)
	if err != nil {
		t.Error("Could not open websocket:", err)
		return
	}

	_, message, err := c.ReadMessage()

	if msg := formatJSONString(string(message)); err != nil || msg != `{
  "commID": "123",
  "payload": {},
  "type": "init_success"
}` {
		t.Error("Unexpected response:", msg, err)
		return
	}

	err = c.WriteMessage(websocket.TextMessage, []byte(`{"foo":"bar"}`))
	if err != nil {
		t.Error("Could not send message:", err)
		return
	}

	_, message, err = c.ReadMessage()

	if msg := formatJSONString(string(message)); err != nil || msg != `{
  "commID": "123",
  "payload": {
    "version": "v1"
  },
  "type": "data"
}` {
		t.Error("Unexpected response:", msg, err)
		return
	}

	// The connection was closed

	if _, _, err = c.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Error("Unexpected result:", err)
		return
	}
}

/*
formatJSONString formats a given JSON string.
*/
func formatJSONString(str string) string {
	out := bytes.Buffer{}
	errorutil.AssertOk(json.Indent(&out, []byte(str), "", "  "))
	return out.String()
}
