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
	"testing"

	"devt.de/krotik/common/datautil"
	"devt.de/krotik/gsclient/api"
	"devt.de/krotik/gsclient/cluster"
)

func TestClusterEndpoint(t *testing.T) {
	queryURL := "http://localhost" + TESTPORT + EndpointCluster

	api.Client = nil
	api.EventLog = nil

	if st, _, res := sendTestRequest(queryURL, "GET", nil); st != "503 Service Unavailable" ||
		res != "Cluster client is not available on this instance" {
		t.Error("Unexpected response:", st, res)
		return
	}

	if st, _, res := sendTestRequest(queryURL+"log", "GET", nil); st != "503 Service Unavailable" ||
		res != "Event log is not enabled on this instance" {
		t.Error("Unexpected response:", st, res)
		return
	}

	api.Client = cluster.NewClient([]cluster.Channel{
		cluster.NewLocalChannel("localhost:9020", nil),
		cluster.NewLocalChannel("localhost:9021", nil),
	}, 4)
	api.EventLog = datautil.NewRingBuffer(10)

	defer func() {
		api.Client = nil
		api.EventLog = nil
	}()

	if st, _, res := sendTestRequest(queryURL, "GET", nil); st != "200 OK" || res != `
{
  "channels": [
    "localhost:9020",
    "localhost:9021"
  ]
}`[1:] {
		t.Error("Unexpected response:", st, res)
		return
	}

	api.EventLog.Log("msg1")
	api.EventLog.Log("msg2")
	api.EventLog.Log("msg3")

	if st, _, res := sendTestRequest(queryURL+"log", "GET", nil); st != "200 OK" || res != `
[
  "msg1",
  "msg2",
  "msg3"
]`[1:] {
		t.Error("Unexpected response:", st, res)
		return
	}

	if st, _, res := sendTestRequest(queryURL+"log?last=2", "GET", nil); st != "200 OK" || res != `
[
  "msg2",
  "msg3"
]`[1:] {
		t.Error("Unexpected response:", st, res)
		return
	}

	if st, _, res := sendTestRequest(queryURL+"log?last=x", "GET", nil); st != "400 Bad Request" ||
		res != "Invalid parameter value: last should be a positive integer number" {
		t.Error("Unexpected response:", st, res)
		return
	}

	if st, _, res := sendTestRequest(queryURL+"foo", "GET", nil); st != "400 Bad Request" ||
		res != "Unknown cluster resource: foo" {
		t.Error("Unexpected response:", st, res)
		return
	}

	if st, _, res := sendTestRequest(queryURL, "DELETE", nil); st != "400 Bad Request" ||
		res != "Need a resource: log" {
		t.Error("Unexpected response:", st, res)
		return
	}

	if st, _, _ := sendTestRequest(queryURL+"log", "DELETE", nil); st != "200 OK" {
		t.Error("Unexpected response:", st)
		return
	}

	if api.EventLog.Size() != 0 {
		t.Error("Log should be empty")
		return
	}
}
