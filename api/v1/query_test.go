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
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"devt.de/krotik/gsclient/api"
	"devt.de/krotik/gsclient/cluster"
	"devt.de/krotik/gsclient/meta"
)

/*
echoHandler sends the plan and the job name back.
*/
func echoHandler(ctx context.Context, req *cluster.JobRequest, send func(*cluster.JobResponse) error) error {
	return send(&cluster.JobResponse{JobID: req.JobID, Records: [][]byte{
		[]byte(`{"n":1}`), req.Plan, []byte(req.JobName)}})
}

func TestQueryEndpoint(t *testing.T) {
	queryURL := "http://localhost" + TESTPORT + EndpointQuery

	cluster.LogInfo = cluster.LogNull
	api.Client = nil

	if st, _, res := sendTestRequest(queryURL, "POST", []byte(`{"plan": "p1"}`)); st != "503 Service Unavailable" ||
		res != "Cluster client is not available on this instance" {
		t.Error("Unexpected response:", st, res)
		return
	}

	api.Client = cluster.NewClient([]cluster.Channel{cluster.NewLocalChannel("w1", echoHandler)}, 4)
	defer func() {
		api.Client = nil
	}()

	st, header, res := sendTestRequest(queryURL, "POST", []byte(`{"plan": "p1", "job_name": "myjob"}`))

	if st != "200 OK" || header.Get(HTTPHeaderJobName) != "myjob" ||
		header.Get("content-type") != "application/x-ndjson" || res != `{"n":1}
"p1"
"myjob"` {
		t.Error("Unexpected response:", st, header, res)
		return
	}

	// Job names are generated if not given

	if st, header, _ = sendTestRequest(queryURL, "POST", []byte(`{"plan": "p1"}`)); st != "200 OK" ||
		!strings.HasPrefix(header.Get(HTTPHeaderJobName), "job-") {
		t.Error("Unexpected response:", st, header)
		return
	}

	// Errors

	if st, _, res = sendTestRequest(queryURL, "POST", []byte(`{"plan": ""}`)); st != "400 Bad Request" || res != "Missing plan" {
		t.Error("Unexpected response:", st, res)
		return
	}

	if st, _, res = sendTestRequest(queryURL, "POST", []byte(`{"plan": `)); st != "400 Bad Request" ||
		!strings.HasPrefix(res, "Could not decode request body") {
		t.Error("Unexpected response:", st, res)
		return
	}

	if st, _, res = sendTestRequest(queryURL, "POST", []byte(`{"plan": "p1", "timeout_ms": -5}`)); st != "400 Bad Request" ||
		res != "ClusterError: Invalid timeout (-5ms)" {
		t.Error("Unexpected response:", st, res)
		return
	}

	if st, _, res = sendTestRequest(queryURL+"foo", "POST", []byte(`{"plan": "p1"}`)); st != "400 Bad Request" ||
		res != "Need a stored procedure: procedure/<name>" {
		t.Error("Unexpected response:", st, res)
		return
	}

	if st, _, res = sendTestRequest(queryURL, "GET", nil); st != "405 Method Not Allowed" {
		t.Error("Unexpected response:", st, res)
		return
	}

	api.Client = cluster.NewClient([]cluster.Channel{
		cluster.NewLocalChannel("w1", func(ctx context.Context, req *cluster.JobRequest, send func(*cluster.JobResponse) error) error {
			return errors.New("boom")
		}),
	}, 4)

	if st, _, res = sendTestRequest(queryURL, "POST", []byte(`{"plan": "p1"}`)); st != "502 Bad Gateway" ||
		res != "StreamError: Stream failed (ClusterError: Network error (w1: boom))" {
		t.Error("Unexpected response:", st, res)
		return
	}

	api.Client = cluster.NewClient([]cluster.Channel{
		cluster.NewLocalChannel("w1", func(ctx context.Context, req *cluster.JobRequest, send func(*cluster.JobResponse) error) error {
			<-ctx.Done()
			return ctx.Err()
		}),
	}, 4)

	if st, _, res = sendTestRequest(queryURL, "POST", []byte(`{"plan": "p1", "timeout_ms": 100}`)); st != "504 Gateway Timeout" ||
		!strings.Contains(res, "Request timed out") {
		t.Error("Unexpected response:", st, res)
		return
	}
}

func TestQueryProcedure(t *testing.T) {
	queryURL := "http://localhost" + TESTPORT + EndpointQuery + "procedure/"

	api.Client = cluster.NewClient([]cluster.Channel{cluster.NewLocalChannel("w1", echoHandler)}, 4)
	defer func() {
		api.Client = nil
		api.Fetcher = nil
	}()

	api.Fetcher = nil

	if st, _, res := sendTestRequest(queryURL+"count", "POST", nil); st != "503 Service Unavailable" ||
		res != "Metadata is not available on this instance" {
		t.Error("Unexpected response:", st, res)
		return
	}

	df := meta.NewDynamicFetcher(&testReader{"v1"}, time.Hour, time.Hour, false)
	api.Fetcher = df

	if st, _, res := sendTestRequest(queryURL+"count", "POST", nil); st != "503 Service Unavailable" ||
		res != "No metadata snapshot was published yet" {
		t.Error("Unexpected response:", st, res)
		return
	}

	df.SyncSchema()

	if st, _, res := sendTestRequest(queryURL+"count", "POST", []byte(`{"job_name": "countjob"}`)); st != "200 OK" ||
		res != `{"n":1}
"MATCH (n) RETURN count(n)"
"countjob"` {
		t.Error("Unexpected response:", st, res)
		return
	}

	if st, _, res := sendTestRequest(queryURL+"foo", "POST", nil); st != "404 Not Found" ||
		res != "Unknown procedure: foo" {
		t.Error("Unexpected response:", st, res)
		return
	}
}
