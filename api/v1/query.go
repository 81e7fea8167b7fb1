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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"devt.de/krotik/gsclient/api"
	"devt.de/krotik/gsclient/cluster"
	"devt.de/krotik/gsclient/meta"
)

/*
EndpointQuery is the query endpoint URL (rooted). Handles everything under query/...
*/
const EndpointQuery = api.APIRoot + APIv1 + "/query/"

/*
DefaultQueryTimeout is the timeout of a submission if the request does not
define one.
*/
var DefaultQueryTimeout = 100 * time.Second

/*
QueryRequest is the body of a query request.
*/
type QueryRequest struct {
	Plan      string `json:"plan"`       // Compiled plan (ignored for stored procedures)
	JobID     uint64 `json:"job_id"`     // Id of the job
	JobName   string `json:"job_name"`   // Name of the job (generated if empty)
	Workers   int    `json:"workers"`    // Workers per node
	TimeoutMS int64  `json:"timeout_ms"` // Timeout of the submission
}

/*
QueryEndpointInst creates a new endpoint handler.
*/
func QueryEndpointInst() api.RestEndpointHandler {
	return &queryEndpoint{}
}

/*
Handler object for query submissions.
*/
type queryEndpoint struct {
	*api.DefaultEndpointHandler
}

/*
HandlePOST submits a plan to all cluster channels and streams the result
records back as newline delimited JSON.
*/
func (qe *queryEndpoint) HandlePOST(w http.ResponseWriter, r *http.Request, resources []string) {
	var qr QueryRequest

	if !checkResources(w, resources, 0, 2, "") {
		return
	}

	if api.Client == nil {
		http.Error(w, "Cluster client is not available on this instance", http.StatusServiceUnavailable)
		return
	}

	if err := json.NewDecoder(r.Body).Decode(&qr); err != nil && err != io.EOF {
		http.Error(w, "Could not decode request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if len(resources) > 0 {

		// A stored procedure should be run

		if resources[0] != "procedure" || len(resources) != 2 {
			http.Error(w, "Need a stored procedure: procedure/<name>", http.StatusBadRequest)
			return
		}

		if api.Fetcher == nil {
			http.Error(w, "Metadata is not available on this instance", http.StatusServiceUnavailable)
			return
		}

		s, ok := api.Fetcher.Fetch()
		if !ok {
			http.Error(w, "No metadata snapshot was published yet", http.StatusServiceUnavailable)
			return
		}

		p, err := lookupProcedure(s, resources[1])
		if err != nil {
			if errors.Is(err, meta.ErrNotFound) {
				http.Error(w, "Unknown procedure: "+resources[1], http.StatusNotFound)
			} else {
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}

		qr.Plan = p.Query
	}

	if qr.Plan == "" {
		http.Error(w, "Missing plan", http.StatusBadRequest)
		return
	}

	timeout := DefaultQueryTimeout
	if qr.TimeoutMS != 0 {
		timeout = time.Duration(qr.TimeoutMS) * time.Millisecond
	}

	if qr.JobName == "" {
		qr.JobName = cluster.NewJobName()
	}

	it, err := api.Client.SubmitPlan([]byte(qr.Plan), qr.JobID, qr.JobName, qr.Workers, timeout)

	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, cluster.ErrNoChannels) {
			status = http.StatusServiceUnavailable
		}
		http.Error(w, err.Error(), status)
		return
	}

	defer it.Close()

	// Abandon the submission if the client goes away

	done := make(chan struct{})
	defer close(done)

	go func() {
		select {
		case <-r.Context().Done():
			it.Close()
		case <-done:
		}
	}()

	flusher, _ := w.(http.Flusher)
	started := false

	start := func() {
		if !started {
			started = true
			w.Header().Set("content-type", "application/x-ndjson")
			w.Header().Set(HTTPHeaderJobName, qr.JobName)
			w.WriteHeader(http.StatusOK)
		}
	}

	for it.HasNext() {
		rec, err := it.Next()

		if err != nil {
			if !started {
				http.Error(w, err.Error(), errorStatus(err))
				return
			}

			// The stream has started already so the error becomes the last line

			line, _ := json.Marshal(map[string]string{"error": err.Error()})
			fmt.Fprintf(w, "%s\n", line)
			return
		}

		start()

		if json.Valid(rec) {
			w.Write(rec)
		} else {
			line, _ := json.Marshal(string(rec))
			w.Write(line)
		}

		w.Write([]byte("\n"))

		if flusher != nil {
			flusher.Flush()
		}
	}

	start()
}

/*
errorStatus returns the HTTP status of a failed submission.
*/
func errorStatus(err error) int {
	if errors.Is(err, cluster.ErrTimeout) {
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

/*
SwaggerDefs is used to describe the endpoint in swagger.
*/
func (qe *queryEndpoint) SwaggerDefs(s map[string]interface{}) {

	body := map[string]interface{}{
		"name":        "query",
		"in":          "body",
		"description": "Plan and job parameters.",
		"required":    true,
		"schema": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"plan": map[string]interface{}{
					"description": "Compiled plan.",
					"type":        "string",
				},
				"job_id": map[string]interface{}{
					"description": "Id of the job.",
					"type":        "integer",
				},
				"job_name": map[string]interface{}{
					"description": "Name of the job.",
					"type":        "string",
				},
				"workers": map[string]interface{}{
					"description": "Number of workers on each node.",
					"type":        "integer",
				},
				"timeout_ms": map[string]interface{}{
					"description": "Timeout of the submission in milliseconds.",
					"type":        "integer",
				},
			},
		},
	}

	responses := map[string]interface{}{
		"200": map[string]interface{}{
			"description": "Newline delimited result records. A failure after the first record is sent as a final error object.",
		},
		"default": map[string]interface{}{
			"description": "Error response",
			"schema": map[string]interface{}{
				"$ref": "#/definitions/Error",
			},
		},
	}

	s["paths"].(map[string]interface{})["/v1/query"] = map[string]interface{}{
		"post": map[string]interface{}{
			"summary":     "Submit a plan to all cluster channels.",
			"description": "The result records of all channels are merged and streamed back.",
			"consumes": []string{
				"application/json",
			},
			"produces": []string{
				"text/plain",
				"application/x-ndjson",
			},
			"parameters": []map[string]interface{}{body},
			"responses":  responses,
		},
	}

	s["paths"].(map[string]interface{})["/v1/query/procedure/{name}"] = map[string]interface{}{
		"post": map[string]interface{}{
			"summary":     "Run a stored procedure on all cluster channels.",
			"description": "The query of the stored procedure is submitted as plan.",
			"consumes": []string{
				"application/json",
			},
			"produces": []string{
				"text/plain",
				"application/x-ndjson",
			},
			"parameters": []map[string]interface{}{
				{
					"name":        "name",
					"in":          "path",
					"description": "Name of the stored procedure.",
					"required":    true,
					"type":        "string",
				},
			},
			"responses": responses,
		},
	}
}
