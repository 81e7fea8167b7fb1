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
Package v1 contains GSClient REST API Version 1.

Meta endpoint

/meta

The meta endpoint returns the current metadata snapshot of the graph.

	/meta                     - Complete snapshot
	/meta/procedures          - Names of all stored procedures
	/meta/procedures/<name>   - A single stored procedure
	/meta/stats               - Statistics and their freshness state

Meta events endpoint

/meta-events

Websocket endpoint which pushes schema and statistics changes to subscribers.

Query endpoint

/query

POST a plan (or run a stored procedure) on all cluster channels. The result
records are streamed back as newline delimited JSON.

Cluster endpoint

/cluster

The cluster endpoint returns the configured channels and the event log.
*/
package v1

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"devt.de/krotik/gsclient/api"
)

/*
APIv1 is the directory for version 1 of the API
*/
const APIv1 = "/v1"

/*
HTTPHeaderJobName is a special header value containing the name of a submitted job.
*/
const HTTPHeaderJobName = "X-Job-Name"

/*
V1EndpointMap is a map of urls to endpoints for version 1 of the API
*/
var V1EndpointMap = map[string]api.RestEndpointInst{
	EndpointMeta:       MetaEndpointInst,
	EndpointMetaEvents: MetaEventsEndpointInst,
	EndpointQuery:      QueryEndpointInst,
	EndpointCluster:    ClusterEndpointInst,
}

// Helper functions
// ================

/*
checkResources check given resources for a GET request.
*/
func checkResources(w http.ResponseWriter, resources []string, requiredMin int, requiredMax int, errorMsg string) bool {
	if len(resources) < requiredMin {
		http.Error(w, errorMsg, http.StatusBadRequest)
		return false
	} else if len(resources) > requiredMax {
		http.Error(w, "Invalid resource specification: "+strings.Join(resources[1:], "/"), http.StatusBadRequest)
		return false
	}
	return true
}

/*
Extract a positive number from a query parameter. Returns -1 and true
if the parameter was not given.
*/
func queryParamPosNum(w http.ResponseWriter, r *http.Request, param string) (int, bool) {

	val := r.URL.Query().Get(param)

	if val == "" {
		return -1, true
	}

	num, err := strconv.Atoi(val)

	if err != nil || num < 0 {
		http.Error(w, "Invalid parameter value: "+param+" should be a positive integer number", http.StatusBadRequest)
		return -1, false
	}

	return num, true
}

/*
writeJSON writes a given object as JSON response.
*/
func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("content-type", "application/json; charset=utf-8")

	ret := json.NewEncoder(w)
	ret.Encode(data)
}
