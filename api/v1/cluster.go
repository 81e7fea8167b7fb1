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
	"net/http"

	"devt.de/krotik/gsclient/api"
)

/*
EndpointCluster is the cluster endpoint URL (rooted). Handles everything under cluster/...
*/
const EndpointCluster = api.APIRoot + APIv1 + "/cluster/"

/*
ClusterEndpointInst creates a new endpoint handler.
*/
func ClusterEndpointInst() api.RestEndpointHandler {
	return &clusterEndpoint{}
}

/*
Handler object for cluster queries.
*/
type clusterEndpoint struct {
	*api.DefaultEndpointHandler
}

/*
HandleGET handles a cluster query REST call.
*/
func (ce *clusterEndpoint) HandleGET(w http.ResponseWriter, r *http.Request, resources []string) {
	var data interface{}

	if !checkResources(w, resources, 0, 1, "") {
		return
	}

	if len(resources) == 1 && resources[0] == "log" {

		// The event log is requested

		if api.EventLog == nil {
			http.Error(w, "Event log is not enabled on this instance", http.StatusServiceUnavailable)
			return
		}

		last, ok := queryParamPosNum(w, r, "last")
		if !ok {
			return
		}

		entries := api.EventLog.StringSlice()

		if last >= 0 && last < len(entries) {
			entries = entries[len(entries)-last:]
		}

		data = entries

	} else if len(resources) == 0 {

		// By default the configured channels are returned

		if api.Client == nil {
			http.Error(w, "Cluster client is not available on this instance", http.StatusServiceUnavailable)
			return
		}

		data = map[string]interface{}{
			"channels": api.Client.Channels(),
		}

	} else {

		http.Error(w, "Unknown cluster resource: "+resources[0], http.StatusBadRequest)
		return
	}

	writeJSON(w, data)
}

/*
HandleDELETE clears the event log.
*/
func (ce *clusterEndpoint) HandleDELETE(w http.ResponseWriter, r *http.Request, resources []string) {

	if !checkResources(w, resources, 1, 1, "Need a resource: log") {
		return
	}

	if resources[0] != "log" {
		http.Error(w, "Unknown cluster resource: "+resources[0], http.StatusBadRequest)
		return
	}

	if api.EventLog != nil {
		api.EventLog.Reset()
	}
}

/*
SwaggerDefs is used to describe the endpoint in swagger.
*/
func (ce *clusterEndpoint) SwaggerDefs(s map[string]interface{}) {

	s["paths"].(map[string]interface{})["/v1/cluster"] = map[string]interface{}{
		"get": map[string]interface{}{
			"summary":     "Return the configured cluster channels.",
			"description": "Returns the addresses of all channels which receive submitted plans.",
			"produces": []string{
				"text/plain",
				"application/json",
			},
			"responses": map[string]interface{}{
				"200": map[string]interface{}{
					"description": "A map with a list of channel addresses.",
				},
				"default": map[string]interface{}{
					"description": "Error response",
					"schema": map[string]interface{}{
						"$ref": "#/definitions/Error",
					},
				},
			},
		},
	}

	s["paths"].(map[string]interface{})["/v1/cluster/log"] = map[string]interface{}{
		"get": map[string]interface{}{
			"summary":     "Return the most recent log messages.",
			"description": "Returns the log messages of the metadata cache and the cluster client.",
			"produces": []string{
				"text/plain",
				"application/json",
			},
			"parameters": []map[string]interface{}{
				{
					"name":        "last",
					"in":          "query",
					"description": "Only return the last n messages.",
					"required":    false,
					"type":        "integer",
				},
			},
			"responses": map[string]interface{}{
				"200": map[string]interface{}{
					"description": "A list of log messages.",
				},
			},
		},
		"delete": map[string]interface{}{
			"summary":     "Clear the log.",
			"description": "Removes all messages from the log.",
			"responses": map[string]interface{}{
				"200": map[string]interface{}{
					"description": "Log was cleared.",
				},
			},
		},
	}
}
