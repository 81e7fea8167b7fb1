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
	"errors"
	"net/http"

	"devt.de/krotik/gsclient/api"
	"devt.de/krotik/gsclient/meta"
)

/*
EndpointMeta is the meta endpoint URL (rooted). Handles everything under meta/...
*/
const EndpointMeta = api.APIRoot + APIv1 + "/meta/"

/*
MetaEndpointInst creates a new endpoint handler.
*/
func MetaEndpointInst() api.RestEndpointHandler {
	return &metaEndpoint{}
}

/*
Handler object for metadata queries.
*/
type metaEndpoint struct {
	*api.DefaultEndpointHandler
}

/*
stateSource is a fetcher which knows the freshness of its statistics.
*/
type stateSource interface {
	State() meta.StatsState
}

/*
HandleGET handles a metadata query REST call.
*/
func (me *metaEndpoint) HandleGET(w http.ResponseWriter, r *http.Request, resources []string) {
	var data interface{}

	if !checkResources(w, resources, 0, 2, "") {
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

	if len(resources) == 0 {

		// The complete snapshot is requested

		data = s.Map()

	} else if resources[0] == "procedures" {

		if len(resources) == 1 {

			// All procedure names are requested

			data = s.ProcedureNames()

		} else {
			p, err := lookupProcedure(s, resources[1])

			if err != nil {
				if errors.Is(err, meta.ErrNotFound) {
					http.Error(w, "Unknown procedure: "+resources[1], http.StatusNotFound)
				} else {
					http.Error(w, err.Error(), http.StatusInternalServerError)
				}
				return
			}

			data = p
		}

	} else if resources[0] == "stats" && len(resources) == 1 {
		stats, ok := s.Statistics()

		ret := map[string]interface{}{
			"graph":      s.GraphID(),
			"version":    s.SchemaVersion(),
			"available":  ok,
			"statistics": stats,
		}

		if ss, ok := api.Fetcher.(stateSource); ok {
			ret["state"] = ss.State().String()
		}

		data = ret

	} else {

		http.Error(w, "Unknown metadata resource: "+resources[0], http.StatusBadRequest)
		return
	}

	writeJSON(w, data)
}

/*
lookupProcedure looks up a stored procedure. A fetcher which can synchronize
unknown procedures is asked if the snapshot does not contain it.
*/
func lookupProcedure(s *meta.Snapshot, name string) (*meta.Procedure, error) {

	if p, ok := s.Procedure(name); ok {
		return p, nil
	}

	if ps, ok := api.Fetcher.(api.ProcedureSource); ok {
		return ps.Procedure(name)
	}

	return nil, &meta.Error{Type: meta.ErrNotFound, Detail: "Procedure " + name}
}

/*
SwaggerDefs is used to describe the endpoint in swagger.
*/
func (me *metaEndpoint) SwaggerDefs(s map[string]interface{}) {

	errorResponse := map[string]interface{}{
		"description": "Error response",
		"schema": map[string]interface{}{
			"$ref": "#/definitions/Error",
		},
	}

	s["paths"].(map[string]interface{})["/v1/meta"] = map[string]interface{}{
		"get": map[string]interface{}{
			"summary":     "Return the current metadata snapshot.",
			"description": "The snapshot contains graph id, snapshot id, schema, stored procedures and statistics.",
			"produces": []string{
				"text/plain",
				"application/json",
			},
			"responses": map[string]interface{}{
				"200": map[string]interface{}{
					"description": "Metadata snapshot",
				},
				"default": errorResponse,
			},
		},
	}

	s["paths"].(map[string]interface{})["/v1/meta/procedures/{name}"] = map[string]interface{}{
		"get": map[string]interface{}{
			"summary":     "Return a stored procedure.",
			"description": "Unknown procedures cause a synchronization of the schema before the lookup is repeated.",
			"produces": []string{
				"text/plain",
				"application/json",
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
			"responses": map[string]interface{}{
				"200": map[string]interface{}{
					"description": "Stored procedure",
				},
				"default": errorResponse,
			},
		},
	}

	s["paths"].(map[string]interface{})["/v1/meta/stats"] = map[string]interface{}{
		"get": map[string]interface{}{
			"summary":     "Return the statistics of the graph.",
			"description": "The state shows if statistics are initialized, mocked or synced.",
			"produces": []string{
				"text/plain",
				"application/json",
			},
			"responses": map[string]interface{}{
				"200": map[string]interface{}{
					"description": "Statistics and their state",
				},
				"default": errorResponse,
			},
		},
	}
}
