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
Package reader contains sources of graph metadata.

HTTPReader

Reads metadata from the REST API of a metadata service:

	GET /v1/service/status                  - Current graph id and snapshot id
	GET /v1/graph/<id>/schema               - Schema document (YAML or JSON)
	GET /v1/graph/<id>/statistics           - Statistics (404 if there are none)
	GET /v1/graph/<id>/statistics/enabled   - Flag if statistics should be synchronized

FileReader

Reads metadata from a local schema document and an optional statistics document.
*/
package reader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"devt.de/krotik/common/stringutil"
	"devt.de/krotik/gsclient/meta"
	"gopkg.in/yaml.v3"
)

/*
DefaultTimeout is the default timeout for requests to the metadata service
*/
var DefaultTimeout = 10 * time.Second

/*
schemaDoc is the document which describes a schema and its stored procedures.
*/
type schemaDoc struct {
	Graph       meta.GraphID      `yaml:"graph"`
	Snapshot    int64             `yaml:"snapshot"`
	meta.Schema `yaml:",inline"`
	Procedures  []*meta.Procedure `yaml:"procedures"`
}

/*
serviceStatus is the status of the metadata service.
*/
type serviceStatus struct {
	Graph    meta.GraphID `json:"graph"`
	Snapshot int64        `json:"snapshot"`
}

/*
HTTPReader reads metadata from a metadata service.
*/
type HTTPReader struct {
	url    string       // Base URL of the metadata service
	client *http.Client // HTTP client
}

/*
NewHTTPReader creates a new HTTPReader for a given base URL.
*/
func NewHTTPReader(baseURL string) *HTTPReader {
	return &HTTPReader{strings.TrimSuffix(baseURL, "/"), &http.Client{Timeout: DefaultTimeout}}
}

/*
ReadMeta reads the current graph id, snapshot id, schema and stored procedures.
*/
func (hr *HTTPReader) ReadMeta() (*meta.Meta, error) {
	var status serviceStatus

	body, err := hr.sendRequest("/v1/service/status")
	if err != nil {
		return nil, err
	}

	if err = json.Unmarshal(body, &status); err != nil {
		return nil, &meta.Error{Type: meta.ErrReading, Detail: fmt.Sprint("Invalid service status: ", err)}
	} else if status.Graph == "" {
		return nil, &meta.Error{Type: meta.ErrReading, Detail: "Service status has no graph id"}
	}

	if body, err = hr.sendRequest(graphEndpoint(status.Graph, "schema")); err != nil {
		return nil, err
	}

	m, err := parseSchema(body)
	if err != nil {
		return nil, err
	}

	m.GraphID = status.Graph
	m.SnapshotID = status.Snapshot

	return m, nil
}

/*
ReadStats reads the statistics of a graph. Returns nil if the graph has no
statistics.
*/
func (hr *HTTPReader) ReadStats(id meta.GraphID) (*meta.Statistics, error) {
	body, err := hr.sendRequest(graphEndpoint(id, "statistics"))

	if err != nil {
		if me, ok := err.(*meta.Error); ok && me.Type == meta.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}

	return parseStats(body)
}

/*
SyncStatsEnabled checks if statistics should be synchronized for a graph.
*/
func (hr *HTTPReader) SyncStatsEnabled(id meta.GraphID) (bool, error) {
	body, err := hr.sendRequest(graphEndpoint(id, "statistics/enabled"))
	if err != nil {
		return false, err
	}

	return stringutil.IsTrueValue(strings.Trim(string(body), " \n\"")), nil
}

/*
sendRequest sends a GET request to the metadata service and returns the body.
*/
func (hr *HTTPReader) sendRequest(endpoint string) ([]byte, error) {

	resp, err := hr.client.Get(hr.url + endpoint)
	if err != nil {
		return nil, &meta.Error{Type: meta.ErrReading, Detail: err.Error()}
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return nil, &meta.Error{Type: meta.ErrNotFound, Detail: endpoint}

	} else if resp.StatusCode != http.StatusOK {
		return nil, &meta.Error{Type: meta.ErrReading, Detail: fmt.Sprintf("%v returned %v: %v",
			endpoint, resp.Status, strings.Trim(string(body), " \n"))}

	} else if err != nil {
		return nil, &meta.Error{Type: meta.ErrReading, Detail: err.Error()}
	}

	return body, nil
}

/*
graphEndpoint returns the endpoint of a graph resource.
*/
func graphEndpoint(id meta.GraphID, resource string) string {
	return fmt.Sprintf("/v1/graph/%v/%v", url.PathEscape(string(id)), resource)
}

// Document parsing
// ================

/*
parseSchema parses a schema document. JSON documents are valid YAML.
*/
func parseSchema(data []byte) (*meta.Meta, error) {
	var doc schemaDoc

	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &meta.Error{Type: meta.ErrReading, Detail: fmt.Sprint("Invalid schema: ", err)}
	}

	if doc.Version == "" {
		return nil, &meta.Error{Type: meta.ErrReading, Detail: "Schema has no version"}
	}

	schema := doc.Schema

	return &meta.Meta{
		GraphID:    doc.Graph,
		SnapshotID: doc.Snapshot,
		Schema:     &schema,
		Procedures: doc.Procedures,
	}, nil
}

/*
parseStats parses a statistics document.
*/
func parseStats(data []byte) (*meta.Statistics, error) {
	var stats meta.Statistics

	if len(bytes.TrimSpace(data)) == 0 || string(bytes.TrimSpace(data)) == "null" {
		return nil, nil
	}

	if err := yaml.Unmarshal(data, &stats); err != nil {
		return nil, &meta.Error{Type: meta.ErrReading, Detail: fmt.Sprint("Invalid statistics: ", err)}
	}

	return &stats, nil
}
