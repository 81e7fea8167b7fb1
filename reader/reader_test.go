/*
 * GSClient
 *
 * Copyright 2026 The GSClient Authors. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package reader

import (
	"errors"
	"fmt"
	"io/ioutil"
	"net/http"
	"os"
	"sync"
	"testing"

	"devt.de/krotik/common/httputil"
	"devt.de/krotik/gsclient/meta"
)

const TESTPORT = ":9092"

const testSchema = `
version: "3"
vertex_types:
  - label: person
    properties:
      name: string
      age: int
edge_types:
  - label: knows
    source: person
    target: person
    properties:
      weight: double
procedures:
  - name: count_person
    description: Count all persons
    query: MATCH (p:person) RETURN count(p)
    params: []
`

var (
	testStatsResponse  = `{"vertex_count": 6, "edge_count": 6, "vertex_type_counts": {"person": 4, "software": 2}}`
	testStatsStatus    = http.StatusOK
	testEnabled        = "true"
	testStatusResponse = `{"graph": "modern", "snapshot": 12}`
	testLock           = &sync.Mutex{}
)

func TestMain(m *testing.M) {

	http.HandleFunc("/v1/service/status", func(w http.ResponseWriter, r *http.Request) {
		testLock.Lock()
		defer testLock.Unlock()
		fmt.Fprint(w, testStatusResponse)
	})

	http.HandleFunc("/v1/graph/modern/schema", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, testSchema)
	})

	http.HandleFunc("/v1/graph/modern/statistics", func(w http.ResponseWriter, r *http.Request) {
		testLock.Lock()
		defer testLock.Unlock()

		if testStatsStatus != http.StatusOK {
			http.Error(w, "No statistics", testStatsStatus)
			return
		}
		fmt.Fprint(w, testStatsResponse)
	})

	http.HandleFunc("/v1/graph/modern/statistics/enabled", func(w http.ResponseWriter, r *http.Request) {
		testLock.Lock()
		defer testLock.Unlock()
		fmt.Fprint(w, testEnabled)
	})

	hs, wg := startServer()
	if hs == nil {
		return
	}

	res := m.Run()

	stopServer(hs, wg)

	os.Exit(res)
}

func TestHTTPReader(t *testing.T) {
	hr := NewHTTPReader("http://localhost" + TESTPORT + "/")

	m, err := hr.ReadMeta()
	if err != nil {
		t.Error(err)
		return
	}

	if m.GraphID != "modern" || m.SnapshotID != 12 || m.Schema.Version != "3" {
		t.Error("Unexpected result:", m)
		return
	}

	if len(m.Schema.VertexTypes) != 1 || m.Schema.VertexTypes[0].Properties["age"] != "int" ||
		m.Schema.EdgeTypes[0].Source != "person" {
		t.Error("Unexpected schema:", m.Schema)
		return
	}

	if len(m.Procedures) != 1 || m.Procedures[0].Name != "count_person" {
		t.Error("Unexpected procedures:", m.Procedures)
		return
	}

	if ok, err := hr.SyncStatsEnabled("modern"); !ok || err != nil {
		t.Error("Unexpected result:", ok, err)
		return
	}

	stats, err := hr.ReadStats("modern")

	if err != nil || stats.VertexCount != 6 || stats.VertexTypeCounts["software"] != 2 {
		t.Error("Unexpected result:", stats, err)
		return
	}

	// Missing statistics are not an error

	testLock.Lock()
	testStatsStatus = http.StatusNotFound
	testEnabled = `"false"`
	testLock.Unlock()

	if stats, err := hr.ReadStats("modern"); stats != nil || err != nil {
		t.Error("Unexpected result:", stats, err)
		return
	}

	if ok, err := hr.SyncStatsEnabled("modern"); ok || err != nil {
		t.Error("Unexpected result:", ok, err)
		return
	}

	// Other errors are

	testLock.Lock()
	testStatsStatus = http.StatusInternalServerError
	testLock.Unlock()

	if _, err := hr.ReadStats("modern"); !errors.Is(err, meta.ErrReading) ||
		err.Error() != "MetaError: Could not read metadata (/v1/graph/modern/statistics returned 500 Internal Server Error: No statistics)" {
		t.Error("Unexpected result:", err)
		return
	}

	if stats, err := hr.ReadStats("unknown"); stats != nil || err != nil {
		t.Error("Unexpected result:", err)
		return
	}

	testLock.Lock()
	testStatsStatus = http.StatusOK
	testEnabled = "true"
	testStatusResponse = `{"snapshot": 12}`
	testLock.Unlock()

	if _, err := hr.ReadMeta(); err == nil || err.Error() != "MetaError: Could not read metadata (Service status has no graph id)" {
		t.Error("Unexpected result:", err)
		return
	}

	testLock.Lock()
	testStatusResponse = `{"graph": "modern", "snapshot": 12}`
	testLock.Unlock()

	if _, err := NewHTTPReader("http://localhost:1").ReadMeta(); !errors.Is(err, meta.ErrReading) {
		t.Error("Unexpected result:", err)
		return
	}
}

func TestHTTPReaderWithFetcher(t *testing.T) {
	hr := NewHTTPReader("http://localhost" + TESTPORT)

	df := meta.NewDynamicFetcher(hr, 0, 0, true)

	df.SyncSchema()

	s, ok := df.Fetch()

	if !ok || s.GraphID() != "modern" || df.State() != meta.Mocked {
		t.Error("Unexpected result:", s, df.State())
		return
	}

	if p, err := df.Procedure("count_person"); err != nil || p.Description != "Count all persons" {
		t.Error("Unexpected result:", p, err)
		return
	}
}

func TestFileReader(t *testing.T) {
	const schemaFile = "testschema.yaml"
	const statsFile = "teststats.json"

	ioutil.WriteFile(schemaFile, []byte(testSchema), 0644)
	defer os.Remove(schemaFile)

	fr := NewFileReader(schemaFile, statsFile)

	m, err := fr.ReadMeta()

	if err != nil || m.GraphID != DefaultGraphID || m.Schema.Version != "3" {
		t.Error("Unexpected result:", m, err)
		return
	}

	if ok, _ := fr.SyncStatsEnabled(m.GraphID); !ok {
		t.Error("Statistics should be enabled")
		return
	}

	// Statistics file does not exist yet

	if stats, err := fr.ReadStats(m.GraphID); stats != nil || err != nil {
		t.Error("Unexpected result:", stats, err)
		return
	}

	ioutil.WriteFile(statsFile, []byte(testStatsResponse), 0644)
	defer os.Remove(statsFile)

	if stats, err := fr.ReadStats(m.GraphID); err != nil || stats.EdgeCount != 6 {
		t.Error("Unexpected result:", stats, err)
		return
	}

	sf, err := meta.NewStaticFetcher(fr, true)
	if err != nil {
		t.Error(err)
		return
	}

	if s, _ := sf.Fetch(); s.SchemaVersion() != "3" {
		t.Error("Unexpected result:", s.Map())
		return
	} else if stats, ok := s.Statistics(); !ok || stats.VertexCount != 6 {
		t.Error("Unexpected result:", stats)
		return
	}

	fr = NewFileReader(schemaFile, "")

	if ok, _ := fr.SyncStatsEnabled(m.GraphID); ok {
		t.Error("Statistics should be disabled")
		return
	}

	if stats, err := fr.ReadStats(m.GraphID); stats != nil || err != nil {
		t.Error("Unexpected result:", stats, err)
		return
	}

	// Errors

	if _, err := NewFileReader("unknownfile.yaml", "").ReadMeta(); !errors.Is(err, meta.ErrReading) {
		t.Error("Unexpected result:", err)
		return
	}

	ioutil.WriteFile(schemaFile, []byte("vertex_types: []"), 0644)

	if _, err := fr.ReadMeta(); err == nil || err.Error() != "MetaError: Could not read metadata (Schema has no version)" {
		t.Error("Unexpected result:", err)
		return
	}

	ioutil.WriteFile(schemaFile, []byte("version: [1"), 0644)

	if _, err := fr.ReadMeta(); !errors.Is(err, meta.ErrReading) {
		t.Error("Unexpected result:", err)
		return
	}
}

/*
Start a HTTP test server.
*/
func startServer() (*httputil.HTTPServer, *sync.WaitGroup) {
	hs := &httputil.HTTPServer{}

	var wg sync.WaitGroup
	wg.Add(1)

	go hs.RunHTTPServer(TESTPORT, &wg)

	wg.Wait()

	// Server is started

	if hs.LastError != nil {
		panic(hs.LastError)
	}

	return hs, &wg
}

/*
Stop a started HTTP test server.
*/
func stopServer(hs *httputil.HTTPServer, wg *sync.WaitGroup) {

	if hs.Running == true {

		wg.Add(1)

		// Server is shut down

		hs.Shutdown()

		wg.Wait()

	} else {

		panic("Server was not running as expected")
	}
}
