/*
 * GSClient
 *
 * Copyright 2026 The GSClient Authors. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package meta

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestSnapshotImmutable(t *testing.T) {
	m := testMeta("g1", "v1", "p1", "p2")

	s1 := NewSnapshot(m, nil)

	// Changing the source objects does not change the snapshot

	m.Schema.Version = "v9"
	m.Schema.VertexTypes[0].Label = "changed"
	m.Procedures[0].Query = "changed"

	if s1.SchemaVersion() != "v1" || s1.Schema().VertexTypes[0].Label != "person" {
		t.Error("Unexpected schema:", s1.Schema())
		return
	}

	if p, _ := s1.Procedure("p1"); p.Query != "MATCH (n) RETURN n" {
		t.Error("Unexpected procedure:", p)
		return
	}

	// Changing returned objects does not change the snapshot

	s1.Schema().VertexTypes[0].Properties["age"] = "int"
	p, _ := s1.Procedure("p2")
	p.Name = "changed"

	if res := fmt.Sprint(s1.Schema().VertexTypes[0].Properties); res != "map[name:string]" {
		t.Error("Unexpected result:", res)
		return
	}

	if res := fmt.Sprint(s1.ProcedureNames()); res != "[p1 p2]" {
		t.Error("Unexpected result:", res)
		return
	}

	// Adding statistics creates a new snapshot

	stats := &Statistics{VertexCount: 3, VertexTypeCounts: map[string]int64{"person": 3}}
	s2 := s1.WithStatistics(stats)
	stats.VertexCount = 100

	if _, ok := s1.Statistics(); ok {
		t.Error("Old snapshot should have no statistics")
		return
	}

	if res, ok := s2.Statistics(); !ok || res.VertexCount != 3 {
		t.Error("Unexpected result:", res)
		return
	}

	if s2.GraphID() != "g1" || s2.SnapshotID() != 1 || s2.SchemaVersion() != "v1" {
		t.Error("Unexpected snapshot:", s2.Map())
		return
	}

	if _, ok := s2.Procedure("p3"); ok {
		t.Error("Unexpected procedure")
		return
	}

	res, err := json.Marshal(s2.Map())
	if err != nil {
		t.Error(err)
		return
	}

	if string(res) != `{"graph":"g1","procedures":[`+
		`{"name":"p1","description":"","query":"MATCH (n) RETURN n","params":null},`+
		`{"name":"p2","description":"","query":"MATCH (n) RETURN n","params":null}],`+
		`"schema":{"version":"v1","vertex_types":[{"label":"person","properties":{"name":"string"}}],"edge_types":null},`+
		`"snapshot":1,"statistics":{"vertex_count":3,"edge_count":0,"vertex_type_counts":{"person":3},"edge_type_counts":null}}` {
		t.Error("Unexpected result:", string(res))
		return
	}
}

func TestSnapshotConcurrentReaders(t *testing.T) {
	r := newTestReader("v1", "v2", "v3", "v4")
	df := NewDynamicFetcher(r, time.Second, time.Second, true)

	df.SyncSchema()

	old, _ := df.Fetch()
	oldStats, _ := old.Statistics()

	var wg sync.WaitGroup
	errs := make(chan error, 10)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if old.SchemaVersion() != "v1" {
					errs <- errors.New("old snapshot changed")
					return
				}
				if s, ok := df.Fetch(); !ok || s == nil {
					errs <- errors.New("snapshot missing")
					return
				}
			}
		}()
	}

	for i := 0; i < 3; i++ {
		df.SyncSchema()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
		return
	}

	if s, _ := df.Fetch(); s.SchemaVersion() != "v4" {
		t.Error("Unexpected version:", s.SchemaVersion())
		return
	}

	if stats, _ := old.Statistics(); stats.VertexCount != oldStats.VertexCount || old.SchemaVersion() != "v1" {
		t.Error("Old snapshot changed")
		return
	}
}

func TestStaticFetcher(t *testing.T) {
	r := newTestReader("v1")
	tt := newTestTracker()

	sf, err := NewStaticFetcher(r, true, tt)
	if err != nil {
		t.Error(err)
		return
	}

	if res := tt.String(); res != "schema:g1:v1 stats:g1:v1" {
		t.Error("Unexpected result:", res)
		return
	}

	if s, ok := sf.Fetch(); !ok || s.SchemaVersion() != "v1" {
		t.Error("Unexpected result:", s)
		return
	}

	// Without statistics the trackers are notified anyway

	r = newTestReader("v1")
	r.statsErr = errors.New("no stats")
	tt = newTestTracker()

	if _, err = NewStaticFetcher(r, true, tt); err != nil || tt.String() != "schema:g1:v1 mock:g1:v1" {
		t.Error("Unexpected result:", err, tt)
		return
	}

	r = newTestReader("v1")
	tt = newTestTracker()

	if _, err = NewStaticFetcher(r, false, tt); err != nil || tt.String() != "schema:g1:v1 mock:g1:v1" ||
		r.calls() != "meta:1 stats:0 enabled:0" {
		t.Error("Unexpected result:", err, tt, r.calls())
		return
	}

	// Errors are returned

	r = newTestReader("v1")
	r.metaErr = &Error{ErrReading, "file missing"}

	if _, err = NewStaticFetcher(r, true); err == nil || err.Error() != "MetaError: Could not read metadata (file missing)" {
		t.Error("Unexpected result:", err)
		return
	}

	r.metaErr = nil
	r.metas = []*Meta{{GraphID: "g1"}}

	if _, err = NewStaticFetcher(r, true); !errors.Is(err, ErrReading) {
		t.Error("Unexpected result:", err)
		return
	}
}
