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
	"sort"

	"devt.de/krotik/common/datautil"
	"devt.de/krotik/common/errorutil"
)

/*
GraphID identifies a graph.
*/
type GraphID string

/*
Meta is the metadata of a graph as it is read from a metadata source.
*/
type Meta struct {
	GraphID    GraphID      `yaml:"graph" json:"graph"`
	SnapshotID int64        `yaml:"snapshot" json:"snapshot"`
	Schema     *Schema      `yaml:"schema" json:"schema"`
	Procedures []*Procedure `yaml:"procedures" json:"procedures"`
}

/*
Schema is the schema of a graph. Schemas are compared by their version only.
*/
type Schema struct {
	Version     string     `yaml:"version" json:"version"`
	VertexTypes []*TypeDef `yaml:"vertex_types" json:"vertex_types"`
	EdgeTypes   []*TypeDef `yaml:"edge_types" json:"edge_types"`
}

/*
TypeDef is the definition of a vertex or edge type.
*/
type TypeDef struct {
	Label      string            `yaml:"label" json:"label"`
	Source     string            `yaml:"source,omitempty" json:"source,omitempty"`
	Target     string            `yaml:"target,omitempty" json:"target,omitempty"`
	Properties map[string]string `yaml:"properties" json:"properties"`
}

/*
Procedure is a stored procedure.
*/
type Procedure struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Query       string   `yaml:"query" json:"query"`
	Params      []string `yaml:"params" json:"params"`
}

/*
Statistics are the graph statistics which are used for cost based planning.
*/
type Statistics struct {
	VertexCount      int64            `yaml:"vertex_count" json:"vertex_count"`
	EdgeCount        int64            `yaml:"edge_count" json:"edge_count"`
	VertexTypeCounts map[string]int64 `yaml:"vertex_type_counts" json:"vertex_type_counts"`
	EdgeTypeCounts   map[string]int64 `yaml:"edge_type_counts" json:"edge_type_counts"`
}

/*
Snapshot is an immutable view of the metadata of a graph.
*/
type Snapshot struct {
	graphID    GraphID               // Id of the graph
	snapshotID int64                 // Id of the data snapshot when the metadata was read
	schema     *Schema               // Schema of the graph
	procedures map[string]*Procedure // Stored procedures by name
	stats      *Statistics           // Statistics (may be nil)
}

/*
NewSnapshot creates a new snapshot from given metadata and statistics. All given
objects are copied.
*/
func NewSnapshot(m *Meta, stats *Statistics) *Snapshot {
	s := &Snapshot{
		graphID:    m.GraphID,
		snapshotID: m.SnapshotID,
		schema:     &Schema{},
		procedures: make(map[string]*Procedure),
	}

	if m.Schema != nil {
		s.schema = copySchema(m.Schema)
	}

	for _, p := range m.Procedures {
		if p != nil {
			s.procedures[p.Name] = copyProcedure(p)
		}
	}

	if stats != nil {
		s.stats = copyStatistics(stats)
	}

	return s
}

/*
WithStatistics returns a new snapshot which is identical to this one except for
the statistics.
*/
func (s *Snapshot) WithStatistics(stats *Statistics) *Snapshot {
	ret := &Snapshot{
		graphID:    s.graphID,
		snapshotID: s.snapshotID,
		schema:     s.schema,
		procedures: s.procedures,
	}

	if stats != nil {
		ret.stats = copyStatistics(stats)
	}

	return ret
}

/*
GraphID returns the id of the graph.
*/
func (s *Snapshot) GraphID() GraphID {
	return s.graphID
}

/*
SnapshotID returns the id of the data snapshot.
*/
func (s *Snapshot) SnapshotID() int64 {
	return s.snapshotID
}

/*
SchemaVersion returns the version of the schema.
*/
func (s *Snapshot) SchemaVersion() string {
	return s.schema.Version
}

/*
Schema returns a copy of the schema.
*/
func (s *Snapshot) Schema() *Schema {
	return copySchema(s.schema)
}

/*
ProcedureNames returns the sorted names of all stored procedures.
*/
func (s *Snapshot) ProcedureNames() []string {
	var ret []string

	for n := range s.procedures {
		ret = append(ret, n)
	}

	sort.Strings(ret)

	return ret
}

/*
Procedure returns a copy of a stored procedure.
*/
func (s *Snapshot) Procedure(name string) (*Procedure, bool) {
	p, ok := s.procedures[name]
	if !ok {
		return nil, false
	}

	return copyProcedure(p), true
}

/*
Statistics returns a copy of the statistics. Returns false if the snapshot carries
no statistics.
*/
func (s *Snapshot) Statistics() (*Statistics, bool) {
	if s.stats == nil {
		return nil, false
	}

	return copyStatistics(s.stats), true
}

/*
Map returns a JSON friendly representation of this snapshot.
*/
func (s *Snapshot) Map() map[string]interface{} {
	var procs []interface{}

	for _, n := range s.ProcedureNames() {
		procs = append(procs, copyProcedure(s.procedures[n]))
	}

	ret := map[string]interface{}{
		"graph":      s.graphID,
		"snapshot":   s.snapshotID,
		"schema":     s.Schema(),
		"procedures": procs,
		"statistics": nil,
	}

	if stats, ok := s.Statistics(); ok {
		ret["statistics"] = stats
	}

	return ret
}

// Copy helpers
// ============

func copySchema(src *Schema) *Schema {
	ret := &Schema{}
	errorutil.AssertOk(datautil.CopyObject(src, ret))
	return ret
}

func copyProcedure(src *Procedure) *Procedure {
	ret := &Procedure{}
	errorutil.AssertOk(datautil.CopyObject(src, ret))
	return ret
}

func copyStatistics(src *Statistics) *Statistics {
	ret := &Statistics{}
	errorutil.AssertOk(datautil.CopyObject(src, ret))
	return ret
}
