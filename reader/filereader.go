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
	"fmt"
	"os"

	"devt.de/krotik/common/fileutil"
	"devt.de/krotik/gsclient/meta"
)

/*
DefaultGraphID is the graph id which is used if a schema document names no graph
*/
var DefaultGraphID = meta.GraphID("0")

/*
FileReader reads metadata from local files.
*/
type FileReader struct {
	schemaFile string // Schema document
	statsFile  string // Statistics document (may be empty)
}

/*
NewFileReader creates a new FileReader. Statistics are enabled if a statistics
file is given.
*/
func NewFileReader(schemaFile string, statsFile string) *FileReader {
	return &FileReader{schemaFile, statsFile}
}

/*
ReadMeta reads the schema document.
*/
func (fr *FileReader) ReadMeta() (*meta.Meta, error) {
	data, err := os.ReadFile(fr.schemaFile)
	if err != nil {
		return nil, &meta.Error{Type: meta.ErrReading, Detail: err.Error()}
	}

	m, err := parseSchema(data)

	if err == nil && m.GraphID == "" {
		m.GraphID = DefaultGraphID
	}

	return m, err
}

/*
ReadStats reads the statistics document. Returns nil if no statistics file was
given or if it does not exist.
*/
func (fr *FileReader) ReadStats(id meta.GraphID) (*meta.Statistics, error) {

	if fr.statsFile == "" {
		return nil, nil
	}

	if ok, _ := fileutil.PathExists(fr.statsFile); !ok {
		LogDebug(fmt.Sprintf("Statistics file %v does not exist", fr.statsFile))
		return nil, nil
	}

	data, err := os.ReadFile(fr.statsFile)
	if err != nil {
		return nil, &meta.Error{Type: meta.ErrReading, Detail: err.Error()}
	}

	return parseStats(data)
}

/*
SyncStatsEnabled returns true if a statistics file was given.
*/
func (fr *FileReader) SyncStatsEnabled(id meta.GraphID) (bool, error) {
	return fr.statsFile != "", nil
}
