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
	"fmt"
)

/*
StaticFetcher serves a snapshot which is read once.
*/
type StaticFetcher struct {
	snapshot *Snapshot
}

/*
NewStaticFetcher reads the metadata and, if enabled, the statistics from a given
reader. All trackers are notified once about the schema and once about the
statistics.
*/
func NewStaticFetcher(reader Reader, costBasedPlanner bool, trackers ...Tracker) (*StaticFetcher, error) {

	m, err := reader.ReadMeta()
	if err != nil {
		return nil, err
	} else if m.Schema == nil {
		return nil, &Error{ErrReading, fmt.Sprint("No schema for graph ", m.GraphID)}
	}

	s := NewSnapshot(m, nil)

	for _, t := range trackers {
		t.OnSchemaChanged(s)
	}

	if costBasedPlanner {
		enabled, err := reader.SyncStatsEnabled(m.GraphID)

		if err != nil {
			LogWarning("Failed to check if statistics are enabled - assuming they are not: ", err)

		} else if enabled {
			stats, err := reader.ReadStats(m.GraphID)

			if err != nil {
				LogWarning("Failed to read statistics of graph ", m.GraphID, ": ", err)
			} else if stats != nil {
				s = s.WithStatistics(stats)
			}
		}
	}

	for _, t := range trackers {
		t.OnStatsChanged(s)
	}

	return &StaticFetcher{s}, nil
}

/*
Fetch returns the snapshot.
*/
func (sf *StaticFetcher) Fetch() (*Snapshot, bool) {
	return sf.snapshot, true
}
