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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	syncCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gsclient",
		Subsystem: "meta",
		Name:      "syncs_total",
		Help:      "Number of metadata reads by task and result.",
	}, []string{"task", "result"})

	stateGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "gsclient",
		Subsystem: "meta",
		Name:      "stats_state",
		Help:      "Freshness state of the statistics (0=initialized, 1=mocked, 2=synced).",
	})
)
