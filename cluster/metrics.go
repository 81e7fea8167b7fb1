/*
 * GSClient
 *
 * Copyright 2026 The GSClient Authors. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package cluster

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	submissionCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gsclient",
		Subsystem: "cluster",
		Name:      "submissions_total",
		Help:      "Number of submitted jobs.",
	})

	openRequestsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "gsclient",
		Subsystem: "cluster",
		Name:      "open_requests",
		Help:      "Number of submissions with at least one running channel.",
	})

	recordCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gsclient",
		Subsystem: "cluster",
		Name:      "records_total",
		Help:      "Number of records which were handed to consumers.",
	})

	discardedRecordCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gsclient",
		Subsystem: "cluster",
		Name:      "discarded_records_total",
		Help:      "Number of records which arrived after their submission had failed.",
	})

	channelErrorCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gsclient",
		Subsystem: "cluster",
		Name:      "channel_errors_total",
		Help:      "Number of submissions which were failed by a channel error.",
	}, []string{"type"})
)
