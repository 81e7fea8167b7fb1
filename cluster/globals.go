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
Package cluster contains the client which submits query plans to a fixed set of
worker nodes.

Client

The client sends the same job request over every configured channel and merges
the streamed records of all channels into one ResultIterator. The first channel
error fails the whole submission. Records which were already delivered to the
consumer are never retracted and no request is retried.

Channel

A channel is a transport to one worker node. A submission on a channel is a
unary request followed by a stream of responses. The transport package provides a
gRPC based channel. A LocalChannel serves jobs in-process.
*/
package cluster

import (
	"errors"
	"fmt"
	"log"
)

// Logging
// =======

/*
Logger is a function which processes log messages from the cluster client
*/
type Logger func(v ...interface{})

/*
LogInfo is called if an info message is logged in the cluster client
*/
var LogInfo = Logger(log.Print)

/*
LogDebug is called if a debug message is logged in the cluster client
(by default disabled)
*/
var LogDebug = Logger(LogNull)

/*
LogNull is a discarding logger to be used for disabling loggers
*/
var LogNull = func(v ...interface{}) {
}

// Errors
// ======

/*
Error is a cluster related error
*/
type Error struct {
	Type   error  // Error type (to be used for equal checks)
	Detail string // Details of this error
	Cause  error  // Error which was reported by the channel (may be nil)
}

/*
Error returns a human-readable string representation of this error.
*/
func (ce *Error) Error() string {
	if ce.Detail != "" {
		return fmt.Sprintf("ClusterError: %v (%v)", ce.Type, ce.Detail)
	}

	return fmt.Sprintf("ClusterError: %v", ce.Type)
}

/*
Is reports if the error has the given error type.
*/
func (ce *Error) Is(target error) bool {
	return ce.Type == target
}

/*
Unwrap returns the error which was reported by the channel.
*/
func (ce *Error) Unwrap() error {
	return ce.Cause
}

/*
Cluster related error types
*/
var (
	ErrNoChannels     = errors.New("No channels available")
	ErrInvalidTimeout = errors.New("Invalid timeout")
	ErrMemberComm     = errors.New("Network error")
	ErrTimeout        = errors.New("Request timed out")
	ErrClusterConfig  = errors.New("Cluster configuration error")
)
