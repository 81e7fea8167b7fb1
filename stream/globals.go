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
Package stream contains the hand-off between asynchronous result producers and a
single synchronous consumer.

ResultChannel

A bounded buffer which is written by any number of producer goroutines (one per
remote channel of a query submission) and read by one consumer through a
ResultIterator. A ResultChannel ends either with Finish or with Fail - whichever
comes first. Later transitions are ignored.

A failure preempts records which are still buffered: once a channel has failed the
consumer sees the failure on its next pull. A clean finish lets the consumer drain
all buffered records before the end of the stream is signalled.

Producers never block forever: a blocked Put returns once the channel becomes
terminal, once the consumer closed its iterator or once the producer's context is
done.
*/
package stream

import (
	"errors"
	"fmt"
)

/*
Record is an opaque unit of streamed result data.
*/
type Record []byte

/*
DefaultCapacity is the default number of records which can be buffered before
producers are blocked.
*/
var DefaultCapacity = 16

/*
Error is a stream related error
*/
type Error struct {
	Type   error  // Error type (to be used for equal checks)
	Detail string // Details of this error
	Cause  error  // Underlying error which terminated the stream (may be nil)
}

/*
Error returns a human-readable string representation of this error.
*/
func (se *Error) Error() string {
	if se.Detail != "" {
		return fmt.Sprintf("StreamError: %v (%v)", se.Type, se.Detail)
	}

	return fmt.Sprintf("StreamError: %v", se.Type)
}

/*
Is reports if the error has the given error type.
*/
func (se *Error) Is(target error) bool {
	return se.Type == target
}

/*
Unwrap returns the underlying cause of this error.
*/
func (se *Error) Unwrap() error {
	return se.Cause
}

/*
Stream related error types
*/
var (
	ErrFailed    = errors.New("Stream failed")
	ErrExhausted = errors.New("Stream exhausted")
	ErrCancelled = errors.New("Stream cancelled")
	ErrAbandoned = errors.New("Stream abandoned by consumer")
	ErrUnknown   = errors.New("Unknown error")
)
