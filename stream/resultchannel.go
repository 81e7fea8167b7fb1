/*
 * GSClient
 *
 * Copyright 2026 The GSClient Authors. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package stream

import (
	"context"
	"sync"
)

/*
ResultChannel is a bounded hand-off queue between result producers and one consumer.
*/
type ResultChannel struct {
	records chan Record // Buffered records

	lock     *sync.Mutex   // Lock for terminal state transitions
	done     chan struct{} // Closed once the channel is terminal
	failure  error         // Terminal error (nil if the channel finished cleanly)
	finished bool          // Flag if the channel finished cleanly

	abandonOnce *sync.Once    // Guard for closing the abandoned channel
	abandoned   chan struct{} // Closed once the consumer closed the iterator

	iterator *ResultIterator // Consumer side of this channel
}

/*
NewResultChannel creates a new ResultChannel which buffers up to capacity records.
A capacity smaller than 1 means DefaultCapacity.
*/
func NewResultChannel(capacity int) *ResultChannel {

	if capacity < 1 {
		capacity = DefaultCapacity
	}

	rc := &ResultChannel{
		records:     make(chan Record, capacity),
		lock:        &sync.Mutex{},
		done:        make(chan struct{}),
		abandonOnce: &sync.Once{},
		abandoned:   make(chan struct{}),
	}

	rc.iterator = &ResultIterator{rc: rc}

	return rc
}

// Producer API
// ============

/*
Put adds a record to the channel. Blocks while the buffer is full. Returns
ErrCancelled if the channel is terminal, ErrAbandoned if the consumer has gone
and the context error if the given context is done first.
*/
func (rc *ResultChannel) Put(ctx context.Context, r Record) error {

	// Check terminal states first - select does not prefer any of its cases

	select {
	case <-rc.done:
		return &Error{Type: ErrCancelled, Cause: rc.Err()}
	case <-rc.abandoned:
		return &Error{Type: ErrAbandoned}
	default:
	}

	select {
	case rc.records <- r:
		return nil
	case <-rc.done:
		return &Error{Type: ErrCancelled, Cause: rc.Err()}
	case <-rc.abandoned:
		return &Error{Type: ErrAbandoned}
	case <-ctx.Done():
		return ctx.Err()
	}
}

/*
Finish marks that no more records will arrive. Returns true if this call made
the channel terminal.
*/
func (rc *ResultChannel) Finish() bool {
	return rc.terminate(nil)
}

/*
Fail marks the channel as failed. A nil error is replaced by ErrUnknown. Returns
true if this call made the channel terminal.
*/
func (rc *ResultChannel) Fail(err error) bool {
	if err == nil {
		err = ErrUnknown
	}
	return rc.terminate(err)
}

/*
terminate moves the channel into its terminal state. Only the first call has
an effect.
*/
func (rc *ResultChannel) terminate(err error) bool {
	rc.lock.Lock()
	defer rc.lock.Unlock()

	if rc.finished || rc.failure != nil {
		return false
	}

	if err != nil {
		rc.failure = err
	} else {
		rc.finished = true
	}

	close(rc.done)

	return true
}

// State API
// =========

/*
Err returns the error which failed this channel or nil if the channel is still
running or has finished cleanly.
*/
func (rc *ResultChannel) Err() error {
	rc.lock.Lock()
	defer rc.lock.Unlock()

	return rc.failure
}

/*
IsTerminal returns if the channel has either finished or failed.
*/
func (rc *ResultChannel) IsTerminal() bool {
	select {
	case <-rc.done:
		return true
	default:
		return false
	}
}

/*
IsAbandoned returns if the consumer closed its iterator.
*/
func (rc *ResultChannel) IsAbandoned() bool {
	select {
	case <-rc.abandoned:
		return true
	default:
		return false
	}
}

/*
Iterator returns the consumer side of this channel.
*/
func (rc *ResultChannel) Iterator() *ResultIterator {
	return rc.iterator
}

/*
abandon releases all blocked and future producers.
*/
func (rc *ResultChannel) abandon() {
	rc.abandonOnce.Do(func() {
		close(rc.abandoned)
	})
}
