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

/*
ResultIterator is the consumer side of a ResultChannel. An iterator must only be
used by a single goroutine. Close may be called from any goroutine.
*/
type ResultIterator struct {
	rc       *ResultChannel // Channel which is read
	next     Record         // Next record
	hasNext  bool           // Flag if next holds a record
	err      error          // Terminal error which the consumer sees
	reported bool           // Flag if the terminal error was returned by Next
}

/*
HasNext blocks until either a record is available or the stream has ended. It
returns true if the next call to Next returns a record or reports a failure of
the stream.
*/
func (it *ResultIterator) HasNext() bool {
	it.fetch()

	if it.hasNext {
		return true
	}

	se, ok := it.err.(*Error)

	return ok && se.Type == ErrFailed && !it.reported
}

/*
Next returns the next record. Blocks until a record is available or the stream
has ended. Returns an error of type ErrFailed (which unwraps to the failure cause)
if the stream failed and ErrExhausted if the stream finished and all records were
consumed.
*/
func (it *ResultIterator) Next() (Record, error) {
	it.fetch()

	if it.hasNext {
		r := it.next
		it.next, it.hasNext = nil, false
		return r, nil
	}

	it.reported = true

	return nil, it.err
}

/*
Close abandons the stream. Blocked and future producers are released.
*/
func (it *ResultIterator) Close() {
	it.rc.abandon()
}

/*
fetch waits for the next record or the end of the stream.
*/
func (it *ResultIterator) fetch() {
	rc := it.rc

	if it.hasNext || it.err != nil {
		return
	}

	for {

		// A failure is reported instead of any further buffered records

		if err := rc.Err(); err != nil {
			it.err = &Error{Type: ErrFailed, Detail: err.Error(), Cause: err}
			return
		}

		select {

		case r := <-rc.records:
			if rc.Err() != nil {
				continue
			}
			it.next, it.hasNext = r, true
			return

		case <-rc.done:
			if rc.Err() != nil {
				continue
			}

			// Finished cleanly - drain what is left

			select {
			case r := <-rc.records:
				it.next, it.hasNext = r, true
			default:
				it.err = &Error{Type: ErrExhausted}
			}
			return

		case <-rc.abandoned:
			it.err = &Error{Type: ErrAbandoned}
			return
		}
	}
}
