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
	"context"
	"io"
)

/*
JobHandler executes a job on a worker node. Responses are sent with the given
send function. A handler which returns nil has completed the job.
*/
type JobHandler func(ctx context.Context, req *JobRequest, send func(*JobResponse) error) error

/*
LocalChannel is a channel which executes jobs in-process with a JobHandler.
*/
type LocalChannel struct {
	address string     // Address of this channel
	handler JobHandler // Handler which executes jobs
}

/*
NewLocalChannel creates a new LocalChannel.
*/
func NewLocalChannel(address string, handler JobHandler) *LocalChannel {
	return &LocalChannel{address, handler}
}

/*
Address returns the address of this channel.
*/
func (lc *LocalChannel) Address() string {
	return lc.address
}

/*
Submit runs the handler in a separate goroutine.
*/
func (lc *LocalChannel) Submit(ctx context.Context, req *JobRequest) (ResponseStream, error) {
	ls := &localStream{
		ctx:       ctx,
		responses: make(chan *JobResponse),
		done:      make(chan struct{}),
	}

	go func() {
		defer close(ls.done)

		err := lc.handler(ctx, req, func(resp *JobResponse) error {
			select {
			case ls.responses <- resp:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})

		if err == nil {
			err = io.EOF
		}

		ls.err = err
	}()

	return ls, nil
}

/*
Close is a no-op for local channels.
*/
func (lc *LocalChannel) Close() error {
	return nil
}

/*
localStream hands the responses of a handler goroutine to the receiver.
*/
type localStream struct {
	ctx       context.Context   // Context of the submission
	responses chan *JobResponse // Unbuffered response hand-off
	done      chan struct{}     // Closed once the handler has returned
	err       error             // Result of the handler
}

/*
Recv returns the next response.
*/
func (ls *localStream) Recv() (*JobResponse, error) {
	select {
	case resp := <-ls.responses:
		return resp, nil
	case <-ls.done:
		return nil, ls.err
	case <-ls.ctx.Done():
		return nil, ls.ctx.Err()
	}
}
