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
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"devt.de/krotik/gsclient/stream"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

func init() {

	// Make sure we can use the relevant types in a gob operation

	gob.Register(&JobRequest{})
	gob.Register(&JobResponse{})
}

/*
JobRequest is a job which is submitted to all worker nodes.
*/
type JobRequest struct {
	JobID   uint64 // Unique id of the job
	JobName string // Name of the job
	Workers int    // Number of workers which should execute the job on each node
	Plan    []byte // Compiled query plan
}

/*
JobResponse is a chunk of result records which was sent by a worker node.
*/
type JobResponse struct {
	JobID   uint64   // Id of the job which produced the records
	Records [][]byte // Result records (may be empty)
}

/*
ResponseStream is the response side of a job submission on a single channel.
Recv returns io.EOF once the worker node has completed the job. An error which
matches context.DeadlineExceeded signals that the deadline of the submission
has expired.
*/
type ResponseStream interface {
	Recv() (*JobResponse, error)
}

/*
Channel is a transport to a single worker node.
*/
type Channel interface {

	/*
		Address returns the network address of the worker node.
	*/
	Address() string

	/*
		Submit sends a job request. The submission is bound to the given context.
	*/
	Submit(ctx context.Context, req *JobRequest) (ResponseStream, error)

	/*
		Close shuts the channel down.
	*/
	Close() error
}

/*
Client submits jobs to a fixed set of channels.
*/
type Client struct {
	channels   []Channel // Channels to all worker nodes
	bufferSize int       // Size of the result buffer of a submission
}

/*
NewClient creates a new client for a given set of channels. A bufferSize
smaller than 1 means stream.DefaultCapacity.
*/
func NewClient(channels []Channel, bufferSize int) *Client {
	return &Client{channels, bufferSize}
}

/*
Channels returns the addresses of all channels of this client.
*/
func (c *Client) Channels() []string {
	var ret []string

	for _, ch := range c.channels {
		ret = append(ret, ch.Address())
	}

	return ret
}

/*
NewJobName returns a new unique job name.
*/
func NewJobName() string {
	return fmt.Sprint("job-", uuid.New().String())
}

/*
SubmitPlan submits a compiled plan. An empty job name is replaced by a generated
unique name.
*/
func (c *Client) SubmitPlan(plan []byte, jobID uint64, jobName string, workers int,
	timeout time.Duration) (*stream.ResultIterator, error) {

	if jobName == "" {
		jobName = NewJobName()
	}

	if workers < 1 {
		workers = 1
	}

	return c.Submit(&JobRequest{
		JobID:   jobID,
		JobName: jobName,
		Workers: workers,
		Plan:    plan,
	}, timeout)
}

/*
Submit sends a job request on every channel and returns an iterator over the
merged results. Each channel has its own deadline which expires after the given
timeout. The first channel error fails the iterator; records of the other
channels which arrive afterwards are discarded.
*/
func (c *Client) Submit(req *JobRequest, timeout time.Duration) (*stream.ResultIterator, error) {

	if len(c.channels) == 0 {
		return nil, &Error{ErrNoChannels, "", nil}
	}

	if timeout <= 0 {
		return nil, &Error{ErrInvalidTimeout, fmt.Sprint(timeout), nil}
	}

	pr := &pendingRequest{
		jobName: req.JobName,
		sink:    stream.NewResultChannel(c.bufferSize),
	}
	pr.open.Store(int32(len(c.channels)))

	submissionCounter.Inc()
	openRequestsGauge.Inc()

	LogDebug("Submitting job ", req.JobName, " to ", len(c.channels), " channels")

	for _, ch := range c.channels {
		go pr.run(ch, req, timeout)
	}

	return pr.sink.Iterator(), nil
}

/*
Close shuts down all channels of this client.
*/
func (c *Client) Close() error {
	var g errgroup.Group

	for _, ch := range c.channels {
		ch := ch
		g.Go(ch.Close)
	}

	return g.Wait()
}

/*
pendingRequest is the state of a single submission which is shared between the
goroutines of all channels.
*/
type pendingRequest struct {
	jobName string                // Name of the submitted job
	sink    *stream.ResultChannel // Result channel which is read by the consumer
	failed  atomic.Bool           // Flag if the submission has failed
	open    atomic.Int32          // Number of channels which have not completed
}

/*
run submits a request on a single channel and forwards all received records.
*/
func (pr *pendingRequest) run(ch Channel, req *JobRequest, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	rs, err := ch.Submit(ctx, req)
	if err != nil {
		pr.onError(ch, err)
		return
	}

	for {
		resp, err := rs.Recv()

		if err == io.EOF {
			pr.onCompleted(ch)
			return

		} else if err != nil {
			pr.onError(ch, err)
			return
		}

		for _, r := range resp.Records {
			if err := pr.onRecord(ctx, r); err != nil {

				if errors.Is(err, stream.ErrAbandoned) {
					LogDebug("Consumer of job ", pr.jobName, " has gone - dropping channel ",
						ch.Address())
					pr.release()
					return
				}

				pr.onError(ch, err)
				return
			}
		}
	}
}

/*
onRecord forwards a record to the consumer unless the submission has failed.
*/
func (pr *pendingRequest) onRecord(ctx context.Context, r []byte) error {

	// The failed check is not synchronized with failing the sink - a record
	// which races a failure may still be buffered

	if pr.failed.Load() {
		discardedRecordCounter.Inc()
		return nil
	}

	err := pr.sink.Put(ctx, r)

	if errors.Is(err, stream.ErrCancelled) {

		// The sink was failed by another channel

		discardedRecordCounter.Inc()
		return nil
	}

	if err == nil {
		recordCounter.Inc()
	}

	return err
}

/*
onError fails the submission if this is the first error of any channel.
*/
func (pr *pendingRequest) onError(ch Channel, err error) {

	if !pr.failed.CompareAndSwap(false, true) {
		LogDebug("Discarding error of channel ", ch.Address(), " for failed job ",
			pr.jobName, ": ", err)
		pr.release()
		return
	}

	errType := ErrMemberComm
	if errors.Is(err, context.DeadlineExceeded) {
		errType = ErrTimeout
	}

	channelErrorCounter.WithLabelValues(errType.Error()).Inc()

	cerr := &Error{errType, fmt.Sprintf("%v: %v", ch.Address(), err), err}

	LogInfo("Job ", pr.jobName, " failed: ", cerr)

	pr.sink.Fail(cerr)
	pr.release()
}

/*
onCompleted finishes the submission once all channels have completed.
*/
func (pr *pendingRequest) onCompleted(ch Channel) {
	LogDebug("Channel ", ch.Address(), " completed job ", pr.jobName)

	if pr.release() {

		// Has no effect if the sink has already failed

		pr.sink.Finish()
	}
}

/*
release marks a channel as done. Returns true if this was the last open channel.
*/
func (pr *pendingRequest) release() bool {
	if pr.open.Add(-1) == 0 {
		openRequestsGauge.Dec()
		return true
	}
	return false
}
