/*
 * GSClient
 *
 * Copyright 2026 The GSClient Authors. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"testing"
	"time"

	"devt.de/krotik/common/errorutil"
	"devt.de/krotik/gsclient/cluster"
	"devt.de/krotik/gsclient/stream"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

/*
startWorker starts a job server on an in-memory listener and returns a channel
to it.
*/
func startWorker(t *testing.T, name string, handler cluster.JobHandler) *GRPCChannel {
	lis := bufconn.Listen(1024 * 1024)

	s := NewServer(handler)
	go s.Serve(lis)

	t.Cleanup(s.Stop)

	ch, err := NewGRPCChannel("passthrough:///"+name,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	errorutil.AssertOk(err)

	t.Cleanup(func() { ch.Close() })

	return ch
}

func emit(records ...string) cluster.JobHandler {
	return func(ctx context.Context, req *cluster.JobRequest, send func(*cluster.JobResponse) error) error {
		for _, r := range records {
			if err := send(&cluster.JobResponse{JobID: req.JobID, Records: [][]byte{[]byte(r)}}); err != nil {
				return err
			}
		}
		return nil
	}
}

func readAll(it *stream.ResultIterator) ([]string, error) {
	var res []string

	for it.HasNext() {
		r, err := it.Next()
		if err != nil {
			return res, err
		}
		res = append(res, string(r))
	}

	_, err := it.Next()

	return res, err
}

func TestGobCodec(t *testing.T) {
	c := gobCodec{}

	data, err := c.Marshal(&cluster.JobRequest{JobID: 5, JobName: "j", Workers: 2, Plan: []byte{1, 2}})
	if err != nil {
		t.Error(err)
		return
	}

	req := &cluster.JobRequest{}

	if err := c.Unmarshal(data, req); err != nil {
		t.Error(err)
		return
	}

	if res := fmt.Sprint(req); res != "&{5 j 2 [1 2]}" {
		t.Error("Unexpected result:", res)
		return
	}

	if c.Name() != "gob" {
		t.Error("Unexpected name:", c.Name())
		return
	}
}

func TestChannelSubmit(t *testing.T) {
	var received *cluster.JobRequest

	ch := startWorker(t, "w1", func(ctx context.Context, req *cluster.JobRequest,
		send func(*cluster.JobResponse) error) error {

		received = req

		send(&cluster.JobResponse{JobID: req.JobID, Records: [][]byte{[]byte("r1"), []byte("r2")}})
		send(&cluster.JobResponse{JobID: req.JobID})
		return send(&cluster.JobResponse{JobID: req.JobID, Records: [][]byte{[]byte("r3")}})
	})

	if ch.Address() != "passthrough:///w1" {
		t.Error("Unexpected address:", ch.Address())
		return
	}

	c := cluster.NewClient([]cluster.Channel{ch}, 0)

	it, err := c.SubmitPlan([]byte("plan"), 7, "myjob", 3, time.Second)
	if err != nil {
		t.Error(err)
		return
	}

	res, err := readAll(it)

	if !errors.Is(err, stream.ErrExhausted) {
		t.Error("Unexpected result:", err)
		return
	}

	if fmt.Sprint(res) != "[r1 r2 r3]" {
		t.Error("Unexpected result:", res)
		return
	}

	if received.JobID != 7 || received.JobName != "myjob" || received.Workers != 3 ||
		string(received.Plan) != "plan" {
		t.Error("Unexpected request:", received)
		return
	}
}

func TestChannelError(t *testing.T) {
	ch := startWorker(t, "w1", func(ctx context.Context, req *cluster.JobRequest,
		send func(*cluster.JobResponse) error) error {
		return errors.New("worker crashed")
	})

	it, _ := cluster.NewClient([]cluster.Channel{ch}, 0).Submit(&cluster.JobRequest{}, time.Second)

	_, err := readAll(it)

	if !errors.Is(err, cluster.ErrMemberComm) || !strings.Contains(err.Error(), "worker crashed") {
		t.Error("Unexpected result:", err)
		return
	}
}

func TestFanoutTimeoutScenario(t *testing.T) {

	// Channels 1 and 2 emit 2 records each and complete, channel 3 times out

	hang := func(ctx context.Context, req *cluster.JobRequest, send func(*cluster.JobResponse) error) error {
		<-ctx.Done()
		return ctx.Err()
	}

	c := cluster.NewClient([]cluster.Channel{
		startWorker(t, "w1", emit("a1", "a2")),
		startWorker(t, "w2", emit("b1", "b2")),
		startWorker(t, "w3", hang),
	}, 0)

	it, err := c.Submit(&cluster.JobRequest{JobID: 1, JobName: "scenario"}, 1000*time.Millisecond)
	if err != nil {
		t.Error(err)
		return
	}

	res, err := readAll(it)

	sort.Strings(res)

	if fmt.Sprint(res) != "[a1 a2 b1 b2]" {
		t.Error("Unexpected result:", res)
		return
	}

	if !errors.Is(err, cluster.ErrTimeout) || !errors.Is(err, context.DeadlineExceeded) {
		t.Error("Unexpected result:", err)
		return
	}

	// The stream never finishes afterwards

	if it.HasNext() {
		t.Error("Unexpected next record")
		return
	}

	if _, err2 := it.Next(); errors.Is(err2, stream.ErrExhausted) {
		t.Error("Unexpected result:", err2)
		return
	}
}

func TestDial(t *testing.T) {
	channels, err := Dial([]string{"localhost:1", "localhost:2"})
	if err != nil {
		t.Error(err)
		return
	}

	c := cluster.NewClient(channels, 0)

	if res := fmt.Sprint(c.Channels()); res != "[localhost:1 localhost:2]" {
		t.Error("Unexpected result:", res)
		return
	}

	if err := c.Close(); err != nil {
		t.Error(err)
		return
	}
}
