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
	"fmt"
	"io"
	"log"

	"devt.de/krotik/common/errorutil"
	"devt.de/krotik/gsclient/cluster"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
)

/*
Logger is a function which processes log messages from the transport
*/
type Logger func(v ...interface{})

/*
LogDebug is called if a debug message is logged in the transport
(by default disabled)
*/
var LogDebug = Logger(func(v ...interface{}) {})

/*
LogInfo is called if an info message is logged in the transport
*/
var LogInfo = Logger(log.Print)

/*
GRPCChannel is a cluster.Channel to a worker node which runs the job service.
*/
type GRPCChannel struct {
	address string           // Address of the worker node
	conn    *grpc.ClientConn // Client connection
}

/*
NewGRPCChannel creates a new channel to a given address. By default the
connection is not encrypted. The connection is established lazily.
*/
func NewGRPCChannel(address string, opts ...grpc.DialOption) (*GRPCChannel, error) {

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, opts...)

	opts = append(opts, grpc.WithDefaultCallOptions(grpc.ForceCodec(gobCodec{})))

	conn, err := grpc.NewClient(address, opts...)
	if err != nil {
		return nil, &cluster.Error{Type: cluster.ErrClusterConfig,
			Detail: fmt.Sprintf("%v: %v", address, err), Cause: err}
	}

	return &GRPCChannel{address, conn}, nil
}

/*
Dial creates channels for a list of addresses. Returns all errors which occurred.
*/
func Dial(addresses []string, opts ...grpc.DialOption) ([]cluster.Channel, error) {
	var ret []cluster.Channel

	cerr := errorutil.NewCompositeError()

	for _, a := range addresses {
		ch, err := NewGRPCChannel(a, opts...)

		if err != nil {
			cerr.Add(err)
			continue
		}

		LogInfo("Created channel to ", a)

		ret = append(ret, ch)
	}

	if cerr.HasErrors() {
		for _, ch := range ret {
			ch.Close()
		}
		return nil, cerr
	}

	return ret, nil
}

/*
Address returns the address of the worker node.
*/
func (gc *GRPCChannel) Address() string {
	return gc.address
}

/*
Submit sends a job request. The response stream ends once the given context is
done.
*/
func (gc *GRPCChannel) Submit(ctx context.Context, req *cluster.JobRequest) (cluster.ResponseStream, error) {

	cs, err := gc.conn.NewStream(ctx, &jobServiceDesc.Streams[0], submitMethod)
	if err != nil {
		return nil, translateError(err)
	}

	if err = cs.SendMsg(req); err != nil && err != io.EOF {
		return nil, translateError(err)
	}

	// On io.EOF the actual error is returned by the first receive

	if err == nil {
		if err = cs.CloseSend(); err != nil {
			return nil, translateError(err)
		}
	}

	return &grpcStream{cs}, nil
}

/*
Close closes the connection to the worker node.
*/
func (gc *GRPCChannel) Close() error {
	return gc.conn.Close()
}

/*
grpcStream receives the responses of a submission.
*/
type grpcStream struct {
	cs grpc.ClientStream
}

/*
Recv receives the next response.
*/
func (gs *grpcStream) Recv() (*cluster.JobResponse, error) {
	resp := &cluster.JobResponse{}

	if err := gs.cs.RecvMsg(resp); err != nil {
		if err == io.EOF {
			return nil, err
		}
		return nil, translateError(err)
	}

	return resp, nil
}

/*
translateError maps gRPC status errors of expired or cancelled calls to the
matching context errors.
*/
func translateError(err error) error {
	switch status.Code(err) {
	case codes.DeadlineExceeded:
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, status.Convert(err).Message())
	case codes.Canceled:
		return fmt.Errorf("%w: %v", context.Canceled, status.Convert(err).Message())
	}

	return err
}
