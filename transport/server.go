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

	"devt.de/krotik/gsclient/cluster"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

/*
ServiceName is the name of the job service
*/
const ServiceName = "protocol.JobService"

/*
submitMethod is the full method name of a job submission
*/
const submitMethod = "/" + ServiceName + "/Submit"

/*
JobServer serves job submissions.
*/
type JobServer interface {

	/*
		Submit executes a job and sends all responses on the given stream.
	*/
	Submit(req *cluster.JobRequest, stream grpc.ServerStream) error
}

/*
jobServiceDesc describes the job service.
*/
var jobServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*JobServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Submit",
			Handler:       submitHandler,
			ServerStreams: true,
		},
	},
}

/*
submitHandler reads the request of a submission and hands it to the JobServer.
*/
func submitHandler(srv interface{}, ss grpc.ServerStream) error {
	req := &cluster.JobRequest{}

	if err := ss.RecvMsg(req); err != nil {
		return err
	}

	return srv.(JobServer).Submit(req, ss)
}

/*
RegisterJobServer registers a JobServer with a gRPC server. The server must use
the gob codec (see NewServer).
*/
func RegisterJobServer(s *grpc.Server, js JobServer) {
	s.RegisterService(&jobServiceDesc, js)
}

/*
NewServer creates a new gRPC server which executes jobs with a given handler.
*/
func NewServer(handler cluster.JobHandler, opts ...grpc.ServerOption) *grpc.Server {
	s := grpc.NewServer(append(opts, grpc.ForceServerCodec(gobCodec{}))...)

	RegisterJobServer(s, &handlerServer{handler})

	return s
}

/*
handlerServer is a JobServer which runs a cluster.JobHandler.
*/
type handlerServer struct {
	handler cluster.JobHandler
}

/*
Submit runs the handler and translates its result into a gRPC status.
*/
func (hs *handlerServer) Submit(req *cluster.JobRequest, ss grpc.ServerStream) error {

	LogDebug("Executing job ", req.JobName, " (", req.JobID, ")")

	err := hs.handler(ss.Context(), req, func(resp *cluster.JobResponse) error {
		return ss.SendMsg(resp)
	})

	if err == nil {
		return nil
	}

	if _, ok := status.FromError(err); ok {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return status.FromContextError(err).Err()
	}

	return status.Error(codes.Unknown, err.Error())
}
