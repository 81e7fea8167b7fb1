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
Package transport contains the gRPC transport between the cluster client and the
worker nodes.

A job submission is a server streaming call "protocol.JobService/Submit". The
client sends a single cluster.JobRequest and receives a sequence of
cluster.JobResponse messages. Messages are encoded with gob.
*/
package transport

import (
	"bytes"
	"encoding/gob"
)

/*
CodecName is the name of the message codec
*/
const CodecName = "gob"

/*
gobCodec encodes gRPC messages with gob.
*/
type gobCodec struct {
}

/*
Marshal encodes a message.
*/
func (gobCodec) Marshal(v interface{}) ([]byte, error) {
	var buf bytes.Buffer

	err := gob.NewEncoder(&buf).Encode(v)

	return buf.Bytes(), err
}

/*
Unmarshal decodes a message.
*/
func (gobCodec) Unmarshal(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

/*
Name returns the name of the codec.
*/
func (gobCodec) Name() string {
	return CodecName
}
