/*
 * GSClient
 *
 * Copyright 2026 The GSClient Authors. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"strings"
	"testing"

	"devt.de/krotik/gsclient/cluster"
	"devt.de/krotik/gsclient/config"
	"devt.de/krotik/gsclient/meta"
	"devt.de/krotik/gsclient/reader"
)

func TestHandleServerCommandLine(t *testing.T) {
	var buf bytes.Buffer

	origArgs := os.Args

	config.LoadDefaultConfig()
	output = &buf

	defer func() {
		config.Config = nil
		output = os.Stdout
		os.Args = origArgs
		flag.CommandLine = flag.NewFlagSet(origArgs[0], flag.ExitOnError)
	}()

	ioutil.WriteFile("testschema.yaml", []byte("version: \"1\"\n"), 0644)
	defer os.Remove("testschema.yaml")

	ioutil.WriteFile("testplan.bin", []byte("plan1"), 0644)
	defer os.Remove("testplan.bin")

	sf, err := meta.NewStaticFetcher(reader.NewFileReader("testschema.yaml", ""), false)
	if err != nil {
		t.Error(err)
		return
	}

	echo := func(ctx context.Context, req *cluster.JobRequest, send func(*cluster.JobResponse) error) error {
		return send(&cluster.JobResponse{
			JobID:   req.JobID,
			Records: [][]byte{[]byte(fmt.Sprintf("%v:%v:%v", req.JobName, req.Workers, string(req.Plan)))},
		})
	}

	client := cluster.NewClient([]cluster.Channel{cluster.NewLocalChannel("local1", echo)}, 1)
	defer client.Close()

	run := func(args ...string) bool {
		flag.CommandLine = flag.NewFlagSet("gsclient", flag.ContinueOnError)
		os.Args = append([]string{"gsclient", "server"}, args...)
		buf.Reset()
		return handleServerCommandLine(client, sf)
	}

	if run() {
		t.Error("Server should be started")
		return
	}

	if !run("-no-serv") {
		t.Error("Server should not be started")
		return
	}

	if !run("-meta") || !strings.Contains(buf.String(), `"graph": "0"`) {
		t.Error("Unexpected result:", buf.String())
		return
	}

	if !run("-submit", "testplan.bin", "-job-name", "myjob", "-workers", "3") || buf.String() != "myjob:3:plan1\n" {
		t.Error("Unexpected result:", buf.String())
		return
	}

	if !run("-submit", "testplan.bin") || !strings.HasPrefix(buf.String(), "job-") {
		t.Error("Unexpected result:", buf.String())
		return
	}

	if !run("-submit", "missing.bin") || !strings.Contains(buf.String(), "missing.bin") {
		t.Error("Unexpected result:", buf.String())
		return
	}
}
