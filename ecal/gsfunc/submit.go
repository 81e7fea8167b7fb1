/*
 * GSClient
 *
 * Copyright 2026 The GSClient Authors. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package gsfunc

import (
	"fmt"
	"strconv"
	"time"

	"devt.de/krotik/ecal/parser"
)

/*
SubmitFunc submits a plan to all channels and collects the result records.
*/
type SubmitFunc struct {
	Env *Environment
}

/*
Run executes the ECAL function.
*/
func (f *SubmitFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	if arglen := len(args); arglen < 1 || arglen > 3 {
		return nil, fmt.Errorf("Function requires 1 to 3 parameters: plan, optional job name and optional timeout in milliseconds")
	}

	client, timeout, err := f.Env.submitter()
	if err != nil {
		return nil, err
	}

	plan := fmt.Sprint(args[0])
	jobName := ""

	if len(args) > 1 && args[1] != nil {
		jobName = fmt.Sprint(args[1])
	}

	if len(args) > 2 {
		ms, err := strconv.ParseFloat(fmt.Sprint(args[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("Timeout should be a number: %v", args[2])
		}
		timeout = time.Duration(ms) * time.Millisecond
	}

	it, err := client.SubmitPlan([]byte(plan), 0, jobName, 0, timeout)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	records := []interface{}{}

	for it.HasNext() {
		r, err := it.Next()
		if err != nil {
			return nil, err
		}
		records = append(records, string(r))
	}

	return records, nil
}

/*
DocString returns a descriptive string.
*/
func (f *SubmitFunc) DocString() (string, error) {
	return "Submits a plan to all cluster channels and returns all result records as a list of strings.", nil
}

/*
ChannelsFunc returns the addresses of all cluster channels.
*/
type ChannelsFunc struct {
	Env *Environment
}

/*
Run executes the ECAL function.
*/
func (f *ChannelsFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	client, _, err := f.Env.submitter()
	if err != nil {
		return nil, err
	}

	ret := []interface{}{}
	for _, addr := range client.Channels() {
		ret = append(ret, addr)
	}

	return ret, nil
}

/*
DocString returns a descriptive string.
*/
func (f *ChannelsFunc) DocString() (string, error) {
	return "Returns the addresses of all cluster channels.", nil
}
