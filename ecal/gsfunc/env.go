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
Package gsfunc contains GSClient specific ECAL stdlib functions.
*/
package gsfunc

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"devt.de/krotik/ecal/scope"
	"devt.de/krotik/gsclient/cluster"
	"devt.de/krotik/gsclient/meta"
)

/*
ErrNotAvailable is returned if a function is called before its backing
component was set in the environment.
*/
var ErrNotAvailable = errors.New("Not available")

/*
Environment holds the components which are used by the ECAL functions. The
components may be set after the functions were registered.
*/
type Environment struct {
	lock    *sync.RWMutex
	fetcher meta.Fetcher    // Metadata source
	client  *cluster.Client // Client for plan submissions
	timeout time.Duration   // Default submission timeout
}

/*
NewEnvironment creates a new empty environment.
*/
func NewEnvironment() *Environment {
	return &Environment{lock: &sync.RWMutex{}}
}

/*
SetFetcher sets the metadata source.
*/
func (e *Environment) SetFetcher(f meta.Fetcher) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.fetcher = f
}

/*
SetClient sets the client and the default timeout for plan submissions.
*/
func (e *Environment) SetClient(c *cluster.Client, timeout time.Duration) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.client = c
	e.timeout = timeout
}

/*
snapshot returns the current metadata snapshot.
*/
func (e *Environment) snapshot() (*meta.Snapshot, error) {
	e.lock.RLock()
	f := e.fetcher
	e.lock.RUnlock()

	if f == nil {
		return nil, &meta.Error{Type: ErrNotAvailable, Detail: "No metadata source"}
	}

	s, ok := f.Fetch()
	if !ok {
		return nil, &meta.Error{Type: ErrNotAvailable, Detail: "No metadata snapshot"}
	}

	return s, nil
}

/*
submitter returns the client and the default timeout.
*/
func (e *Environment) submitter() (*cluster.Client, time.Duration, error) {
	e.lock.RLock()
	defer e.lock.RUnlock()

	if e.client == nil {
		return nil, 0, &cluster.Error{Type: ErrNotAvailable, Detail: "No cluster client"}
	}

	return e.client, e.timeout, nil
}

/*
toECALObject converts an arbitrary value into an ECAL object by passing it
through its JSON representation.
*/
func toECALObject(v interface{}) (interface{}, error) {
	var obj interface{}

	data, err := json.Marshal(v)
	if err == nil {
		err = json.Unmarshal(data, &obj)
	}

	return scope.ConvertJSONToECALObject(obj), err
}
