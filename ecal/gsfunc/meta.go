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

	"devt.de/krotik/ecal/parser"
	"devt.de/krotik/gsclient/meta"
)

/*
MetaFunc returns the current metadata snapshot.
*/
type MetaFunc struct {
	Env *Environment
}

/*
Run executes the ECAL function.
*/
func (f *MetaFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	s, err := f.Env.snapshot()
	if err != nil {
		return nil, err
	}

	return toECALObject(s.Map())
}

/*
DocString returns a descriptive string.
*/
func (f *MetaFunc) DocString() (string, error) {
	return "Returns the current graph metadata: graph id, snapshot id, schema, stored procedures and statistics.", nil
}

/*
ProcedureFunc looks up a stored procedure in the current metadata snapshot.
*/
type ProcedureFunc struct {
	Env *Environment
}

/*
Run executes the ECAL function.
*/
func (f *ProcedureFunc) Run(instanceID string, vs parser.Scope, is map[string]interface{}, tid uint64, args []interface{}) (interface{}, error) {
	if arglen := len(args); arglen != 1 {
		return nil, fmt.Errorf("Function requires 1 parameter: procedure name")
	}

	s, err := f.Env.snapshot()
	if err != nil {
		return nil, err
	}

	name := fmt.Sprint(args[0])

	p, ok := s.Procedure(name)
	if !ok {
		return nil, &meta.Error{Type: meta.ErrNotFound, Detail: "Procedure " + name}
	}

	return toECALObject(p)
}

/*
DocString returns a descriptive string.
*/
func (f *ProcedureFunc) DocString() (string, error) {
	return "Looks up a stored procedure by name.", nil
}
