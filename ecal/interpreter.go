/*
 * GSClient
 *
 * Copyright 2026 The GSClient Authors. All rights reserved.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package ecal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"devt.de/krotik/common/datautil"
	"devt.de/krotik/common/fileutil"
	"devt.de/krotik/common/stringutil"
	"devt.de/krotik/ecal/cli/tool"
	ecalconfig "devt.de/krotik/ecal/config"
	"devt.de/krotik/ecal/engine"
	"devt.de/krotik/ecal/scope"
	"devt.de/krotik/ecal/stdlib"
	"devt.de/krotik/ecal/util"
	"devt.de/krotik/gsclient/config"
	"devt.de/krotik/gsclient/ecal/gsfunc"
)

/*
EventSockMsg is the event kind which scripts use to send data to a metadata
event subscriber.

State: commID, payload, close
*/
const EventSockMsg = "gs.web.sock.msg"

/*
ScriptingInterpreter models a ECAL script interpreter instance.
*/
type ScriptingInterpreter struct {
	Env         *gsfunc.Environment  // Components which are available to scripts
	Interpreter *tool.CLIInterpreter // ECAL Interpreter object
	Bridge      *EventBridge         // Tracker which forwards metadata events

	Dir       string // Root dir for interpreter
	EntryFile string // Entry file for the program
	LogLevel  string // Log level string (Debug, Info, Error)
	LogFile   string // Logfile (blank for stdout)

	WebsocketConnections *datautil.MapCache // Registered subscriber connections
}

/*
NewScriptingInterpreter returns a new ECAL scripting interpreter.
*/
func NewScriptingInterpreter(scriptFolder string, env *gsfunc.Environment) *ScriptingInterpreter {
	return &ScriptingInterpreter{
		Env:                  env,
		Dir:                  scriptFolder,
		EntryFile:            filepath.Join(scriptFolder, config.Str(config.ECALEntryScript)),
		LogLevel:             config.Str(config.ECALLogLevel),
		LogFile:              config.Str(config.ECALLogFile),
		WebsocketConnections: datautil.NewMapCache(5000, 0),
	}
}

/*
dummyEntryFile is a small valid ECAL which does not do anything. It is used
as the default entry file if no entry file exists.
*/
const dummyEntryFile = `0 # Write your ECAL code here
`

/*
Run runs the ECAL scripting interpreter.

After this function completes:
- EntryScript in config and all related scripts in the interpreter root dir have been executed
- ECAL Interpreter object is fully initialized
- ECAL's event processor has been started
- Bridge can be added as a tracker to a metadata fetcher
*/
func (si *ScriptingInterpreter) Run() error {
	var err error

	// Ensure we have a dummy entry point

	if ok, _ := fileutil.PathExists(si.EntryFile); !ok {
		err = os.WriteFile(si.EntryFile, []byte(dummyEntryFile), 0600)
	}

	if err == nil {
		i := tool.NewCLIInterpreter()
		si.Interpreter = i

		ecalconfig.Config[ecalconfig.WorkerCount] = config.Config[config.ECALWorkerCount]

		i.Dir = &si.Dir
		i.LogFile = &si.LogFile
		i.LogLevel = &si.LogLevel

		i.EntryFile = si.EntryFile
		i.LoadPlugins = true

		i.CreateRuntimeProvider("gsclient-runtime")

		AddGSClientStdlibFunctions(si.Env)

		sockRule := &engine.Rule{
			Name:            "GSClient-websocket-communication-rule",
			Desc:            "Sends data to a metadata event subscriber",
			KindMatch:       []string{EventSockMsg},
			ScopeMatch:      []string{},
			StateMatch:      nil,
			Priority:        0,
			SuppressionList: nil,
			Action:          si.HandleSockEvent,
		}

		si.Interpreter.CustomRules = append(si.Interpreter.CustomRules, sockRule)

		if err = i.Interpret(false); err == nil {
			if si.Bridge != nil {
				si.Bridge.Close()
			}
			si.Bridge = NewEventBridge(i.RuntimeProvider.Processor, i.RuntimeProvider.Logger)
		}
	}

	// Include a traceback if possible

	if ss, ok := err.(util.TraceableRuntimeError); ok {
		err = fmt.Errorf("%v\n  %v", err.Error(), strings.Join(ss.GetTraceString(), "\n  "))
	}

	return err
}

/*
RegisterSock registers a websocket which can receive data from scripts.
*/
func (si *ScriptingInterpreter) RegisterSock(conn *WebsocketConnection) {
	si.WebsocketConnections.Put(conn.CommID, conn)
}

/*
DeregisterSock removes a registered websocket.
*/
func (si *ScriptingInterpreter) DeregisterSock(conn *WebsocketConnection) {
	si.WebsocketConnections.Remove(conn.CommID)
}

/*
HandleSockEvent handles gs.web.sock.msg events which were raised by scripts.
*/
func (si *ScriptingInterpreter) HandleSockEvent(p engine.Processor, m engine.Monitor, e *engine.Event, tid uint64) error {
	state := e.State()
	payload := scope.ConvertECALToJSONObject(state["payload"])
	shouldClose := stringutil.IsTrueValue(fmt.Sprint(state["close"]))

	id := "null"
	if commID, ok := state["commID"]; ok {
		id = fmt.Sprint(commID)
	}

	conn, ok := si.WebsocketConnections.Get(id)
	if !ok {
		return fmt.Errorf("Could not send data to unknown websocket - commID: %v", id)
	}

	wconn := conn.(*WebsocketConnection)
	err := wconn.WriteData(payload)

	if shouldClose {
		wconn.Close("")
	}

	return err
}

/*
AddGSClientStdlibFunctions adds GSClient related ECAL stdlib functions.
*/
func AddGSClientStdlibFunctions(env *gsfunc.Environment) {
	stdlib.AddStdlibPkg("gs", "GSClient related functions")

	stdlib.AddStdlibFunc("gs", "meta", &gsfunc.MetaFunc{Env: env})
	stdlib.AddStdlibFunc("gs", "procedure", &gsfunc.ProcedureFunc{Env: env})
	stdlib.AddStdlibFunc("gs", "submit", &gsfunc.SubmitFunc{Env: env})
	stdlib.AddStdlibFunc("gs", "channels", &gsfunc.ChannelsFunc{Env: env})
}
