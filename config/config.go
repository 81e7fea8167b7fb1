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
Package config contains the configuration handling of GSClient.

The configuration is a flat key-value map. Values which are not given in a config
file are taken from DefaultConfig.
*/
package config

import (
	"fmt"
	"strconv"
	"strings"

	"devt.de/krotik/common/errorutil"
	"devt.de/krotik/common/fileutil"
)

// Global variables
// ================

/*
ProductVersion is the current version of GSClient
*/
const ProductVersion = "0.8.0"

/*
DefaultConfigFile is the default config file which will be used to configure GSClient
*/
var DefaultConfigFile = "gsclient.config.json"

/*
Known configuration options for GSClient
*/
const (
	EndpointList              = "EndpointList"
	RPCTimeoutMS              = "RPCTimeoutMS"
	ResultBufferSize          = "ResultBufferSize"
	JobWorkers                = "JobWorkers"
	MetaServiceURL            = "MetaServiceURL"
	MetaSchemaFile            = "MetaSchemaFile"
	MetaStatsFile             = "MetaStatsFile"
	EnableDynamicMeta         = "EnableDynamicMeta"
	SchemaFetchIntervalMS     = "SchemaFetchIntervalMS"
	StatisticsFetchIntervalMS = "StatisticsFetchIntervalMS"
	PlannerIsOn               = "PlannerIsOn"
	PlannerOpt                = "PlannerOpt"
	HTTPHost                  = "HTTPHost"
	HTTPPort                  = "HTTPPort"
	EnableMetrics             = "EnableMetrics"
	EnableECAL                = "EnableECAL"
	ECALScriptFolder          = "ECALScriptFolder"
	ECALEntryScript           = "ECALEntryScript"
	ECALLogLevel              = "ECALLogLevel"
	ECALLogFile               = "ECALLogFile"
	ECALWorkerCount           = "ECALWorkerCount"
	EventLogHistory           = "EventLogHistory"
	LogLevel                  = "LogLevel"
	LockFile                  = "LockFile"
)

/*
DefaultConfig is the defaut configuration
*/
var DefaultConfig = map[string]interface{}{
	EndpointList:              "localhost:1234",
	RPCTimeoutMS:              100000,
	ResultBufferSize:          16,
	JobWorkers:                1,
	MetaServiceURL:            "",
	MetaSchemaFile:            "schema.yaml",
	MetaStatsFile:             "",
	EnableDynamicMeta:         true,
	SchemaFetchIntervalMS:     1000,
	StatisticsFetchIntervalMS: 86400000,
	PlannerIsOn:               true,
	PlannerOpt:                "RBO",
	HTTPHost:                  "localhost",
	HTTPPort:                  "9080",
	EnableMetrics:             true,
	EnableECAL:                false,
	ECALScriptFolder:          "scripts",
	ECALEntryScript:           "main.ecal",
	ECALLogLevel:              "info",
	ECALLogFile:               "",
	ECALWorkerCount:           4,
	EventLogHistory:           100,
	LogLevel:                  "info",
	LockFile:                  "gsclient.lck",
}

/*
Config is the actual config which is used
*/
var Config map[string]interface{}

/*
LoadConfigFile loads a given config file. If the config file does not exist it is
created with the default options.
*/
func LoadConfigFile(configfile string) error {
	var err error

	Config, err = fileutil.LoadConfig(configfile, DefaultConfig)

	return err
}

/*
LoadDefaultConfig loads the default configuration.
*/
func LoadDefaultConfig() {
	data := make(map[string]interface{})
	for k, v := range DefaultConfig {
		data[k] = v
	}

	Config = data
}

// Helper functions
// ================

/*
Str reads a config value as a string value.
*/
func Str(key string) string {
	return fmt.Sprint(Config[key])
}

/*
StrList reads a config value as a list of strings. Lists can be given either as
a JSON list or as a comma separated string. Empty entries are dropped.
*/
func StrList(key string) []string {
	var ret []string

	add := func(s string) {
		if s = strings.TrimSpace(s); s != "" {
			ret = append(ret, s)
		}
	}

	switch v := Config[key].(type) {
	case []interface{}:
		for _, e := range v {
			add(fmt.Sprint(e))
		}
	case []string:
		for _, e := range v {
			add(e)
		}
	case nil:
	default:
		for _, e := range strings.Split(fmt.Sprint(v), ",") {
			add(e)
		}
	}

	return ret
}

/*
Int reads a config value as an int value.
*/
func Int(key string) int64 {
	val := fmt.Sprint(Config[key])
	ret, err := strconv.ParseInt(val, 10, 64)

	if err != nil {

		// Numbers read from JSON are float64 and may print in exponent notation

		var f float64
		if f, err = strconv.ParseFloat(val, 64); err == nil {
			ret = int64(f)
		}
	}

	errorutil.AssertTrue(err == nil,
		fmt.Sprintf("Could not parse config key %v: %v", key, err))

	return ret
}

/*
Bool reads a config value as a boolean value.
*/
func Bool(key string) bool {
	ret, err := strconv.ParseBool(fmt.Sprint(Config[key]))

	errorutil.AssertTrue(err == nil,
		fmt.Sprintf("Could not parse config key %v: %v", key, err))

	return ret
}
