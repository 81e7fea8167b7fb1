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
GSClient is the client side of a distributed graph query engine.

Features:

- Submits compiled query plans to all workers of a query cluster and merges their
result streams into a single bounded stream.

- Keeps the graph schema, stored procedures and statistics in sync with a metadata
service or local metadata files.

- Comes with a REST API to inspect the metadata and to run queries.

- Metadata changes can be handled by ECAL scripts.
*/
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"devt.de/krotik/gsclient/cluster"
	"devt.de/krotik/gsclient/config"
	"devt.de/krotik/gsclient/meta"
	"devt.de/krotik/gsclient/server"
)

/*
Output writer for the results of single operations
*/
var output io.Writer = os.Stdout

func main() {

	// Initialize the default command line parser

	flag.CommandLine.Init(os.Args[0], flag.ContinueOnError)

	// Define default usage message

	flag.Usage = func() {

		// Print usage for tool selection

		fmt.Println(fmt.Sprintf("Usage of %s <tool>", os.Args[0]))
		fmt.Println()
		fmt.Println("GSClient graph query client")
		fmt.Println()
		fmt.Println("Available commands:")
		fmt.Println()
		fmt.Println("    server    Start GSClient server")
		fmt.Println()
		fmt.Println(fmt.Sprintf("Use %s <command> -help for more information about a given command.", os.Args[0]))
		fmt.Println()
	}

	// Parse the command bit

	err := flag.CommandLine.Parse(os.Args[1:])

	if len(flag.Args()) > 0 {

		arg := flag.Args()[0]

		if arg == "server" {
			if err := config.LoadConfigFile(config.DefaultConfigFile); err != nil {
				fmt.Println(err.Error())
				return
			}
			server.StartServerWithSingleOp(handleServerCommandLine)
		} else {
			flag.Usage()
		}

	} else if err == nil {

		flag.Usage()
	}
}

/*
handleServerCommandLine handles all command line options for the server
*/
func handleServerCommandLine(client *cluster.Client, fetcher meta.Fetcher) bool {
	var err error

	showMeta := flag.Bool("meta", false, "Print the current metadata snapshot")
	planFile := flag.String("submit", "", "Submit a compiled plan from a file and print the results")
	jobName := flag.String("job-name", "", "Job name of a submitted plan (default: generated)")
	workers := flag.Int("workers", int(config.Int(config.JobWorkers)), "Number of workers per node for a submitted plan")

	noServ := flag.Bool("no-serv", false, "Do not start the server after initialization")

	showHelp := flag.Bool("help", false, "Show this help message")

	flag.Usage = func() {
		fmt.Println()
		fmt.Println(fmt.Sprintf("Usage of %s server [options]", os.Args[0]))
		fmt.Println()
		flag.PrintDefaults()
		fmt.Println()
	}

	flag.CommandLine.Parse(os.Args[2:])

	if *showHelp {
		flag.Usage()
		return true
	}

	if *showMeta {
		if s, ok := fetcher.Fetch(); ok {
			var res []byte

			if res, err = json.MarshalIndent(s.Map(), "", "  "); err == nil {
				fmt.Fprintln(output, string(res))
			}

		} else {
			err = fmt.Errorf("No metadata available")
		}
	}

	if err == nil && *planFile != "" {
		err = submitPlanFile(client, *planFile, *jobName, *workers)
	}

	if err != nil {
		fmt.Fprintln(output, err.Error())
		return true
	}

	return *noServ || *showMeta || *planFile != ""
}

/*
submitPlanFile submits a plan which is stored in a file and prints all result
records.
*/
func submitPlanFile(client *cluster.Client, planFile string, jobName string, workers int) error {
	plan, err := os.ReadFile(planFile)
	if err != nil {
		return err
	}

	timeout := time.Duration(config.Int(config.RPCTimeoutMS)) * time.Millisecond

	it, err := client.SubmitPlan(plan, 0, jobName, workers, timeout)
	if err != nil {
		return err
	}
	defer it.Close()

	for it.HasNext() {
		r, err := it.Next()
		if err != nil {
			return err
		}

		fmt.Fprintln(output, string(r))
	}

	return nil
}
