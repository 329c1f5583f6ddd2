/*
Command nexusctl runs maintenance tasks against a Nexus installation.

Usage:

	nexusctl [command]

Available Commands:

	forecast      Train the forecaster on a sales file and print predictions
	create-admin  Create an administrator account
	backup        Snapshot the database and upload it to the backup bucket
*/
package main

import (
	"fmt"
	"os"

	"github.com/nexusfarm/nexus/internal/cli"
)

// Set via ldflags during build
var version = "dev"

func main() {
	if err := cli.NewRootCmd(version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
