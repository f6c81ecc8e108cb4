// Command trackerctl drives issue-tracker tickets from batch jobs and
// scripts: open a ticket on failure, search before opening a duplicate,
// attach diagnostics, and walk the ticket through its workflow.
package main

import (
	"fmt"
	"os"
)

type command struct {
	name    string
	summary string
	// needsClient is false for commands that manage local state only.
	needsClient bool
	run         func(a *app, args []string) error
}

var commands = []command{
	{name: "create", summary: "Create a new issue", needsClient: true, run: cmdCreate},
	{name: "get", summary: "Print an issue as JSON", needsClient: true, run: cmdGet},
	{name: "update", summary: "Set issue fields", needsClient: true, run: cmdUpdate},
	{name: "delete", summary: "Delete an issue", needsClient: true, run: cmdDelete},
	{name: "comment", summary: "Add a comment to an issue", needsClient: true, run: cmdComment},
	{name: "attach", summary: "Upload a file to an issue", needsClient: true, run: cmdAttach},
	{name: "transition", summary: "Execute a named workflow transition", needsClient: true, run: cmdTransition},
	{name: "close", summary: "Close an issue with an optional resolution", needsClient: true, run: cmdClose},
	{name: "search", summary: "Run a JQL query", needsClient: true, run: cmdSearch},
	{name: "browse", summary: "Print the browse URL for an issue", needsClient: true, run: cmdBrowse},
	{name: "whoami", summary: "Validate the connection and print the current user", needsClient: true, run: cmdWhoami},
	{name: "set-token", summary: "Store the credential secret in the system keyring", run: cmdSetToken},
	{name: "clear-token", summary: "Remove the stored credential secret", run: cmdClearToken},
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		usage()
		return nil
	}

	cmd := lookupCommand(args[0])
	if cmd == nil {
		return fmt.Errorf("unknown command %q, run \"trackerctl help\"", args[0])
	}

	a, err := newApp(cmd.needsClient)
	if err != nil {
		return err
	}
	return cmd.run(a, args[1:])
}

func lookupCommand(name string) *command {
	for i := range commands {
		if commands[i].name == name {
			return &commands[i]
		}
	}
	return nil
}

func usage() {
	fmt.Println("usage: trackerctl <command> [flags] [args]")
	fmt.Println()
	fmt.Println("commands:")
	for _, cmd := range commands {
		fmt.Printf("  %-12s %s\n", cmd.name, cmd.summary)
	}
	fmt.Println()
	fmt.Println("configuration: ~/.config/trackerctl/config.yaml, overridden by")
	fmt.Println("TRACKERCTL_BASE_URL / TRACKERCTL_USERNAME. The credential secret")
	fmt.Println("comes from TRACKERCTL_TOKEN or the system keyring (see set-token).")
}
