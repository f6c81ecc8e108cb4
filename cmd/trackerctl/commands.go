package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/opsbatch/trackerkit/internal/credential"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// parseFieldValue interprets a flag value as JSON when possible, so
// callers can pass nested structures ('{"name":"Fixed"}') as well as
// plain strings.
func parseFieldValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}

// parseFieldArgs turns repeated "name=value" flags into a field map.
func parseFieldArgs(pairs []string) (map[string]any, error) {
	fields := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid field %q, expected name=value", pair)
		}
		fields[name] = parseFieldValue(value)
	}
	return fields, nil
}

func cmdCreate(a *app, args []string) error {
	flags := pflag.NewFlagSet("create", pflag.ContinueOnError)
	project := flags.String("project", "", "project key")
	issueType := flags.String("type", "Bug", "issue type name")
	summary := flags.String("summary", "", "issue summary")
	description := flags.String("description", "", "issue description")
	if err := flags.Parse(args); err != nil {
		return err
	}

	issue, err := a.client.Issues().CreateIssue(context.Background(), *project, *issueType, *summary, *description)
	if err != nil {
		return err
	}

	fmt.Println(issue.Key)
	a.logger.Info("issue created", "key", issue.Key, "url", a.client.BrowseURL(issue.Key))
	return nil
}

func cmdGet(a *app, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: trackerctl get <issue-key>")
	}

	issue, err := a.client.Issues().GetIssue(context.Background(), args[0])
	if err != nil {
		return err
	}
	return printJSON(issue)
}

func cmdUpdate(a *app, args []string) error {
	flags := pflag.NewFlagSet("update", pflag.ContinueOnError)
	pairs := flags.StringArray("field", nil, "field to set, as name=value (repeatable; value may be JSON)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return errors.New("usage: trackerctl update <issue-key> --field name=value ...")
	}

	fields, err := parseFieldArgs(*pairs)
	if err != nil {
		return err
	}
	return a.client.Issues().UpdateIssue(context.Background(), flags.Arg(0), fields)
}

func cmdDelete(a *app, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: trackerctl delete <issue-key>")
	}
	return a.client.Issues().DeleteIssue(context.Background(), args[0])
}

func cmdComment(a *app, args []string) error {
	flags := pflag.NewFlagSet("comment", pflag.ContinueOnError)
	message := flags.String("message", "", "comment text")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return errors.New("usage: trackerctl comment <issue-key> --message <text>")
	}

	_, err := a.client.Issues().CreateComment(context.Background(), flags.Arg(0), *message)
	return err
}

func cmdAttach(a *app, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: trackerctl attach <issue-key> <file>")
	}

	file, err := os.Open(args[1])
	if err != nil {
		return err
	}
	defer file.Close()

	attachment, err := a.client.Issues().AddAttachment(context.Background(), args[0], filepath.Base(args[1]), file)
	if err != nil {
		return err
	}
	a.logger.Info("attachment uploaded", "key", args[0], "filename", attachment.FileName)
	return nil
}

func cmdTransition(a *app, args []string) error {
	flags := pflag.NewFlagSet("transition", pflag.ContinueOnError)
	list := flags.Bool("list", false, "list available transitions instead of executing one")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if *list {
		if flags.NArg() != 1 {
			return errors.New("usage: trackerctl transition --list <issue-key>")
		}
		transitions, err := a.client.Issues().Transitions(context.Background(), flags.Arg(0))
		if err != nil {
			return err
		}
		for _, t := range transitions {
			fmt.Printf("%s\t%s\n", t.ID, t.Name)
		}
		return nil
	}

	if flags.NArg() != 2 {
		return errors.New("usage: trackerctl transition <issue-key> <transition-name>")
	}
	return a.client.Issues().TransitionIssue(context.Background(), flags.Arg(0), flags.Arg(1), nil)
}

func cmdClose(a *app, args []string) error {
	flags := pflag.NewFlagSet("close", pflag.ContinueOnError)
	resolution := flags.String("resolution", "", "resolution name, e.g. Fixed")
	comment := flags.String("comment", "", "closing comment")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return errors.New("usage: trackerctl close <issue-key> [--resolution <name>] [--comment <text>]")
	}

	return a.client.Issues().CloseIssue(context.Background(), flags.Arg(0), *resolution, *comment)
}

func cmdSearch(a *app, args []string) error {
	flags := pflag.NewFlagSet("search", pflag.ContinueOnError)
	all := flags.Bool("all", false, "accumulate every page of results")
	startAt := flags.Int("start-at", 0, "offset of the first result")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return errors.New("usage: trackerctl search [--all] <jql>")
	}
	jql := flags.Arg(0)

	if *all {
		issues, err := a.client.Issues().AllSearchResults(context.Background(), jql, a.cfg.PageSize)
		if err != nil {
			return err
		}
		return printJSON(issues)
	}

	page, err := a.client.Issues().SearchIssues(context.Background(), jql, *startAt, a.cfg.PageSize)
	if err != nil {
		return err
	}
	if len(page.ErrorMessages) > 0 {
		return fmt.Errorf("query rejected: %s", strings.Join(page.ErrorMessages, "; "))
	}
	return printJSON(page)
}

func cmdBrowse(a *app, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: trackerctl browse <issue-key>")
	}
	fmt.Println(a.client.BrowseURL(args[0]))
	return nil
}

func cmdWhoami(a *app, args []string) error {
	me, err := a.client.Users().Myself(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("%s (%s)\n", me.DisplayName, me.Name)
	return nil
}

func cmdSetToken(a *app, args []string) error {
	if a.cfg.Username == "" {
		return errors.New("no username configured; set username before storing a token")
	}

	fmt.Fprintf(os.Stderr, "token for %s: ", a.cfg.Username)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading token: %w", err)
	}
	token := strings.TrimSpace(line)
	if token == "" {
		return errors.New("empty token")
	}

	return credential.Set(tokenKey(a.cfg.Username), token)
}

func cmdClearToken(a *app, args []string) error {
	if a.cfg.Username == "" {
		return errors.New("no username configured")
	}
	return credential.Delete(tokenKey(a.cfg.Username))
}
