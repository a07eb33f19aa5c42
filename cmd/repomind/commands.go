package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/xxxsen/repomind/internal/config"
	"github.com/xxxsen/repomind/internal/model"
)

type configLoader func() (*config.Config, error)

var (
	okColor   = color.New(color.FgGreen, color.Bold)
	warnColor = color.New(color.FgYellow)
	keyColor  = color.New(color.FgCyan)
)

func printOK(format string, args ...interface{}) {
	_, _ = okColor.Fprintf(os.Stdout, "✓ "+format+"\n", args...)
}

func printField(name string, value interface{}) {
	_, _ = keyColor.Fprintf(os.Stdout, "  %-16s", name)
	fmt.Fprintf(os.Stdout, "%v\n", value)
}

func printWarnField(name string, value int) {
	if value == 0 {
		printField(name, value)
		return
	}
	_, _ = keyColor.Fprintf(os.Stdout, "  %-16s", name)
	_, _ = warnColor.Fprintf(os.Stdout, "%d\n", value)
}

func withApp(load configLoader, fn func(ctx context.Context, a *app) error) error {
	cfg, err := load()
	if err != nil {
		return err
	}
	a, err := buildApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(context.Background(), a)
}

func newSyncCmd(load configLoader) *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "pull and summarize new commits for a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if projectID == "" {
				return fmt.Errorf("--project is required")
			}
			return withApp(load, func(ctx context.Context, a *app) error {
				report, err := a.pipeline.Sync(ctx, projectID)
				if err != nil {
					return err
				}
				printSyncReport(report)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project id")
	return cmd
}

func newIndexCmd(load configLoader) *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "index",
		Short: "index the source tree of a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if projectID == "" {
				return fmt.Errorf("--project is required")
			}
			return withApp(load, func(ctx context.Context, a *app) error {
				report, err := a.pipeline.Index(ctx, projectID)
				if report != nil {
					printIndexReport(report)
				}
				return err
			})
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project id")
	return cmd
}

func newCreditsCmd(load configLoader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credits",
		Short: "inspect and grant credits",
	}

	var repoURL, token string
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "count the files a repository would index",
		RunE: func(cmd *cobra.Command, args []string) error {
			if repoURL == "" {
				return fmt.Errorf("--repo is required")
			}
			return withApp(load, func(ctx context.Context, a *app) error {
				units, err := a.credits.CheckCredits(ctx, repoURL, token)
				if err != nil {
					return err
				}
				printOK("credit check for %s", repoURL)
				printField("required_units", units)
				return nil
			})
		},
	}
	checkCmd.Flags().StringVar(&repoURL, "repo", "", "repository url")
	checkCmd.Flags().StringVar(&token, "token", "", "access token for private repositories")

	var userID, ref string
	var amount int64
	grantCmd := &cobra.Command{
		Use:   "grant",
		Short: "grant credits to a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" || ref == "" {
				return fmt.Errorf("--user and --ref are required")
			}
			return withApp(load, func(ctx context.Context, a *app) error {
				applied, err := a.credits.Grant(ctx, userID, amount, ref)
				if err != nil {
					return err
				}
				balance, err := a.credits.Balance(ctx, userID)
				if err != nil {
					return err
				}
				if applied {
					printOK("granted %d credits to %s", amount, userID)
				} else {
					_, _ = warnColor.Fprintf(os.Stdout, "! grant %s already applied\n", ref)
				}
				printField("balance", balance)
				return nil
			})
		},
	}
	grantCmd.Flags().StringVar(&userID, "user", "", "user id")
	grantCmd.Flags().Int64Var(&amount, "credits", 0, "number of credits")
	grantCmd.Flags().StringVar(&ref, "ref", "", "idempotency reference, e.g. payment id")

	cmd.AddCommand(checkCmd, grantCmd)
	return cmd
}

func printSyncReport(r *model.CommitSyncReport) {
	printOK("commit sync for %s", r.ProjectID)
	printField("fetched", r.Fetched)
	printField("new", r.New)
	printField("inserted", r.Inserted)
	printWarnField("summary_failed", r.SummaryFailed)
}

func printIndexReport(r *model.IndexReport) {
	printOK("index run for %s", r.ProjectID)
	printField("attempted", r.Attempted)
	printField("succeeded", r.Succeeded)
	printWarnField("failed", r.Failed)
	printField("filtered", r.Filtered)
	printField("duration_sec", r.EndedAt-r.StartedAt)
}
