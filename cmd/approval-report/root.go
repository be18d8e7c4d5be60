package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/lms-api/internal/approval"
	"github.com/noah-isme/lms-api/pkg/config"
	"github.com/noah-isme/lms-api/pkg/logger"
	"github.com/noah-isme/lms-api/pkg/lmsclient"
)

type courseSource interface {
	ListCourses(ctx context.Context, session lmsclient.Session) ([]lmsclient.Course, error)
}

type reportOptions struct {
	baseURL  string
	token    string
	status   string
	search   string
	category string
	page     int
	pageSize int
	output   string
}

func newRootCommand() *cobra.Command {
	var opts reportOptions

	cmd := &cobra.Command{
		Use:           "approval-report",
		Short:         "Summarise course approval status from an LMS backend",
		Long:          "Fetches every course from the LMS REST API, derives each course's approval status and prints the status counts plus one filtered page.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			log, err := logger.New(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer log.Sync() //nolint:errcheck

			applyConfigDefaults(&opts, cfg)
			client := lmsclient.New(lmsclient.Config{
				BaseURL:     opts.baseURL,
				Timeout:     cfg.Upstream.Timeout,
				MaxAttempts: cfg.Upstream.MaxAttempts,
			}, nil, log)

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()
			return runReport(ctx, client, opts, cmd.OutOrStdout(), log)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.baseURL, "base-url", "", "LMS API base URL (default UPSTREAM_BASE_URL)")
	flags.StringVar(&opts.token, "token", "", "bearer token (default UPSTREAM_TOKEN)")
	flags.StringVar(&opts.status, "status", "ALL", "PENDING, APPROVED, REJECTED or ALL")
	flags.StringVar(&opts.search, "search", "", "match title, description, category or instructor")
	flags.StringVar(&opts.category, "category", "", "category name")
	flags.IntVar(&opts.page, "page", 1, "page to print")
	flags.IntVar(&opts.pageSize, "page-size", 0, "rows per page (default APPROVAL_TABLE_PAGE_SIZE)")
	flags.StringVarP(&opts.output, "output", "o", "table", "table or json")

	return cmd
}

func applyConfigDefaults(opts *reportOptions, cfg *config.Config) {
	if opts.baseURL == "" {
		opts.baseURL = cfg.Upstream.BaseURL
	}
	if opts.token == "" {
		opts.token = cfg.Upstream.Token
	}
	if opts.pageSize <= 0 {
		opts.pageSize = cfg.Approval.TablePageSize
	}
}

func runReport(ctx context.Context, source courseSource, opts reportOptions, out io.Writer, log *zap.Logger) error {
	if opts.output != "table" && opts.output != "json" {
		return fmt.Errorf("unknown output %q", opts.output)
	}
	if opts.page < 1 {
		return errors.New("page must be at least 1")
	}
	if opts.pageSize <= 0 {
		opts.pageSize = approval.TablePageSize
	}

	courses, err := source.ListCourses(ctx, lmsclient.Session{Token: opts.token})
	if err != nil {
		return err
	}

	view := approval.NewView(courses, opts.pageSize)
	view.SetFacet(approval.ParseFacet(opts.status))
	view.SetSearch(opts.search)
	view.SetCategory(opts.category)
	view.SetPage(opts.page)

	rep := buildReport(view)
	log.Debug("approval report built",
		zap.Int("total", rep.Counts.Total),
		zap.Int("matched", rep.Matched),
		zap.Int("page", rep.Page))

	if opts.output == "json" {
		return writeJSON(out, rep)
	}
	return writeTable(out, rep)
}
