package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/tender-acquirer/internal/tender"
)

type searchFlags struct {
	region      string
	date        string
	subsystem   string
	docType     string
	reestr      string
	attachments bool
	all         bool
	subsystems  []string
	output      string
}

func (f *searchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.region, "region", "", "region code, e.g. 77")
	cmd.Flags().StringVar(&f.date, "date", "", "publication date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.subsystem, "subsystem", "", "subsystem type (default from config)")
	cmd.Flags().StringVar(&f.docType, "doc-type", "", "document type (default from config)")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "write JSON to this file instead of stdout")
}

func (f *searchFlags) query(app App) tender.Query {
	defaults := app.Config().Search
	q := tender.Query{
		Region:       f.region,
		ExactDate:    f.date,
		Subsystem:    f.subsystem,
		DocumentType: f.docType,
	}
	if q.Subsystem == "" {
		q.Subsystem = defaults.Subsystem
	}
	if q.DocumentType == "" {
		q.DocumentType = defaults.DocumentType
	}
	return q
}

func newSearchCmd() *cobra.Command {
	var flags searchFlags
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Runs a search and prints the records as JSON",
		Long: `Fetches every archive the document service lists for a region and date
(or a single registry number) and prints the resulting outcome.

  tender-acquirer search --region 77 --date 2024-01-15
  tender-acquirer search --region 77 --date 2024-01-15 --all
  tender-acquirer search --reestr 0373100000124000001`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSearch(cmd, &flags)
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&flags.reestr, "reestr", "", "registry number to look up instead of a region/date")
	cmd.Flags().BoolVar(&flags.attachments, "attachments", false, "merge attachment lists from the documents")
	cmd.Flags().BoolVar(&flags.all, "all", false, "search every default subsystem")
	cmd.Flags().StringSliceVar(&flags.subsystems, "subsystems", nil, "subsystems for --all (default from config)")
	return cmd
}

func runSearch(cmd *cobra.Command, flags *searchFlags) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	searcher := appInstance.Searcher()
	logger := appInstance.Logger()
	ctx := cmd.Context()

	var result any
	switch {
	case flags.reestr != "":
		if flags.all {
			return errors.New("--reestr cannot be combined with --all")
		}
		out, err := searcher.SearchByRegistry(ctx, flags.query(appInstance).Subsystem, flags.reestr)
		if err != nil {
			return fmt.Errorf("registry search: %w", err)
		}
		logOutcome(logger, out)
		result = out
	case flags.all:
		subsystems := flags.subsystems
		if len(subsystems) == 0 {
			subsystems = appInstance.Config().Search.Subsystems
		}
		out, err := searcher.SearchAll(ctx, flags.region, flags.date, subsystems, nil)
		if err != nil {
			return fmt.Errorf("multi-subsystem search: %w", err)
		}
		logger.Info("multi-subsystem search finished",
			zap.Int("subsystems", out.SubsystemsSearched),
			zap.Int("archives", out.ArchivesTotal),
			zap.Int("tenders", len(out.Records)),
		)
		result = out
	default:
		attachments := flags.attachments || appInstance.Config().Search.IncludeAttachments
		out, err := searcher.SearchEnhanced(ctx, flags.query(appInstance), attachments)
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		logOutcome(logger, out)
		result = out
	}
	return writeResult(cmd.OutOrStdout(), flags.output, result)
}

func logOutcome(logger *zap.Logger, out tender.Outcome) {
	logger.Info("search finished",
		zap.String("run_id", out.RunID),
		zap.Int("archives", out.ArchivesTotal),
		zap.Int("archives_failed", out.ArchivesFailed),
		zap.Int("files", out.TotalFiles),
		zap.Int("tenders", out.TotalTenders),
	)
}

func writeResult(stdout io.Writer, path string, v any) error {
	w := stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		w = f
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}
