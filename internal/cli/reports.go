package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"kineticcore/internal/adapters/reports"
	"kineticcore/internal/blob"
	"kineticcore/internal/core"
)

func newReportsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Browse archived generation reports",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list [MODEL]",
		Short: "List archived reports, optionally of one model",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := e.openArchive(cmd.Context())
			if err != nil {
				return err
			}
			modelID := ""
			if len(args) == 1 {
				modelID = args[0]
			}
			infos, err := reports.List(cmd.Context(), store, modelID)
			if err != nil {
				return err
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "KEY\tSIZE\tARCHIVED")
			for _, info := range infos {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", info.Key, humanize.Bytes(uint64(info.Size)), humanize.Time(info.LastModified))
			}
			return tw.Flush()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show KEY",
		Short: "Print an archived report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := e.openArchive(cmd.Context())
			if err != nil {
				return err
			}
			doc, info, err := reports.Load(cmd.Context(), store, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "archived %s, %s\n", humanize.Time(doc.ArchivedAt), humanize.Bytes(uint64(info.Size)))
			if err := printReport(out, doc.Report); err != nil {
				return err
			}
			printSummary(out, doc.Summary, core.Result{})
			return nil
		},
	})
	var expiry time.Duration
	urlCmd := &cobra.Command{
		Use:   "url KEY",
		Short: "Print a download link for an archived report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := e.openArchive(cmd.Context())
			if err != nil {
				return err
			}
			url, err := store.PresignURL(cmd.Context(), args[0], blob.SignedURLOptions{Expiry: expiry})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
	urlCmd.Flags().DurationVar(&expiry, "expiry", blob.DefaultURLExpiry, "link lifetime")
	cmd.AddCommand(urlCmd)
	return cmd
}
