package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/jcmexdev/orders-service/internal/coordinator/orderlog"
	"github.com/jcmexdev/orders-service/internal/coordinator/orderlog/sqlite"
	"github.com/jcmexdev/orders-service/internal/pkg/config"
)

func newHistoryCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "history <order_id>",
		Short: "Print the journal of an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				cfg, err := config.Load(nil)
				if err != nil {
					return err
				}
				dbPath = cfg.OrderLogPath
			}

			journal, err := sqlite.Open(dbPath)
			if err != nil {
				return err
			}
			defer journal.Close()

			entries, err := journal.History(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				return fmt.Errorf("no journal entries for order %s", args[0])
			}
			renderHistory(cmd.OutOrStdout(), entries)
			return nil
		},
	}
	cmd.Flags().StringVar(&dbPath, "db", "", "journal database (default ORDERLOG_PATH)")
	return cmd
}

func renderHistory(w io.Writer, entries []*orderlog.Entry) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Time", "Status", "Step", "Order", "Saga", "Errors"})
	table.SetAutoWrapText(false)

	for _, e := range entries {
		errs := strings.TrimSpace(e.ErrorMessages)
		if errs == "[]" {
			errs = ""
		}
		table.Append([]string{
			e.CreatedAt.UTC().Format(time.RFC3339),
			string(e.Status),
			e.Step,
			e.OrderID,
			e.SagaID,
			errs,
		})
	}
	table.Render()
}
