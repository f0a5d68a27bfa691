package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	historySymbol string
	historyLimit  int
	historyOffset int
)

var historyCmd = &cobra.Command{
	Use:   "history USER",
	Short: "Show an account's token transfer history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		txs, err := client.ListTransactions(cmd.Context(), args[0], historySymbol,
			historyLimit, historyOffset)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tFROM\tTO\tQUANTITY\tSYMBOL\tMEMO")
		for _, tx := range txs {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				tx.Timestamp.Format(time.RFC3339), tx.Sender, tx.To,
				tx.Quantity, tx.Symbol, tx.Memo)
		}
		return w.Flush()
	},
}

var txinfoCmd = &cobra.Command{
	Use:   "txinfo TXID",
	Short: "Show a side-chain transaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		info, err := client.GetTransactionInfo(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if info == nil {
			return fmt.Errorf("transaction %s not found", args[0])
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintf(w, "Transaction:\t%s\n", info.TransactionID)
		fmt.Fprintf(w, "Block:\t%d\n", info.BlockNumber)
		fmt.Fprintf(w, "Sender:\t%s\n", info.Sender)
		fmt.Fprintf(w, "Contract:\t%s\n", info.Contract)
		fmt.Fprintf(w, "Action:\t%s\n", info.Action)
		for _, e := range info.Logs.Errors {
			fmt.Fprintf(w, "Error:\t%s\n", e)
		}
		for _, ev := range info.Events() {
			fmt.Fprintf(w, "Event:\t%s/%s\n", ev.Contract, ev.Event)
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().StringVar(&historySymbol, "symbol", "", "restrict to one token")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 100, "maximum transfers to show")
	historyCmd.Flags().IntVar(&historyOffset, "offset", 0, "pagination offset")
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(txinfoCmd)
}
