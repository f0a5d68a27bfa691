package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var balancesCmd = &cobra.Command{
	Use:   "balances USER",
	Short: "List all token balances of an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		balances, err := client.GetBalances(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "SYMBOL\tBALANCE")
		for _, b := range balances {
			fmt.Fprintf(w, "%s\t%s\n", b.Symbol, b.Balance)
		}
		return w.Flush()
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance USER SYMBOL",
	Short: "Show an account's balance of one token",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		balance, err := client.GetTokenBalance(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Println(balance)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(balancesCmd)
	rootCmd.AddCommand(balanceCmd)
}
