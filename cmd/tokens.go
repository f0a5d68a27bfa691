package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	tokensLimit  int
	tokensOffset int
)

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "List registered tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		tokens, err := client.ListTokens(cmd.Context(), tokensLimit, tokensOffset)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "SYMBOL\tNAME\tISSUER\tPRECISION\tCIRCULATING\tMAX SUPPLY")
		for _, t := range tokens {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
				t.Symbol, t.Name, t.Issuer, t.Precision, t.CirculatingSupply, t.MaxSupply)
		}
		return w.Flush()
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token SYMBOL",
	Short: "Show one token's registration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		token, err := client.GetToken(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if token == nil {
			return fmt.Errorf("token %s does not exist", args[0])
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintf(w, "Symbol:\t%s\n", token.Symbol)
		fmt.Fprintf(w, "Name:\t%s\n", token.Name)
		fmt.Fprintf(w, "Issuer:\t%s\n", token.Issuer)
		fmt.Fprintf(w, "Precision:\t%d\n", token.Precision)
		fmt.Fprintf(w, "Supply:\t%s\n", token.Supply)
		fmt.Fprintf(w, "Circulating:\t%s\n", token.CirculatingSupply)
		fmt.Fprintf(w, "Max supply:\t%s\n", token.MaxSupply)
		if token.Metadata.URL != "" {
			fmt.Fprintf(w, "URL:\t%s\n", token.Metadata.URL)
		}
		return w.Flush()
	},
}

func init() {
	tokensCmd.Flags().IntVar(&tokensLimit, "limit", 100, "maximum tokens to list")
	tokensCmd.Flags().IntVar(&tokensOffset, "offset", 0, "pagination offset")
	rootCmd.AddCommand(tokensCmd)
	rootCmd.AddCommand(tokenCmd)
}
