package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/Privex/go-steemengine/steemengine"
)

var (
	orderbookDirection string
	orderbookLimit     int
	tradesLimit        int
)

var orderbookCmd = &cobra.Command{
	Use:   "orderbook SYMBOL",
	Short: "Show the open order book for a token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		orders, err := client.GetOrderbook(cmd.Context(), args[0], orderbookDirection,
			steemengine.OrderbookOptions{Limit: orderbookLimit})
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "PRICE\tQUANTITY\tACCOUNT\tEXPIRES")
		for _, o := range orders {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				o.Price, o.Quantity, o.Account, o.Expiration.Format(time.RFC3339))
		}
		return w.Flush()
	},
}

var tickerCmd = &cobra.Command{
	Use:   "ticker [SYMBOL]",
	Short: "Show market metrics for one or all tokens",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}

		var tickers []*steemengine.Ticker
		if len(args) == 1 {
			ticker, err := client.GetTicker(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tickers = append(tickers, ticker)
		} else {
			tickers, err = client.GetTickers(cmd.Context(), steemengine.TickerOptions{})
			if err != nil {
				return err
			}
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "SYMBOL\tLAST\tBID\tASK\tVOLUME\tCHANGE")
		for _, t := range tickers {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				t.Symbol, t.LastPrice, t.HighestBid, t.LowestAsk, t.Volume, t.PriceChangePercent)
		}
		return w.Flush()
	},
}

var tradesCmd = &cobra.Command{
	Use:   "trades SYMBOL",
	Short: "Show recent fills for a token's market pair",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newClient()
		if err != nil {
			return err
		}
		trades, err := client.OrderHistory(cmd.Context(), args[0],
			steemengine.TradeOptions{Limit: tradesLimit})
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tDIRECTION\tPRICE\tQUANTITY\tBUYER\tSELLER")
		for _, tr := range trades {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				tr.Timestamp.Format(time.RFC3339), tr.Direction, tr.Price,
				tr.Quantity, tr.Buyer, tr.Seller)
		}
		return w.Flush()
	},
}

func init() {
	orderbookCmd.Flags().StringVar(&orderbookDirection, "direction", "buy", "book side (buy, sell)")
	orderbookCmd.Flags().IntVar(&orderbookLimit, "limit", 30, "maximum orders to show")
	tradesCmd.Flags().IntVar(&tradesLimit, "limit", 30, "maximum trades to show")
	rootCmd.AddCommand(orderbookCmd)
	rootCmd.AddCommand(tickerCmd)
	rootCmd.AddCommand(tradesCmd)
}
