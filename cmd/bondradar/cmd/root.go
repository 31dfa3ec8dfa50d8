package cmd

import (
	"fmt"
	"os"

	"bondradar-backend/lib/scrapers/smartlab"
	"bondradar-backend/lib/timezone"
	"bondradar-backend/services/bonds"

	"github.com/spf13/cobra"
)

var (
	count    int
	savePath string
	fuzzy    bool
)

func init() {
	rootCmd.Flags().IntVarP(&count, "count", "n", 10, "how many bonds to show")
	rootCmd.Flags().StringVarP(&savePath, "save", "s", "", "also write the table to this file")
	rootCmd.Flags().BoolVar(&fuzzy, "fuzzy", false, "tolerate small header wording changes on the listing page")
}

var rootCmd = &cobra.Command{
	Use:   "bondradar",
	Short: "bondradar prints the top bonds on smart-lab.ru by yield to maturity.",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := smartlab.NewClient(smartlab.ClientOptions{})
		if err != nil {
			return err
		}

		matchers := smartlab.DefaultMatchers()
		if fuzzy {
			matchers = smartlab.FuzzyMatchers(0.9)
		}

		svc := bonds.NewService(
			bonds.ListingFetch(client, matchers, timezone.Now),
			bonds.Options{},
		)
		top, err := svc.Top(cmd.Context(), count)
		if err != nil {
			return err
		}

		rendered := bonds.PlainTable(top)
		fmt.Println(rendered)

		if savePath != "" {
			err := os.WriteFile(savePath, []byte(rendered+"\n"), 0o644)
			if err != nil {
				return err
			}
			fmt.Printf("Saved to %s\n", savePath)
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
