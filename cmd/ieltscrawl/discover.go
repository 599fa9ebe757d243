package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ielts-tools/ieltscrawl/internal/discover"
)

var discoverBrowser bool

var discoverCmd = &cobra.Command{
	Use:   "discover <url>",
	Short: "List test links found on an index page",
	Long: `Analyze an index page and list the links that lead to test content.

Examples:
  ieltscrawl discover https://example.com/ielts/reading-samples.html`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		log := newLogger()
		d := discover.NewDiscoverer(newFetcher(cfg, discoverBrowser), newLLMClient(cfg), log)

		links, err := d.DiscoverList(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("found %d test links\n", len(links))
		for i, link := range links {
			fmt.Printf("%3d. [%s] %s\n     %s\n", i+1, link.TestType, link.Title, link.URL)
		}
		return nil
	},
}

func init() {
	discoverCmd.Flags().BoolVar(&discoverBrowser, "browser", false, "Render pages in headless Chrome")

	rootCmd.AddCommand(discoverCmd)
}
