package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ielts-tools/ieltscrawl/internal/crawl"
	"github.com/ielts-tools/ieltscrawl/internal/discover"
	"github.com/ielts-tools/ieltscrawl/internal/models"
)

var (
	crawlAllPreview bool
	crawlAllDB      bool
	crawlAllLevel   string
	crawlAllBrowser bool
)

var crawlAllCmd = &cobra.Command{
	Use:   "crawl-all <index-url>",
	Short: "Discover every test on an index page and crawl them all",
	Long: `Discover test links on an index page, group section links into complete
tests, and crawl each one. Sections like sample-1.1, sample-1.2, sample-1.3
combine into a single multi-part test.

Examples:
  ieltscrawl crawl-all https://example.com/ielts/reading-samples.html
  ieltscrawl crawl-all --preview https://example.com/ielts/reading-samples.html
  ieltscrawl crawl-all --db https://example.com/ielts/reading-samples.html`,
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
		d := discover.NewDiscoverer(newFetcher(cfg, crawlAllBrowser), newLLMClient(cfg), log)

		links, err := d.DiscoverList(ctx, args[0])
		if err != nil {
			return err
		}
		if len(links) == 0 {
			return fmt.Errorf("no test links found on %s", args[0])
		}

		grouped := discover.GroupIntoTests(links)
		fmt.Printf("found %d sections in %d complete tests\n", len(links), len(grouped))

		var up crawl.Uploader
		closeUp := func() {}
		if !crawlAllPreview {
			up, closeUp, err = newUploader(ctx, cfg, crawlAllDB, log)
			if err != nil {
				return err
			}
		}
		defer closeUp()

		level := crawlAllLevel
		if level == "" {
			level = cfg.Crawl.DefaultLevel
		}

		crawler := newCrawler(cfg, crawlAllBrowser, log)
		results := crawler.CrawlAll(ctx, grouped, models.ParseLevel(level), up)

		succeeded := 0
		for _, res := range results {
			if res.Success {
				succeeded++
				if res.TestID != "" {
					fmt.Printf("  ok   %s (id %s)\n", res.Title, res.TestID)
				} else {
					fmt.Printf("  ok   %s\n", res.Title)
				}
			} else {
				fmt.Printf("  fail %s: %s\n", res.Title, res.Error)
			}
		}
		fmt.Printf("%d/%d tests succeeded\n", succeeded, len(results))
		return nil
	},
}

func init() {
	crawlAllCmd.Flags().BoolVar(&crawlAllPreview, "preview", false, "Crawl without uploading")
	crawlAllCmd.Flags().BoolVar(&crawlAllDB, "db", false, "Insert directly into the database instead of the REST API")
	crawlAllCmd.Flags().StringVar(&crawlAllLevel, "level", "", "Difficulty level: Low, Mid, High, Great")
	crawlAllCmd.Flags().BoolVar(&crawlAllBrowser, "browser", false, "Render pages in headless Chrome")

	rootCmd.AddCommand(crawlAllCmd)
}
