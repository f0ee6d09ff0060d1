package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lazypower/recall/internal/engine"
	"github.com/lazypower/recall/internal/memory"
	"github.com/lazypower/recall/internal/temporal"
)

var (
	addTags    []string
	addSource  string
	addUpdates string
	addConfirm bool
)

var addCmd = &cobra.Command{
	Use:   "add <content>",
	Short: "Store a new memory",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, dbPath, err := loadConfig()
		if err != nil {
			return err
		}
		db, svc, err := openService(cfg, dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		content := strings.Join(args, " ")
		rec, err := svc.Remember(context.Background(), content, engine.RememberOpts{
			Source:    memory.Source(addSource),
			Tags:      addTags,
			Confirmed: addConfirm,
			Updates:   addUpdates,
		})
		if err != nil {
			return err
		}

		fmt.Printf("stored %s\n", rec.ID)
		if rec.Static {
			fmt.Println("  static fact (slow decay)")
		}
		if rec.Temporal != nil && rec.Temporal.EventTime != nil {
			fmt.Printf("  event: %s (%s)\n",
				temporal.FormatRelative(*rec.Temporal.EventTime, time.Now()),
				rec.Temporal.Granularity)
		}
		return nil
	},
}

var (
	ingestTags   []string
	ingestSource string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <content>",
	Short: "Split content into individual facts and store each one",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, dbPath, err := loadConfig()
		if err != nil {
			return err
		}
		db, svc, err := openService(cfg, dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		content := strings.Join(args, " ")
		records, err := svc.Ingest(context.Background(), content, engine.RememberOpts{
			Source: memory.Source(ingestSource),
			Tags:   ingestTags,
		})
		if err != nil {
			return err
		}

		fmt.Printf("stored %d facts\n", len(records))
		for _, rec := range records {
			fmt.Printf("  %s  %s\n", rec.ID, rec.Content)
		}
		return nil
	},
}

var confirmCmd = &cobra.Command{
	Use:   "confirm <id>",
	Short: "Mark a memory user-confirmed and restore its confidence",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, dbPath, err := loadConfig()
		if err != nil {
			return err
		}
		db, svc, err := openService(cfg, dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := svc.Confirm(args[0]); err != nil {
			return err
		}
		fmt.Printf("confirmed %s\n", args[0])
		return nil
	},
}

var (
	searchLimit int
	searchTag   string
	searchVW    float64
	searchKW    float64
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search memories by hybrid relevance",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, dbPath, err := loadConfig()
		if err != nil {
			return err
		}
		db, svc, err := openService(cfg, dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		// Config supplies the defaults; flags override per invocation.
		opts := engine.SearchOpts{
			TopK:          cfg.Search.TopK,
			Tag:           searchTag,
			VectorWeight:  cfg.Search.VectorWeight,
			KeywordWeight: cfg.Search.KeywordWeight,
		}
		if cmd.Flags().Changed("limit") {
			opts.TopK = searchLimit
		}
		if cmd.Flags().Changed("vector-weight") {
			opts.VectorWeight = searchVW
		}
		if cmd.Flags().Changed("keyword-weight") {
			opts.KeywordWeight = searchKW
		}

		query := strings.Join(args, " ")
		results, err := svc.Recall(context.Background(), query, opts)
		if err != nil {
			return err
		}

		if len(results) == 0 {
			fmt.Println("no results")
			return nil
		}

		for i, r := range results {
			fmt.Printf("%d. [%.3f] %s\n", i+1, r.Score, r.Record.Content)
			fmt.Printf("   %s · %s\n", r.Record.ID, temporal.FormatRelative(r.Record.CreatedAt, time.Now()))
		}
		return nil
	},
}

var decayCmd = &cobra.Command{
	Use:   "decay",
	Short: "Report effective confidence of stored memories",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, dbPath, err := loadConfig()
		if err != nil {
			return err
		}
		db, _, err := openService(cfg, dbPath)
		if err != nil {
			return err
		}
		defer db.Close()

		records, err := db.AllMemories()
		if err != nil {
			return err
		}

		now := time.Now()
		for _, rec := range records {
			marker := " "
			if rec.Static {
				marker = "S"
			}
			fmt.Printf("%s %.3f (stored %.3f) %s\n",
				marker, rec.EffectiveConfidence(now), rec.Confidence, rec.Content)
		}
		return nil
	},
}

func init() {
	addCmd.Flags().StringSliceVarP(&addTags, "tag", "t", nil, "Container tags for scoping")
	addCmd.Flags().StringVar(&addSource, "source", "", "Memory source (conversation, document, userInput, derived, imported)")
	addCmd.Flags().StringVar(&addUpdates, "updates", "", "ID of the memory this fact replaces")
	addCmd.Flags().BoolVar(&addConfirm, "confirm", false, "Mark as user-confirmed")

	ingestCmd.Flags().StringSliceVarP(&ingestTags, "tag", "t", nil, "Container tags for scoping")
	ingestCmd.Flags().StringVar(&ingestSource, "source", "document", "Memory source")

	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "Maximum number of results (overrides config)")
	searchCmd.Flags().StringVarP(&searchTag, "tag", "t", "", "Filter by container tag")
	searchCmd.Flags().Float64Var(&searchVW, "vector-weight", 0, "Vector score weight (overrides config)")
	searchCmd.Flags().Float64Var(&searchKW, "keyword-weight", 0, "Keyword score weight (overrides config)")
}
