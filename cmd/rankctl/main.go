package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"feed-ranker/internal/di"
	"feed-ranker/internal/domain"
	"feed-ranker/internal/infra"
	"feed-ranker/internal/infra/config"
	"feed-ranker/internal/infra/logger"
	"feed-ranker/internal/usecase"
)

var (
	version = "dev"

	profilePath string
	topN        int
	timeoutSecs int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "rankctl",
	Short:   "Run the feed-ranking pipeline from the command line",
	Version: version,
}

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank stories for a profile",
	Long: `Run the full ranking pipeline once for the profile in the given
JSON file and print the ranked stories as JSON.

Examples:
  # Rank with the default result size
  rankctl rank --profile profile.json

  # Limit the output to the top 10 stories
  rankctl rank --profile profile.json --top 10`,
	RunE: runRank,
}

func init() {
	rankCmd.Flags().StringVar(&profilePath, "profile", "", "path to the profile JSON file (required)")
	rankCmd.Flags().IntVar(&topN, "top", 0, "override the configured final result size")
	rankCmd.Flags().IntVar(&timeoutSecs, "timeout", 120, "overall pipeline timeout in seconds")
	_ = rankCmd.MarkFlagRequired("profile")
	rootCmd.AddCommand(rankCmd)
}

type profileFile struct {
	Role      string   `json:"role"`
	Interests []string `json:"interests"`
	Projects  string   `json:"projects"`
}

func runRank(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if topN > 0 {
		cfg.Ranking.FinalSize = topN
	}

	log := logger.New()
	slog.SetDefault(log)

	data, err := os.ReadFile(profilePath)
	if err != nil {
		return fmt.Errorf("failed to read profile file: %w", err)
	}
	var pf profileFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return fmt.Errorf("failed to parse profile file: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSecs)*time.Second)
	defer cancel()

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name)
	dbPool, err := infra.NewPostgresDB(ctx, dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to db: %w", err)
	}
	defer dbPool.Close()

	components := di.NewApplicationComponents(cfg, dbPool, log)

	profile := domain.UserProfile{
		Role:      pf.Role,
		Interests: pf.Interests,
		Projects:  pf.Projects,
		CreatedAt: time.Now(),
	}
	output, err := components.RankUsecase.Execute(ctx, usecase.RankFeedInput{Profile: profile})
	if err != nil {
		return err
	}

	type rankedLine struct {
		ID          string  `json:"id"`
		Title       string  `json:"title"`
		Source      string  `json:"source"`
		Relevance   float64 `json:"relevance"`
		DisplayTime string  `json:"display_time"`
	}
	lines := make([]rankedLine, 0, len(output.Stories))
	for _, rs := range output.Stories {
		lines = append(lines, rankedLine{
			ID:          rs.Story.ID,
			Title:       rs.Story.Title,
			Source:      rs.Story.SourceName,
			Relevance:   rs.Relevance,
			DisplayTime: rs.DisplayTime,
		})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"degraded": output.Degraded,
		"stories":  lines,
	})
}
