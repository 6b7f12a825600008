package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperjump/jobrecall/internal/cli"
	"github.com/hyperjump/jobrecall/internal/graph"
	"github.com/hyperjump/jobrecall/internal/models"
	"github.com/hyperjump/jobrecall/internal/server"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend jobs for a candidate",
	Long: `Reads a recommendation request (desired position and resume) as JSON and prints the ranked jobs.

Examples:
  jobrecall recommend --file candidate.json
  jobrecall recommend --file candidate.json --top-k 5 --format json
  jobrecall recommend --file candidate.json --server http://localhost:8080`,
	RunE: runRecommend,
}

var (
	recommendFile   string
	recommendFormat string
	recommendTopK   int
	recommendServer string
)

func init() {
	recommendCmd.Flags().StringVarP(&recommendFile, "file", "f", "", "path to the request JSON, - for stdin (required)")
	recommendCmd.Flags().StringVar(&recommendFormat, "format", "text", "output format: text or json")
	recommendCmd.Flags().IntVarP(&recommendTopK, "top-k", "k", 0, "number of results (0 = request or config default)")
	recommendCmd.Flags().StringVar(&recommendServer, "server", "", "server URL; empty runs the engine in-process")
	if err := recommendCmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Sprintf("failed to mark file flag as required: %v", err))
	}
	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(cmd *cobra.Command, _ []string) error {
	format, err := cli.ParseFormat(recommendFormat)
	if err != nil {
		return err
	}
	req, err := readRequest(recommendFile, cmd.InOrStdin())
	if err != nil {
		return err
	}
	if recommendTopK > 0 {
		req.TopK = recommendTopK
	}

	if recommendServer != "" {
		resp, err := recommendViaHTTP(cmd.Context(), recommendServer, req)
		if err != nil {
			return fmt.Errorf("recommend failed: %w", err)
		}
		return cli.WriteRecommendations(cmd.OutOrStdout(), resp, nil, format)
	}

	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()
	components, err := initializeComponents(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	resp, err := components.Engine.Recommend(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("recommend failed: %w", err)
	}
	var titles map[string]string
	if format == cli.OutputText {
		titles = jobTitles(cmd.Context(), components.Backend, resp.Results)
	}
	return cli.WriteRecommendations(cmd.OutOrStdout(), resp, titles, format)
}

// readRequest decodes a request from path, or from stdin when path is "-".
func readRequest(path string, stdin io.Reader) (*models.RecommendRequest, error) {
	var r io.Reader
	if path == "-" {
		r = stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open request file: %w", err)
		}
		defer f.Close()
		r = f
	}
	var req models.RecommendRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return nil, fmt.Errorf("failed to decode request %s: %w", path, err)
	}
	return &req, nil
}

// jobTitles resolves display titles for results. Lookup errors leave titles out.
func jobTitles(ctx context.Context, lookup graph.Lookup, results []models.MatchResult) map[string]string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.JobID
	}
	jobs, err := lookup.Jobs(ctx, ids)
	if err != nil {
		return nil
	}
	titles := make(map[string]string, len(jobs))
	for _, j := range jobs {
		titles[j.ID] = j.Title
	}
	return titles
}

func recommendViaHTTP(ctx context.Context, serverURL string, req *models.RecommendRequest) (*models.RecommendResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()
	url := strings.TrimRight(serverURL, "/") + "/api/v1/recommend/jobs"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var results []models.MatchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if results == nil {
		results = []models.MatchResult{}
	}
	elapsed, _ := strconv.ParseInt(resp.Header.Get(server.HeaderElapsedMs), 10, 64)
	return &models.RecommendResponse{
		RequestID: resp.Header.Get(server.HeaderRequestID),
		Results:   results,
		Total:     len(results),
		TimeMs:    elapsed,
	}, nil
}
