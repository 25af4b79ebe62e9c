package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spacesedan/marketsentiment/internal/models"
)

func (a *app) textCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "text <text>",
		Short: "Score the sentiment of a single text",
		Long: `Score the sentiment of a single text and print it as JSON.

Examples:
  marketsentiment text "Wheat futures rally on strong export demand"
  marketsentiment --backend hugot text "Drought threatens the corn harvest"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.svc.AnalyzeText(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return a.writeJSON(res)
		},
	}
}

func (a *app) newsCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "news",
		Short: "Aggregate a batch of news documents into a market outlook",
		Long: `Read a JSON array of {"title", "text", "date"} documents and print the
per-document sentiments with the aggregate market outlook.

Examples:
  marketsentiment news --file headlines.json
  cat headlines.json | marketsentiment news`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			docs, err := a.readDocuments(file)
			if err != nil {
				return err
			}

			report, err := a.svc.AnalyzeMarketNews(cmd.Context(), docs)
			if err != nil {
				return err
			}
			return a.writeJSON(report)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "JSON file of news documents (default: stdin)")

	return cmd
}

func (a *app) readDocuments(file string) ([]models.NewsDocument, error) {
	var r io.Reader = a.in
	if file != "" && file != "-" {
		f, err := os.Open(file)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", file, err)
		}
		defer f.Close()
		r = f
	}

	var docs []models.NewsDocument
	if err := json.NewDecoder(r).Decode(&docs); err != nil {
		return nil, fmt.Errorf("failed to decode news documents: %w", err)
	}
	return docs, nil
}
