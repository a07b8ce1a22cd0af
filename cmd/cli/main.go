// SPDX-License-Identifier: Apache-2.0

// docpipe-cli is a small ops helper that talks to a running API server:
// pipeline statistics, per-document status, and reprocessing.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const defaultAPIURL = "http://localhost:8080"

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client := &apiClient{
		baseURL: apiBaseURL(),
		http:    &http.Client{Timeout: 30 * time.Second},
	}

	var err error
	switch os.Args[1] {
	case "stats":
		err = runStats(ctx, client, os.Args[2:])
	case "status":
		err = runStatus(ctx, client, os.Args[2:])
	case "reprocess":
		err = runReprocess(ctx, client, os.Args[2:])
	default:
		printUsage(os.Stderr)
		os.Exit(2)
	}

	if err != nil {
		logger.Error("command failed", "command", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: docpipe-cli <command> [flags]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "commands:")
	fmt.Fprintln(w, "  stats               pipeline statistics (-user for a single user)")
	fmt.Fprintln(w, "  status -id <id>     processing status of a document")
	fmt.Fprintln(w, "  reprocess -id <id>  rerun the pipeline (-from to pick the stage)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "DOCPIPE_API_URL overrides the API address (default "+defaultAPIURL+")")
}

func apiBaseURL() string {
	if v := strings.TrimSpace(os.Getenv("DOCPIPE_API_URL")); v != "" {
		return strings.TrimRight(v, "/")
	}
	return defaultAPIURL
}

func runStats(ctx context.Context, client *apiClient, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	user := fs.String("user", "", "user email to scope statistics to")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := "/api/statistics/pipeline"
	if *user != "" {
		path = "/api/statistics/users/" + url.PathEscape(*user)
	}

	return client.getAndPrint(ctx, path)
}

func runStatus(ctx context.Context, client *apiClient, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	id := fs.String("id", "", "document id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("-id is required")
	}

	return client.getAndPrint(ctx, "/api/documents/"+url.PathEscape(*id)+"/status")
}

func runReprocess(ctx context.Context, client *apiClient, args []string) error {
	fs := flag.NewFlagSet("reprocess", flag.ExitOnError)
	id := fs.String("id", "", "document id")
	from := fs.String("from", "", "stage to restart from (ingestor, extractor, classifier, router)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return fmt.Errorf("-id is required")
	}

	path := "/api/documents/" + url.PathEscape(*id) + "/reprocess"
	if *from != "" {
		path += "?from_agent=" + url.QueryEscape(*from)
	}

	return client.postAndPrint(ctx, path)
}

type apiClient struct {
	baseURL string
	http    *http.Client
}

func (c *apiClient) getAndPrint(ctx context.Context, path string) error {
	return c.doAndPrint(ctx, http.MethodGet, path)
}

func (c *apiClient) postAndPrint(ctx context.Context, path string) error {
	return c.doAndPrint(ctx, http.MethodPost, path)
}

func (c *apiClient) doAndPrint(ctx context.Context, method, path string) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, strings.TrimSpace(string(body)))
	}

	return printJSON(os.Stdout, body)
}

func printJSON(w io.Writer, body []byte) error {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		// not JSON, print as-is
		_, werr := fmt.Fprintln(w, strings.TrimSpace(string(body)))
		return werr
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
