package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hyperjump/classnames/internal/cli"
	"github.com/hyperjump/classnames/internal/models"
	"github.com/hyperjump/classnames/pkg/classnames"
)

func runJoin() {
	fs := flag.NewFlagSet("join", flag.ExitOnError)
	output := fs.String("output", "text", "output format: text or json")
	serverURL := fs.String("server", "", "server URL (empty = join locally)")
	input := fs.String("input", "", `JSON join request file ("-" for stdin)`)
	_ = fs.Parse(reorderArgs(fs, os.Args[2:]))

	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	req, err := buildJoinRequest(*input, os.Stdin, fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid join request: %v\n", err)
		os.Exit(1)
	}

	var resp *models.JoinResponse
	if *serverURL != "" {
		resp, err = joinViaHTTP(*serverURL, req)
	} else {
		resp, err = req.Evaluate()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Join failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteJoinResult(os.Stdout, resp, format); err != nil {
		fmt.Fprintf(os.Stderr, "Write failed: %v\n", err)
		os.Exit(1)
	}
}

// buildJoinRequest reads the -input request (from stdin when input is "-")
// and appends args as literal fragments.
func buildJoinRequest(input string, stdin io.Reader, args []string) (*models.JoinRequest, error) {
	req := &models.JoinRequest{}
	if input != "" {
		var r io.Reader = stdin
		if input != "-" {
			f, err := os.Open(input)
			if err != nil {
				return nil, fmt.Errorf("open input: %w", err)
			}
			defer f.Close()
			r = f
		}
		if err := json.NewDecoder(r).Decode(req); err != nil {
			return nil, fmt.Errorf("decode input: %w", err)
		}
	}
	for _, a := range args {
		req.Fragments = append(req.Fragments, models.Text(a))
	}
	return req, nil
}

var httpClient = &http.Client{Timeout: 30 * time.Second}

func joinViaHTTP(serverURL string, req *models.JoinRequest) (*models.JoinResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Post(strings.TrimRight(serverURL, "/")+"/api/v1/join", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	var response models.JoinResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &response, nil
}

func runNormalize() {
	fs := flag.NewFlagSet("normalize", flag.ExitOnError)
	output := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(reorderArgs(fs, os.Args[2:]))

	format, err := cli.ParseOutputFormat(*output)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	class := buildText(fs.Args())
	if format == cli.OutputJSON {
		_ = json.NewEncoder(os.Stdout).Encode(models.NormalizeResponse{Class: class})
		return
	}
	fmt.Println(class)
}

// buildText normalizes all positional args as one string, so quoting does not
// change the result.
func buildText(args []string) string {
	return classnames.Normalize(strings.Join(args, " "))
}
