// Command cli is an interactive client for the evaluation service.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	httpclient "codecoach/internal/cli/http"
	"codecoach/internal/cli/repl"
)

func main() {
	baseURL := flag.String("base", "http://127.0.0.1:8080", "Evaluation service base URL")
	timeout := flag.Duration("timeout", 10*time.Minute, "HTTP timeout (e.g. 30s)")
	pretty := flag.Bool("pretty", true, "Pretty print JSON responses")
	flag.Parse()

	client := httpclient.New(strings.TrimRight(*baseURL, "/"), *timeout)
	session := repl.New(client, *pretty)
	if err := session.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
