// Package repl implements the interactive shell for the evaluation service.
package repl

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/google/shlex"

	httpclient "codecoach/internal/cli/http"
)

// Session holds REPL state.
type Session struct {
	client     *httpclient.Client
	prettyJSON bool
}

func New(client *httpclient.Client, prettyJSON bool) *Session {
	return &Session{client: client, prettyJSON: prettyJSON}
}

// Run reads commands until EOF or an explicit exit.
func (s *Session) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "codecoach> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem("evaluate"),
			readline.PcItem("report"),
			readline.PcItem("set", readline.PcItem("base"), readline.PcItem("timeout")),
			readline.PcItem("help"),
			readline.PcItem("exit"),
		),
	})
	if err != nil {
		return fmt.Errorf("init readline failed: %w", err)
	}
	defer func() { _ = rl.Close() }()

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input failed: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			fmt.Println("bye")
			return nil
		}
		if err := s.dispatch(ctx, line); err != nil {
			fmt.Printf("error: %v\n", err)
		}
	}
}

func (s *Session) dispatch(ctx context.Context, line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse input: %w", err)
	}
	if len(args) == 0 {
		return nil
	}
	switch args[0] {
	case "help":
		s.printHelp()
		return nil
	case "set":
		return s.handleSet(args[1:])
	case "evaluate":
		return s.handleEvaluate(ctx, args[1:])
	case "report":
		return s.handleReport(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q, try help", args[0])
	}
}

func (s *Session) handleSet(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: set base <url> | set timeout <duration>")
	}
	switch args[0] {
	case "base":
		s.client.SetBaseURL(strings.TrimRight(args[1], "/"))
		fmt.Printf("base set to %s\n", args[1])
	case "timeout":
		d, err := time.ParseDuration(args[1])
		if err != nil {
			return fmt.Errorf("bad duration %q", args[1])
		}
		s.client.SetTimeout(d)
		fmt.Printf("timeout set to %s\n", d)
	default:
		return fmt.Errorf("unknown setting %q", args[0])
	}
	return nil
}

// handleEvaluate submits a source file with test cases read from a JSON
// file of [{"input": ..., "expected": ...}] objects.
func (s *Session) handleEvaluate(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: evaluate <source-file> <tests-file> [language]")
	}
	code, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}
	testsRaw, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("read tests: %w", err)
	}
	var tests []map[string]string
	if err := json.Unmarshal(testsRaw, &tests); err != nil {
		return fmt.Errorf("parse tests file: %w", err)
	}

	payload := map[string]interface{}{
		"code":       string(code),
		"test_cases": tests,
	}
	if len(args) > 2 {
		payload["language"] = args[2]
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	info, err := s.client.Do(ctx, "POST", "/evaluate", body)
	if err != nil {
		return err
	}
	s.printResponse(info)
	return nil
}

func (s *Session) handleReport(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: report <evaluation-id>")
	}
	info, err := s.client.Do(ctx, "GET", "/api/v1/evaluations/"+args[0], nil)
	if err != nil {
		return err
	}
	s.printResponse(info)
	return nil
}

func (s *Session) printResponse(info httpclient.ResponseInfo) {
	fmt.Printf("HTTP %d (%s)\n", info.StatusCode, info.Duration.Round(time.Millisecond))
	body := info.Body
	if s.prettyJSON && json.Valid(body) {
		var buf bytes.Buffer
		if err := json.Indent(&buf, body, "", "  "); err == nil {
			body = buf.Bytes()
		}
	}
	fmt.Println(string(body))
}

func (s *Session) printHelp() {
	fmt.Println(`commands:
  evaluate <source-file> <tests-file> [language]   submit code with test cases
  report <evaluation-id>                           fetch a stored report
  set base <url>                                   change the service address
  set timeout <duration>                           change the request timeout
  help                                             show this help
  exit                                             leave the shell`)
}
