package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aleph-zero/flutterddl/api"
	"github.com/aleph-zero/flutterddl/service/query"
	"github.com/aleph-zero/flutterddl/telemetry"
	"github.com/chzyer/readline"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	serviceName       = "flutterddl-cli"
	serviceVersion    = "0.0.1"
	readlineConfigDir = ".config/flutterddl"
)

var collectorURL = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")

type Config struct {
	RemoteAddr string
	RemotePort int
}

type Option func(*Config)

func NewConfig(options ...Option) *Config {
	cfg := &Config{}
	for _, option := range options {
		option(cfg)
	}
	return cfg
}

func WithRemoteAddr(addr string) Option {
	return func(cfg *Config) {
		cfg.RemoteAddr = addr
	}
}

func WithRemotePort(port uint16) Option {
	return func(cfg *Config) {
		cfg.RemotePort = int(port)
	}
}

// Client submits DDL scripts to a flutterddl server.
type Client struct {
	endpoint string
	http     *http.Client
}

func New(config *Config) *Client {
	return &Client{
		endpoint: fmt.Sprintf("http://%s:%d/ddl", config.RemoteAddr, config.RemotePort),
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   time.Second * 30,
		},
	}
}

// Response is the decoded reply to a submitted script. Failure is set for any
// non-200 status; Scripts holds whatever completed before it.
type Response struct {
	StatusCode int
	Scripts    []*query.ScriptResult
	Failure    *api.ErrResponse
}

func (c *Client) Submit(ctx context.Context, body io.Reader, contentType string) (*Response, error) {
	ctx, span := telemetry.StartSpan(ctx, "client.ddl", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	res, err := c.http.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	defer res.Body.Close()
	telemetry.SetAttributes(span, attribute.Int("http.status_code", res.StatusCode))

	response := &Response{StatusCode: res.StatusCode}
	decoder := json.NewDecoder(res.Body)
	if res.StatusCode == http.StatusOK {
		var ddl api.DDLResponse
		if err := decoder.Decode(&ddl); err != nil {
			return nil, fmt.Errorf("error decoding response: %w", err)
		}
		response.Scripts = ddl.Scripts
		return response, nil
	}

	response.Failure = &api.ErrResponse{HTTPStatusCode: res.StatusCode}
	if err := decoder.Decode(response.Failure); err != nil {
		return nil, fmt.Errorf("error decoding %d response: %w", res.StatusCode, err)
	}
	return response, nil
}

// Print writes one line per statement outcome, followed by the failure if any.
func Print(w io.Writer, response *Response) {
	for _, script := range response.Scripts {
		for _, result := range script.Results {
			printResult(w, result.Statement, result.Message)
		}
	}

	if response.Failure == nil {
		return
	}
	for _, result := range response.Failure.Results {
		printResult(w, result.Statement, result.Message)
	}
	if r := response.Failure.Report; r != nil {
		fmt.Fprintf(w, "ERROR: %s\n", r.Error())
	} else {
		fmt.Fprintf(w, "ERROR: %s (%s)\n", response.Failure.ErrorText, response.Failure.StatusText)
	}
}

func printResult(w io.Writer, statement, message string) {
	if message == "" {
		fmt.Fprintln(w, statement)
		return
	}
	fmt.Fprintln(w, message)
}

func Bootstrap(config *Config) {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	rl, err := setupReadline()
	if err != nil {
		slog.Error("Error setting up readline config", "error", err)
		return
	}
	defer rl.Close()

	shutdown, err := telemetry.New(serviceName, serviceVersion, collectorURL)
	if err != nil {
		slog.Warn("Error initializing telemetry", "error", err)
	} else {
		defer shutdown()
	}

	c := New(config)
	var pending strings.Builder

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 && pending.Len() == 0 {
				break
			}
			pending.Reset()
			rl.SetPrompt(prompt)
			continue
		} else if err == io.EOF {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		pending.WriteString(line)
		pending.WriteString("\n")

		// Statements may span lines; a trailing semicolon submits the buffer.
		if !strings.HasSuffix(line, ";") {
			rl.SetPrompt(continuationPrompt)
			continue
		}

		script := pending.String()
		pending.Reset()
		rl.SetPrompt(prompt)

		response, err := c.Submit(ctx, strings.NewReader(script), "text/plain")
		if err != nil {
			fmt.Fprintf(rl.Stderr(), "Error submitting script: %s\n", err)
			continue
		}
		Print(rl.Stdout(), response)
	}
}

const (
	prompt             = "\033[31mflutterddl> \033[0m "
	continuationPrompt = "\033[31m        -> \033[0m "
)

func setupReadline() (rl *readline.Instance, err error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(home, readlineConfigDir)
	err = os.MkdirAll(dir, 0750)
	if err != nil {
		return nil, err
	}

	return readline.NewEx(&readline.Config{
		Prompt:            prompt,
		HistoryFile:       filepath.Join(dir, "flutterddl.history"),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
}
