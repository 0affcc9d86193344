package api

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type ProcessFunc func(script string) error

// ScriptRequest is one unit of DDL submitted as JSON.
type ScriptRequest struct {
	Script string `json:"script"`
}

// ProcessScriptStream reads DDL scripts from the request body. The body is
// either a JSON array of script requests, a stream of script request
// objects, or plain SQL text.
func ProcessScriptStream(r *http.Request, process ProcessFunc) error {
	defer r.Body.Close()

	reader := bufio.NewReader(r.Body)
	first, err := peekNonSpace(reader)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty request body")
		}
		return fmt.Errorf("error reading first byte: %w", err)
	}

	switch first {
	case '[':
		return processJsonArray(reader, process)
	case '{':
		return processJsonObjects(reader, process)
	default:
		return processPlainText(reader, process)
	}
}

func peekNonSpace(reader *bufio.Reader) (byte, error) {
	for {
		b, err := reader.Peek(1)
		if err != nil {
			return 0, err
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			if _, err := reader.Discard(1); err != nil {
				return 0, err
			}
		default:
			return b[0], nil
		}
	}
}

func processJsonArray(reader io.Reader, process ProcessFunc) error {
	decoder := json.NewDecoder(reader)

	tok, err := decoder.Token()
	if err != nil {
		return fmt.Errorf("error reading opening token: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return fmt.Errorf("expected opening [")
	}

	for decoder.More() {
		var item ScriptRequest
		if err := decoder.Decode(&item); err != nil {
			return fmt.Errorf("error decoding array item: %w", err)
		}

		if err := process(item.Script); err != nil {
			return err
		}
	}

	tok, err = decoder.Token()
	if err != nil {
		return fmt.Errorf("error reading closing token: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != ']' {
		return fmt.Errorf("expected closing ]")
	}

	return nil
}

func processJsonObjects(reader io.Reader, process ProcessFunc) error {
	decoder := json.NewDecoder(reader)

	for {
		var item ScriptRequest
		if err := decoder.Decode(&item); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("error decoding JSON object: %w", err)
		}

		if err := process(item.Script); err != nil {
			return err
		}
	}

	return nil
}

func processPlainText(reader io.Reader, process ProcessFunc) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("error reading script: %w", err)
	}
	script := strings.TrimSpace(string(data))
	if script == "" {
		return fmt.Errorf("empty script")
	}
	return process(script)
}
