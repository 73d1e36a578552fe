// Command demo streams one conversation turn against a running strom server
// and prints the envelopes as they arrive.
//
//	go run ./cmd/demo -url http://localhost:8080 -message "count from 1 to 5"
//	go run ./cmd/demo -provider Flux -message "draw a lighthouse"
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/rhuss/strom/pkg/api"
)

func main() {
	url := flag.String("url", "http://localhost:8080", "strom server base URL")
	model := flag.String("model", "", "model name (server default when empty)")
	provider := flag.String("provider", "", "provider name (auto when empty)")
	message := flag.String("message", "Hello, nice day!", "user message to send")
	conversationID := flag.String("conversation", "", "conversation id to continue")
	apiKey := flag.String("key", "", "bearer credential, if the server requires one")
	raw := flag.Bool("raw", false, "print raw NDJSON lines instead of formatting")
	flag.Parse()

	req := api.ChatRequest{
		Model:          *model,
		Provider:       *provider,
		Messages:       []api.Message{{Role: "user", Content: *message}},
		ConversationID: *conversationID,
	}

	if err := stream(*url, *apiKey, &req, *raw); err != nil {
		fmt.Fprintf(os.Stderr, "demo failed: %v\n", err)
		os.Exit(1)
	}
}

func stream(baseURL, apiKey string, req *api.ChatRequest, raw bool) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequest(http.MethodPost, strings.TrimRight(baseURL, "/")+"/v1/conversation", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server answered %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}

	failed := false
	inText := false
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64<<10), 16<<20)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if raw {
			fmt.Println(line)
			continue
		}

		var env api.Envelope
		if err := json.Unmarshal([]byte(line), &env); err != nil {
			return fmt.Errorf("bad envelope %q: %w", line, err)
		}

		// Content prints as a continuous flow; everything else gets its
		// own annotated line.
		if env.Kind == api.KindContent {
			fmt.Print(env.Payload)
			inText = true
			continue
		}
		if inText {
			fmt.Println()
			inText = false
		}

		switch env.Kind {
		case api.KindProvider:
			fmt.Printf("[provider] %s\n", env.Payload)
		case api.KindConversation:
			fmt.Printf("[conversation] %s\n", env.Payload)
		case api.KindPreview:
			fmt.Printf("[preview] %s\n", env.Payload)
		case api.KindLog:
			fmt.Printf("[log] %s\n", env.Payload)
		case api.KindError:
			fmt.Printf("[error] %s\n", env.Payload)
			failed = true
		default:
			fmt.Printf("[%s] %s\n", env.Kind, env.Payload)
		}
	}
	if inText {
		fmt.Println()
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading stream: %w", err)
	}
	if failed {
		return fmt.Errorf("stream ended with an error envelope")
	}
	return nil
}
