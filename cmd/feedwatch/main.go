// Command feedwatch prints the forum's realtime event feed.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

func main() {
	host := flag.String("host", "localhost:8375", "API server host")
	identifier := flag.String("identifier", "", "Username or email to log in with (anonymous when empty)")
	password := flag.String("password", "", "Password for -identifier")
	types := flag.String("types", "", "Comma-separated event types to show (all when empty)")
	limit := flag.Int("n", 0, "Exit after this many events (0 runs until interrupted)")
	secure := flag.Bool("tls", false, "Use https/wss")
	flag.Parse()

	httpScheme, wsScheme := "http", "ws"
	if *secure {
		httpScheme, wsScheme = "https", "wss"
	}

	header := http.Header{}
	if *identifier != "" {
		token, err := login(fmt.Sprintf("%s://%s/api/Account/login", httpScheme, *host), *identifier, *password)
		if err != nil {
			log.Fatalf("❌ Login failed: %v", err)
		}
		header.Set("Authorization", "Bearer "+token)
		log.Printf("✅ Logged in as %s", *identifier)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := &watcher{
		url:    fmt.Sprintf("%s://%s/api/ws", wsScheme, *host),
		header: header,
		filter: parseFilter(*types),
		limit:  *limit,
		out:    os.Stdout,
	}
	seen, err := w.run(ctx)
	log.Printf("received %d events", seen)
	if err != nil {
		log.Fatal(err)
	}
}

func login(loginURL, identifier, password string) (string, error) {
	body, _ := json.Marshal(map[string]string{
		"identifier": identifier,
		"password":   password,
	})

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(loginURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Token, nil
}

func parseFilter(raw string) map[string]bool {
	filter := map[string]bool{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			filter[t] = true
		}
	}
	return filter
}
