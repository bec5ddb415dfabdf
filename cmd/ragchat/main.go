// Command ragchat is a terminal chat client for a running ragserver.
//
// Usage:
//
//	go run ./cmd/ragchat [-api http://localhost:8000] [-k 3]
//
// The API key is read from -api-key or $RAG_API_KEY (a .env file in the
// working directory is honoured).
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/chat"
	"github.com/Adithya-Monish-Kumar-K/ragqa/internal/client"
)

func main() {
	_ = godotenv.Load()

	apiURL := flag.String("api", envOr("RAG_API_URL", "http://localhost:8000"), "base URL of the QA server")
	apiKey := flag.String("api-key", os.Getenv("RAG_API_KEY"), "API key sent as X-API-Key")
	k := flag.Int("k", 3, "snippets requested per question")
	flag.Parse()

	c := client.New(*apiURL, client.WithAPIKey(*apiKey))
	p := tea.NewProgram(chat.New(c, *k, *apiURL), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "chat error: %v\n", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
