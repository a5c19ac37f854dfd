package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

func main() {
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}

	reader := bufio.NewReader(os.Stdin)
	prompt := func(q string) string {
		fmt.Print(q)
		s, _ := reader.ReadString('\n')
		return strings.TrimSpace(s)
	}

	name := prompt("Endpoint name (e.g., Server-A): ")
	if name == "" {
		fmt.Println("A name is required.")
		return
	}
	raw := prompt("URL to monitor (e.g., https://example.com/live): ")
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	if _, err := url.ParseRequestURI(raw); err != nil {
		fmt.Println("Invalid URL.")
		return
	}

	body, _ := json.Marshal(map[string]string{"name": name, "url": raw})
	req, _ := http.NewRequest(http.MethodPost, api+"/api/endpoints", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if pw := os.Getenv("ACCESS_PASSWORD"); pw != "" {
		req.Header.Set("X-Access-Password", pw)
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Println("Error contacting API:", err)
		return
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		fmt.Println("Added! It will show up in GET /api/status after the next check.")
	case resp.StatusCode == http.StatusConflict:
		fmt.Println("An endpoint with that name already exists.")
	case resp.StatusCode == http.StatusUnauthorized:
		fmt.Println("Unauthorized: set ACCESS_PASSWORD to the monitor's access password.")
	default:
		fmt.Println("API returned status:", resp.Status)
	}
}
