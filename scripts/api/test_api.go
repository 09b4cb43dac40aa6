// Minimal end‑to‑end integration test for the portfolio contact API.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	baseURL  = getenv("API_URL", "http://localhost:8000/api")
	adminKey = getenv("ADMIN_API_KEY", "")
	redisURL = getenv("REDIS_URL", "")
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func main() {
	// a previous run may have used up this address's budget
	if redisURL != "" {
		resetRateLimit(context.Background())
	}

	checkHealth()

	marker := "integration-test " + uuid.NewString()
	submit(marker)
	submitInvalid()
	submitHoneypot()

	if adminKey == "" {
		fmt.Println("ADMIN_API_KEY not set, skipping list checks")
	} else {
		checkUnauthorized()
		checkListed(marker)
	}

	fmt.Println("✓ all endpoints passed")
}

// ----------------------------- public

func checkHealth() {
	var resp struct{ Status, Service string }
	doJSON("GET", "/health", nil, &resp, http.StatusOK)
	if resp.Status != "ok" {
		log.Fatalf("health: status %q", resp.Status)
	}
}

func submit(marker string) {
	var resp struct {
		OK      bool
		Message string
	}
	doJSON("POST", "/contact", map[string]any{
		"name":    "Integration Test",
		"email":   "integration@example.com",
		"subject": "End-to-end check",
		"message": marker,
	}, &resp, http.StatusOK)
	if !resp.OK {
		log.Fatal("contact: ok=false")
	}
}

func submitInvalid() {
	doJSON("POST", "/contact", map[string]any{
		"name":    "Integration Test",
		"email":   "integration@example.com",
		"subject": "End-to-end check",
		"message": "too short",
	}, nil, http.StatusUnprocessableEntity)
}

func submitHoneypot() {
	doJSON("POST", "/contact", map[string]any{
		"name":     "Integration Bot",
		"email":    "bot@example.com",
		"subject":  "Buy now",
		"message":  "honeypot submission that must not be stored",
		"honeypot": "filled",
	}, nil, http.StatusOK)
}

// ----------------------------- admin

func checkUnauthorized() {
	doAdmin("not-the-key", "GET", "/messages", nil, nil, http.StatusUnauthorized)
}

func checkListed(marker string) {
	var msgs []struct {
		ID      uint64
		Message string
	}
	doAdmin(adminKey, "GET", "/messages?limit=100", nil, &msgs, http.StatusOK)
	found := false
	for _, m := range msgs {
		if m.Message == "honeypot submission that must not be stored" {
			log.Fatal("messages: honeypot submission was stored")
		}
		if m.Message == marker {
			found = true
		}
	}
	if !found {
		log.Fatal("messages: submitted message not found")
	}
}

// ----------------------------- helpers

func resetRateLimit(ctx context.Context) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatalf("redis url: %v", err)
	}
	rdb := redis.NewClient(opt)
	defer rdb.Close()

	keys, err := rdb.Keys(ctx, "ratelimit:contact:*").Result()
	if err != nil {
		log.Fatalf("redis keys: %v", err)
	}
	if len(keys) > 0 {
		if err := rdb.Del(ctx, keys...).Err(); err != nil {
			log.Fatalf("redis del: %v", err)
		}
	}
}

func doAdmin(key, method, path string, body, out any, want int) {
	doReq(method, path, key, body, out, want)
}

func doJSON(method, path string, body, out any, want int) {
	doReq(method, path, "", body, out, want)
}

func doReq(method, path, key string, body, out any, want int) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			log.Fatalf("%s %s encode: %v", method, path, err)
		}
	}
	req, _ := http.NewRequest(method, baseURL+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("x-api-key", key)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	if res.StatusCode != want {
		log.Fatalf("%s %s: want %d got %d", method, path, want, res.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			log.Fatalf("%s %s decode: %v", method, path, err)
		}
	}
}
