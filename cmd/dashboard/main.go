// Command dashboard is a terminal subscriber: it logs in, connects to
// the notification gateway and prints incoming events until stopped.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"food-delivery-system/internal/domain"
	"food-delivery-system/internal/logger"
	"food-delivery-system/internal/subscriber"
)

func main() {
	var (
		wsURL    string
		loginURL string
		token    string
		username string
		onlyKind string
	)
	flag.StringVar(&wsURL, "url", "ws://localhost:3002/ws", "gateway websocket URL")
	flag.StringVar(&loginURL, "login-url", "http://localhost:3001/api/login", "order-service login endpoint")
	flag.StringVar(&token, "token", "", "bearer token (fetched via login when empty)")
	flag.StringVar(&username, "user", "user123", "username for login")
	flag.StringVar(&onlyKind, "kind", "", "only show events of this kind (order_created | eta_ready)")
	flag.Parse()

	lg := logger.New("dashboard")
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if token == "" {
		var err error
		token, err = login(ctx, loginURL, username)
		if err != nil {
			lg.Error("login_failed", err, nil)
			os.Exit(1)
		}
	}

	var filter subscriber.Filter
	if onlyKind != "" {
		kind := domain.EventKind(strings.TrimSpace(onlyKind))
		filter = func(ev domain.NotificationEvent) bool { return ev.Kind == kind }
	}

	sess := subscriber.New(subscriber.Config{
		URL:    wsURL,
		Filter: filter,
		Logger: lg,
	})
	sess.OnNotification(func(ev domain.NotificationEvent) {
		fmt.Printf("[%s] %s\n", ev.Kind, ev.Message)
	})
	sess.Attach(token)

	if err := sess.Connect(ctx); err != nil {
		lg.Error("connect_failed", err, nil)
		os.Exit(1)
	}
	lg.Info("connected", map[string]any{"url": wsURL})

	<-ctx.Done()
	sess.Disconnect()
}

func login(ctx context.Context, url, username string) (string, error) {
	body, _ := json.Marshal(domain.LoginRequest{Username: username})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login returned status %d", resp.StatusCode)
	}
	var out domain.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	return out.Token, nil
}
