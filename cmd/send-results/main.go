// Command send-results posts synthetic results announcements against a
// running service and prints the resulting leaderboard. Useful for smoke
// testing a deployment end to end.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
)

const (
	defaultDays    = 7
	defaultPlayers = 5
	defaultTopN    = 10
	defaultTimeout = 10 * time.Second
	runTimeout     = 2 * time.Minute
	settleDelay    = 200 * time.Millisecond
)

type memberPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type announcementPayload struct {
	MessageID string          `json:"message_id"`
	AuthorID  string          `json:"author_id"`
	Text      string          `json:"text"`
	TS        string          `json:"ts"`
	Members   []memberPayload `json:"members"`
}

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		days    = flag.Int("days", defaultDays, "Number of consecutive game days to announce")
		players = flag.Int("players", defaultPlayers, "Number of synthetic players")
		topN    = flag.Int("top", defaultTopN, "Number of leaderboard entries to fetch afterwards")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed    = flag.Int64("seed", time.Now().UnixNano(), "Random seed for guess outcomes")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	client := &http.Client{Timeout: *timeout}
	rng := rand.New(rand.NewSource(*seed))

	members := make([]memberPayload, *players)
	for i := range members {
		members[i] = memberPayload{
			ID:       fmt.Sprintf("%d", 100000+i),
			Username: fmt.Sprintf("player%02d", i+1),
		}
	}

	start := time.Now().AddDate(0, 0, -*days)
	for d := 0; d < *days; d++ {
		ts := start.AddDate(0, 0, d+1)
		a := announcementPayload{
			MessageID: uuid.NewString(),
			AuthorID:  "send-results",
			Text:      announcementText(rng, members, d+1),
			TS:        ts.Format(time.RFC3339),
			Members:   members,
		}
		if err := postAnnouncement(ctx, client, *baseURL, a); err != nil {
			os.Stderr.WriteString("submit failed: " + err.Error() + "\n")
			return
		}
	}

	// Give the consumer a moment to drain before reading back.
	time.Sleep(settleDelay)

	if err := printLeaderboard(ctx, client, *baseURL, *topN); err != nil {
		os.Stderr.WriteString("leaderboard fetch failed: " + err.Error() + "\n")
	}
}

// announcementText renders one plausible bot announcement. Roughly one in
// six results is a fail, the rest land between 2 and 6 guesses.
func announcementText(rng *rand.Rand, members []memberPayload, puzzle int) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Daily summary #%d\n", puzzle)
	for _, m := range members {
		guess := "X"
		if rng.Intn(6) > 0 {
			guess = fmt.Sprintf("%d", 2+rng.Intn(5))
		}
		fmt.Fprintf(&buf, "%s/6: <@%s>\n", guess, m.ID)
	}
	return buf.String()
}

func postAnnouncement(ctx context.Context, client *http.Client, baseURL string, a announcementPayload) error {
	body, err := json.Marshal(a)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/announcements", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, payload)
	}
	fmt.Printf("submitted %s -> %d\n", a.MessageID, resp.StatusCode)
	return nil
}

func printLeaderboard(ctx context.Context, client *http.Client, baseURL string, topN int) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/leaderboard?limit=%d", baseURL, topN), nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, payload)
	}

	var entries []struct {
		Rank        int    `json:"rank"`
		DisplayName string `json:"display_name"`
		Rating      int    `json:"rating"`
		Crowns      int    `json:"crowns"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Printf("%2d. %-12s %5d (%d crowns)\n", e.Rank, e.DisplayName, e.Rating, e.Crowns)
	}
	return nil
}
