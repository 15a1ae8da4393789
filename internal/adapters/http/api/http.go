// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/guessrank/guessrank/internal/adapters/repository"
	"github.com/guessrank/guessrank/internal/domain/dedupe"
	"github.com/guessrank/guessrank/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Enqueue submits an announcement for async processing. Returns
	// false on backpressure.
	Enqueue(ctx context.Context, a model.Announcement) bool

	// Read operations over the rating state.
	Leaderboard(ctx context.Context, n int) ([]repository.Player, error)
	Player(ctx context.Context, id string) (*repository.Player, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler        *HealthHandler
	statsHandler         *StatsHandler
	announcementsHandler *AnnouncementsHandler
	leaderboardHandler   *LeaderboardHandler
	playersHandler       *PlayersHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLeaderboardLimit int) *Server {
	return &Server{
		healthHandler:        NewHealthHandler(),
		statsHandler:         NewStatsHandler(statsProvider),
		announcementsHandler: NewAnnouncementsHandler(deps),
		leaderboardHandler:   NewLeaderboardHandler(deps, maxLeaderboardLimit),
		playersHandler:       NewPlayersHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/announcements", MetricsMiddleware(s.announcementsHandler.HandlePostAnnouncement, "announcements"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/players/", MetricsMiddleware(s.playersHandler.HandleGetPlayer, "players"))
}

// memberPayload mirrors one directory entry of POST /announcements.
type memberPayload struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name,omitempty"`
	Nickname    string `json:"nickname,omitempty"`
}

// announcementRequest mirrors the JSON schema for POST /announcements.
type announcementRequest struct {
	MessageID string          `json:"message_id"`
	AuthorID  string          `json:"author_id"`
	Text      string          `json:"text"`
	TS        string          `json:"ts"`
	Members   []memberPayload `json:"members,omitempty"`
}

func (a announcementRequest) validate() error {
	switch {
	case strings.TrimSpace(a.MessageID) == "":
		return errors.New("missing message_id")
	case strings.TrimSpace(a.Text) == "":
		return errors.New("missing text")
	case strings.TrimSpace(a.TS) == "":
		return errors.New("missing ts")
	}
	if _, err := time.Parse(time.RFC3339, a.TS); err != nil {
		return errors.New("invalid ts; must be RFC3339")
	}
	return nil
}

func (a announcementRequest) toModel() model.Announcement {
	ts, _ := time.Parse(time.RFC3339, a.TS)
	members := make([]model.Member, len(a.Members))
	for i, m := range a.Members {
		members[i] = model.Member{
			ID:          m.ID,
			Username:    m.Username,
			DisplayName: m.DisplayName,
			Nickname:    m.Nickname,
		}
	}
	return model.Announcement{
		MessageID: a.MessageID,
		AuthorID:  a.AuthorID,
		Text:      a.Text,
		Timestamp: ts,
		Members:   members,
	}
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

// playerResponse mirrors the read shape of a single player.
type playerResponse struct {
	ID           string  `json:"id"`
	DisplayName  string  `json:"display_name"`
	Rating       int     `json:"rating"`
	GamesPlayed  int     `json:"games_played"`
	GamesSolved  int     `json:"games_solved"`
	Crowns       int     `json:"crowns"`
	AvgGuesses   float64 `json:"avg_guesses"`
	InactiveDays int     `json:"inactive_days"`
	Inactive     bool    `json:"inactive"`
}

func toPlayerResponse(p *repository.Player) playerResponse {
	resp := playerResponse{
		ID:           p.ID,
		DisplayName:  p.DisplayName,
		Rating:       p.Rating,
		GamesPlayed:  p.GamesPlayed,
		GamesSolved:  p.GamesSolved,
		Crowns:       p.Crowns,
		InactiveDays: p.InactiveDays,
		Inactive:     p.Inactive,
	}
	if p.GamesSolved > 0 {
		resp.AvgGuesses = float64(p.GuessSum) / float64(p.GamesSolved)
	}
	return resp
}

// leaderboardEntry is one row of GET /leaderboard.
type leaderboardEntry struct {
	Rank        int    `json:"rank"`
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Rating      int    `json:"rating"`
	GamesPlayed int    `json:"games_played"`
	Crowns      int    `json:"crowns"`
	Inactive    bool   `json:"inactive"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
