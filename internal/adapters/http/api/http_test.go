package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/guessrank/guessrank/internal/adapters/http/api"
	"github.com/guessrank/guessrank/internal/adapters/repository"
	"github.com/guessrank/guessrank/internal/domain/model"
)

// mockDependencies satisfies api.Dependencies for handler tests.
type mockDependencies struct {
	seen           map[string]bool
	enqueueSuccess bool
	enqueued       []model.Announcement

	players   map[string]*repository.Player
	top       []repository.Player
	topErr    error
	playerErr error
}

func newMockDependencies() *mockDependencies {
	return &mockDependencies{
		seen:           make(map[string]bool),
		enqueueSuccess: true,
		players:        make(map[string]*repository.Player),
	}
}

func (m *mockDependencies) SeenAndRecord(_ context.Context, id string) bool {
	if m.seen[id] {
		return true
	}
	m.seen[id] = true
	return false
}

func (m *mockDependencies) Unrecord(_ context.Context, id string) {
	delete(m.seen, id)
}

func (m *mockDependencies) Size() int64 {
	return int64(len(m.seen))
}

func (m *mockDependencies) Enqueue(_ context.Context, a model.Announcement) bool {
	if !m.enqueueSuccess {
		return false
	}
	m.enqueued = append(m.enqueued, a)
	return true
}

func (m *mockDependencies) Leaderboard(_ context.Context, n int) ([]repository.Player, error) {
	if m.topErr != nil {
		return nil, m.topErr
	}
	if n > len(m.top) {
		return m.top, nil
	}
	return m.top[:n], nil
}

func (m *mockDependencies) Player(_ context.Context, id string) (*repository.Player, error) {
	if m.playerErr != nil {
		return nil, m.playerErr
	}
	p, ok := m.players[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

type mockStatsProvider struct {
	stats map[string]any
}

func (m *mockStatsProvider) GetStats() map[string]any {
	return m.stats
}

func newTestMux(deps api.Dependencies, stats api.StatsProvider) *http.ServeMux {
	server := api.NewServer(deps, stats, 100)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return mux
}

const validAnnouncement = `{
	"message_id": "m1",
	"author_id": "bot",
	"text": "Daily summary\n3/6: <@111>",
	"ts": "2024-03-15T09:00:00Z"
}`

func TestAnnouncementsEndpoint(t *testing.T) {
	Convey("Given the announcements endpoint", t, func() {
		deps := newMockDependencies()
		mux := newTestMux(deps, &mockStatsProvider{})

		post := func(body string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodPost, "/announcements", strings.NewReader(body))
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			return w
		}

		Convey("A valid announcement is accepted and enqueued", func() {
			w := post(validAnnouncement)
			So(w.Code, ShouldEqual, http.StatusAccepted)

			var ack struct {
				Status    string `json:"status"`
				Duplicate bool   `json:"duplicate"`
			}
			So(json.Unmarshal(w.Body.Bytes(), &ack), ShouldBeNil)
			So(ack.Status, ShouldEqual, "accepted")
			So(ack.Duplicate, ShouldBeFalse)

			So(deps.enqueued, ShouldHaveLength, 1)
			So(deps.enqueued[0].MessageID, ShouldEqual, "m1")
			So(deps.enqueued[0].Timestamp.Year(), ShouldEqual, 2024)
		})

		Convey("A resubmitted message id is acknowledged as duplicate", func() {
			So(post(validAnnouncement).Code, ShouldEqual, http.StatusAccepted)

			w := post(validAnnouncement)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"duplicate":true`)
			So(deps.enqueued, ShouldHaveLength, 1)
		})

		Convey("Backpressure rolls back the seen mark and returns 429", func() {
			deps.enqueueSuccess = false

			w := post(validAnnouncement)
			So(w.Code, ShouldEqual, http.StatusTooManyRequests)
			So(deps.seen, ShouldBeEmpty)
		})

		Convey("Malformed JSON is rejected", func() {
			So(post("{not json").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Missing fields are rejected", func() {
			So(post(`{"message_id":"m1","ts":"2024-03-15T09:00:00Z"}`).Code, ShouldEqual, http.StatusBadRequest)
			So(post(`{"message_id":"m1","text":"x","ts":"yesterday"}`).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("GET is not found", func() {
			req := httptest.NewRequest(http.MethodGet, "/announcements", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestLeaderboardEndpoint(t *testing.T) {
	Convey("Given the leaderboard endpoint", t, func() {
		deps := newMockDependencies()
		deps.top = []repository.Player{
			{ID: "111", DisplayName: "alice", Rating: 1050, GamesPlayed: 4, Crowns: 2},
			{ID: "222", DisplayName: "bob", Rating: 990, GamesPlayed: 4},
		}
		mux := newTestMux(deps, &mockStatsProvider{})

		get := func(path string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			return w
		}

		Convey("Rows come back ranked", func() {
			w := get("/leaderboard?limit=2")
			So(w.Code, ShouldEqual, http.StatusOK)

			var entries []struct {
				Rank        int    `json:"rank"`
				ID          string `json:"id"`
				DisplayName string `json:"display_name"`
				Rating      int    `json:"rating"`
			}
			So(json.Unmarshal(w.Body.Bytes(), &entries), ShouldBeNil)
			So(entries, ShouldHaveLength, 2)
			So(entries[0].Rank, ShouldEqual, 1)
			So(entries[0].ID, ShouldEqual, "111")
			So(entries[1].Rank, ShouldEqual, 2)
			So(entries[1].Rating, ShouldEqual, 990)
		})

		Convey("The limit parameter defaults when absent", func() {
			So(get("/leaderboard").Code, ShouldEqual, http.StatusOK)
		})

		Convey("A limit above the cap is rejected", func() {
			So(get("/leaderboard?limit=101").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Non-numeric and non-positive limits are rejected", func() {
			So(get("/leaderboard?limit=abc").Code, ShouldEqual, http.StatusBadRequest)
			So(get("/leaderboard?limit=0").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Read errors surface as 500", func() {
			deps.topErr = fmt.Errorf("backend down")
			So(get("/leaderboard?limit=2").Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}

func TestPlayersEndpoint(t *testing.T) {
	Convey("Given the players endpoint", t, func() {
		deps := newMockDependencies()
		deps.players["111"] = &repository.Player{
			ID: "111", DisplayName: "alice", Rating: 1050,
			GamesPlayed: 5, GamesSolved: 4, Crowns: 2, GuessSum: 13,
		}
		mux := newTestMux(deps, &mockStatsProvider{})

		get := func(path string) *httptest.ResponseRecorder {
			req := httptest.NewRequest(http.MethodGet, path, nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			return w
		}

		Convey("An existing player is returned with derived averages", func() {
			w := get("/players/111")
			So(w.Code, ShouldEqual, http.StatusOK)

			var p struct {
				ID         string  `json:"id"`
				Rating     int     `json:"rating"`
				AvgGuesses float64 `json:"avg_guesses"`
			}
			So(json.Unmarshal(w.Body.Bytes(), &p), ShouldBeNil)
			So(p.ID, ShouldEqual, "111")
			So(p.Rating, ShouldEqual, 1050)
			So(p.AvgGuesses, ShouldEqual, 3.25)
		})

		Convey("An unknown player is a 404", func() {
			So(get("/players/999").Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("A missing or nested id is a 400", func() {
			So(get("/players/").Code, ShouldEqual, http.StatusBadRequest)
			So(get("/players/111/games").Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Other read errors surface as 500", func() {
			deps.playerErr = errors.New("backend down")
			So(get("/players/111").Code, ShouldEqual, http.StatusInternalServerError)
		})
	})
}

func TestOperationalEndpoints(t *testing.T) {
	Convey("Given the operational endpoints", t, func() {
		deps := newMockDependencies()
		stats := &mockStatsProvider{stats: map[string]any{"started": true}}
		mux := newTestMux(deps, stats)

		Convey("Health serves the metrics registry", func() {
			req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Stats serves the provider snapshot", func() {
			req := httptest.NewRequest(http.MethodGet, "/stats", nil)
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})
	})
}
