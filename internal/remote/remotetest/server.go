// Package remotetest provides an in-memory fake of the crawler service for tests.
package remotetest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/j-veylop/crawler-dashboard-tui/internal/models"
)

// ExportFilename is the file name suggested by the fake export endpoint.
const ExportFilename = "guild_crawler_v2.1.csv"

// FilterFunc evaluates filter criteria for the fake filter endpoint.
type FilterFunc func([]models.Record, models.FilterCriteria) []models.Record

// Gate blocks one request until released.
type Gate struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

// Entered is closed once the gated request is being held.
func (g *Gate) Entered() <-chan struct{} { return g.entered }

// Release lets the held request continue. Safe to call more than once.
func (g *Gate) Release() { g.once.Do(func() { close(g.release) }) }

// Server is a fake crawler service backed by httptest.
type Server struct {
	*httptest.Server

	// FilterFunc backs POST /crawler/data/filter. Nil returns every record.
	FilterFunc FilterFunc

	overrides  map[string]http.HandlerFunc
	gates      map[string][]*Gate
	calls      map[string]int
	requestIDs []string

	records    []models.Record
	accounts   []models.Account
	status     models.CrawlerStatus
	automation models.AutomationStatus
	version    models.VersionInfo
	stats      models.Statistics
	keywords   models.KeywordStats
	history    models.CrawlHistory

	mu sync.Mutex
}

// New starts a fake service. The caller must Close it.
func New() *Server {
	s := &Server{
		overrides: make(map[string]http.HandlerFunc),
		gates:     make(map[string][]*Gate),
		calls:     make(map[string]int),
		version:   models.VersionInfo{Version: "2.1", UpdateDate: "2025-01-08", Architecture: "x86_64"},
		keywords:  models.KeywordStats{Counts: map[string]int{}},
	}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		s.handle(r, http.MethodGet, "/crawler/data", s.handleRecords)
		s.handle(r, http.MethodPost, "/crawler/data/filter", s.handleFilter)
		s.handle(r, http.MethodGet, "/crawler/data/export", s.handleExport)
		s.handle(r, http.MethodGet, "/accounts", s.handleAccounts)
		s.handle(r, http.MethodPost, "/accounts", s.handleAddAccount)
		s.handle(r, http.MethodDelete, "/accounts/{id}", s.handleDeleteAccount)
		s.handle(r, http.MethodPost, "/accounts/batch", s.handleBatch)
		s.handle(r, http.MethodGet, "/crawler/status", s.handleStatus)
		s.handle(r, http.MethodGet, "/crawler/auto/status", s.handleAutomation)
		s.handle(r, http.MethodPost, "/crawler/auto/start", s.handleAutoStart)
		s.handle(r, http.MethodPost, "/crawler/auto/stop", s.handleAutoStop)
		s.handle(r, http.MethodGet, "/version", s.handleVersion)
		s.handle(r, http.MethodGet, "/crawler/stats", s.handleStats)
		s.handle(r, http.MethodGet, "/crawler/keywords", s.handleKeywords)
		s.handle(r, http.MethodPost, "/crawler/keywords/reset", s.handleKeywordReset)
		s.handle(r, http.MethodGet, "/crawler/history", s.handleHistory)
	})

	s.Server = httptest.NewServer(r)
	return s
}

// APIURL returns the base URL a remote.Client should use.
func (s *Server) APIURL() string {
	return s.URL + "/api"
}

func routeKey(method, route string) string {
	return method + " " + route
}

func (s *Server) handle(r chi.Router, method, route string, h http.HandlerFunc) {
	key := routeKey(method, route)
	r.MethodFunc(method, route, func(w http.ResponseWriter, req *http.Request) {
		s.mu.Lock()
		s.calls[key]++
		s.requestIDs = append(s.requestIDs, req.Header.Get("X-Request-ID"))
		var gate *Gate
		if q := s.gates[key]; len(q) > 0 {
			gate, s.gates[key] = q[0], q[1:]
		}
		override := s.overrides[key]
		s.mu.Unlock()

		if gate != nil {
			close(gate.entered)
			select {
			case <-gate.release:
			case <-req.Context().Done():
				return
			}
		}
		if override != nil {
			override(w, req)
			return
		}
		h(w, req)
	})
}

// Override replaces the handler for a route, for example
// Override("GET", "/crawler/data", h). Routes are relative to /api.
func (s *Server) Override(method, route string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[routeKey(method, route)] = h
}

// Fail makes a route answer with status and a {"detail": ...} body.
func (s *Server) Fail(method, route string, status int, detail string) {
	s.Override(method, route, func(w http.ResponseWriter, _ *http.Request) {
		writeErr(w, status, detail)
	})
}

// Restore removes an override.
func (s *Server) Restore(method, route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.overrides, routeKey(method, route))
}

// GateNext holds the next request to route until the returned gate is released.
func (s *Server) GateNext(method, route string) *Gate {
	g := &Gate{entered: make(chan struct{}), release: make(chan struct{})}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := routeKey(method, route)
	s.gates[key] = append(s.gates[key], g)
	return g
}

// Calls returns how many requests reached a route.
func (s *Server) Calls(method, route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[routeKey(method, route)]
}

// RequestIDs returns the X-Request-ID header of every request received.
func (s *Server) RequestIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requestIDs...)
}

// SetRecords replaces the served records.
func (s *Server) SetRecords(records []models.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = models.CloneRecords(records)
}

// SetAccounts replaces the served accounts.
func (s *Server) SetAccounts(accounts []models.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = models.CloneAccounts(accounts)
}

// Accounts returns the current accounts.
func (s *Server) Accounts() []models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.CloneAccounts(s.accounts)
}

// SetAutomation replaces the automation status.
func (s *Server) SetAutomation(a models.AutomationStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.automation = a
}

// Automation returns the automation status.
func (s *Server) Automation() models.AutomationStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.automation
}

// SetKeywords replaces keyword stats.
func (s *Server) SetKeywords(k models.KeywordStats) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keywords = k.Clone()
}

// Keywords returns keyword stats.
func (s *Server) Keywords() models.KeywordStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keywords.Clone()
}

// SetStatistics replaces aggregate statistics.
func (s *Server) SetStatistics(st models.Statistics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats = st.Clone()
}

// SetHistory replaces the crawl history.
func (s *Server) SetHistory(h models.CrawlHistory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = h.Clone()
}

// SetCrawlerStatus replaces the crawler status.
func (s *Server) SetCrawlerStatus(st models.CrawlerStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = st
}

func (s *Server) handleRecords(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	records := models.CloneRecords(s.records)
	s.mu.Unlock()
	if records == nil {
		records = []models.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	var criteria models.FilterCriteria
	if err := json.NewDecoder(r.Body).Decode(&criteria); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	s.mu.Lock()
	records := models.CloneRecords(s.records)
	fn := s.FilterFunc
	s.mu.Unlock()
	if fn != nil {
		records = fn(records, criteria)
	}
	if records == nil {
		records = []models.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": records, "total": len(records)})
}

func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	records := models.CloneRecords(s.records)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+ExportFilename)
	w.WriteHeader(http.StatusOK)
	cw := csv.NewWriter(w)
	_ = cw.Write([]string{"account", "name", "type", "level", "guild", "count", "status"})
	for _, rec := range records {
		_ = cw.Write([]string{
			rec.AccountUsername,
			rec.CharacterName,
			rec.ActivityType,
			strconv.Itoa(rec.Level),
			rec.Guild,
			fmt.Sprintf("%d/%d", rec.ProgressCurrent, rec.ProgressTotal),
			rec.Status,
		})
	}
	cw.Flush()
}

func (s *Server) handleAccounts(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	accounts := models.CloneAccounts(s.accounts)
	s.mu.Unlock()
	if accounts == nil {
		accounts = []models.Account{}
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) handleAddAccount(w http.ResponseWriter, r *http.Request) {
	var req models.NewAccount
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeErr(w, http.StatusUnprocessableEntity, "username and password required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.accounts {
		if acc.Username == req.Username {
			writeErr(w, http.StatusConflict, "username already exists")
			return
		}
	}
	acc := models.Account{ID: uuid.NewString(), Username: req.Username, Status: models.AccountStandby}
	s.accounts = append(s.accounts, acc)
	writeJSON(w, http.StatusOK, map[string]any{"message": "account added", "account": acc})
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.removeAccount(id) {
		writeErr(w, http.StatusNotFound, "account not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": "account deleted"})
}

func (s *Server) removeAccount(id string) bool {
	for i, acc := range s.accounts {
		if acc.ID == id {
			s.accounts = append(s.accounts[:i], s.accounts[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Operation  models.BatchOperation `json:"operation"`
		AccountIDs []string              `json:"account_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !req.Operation.Valid() {
		writeErr(w, http.StatusBadRequest, "unknown operation")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	succeeded := []string{}
	failed := []models.BatchFailure{}
	for _, id := range req.AccountIDs {
		idx := -1
		for i := range s.accounts {
			if s.accounts[i].ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			failed = append(failed, models.BatchFailure{ID: id, Reason: "account not found"})
			continue
		}
		switch req.Operation {
		case models.BatchStart:
			s.accounts[idx].AutoEnabled = true
		case models.BatchStop:
			s.accounts[idx].AutoEnabled = false
		case models.BatchDelete:
			s.removeAccount(id)
		}
		succeeded = append(succeeded, id)
	}
	writeJSON(w, http.StatusOK, map[string]any{"succeeded": succeeded, "failed": failed})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	st := s.status
	st.TotalAccounts = len(s.accounts)
	st.TotalRecords = len(s.records)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleAutomation(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	a := s.automation
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleAutoStart(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	s.automation.Running = true
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"message": "automation started"})
}

func (s *Server) handleAutoStop(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	s.automation.Running = false
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"message": "automation stopped"})
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	v := s.version
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	st := s.stats.Clone()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleKeywords(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	k := s.keywords.Clone()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, k)
}

func (s *Server) handleKeywordReset(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	for kw := range s.keywords.Counts {
		s.keywords.Counts[kw] = 0
	}
	s.keywords.TotalDetected = 0
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"message": "keyword stats reset"})
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	h := s.history.Clone()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, h)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
