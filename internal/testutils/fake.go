// Package testutils provides a fake of the remote identity and generation
// services for tests.
package testutils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

// Account configures one fake account's behavior.
type Account struct {
	Phone string
	Code  string

	// FailSignIn makes the sign-in call return a server error.
	FailSignIn bool

	// NoFactors returns a sign-in attempt without supported first factors.
	NoFactors bool

	// NoSession accepts the code but returns no session identifier.
	NoSession bool

	// FailRenewal makes credential renewal return a server error.
	FailRenewal bool

	// QuotaExhausted makes generation return 402.
	QuotaExhausted bool

	// FailGeneration makes generation return a server error.
	FailGeneration bool
}

// FakeService simulates the identity and generation services on a single
// httptest server. It records call counts so tests can assert on renewal
// and generation cadence.
type FakeService struct {
	Server *httptest.Server

	mu       sync.Mutex
	accounts map[string]*Account
	attempts map[string]string // attempt id -> phone
	sessions map[string]string // session id -> phone

	// GenerateIDs are the asset ids returned by the next successful
	// generation call.
	GenerateIDs []string

	// Audio holds the downloadable bytes per asset id.
	Audio map[string][]byte

	statusPlan map[string][]string

	renewCount    map[string]int
	generateCalls int
	statusCalls   int

	// LastGeneratePayload is the decoded body of the most recent
	// generation request.
	LastGeneratePayload map[string]any

	// BadVersionCalls counts identity calls that arrived without the
	// pinned client version parameter.
	BadVersionCalls int
}

// NewFakeService starts a fake service hosting the given accounts.
func NewFakeService(accounts ...*Account) *FakeService {
	f := &FakeService{
		accounts:   make(map[string]*Account),
		attempts:   make(map[string]string),
		sessions:   make(map[string]string),
		Audio:      make(map[string][]byte),
		statusPlan: make(map[string][]string),
		renewCount: make(map[string]int),
	}
	for _, a := range accounts {
		f.accounts[a.Phone] = a
	}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

// Close shuts the fake service down.
func (f *FakeService) Close() { f.Server.Close() }

// URL returns the base URL both services are served on.
func (f *FakeService) URL() string { return f.Server.URL }

// SetStatusSequence makes successive status polls for an asset walk through
// the given statuses, sticking at the last one.
func (f *FakeService) SetStatusSequence(id string, statuses ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusPlan[id] = statuses
}

// UpdateAccount mutates an account's behavior mid-test under the service
// lock.
func (f *FakeService) UpdateAccount(phone string, mutate func(*Account)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if acct, ok := f.accounts[phone]; ok {
		mutate(acct)
	}
}

// RenewCount returns how many renewals a session id has performed.
func (f *FakeService) RenewCount(sessionID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.renewCount[sessionID]
}

// GenerateCalls returns how many generation calls were received.
func (f *FakeService) GenerateCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.generateCalls
}

// StatusCalls returns how many status polls were received.
func (f *FakeService) StatusCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls
}

func (f *FakeService) handle(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	switch {
	case path == "/v1/client/sign_ins":
		f.handleSignIn(w, r)
	case strings.HasPrefix(path, "/v1/client/sign_ins/") && strings.HasSuffix(path, "/prepare_first_factor"):
		f.handlePrepare(w, r)
	case strings.HasPrefix(path, "/v1/client/sign_ins/") && strings.HasSuffix(path, "/attempt_first_factor"):
		f.handleAttempt(w, r)
	case strings.HasPrefix(path, "/v1/client/sessions/") && strings.HasSuffix(path, "/tokens"):
		f.handleRenew(w, r)
	case path == "/api/generate/v2/":
		f.handleGenerate(w, r)
	case path == "/api/feed/":
		f.handleFeed(w, r)
	case strings.HasPrefix(path, "/audio/"):
		f.handleAudio(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (f *FakeService) checkVersion(r *http.Request) {
	if r.URL.Query().Get("_clerk_js_version") == "" {
		f.mu.Lock()
		f.BadVersionCalls++
		f.mu.Unlock()
	}
}

func (f *FakeService) handleSignIn(w http.ResponseWriter, r *http.Request) {
	f.checkVersion(r)
	r.ParseForm()
	phone := r.PostForm.Get("identifier")

	f.mu.Lock()
	var acct Account
	_, ok := f.accounts[phone]
	if ok {
		acct = *f.accounts[phone]
	}
	f.mu.Unlock()
	if !ok || acct.FailSignIn {
		http.Error(w, "sign-in rejected", http.StatusInternalServerError)
		return
	}

	attemptID := "att-" + phone
	f.mu.Lock()
	f.attempts[attemptID] = phone
	f.mu.Unlock()

	factors := []map[string]string{}
	if !acct.NoFactors {
		factors = append(factors, map[string]string{
			"strategy":        "phone_code",
			"phone_number_id": "pn-" + phone,
		})
	}

	w.Header().Set("Authorization", "authz-"+phone)
	writeJSON(w, map[string]any{
		"response": map[string]any{
			"id":                      attemptID,
			"supported_first_factors": factors,
		},
	})
}

func (f *FakeService) handlePrepare(w http.ResponseWriter, r *http.Request) {
	f.checkVersion(r)
	phone, ok := f.attemptPhone(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if r.Header.Get("Authorization") != "authz-"+phone {
		http.Error(w, "bad authorization token", http.StatusUnauthorized)
		return
	}
	writeJSON(w, map[string]any{})
}

func (f *FakeService) handleAttempt(w http.ResponseWriter, r *http.Request) {
	f.checkVersion(r)
	phone, ok := f.attemptPhone(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if r.Header.Get("Authorization") != "authz-"+phone {
		http.Error(w, "bad authorization token", http.StatusUnauthorized)
		return
	}

	r.ParseForm()
	f.mu.Lock()
	acct := *f.accounts[phone]
	f.mu.Unlock()

	if r.PostForm.Get("code") != acct.Code {
		http.Error(w, "wrong code", http.StatusUnauthorized)
		return
	}

	sessionID := ""
	if !acct.NoSession {
		sessionID = "sess-" + phone
		f.mu.Lock()
		f.sessions[sessionID] = phone
		f.mu.Unlock()
	}

	writeJSON(w, map[string]any{
		"response": map[string]any{
			"created_session_id": sessionID,
		},
	})
}

func (f *FakeService) handleRenew(w http.ResponseWriter, r *http.Request) {
	f.checkVersion(r)
	parts := strings.Split(r.URL.Path, "/")
	sessionID := parts[len(parts)-2]

	f.mu.Lock()
	phone, ok := f.sessions[sessionID]
	if ok {
		f.renewCount[sessionID]++
	}
	count := f.renewCount[sessionID]
	failRenewal := false
	if ok {
		failRenewal = f.accounts[phone].FailRenewal
	}
	f.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	if failRenewal {
		http.Error(w, "renewal rejected", http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"jwt": fmt.Sprintf("jwt-%s-%d", phone, count),
	})
}

func (f *FakeService) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	json.NewDecoder(r.Body).Decode(&payload)

	f.mu.Lock()
	f.generateCalls++
	f.LastGeneratePayload = payload
	ids := f.GenerateIDs
	f.mu.Unlock()

	phone, ok := f.bearerPhone(r)
	if !ok {
		http.Error(w, "missing bearer", http.StatusUnauthorized)
		return
	}

	f.mu.Lock()
	acct := *f.accounts[phone]
	f.mu.Unlock()

	if acct.QuotaExhausted {
		http.Error(w, `{"detail":"insufficient_credits"}`, http.StatusPaymentRequired)
		return
	}
	if acct.FailGeneration {
		http.Error(w, "generation backend unavailable", http.StatusServiceUnavailable)
		return
	}

	clips := make([]map[string]string, 0, len(ids))
	for _, id := range ids {
		clips = append(clips, map[string]string{"id": id})
	}
	writeJSON(w, map[string]any{"clips": clips})
}

func (f *FakeService) handleFeed(w http.ResponseWriter, r *http.Request) {
	if _, ok := f.bearerPhone(r); !ok {
		http.Error(w, "missing bearer", http.StatusUnauthorized)
		return
	}

	f.mu.Lock()
	f.statusCalls++
	ids := strings.Split(r.URL.Query().Get("ids"), ",")
	var clips []map[string]string
	for _, id := range ids {
		status := f.nextStatusLocked(id)
		clip := map[string]string{
			"id":     id,
			"status": status,
			"title":  "Track " + id,
		}
		if status == "streaming" || status == "complete" {
			if _, hasAudio := f.Audio[id]; hasAudio {
				clip["audio_url"] = f.Server.URL + "/audio/" + id
			}
		}
		clips = append(clips, clip)
	}
	f.mu.Unlock()

	writeJSON(w, clips)
}

// nextStatusLocked pops the next planned status for an asset, sticking at
// the last one. Callers must hold f.mu.
func (f *FakeService) nextStatusLocked(id string) string {
	plan := f.statusPlan[id]
	if len(plan) == 0 {
		return "complete"
	}
	status := plan[0]
	if len(plan) > 1 {
		f.statusPlan[id] = plan[1:]
	}
	return status
}

func (f *FakeService) handleAudio(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/audio/")

	f.mu.Lock()
	data, ok := f.Audio[id]
	f.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

func (f *FakeService) attemptPhone(r *http.Request) (string, bool) {
	parts := strings.Split(r.URL.Path, "/")
	attemptID := parts[len(parts)-2]
	f.mu.Lock()
	defer f.mu.Unlock()
	phone, ok := f.attempts[attemptID]
	return phone, ok
}

// bearerPhone resolves the account a bearer credential belongs to. Fake
// credentials look like "jwt-<phone>-<n>".
func (f *FakeService) bearerPhone(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer jwt-") {
		return "", false
	}
	rest := strings.TrimPrefix(auth, "Bearer jwt-")
	idx := strings.LastIndex(rest, "-")
	if idx < 0 {
		return "", false
	}
	phone := rest[:idx]
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.accounts[phone]
	return phone, ok
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
