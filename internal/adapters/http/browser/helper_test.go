package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/playwright-community/playwright-go"

	"academy/internal/adapters/academyapi"
	"academy/internal/adapters/email"
	web "academy/internal/adapters/http"
	"academy/internal/adapters/storage"
	exportStore "academy/internal/adapters/storage/export"
	sessionStore "academy/internal/adapters/storage/session"
	"academy/internal/application/orchestrators"
	"academy/internal/application/workflow"
)

// backend is a fake academy REST backend recording the writes it receives.
type backend struct {
	mu       sync.Mutex
	marks    []map[string]any
	payments []map[string]any
}

func (b *backend) marksSeen() []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]map[string]any(nil), b.marks...)
}

func (b *backend) paymentsSeen() []map[string]any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]map[string]any(nil), b.payments...)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (b *backend) handler(t *testing.T) http.Handler {
	north := map[string]any{"id": 1, "name": "North"}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Username, Password string }
		json.NewDecoder(r.Body).Decode(&body)
		if body.Password != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			writeJSON(w, map[string]any{"message": "Invalid credentials"})
			return
		}
		role := "COACH"
		if body.Username == "ceo" {
			role = "CEO"
		}
		tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": 7, "role": role}).SignedString([]byte("k"))
		if err != nil {
			t.Errorf("sign: %v", err)
		}
		writeJSON(w, map[string]any{"access_token": tok})
	})
	mux.HandleFunc("GET /users/coaches", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{{"id": 20, "name": "Dara", "center": north}})
	})
	mux.HandleFunc("GET /users/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"id": 7, "name": "Kim", "center": north})
	})
	mux.HandleFunc("GET /centers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{north, {"id": 2, "name": "South"}})
	})
	mux.HandleFunc("GET /centers/{id}/students", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{
			{"id": 1, "name": "Alice", "category": "U12", "age": 11, "center": north, "amountPaid": "50.00", "amountDue": 100},
			{"id": 2, "name": "Bongani", "category": "U14", "age": 13, "center": north, "active": true},
			{"id": 3, "name": "Gone", "center": north, "active": false},
		})
	})
	mux.HandleFunc("POST /attendance/mark", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		b.mu.Lock()
		b.marks = append(b.marks, body)
		b.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("PATCH /students/{id}/payment", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		id, _ := strconv.Atoi(r.PathValue("id"))
		body["id"] = id
		b.mu.Lock()
		b.payments = append(b.payments, body)
		b.mu.Unlock()
		writeJSON(w, map[string]any{"ok": true})
	})
	mux.HandleFunc("GET /attendance/center/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []map[string]any{
			{"student": map[string]any{"id": 1, "name": "Alice", "center": north}, "date": "2024-05-02T00:00:00.000Z", "present": true},
			{"student": map[string]any{"id": 2, "name": "Bongani"}, "date": "2024-05-01", "present": false},
		})
	})
	mux.HandleFunc("GET /attendance/export/center/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		fmt.Fprint(w, "name,date,present\nAlice,2024-05-02,true\n")
	})
	return mux
}

// testApp is a running console wired to the fake backend.
type testApp struct {
	BaseURL string
	Backend *backend
	Browser playwright.Browser
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	if testing.Short() || os.Getenv("ACADEMY_BROWSER_TESTS") != "1" {
		t.Skip("set ACADEMY_BROWSER_TESTS=1 to run browser tests")
	}

	be := &backend{}
	api := httptest.NewServer(be.handler(t))
	t.Cleanup(api.Close)

	db, err := storage.Open(storage.DialectSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := storage.MigrateDB(context.Background(), db, storage.DialectSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	tdb := storage.NewTimedDB(db, storage.DialectSQLite, nil, 0)
	key, err := sessionStore.RandomKey()
	if err != nil {
		t.Fatal(err)
	}

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	port := listener.Addr().(*net.TCPAddr).Port
	listener.Close()
	baseURL := fmt.Sprintf("http://127.0.0.1:%d", port)

	client := academyapi.NewClient(api.URL, api.Client(), nil)
	web.RateLimitPerSecond = 1000
	handler, stop := web.NewMux(&web.Services{
		API:        client,
		Sessions:   sessionStore.NewSQLStore(tdb, sessionStore.NewSealer(key)),
		Deliveries: exportStore.NewSQLStore(tdb),
		Screens: workflow.NewRegistry(workflow.Backend{
			Roster:  orchestrators.LoadRosterDeps{API: client},
			Submit:  orchestrators.SubmitAttendanceDeps{API: client, Now: time.Now, Location: time.UTC},
			Payment: orchestrators.PostPaymentDeps{API: client},
		}),
		Email:      email.NewNoopSender(),
		DB:         tdb,
		Location:   time.UTC,
		SessionTTL: time.Hour,
	}, web.Options{
		CSRFKey:        []byte("0123456789abcdef0123456789abcdef"),
		TrustedOrigins: []string{fmt.Sprintf("127.0.0.1:%d", port)},
	})
	t.Cleanup(stop)

	srv := &http.Server{Addr: fmt.Sprintf("127.0.0.1:%d", port), Handler: handler}
	go func() {
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			t.Logf("test server error: %v", err)
		}
	}()
	t.Cleanup(func() { srv.Close() })

	// Wait for server to be ready
	for i := 0; i < 50; i++ {
		resp, err := http.Get(baseURL + "/healthz")
		if err == nil {
			resp.Body.Close()
			break
		}
		time.Sleep(100 * time.Millisecond)
	}

	pw, err := playwright.Run()
	if err != nil {
		t.Fatalf("failed to start Playwright: %v", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
	})
	if err != nil {
		t.Fatalf("failed to launch browser: %v", err)
	}
	t.Cleanup(func() {
		browser.Close()
		pw.Stop()
	})

	return &testApp{BaseURL: baseURL, Backend: be, Browser: browser}
}

// newPage creates a new browser page (tab).
func (a *testApp) newPage(t *testing.T) playwright.Page {
	t.Helper()
	page, err := a.Browser.NewPage()
	if err != nil {
		t.Fatalf("failed to create page: %v", err)
	}
	t.Cleanup(func() { page.Close() })
	return page
}

// login signs in as username and waits for the dashboard.
func (a *testApp) login(t *testing.T, page playwright.Page, username string) {
	t.Helper()
	if _, err := page.Goto(a.BaseURL + "/login"); err != nil {
		t.Fatalf("failed to navigate to login: %v", err)
	}
	if err := page.Locator("input[name=username]").Fill(username); err != nil {
		t.Fatalf("failed to fill username: %v", err)
	}
	if err := page.Locator("input[name=password]").Fill("secret"); err != nil {
		t.Fatalf("failed to fill password: %v", err)
	}
	if err := page.Locator("main button[type=submit]").Click(); err != nil {
		t.Fatalf("failed to click login: %v", err)
	}
	if err := page.WaitForURL(a.BaseURL+"/dashboard", playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(10000),
	}); err != nil {
		t.Fatalf("login did not redirect to dashboard: %v", err)
	}
}

func expectText(t *testing.T, page playwright.Page, text string) {
	t.Helper()
	if err := page.GetByText(text).First().WaitFor(playwright.LocatorWaitForOptions{
		Timeout: playwright.Float(5000),
	}); err != nil {
		t.Fatalf("text %q not shown: %v", text, err)
	}
}
