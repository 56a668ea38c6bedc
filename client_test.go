package qbt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	client, err := New(Config{
		BaseURL:  baseURL,
		Username: "admin",
		Password: "adminadmin",
		Timeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	return client
}

func withLogin(mux *http.ServeMux) {
	mux.HandleFunc("/api/v2/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "SID", Value: "abc123"})
		fmt.Fprint(w, "Ok.")
	})
}

func TestNewClientDefaults(t *testing.T) {
	client, err := New(Config{
		BaseURL:  "http://localhost:8080/",
		Username: "admin",
		Password: "adminadmin",
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	if client.config.BaseURL != "http://localhost:8080" {
		t.Errorf("Expected trailing slash stripped, got: %s", client.config.BaseURL)
	}

	if client.config.Timeout != DefaultTimeout {
		t.Errorf("Expected default timeout %v, got: %v", DefaultTimeout, client.config.Timeout)
	}

	if client.SearchPollInterval != DefaultSearchPollInterval {
		t.Errorf("Expected poll interval %v, got: %v", DefaultSearchPollInterval, client.SearchPollInterval)
	}

	if client.SearchMaxPolls != DefaultSearchMaxPolls {
		t.Errorf("Expected max polls %d, got: %d", DefaultSearchMaxPolls, client.SearchMaxPolls)
	}
}

func TestLoginSuccess(t *testing.T) {
	mux := http.NewServeMux()
	withLogin(mux)
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	if err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	client.mu.Lock()
	active := client.active
	client.mu.Unlock()

	if !active {
		t.Error("Session should be active after successful login")
	}
}

func TestLoginRejectedBody(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/auth/login", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "Fails.")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	err := client.Login(context.Background())
	if err == nil {
		t.Fatal("Expected login to fail with body Fails.")
	}
	if !IsAuthError(err) {
		t.Errorf("Expected AuthError, got: %T (%v)", err, err)
	}

	client.mu.Lock()
	active := client.active
	client.mu.Unlock()

	if active {
		t.Error("Session should remain inactive after rejected login")
	}
}

func TestLoginRejectedStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	if err := client.Login(context.Background()); !IsAuthError(err) {
		t.Errorf("Expected AuthError for non-200 login, got: %v", err)
	}
}

func TestLoginTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NewServeMux())
	srv.Close() // connection refused from here on

	client := newTestClient(t, srv.URL)

	err := client.Login(context.Background())
	if !IsAuthError(err) {
		t.Errorf("Expected AuthError for transport failure during login, got: %v", err)
	}
}

func TestRequestWithoutSession(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	_, err := client.ListTorrents(context.Background(), ListOptions{})
	if !IsAuthError(err) {
		t.Errorf("Expected AuthError without session, got: %v", err)
	}

	if n := calls.Load(); n != 0 {
		t.Errorf("Expected zero network calls without session, got: %d", n)
	}
}

func TestForbiddenResponse(t *testing.T) {
	mux := http.NewServeMux()
	withLogin(mux)
	mux.HandleFunc("/api/v2/torrents/info", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	if err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	_, err := client.ListTorrents(context.Background(), ListOptions{})
	if !IsAuthError(err) {
		t.Errorf("Expected AuthError on 403, got: %v", err)
	}
}

func TestServerErrorCarriesStatusAndBody(t *testing.T) {
	mux := http.NewServeMux()
	withLogin(mux)
	mux.HandleFunc("/api/v2/torrents/info", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "boom")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	if err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	_, err := client.ListTorrents(context.Background(), ListOptions{})
	if !IsAPIError(err) {
		t.Fatalf("Expected APIError, got: %v", err)
	}
	if !strings.Contains(err.Error(), "500") || !strings.Contains(err.Error(), "boom") {
		t.Errorf("Expected error to contain status and body, got: %v", err)
	}
}

func TestListTorrentsParsesMagnetLinks(t *testing.T) {
	mux := http.NewServeMux()
	withLogin(mux)
	mux.HandleFunc("/api/v2/torrents/info", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("filter"); got != "downloading" {
			t.Errorf("Expected filter=downloading, got: %q", got)
		}
		if r.URL.Query().Has("category") {
			t.Error("Empty category should be omitted from the query")
		}
		fmt.Fprint(w, `[
			{"hash":"abc","name":"good","magnet_uri":"magnet:?xt=urn:btih:abc&dn=good"},
			{"hash":"def","name":"bad","magnet_uri":"not-a-magnet"}
		]`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	if err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	torrents, err := client.ListTorrents(context.Background(), ListOptions{Filter: "downloading"})
	if err != nil {
		t.Fatalf("ListTorrents failed: %v", err)
	}

	if len(torrents) != 2 {
		t.Fatalf("Expected 2 torrents, got: %d", len(torrents))
	}
	if torrents[0].MagnetLink == nil || torrents[0].MagnetLink.Hash != "abc" {
		t.Errorf("Expected parsed magnet link for first torrent, got: %+v", torrents[0].MagnetLink)
	}
	if torrents[1].MagnetLink != nil {
		t.Error("Unparsable magnet URI should leave MagnetLink nil, not fail the listing")
	}
}

func TestGetTorrentInfoMergesPropertiesAndFiles(t *testing.T) {
	var propCalls, fileCalls atomic.Int32

	mux := http.NewServeMux()
	withLogin(mux)
	mux.HandleFunc("/api/v2/torrents/properties", func(w http.ResponseWriter, r *http.Request) {
		propCalls.Add(1)
		if got := r.URL.Query().Get("hash"); got != "abc" {
			t.Errorf("Expected hash=abc, got: %q", got)
		}
		fmt.Fprint(w, `{"save_path":"/downloads","share_ratio":1.5,"total_size":1024}`)
	})
	mux.HandleFunc("/api/v2/torrents/files", func(w http.ResponseWriter, r *http.Request) {
		fileCalls.Add(1)
		fmt.Fprint(w, `[{"index":0,"name":"a.iso","size":1024,"progress":0.5,"priority":1}]`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	if err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	details, err := client.GetTorrentInfo(context.Background(), "abc")
	if err != nil {
		t.Fatalf("GetTorrentInfo failed: %v", err)
	}

	if propCalls.Load() != 1 || fileCalls.Load() != 1 {
		t.Errorf("Expected exactly one properties and one files call, got: %d/%d", propCalls.Load(), fileCalls.Load())
	}
	if details.SavePath != "/downloads" {
		t.Errorf("Expected save path from properties, got: %q", details.SavePath)
	}
	if len(details.Files) != 1 || details.Files[0].Name != "a.iso" {
		t.Errorf("Expected files attached to details, got: %+v", details.Files)
	}

	// The merged object must serialize with the file list under "files".
	data, err := json.Marshal(details)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var merged map[string]any
	if err := json.Unmarshal(data, &merged); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if _, ok := merged["files"]; !ok {
		t.Error("Expected merged object to carry a files key")
	}
}

func TestAddTorrentFiltersEmptyOptionals(t *testing.T) {
	mux := http.NewServeMux()
	withLogin(mux)
	mux.HandleFunc("/api/v2/torrents/add", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm failed: %v", err)
		}
		if got := r.PostForm.Get("urls"); got != "magnet:?xt=urn:btih:abc" {
			t.Errorf("Expected urls field, got: %q", got)
		}
		if r.PostForm.Has("savepath") || r.PostForm.Has("category") || r.PostForm.Has("paused") {
			t.Errorf("Empty optionals must be omitted, got form: %v", r.PostForm)
		}
		fmt.Fprint(w, "Ok.")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	if err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	result, err := client.AddTorrent(context.Background(), AddOptions{URLs: "magnet:?xt=urn:btih:abc"})
	if err != nil {
		t.Fatalf("AddTorrent failed: %v", err)
	}
	if result != "Ok." {
		t.Errorf("Expected raw body text back, got: %q", result)
	}
}

func TestAddTorrentPausedLiteral(t *testing.T) {
	mux := http.NewServeMux()
	withLogin(mux)
	mux.HandleFunc("/api/v2/torrents/add", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm failed: %v", err)
		}
		if got := r.PostForm.Get("paused"); got != "true" {
			t.Errorf("Expected paused sent as literal true, got: %q", got)
		}
		if got := r.PostForm.Get("savepath"); got != "/data" {
			t.Errorf("Expected savepath=/data, got: %q", got)
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	if err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	_, err := client.AddTorrent(context.Background(), AddOptions{
		URLs:     "magnet:?xt=urn:btih:abc",
		SavePath: "/data",
		Paused:   true,
	})
	if err != nil {
		t.Fatalf("AddTorrent failed: %v", err)
	}
}

func TestControlTorrentPause(t *testing.T) {
	var pauseCalls atomic.Int32

	mux := http.NewServeMux()
	withLogin(mux)
	mux.HandleFunc("/api/v2/torrents/pause", func(w http.ResponseWriter, r *http.Request) {
		pauseCalls.Add(1)
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm failed: %v", err)
		}
		if got := r.PostForm.Get("hashes"); got != "abc" {
			t.Errorf("Expected hashes=abc, got: %q", got)
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	if err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := client.ControlTorrent(context.Background(), []string{"abc"}, "pause", false); err != nil {
		t.Fatalf("ControlTorrent failed: %v", err)
	}
	if pauseCalls.Load() != 1 {
		t.Errorf("Expected exactly one pause call, got: %d", pauseCalls.Load())
	}
}

func TestControlTorrentDeleteSendsFlag(t *testing.T) {
	mux := http.NewServeMux()
	withLogin(mux)
	mux.HandleFunc("/api/v2/torrents/delete", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("ParseForm failed: %v", err)
		}
		if got := r.PostForm.Get("hashes"); got != "abc|def" {
			t.Errorf("Expected pipe-delimited hashes, got: %q", got)
		}
		if got := r.PostForm.Get("deleteFiles"); got != "false" {
			t.Errorf("Expected deleteFiles literal false, got: %q", got)
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	if err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := client.ControlTorrent(context.Background(), []string{"abc", "def"}, "delete", false); err != nil {
		t.Fatalf("ControlTorrent failed: %v", err)
	}
}

func TestControlTorrentInvalidAction(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path == "/api/v2/auth/login" {
			fmt.Fprint(w, "Ok.")
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	if err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	loginCalls := calls.Load()

	err := client.ControlTorrent(context.Background(), []string{"abc"}, "invalid", false)
	if !IsAPIError(err) {
		t.Fatalf("Expected APIError for invalid action, got: %v", err)
	}
	for _, want := range []string{"pause", "resume", "delete"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Expected error to list %q, got: %v", want, err)
		}
	}
	if calls.Load() != loginCalls {
		t.Error("Invalid action must not issue any network call")
	}
}

func TestGetPreferencesIdempotent(t *testing.T) {
	mux := http.NewServeMux()
	withLogin(mux)
	mux.HandleFunc("/api/v2/app/preferences", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"save_path":"/downloads","dl_limit":0,"dht":true}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	if err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	first, err := client.GetPreferences(context.Background())
	if err != nil {
		t.Fatalf("GetPreferences failed: %v", err)
	}
	second, err := client.GetPreferences(context.Background())
	if err != nil {
		t.Fatalf("GetPreferences failed: %v", err)
	}

	if fmt.Sprint(first) != fmt.Sprint(second) {
		t.Errorf("Expected identical snapshots, got: %v vs %v", first, second)
	}
	if first["save_path"] != "/downloads" {
		t.Errorf("Expected save_path in snapshot, got: %v", first["save_path"])
	}
}

func TestGetAppVersion(t *testing.T) {
	mux := http.NewServeMux()
	withLogin(mux)
	mux.HandleFunc("/api/v2/app/version", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "v5.0.1")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	if err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	version, err := client.GetAppVersion(context.Background())
	if err != nil {
		t.Fatalf("GetAppVersion failed: %v", err)
	}
	if version != "v5.0.1" {
		t.Errorf("Expected v5.0.1, got: %q", version)
	}
}

func TestCloseIdempotent(t *testing.T) {
	var logoutCalls atomic.Int32

	mux := http.NewServeMux()
	withLogin(mux)
	mux.HandleFunc("/api/v2/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		logoutCalls.Add(1)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	if err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if err := client.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Second Close should be a no-op, got: %v", err)
	}

	if logoutCalls.Load() != 1 {
		t.Errorf("Expected exactly one logout call, got: %d", logoutCalls.Load())
	}

	// A closed client must fail fast again.
	if _, err := client.ListTorrents(context.Background(), ListOptions{}); !IsAuthError(err) {
		t.Errorf("Expected AuthError after Close, got: %v", err)
	}
}

func TestCloseWithoutLogin(t *testing.T) {
	client := newTestClient(t, "http://localhost:1") // never contacted

	if err := client.Close(); err != nil {
		t.Errorf("Close without session should be a no-op, got: %v", err)
	}
}
