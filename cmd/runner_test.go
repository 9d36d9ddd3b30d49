package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/plx/internal/shared"
	tu "github.com/desertthunder/plx/internal/testing"
)

const testKey = "0123456789abcdef0123456789abcdef"

func quietLogger() *log.Logger {
	return log.New(&bytes.Buffer{})
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			fake := &tu.FakeProvider{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Playlists:  fake,
				Exchanger:  fake,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.playlists != fake || runner.exchanger != fake {
				t.Error("expected collaborators to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			if runner := NewRunner(RunnerOpts{}); runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			if runner := NewRunner(RunnerOpts{}); runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil httpClient uses default", func(t *testing.T) {
			if runner := NewRunner(RunnerOpts{}); runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("writes plain text successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if output.String() != "hello world" {
				t.Errorf("expected 'hello world', got %q", output.String())
			}
		})

		t.Run("writePlainln wraps in newlines", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			runner.writePlainln("done")
			if output.String() != "\ndone\n" {
				t.Errorf("unexpected output %q", output.String())
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		commands := NewRunner(RunnerOpts{}).register()

		names := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			names[cmd.Name] = true
		}
		for _, want := range []string{"setup", "auth", "playlists"} {
			if !names[want] {
				t.Errorf("expected %s command to be registered", want)
			}
		}
	})

	t.Run("Close", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		var order []int
		runner.closers = []func() error{
			func() error { order = append(order, 1); return nil },
			func() error { order = append(order, 2); return errors.New("boom") },
		}

		if err := runner.Close(); err == nil {
			t.Error("expected joined closer error")
		}
		if len(order) != 2 || order[0] != 2 {
			t.Errorf("expected reverse order, got %v", order)
		}
		if err := runner.Close(); err != nil {
			t.Errorf("second Close should be a no-op, got %v", err)
		}
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("missing file uses defaults", func(t *testing.T) {
		config, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if config.Session.Storage != "file" {
			t.Errorf("expected default storage, got %q", config.Session.Storage)
		}
	})

	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		config := shared.DefaultConfig()
		config.Backend.BaseURL = "http://backend.test"
		if err := shared.SaveConfig(path, config); err != nil {
			t.Fatal(err)
		}

		loaded, err := loadConfig(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if loaded.Backend.BaseURL != "http://backend.test" {
			t.Errorf("unexpected base URL %q", loaded.Backend.BaseURL)
		}
	})
}

func testConfig(t *testing.T) *shared.Config {
	t.Helper()
	config := shared.DefaultConfig()
	config.Session.Key = testKey
	config.Session.Path = t.TempDir()
	config.Backend.BaseURL = "http://127.0.0.1:1"
	config.Database.Path = filepath.Join(t.TempDir(), "plx.db")
	return config
}

func TestSession(t *testing.T) {
	ctx := context.Background()

	t.Run("file storage", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Config: testConfig(t), Logger: quietLogger()})
		defer runner.Close()

		ctrl, err := runner.session(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if runner.playlists == nil || runner.exchanger == nil {
			t.Error("expected backend collaborators to be wired")
		}

		again, _ := runner.session(ctx)
		if again != ctrl {
			t.Error("expected the controller to be built once")
		}
	})

	t.Run("login persists across runners", func(t *testing.T) {
		config := testConfig(t)

		first := NewRunner(RunnerOpts{Config: config, Logger: quietLogger()})
		ctrl, err := first.session(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if err := ctrl.Login(ctx, "T1", "user42"); err != nil {
			t.Fatal(err)
		}

		entries, _ := os.ReadDir(config.Session.Path)
		if len(entries) != 1 {
			t.Errorf("expected one session file, got %d", len(entries))
		}

		data, _ := os.ReadFile(filepath.Join(config.Session.Path, entries[0].Name()))
		if strings.Contains(string(data), "T1") || strings.Contains(string(data), "user42") {
			t.Error("session file must not contain plaintext credentials")
		}
	})

	t.Run("short key", func(t *testing.T) {
		config := testConfig(t)
		config.Session.Key = "short"

		if _, err := NewRunner(RunnerOpts{Config: config, Logger: quietLogger()}).session(ctx); !errors.Is(err, shared.ErrKeyTooShort) {
			t.Errorf("expected ErrKeyTooShort, got %v", err)
		}
	})

	t.Run("sqlite storage", func(t *testing.T) {
		config := testConfig(t)
		config.Session.Storage = "sqlite"

		runner := NewRunner(RunnerOpts{Config: config, Logger: quietLogger()})
		ctrl, err := runner.session(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := ctrl.Login(ctx, "T1", "user42"); err != nil {
			t.Fatalf("Login() = %v", err)
		}
		if len(runner.closers) != 1 {
			t.Errorf("expected the database to be registered for closing")
		}
		tu.AssertFileExists(t, config.Database.Path)

		if err := runner.Close(); err != nil {
			t.Errorf("Close() = %v", err)
		}
	})

	t.Run("redis storage", func(t *testing.T) {
		mr := miniredis.RunT(t)
		config := testConfig(t)
		config.Session.Storage = "redis"
		config.Redis.Addr = mr.Addr()

		runner := NewRunner(RunnerOpts{Config: config, Logger: quietLogger()})
		defer runner.Close()

		ctrl, err := runner.session(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := ctrl.Login(ctx, "T1", "user42"); err != nil {
			t.Fatalf("Login() = %v", err)
		}
		if keys := mr.Keys(); len(keys) != 1 || !strings.HasPrefix(keys[0], "plx:") {
			t.Errorf("unexpected redis keys %v", keys)
		}
	})

	t.Run("redis unavailable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		config := testConfig(t)
		config.Session.Storage = "redis"
		config.Redis.Addr = addr

		runner := NewRunner(RunnerOpts{Config: config, Logger: quietLogger()})
		defer runner.Close()

		if _, err := runner.session(ctx); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})
}

func TestNewSessionKey(t *testing.T) {
	key, err := newSessionKey()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(key) < shared.MinSessionKeyLength {
		t.Errorf("key too short: %d", len(key))
	}

	other, _ := newSessionKey()
	if key == other {
		t.Error("expected distinct keys")
	}
}
