package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestGetEnvWithDefault(t *testing.T) {
	t.Setenv("FOO", "")
	if got := GetEnv("FOO", "bar"); got != "bar" {
		t.Fatalf("expected bar, got %s", got)
	}
	t.Setenv("FOO", "baz")
	if got := GetEnv("FOO", "bar"); got != "baz" {
		t.Fatalf("expected baz, got %s", got)
	}
	t.Setenv("FOO", "   ")
	if got := GetEnv("FOO", "bar"); got != "bar" {
		t.Fatalf("expected whitespace to fall back to default, got %q", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("NUM", "")
	if got := GetEnvInt("NUM", 42); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	t.Setenv("NUM", "100")
	if got := GetEnvInt("NUM", 42); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
	t.Setenv("NUM", "notint")
	if got := GetEnvInt("NUM", 7); got != 7 {
		t.Fatalf("expected 7 on parse error, got %d", got)
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("WAIT", "")
	if got := GetEnvDuration("WAIT", time.Second); got != time.Second {
		t.Fatalf("expected default, got %s", got)
	}
	t.Setenv("WAIT", "250ms")
	if got := GetEnvDuration("WAIT", time.Second); got != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %s", got)
	}
	t.Setenv("WAIT", "-5s")
	if got := GetEnvDuration("WAIT", time.Second); got != time.Second {
		t.Fatalf("expected negative duration to fall back, got %s", got)
	}
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("BROKERS", " a:9092, ,b:9092 ")
	got := GetEnvList("BROKERS")
	want := []string{"a:9092", "b:9092"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	t.Setenv("BROKERS", "")
	if got := GetEnvList("BROKERS"); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
}

func TestGetLogLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	if GetLogLevel() != logrus.DebugLevel {
		t.Fatalf("expected debug level")
	}
	t.Setenv("LOG_LEVEL", "WARN")
	if GetLogLevel() != logrus.WarnLevel {
		t.Fatalf("expected warn level")
	}
	t.Setenv("LOG_LEVEL", "")
	if GetLogLevel() != logrus.InfoLevel {
		t.Fatalf("expected info level by default")
	}
}

func TestLoadEnvReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SG_TEST_VALUE=from-file\n"), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Chdir(wd)
		_ = os.Unsetenv("SG_TEST_VALUE")
	})

	loaded := LoadEnv(nil)
	if len(loaded) != 1 || loaded[0] != ".env" {
		t.Fatalf("expected .env to be loaded, got %v", loaded)
	}
	if got := os.Getenv("SG_TEST_VALUE"); got != "from-file" {
		t.Fatalf("expected from-file, got %q", got)
	}
}
