package cli

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/af-corp/amrs/internal/config"
	"github.com/af-corp/amrs/internal/inference"
	"github.com/af-corp/amrs/internal/resolver"
	"github.com/af-corp/amrs/internal/telemetry"
	"github.com/af-corp/amrs/internal/usage"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func exampleArgs(t *testing.T, args ...string) []string {
	t.Helper()
	configPath, err := filepath.Abs(filepath.Join("..", "..", "configs", "amrs.example.yaml"))
	if err != nil {
		t.Fatalf("abs: %v", err)
	}
	if _, err := os.Stat(configPath); err != nil {
		t.Fatalf("example config missing: %v", err)
	}
	envFile := writeFile(t, t.TempDir(), ".env", "FAKE_API_KEY=unused\n")
	return append(args, "--config", configPath, "--env-file", envFile)
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, Version) {
		t.Errorf("expected version in output, got %q", out)
	}
}

func TestValidateWithExampleConfig(t *testing.T) {
	out, err := run(t, exampleArgs(t, "validate")...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"Config OK", "Mode: weighted", "fake-small", "max_tokens=2048", "temperature=0.7"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output, got:\n%s", want, out)
		}
	}
}

func TestValidate_MissingCredential(t *testing.T) {
	configPath, _ := filepath.Abs(filepath.Join("..", "..", "configs", "amrs.example.yaml"))
	t.Setenv("FAKE_API_KEY", "")

	_, err := run(t, "validate", "--config", configPath)
	if err == nil {
		t.Fatal("expected credential error")
	}
	if !strings.Contains(err.Error(), "FAKE_API_KEY") {
		t.Errorf("expected missing key in error, got %v", err)
	}
}

func TestSampleWithExampleConfig(t *testing.T) {
	out, err := run(t, exampleArgs(t, "sample", "-n", "400")...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "draws: 400") || !strings.Contains(out, "expected=0.7500") {
		t.Errorf("unexpected sample output:\n%s", out)
	}
}

func TestSample_RejectsNonPositiveDraws(t *testing.T) {
	if _, err := run(t, exampleArgs(t, "sample", "-n", "0")...); err == nil {
		t.Fatal("expected error for -n 0")
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		level, format string
		wantErr       bool
	}{
		{"info", "json", false},
		{"debug", "text", false},
		{"WARN", "", false},
		{"loud", "json", true},
		{"info", "xml", true},
	}
	for _, tt := range tests {
		_, err := newLogger(io.Discard, tt.level, tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("newLogger(%q, %q): err=%v, wantErr=%v", tt.level, tt.format, err, tt.wantErr)
		}
	}
}

func TestReloadSet_KeepsPreviousSetOnError(t *testing.T) {
	creds := resolver.MapCredentials{"FAKE_API_KEY": "unused"}
	good := config.DefaultConfig()
	good.Routing.Provider = config.String("fake")
	good.Routing.Models = []config.ModelConfig{{ID: "first"}}

	set, err := inference.BuildSet(good, creds)
	if err != nil {
		t.Fatalf("build set: %v", err)
	}
	client := inference.NewClient(set, usage.NewTracker())
	metrics := telemetry.NewMetricsWith(prometheus.NewRegistry())
	reload := reloadSet(client, creds, metrics, slog.New(slog.NewTextHandler(io.Discard, nil)))

	bad := config.DefaultConfig()
	bad.Routing.Provider = config.String("fake")
	bad.Routing.Models = []config.ModelConfig{{ID: "dup"}, {ID: "dup"}}
	reload(bad)
	if client.Set() != set {
		t.Error("rejected config must keep the previous set")
	}

	next := config.DefaultConfig()
	next.Routing.Provider = config.String("fake")
	next.Routing.RoutingMode = "wrr"
	next.Routing.Models = []config.ModelConfig{{ID: "second"}}
	reload(next)
	if _, ok := client.Set().Model("second"); !ok {
		t.Error("expected valid config to replace the set")
	}

	var m dto.Metric
	metrics.ConfigReloadTotal.WithLabelValues("rejected").Write(&m)
	if *m.Counter.Value != 1 {
		t.Errorf("expected 1 rejected reload, got %v", *m.Counter.Value)
	}
	metrics.ConfigReloadTotal.WithLabelValues("ok").Write(&m)
	if *m.Counter.Value != 1 {
		t.Errorf("expected 1 ok reload, got %v", *m.Counter.Value)
	}
}
