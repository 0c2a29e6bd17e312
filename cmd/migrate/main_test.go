package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"
)

type fakeMigrator struct {
	calls   []string
	steps   int
	version int64
	applied int
	failOn  string
	closed  bool
}

func (f *fakeMigrator) MigrateUp(_ context.Context, steps int) error {
	f.calls = append(f.calls, "up")
	f.steps = steps
	if f.failOn == "up" {
		return errors.New("boom")
	}
	f.version, f.applied = 3, 3
	return nil
}

func (f *fakeMigrator) MigrateDown(_ context.Context, steps int) error {
	f.calls = append(f.calls, "down")
	f.steps = steps
	if f.failOn == "down" {
		return errors.New("boom")
	}
	f.version, f.applied = 2, 2
	return nil
}

func (f *fakeMigrator) MigrationStatus(context.Context) (int64, int, error) {
	f.calls = append(f.calls, "status")
	if f.failOn == "status" {
		return 0, 0, errors.New("boom")
	}
	return f.version, f.applied, nil
}

func (f *fakeMigrator) Close() error {
	f.closed = true
	return nil
}

func withFakeMigrator(t *testing.T, fake *fakeMigrator) *string {
	t.Helper()

	var gotDSN string
	original := openMigrator
	openMigrator = func(_ context.Context, dsn string) (migrator, error) {
		gotDSN = dsn
		return fake, nil
	}
	t.Cleanup(func() { openMigrator = original })
	return &gotDSN
}

func noEnv(string) string { return "" }

func TestParseOptions(t *testing.T) {
	opts, err := parseOptions([]string{"-direction= DOWN ", "-steps=2"}, func(key string) string {
		if key == envPostgresDSN {
			return " postgres://env "
		}
		return ""
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.direction != "down" || opts.steps != 2 || opts.dsn != "postgres://env" {
		t.Fatalf("unexpected options: %+v", opts)
	}
	if opts.timeout != defaultTimeout {
		t.Fatalf("unexpected timeout: %s", opts.timeout)
	}

	testCases := []struct {
		name string
		args []string
		want string
	}{
		{name: "missing dsn", args: nil, want: envPostgresDSN},
		{name: "negative steps", args: []string{"-dsn=x", "-steps=-1"}, want: "steps must be >= 0"},
		{name: "bad direction", args: []string{"-dsn=x", "-direction=sideways"}, want: "unsupported direction"},
		{name: "unknown flag", args: []string{"-verbose"}, want: "flag provided but not defined"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseOptions(tc.args, noEnv)
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestRun_Directions(t *testing.T) {
	testCases := []struct {
		args      []string
		wantCalls []string
		wantSteps int
		wantOut   string
	}{
		{args: []string{"-direction=up"}, wantCalls: []string{"up", "status"}, wantSteps: 0, wantOut: "migrate up ok: version=3 applied=3"},
		{args: []string{"-direction=down"}, wantCalls: []string{"down", "status"}, wantSteps: 1, wantOut: "migrate down ok: version=2 applied=2"},
		{args: []string{"-direction=down", "-steps=3"}, wantCalls: []string{"down", "status"}, wantSteps: 3, wantOut: "migrate down ok"},
		{args: []string{"-direction=status"}, wantCalls: []string{"status"}, wantOut: "migration status: version=0 applied=0"},
	}

	for _, tc := range testCases {
		t.Run(strings.Join(tc.args, " "), func(t *testing.T) {
			fake := &fakeMigrator{}
			gotDSN := withFakeMigrator(t, fake)

			var out bytes.Buffer
			if err := run(append(tc.args, "-dsn=postgres://flag"), noEnv, &out); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if *gotDSN != "postgres://flag" {
				t.Fatalf("unexpected dsn %q", *gotDSN)
			}
			if strings.Join(fake.calls, ",") != strings.Join(tc.wantCalls, ",") {
				t.Fatalf("unexpected calls %v", fake.calls)
			}
			if fake.steps != tc.wantSteps {
				t.Fatalf("unexpected steps %d", fake.steps)
			}
			if !strings.Contains(out.String(), tc.wantOut) {
				t.Fatalf("unexpected output %q", out.String())
			}
			if !fake.closed {
				t.Fatal("store must be closed")
			}
		})
	}
}

func TestRun_Failures(t *testing.T) {
	for _, failOn := range []string{"up", "status"} {
		fake := &fakeMigrator{failOn: failOn}
		withFakeMigrator(t, fake)

		err := run([]string{"-dsn=x"}, noEnv, &bytes.Buffer{})
		if err == nil || !strings.Contains(err.Error(), "failed") {
			t.Fatalf("expected failure for %s, got %v", failOn, err)
		}
	}

	original := openMigrator
	openMigrator = func(context.Context, string) (migrator, error) {
		return nil, errors.New("connection refused")
	}
	t.Cleanup(func() { openMigrator = original })

	err := run([]string{"-dsn=x"}, noEnv, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "open postgres store") {
		t.Fatalf("expected open error, got %v", err)
	}
}

func TestRun_Postgres(t *testing.T) {
	dsn := strings.TrimSpace(os.Getenv("SHOP_POSTGRES_TEST_DSN"))
	if dsn == "" {
		t.Skip("SHOP_POSTGRES_TEST_DSN is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	store, err := openMigrator(ctx, dsn)
	cancel()
	if err != nil {
		t.Skipf("postgres is not available: %v", err)
	}
	_ = store.Close()

	for _, args := range [][]string{
		{"-direction=status"},
		{"-direction=up", "-steps=1"},
		{"-direction=down", "-steps=1"},
	} {
		var out bytes.Buffer
		if err := run(append(args, "-dsn="+dsn), noEnv, &out); err != nil {
			t.Fatalf("%v: %v", args, err)
		}
	}
}

func TestFailExits(t *testing.T) {
	if os.Getenv("MIGRATE_TEST_FAIL_EXIT") == "1" {
		fail("forced failure %d", 42)
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestFailExits")
	cmd.Env = append(os.Environ(), "MIGRATE_TEST_FAIL_EXIT=1")
	err := cmd.Run()
	if err == nil {
		t.Fatal("expected subprocess to exit with error")
	}
	if exitErr, ok := err.(*exec.ExitError); !ok || exitErr.ExitCode() == 0 {
		t.Fatalf("expected non-zero exit code, got %v", err)
	}
}
