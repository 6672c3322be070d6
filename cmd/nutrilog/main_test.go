package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"nutrilog/internal/core"
	"nutrilog/internal/kv/memory"
	"nutrilog/internal/ledger"
	"nutrilog/internal/services"
)

var fixedNow = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func newTestApp() (*app, *memory.Store) {
	backend := memory.New()
	return &app{
		now: func() time.Time { return fixedNow },
		svc: services.NewLedgerService(ledger.NewStore(backend, ledger.Options{}), nil),
	}, backend
}

func run(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(a)
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return buf.String(), err
}

func mustRun(t *testing.T, a *app, args ...string) string {
	t.Helper()
	out, err := run(t, a, args...)
	if err != nil {
		t.Fatalf("%v: %v\n%s", args, err, out)
	}
	return out
}

func TestParseDay(t *testing.T) {
	tests := []struct {
		in   string
		want core.DateKey
	}{
		{"", "240301"},
		{"today", "240301"},
		{"Yesterday", "240229"},
		{"tomorrow", "240302"},
		{"231231", "231231"},
		{"2024-02-29", "240229"},
	}
	for _, tt := range tests {
		got, err := parseDay(tt.in, fixedNow)
		if err != nil || got != tt.want {
			t.Errorf("parseDay(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}
	for _, bad := range []string{"241301", "2024-13-01", "march"} {
		if _, err := parseDay(bad, fixedNow); !errors.Is(err, core.ErrInvalidKey) {
			t.Errorf("parseDay(%q) err = %v, want ErrInvalidKey", bad, err)
		}
	}
}

func TestParseMonth(t *testing.T) {
	got, err := parseMonth("", fixedNow)
	if err != nil || got.Month() != time.March || got.Year() != 2024 {
		t.Errorf("default month = %v, %v", got, err)
	}
	got, err = parseMonth("2023-12", fixedNow)
	if err != nil || got.Month() != time.December || got.Year() != 2023 {
		t.Errorf("2023-12 = %v, %v", got, err)
	}
	for _, bad := range []string{"2023-13", "1999-01", "12/2023"} {
		if _, err := parseMonth(bad, fixedNow); err == nil {
			t.Errorf("parseMonth(%q) should fail", bad)
		}
	}
}

func TestAddAndDay(t *testing.T) {
	a, backend := newTestApp()

	out := mustRun(t, a, "add", "food", "Scrambled", "eggs", "--cal", "70", "--qty", "2")
	if !strings.Contains(out, "Scrambled eggs") || !strings.Contains(out, "70 x 2 = 140 kcal") {
		t.Errorf("add output:\n%s", out)
	}
	mustRun(t, a, "add", "workout", "Squats", "--done", "-d", "2024-03-01")

	out = mustRun(t, a, "day")
	for _, want := range []string{"Mar 1, 2024 (240301)", "[x]", "w", "Total: 140 kcal, 1 pending"} {
		if !strings.Contains(out, want) {
			t.Errorf("day output missing %q:\n%s", want, out)
		}
	}

	raw, ok, _ := backend.Get(context.Background(), "@240301")
	if !ok || !strings.Contains(raw, `"n":"Scrambled eggs"`) {
		t.Errorf("stored ledger = %s", raw)
	}
}

func TestAddRejectsBadInput(t *testing.T) {
	a, _ := newTestApp()
	if _, err := run(t, a, "add", "snack", "Chips"); !errors.Is(err, core.ErrInvalidRecord) {
		t.Errorf("unknown kind err = %v", err)
	}
	if _, err := run(t, a, "add", "food", "Chips", "--cal", "lots"); !errors.Is(err, core.ErrInvalidRecord) {
		t.Errorf("bad calories err = %v", err)
	}
	if _, err := run(t, a, "add", "food", "Chips", "-d", "240230"); !errors.Is(err, core.ErrInvalidKey) {
		t.Errorf("bad date err = %v", err)
	}
}

func TestEditToggleRemove(t *testing.T) {
	a, _ := newTestApp()
	mustRun(t, a, "add", "food", "Toast", "--cal", "90")
	mustRun(t, a, "add", "cardio", "Run")

	out := mustRun(t, a, "edit", "0", "--name", "Rye toast", "--qty", "2")
	if !strings.Contains(out, "Rye toast") || !strings.Contains(out, "90 x 2 = 180 kcal") {
		t.Errorf("edit output:\n%s", out)
	}

	out = mustRun(t, a, "toggle", "1")
	if !strings.Contains(out, "1  [x]") {
		t.Errorf("toggle output:\n%s", out)
	}

	if _, err := run(t, a, "toggle", "7"); !errors.Is(err, ledger.ErrIndexOutOfRange) {
		t.Errorf("stale toggle err = %v", err)
	}
	if _, err := run(t, a, "edit", "7", "--name", "x"); !errors.Is(err, ledger.ErrIndexOutOfRange) {
		t.Errorf("stale edit err = %v", err)
	}

	out = mustRun(t, a, "rm", "0")
	if strings.Contains(out, "Rye toast") || !strings.Contains(out, "Run") {
		t.Errorf("rm output:\n%s", out)
	}

	l, err := a.svc.Day(context.Background(), "240301")
	if err != nil || len(l) != 1 {
		t.Fatalf("ledger = %v, %v", l, err)
	}
	out = mustRun(t, a, "rm", "--id", l[0].ID)
	if !strings.Contains(out, "No records.") {
		t.Errorf("rm --id output:\n%s", out)
	}
	if _, err := run(t, a, "rm", "--id", "missing"); !errors.Is(err, ledger.ErrRecordNotFound) {
		t.Errorf("rm unknown id err = %v", err)
	}
}

func TestMonth(t *testing.T) {
	a, _ := newTestApp()
	mustRun(t, a, "add", "food", "Egg", "--cal", "70", "--qty", "2")
	mustRun(t, a, "add", "workout", "Lift")
	mustRun(t, a, "add", "cardio", "Bike", "-d", "240315")

	out := mustRun(t, a, "month", "2024-03")
	for _, want := range []string{"March 2024", "Sun     Mon", "1W", "15C", "140", "Month total: 140 kcal"} {
		if !strings.Contains(out, want) {
			t.Errorf("month output missing %q:\n%s", want, out)
		}
	}
	if got := a.svc.Grid(); got.Month != time.March || len(got.Keys) != 42 {
		t.Errorf("active grid = %d-%d with %d keys", got.Year, got.Month, len(got.Keys))
	}

	out = mustRun(t, a, "month", "2024-03", "--shift=-1")
	if !strings.Contains(out, "February 2024") || !strings.Contains(out, "Month total: 0 kcal") {
		t.Errorf("shifted month output:\n%s", out)
	}
}

func TestOpenFailureSurfaces(t *testing.T) {
	errBoom := errors.New("boom")
	a := &app{
		now: func() time.Time { return fixedNow },
		open: func(context.Context, bool) (*services.LedgerService, func() error, error) {
			return nil, nil, errBoom
		},
	}
	if _, err := run(t, a, "day"); !errors.Is(err, errBoom) {
		t.Errorf("err = %v, want boom", err)
	}
	if err := a.close(); err != nil {
		t.Errorf("close without backend: %v", err)
	}
}

// interleavedKV runs after once, right after the first read of key.
type interleavedKV struct {
	*memory.Store
	key   string
	once  sync.Once
	after func()
}

func (k *interleavedKV) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := k.Store.Get(ctx, key)
	if key == k.key {
		k.once.Do(k.after)
	}
	return v, ok, err
}

func TestEditFollowsRecordMovedByOtherWriter(t *testing.T) {
	ctx := context.Background()
	backend := memory.New()
	seed := ledger.NewStore(backend, ledger.Options{})
	for _, name := range []string{"A", "B", "C"} {
		if _, err := seed.Append(ctx, "240301", core.NewFood(name, 10)); err != nil {
			t.Fatal(err)
		}
	}

	// Another process removes A between the CLI's read and its write.
	kv := &interleavedKV{Store: backend, key: "@240301"}
	kv.after = func() {
		if _, err := seed.RemoveAt(ctx, "240301", 0); err != nil {
			t.Errorf("concurrent remove: %v", err)
		}
	}
	a := &app{
		now: func() time.Time { return fixedNow },
		svc: services.NewLedgerService(ledger.NewStore(kv, ledger.Options{}), nil),
	}

	mustRun(t, a, "edit", "1", "--name", "B2")

	l, err := seed.Fetch(ctx, "240301")
	if err != nil {
		t.Fatal(err)
	}
	if len(l) != 2 || l[0].Name != "B2" || l[1].Name != "C" {
		t.Fatalf("ledger after edit = %v, want [B2 C]", names(l))
	}
	if l[0].ID == l[1].ID {
		t.Error("edit duplicated a record id")
	}
}

func names(l core.DayLedger) []string {
	out := make([]string, len(l))
	for i, r := range l {
		out[i] = r.Name
	}
	return out
}
