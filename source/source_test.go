package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	apperrors "github.com/kbukum/ledgerflow/errors"
)

func drain[T any](t *testing.T, src Source[T]) ([]T, error) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var out []T
	for {
		v, ok, err := src.Next(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

func TestBuffer_DrainAfterStop(t *testing.T) {
	b := NewBuffer[int]("q", 0)
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		if err := b.Push(ctx, i); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	b.Stop()

	for want := 1; want <= 3; want++ {
		v, ok, err := b.Next(ctx)
		if err != nil || !ok || v != want {
			t.Fatalf("expected %d, got %d (ok=%v, err=%v)", want, v, ok, err)
		}
	}
	if _, ok, _ := b.Next(ctx); ok {
		t.Error("expected end of stream after drain")
	}
	if _, ok, _ := b.Next(ctx); ok {
		t.Error("expected end of stream to be terminal")
	}
}

func TestBuffer_StopOnEmptyEndsImmediately(t *testing.T) {
	b := NewBuffer[int]("q", 0)
	b.Stop()
	start := time.Now()
	if _, ok, err := b.Next(context.Background()); ok || err != nil {
		t.Errorf("expected immediate end, got ok=%v err=%v", ok, err)
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Error("expected Next to return without blocking")
	}
}

func TestBuffer_PushAfterStopRejected(t *testing.T) {
	b := NewBuffer[int]("q", 0)
	b.Stop()
	err := b.Push(context.Background(), 1)
	if !apperrors.HasCode(err, apperrors.ErrCodeSourceStopped) {
		t.Errorf("expected SOURCE_STOPPED, got %v", err)
	}
}

func TestBuffer_StopWakesBlockedConsumer(t *testing.T) {
	b := NewBuffer[int]("q", 0)
	done := make(chan bool)
	go func() {
		_, ok, _ := b.Next(context.Background())
		done <- ok
	}()
	time.Sleep(20 * time.Millisecond)
	b.Stop()
	select {
	case ok := <-done:
		if ok {
			t.Error("expected end of stream")
		}
	case <-time.After(time.Second):
		t.Fatal("consumer was not woken by Stop")
	}
}

func TestBuffer_CapacityBlocksProducer(t *testing.T) {
	b := NewBuffer[int]("q", 1)
	ctx := context.Background()
	_ = b.Push(ctx, 1)

	pushed := make(chan error)
	go func() { pushed <- b.Push(ctx, 2) }()

	select {
	case <-pushed:
		t.Fatal("expected push to block while full")
	case <-time.After(30 * time.Millisecond):
	}

	if v, _, _ := b.Next(ctx); v != 1 {
		t.Errorf("expected 1, got %d", v)
	}
	if err := <-pushed; err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if b.Len() != 1 {
		t.Errorf("expected 1 buffered item, got %d", b.Len())
	}
}

func TestBuffer_PushHonoursContext(t *testing.T) {
	b := NewBuffer[int]("q", 1)
	_ = b.Push(context.Background(), 1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := b.Push(ctx, 2); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestBuffer_ConcurrentProducersFIFOPerProducer(t *testing.T) {
	b := NewBuffer[int]("q", 4)
	ctx := context.Background()
	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				_ = b.Push(ctx, p*1000+i)
			}
		}(p)
	}
	go func() { wg.Wait(); b.Stop() }()

	last := map[int]int{0: -1, 1: -1, 2: -1, 3: -1}
	count := 0
	for {
		v, ok, _ := b.Next(ctx)
		if !ok {
			break
		}
		p, i := v/1000, v%1000
		if i <= last[p] {
			t.Fatalf("producer %d out of order: %d after %d", p, i, last[p])
		}
		last[p] = i
		count++
	}
	if count != 200 {
		t.Errorf("expected 200 items, got %d", count)
	}
}

func TestCounter_ShardFilter(t *testing.T) {
	const n, shards = 97, 7
	for k := 0; k < shards; k++ {
		c, err := NewCounter(CounterConfig{StartCount: n, ShardIndex: k, ShardSize: shards}, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_ = c.Start(context.Background())
		got, err := drain[int64](t, c)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i, v := range got {
			if v%shards != int64(k) {
				t.Errorf("shard %d emitted %d", k, v)
			}
			if i > 0 && v >= got[i-1] {
				t.Errorf("shard %d not counting down: %d after %d", k, v, got[i-1])
			}
		}
	}
}

func TestCounter_ShardCoverage(t *testing.T) {
	const n, shards = 1000, 13
	counters, err := NewShardedCounters(n, shards, 0, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seen := make(map[int64]int)
	for _, c := range counters {
		_ = c.Start(context.Background())
		got, err := drain[int64](t, c)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, v := range got {
			seen[v]++
		}
	}
	if len(seen) != n {
		t.Errorf("expected %d distinct values, got %d", n, len(seen))
	}
	for v := int64(1); v <= n; v++ {
		if seen[v] != 1 {
			t.Errorf("value %d seen %d times", v, seen[v])
		}
	}
}

func TestCounter_StopEndsEarly(t *testing.T) {
	c, _ := NewCounter(CounterConfig{StartCount: 1_000_000, ShardIndex: 0, ShardSize: 1, Capacity: 10}, nil)
	_ = c.Start(context.Background())
	time.Sleep(10 * time.Millisecond)
	c.Stop()

	got, err := drain[int64](t, c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) > 10 {
		t.Errorf("expected at most the buffered 10 values after stop, got %d", len(got))
	}
	select {
	case <-c.Done():
	case <-time.After(time.Second):
		t.Error("population did not exit after stop")
	}
	if c.Err() != nil {
		t.Errorf("cancellation must not be reported as an error, got %v", c.Err())
	}
}

func TestCounter_InvalidConfig(t *testing.T) {
	bad := []CounterConfig{
		{StartCount: 10, ShardIndex: 0, ShardSize: 0},
		{StartCount: 10, ShardIndex: 3, ShardSize: 3},
		{StartCount: -1, ShardIndex: 0, ShardSize: 1},
	}
	for _, cfg := range bad {
		if _, err := NewCounter(cfg, nil); err == nil {
			t.Errorf("expected error for %+v", cfg)
		}
	}
}

func TestStart_IsIdempotent(t *testing.T) {
	src := FromSlice("s", []int{1, 2, 3})
	_ = src.Start(context.Background())
	_ = src.Start(context.Background())
	got, _ := drain[int](t, src)
	if len(got) != 3 {
		t.Errorf("expected 3 values, got %v", got)
	}
}

func TestFileLines_SkipsBadLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledgers.txt")
	content := "100\n\nnot-a-number\n 200 \n300\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	src, err := NewFileLines(path, 0, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = src.Start(context.Background())
	got, err := drain[int64](t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []int64{100, 200, 300}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %v, got %v", want, got)
		}
	}
}

func TestFileLines_MissingFileSurfacesError(t *testing.T) {
	src, _ := NewFileLines(filepath.Join(t.TempDir(), "missing"), 0, nil)
	_ = src.Start(context.Background())
	_, err := drain[int64](t, src)
	if err == nil {
		t.Error("expected population error for missing file")
	}
}

func TestMap(t *testing.T) {
	src := Map[int, string](FromSlice("s", []int{3, 1, 2}), func(i int) string {
		return string(rune('a' + i))
	})
	_ = src.Start(context.Background())
	got, _ := drain[string](t, src)
	sorted := append([]string(nil), got...)
	sort.Strings(sorted)
	if len(got) != 3 || got[0] != "d" || sorted[0] != "b" {
		t.Errorf("unexpected mapped values: %v", got)
	}
	if src.Name() != "s" {
		t.Errorf("expected name 's', got %q", src.Name())
	}
}
