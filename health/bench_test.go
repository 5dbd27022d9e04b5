package health

import (
	"context"
	"testing"
	"time"
)

func BenchmarkRegistryCheckNow(b *testing.B) {
	r := NewRegistry()
	defer r.Stop()

	r.Register("bench", passCheck, CheckOptions{
		Interval:         time.Hour,
		Timeout:          time.Second,
		FailureThreshold: 3,
	})

	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.CheckNow(ctx, "bench")
	}
}

func BenchmarkRegistryGet(b *testing.B) {
	r := NewRegistry()
	defer r.Stop()

	r.Register("bench", passCheck, CheckOptions{Interval: time.Hour})
	r.CheckNow(context.Background(), "bench")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = r.Get("bench")
	}
}

func BenchmarkRegistryOverall(b *testing.B) {
	r := NewRegistry()
	defer r.Stop()

	for _, name := range []string{"a", "b", "c", "d", "e"} {
		r.Register(name, passCheck, CheckOptions{Interval: time.Hour})
	}
	r.CheckAllNow(context.Background())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = r.Overall()
	}
}
