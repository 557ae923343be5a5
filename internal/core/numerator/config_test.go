package numerator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_KeyAndFormat(t *testing.T) {
	period := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		cfg       Config
		key       string
		formatted string
	}{
		{"yearly", DefaultConfig("SC"), "SC_2026", "SC-2026-00042"},
		{"monthly", Config{Prefix: "SC", IncludeYear: true, PadWidth: 3, ResetPeriod: ResetMonth}, "SC_2026_03", "SC-2026-042"},
		{"never", Config{Prefix: "SC", ResetPeriod: ResetNever}, "SC", "SC-00042"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.key, tt.cfg.Key(period))
			assert.Equal(t, tt.formatted, tt.cfg.Format(period, 42))
			assert.Equal(t, int64(42), ParseNumber(tt.formatted))
		})
	}
}

func TestParseNumber_Invalid(t *testing.T) {
	assert.Equal(t, int64(-1), ParseNumber("garbage"))
}

func TestMemory_SequentialPerPeriod(t *testing.T) {
	ctx := context.Background()
	gen := NewMemory()
	cfg := DefaultConfig("SC")
	y2026 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	y2027 := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	seen := make(chan string, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := gen.Next(ctx, cfg, y2026)
			if err == nil {
				seen <- n
			}
		}()
	}
	wg.Wait()
	close(seen)

	unique := map[string]bool{}
	for n := range seen {
		unique[n] = true
	}
	assert.Len(t, unique, 20)
	assert.True(t, unique["SC-2026-00020"])

	n, err := gen.Next(ctx, cfg, y2027)
	require.NoError(t, err)
	assert.Equal(t, "SC-2027-00001", n)
}
