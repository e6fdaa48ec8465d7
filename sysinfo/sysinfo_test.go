package sysinfo

import (
	"errors"
	"testing"

	"github.com/mackerelio/go-osstat/cpu"
)

func TestSampler_Deltas(t *testing.T) {
	t.Parallel()

	samples := []cpu.Stats{
		{User: 100, System: 50, Idle: 850, Total: 1000},
		{User: 150, System: 75, Idle: 1775, Total: 2000},
		{User: 150, System: 75, Idle: 1775, Total: 2000},
	}
	i := 0
	s := &Sampler{get: func() (*cpu.Stats, error) {
		st := samples[i]
		i++
		return &st, nil
	}}

	tests := []Usage{
		{User: 10, System: 5, Idle: 85},
		{User: 5, System: 2, Idle: 92},
		{},
	}
	for n, want := range tests {
		got, err := s.Sample()
		if err != nil {
			t.Fatalf("Sample %d: %v", n, err)
		}
		if got != want {
			t.Errorf("Sample %d = %+v, want %+v", n, got, want)
		}
	}
}

func TestSampler_Error(t *testing.T) {
	t.Parallel()

	boom := errors.New("no /proc")
	s := &Sampler{get: func() (*cpu.Stats, error) { return nil, boom }}
	if _, err := s.Sample(); !errors.Is(err, boom) {
		t.Errorf("error = %v, want %v", err, boom)
	}
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	c := Describe()
	if c.LogicalCores < 0 || c.PhysicalCores < 0 {
		t.Errorf("Describe() = %+v, want non-negative core counts", c)
	}
}
