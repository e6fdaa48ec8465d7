// Package sysinfo describes the host CPU and samples its utilisation.
package sysinfo

import (
	"fmt"
	"math"
	"sync"

	"github.com/klauspost/cpuid/v2"
	"github.com/mackerelio/go-osstat/cpu"
)

// CPU describes the processor key generation runs on.
type CPU struct {
	Brand         string   `json:"brand" yaml:"brand"`
	Vendor        string   `json:"vendor" yaml:"vendor"`
	PhysicalCores int      `json:"physical_cores" yaml:"physical_cores"`
	LogicalCores  int      `json:"logical_cores" yaml:"logical_cores"`
	X64Level      int      `json:"x64_level" yaml:"x64_level"`
	Features      []string `json:"features" yaml:"features"`
}

// Describe returns the detected CPU.
func Describe() CPU {
	return CPU{
		Brand:         cpuid.CPU.BrandName,
		Vendor:        cpuid.CPU.VendorString,
		PhysicalCores: cpuid.CPU.PhysicalCores,
		LogicalCores:  cpuid.CPU.LogicalCores,
		X64Level:      cpuid.CPU.X64Level(),
		Features:      cpuid.CPU.FeatureSet(),
	}
}

// Usage is the share of CPU time, in percent, spent in each state between
// two samples.
type Usage struct {
	User   float64
	System float64
	Idle   float64
}

// Sampler measures CPU usage between successive calls to Sample. The first
// sample covers the time since boot.
type Sampler struct {
	mu   sync.Mutex
	get  func() (*cpu.Stats, error)
	prev cpu.Stats
}

// NewSampler returns a Sampler reading the operating system counters.
func NewSampler() *Sampler {
	return &Sampler{get: cpu.Get}
}

// Sample returns the usage since the previous sample.
func (s *Sampler) Sample() (Usage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, err := s.get()
	if err != nil {
		return Usage{}, fmt.Errorf("read cpu stats: %w", err)
	}
	prev := s.prev
	s.prev = *cur

	total := float64(cur.Total - prev.Total)
	if total <= 0 {
		return Usage{}, nil
	}
	return Usage{
		User:   math.Floor(float64(cur.User-prev.User) / total * 100),
		System: math.Floor(float64(cur.System-prev.System) / total * 100),
		Idle:   math.Floor(float64(cur.Idle-prev.Idle) / total * 100),
	}, nil
}
