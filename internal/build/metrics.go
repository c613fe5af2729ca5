package build

import (
	"sort"
	"sync"
	"time"
)

// AssetKind names the class of asset a builder produced.
type AssetKind string

const (
	KindScript   AssetKind = "script"
	KindStyle    AssetKind = "style"
	KindTemplate AssetKind = "template"
)

// AssetResult describes one builder invocation.
type AssetResult struct {
	Kind     AssetKind
	Source   string
	Output   string
	Duration time.Duration
	Error    error
}

// BuildMetrics tracks builder invocations across a build or watch session.
type BuildMetrics struct {
	TotalBuilds      int64
	SuccessfulBuilds int64
	FailedBuilds     int64
	AverageDuration  time.Duration
	TotalDuration    time.Duration
	ByKind           map[AssetKind]int64
	outputs          map[string]struct{}
	mutex            sync.RWMutex
}

// NewBuildMetrics creates a new build metrics tracker.
func NewBuildMetrics() *BuildMetrics {
	return &BuildMetrics{
		ByKind:  make(map[AssetKind]int64),
		outputs: make(map[string]struct{}),
	}
}

// RecordBuild records a builder result.
func (bm *BuildMetrics) RecordBuild(result AssetResult) {
	bm.mutex.Lock()
	defer bm.mutex.Unlock()

	bm.TotalBuilds++
	bm.TotalDuration += result.Duration
	bm.ByKind[result.Kind]++

	if result.Error != nil {
		bm.FailedBuilds++
	} else {
		bm.SuccessfulBuilds++
		if result.Output != "" {
			bm.outputs[result.Output] = struct{}{}
		}
	}

	bm.AverageDuration = bm.TotalDuration / time.Duration(bm.TotalBuilds)
}

// GetSnapshot returns a copy of the current metrics.
func (bm *BuildMetrics) GetSnapshot() BuildMetrics {
	bm.mutex.RLock()
	defer bm.mutex.RUnlock()

	byKind := make(map[AssetKind]int64, len(bm.ByKind))
	for k, v := range bm.ByKind {
		byKind[k] = v
	}

	return BuildMetrics{
		TotalBuilds:      bm.TotalBuilds,
		SuccessfulBuilds: bm.SuccessfulBuilds,
		FailedBuilds:     bm.FailedBuilds,
		AverageDuration:  bm.AverageDuration,
		TotalDuration:    bm.TotalDuration,
		ByKind:           byKind,
	}
}

// Outputs returns the distinct files written by successful builds, sorted.
func (bm *BuildMetrics) Outputs() []string {
	bm.mutex.RLock()
	defer bm.mutex.RUnlock()

	out := make([]string, 0, len(bm.outputs))
	for p := range bm.outputs {
		out = append(out, p)
	}
	sort.Strings(out)

	return out
}

// Reset clears all metrics.
func (bm *BuildMetrics) Reset() {
	bm.mutex.Lock()
	defer bm.mutex.Unlock()

	bm.TotalBuilds = 0
	bm.SuccessfulBuilds = 0
	bm.FailedBuilds = 0
	bm.AverageDuration = 0
	bm.TotalDuration = 0
	bm.ByKind = make(map[AssetKind]int64)
	bm.outputs = make(map[string]struct{})
}

// GetSuccessRate returns the success rate as a percentage.
func (bm *BuildMetrics) GetSuccessRate() float64 {
	bm.mutex.RLock()
	defer bm.mutex.RUnlock()

	if bm.TotalBuilds == 0 {
		return 0.0
	}

	return float64(bm.SuccessfulBuilds) / float64(bm.TotalBuilds) * 100.0
}
