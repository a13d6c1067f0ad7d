// Package compare benchmarks several search strategies against the same
// demand. The graph is shared read-only; every run gets its own derived
// seed and its own solver scratch state, so the runs execute in parallel
// on a worker pool without locking.
package compare

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	log "github.com/sirupsen/logrus"

	"qosrouting/qos_scheduling/common"
	"qosrouting/qos_scheduling/dispatcher"
)

// RunReport is the outcome of one algorithm's run.
type RunReport struct {
	Algorithm      string
	Result         *common.Result
	Err            error
	Elapsed        time.Duration
	Seed           int64
	CPUPercent     float64 // host CPU utilization sampled after the run
	MemUsedPercent float64 // host memory utilization sampled after the run
}

// Run executes the listed algorithms against one demand, one pool task
// each. Each task derives its seed as base seed + index so a fixed base
// seed reproduces every run. Reports come back in input order.
func Run(ctx context.Context, g *common.Graph, d common.Demand, w common.WeightVector, algorithms []string, p common.Params) ([]RunReport, error) {
	if len(algorithms) == 0 {
		return nil, fmt.Errorf("%w: no algorithms to compare", common.ErrInvalidInput)
	}

	pool, err := ants.NewPool(len(algorithms))
	if err != nil {
		return nil, fmt.Errorf("failed to create comparison pool: %w", err)
	}
	defer pool.Release()

	reports := make([]RunReport, len(algorithms))
	var wg sync.WaitGroup

	for i, name := range algorithms {
		i, name := i, name
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()

			params := p
			params.Seed = p.Seed + int64(i)

			start := time.Now()
			result, runErr := dispatcher.Solve(ctx, g, d, w, name, params)
			report := RunReport{
				Algorithm: name,
				Result:    result,
				Err:       runErr,
				Elapsed:   time.Since(start),
				Seed:      params.Seed,
			}
			report.CPUPercent, report.MemUsedPercent = hostSnapshot()
			reports[i] = report
		})
		if submitErr != nil {
			wg.Done()
			reports[i] = RunReport{Algorithm: name, Err: fmt.Errorf("pool submit failed: %w", submitErr)}
		}
	}

	wg.Wait()

	for _, r := range reports {
		if r.Err != nil {
			log.Warnf("compare: %s failed in %v: %v", r.Algorithm, r.Elapsed, r.Err)
			continue
		}
		log.Infof("compare: %s finished in %v (delay=%.2fms rel=%.4f%% resource=%.2f)",
			r.Algorithm, r.Elapsed, r.Result.TotalDelay,
			r.Result.FinalReliabilityPercent, r.Result.ResourceCost)
	}

	return reports, nil
}

// hostSnapshot samples host CPU and memory utilization. Failures degrade
// to zero values; the benchmark must not fail because a platform lacks a
// probe.
func hostSnapshot() (cpuPercent, memPercent float64) {
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		cpuPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		memPercent = vm.UsedPercent
	}
	return cpuPercent, memPercent
}
