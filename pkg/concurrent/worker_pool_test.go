package concurrent

import (
	"sort"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkerPool(t *testing.T) {
	testCases := []struct {
		name       string
		numWorkers int
		jobs       int
	}{
		{name: "single worker", numWorkers: 1, jobs: 10},
		{name: "more workers than jobs", numWorkers: 8, jobs: 3},
		{name: "invalid worker count", numWorkers: 0, jobs: 5},
		{name: "no jobs", numWorkers: 4, jobs: 0},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int64
			wp := NewWorkerPool[int, int](tt.numWorkers, tt.jobs)
			wp.Start(func(job int) int {
				calls.Add(1)
				return job * job
			})
			for i := 0; i < tt.jobs; i++ {
				wp.AddJob(i)
			}
			wp.Close()
			wp.Wait()

			got := make([]int, 0, tt.jobs)
			for r := range wp.CollectResults() {
				got = append(got, r)
			}
			sort.Ints(got)

			want := make([]int, tt.jobs)
			for i := range want {
				want[i] = i * i
			}
			assert.Equal(t, want, got)
			assert.Equal(t, int64(tt.jobs), calls.Load())
		})
	}
}
