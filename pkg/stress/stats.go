package stress

import (
	"fmt"
	"time"
)

// maxFailedSeeds bounds how many failing seeds a Stats remembers
const maxFailedSeeds = 16

// Stats contains the outcome of stressing one or more shape instances
type Stats struct {
	Seeds           int           // Shape instances tested
	Hits            int           // Instances whose initial ray found the shape
	Rays            int           // Spawned rays traced from hit points
	Failures        int           // Spawned rays that reported a hit on their own shape
	Inconsistencies int           // Rays where IntersectP and Intersect disagreed
	FailedSeeds     []int64       // First few seeds with a failure, in seed order
	Duration        time.Duration // Wall time of the run
}

// FailureRate returns the fraction of spawned rays that failed
func (s Stats) FailureRate() float64 {
	if s.Rays == 0 {
		return 0
	}
	return float64(s.Failures) / float64(s.Rays)
}

// Merge accumulates other into s. Durations are not summed since parallel
// work overlaps; the caller records the wall time of the whole run.
func (s *Stats) Merge(other Stats) {
	s.Seeds += other.Seeds
	s.Hits += other.Hits
	s.Rays += other.Rays
	s.Failures += other.Failures
	s.Inconsistencies += other.Inconsistencies
	for _, seed := range other.FailedSeeds {
		if len(s.FailedSeeds) >= maxFailedSeeds {
			break
		}
		s.FailedSeeds = append(s.FailedSeeds, seed)
	}
}

func (s Stats) String() string {
	return fmt.Sprintf("%d seeds, %d hits, %d rays, %d failures (rate %.3g), %d inconsistencies in %v",
		s.Seeds, s.Hits, s.Rays, s.Failures, s.FailureRate(), s.Inconsistencies, s.Duration)
}
