package playback

import (
	"sort"

	"workout_coach/internal/models"
)

// locateStep scans forward from the current index and returns the index of
// the step containing elapsed. Zero-duration await_ready steps beyond
// highWater stop the scan once reached, so a gate is never skipped.
func locateStep(steps []models.Step, from, highWater int, elapsed int64) int {
	target := from
	for i := from + 1; i < len(steps); i++ {
		st := steps[i]
		if st.StartMs > elapsed {
			break
		}
		target = i
		if st.Type == models.StepAwaitReady && i > highWater {
			break
		}
	}
	return target
}

// expectedStep recomputes the active step from scratch, independent of the
// forward scan. It is used by drift correction.
func expectedStep(steps []models.Step, highWater int, elapsed int64) int {
	i := sort.Search(len(steps), func(i int) bool { return steps[i].StartMs > elapsed }) - 1
	for g := highWater + 1; g <= i; g++ {
		if steps[g].Type == models.StepAwaitReady {
			return g
		}
	}
	return i
}
