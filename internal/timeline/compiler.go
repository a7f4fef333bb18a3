// Package timeline turns authored workout blocks into a flat, time-ordered
// list of execution steps.
package timeline

import (
	"fmt"

	"workout_coach/internal/models"
)

// workItem is one expanded (exercise, work, rest-after) tuple.
type workItem struct {
	ref         models.ExerciseRef
	workMs      int64
	restAfterMs int64
	reps        int
	set, sets   int
	round       int
	rounds      int
}

// blockParams are a block's numeric parameters after defaults are applied.
type blockParams struct {
	mode         models.Mode
	workSec      int
	restSec      int
	roundRestSec int
	sets         int
	reps         int
}

// Compile converts blocks into a CompiledTimeline. It is a pure function:
// identical input yields identical output. Only malformed parameters fail.
func Compile(blocks []models.Block, opts Options) (*models.CompiledTimeline, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	out := &models.CompiledTimeline{
		WorkoutID:    opts.WorkoutID,
		Name:         opts.Name,
		PreWorkoutMs: int64(opts.PreWorkoutSec) * 1000,
	}

	var t int64
	if out.PreWorkoutMs > 0 {
		out.Steps = append(out.Steps, models.Step{
			Type:       models.StepInstruction,
			StartMs:    0,
			EndMs:      out.PreWorkoutMs,
			BlockIndex: -1,
			Cue:        opts.Name,
		})
		t = out.PreWorkoutMs
	}

	compiledBlocks := 0
	for bi, b := range blocks {
		p, err := resolveParams(bi, b)
		if err != nil {
			return nil, err
		}
		items, err := expand(bi, b, p, opts)
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			out.SkippedBlocks = append(out.SkippedBlocks, b.ID)
			continue
		}
		first := items[0].ref

		if compiledBlocks > 0 {
			transMs := int64(opts.TransitionSec) * 1000
			out.Steps = append(out.Steps, models.Step{
				Type:             models.StepTransition,
				StartMs:          t,
				EndMs:            t + transMs,
				BlockID:          b.ID,
				BlockIndex:       bi,
				Pattern:          b.Pattern,
				NextExerciseID:   first.ExerciseID,
				NextExerciseName: exerciseName(first, opts),
			})
			t += transMs
		}

		if b.RequireReady && (compiledBlocks == 0 || opts.StrictGating) {
			out.Steps = append(out.Steps, models.Step{
				Type:         models.StepAwaitReady,
				StartMs:      t,
				EndMs:        t,
				BlockID:      b.ID,
				BlockIndex:   bi,
				Pattern:      b.Pattern,
				Mode:         p.mode,
				ExerciseID:   first.ExerciseID,
				ExerciseName: exerciseName(first, opts),
			})
		}

		for i, it := range items {
			_, cue := opts.lookup(it.ref.ExerciseID)
			work := models.Step{
				Type:         models.StepWork,
				StartMs:      t,
				EndMs:        t + it.workMs,
				BlockID:      b.ID,
				BlockIndex:   bi,
				Pattern:      b.Pattern,
				Mode:         p.mode,
				ExerciseID:   it.ref.ExerciseID,
				ExerciseName: exerciseName(it.ref, opts),
				Set:          it.set,
				Sets:         it.sets,
				Round:        it.round,
				Rounds:       it.rounds,
				Cue:          cue,
			}
			if p.mode == models.ModeReps {
				work.TargetReps = it.reps
			}
			out.Steps = append(out.Steps, work)
			t += it.workMs

			if i == len(items)-1 {
				break // no trailing rest
			}
			next := items[i+1].ref
			out.Steps = append(out.Steps, models.Step{
				Type:             models.StepRest,
				StartMs:          t,
				EndMs:            t + it.restAfterMs,
				BlockID:          b.ID,
				BlockIndex:       bi,
				Pattern:          b.Pattern,
				Mode:             p.mode,
				NextExerciseID:   next.ExerciseID,
				NextExerciseName: exerciseName(next, opts),
				Set:              it.set,
				Sets:             it.sets,
				Round:            it.round,
				Rounds:           it.rounds,
			})
			t += it.restAfterMs
		}
		compiledBlocks++
	}

	for i := range out.Steps {
		out.Steps[i].Index = i
	}
	out.TotalMs = t
	return out, nil
}

func resolveParams(bi int, b models.Block) (blockParams, error) {
	fail := func(param, reason string) error {
		return &CompilationError{BlockIndex: bi, BlockID: b.ID, Param: param, Reason: reason}
	}

	if !b.Pattern.Valid() {
		return blockParams{}, fail("pattern", fmt.Sprintf("unknown pattern %q", b.Pattern))
	}
	mode := b.Mode
	if mode == "" {
		mode = models.ModeTime
	}
	if !mode.Valid() {
		return blockParams{}, fail("mode", fmt.Sprintf("unknown mode %q", b.Mode))
	}

	p := blockParams{
		mode:         mode,
		workSec:      intOr(b.WorkSec, DefaultWorkSec),
		restSec:      intOr(b.RestSec, DefaultRestSec),
		roundRestSec: intOr(b.RoundRestSec, DefaultRoundRestSec),
		sets:         intOr(b.Sets, DefaultSets),
		reps:         intOr(b.TargetRepsMax, intOr(b.TargetRepsMin, DefaultTargetReps)),
	}
	switch {
	case p.workSec < 0:
		return p, fail("work_sec", fmt.Sprintf("must not be negative, got %d", p.workSec))
	case p.restSec < 0:
		return p, fail("rest_sec", fmt.Sprintf("must not be negative, got %d", p.restSec))
	case p.roundRestSec < 0:
		return p, fail("round_rest_sec", fmt.Sprintf("must not be negative, got %d", p.roundRestSec))
	case p.sets <= 0:
		return p, fail("sets", fmt.Sprintf("must be positive, got %d", p.sets))
	case p.reps < 0:
		return p, fail("target_reps", fmt.Sprintf("must not be negative, got %d", p.reps))
	}
	if b.TargetRepsMin != nil && b.TargetRepsMax != nil && *b.TargetRepsMin > *b.TargetRepsMax {
		return p, fail("target_reps", fmt.Sprintf("min %d exceeds max %d", *b.TargetRepsMin, *b.TargetRepsMax))
	}
	return p, nil
}

// expand produces the ordered work items for a block's pattern.
func expand(bi int, b models.Block, p blockParams, opts Options) ([]workItem, error) {
	n := len(b.Exercises)
	if n == 0 {
		return nil, nil
	}
	restMs := int64(p.restSec) * 1000
	// A round rest of zero, given or defaulted, means the normal rest.
	roundRestMs := restMs
	if p.roundRestSec > 0 {
		roundRestMs = int64(p.roundRestSec) * 1000
	}
	workMs := func(reps int) int64 {
		if p.mode == models.ModeReps {
			return int64(reps) * opts.repPaceMs()
		}
		return int64(p.workSec) * 1000
	}

	var items []workItem
	switch b.Pattern {
	case models.PatternSuperset, models.PatternCircuit:
		// Every exercise once per round; the round's last exercise gets the round rest.
		for r := 1; r <= p.sets; r++ {
			for i, ref := range b.Exercises {
				rest := restMs
				if i == n-1 {
					rest = roundRestMs
				}
				items = append(items, workItem{
					ref: ref, workMs: workMs(p.reps), restAfterMs: rest, reps: p.reps,
					set: r, sets: p.sets, round: r, rounds: p.sets,
				})
			}
		}
	case models.PatternStraightSets:
		for _, ref := range b.Exercises {
			for s := 1; s <= p.sets; s++ {
				items = append(items, workItem{
					ref: ref, workMs: workMs(p.reps), restAfterMs: restMs, reps: p.reps,
					set: s, sets: p.sets,
				})
			}
		}
	case models.PatternCustom:
		for i, ref := range b.Exercises {
			param := func(name string) string { return fmt.Sprintf("exercises[%d].%s", i, name) }
			work := intOr(ref.WorkSec, p.workSec)
			rest := intOr(ref.RestSec, p.restSec)
			reps := intOr(ref.Reps, p.reps)
			switch {
			case work < 0:
				return nil, &CompilationError{BlockIndex: bi, BlockID: b.ID, Param: param("work_sec"), Reason: fmt.Sprintf("must not be negative, got %d", work)}
			case rest < 0:
				return nil, &CompilationError{BlockIndex: bi, BlockID: b.ID, Param: param("rest_sec"), Reason: fmt.Sprintf("must not be negative, got %d", rest)}
			case reps < 0:
				return nil, &CompilationError{BlockIndex: bi, BlockID: b.ID, Param: param("reps"), Reason: fmt.Sprintf("must not be negative, got %d", reps)}
			}
			wm := int64(work) * 1000
			if p.mode == models.ModeReps {
				wm = int64(reps) * opts.repPaceMs()
			}
			items = append(items, workItem{
				ref: ref, workMs: wm, restAfterMs: int64(rest) * 1000, reps: reps,
				set: 1, sets: 1,
			})
		}
	}
	return items, nil
}

func exerciseName(ref models.ExerciseRef, opts Options) string {
	if ref.Name != "" {
		return ref.Name
	}
	name, _ := opts.lookup(ref.ExerciseID)
	return name
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

// CheckOrdering verifies that steps start in non-decreasing order and that
// consecutive non-zero-duration steps never overlap.
func CheckOrdering(steps []models.Step) error {
	var prevEnd int64
	havePrev := false
	for i, s := range steps {
		if i > 0 && s.StartMs < steps[i-1].StartMs {
			return fmt.Errorf("step %d starts at %d before step %d at %d", i, s.StartMs, i-1, steps[i-1].StartMs)
		}
		if s.ZeroDuration() {
			continue
		}
		if havePrev && s.StartMs < prevEnd {
			return fmt.Errorf("step %d starts at %d before previous step ends at %d", i, s.StartMs, prevEnd)
		}
		prevEnd = s.EndMs
		havePrev = true
	}
	return nil
}
