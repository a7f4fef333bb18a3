package coaching

import (
	"regexp"
	"strconv"
	"strings"

	"workout_coach/internal/models"
)

var placeholderRe = regexp.MustCompile(`\{[a-z_]+\}`)

// Vars builds the placeholder values available to a template for ev.
// Keys in extra override the derived values.
func Vars(ev models.CoachingEvent, extra map[string]string) map[string]string {
	p := ev.Payload
	vars := map[string]string{}
	put := func(k, v string) {
		if v != "" {
			vars[k] = v
		}
	}
	putInt := func(k string, v int) {
		if v > 0 {
			vars[k] = strconv.Itoa(v)
		}
	}

	put("exercise", p.ExerciseName)
	put("next_exercise", p.NextExerciseName)
	put("cue", p.Cue)
	putInt("set", p.Set)
	putInt("sets", p.Sets)
	putInt("round", p.Round)
	putInt("rounds", p.Rounds)
	putInt("reps", p.TargetReps)
	if p.DurationMs > 0 {
		vars["seconds"] = strconv.FormatInt((p.DurationMs+500)/1000, 10)
	}
	if p.ElapsedMs > 0 {
		vars["minutes"] = strconv.FormatInt((p.ElapsedMs+30000)/60000, 10)
	}
	for k, v := range extra {
		put(k, v)
	}
	return vars
}

// Render substitutes {name} placeholders in text. Placeholders without a
// value are dropped and the surrounding whitespace collapsed.
func Render(text string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	out := strings.NewReplacer(pairs...).Replace(text)
	out = placeholderRe.ReplaceAllString(out, "")
	out = strings.Join(strings.Fields(out), " ")
	return strings.NewReplacer(", .", ".", ", !", "!", ", ?", "?", " ,", ",", " .", ".", " !", "!", " ?", "?").Replace(out)
}
