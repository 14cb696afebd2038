// Package planner enumerates candidate encode targets for a probed source.
//
// Two independent ladders are produced from the same source:
//   - size presets: the best resolution that fits a fixed byte budget
//     (8 MB, 16 MB, 50 MB), with a bitrate derived from the budget
//   - quality presets: one constant-quality target per resolution rung
//
// Options that cannot be met are still returned with Implausible set so the
// caller can show why a choice is unusable. The size model is a heuristic;
// only its monotonicity and the selection policy are relied upon.
package planner
