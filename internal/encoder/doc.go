// Package encoder is the boundary to the media encoder.
//
// A Backend executes an argument list against a Workspace, a flat namespace
// of named files the encoder reads inputs from and writes outputs to. Two
// backends exist:
//
//	Memory - files held in memory, execution delegated to a function
//	Local  - files in a directory, execution by the ffmpeg binary
//
// Runner sits on top of a Backend and guarantees at most one active job:
// starting a job terminates the previous one, which then reports
// ErrSuperseded.
package encoder
