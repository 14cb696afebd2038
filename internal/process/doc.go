// Package process runs a single subprocess to completion.
//
// Process wraps os/exec:
//   - Graceful shutdown with SIGINT when the context is cancelled
//   - Force kill with SIGKILL if graceful shutdown times out
//   - Output streaming to an OutputHandler, split on '\n' and '\r'
//   - Pluggable log parsing to re-log output at the right level
//
// Example:
//
//	p := process.NewProcess("probe", "ffmpeg", []string{"-hide_banner", "-i", "in.mp4"}, logger)
//	p.SetDir(workDir)
//	p.SetOutputHandler(process.OutputHandlerFunc(func(source, line string) {
//	    fmt.Println(source, line)
//	}))
//	err := p.Run(ctx)
package process
