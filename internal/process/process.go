package process

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync"
	"syscall"
	"time"
)

// OutputHandler receives output lines from the subprocess.
type OutputHandler interface {
	HandleLine(source, line string)
}

// OutputHandlerFunc adapts a function to OutputHandler.
type OutputHandlerFunc func(source, line string)

// HandleLine implements OutputHandler.
func (f OutputHandlerFunc) HandleLine(source, line string) { f(source, line) }

// LogParser parses a log line and returns the log level and message.
// Used to extract structured log info from process output.
type LogParser func(line string) (level, msg string)

// State is the lifecycle position of a Process. A Process runs once, so
// StateIdle is both the initial state and the state after a cancelled run.
type State string

const (
	StateIdle     State = "idle"
	StateStarting State = "starting"
	StateRunning  State = "running"
	StateStopping State = "stopping"
	StateError    State = "error" // start failed or non-zero exit
)

// ExitError reports a non-zero exit of the subprocess.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("process exited with code %d", e.Code)
}

// Process manages the lifecycle of one subprocess run.
type Process struct {
	id              string
	name            string
	args            []string
	dir             string
	cmd             *exec.Cmd
	logger          *slog.Logger
	processLogger   *slog.Logger // logger for process output (nil = use logger)
	logParser       LogParser    // parses process output for log level (nil = no parsing)
	outputHandler   OutputHandler
	gracefulTimeout time.Duration // timeout for graceful shutdown before force kill
	killTimeout     time.Duration // timeout after Kill() before giving up

	mu    sync.RWMutex
	state State
}

// NewProcess creates a process that runs name with args.
func NewProcess(id, name string, args []string, logger *slog.Logger) *Process {
	return &Process{
		id:              id,
		name:            name,
		args:            args,
		logger:          logger,
		gracefulTimeout: 5 * time.Second,
		killTimeout:     5 * time.Second,
		state:           StateIdle,
	}
}

// SetDir sets the working directory of the subprocess.
func (p *Process) SetDir(dir string) {
	p.dir = dir
}

// SetOutputHandler sets the receiver of every stdout/stderr line.
func (p *Process) SetOutputHandler(h OutputHandler) {
	p.outputHandler = h
}

// SetLogParser sets a custom logger and log parser for process output.
// The parser extracts log level from process-specific output formats.
func (p *Process) SetLogParser(logger *slog.Logger, parser LogParser) {
	p.processLogger = logger
	p.logParser = parser
}

// State returns the current lifecycle state.
func (p *Process) State() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state
}

func (p *Process) setState(s State) {
	p.mu.Lock()
	p.state = s
	p.mu.Unlock()
}

// Run starts the subprocess and blocks until it exits or ctx is cancelled.
// A cancelled context stops the subprocess with SIGINT, escalating to SIGKILL
// after the graceful timeout, and returns ctx.Err(). A non-zero exit returns
// an *ExitError.
func (p *Process) Run(ctx context.Context) error {
	p.setState(StateStarting)
	processDone, err := p.start()
	if err != nil {
		p.setState(StateError)
		return err
	}
	p.setState(StateRunning)

	select {
	case <-ctx.Done():
		p.setState(StateStopping)
		p.logger.Info("Context cancelled, stopping process", "id", p.id)
		p.sendStopSignal()
		p.waitForExit(processDone, p.gracefulTimeout)
		p.setState(StateIdle)
		return ctx.Err()
	case processErr := <-processDone:
		code := exitCodeFromError(processErr)
		p.logger.Debug("Process exited", "id", p.id, "exit_code", code)
		if code != 0 {
			p.setState(StateError)
			return &ExitError{Code: code}
		}
		p.setState(StateIdle)
		return nil
	}
}

// start launches the subprocess. The returned channel receives the result of
// Wait once both output streams are drained.
func (p *Process) start() (<-chan error, error) {
	p.cmd = exec.Command(p.name, p.args...)
	p.cmd.Dir = p.dir
	p.cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := p.cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := p.cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := p.cmd.Start(); err != nil {
		p.logger.Error("Failed to start process", "id", p.id, "error", err, "name", p.name)
		return nil, err
	}
	p.logger.Debug("Process started", "id", p.id, "pid", p.cmd.Process.Pid, "args", p.args)

	var output sync.WaitGroup
	output.Add(2)
	go func() {
		defer output.Done()
		p.streamOutput(stdout, "stdout")
	}()
	go func() {
		defer output.Done()
		p.streamOutput(stderr, "stderr")
	}()

	processDone := make(chan error, 1)
	go func() {
		output.Wait()
		processDone <- p.cmd.Wait()
	}()

	return processDone, nil
}

// exitCodeFromError extracts exit code from process error.
// Returns 0 for nil error, the exit code for ExitError, or 1 for other errors.
func exitCodeFromError(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return 1
}

// sendStopSignal sends SIGINT to the subprocess group without waiting.
func (p *Process) sendStopSignal() {
	if err := p.signalGroup(syscall.SIGINT); err != nil {
		p.logger.Warn("Failed to send SIGINT", "id", p.id, "error", err)
	}
}

// signalGroup signals every process in the subprocess group, so children
// holding the output pipes exit too.
func (p *Process) signalGroup(sig syscall.Signal) error {
	if p.cmd == nil || p.cmd.Process == nil {
		return nil
	}
	err := syscall.Kill(-p.cmd.Process.Pid, sig)
	if errors.Is(err, syscall.ESRCH) {
		return nil
	}
	return err
}

// waitForExit waits for the process to exit with a timeout, force-killing if needed.
func (p *Process) waitForExit(processDone <-chan error, timeout time.Duration) int {
	select {
	case err := <-processDone:
		return exitCodeFromError(err)
	case <-time.After(timeout):
		p.logger.Warn("Graceful shutdown timeout, forcing kill", "id", p.id, "timeout", timeout)
		if err := p.signalGroup(syscall.SIGKILL); err != nil {
			p.logger.Error("Failed to kill process", "id", p.id, "error", err)
		}
		select {
		case <-processDone:
		case <-time.After(p.killTimeout):
			p.logger.Error("Process did not exit after kill signal", "id", p.id)
		}
		return 137
	}
}

// streamOutput forwards every line to the output handler and re-logs it at
// the level chosen by the log parser. Encoder status lines end in '\r', so
// both '\r' and '\n' terminate a line.
func (p *Process) streamOutput(reader io.Reader, source string) {
	scanner := bufio.NewScanner(reader)
	scanner.Split(scanLinesOrReturns)

	logger := p.processLogger
	if logger == nil {
		logger = p.logger
	}

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		if p.outputHandler != nil {
			p.outputHandler.HandleLine(source, line)
		}

		level, msg := "info", line
		if p.logParser != nil {
			level, msg = p.logParser(line)
		}

		switch level {
		case "fatal", "error":
			logger.Error(msg)
		case "warning":
			logger.Warn(msg)
		case "debug", "trace", "verbose":
			logger.Debug(msg)
		default:
			logger.Info(msg)
		}
	}

	if err := scanner.Err(); err != nil {
		p.logger.Warn("Error reading output", "id", p.id, "source", source, "error", err)
	}
}

func scanLinesOrReturns(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
