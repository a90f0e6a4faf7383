package download

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"downloader/internal/domain"
)

// outputTemplate names downloaded files after the item's title and source id
// so completed files can be traced back to a record.
const outputTemplate = "%(title)s (%(id)s).%(ext)s"

// Starter abstracts process spawning so the orchestrator can be exercised
// without a real tool on the path.
type Starter interface {
	Start(ctx context.Context, url, formatExpr string) (*Handle, error)
}

// Handle is the supervisor's view of one running acquisition. Events carries
// every recognized progress event followed by exactly one terminal event,
// after which the channel is closed. Cancel requests termination of the
// underlying process.
type Handle struct {
	Events <-chan domain.ProgressEvent
	Cancel context.CancelFunc
}

// Supervisor spawns and owns one external acquisition process per job.
type Supervisor struct {
	Binary      string
	OutputDir   string
	MergeFormat string
	LiveWait    time.Duration
	KillGrace   time.Duration
	Logger      zerolog.Logger
}

// Start launches the acquisition tool for url with the given stream-selector
// expression. The returned handle's event channel is closed after the single
// terminal event. Cancelling sends SIGTERM and escalates to SIGKILL once the
// grace period elapses.
func (s *Supervisor) Start(ctx context.Context, url, formatExpr string) (*Handle, error) {
	ctx, cancel := context.WithCancel(ctx)

	cmd := exec.CommandContext(ctx, s.Binary,
		"-f", formatExpr,
		"--merge-output-format", s.MergeFormat,
		"--wait-for-video", strconv.Itoa(int(s.LiveWait.Seconds())),
		"--newline",
		"-o", filepath.Join(s.OutputDir, outputTemplate),
		url,
	)
	// The tool forks helpers that inherit our pipes; terminating the whole
	// group is the only way readers see EOF. Escalate to SIGKILL if the
	// group ignores SIGTERM past the grace period.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		pid := cmd.Process.Pid
		err := syscall.Kill(-pid, syscall.SIGTERM)
		time.AfterFunc(s.KillGrace, func() {
			_ = syscall.Kill(-pid, syscall.SIGKILL)
		})
		return err
	}
	cmd.WaitDelay = 2 * s.KillGrace

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: stdout pipe: %v", domain.ErrSpawnFailed, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: stderr pipe: %v", domain.ErrSpawnFailed, err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("%w: %v", domain.ErrSpawnFailed, err)
	}

	s.Logger.Debug().Str("url", url).Str("format", formatExpr).Int("pid", cmd.Process.Pid).Msg("acquisition process started")

	events := make(chan domain.ProgressEvent, 16)
	go s.supervise(ctx, cancel, cmd, stdout, stderr, events, url)

	return &Handle{Events: events, Cancel: cancel}, nil
}

// supervise drains both output streams, decides the terminal outcome and
// closes the event channel. Exactly one terminal event is emitted.
func (s *Supervisor) supervise(ctx context.Context, cancel context.CancelFunc, cmd *exec.Cmd, stdout, stderr io.Reader, events chan<- domain.ProgressEvent, url string) {
	defer cancel()
	defer close(events)

	var (
		mu        sync.Mutex
		sawMarker bool
		destPath  string
		fatalText string
	)

	var g errgroup.Group
	g.Go(func() error {
		sc := bufio.NewScanner(stdout)
		for sc.Scan() {
			ev, ok := Parse(sc.Text())
			if !ok {
				continue
			}
			mu.Lock()
			sawMarker = true
			if ev.Path != "" {
				destPath = ev.Path
			}
			mu.Unlock()
			events <- ev
		}
		return sc.Err()
	})
	g.Go(func() error {
		sc := bufio.NewScanner(stderr)
		for sc.Scan() {
			mu.Lock()
			first := fatalText == ""
			if first {
				fatalText = sc.Text()
			}
			mu.Unlock()
			// Any error-channel output is fatal for the job.
			if first {
				cancel()
			}
		}
		return nil
	})
	readErr := g.Wait()
	waitErr := cmd.Wait()

	mu.Lock()
	defer mu.Unlock()
	switch {
	case fatalText != "":
		s.Logger.Warn().Str("url", url).Str("stderr", fatalText).Msg("acquisition failed")
		events <- ErrorEvent(fatalText)
	case ctx.Err() != nil:
		s.Logger.Info().Str("url", url).Msg("acquisition cancelled")
		events <- ErrorEvent("download cancelled")
	case waitErr != nil:
		s.Logger.Warn().Str("url", url).Err(waitErr).Msg("acquisition process exited abnormally")
		events <- ErrorEvent(waitErr.Error())
	case readErr != nil:
		events <- ErrorEvent(readErr.Error())
	case !sawMarker:
		events <- ErrorEvent("process exited without reporting progress")
	default:
		s.Logger.Info().Str("url", url).Str("path", destPath).Msg("acquisition completed")
		events <- CompletedEvent(destPath)
	}
}
