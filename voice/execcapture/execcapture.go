package execcapture

import (
	"bufio"
	"context"
	"os/exec"
	"strings"
	"sync"

	"github.com/jrsteele09/go-shared-list/internal/errors"
	"github.com/jrsteele09/go-shared-list/voice"
	"github.com/rs/zerolog/log"
)

var _ voice.Capability = (*Capability)(nil)

// Capability runs an external recogniser. The command is split on spaces and the
// locale tag is appended as the last argument. Each stdout line is a transcript.
type Capability struct {
	command  string
	lookPath func(string) (string, error)
}

func New(command string) *Capability {
	return &Capability{
		command:  strings.TrimSpace(command),
		lookPath: exec.LookPath,
	}
}

func (c *Capability) Available() bool {
	fields := strings.Fields(c.command)
	if len(fields) == 0 {
		return false
	}
	_, err := c.lookPath(fields[0])
	return err == nil
}

func (c *Capability) Start(ctx context.Context, locale string) (voice.Capture, error) {
	fields := strings.Fields(c.command)
	if len(fields) == 0 {
		return nil, errors.Wrapf(errors.ErrUnsupported, "[Capability Start] no speech command configured")
	}
	path, err := c.lookPath(fields[0])
	if err != nil {
		return nil, errors.Wrapf(errors.ErrUnsupported, "[Capability Start] %s: %v", fields[0], err)
	}

	ctx, cancel := context.WithCancel(ctx)
	args := append(fields[1:], locale)
	cmd := exec.CommandContext(ctx, path, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, errors.Wrapf(err, "[Capability Start] stdout")
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, errors.Wrapf(err, "[Capability Start] run %s", path)
	}

	p := &process{
		transcripts: make(chan string),
		done:        make(chan struct{}),
		cancel:      cancel,
	}
	go p.run(ctx, cmd, bufio.NewScanner(stdout))
	return p, nil
}

type process struct {
	transcripts chan string
	done        chan struct{}
	cancel      context.CancelFunc
	stopOnce    sync.Once
}

func (p *process) Transcripts() <-chan string { return p.transcripts }
func (p *process) Done() <-chan struct{}      { return p.done }

func (p *process) Stop() {
	p.stopOnce.Do(p.cancel)
}

func (p *process) run(ctx context.Context, cmd *exec.Cmd, lines *bufio.Scanner) {
	defer close(p.done)

	for lines.Scan() {
		line := strings.TrimSpace(lines.Text())
		if line == "" {
			continue
		}
		select {
		case p.transcripts <- line:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(p.transcripts)

	stopped := ctx.Err() != nil
	err := cmd.Wait()
	p.Stop()
	if err != nil && !stopped {
		log.Err(err).Str("command", cmd.Path).Msg("Speech command failed")
	}
}
