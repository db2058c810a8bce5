// Package audio provides the speakers an adzan monitor can play through.
package audio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultCommand plays a clip with mpv. {src}, {volume} and {ipc} are
// substituted; {ipc} is a fresh unix socket path for every clip.
var DefaultCommand = []string{"mpv", "--no-video", "--really-quiet", "--volume={volume}", "--input-ipc-server={ipc}", "{src}"}

const ipcDialTimeout = 500 * time.Millisecond

// ExecPlayer plays clips by running an external command, one at a time.
// When the command takes an {ipc} socket, a volume change also reaches the
// running clip through mpv's JSON IPC; otherwise it applies from the next clip.
type ExecPlayer struct {
	command []string
	log     zerolog.Logger

	mu     sync.Mutex
	volume int
	cmd    *exec.Cmd
	ipc    string
	gen    uint64
	closed bool
}

// NewExecPlayer returns a player for command, or DefaultCommand when empty.
func NewExecPlayer(command []string) *ExecPlayer {
	if len(command) == 0 {
		command = DefaultCommand
	}
	return &ExecPlayer{
		command: command,
		volume:  100,
		log:     log.With().Str("component", "audio").Logger(),
	}
}

func (p *ExecPlayer) wantsIPC() bool {
	for _, a := range p.command {
		if strings.Contains(a, "{ipc}") {
			return true
		}
	}
	return false
}

func (p *ExecPlayer) args(src string, volume int, ipc string) []string {
	r := strings.NewReplacer("{src}", src, "{volume}", strconv.Itoa(volume), "{ipc}", ipc)
	out := make([]string, len(p.command))
	for i, a := range p.command {
		out[i] = r.Replace(a)
	}
	return out
}

// Play stops the current clip and starts src.
func (p *ExecPlayer) Play(ctx context.Context, src string, onEnd func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return errors.New("audio: player closed")
	}
	p.killLocked()

	var ipc string
	if p.wantsIPC() {
		ipc = filepath.Join(os.TempDir(), "masjid-display-"+uuid.NewString()+".sock")
	}
	args := p.args(src, p.volume, ipc)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", args[0], err)
	}
	p.gen++
	gen := p.gen
	p.cmd, p.ipc = cmd, ipc

	go func() {
		err := cmd.Wait()
		if ipc != "" {
			_ = os.Remove(ipc)
		}

		p.mu.Lock()
		current := p.gen == gen
		if current {
			p.cmd, p.ipc = nil, ""
		}
		p.mu.Unlock()

		if !current {
			return
		}
		if err != nil {
			p.log.Warn().Err(err).Str("src", src).Msg("audio: player exited with error")
		}
		if onEnd != nil {
			onEnd()
		}
	}()
	return nil
}

// killLocked ends the running clip without reporting its end.
func (p *ExecPlayer) killLocked() {
	p.gen++
	if p.cmd != nil && p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	p.cmd, p.ipc = nil, ""
}

// Stop ends the current clip. It is a no-op when nothing is playing.
func (p *ExecPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.killLocked()
	return nil
}

// SetVolume sets the volume of the next clip and, when the running clip
// has an IPC socket, of that clip too. A socket that does not answer is
// logged, not returned.
func (p *ExecPlayer) SetVolume(v int) error {
	p.mu.Lock()
	p.volume = v
	ipc := p.ipc
	p.mu.Unlock()

	if ipc == "" {
		return nil
	}
	if err := sendIPC(ipc, "set_property", "volume", v); err != nil {
		p.log.Debug().Err(err).Str("socket", ipc).Msg("audio: live volume change failed")
	}
	return nil
}

// sendIPC writes one mpv JSON IPC command to the socket at path.
func sendIPC(path string, args ...any) error {
	payload, err := json.Marshal(map[string]any{"command": args})
	if err != nil {
		return err
	}
	conn, err := net.DialTimeout("unix", path, ipcDialTimeout)
	if err != nil {
		return err
	}
	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(ipcDialTimeout))
	_, err = conn.Write(append(payload, '\n'))
	return err
}

// Close stops playback and rejects further clips.
func (p *ExecPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.killLocked()
	p.closed = true
	return nil
}
