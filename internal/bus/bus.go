package bus

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

const SockName = "control.sock"
const PidName = "hyprminutes.pid"
const ProtoVer = "0.2"

// RuntimeDirEnv overrides the directory holding the socket and pid file.
const RuntimeDirEnv = "HYPRMINUTES_RUNTIME_DIR"

// Commands understood by the daemon, one byte followed by a newline.
const (
	CmdCut     byte = 'c'
	CmdStatus  byte = 's'
	CmdFlush   byte = 'f'
	CmdVersion byte = 'v'
	CmdQuit    byte = 'q'
)

const dialTimeout = 2 * time.Second

// ErrNoDaemon is returned when nothing is listening on the control socket.
var ErrNoDaemon = errors.New("daemon not running")

// ~/.cache/hyprminutes
func runtimeDir() (string, error) {
	if dir := os.Getenv(RuntimeDirEnv); dir != "" {
		return dir, nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "hyprminutes"), nil
}

func getSockPath() (string, error) {
	dir, err := runtimeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, SockName), nil
}

func getPidPath() (string, error) {
	dir, err := runtimeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, PidName), nil
}

// ~/.cache/hyprminutes/control.sock
func SockPath() (string, error) {
	return getSockPath()
}

// ~/.cache/hyprminutes/hyprminutes.pid
func PidPath() (string, error) {
	return getPidPath()
}

type socketManager struct {
	path string
}

func newSocketManager() (*socketManager, error) {
	sp, err := getSockPath()
	if err != nil {
		return nil, err
	}
	return &socketManager{path: sp}, nil
}

func (s *socketManager) listen() (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return nil, err
	}
	_ = os.Remove(s.path) // stale socket from last run
	return net.Listen("unix", s.path)
}

func (s *socketManager) dial() (net.Conn, error) {
	c, err := net.DialTimeout("unix", s.path, dialTimeout)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) || errors.Is(err, syscall.ECONNREFUSED) {
			return nil, fmt.Errorf("%w: %v", ErrNoDaemon, err)
		}
		return nil, err
	}
	return c, nil
}

func (s *socketManager) send(cmd byte) (string, error) {
	c, err := s.dial()
	if err != nil {
		return "", err
	}
	defer c.Close()

	if _, err := c.Write([]byte{cmd, '\n'}); err != nil {
		return "", err
	}
	return bufio.NewReader(c).ReadString('\n')
}

func Listen() (net.Listener, error) {
	sm, err := newSocketManager()
	if err != nil {
		return nil, err
	}
	return sm.listen()
}

func Dial() (net.Conn, error) {
	sm, err := newSocketManager()
	if err != nil {
		return nil, err
	}
	return sm.dial()
}

// SendCommand sends cmd and returns the single response line.
func SendCommand(cmd byte) (string, error) {
	sm, err := newSocketManager()
	if err != nil {
		return "", err
	}
	return sm.send(cmd)
}

type pidManager struct {
	path string
}

func newPidManager() (*pidManager, error) {
	pp, err := getPidPath()
	if err != nil {
		return nil, err
	}
	return &pidManager{path: pp}, nil
}

func (p *pidManager) create() error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(p.path, []byte(strconv.Itoa(os.Getpid())), 0o600)
}

func (p *pidManager) remove() error {
	return os.Remove(p.path)
}

// checkExisting fails when the pid file names a live process. Stale or
// unreadable pid files are removed.
func (p *pidManager) checkExisting() error {
	pidData, err := os.ReadFile(p.path)
	if os.IsNotExist(err) {
		return nil // no existing daemon
	}
	if err != nil {
		return err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(pidData)))
	if err != nil {
		os.Remove(p.path)
		return nil
	}
	if !p.isProcessAlive(pid) {
		os.Remove(p.path)
		return nil
	}
	return fmt.Errorf("daemon already running with PID %d", pid)
}

func (p *pidManager) isProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	err = proc.Signal(syscall.Signal(0))
	return err == nil || errors.Is(err, syscall.EPERM)
}

func CheckExistingDaemon() error {
	pm, err := newPidManager()
	if err != nil {
		return err
	}
	return pm.checkExisting()
}

func CreatePidFile() error {
	pm, err := newPidManager()
	if err != nil {
		return err
	}
	return pm.create()
}

func RemovePidFile() error {
	pm, err := newPidManager()
	if err != nil {
		return err
	}
	return pm.remove()
}

// FormatStatus renders a STATUS response line. Values are quoted when they
// contain spaces or are empty. Keys keep the order given.
func FormatStatus(kv ...string) string {
	var b strings.Builder
	b.WriteString("STATUS")
	for i := 0; i+1 < len(kv); i += 2 {
		v := kv[i+1]
		if v == "" || strings.ContainsAny(v, " \t\"=") {
			v = strconv.Quote(v)
		}
		fmt.Fprintf(&b, " %s=%s", kv[i], v)
	}
	b.WriteString("\n")
	return b.String()
}

// ParseStatus parses a STATUS response line into its key/value pairs.
func ParseStatus(line string) (map[string]string, error) {
	line = strings.TrimSpace(line)
	rest, ok := strings.CutPrefix(line, "STATUS")
	if !ok {
		return nil, fmt.Errorf("not a status response: %q", line)
	}

	out := make(map[string]string)
	for {
		rest = strings.TrimLeft(rest, " ")
		if rest == "" {
			return out, nil
		}
		key, after, found := strings.Cut(rest, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("malformed status field %q", rest)
		}

		var val string
		if strings.HasPrefix(after, `"`) {
			quoted, err := strconv.QuotedPrefix(after)
			if err != nil {
				return nil, fmt.Errorf("malformed value for %s: %w", key, err)
			}
			val, _ = strconv.Unquote(quoted)
			rest = after[len(quoted):]
		} else {
			val, rest, _ = strings.Cut(after, " ")
		}
		out[key] = val
	}
}

// ResponseError turns an "ERR ..." response into an error. Other responses
// give nil.
func ResponseError(resp string) error {
	resp = strings.TrimSpace(resp)
	if msg, ok := strings.CutPrefix(resp, "ERR "); ok {
		return errors.New(msg)
	}
	if resp == "ERR" {
		return errors.New("daemon returned an error")
	}
	return nil
}
