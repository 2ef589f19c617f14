package tail

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/jkroepke/logscrape-exporter/internal/config"
	"github.com/jkroepke/logscrape-exporter/internal/selfmetrics"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// defaultConnectTimeout applies when an ssh target declares none.
const defaultConnectTimeout = 10 * time.Second

// SSHWorker tails a file on a remote host over SSH, running the same
// `tail -F -n0` an operator would type by hand. Unlike LocalWorker, a
// connect failure that isn't a timeout terminates the worker for good, and
// any failure paramiko itself wouldn't expect is process-fatal: it surfaces
// infra-visible misconfiguration immediately rather than retrying quietly.
type SSHWorker struct {
	host        string
	cfg         config.SSHEnvironment
	environment string
	emitter     *Emitter
	metrics     *selfmetrics.Metrics
	logger      *slog.Logger
	onFatal     func(error)

	state connState
	stop  stopFlag
}

// NewSSHWorker builds a worker that tails cfg.File on host. onFatal is
// invoked at most once, for an error outside the expected taxonomy
// (connect timeout, clean refusal, read timeout); the caller should treat
// it as cause to shut the whole process down.
func NewSSHWorker(
	host, environment string, cfg config.SSHEnvironment, emitter *Emitter,
	metrics *selfmetrics.Metrics, logger *slog.Logger, onFatal func(error),
) *SSHWorker {
	return &SSHWorker{
		host:        host,
		cfg:         cfg,
		environment: environment,
		emitter:     emitter,
		metrics:     metrics,
		logger:      logger.With("target", fmt.Sprintf("ssh://%s/%s", host, cfg.File)),
		onFatal:     onFatal,
	}
}

// ID returns the target identity used to diff reload plans.
func (w *SSHWorker) ID() string {
	return fmt.Sprintf("ssh://%s/%s", w.host, w.cfg.File)
}

// Connected reports whether the SSH session is currently believed alive.
func (w *SSHWorker) Connected() bool {
	return w.state.get()
}

// Stop requests the worker to exit at its next cooperative check point.
func (w *SSHWorker) Stop() {
	w.stop.stop()
}

// Run connects and tails until a hard failure, Stop, or ctx cancellation.
// Connect timeouts retry immediately; a clean connection refusal or auth
// failure ends the worker without retrying; anything else is reported via
// onFatal.
func (w *SSHWorker) Run(ctx context.Context) {
	for !w.stop.isStopped() && ctx.Err() == nil {
		client, err := w.connect(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
				w.logger.Warn("connect attempt timed out, retrying")

				continue
			}

			w.logger.Warn("connect attempt failed, not trying again", "error", err)
			w.state.set(false)

			return
		}

		w.state.set(true)

		err = w.tailOnce(ctx, client)
		_ = client.Close()
		w.state.set(false)

		if err == nil || errors.Is(err, errReadTimeout) {
			continue
		}

		if ctx.Err() != nil {
			return
		}

		w.logger.Warn("ssh failure", "error", err)
		w.onFatal(fmt.Errorf("ssh %s: %w", w.host, err))

		return
	}
}

func (w *SSHWorker) connect(ctx context.Context) (*ssh.Client, error) {
	timeout := w.cfg.ConnectTimeout.Duration()
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}

	hostKeyCallback, err := warningHostKeyCallback(w.logger)
	if err != nil {
		return nil, fmt.Errorf("loading known_hosts: %w", err)
	}

	clientConfig := &ssh.ClientConfig{
		User:            w.cfg.User,
		Auth:            w.authMethods(),
		HostKeyCallback: hostKeyCallback,
		Timeout:         timeout,
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var dialer net.Dialer

	conn, err := dialer.DialContext(dialCtx, "tcp", net.JoinHostPort(w.host, "22"))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", w.host, err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, w.host, clientConfig)
	if err != nil {
		_ = conn.Close()

		return nil, fmt.Errorf("handshake with %s: %w", w.host, err)
	}

	return ssh.NewClient(sshConn, chans, reqs), nil
}

func (w *SSHWorker) authMethods() []ssh.AuthMethod {
	var methods []ssh.AuthMethod

	if w.cfg.PrivateKey != "" {
		if key, err := os.ReadFile(w.cfg.PrivateKey); err == nil {
			if signer, err := ssh.ParsePrivateKey(key); err == nil {
				methods = append(methods, ssh.PublicKeys(signer))
			}
		}
	}

	if w.cfg.Password != "" {
		methods = append(methods, ssh.Password(w.cfg.Password))
	}

	return methods
}

func (w *SSHWorker) tailOnce(ctx context.Context, client *ssh.Client) error {
	session, err := client.NewSession()
	if err != nil {
		return fmt.Errorf("new session: %w", err)
	}

	defer func() { _ = session.Close() }() //nolint:errcheck

	stdout, err := session.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}

	if err := session.Start(fmt.Sprintf("tail -n0 -F %q 2>/dev/null", w.cfg.File)); err != nil {
		return fmt.Errorf("start tail: %w", err)
	}

	scanner := bufio.NewScanner(stdout)

	return readLines(ctx, scanner, func(line string, n int) {
		w.emitter.ProcessLine(line, n)
	})
}

// warningHostKeyCallback mirrors paramiko's WarningPolicy: a key already
// recorded in known_hosts must still match, but a host missing entirely is
// accepted with a logged warning instead of rejected.
func warningHostKeyCallback(logger *slog.Logger) (ssh.HostKeyCallback, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolving home directory: %w", err)
	}

	path := filepath.Join(home, ".ssh", "known_hosts")

	strict, err := knownhosts.New(path)
	if err != nil {
		if os.IsNotExist(err) {
			return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
				logger.Warn("host key not in known_hosts, accepting", "host", hostname)

				return nil
			}, nil
		}

		return nil, err //nolint:wrapcheck
	}

	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		err := strict(hostname, remote, key)
		if err == nil {
			return nil
		}

		var keyErr *knownhosts.KeyError
		if errors.As(err, &keyErr) && len(keyErr.Want) == 0 {
			logger.Warn("host key not in known_hosts, accepting", "host", hostname)

			return nil
		}

		return err //nolint:wrapcheck
	}, nil
}
