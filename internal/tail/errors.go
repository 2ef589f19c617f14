package tail

import "errors"

// errReadTimeout marks a mid-stream read timeout: no line arrived within
// readTimeout. Local workers treat it the same as a local I/O error
// (backoff and retry); SSH workers treat it as a reconnect signal.
var errReadTimeout = errors.New("tail: read timeout")

// errHardFailure names the class of SSH condition that must not be retried:
// auth failure, host key mismatch, or an explicit connection refusal.
// SSHWorker.Run ends the worker on such connect errors directly; no code
// path returns or wraps errHardFailure.
var errHardFailure = errors.New("tail: hard failure")
