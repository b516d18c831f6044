package client

import "fmt"

// Status tags a Result.
type Status int

const (
	StatusOk Status = iota
	StatusFailed
)

func (s Status) String() string {
	if s == StatusOk {
		return "ok"
	}
	return "failed"
}

// Result is the acknowledgement of one queued command:
// Ok carries the server's economy record, Failed carries the reason.
type Result struct {
	Status  Status
	Command string
	Economy Economy
	Reason  string
	Err     error
}

func Ok(command string, e Economy) Result {
	return Result{Status: StatusOk, Command: command, Economy: e}
}

func Failed(command string, err error) Result {
	return Result{Status: StatusFailed, Command: command, Reason: err.Error(), Err: err}
}

func (r Result) IsOk() bool { return r.Status == StatusOk }

func (r Result) String() string {
	if r.IsOk() {
		return fmt.Sprintf("%s: ok", r.Command)
	}
	return fmt.Sprintf("%s: failed (%s)", r.Command, r.Reason)
}
