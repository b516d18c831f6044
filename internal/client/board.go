package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/questify/internal/economy"
)

// ErrUnknownTask is returned when a command names a task the board has not loaded.
var ErrUnknownTask = errors.New("unknown task")

type commandKind int

const (
	commandToggle commandKind = iota
	commandDelta
	commandPomodoro
)

type command struct {
	kind    commandKind
	label   string
	taskID  string
	delta   economy.Delta // predicted economy change
	minutes int
	reason  string
	key     string
}

// Board is a local, optimistically updated copy of one user's tasks and
// economy. The visible state is the last acknowledged server state with
// every unacknowledged command replayed on top, so dropping a rejected
// command rolls its effect back exactly.
type Board struct {
	client *Client
	userID uint

	flushMu sync.Mutex

	mu       sync.Mutex
	tasks    []Task
	economy  Economy
	inflight []command
	pending  []command
}

// NewBoard creates an empty board; call Refresh to load it.
func NewBoard(c *Client, userID uint) *Board {
	return &Board{client: c, userID: userID}
}

// Refresh replaces the acknowledged state with the server's.
func (b *Board) Refresh(ctx context.Context) error {
	tasks, err := b.client.ListTasks(ctx, b.userID)
	if err != nil {
		return err
	}
	econ, err := b.client.GetEconomy(ctx, b.userID)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.tasks = tasks
	b.economy = *econ
	return nil
}

// Tasks returns the optimistic view of the tasks.
func (b *Board) Tasks() []Task {
	b.mu.Lock()
	defer b.mu.Unlock()
	tasks, _ := b.viewLocked()
	return tasks
}

// Economy returns the optimistic view of the economy record.
func (b *Board) Economy() Economy {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, econ := b.viewLocked()
	return econ
}

// Pending reports the number of unacknowledged commands.
func (b *Board) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.inflight) + len(b.pending)
}

// Toggle flips a task locally and queues the server toggle.
func (b *Board) Toggle(taskID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	tasks, _ := b.viewLocked()
	i := indexOf(tasks, taskID)
	if i < 0 {
		return ErrUnknownTask
	}
	task := tasks[i]
	delta := economy.CompletionDelta(task)
	if task.Done {
		delta = economy.RevocationDelta(task)
	}

	b.pending = append(b.pending, command{kind: commandToggle, label: "toggle " + taskID, taskID: taskID, delta: delta})
	return nil
}

// Pomodoro records a focus session locally and queues it.
func (b *Board) Pomodoro(taskID string, focusMinutes int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	tasks, _ := b.viewLocked()
	if indexOf(tasks, taskID) < 0 {
		return ErrUnknownTask
	}
	if focusMinutes <= 0 {
		focusMinutes = 25
	}
	b.pending = append(b.pending, command{
		kind:    commandPomodoro,
		label:   "pomodoro " + taskID,
		taskID:  taskID,
		delta:   economy.PomodoroDelta(focusMinutes),
		minutes: focusMinutes,
	})
	return nil
}

// ApplyDelta queues a manual economy adjustment. Each command carries its
// own idempotency key so a retried Flush cannot double-apply it.
func (b *Board) ApplyDelta(delta economy.Delta, reason string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pending = append(b.pending, command{
		kind:   commandDelta,
		label:  fmt.Sprintf("delta %s", reason),
		delta:  delta,
		reason: reason,
		key:    uuid.NewString(),
	})
}

// Flush sends queued commands in order and returns one Result per command.
// An acknowledged command updates the acknowledged state; a Failed one is
// dropped, which reverts its local effect. The rest still run.
func (b *Board) Flush(ctx context.Context) []Result {
	b.flushMu.Lock()
	defer b.flushMu.Unlock()

	b.mu.Lock()
	b.inflight = b.pending
	b.pending = nil
	queue := append([]command(nil), b.inflight...)
	b.mu.Unlock()

	results := make([]Result, 0, len(queue))
	for _, cmd := range queue {
		econ, task, err := b.send(ctx, cmd)

		b.mu.Lock()
		b.inflight = b.inflight[1:]
		if err != nil {
			results = append(results, Failed(cmd.label, err))
			b.mu.Unlock()
			continue
		}
		if task != nil {
			if i := indexOf(b.tasks, task.ID); i >= 0 {
				b.tasks[i] = *task
			}
		}
		b.economy = econ
		results = append(results, Ok(cmd.label, econ))
		b.mu.Unlock()
	}
	return results
}

func (b *Board) send(ctx context.Context, cmd command) (Economy, *Task, error) {
	switch cmd.kind {
	case commandToggle:
		out, err := b.client.ToggleTask(ctx, b.userID, cmd.taskID)
		if err != nil {
			return Economy{}, nil, err
		}
		return out.Economy, &out.Task, nil
	case commandPomodoro:
		out, err := b.client.CompletePomodoro(ctx, b.userID, cmd.taskID, cmd.minutes)
		if err != nil {
			return Economy{}, nil, err
		}
		return out.Economy, &out.Task, nil
	default:
		out, err := b.client.ApplyDelta(ctx, b.userID, cmd.delta, cmd.reason, cmd.key)
		if err != nil {
			return Economy{}, nil, err
		}
		return out.Economy, nil, nil
	}
}

// viewLocked replays in-flight and pending commands over the acknowledged state.
func (b *Board) viewLocked() ([]Task, Economy) {
	tasks := append([]Task(nil), b.tasks...)
	econ := b.economy
	for _, queue := range [][]command{b.inflight, b.pending} {
		for _, cmd := range queue {
			econ = econ.Apply(cmd.delta)
			i := indexOf(tasks, cmd.taskID)
			if i < 0 {
				continue
			}
			switch cmd.kind {
			case commandToggle:
				tasks[i].Done = !tasks[i].Done
			case commandPomodoro:
				tasks[i].PomsDone++
			}
		}
	}
	return tasks, econ
}

func indexOf(tasks []Task, taskID string) int {
	if taskID == "" {
		return -1
	}
	for i := range tasks {
		if tasks[i].ID == taskID {
			return i
		}
	}
	return -1
}
