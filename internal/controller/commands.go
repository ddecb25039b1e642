package controller

import (
	"errors"
	"fmt"
	"time"

	"github.com/cstahmer1/solana-trading-bot-sub001/internal/events"
	"github.com/cstahmer1/solana-trading-bot-sub001/internal/modules/circuit"
)

// Command is an operator action applied at the next tick boundary.
type Command string

const (
	CommandPause  Command = "pause"
	CommandResume Command = "resume"
	CommandReset  Command = "reset"
)

const maxPendingCommands = 32

var (
	// ErrUnknownCommand is returned for command names outside pause, resume and reset.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrCommandQueueFull is returned when too many commands wait for the next tick.
	ErrCommandQueueFull = errors.New("command queue full")
)

type pendingCommand struct {
	command  Command
	source   string
	queuedAt time.Time
}

// ParseCommand returns the command named s.
func ParseCommand(s string) (Command, error) {
	switch Command(s) {
	case CommandPause, CommandResume, CommandReset:
		return Command(s), nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownCommand, s)
}

// Submit queues an operator command for the next tick.
func (c *Controller) Submit(cmd Command, source string) error {
	if _, err := ParseCommand(string(cmd)); err != nil {
		return err
	}

	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()
	if len(c.pending) >= maxPendingCommands {
		return ErrCommandQueueFull
	}
	c.pending = append(c.pending, pendingCommand{command: cmd, source: source, queuedAt: c.now()})

	c.log.Info().Str("command", string(cmd)).Str("source", source).Msg("Operator command queued")
	return nil
}

// PendingCommands returns the number of commands waiting for the next tick.
func (c *Controller) PendingCommands() int {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()
	return len(c.pending)
}

func (c *Controller) drainCommands() []pendingCommand {
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()
	cmds := c.pending
	c.pending = nil
	return cmds
}

// requeue puts commands from an aborted tick back in front of the queue.
func (c *Controller) requeue(cmds []pendingCommand) {
	if len(cmds) == 0 {
		return
	}
	c.cmdMu.Lock()
	defer c.cmdMu.Unlock()
	c.pending = append(append([]pendingCommand(nil), cmds...), c.pending...)
}

// applyCommands runs queued commands in submission order. Pause and resume write
// the manual_pause setting so the following settings snapshot sees them. Resets
// wait for the tick's equity observation; see applyResets.
func (c *Controller) applyCommands(t *tick) {
	for _, cmd := range c.drainCommands() {
		var err error

		switch cmd.command {
		case CommandPause:
			err = c.settings.Set("manual_pause", true)
		case CommandResume:
			err = c.settings.Set("manual_pause", false)
		case CommandReset:
			t.resets = append(t.resets, cmd)
			continue
		}

		detail := ""
		if err != nil {
			c.log.Error().Err(err).Str("command", string(cmd.command)).Msg("Operator command failed")
			detail = "error: " + err.Error()
		}
		c.emitOperatorAction(t.id, cmd, detail)
	}
}

// applyResets starts the circuit over from obs and clears stuck-target and
// hysteresis state in one step, before the circuit is refreshed.
func (c *Controller) applyResets(t *tick, obs circuit.Observation) {
	for _, cmd := range t.resets {
		detail := ""
		if c.breaker.Reset(t.id, "operator_reset", t.cfg.location, obs) {
			detail = "circuit_cleared"
		}
		c.reconciler.ResetAll()
		c.emitOperatorAction(t.id, cmd, detail)
	}
	t.resets = nil
}

func (c *Controller) emitOperatorAction(tickID string, cmd pendingCommand, detail string) {
	c.events.EmitTick(tickID, "controller", &events.OperatorActionData{
		Action: string(cmd.command),
		Source: cmd.source,
		Detail: detail,
	})
}
