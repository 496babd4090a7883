package debug

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Versifine/grasp/internal/input"
	"github.com/Versifine/grasp/internal/interaction"
	"github.com/Versifine/grasp/internal/sim"
	"golang.org/x/term"
)

const (
	defaultTickInterval = 50 * time.Millisecond
	nudgeStep           = 0.05
)

// Console drives a Simulation from a raw-mode terminal: single keys pulse
// actions, ':' opens a command line.
type Console struct {
	sim          *sim.Simulation
	tickInterval time.Duration
	out          io.Writer

	mu          sync.Mutex
	teleporting bool
	nudge       interaction.Source
	commandMode bool
	commandBuf  []rune
	statusWidth int
}

func NewConsole(s *sim.Simulation, tickInterval time.Duration) *Console {
	if tickInterval <= 0 {
		tickInterval = defaultTickInterval
	}
	return &Console{
		sim:          s,
		tickInterval: tickInterval,
		out:          os.Stdout,
		nudge:        interaction.RightHand,
	}
}

func (c *Console) Start(ctx context.Context) error {
	if c == nil {
		return fmt.Errorf("console is nil")
	}
	if c.sim == nil {
		return fmt.Errorf("console simulation is nil")
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("set terminal raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, oldState)
		fmt.Fprint(c.out, "\r\n")
	}()

	fmt.Fprint(c.out, "[debug] console started (q/e left, u/o right, j/l cursor grab/drop, t teleport, arrows nudge, : command)\r\n")
	c.renderStatusLine()

	go c.tickLoop(ctx)

	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		b, err := reader.ReadByte()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read console input: %w", err)
		}
		if b == 3 { // Ctrl-C is not a signal in raw mode
			return nil
		}
		c.handleKey(reader, b)
	}
}

func (c *Console) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(c.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.sim.Step()
			c.renderStatusLine()
		}
	}
}

func (c *Console) handleKey(reader *bufio.Reader, b byte) {
	if c.isCommandMode() {
		c.handleCommandByte(b)
		return
	}

	switch b {
	case ':':
		c.enterCommandMode()
		return
	case 'q', 'Q':
		c.pulse(interaction.LeftHand, true)
	case 'e', 'E':
		c.pulse(interaction.LeftHand, false)
	case 'u', 'U':
		c.pulse(interaction.RightHand, true)
	case 'o', 'O':
		c.pulse(interaction.RightHand, false)
	case 'j', 'J':
		c.pulse(interaction.Cursor, true)
	case 'l', 'L':
		c.pulse(interaction.Cursor, false)
	case 't', 'T':
		c.toggleTeleport()
	case '[':
		c.selectNudge(interaction.LeftHand)
	case ']':
		c.selectNudge(interaction.RightHand)
	case 'x', 'X':
		c.clearInput()
	case 27: // ESC + arrow sequence
		if reader == nil {
			return
		}
		next, err := reader.ReadByte()
		if err != nil || next != '[' {
			return
		}
		arrow, err := reader.ReadByte()
		if err != nil {
			return
		}
		switch arrow {
		case 'D': // left
			c.nudgePose(-nudgeStep, 0, 0)
		case 'C': // right
			c.nudgePose(nudgeStep, 0, 0)
		case 'A': // up
			c.nudgePose(0, 0, -nudgeStep)
		case 'B': // down
			c.nudgePose(0, 0, nudgeStep)
		}
	}
	c.renderStatusLine()
}

// pulse fires the grab or drop path bound to src for one frame.
func (c *Console) pulse(src interaction.Source, grab bool) {
	grabPath, dropPath := c.sim.Paths(src)
	path := dropPath
	if grab {
		path = grabPath
	}
	c.do(func() { c.sim.Actions().Pulse(path) })
}

func (c *Console) do(fn func()) {
	if !c.sim.Do(fn) {
		slog.Warn("debug command dropped, simulation queue full")
	}
}

func (c *Console) toggleTeleport() {
	c.mu.Lock()
	c.teleporting = !c.teleporting
	enabled := c.teleporting
	c.mu.Unlock()

	c.do(func() {
		if enabled {
			c.sim.Actions().Press(input.RightHandTeleportAim)
		} else {
			c.sim.Actions().Release(input.RightHandTeleportAim)
		}
	})
	slog.Debug("debug teleport aim toggled", "enabled", enabled)
}

func (c *Console) selectNudge(src interaction.Source) {
	c.mu.Lock()
	c.nudge = src
	c.mu.Unlock()
}

func (c *Console) nudgePose(dx, dy, dz float64) {
	c.mu.Lock()
	src := c.nudge
	c.mu.Unlock()

	c.do(func() {
		pose := sim.PoseOf(src)
		local, ok := c.sim.World().Graph.Local(pose)
		if !ok {
			return
		}
		p := local.Position
		c.sim.MovePose(src, p.X+dx, p.Y+dy, p.Z+dz)
	})
}

func (c *Console) clearInput() {
	c.mu.Lock()
	c.teleporting = false
	c.mu.Unlock()
	c.do(func() { c.sim.Actions().Clear() })
}

func (c *Console) enterCommandMode() {
	c.mu.Lock()
	c.commandMode = true
	c.commandBuf = c.commandBuf[:0]
	c.mu.Unlock()
	fmt.Fprint(c.out, "\r\n:")
}

func (c *Console) handleCommandByte(b byte) {
	switch b {
	case 13, 10: // Enter
		c.mu.Lock()
		cmd := strings.TrimSpace(string(c.commandBuf))
		c.commandMode = false
		c.commandBuf = c.commandBuf[:0]
		c.mu.Unlock()

		fmt.Fprint(c.out, "\r\n")
		if cmd != "" {
			c.executeCommand(cmd)
		}
		c.renderStatusLine()
		return
	case 27: // ESC cancel command mode
		c.mu.Lock()
		c.commandMode = false
		c.commandBuf = c.commandBuf[:0]
		c.mu.Unlock()
		fmt.Fprint(c.out, "\r\n[debug] command cancelled\r\n")
		c.renderStatusLine()
		return
	case 8, 127: // Backspace
		c.mu.Lock()
		if len(c.commandBuf) > 0 {
			c.commandBuf = c.commandBuf[:len(c.commandBuf)-1]
		}
		buf := string(c.commandBuf)
		c.mu.Unlock()
		fmt.Fprintf(c.out, "\r:%s ", buf)
		fmt.Fprintf(c.out, "\r:%s", buf)
		return
	default:
		if b < 32 || b > 126 {
			return
		}
		c.mu.Lock()
		c.commandBuf = append(c.commandBuf, rune(b))
		buf := string(c.commandBuf)
		c.mu.Unlock()
		fmt.Fprintf(c.out, "\r:%s", buf)
	}
}

func (c *Console) executeCommand(cmd string) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return
	}

	switch parts[0] {
	case "help":
		c.printHelp()
	case "state":
		c.printState()
	case "objects":
		c.do(c.printObjects)
	case "move":
		c.handleMoveCommand(parts)
	case "aim":
		if len(parts) != 2 {
			fmt.Fprint(c.out, "[debug] usage: :aim <object>|none\r\n")
			return
		}
		target := parts[1]
		if target == "none" {
			target = ""
		}
		c.do(func() { c.sim.Aim(target) })
		fmt.Fprintf(c.out, "[debug] aim set to %q\r\n", target)
	case "own":
		if len(parts) != 3 {
			fmt.Fprint(c.out, "[debug] usage: :own <object> <session>\r\n")
			return
		}
		object, session := parts[1], parts[2]
		c.do(func() { c.sim.World().Owners.SetOwner(object, session) })
		fmt.Fprintf(c.out, "[debug] owner of %s set to %s\r\n", object, session)
	default:
		fmt.Fprintf(c.out, "[debug] unknown command: %s\r\n", parts[0])
	}
}

func (c *Console) handleMoveCommand(parts []string) {
	if len(parts) != 5 {
		fmt.Fprint(c.out, "[debug] usage: :move <left|right|cursor> <x> <y> <z>\r\n")
		return
	}
	src, err := interaction.ParseSource(parts[1])
	if err != nil {
		fmt.Fprintf(c.out, "[debug] %v\r\n", err)
		return
	}
	x, err1 := strconv.ParseFloat(parts[2], 64)
	y, err2 := strconv.ParseFloat(parts[3], 64)
	z, err3 := strconv.ParseFloat(parts[4], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		fmt.Fprint(c.out, "[debug] invalid move args\r\n")
		return
	}
	c.do(func() { c.sim.MovePose(src, x, y, z) })
	fmt.Fprintf(c.out, "[debug] %s moved to (%.3f, %.3f, %.3f)\r\n", src, x, y, z)
}

func (c *Console) printState() {
	snap := c.sim.Snapshot()
	fmt.Fprintf(c.out, "[debug] frame=%d pointer=%s aim=%q\r\n", snap.Frame, boolLabel(snap.PointerEnabled), snap.Aim)
	for _, a := range snap.Actuators {
		fmt.Fprintf(c.out, "  %-10s %-8s hovered=%q held=%q\r\n", a.Source, a.State.Phase(), a.State.Hovered, a.State.Held)
	}
}

// printObjects runs on the simulation goroutine.
func (c *Console) printObjects() {
	w := c.sim.World()
	handles := w.Registry.Handles()
	fmt.Fprintf(c.out, "\r\n[debug] %d interactables\r\n", len(handles))
	for _, h := range handles {
		line := fmt.Sprintf("  %s [%s]", h.ID, h.Caps)
		if t, ok := w.Graph.World(h.ID); ok {
			line += fmt.Sprintf(" at (%.2f, %.2f, %.2f)", t.Position.X, t.Position.Y, t.Position.Z)
		}
		if owner, ok := w.Owners.OwnerOf(h.ID); ok {
			line += " owner=" + owner
		}
		if left := w.Cooldowns.Remaining(h.ID); left > 0 {
			line += " cooldown=" + left.Round(time.Millisecond).String()
		}
		fmt.Fprint(c.out, line+"\r\n")
	}
}

func (c *Console) printHelp() {
	fmt.Fprint(c.out, "[debug] keys:\r\n")
	fmt.Fprint(c.out, "  q/e: left hand grab/drop\r\n")
	fmt.Fprint(c.out, "  u/o: right hand grab/drop\r\n")
	fmt.Fprint(c.out, "  j/l: cursor grab/drop\r\n")
	fmt.Fprint(c.out, "  t: toggle teleport aim\r\n")
	fmt.Fprint(c.out, "  [ / ]: arrows nudge left / right hand\r\n")
	fmt.Fprint(c.out, "  Arrows: nudge hand on X/Z\r\n")
	fmt.Fprint(c.out, "  x: release all held actions\r\n")
	fmt.Fprint(c.out, "  : enter command mode\r\n")
	fmt.Fprint(c.out, "[debug] commands:\r\n")
	fmt.Fprint(c.out, "  :move <left|right|cursor> <x> <y> <z>\r\n")
	fmt.Fprint(c.out, "  :aim <object>|none\r\n")
	fmt.Fprint(c.out, "  :own <object> <session>\r\n")
	fmt.Fprint(c.out, "  :objects\r\n")
	fmt.Fprint(c.out, "  :state\r\n")
	fmt.Fprint(c.out, "  :help\r\n")
}

func (c *Console) renderStatusLine() {
	c.mu.Lock()
	if c.commandMode {
		c.mu.Unlock()
		return
	}
	teleporting := c.teleporting
	width := c.statusWidth
	c.mu.Unlock()

	line := statusLine(c.sim.Snapshot(), teleporting)
	padding := ""
	if width > len(line) {
		padding = strings.Repeat(" ", width-len(line))
	}
	fmt.Fprintf(c.out, "\r%s%s", line, padding)

	c.mu.Lock()
	if len(line) > c.statusWidth {
		c.statusWidth = len(line)
	}
	c.mu.Unlock()
}

func statusLine(snap sim.Snapshot, teleporting bool) string {
	parts := make([]string, 0, len(snap.Actuators))
	for _, a := range snap.Actuators {
		target := a.State.Held
		if target == "" {
			target = a.State.Hovered
		}
		label := shortSource(a.Source) + ":" + a.State.Phase().String()
		if target != "" {
			label += " " + target
		}
		parts = append(parts, label)
	}
	return fmt.Sprintf("[%s | PTR:%s TP:%s | frame %d]",
		strings.Join(parts, " | "),
		boolLabel(snap.PointerEnabled),
		boolLabel(teleporting),
		snap.Frame,
	)
}

func shortSource(src interaction.Source) string {
	switch src {
	case interaction.LeftHand:
		return "L"
	case interaction.RightHand:
		return "R"
	default:
		return "C"
	}
}

func (c *Console) isCommandMode() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commandMode
}

func boolLabel(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
