// Package tui implements the interactive buffer inspector `shardbufc
// view` opens: a two-pane byte/allocation browser driven entirely by the
// wire/inspect allocation map built for the buffer under examination.
package tui

import (
	"encoding/binary"
	"fmt"
	"os"
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"golang.org/x/term"

	"github.com/shardbuf/shardbuf/wire/inspect"
)

const bytesPerRow = 16

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	cursorStyle = lipgloss.NewStyle().Reverse(true)
	focusStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

type pane int

const (
	hexPane pane = iota
	detailPane
)

type model struct {
	buf      []byte
	m        *inspect.Map
	rootType string

	cursor  int
	history []int
	focus   pane
	cycle   int

	gotoMode  bool
	gotoInput string

	width, height int
	err           error
}

func newModel(buf []byte, m *inspect.Map, rootType string) *model {
	return &model{buf: buf, m: m, rootType: rootType}
}

// Run enters raw terminal mode (restored via a recover-guarded defer, so
// a panic mid-session never leaves the terminal unusable), then drives
// the inspector until the user quits.
func Run(buf []byte, m *inspect.Map, rootType string) error {
	fd := int(os.Stdout.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("tui: entering raw mode: %w", err)
	}
	defer func() {
		restoreErr := term.Restore(fd, state)
		if r := recover(); r != nil {
			panic(r)
		}
		_ = restoreErr
	}()

	_, err = tea.NewProgram(newModel(buf, m, rootType)).Run()
	return err
}

func (m *model) Init() tea.Cmd { return nil }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case tea.KeyPressMsg:
		return m.handleKey(msg.String())
	}
	return m, nil
}

func (m *model) handleKey(key string) (tea.Model, tea.Cmd) {
	if m.gotoMode {
		return m.handleGotoKey(key)
	}

	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab":
		m.focus = (m.focus + 1) % 2
	case "up", "left":
		m.move(-1)
	case "down", "right":
		m.move(1)
	case "pgup":
		m.move(-bytesPerRow * 8)
	case "pgdown":
		m.move(bytesPerRow * 8)
	case "home":
		m.setCursor(0)
	case "end":
		m.setCursor(len(m.buf) - 1)
	case "g":
		m.gotoMode = true
		m.gotoInput = ""
	case "c":
		allocs := m.currentAllocations()
		if len(allocs) > 0 {
			m.cycle = (m.cycle + 1) % len(allocs)
		}
	case "enter":
		m.descend()
	case "esc", "backspace":
		m.ascend()
	}
	return m, nil
}

func (m *model) handleGotoKey(key string) (tea.Model, tea.Cmd) {
	switch {
	case key == "enter":
		if off, err := strconv.ParseInt(m.gotoInput, 16, 64); err == nil {
			m.setCursor(int(off))
		}
		m.gotoMode = false
	case key == "esc":
		m.gotoMode = false
	case len(key) == 1 && strings.ContainsRune("0123456789abcdefABCDEF", rune(key[0])):
		m.gotoInput += key
	case key == "backspace" && len(m.gotoInput) > 0:
		m.gotoInput = m.gotoInput[:len(m.gotoInput)-1]
	}
	return m, nil
}

func (m *model) move(delta int) { m.setCursor(m.cursor + delta) }

func (m *model) setCursor(pos int) {
	if pos < 0 {
		pos = 0
	}
	if pos >= len(m.buf) {
		pos = len(m.buf) - 1
	}
	m.cursor = pos
	m.cycle = 0
}

func (m *model) currentAllocations() []inspect.Allocation {
	return m.m.Get(m.cursor)
}

// descend treats the 4 bytes at the cursor as a FlatBuffers uoffset
// (relative to the cursor's own position, the convention every pointer
// field on the wire uses) and jumps there, remembering where it came
// from so Esc/Backspace can return.
func (m *model) descend() {
	if m.cursor+4 > len(m.buf) {
		return
	}
	rel := binary.LittleEndian.Uint32(m.buf[m.cursor : m.cursor+4])
	target := m.cursor + int(rel)
	if target < 0 || target >= len(m.buf) {
		return
	}
	m.history = append(m.history, m.cursor)
	m.setCursor(target)
}

func (m *model) ascend() {
	if len(m.history) == 0 {
		return
	}
	last := m.history[len(m.history)-1]
	m.history = m.history[:len(m.history)-1]
	m.setCursor(last)
}

func (m *model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("shardbufc view — root %s — offset 0x%x/%d", m.rootType, m.cursor, len(m.buf))))
	b.WriteByte('\n')
	if m.gotoMode {
		b.WriteString("go to offset (hex): " + m.gotoInput + "_\n")
	}
	b.WriteString(m.renderHex())
	b.WriteByte('\n')
	b.WriteString(m.renderDetail())
	b.WriteString("\nTab switch pane · arrows/PgUp/PgDn/Home/End move · g goto · c cycle · Enter descend · Esc/Backspace ascend · q quit\n")
	return b.String()
}

func (m *model) renderHex() string {
	style := dimStyle
	if m.focus == hexPane {
		style = focusStyle
	}

	var b strings.Builder
	b.WriteString(style.Render("bytes"))
	b.WriteByte('\n')

	start := (m.cursor / bytesPerRow) * bytesPerRow
	rows := 8
	for r := 0; r < rows; r++ {
		rowStart := start + r*bytesPerRow
		if rowStart >= len(m.buf) {
			break
		}
		fmt.Fprintf(&b, "%08x  ", rowStart)
		for i := 0; i < bytesPerRow; i++ {
			pos := rowStart + i
			if pos >= len(m.buf) {
				b.WriteString("   ")
				continue
			}
			cell := fmt.Sprintf("%02x ", m.buf[pos])
			if pos == m.cursor {
				cell = cursorStyle.Render(strings.TrimSuffix(cell, " ")) + " "
			}
			b.WriteString(cell)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func (m *model) renderDetail() string {
	style := dimStyle
	if m.focus == detailPane {
		style = focusStyle
	}

	var b strings.Builder
	b.WriteString(style.Render("interpretations"))
	b.WriteByte('\n')

	allocs := m.currentAllocations()
	if len(allocs) == 0 {
		b.WriteString("(no allocation covers this byte)\n")
		return b.String()
	}
	for i, a := range allocs {
		marker := "  "
		if i == m.cycle {
			marker = "> "
		}
		fmt.Fprintf(&b, "%s%s  [0x%x,0x%x)  %s\n", marker, a.Path.String(), a.Start, a.End, a.TypeName)
	}
	return b.String()
}
