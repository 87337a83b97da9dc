package replui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	quark "github.com/sorenby/quarkvm"
	"github.com/sorenby/quarkvm/internal/qval"
)

const historyLimit = 200

// model is the REPL's Elm-architecture state: one value-stack Context, an
// input line, and the scrollback of rendered commands/results.
type model struct {
	ctx      *quark.Context
	input    textinput.Model
	lines    []string
	quitting bool
}

// New builds a REPL model over ctx.
func New(ctx *quark.Context) tea.Model {
	ti := textinput.New()
	ti.Placeholder = "push 1 | push \"s\" | pop | dup 0 | stack | help"
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 60

	return &model{
		ctx:   ctx,
		input: ti,
		lines: []string{"quarkc repl — type \"help\" for commands, \"quit\" to exit"},
	}
}

func (m *model) Init() tea.Cmd { return textinput.Blink }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			line := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if line == "" {
				return m, nil
			}
			m.lines = append(m.lines, colorPrompt("> ")+line)
			if line == "quit" || line == "exit" {
				m.quitting = true
				return m, tea.Quit
			}
			for _, out := range m.eval(line) {
				m.lines = append(m.lines, out)
			}
			if len(m.lines) > historyLimit {
				m.lines = m.lines[len(m.lines)-historyLimit:]
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) View() string {
	var b strings.Builder
	for _, line := range m.lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteString(m.input.View())
	if m.quitting {
		b.WriteString("\n")
	}
	return b.String()
}

// eval parses and runs one REPL command line, returning its output lines.
// The grammar is deliberately small: it exercises the value-stack API
// (push/pop/reposition/property/coerce), not a parsed ECMAScript program —
// parsing and bytecode execution are out of this module's scope.
func (m *model) eval(line string) []string {
	fields := strings.Fields(line)
	cmd := fields[0]
	args := fields[1:]
	c := m.ctx

	switch cmd {
	case "help":
		return []string{
			"push <number|\"string\"|true|false|null|undefined>, pop, dup <i>, swap <i> <j>, insert <i>, remove <i>",
			"object, array, put <objIdx> <key> <value>, get <objIdx> <key>, has <objIdx> <key>, del <objIdx> <key>, keys <objIdx>",
			"tonumber <i>, tostring <i>, toboolean <i>, eq <i> <j>, stricteq <i> <j>, instanceof <i> <ctor>",
			"stack, top, quit",
		}
	case "stack":
		return []string{m.renderStack()}
	case "top":
		return []string{fmt.Sprintf("top = %d", c.GetTop())}
	case "pop":
		if err := c.Pop(); err != nil {
			return []string{colorError(err.Error())}
		}
		return []string{m.renderStack()}
	case "push":
		if len(args) == 0 {
			return []string{colorError("push: missing value")}
		}
		if err := pushLiteral(c, strings.Join(args, " ")); err != nil {
			return []string{colorError(err.Error())}
		}
		return []string{m.renderStack()}
	case "object":
		if _, err := c.PushNewObject(); err != nil {
			return []string{colorError(err.Error())}
		}
		return []string{m.renderStack()}
	case "array":
		if _, err := c.PushNewArray(); err != nil {
			return []string{colorError(err.Error())}
		}
		return []string{m.renderStack()}
	case "dup":
		return m.withIndex(args, c.Dup)
	case "remove":
		return m.withIndex(args, c.Remove)
	case "insert":
		return m.withIndex(args, c.Insert)
	case "swap":
		return m.withIndexPair(args, c.Swap)
	case "put":
		return m.putProp(args)
	case "get":
		return m.getProp(args)
	case "has":
		return m.hasProp(args)
	case "del":
		return m.delProp(args)
	case "keys":
		return m.keys(args)
	case "tonumber":
		return m.coerce(args, c.ToNumber)
	case "tostring":
		return m.coerce(args, func(i int) (string, error) { return c.ToString(i) })
	case "toboolean":
		return m.coerce(args, c.ToBoolean)
	case "eq":
		return m.compare(args, c.Equals)
	case "stricteq":
		return m.compare(args, c.StrictEquals)
	case "instanceof":
		return m.compare(args, func(a, b int) bool { v, _ := c.InstanceOf(a, b); return v })
	default:
		return []string{colorError(fmt.Sprintf("unknown command %q (try \"help\")", cmd))}
	}
}

func parseIndex(s string) (int, error) { return strconv.Atoi(s) }

func (m *model) withIndex(args []string, fn func(int) error) []string {
	if len(args) != 1 {
		return []string{colorError("expected one index")}
	}
	idx, err := parseIndex(args[0])
	if err != nil {
		return []string{colorError(err.Error())}
	}
	if err := fn(idx); err != nil {
		return []string{colorError(err.Error())}
	}
	return []string{m.renderStack()}
}

func (m *model) withIndexPair(args []string, fn func(int, int) error) []string {
	if len(args) != 2 {
		return []string{colorError("expected two indices")}
	}
	a, err := parseIndex(args[0])
	if err != nil {
		return []string{colorError(err.Error())}
	}
	b, err := parseIndex(args[1])
	if err != nil {
		return []string{colorError(err.Error())}
	}
	if err := fn(a, b); err != nil {
		return []string{colorError(err.Error())}
	}
	return []string{m.renderStack()}
}

func (m *model) coerce(args []string, fn any) []string {
	if len(args) != 1 {
		return []string{colorError("expected one index")}
	}
	idx, err := parseIndex(args[0])
	if err != nil {
		return []string{colorError(err.Error())}
	}
	switch f := fn.(type) {
	case func(int) (float64, error):
		v, err := f(idx)
		if err != nil {
			return []string{colorError(err.Error())}
		}
		return []string{colorKind(qval.KindNumber, fmt.Sprintf("%v", v))}
	case func(int) (string, error):
		v, err := f(idx)
		if err != nil {
			return []string{colorError(err.Error())}
		}
		return []string{colorKind(qval.KindString, v)}
	case func(int) (bool, error):
		v, err := f(idx)
		if err != nil {
			return []string{colorError(err.Error())}
		}
		return []string{colorKind(qval.KindBoolean, fmt.Sprintf("%v", v))}
	default:
		return []string{colorError("internal: unsupported coercion")}
	}
}

func (m *model) compare(args []string, fn func(int, int) bool) []string {
	if len(args) != 2 {
		return []string{colorError("expected two indices")}
	}
	a, err := parseIndex(args[0])
	if err != nil {
		return []string{colorError(err.Error())}
	}
	b, err := parseIndex(args[1])
	if err != nil {
		return []string{colorError(err.Error())}
	}
	return []string{colorKind(qval.KindBoolean, fmt.Sprintf("%v", fn(a, b)))}
}

func (m *model) putProp(args []string) []string {
	if len(args) != 3 {
		return []string{colorError("usage: put <objIdx> <key> <value>")}
	}
	objIdx, err := parseIndex(args[0])
	if err != nil {
		return []string{colorError(err.Error())}
	}
	if err := pushLiteral(m.ctx, args[2]); err != nil {
		return []string{colorError(err.Error())}
	}
	if err := m.ctx.PutPropString(objIdx, args[1]); err != nil {
		return []string{colorError(err.Error())}
	}
	return []string{m.renderStack()}
}

func (m *model) getProp(args []string) []string {
	if len(args) != 2 {
		return []string{colorError("usage: get <objIdx> <key>")}
	}
	objIdx, err := parseIndex(args[0])
	if err != nil {
		return []string{colorError(err.Error())}
	}
	if err := m.ctx.GetPropString(objIdx, args[1]); err != nil {
		return []string{colorError(err.Error())}
	}
	return []string{m.renderStack()}
}

func (m *model) hasProp(args []string) []string {
	if len(args) != 2 {
		return []string{colorError("usage: has <objIdx> <key>")}
	}
	objIdx, err := parseIndex(args[0])
	if err != nil {
		return []string{colorError(err.Error())}
	}
	return []string{colorKind(qval.KindBoolean, fmt.Sprintf("%v", m.ctx.HasPropString(objIdx, args[1])))}
}

func (m *model) delProp(args []string) []string {
	if len(args) != 2 {
		return []string{colorError("usage: del <objIdx> <key>")}
	}
	objIdx, err := parseIndex(args[0])
	if err != nil {
		return []string{colorError(err.Error())}
	}
	ok, err := m.ctx.DelPropString(objIdx, args[1])
	if err != nil {
		return []string{colorError(err.Error())}
	}
	return []string{colorKind(qval.KindBoolean, fmt.Sprintf("%v", ok))}
}

func (m *model) keys(args []string) []string {
	if len(args) != 1 {
		return []string{colorError("usage: keys <objIdx>")}
	}
	objIdx, err := parseIndex(args[0])
	if err != nil {
		return []string{colorError(err.Error())}
	}
	keys, err := m.ctx.EnumKeys(objIdx)
	if err != nil {
		return []string{colorError(err.Error())}
	}
	return []string{colorKind(qval.KindObject, strings.Join(keys, ", "))}
}

// pushLiteral parses one REPL literal token and pushes it.
func pushLiteral(c *quark.Context, tok string) error {
	switch {
	case tok == "true":
		return c.PushTrue()
	case tok == "false":
		return c.PushFalse()
	case tok == "null":
		return c.PushNull()
	case tok == "undefined":
		return c.PushUndefined()
	case strings.HasPrefix(tok, `"`) && strings.HasSuffix(tok, `"`) && len(tok) >= 2:
		return c.PushString(tok[1 : len(tok)-1])
	default:
		if n, err := strconv.ParseFloat(tok, 64); err == nil {
			return c.PushNumber(n)
		}
		return c.PushString(tok)
	}
}

// renderStack formats every slot on the stack, bottom to top, each
// colorized by kind.
func (m *model) renderStack() string {
	c := m.ctx
	n := c.GetTop()
	if n == 0 {
		return "(empty)"
	}
	parts := make([]string, n)
	for i := 0; i < n; i++ {
		parts[i] = colorIndex(fmt.Sprintf("[%d]", i)) + "=" + renderValue(c, i)
	}
	return strings.Join(parts, "  ")
}

func renderValue(c *quark.Context, idx int) string {
	kind := c.GetType(idx)
	switch kind {
	case qval.KindNumber:
		return colorKind(kind, fmt.Sprintf("%v", c.GetNumber(idx)))
	case qval.KindString:
		return colorKind(kind, strconv.Quote(c.GetString(idx)))
	case qval.KindBoolean:
		return colorKind(kind, fmt.Sprintf("%v", c.GetBoolean(idx)))
	case qval.KindObject:
		return colorKind(kind, fmt.Sprintf("object(%s)", c.GetObject(idx).Class()))
	case qval.KindNull:
		return colorKind(kind, "null")
	default:
		return colorKind(kind, "undefined")
	}
}

// Run starts the REPL program over ctx and blocks until the user quits.
func Run(ctx *quark.Context) error {
	_, err := tea.NewProgram(New(ctx)).Run()
	return err
}
