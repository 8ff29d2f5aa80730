package daphne

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
)

// infixOps are the operator tags emitted in infix form when a node has
// exactly two positional inputs and no named ones.
var infixOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "^": true, "%": true,
	"<": true, "<=": true, ">": true, ">=": true, "==": true, "!=": true,
	"@": true,
}

// emitter walks a DAG depth-first and appends one statement per node,
// inputs strictly before consumers. Variable names are assigned in
// emission order, so re-emitting the same DAG yields identical text.
// With a nil stager it previews: source lines carry the paths and keys
// staging would use, but nothing is written.
type emitter struct {
	ctx      *Context
	transfer Transfer
	st       *stager

	sb       strings.Builder
	names    map[*node]string
	visiting map[*node]bool
	next     int
}

func newEmitter(c *Context, transfer Transfer, st *stager) *emitter {
	return &emitter{
		ctx:      c,
		transfer: transfer,
		st:       st,
		names:    make(map[*node]string),
		visiting: make(map[*node]bool),
	}
}

func (c *Context) emitScript(root *node, transfer Transfer, st *stager) (text, rootName string, err error) {
	e := newEmitter(c, transfer, st)
	rootName, err = e.emit(root)
	if err != nil {
		return "", "", err
	}
	return e.sb.String(), rootName, nil
}

func (c *Context) previewNode(n *node) (string, error) {
	text, _, err := c.emitScript(n, c.transfer, nil)
	return text, err
}

func (e *emitter) emit(n *node) (string, error) {
	if name, ok := e.names[n]; ok {
		return name, nil
	}
	if e.visiting[n] {
		return "", fmt.Errorf("%w: %q reached from itself", ErrCycleDetected, n.op)
	}
	e.visiting[n] = true

	args := make([]string, len(n.inputs))
	for i, in := range n.inputs {
		s, err := e.renderInput(in)
		if err != nil {
			return "", err
		}
		args[i] = s
	}
	named := make([]string, len(n.named))
	for i, ni := range n.named {
		s, err := e.renderInput(ni.in)
		if err != nil {
			return "", err
		}
		named[i] = ni.name + "=" + s
	}
	delete(e.visiting, n)

	name := fmt.Sprintf("V%d", e.next)
	e.next++
	e.names[n] = name

	line, err := e.line(n, name, args, named)
	if err != nil {
		return "", err
	}
	e.sb.WriteString(line)
	return name, nil
}

func (e *emitter) renderInput(in input) (string, error) {
	if in.node != nil {
		return e.emit(in.node)
	}
	return renderLiteral(in.lit)
}

func (e *emitter) line(n *node, name string, args, named []string) (string, error) {
	switch {
	case n.hasLocalData():
		return e.sourceLine(n, name)
	case n.leftBrackets:
		// inputs are [target, value, row, col]; the write mutates the
		// target variable, then the node aliases it.
		return fmt.Sprintf("%s[%s, %s] = %s;\n%s = %s;\n",
			args[0], args[2], args[3], args[1], name, args[0]), nil
	case n.brackets:
		return fmt.Sprintf("%s = %s[%s, %s];\n", name, args[0], args[1], args[2]), nil
	case n.op == "" && len(args) == 1 && len(named) == 0:
		return fmt.Sprintf("%s = %s;\n", name, args[0]), nil
	case n.op == "":
		return "", fmt.Errorf("%w: node without operator", ErrInvalidArgument)
	case n.out == KindNone:
		// actions are statements, not assignments
		all := append(args, named...)
		return fmt.Sprintf("%s(%s);\n", n.op, strings.Join(all, ", ")), nil
	case infixOps[n.op] && len(args) == 2 && len(named) == 0:
		return fmt.Sprintf("%s = %s %s %s;\n", name, args[0], n.op, args[1]), nil
	default:
		all := append(args, named...)
		return fmt.Sprintf("%s = %s(%s);\n", name, n.op, strings.Join(all, ", ")), nil
	}
}

// sourceLine emits the read statement for a node carrying host data,
// staging the data first unless previewing.
func (e *emitter) sourceLine(n *node, name string) (string, error) {
	switch {
	case n.payload != nil && e.transfer == TransferSharedMemory:
		key := e.ctx.shmKey(name)
		if e.st != nil {
			if err := e.st.stageShm(key, n.payload); err != nil {
				return "", err
			}
		}
		return fmt.Sprintf("%s = receiveFromShm(%q, %d, %d, %q);\n",
			name, key, n.payload.Rows(), n.payload.Cols(), string(n.payload.ValueType())), nil
	case n.payload != nil:
		path := e.stagePath(name + ".csv")
		if e.st != nil {
			if err := e.st.stageCSV(path, n.payload); err != nil {
				return "", err
			}
		}
		return fmt.Sprintf("%s = readMatrix(%q);\n", name, path), nil
	case n.textPayload != nil:
		path := e.stagePath(name + ".json")
		if e.st != nil {
			if err := e.st.stageJSON(path, n.textPayload); err != nil {
				return "", err
			}
		}
		return fmt.Sprintf("%s = readMatrix(%q);\n", name, path), nil
	case n.framePayload != nil:
		path := e.stagePath(name + ".csv")
		if e.st != nil {
			if err := e.st.stageFrame(path, n.framePayload); err != nil {
				return "", err
			}
		}
		return fmt.Sprintf("%s = readFrame(%q);\n", name, path), nil
	}
	return "", fmt.Errorf("%w: source node without data", ErrInvalidArgument)
}

func (e *emitter) stagePath(file string) string {
	return filepath.Join(e.ctx.tmpDir, file)
}

func renderLiteral(v any) (string, error) {
	switch x := v.(type) {
	case rawIdx:
		return string(x), nil
	case string:
		return strconv.Quote(x), nil
	case bool:
		return strconv.FormatBool(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case int:
		return strconv.Itoa(x), nil
	case float64:
		return formatFloatLit(x), nil
	}
	return "", fmt.Errorf("%w: unsupported literal %T", ErrInvalidArgument, v)
}

// formatFloatLit keeps a decimal point on integral values so the
// engine parses them as floating point.
func formatFloatLit(x float64) string {
	switch {
	case math.IsNaN(x):
		return "nan"
	case math.IsInf(x, 1):
		return "inf"
	case math.IsInf(x, -1):
		return "-inf"
	case math.Trunc(x) == x && math.Abs(x) < 1e15:
		return strconv.FormatFloat(x, 'f', 1, 64)
	}
	return strconv.FormatFloat(x, 'g', -1, 64)
}
