package daphne

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/irhox/daphne/pkg/mat"
	"github.com/irhox/daphne/pkg/shm"
)

// computeDense materializes a matrix-rooted DAG: stage sources, emit,
// append the result hand-off statement, run the engine, read the
// result back. Staged inputs are released before returning.
func (c *Context) computeDense(n *node, opts []ComputeOption) (*mat.Dense, error) {
	cfg := c.newComputeConfig(opts)
	if c.engine == nil {
		return nil, ErrNoEngine
	}
	st := newStager()
	defer st.cleanup()

	text, root, err := c.emitScript(n, cfg.transfer, st)
	if err != nil {
		return nil, err
	}

	var resKey, resPath string
	if cfg.transfer == TransferSharedMemory {
		resKey = c.shmKey(root + "_result")
		text += fmt.Sprintf("saveResult(%s, %q);\n", root, resKey)
	} else {
		resPath = filepath.Join(c.tmpDir, root+".csv")
		text += fmt.Sprintf("writeMatrix(%s, %q);\n", root, resPath)
	}

	if _, err := c.invoke(cfg, text); err != nil {
		return nil, err
	}

	var d *mat.Dense
	if cfg.transfer == TransferSharedMemory {
		d, err = c.resultFromShm(resKey)
	} else {
		d, err = c.resultFromFile(resPath)
	}
	if err != nil {
		return nil, err
	}
	if cfg.shape != nil {
		return reshaped(d, cfg.shape[0], cfg.shape[1])
	}
	return d, nil
}

// computeScalar materializes a scalar-rooted DAG by printing the root
// and parsing the engine's stdout.
func (c *Context) computeScalar(n *node, opts []ComputeOption) (float64, error) {
	cfg := c.newComputeConfig(opts)
	if c.engine == nil {
		return 0, ErrNoEngine
	}
	st := newStager()
	defer st.cleanup()

	text, root, err := c.emitScript(n, cfg.transfer, st)
	if err != nil {
		return 0, err
	}
	text += fmt.Sprintf("print(%s);\n", root)

	res, err := c.invoke(cfg, text)
	if err != nil {
		return 0, err
	}
	out := strings.TrimSpace(string(res.Stdout))
	v, err := strconv.ParseFloat(out, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: engine printed %q", ErrResultMissing, out)
	}
	return v, nil
}

// computeFrame materializes a frame-rooted DAG. Frames always travel
// through files.
func (c *Context) computeFrame(n *node, opts []ComputeOption) (arrow.Record, error) {
	cfg := c.newComputeConfig(opts)
	if c.engine == nil {
		return nil, ErrNoEngine
	}
	st := newStager()
	defer st.cleanup()

	text, root, err := c.emitScript(n, cfg.transfer, st)
	if err != nil {
		return nil, err
	}
	resPath := filepath.Join(c.tmpDir, root+".csv")
	text += fmt.Sprintf("writeFrame(%s, %q);\n", root, resPath)

	if _, err := c.invoke(cfg, text); err != nil {
		return nil, err
	}

	m, err := readMeta(resPath + ".meta")
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s.meta", ErrResultMissing, resPath)
		}
		return nil, err
	}
	rec, err := readFrameCSV(resPath, m)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrResultMissing, resPath)
		}
		return nil, err
	}
	return rec, nil
}

// computeAction materializes a DAG rooted in an output-free node, for
// its side effects only.
func (c *Context) computeAction(n *node, opts []ComputeOption) error {
	cfg := c.newComputeConfig(opts)
	if c.engine == nil {
		return ErrNoEngine
	}
	st := newStager()
	defer st.cleanup()

	text, _, err := c.emitScript(n, cfg.transfer, st)
	if err != nil {
		return err
	}
	_, err = c.invoke(cfg, text)
	return err
}

// invoke writes the script under the staging directory and hands it to
// the engine.
func (c *Context) invoke(cfg computeConfig, script string) (ExecResult, error) {
	c.seq++
	scriptPath := filepath.Join(c.tmpDir, fmt.Sprintf("script_%d.daphne", c.seq))
	if err := os.WriteFile(scriptPath, []byte(script), 0o644); err != nil {
		return ExecResult{}, fmt.Errorf("%w: writing script: %v", ErrTransfer, err)
	}
	if cfg.verbose {
		fmt.Fprintf(c.trace, "running %s:\n%s", scriptPath, script)
	}
	start := time.Now()
	res, err := c.engine.Execute(cfg.ctx, ExecRequest{
		Script:     script,
		ScriptPath: scriptPath,
		Verbose:    cfg.verbose,
	})
	if err != nil {
		if errors.Is(err, ErrEngineFailed) {
			return res, err
		}
		return res, fmt.Errorf("%w: %v", ErrEngineFailed, err)
	}
	if cfg.verbose {
		fmt.Fprintf(c.trace, "engine finished in %s\n", time.Since(start))
	}
	return res, nil
}

func (c *Context) resultFromFile(path string) (*mat.Dense, error) {
	m, err := readMeta(path + ".meta")
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s.meta", ErrResultMissing, path)
		}
		return nil, err
	}
	vt, err := mat.Parse(m.ValueType)
	if err != nil {
		return nil, fmt.Errorf("result %s: %w", path, err)
	}
	if !vt.Numeric() {
		return nil, fmt.Errorf("result %s: non-numeric value type %q", path, vt)
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrResultMissing, path)
		}
		return nil, err
	}
	defer f.Close()
	d, err := mat.ReadCSV(f, int(m.NumRows), int(m.NumCols), vt)
	if err != nil {
		return nil, fmt.Errorf("result %s: %w", path, err)
	}
	return d, nil
}

func (c *Context) resultFromShm(key string) (*mat.Dense, error) {
	seg, err := shm.Open(key)
	if err != nil {
		return nil, fmt.Errorf("%w: result segment %s: %v", ErrResultMissing, key, err)
	}
	defer func() {
		seg.Close()
		seg.Unlink()
	}()
	d, err := shm.ReadMatrix(seg)
	if err != nil {
		return nil, fmt.Errorf("result segment %s: %w", key, err)
	}
	return d, nil
}

// reshaped reinterprets the result buffer with new dimensions without
// copying.
func reshaped(d *mat.Dense, rows, cols int64) (*mat.Dense, error) {
	if rows <= 0 || cols <= 0 || rows*cols != int64(d.Rows())*int64(d.Cols()) {
		return nil, fmt.Errorf("%w: cannot view %dx%d result as %dx%d",
			ErrInvalidArgument, d.Rows(), d.Cols(), rows, cols)
	}
	return mat.FromSlice(int(rows), int(cols), d.Data(), d.ValueType())
}
