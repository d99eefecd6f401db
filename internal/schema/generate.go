package schema

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// ErrGenerationRun indicates a Generation was run more than once.
var ErrGenerationRun = errors.New("generation already run")

// State is the stage a Generation has reached.
type State int

const (
	Idle State = iota
	Generating
	Written
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Generating:
		return "generating"
	case Written:
		return "written"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// NewGeneration creates a Generation that writes the SDL of the Schema build
// produces.
func NewGeneration(build func() (*Schema, error)) *Generation {
	return &Generation{
		mutex: new(sync.Mutex),
		build: build,
		state: Idle,
	}
}

// Generation is a single run producing a schema artifact. A Generation is
// run at most once; Written and Failed are terminal.
type Generation struct {
	mutex *sync.Mutex
	build func() (*Schema, error)
	state State
}

// State retrieves the stage the Generation has reached.
func (g *Generation) State() State {
	g.mutex.Lock()
	defer g.mutex.Unlock()
	return g.state
}

// Run builds the schema and writes its SDL to the file at path, or to stdout
// if path is empty. The file is replaced atomically; on failure any existing
// file is left untouched and no partial file is created.
func (g *Generation) Run(stdout io.Writer, path string) error {
	g.mutex.Lock()
	if g.state != Idle {
		g.mutex.Unlock()
		return ErrGenerationRun
	}
	g.state = Generating
	g.mutex.Unlock()

	err := g.run(stdout, path)

	g.mutex.Lock()
	defer g.mutex.Unlock()
	if err != nil {
		g.state = Failed
		return err
	}
	g.state = Written
	return nil
}

func (g *Generation) run(stdout io.Writer, path string) error {
	s, err := g.build()
	if err != nil {
		return err
	}

	if path == "" {
		if _, err := io.WriteString(stdout, s.SDL()); err != nil {
			return fmt.Errorf("while writing schema: %w", err)
		}
		return nil
	}
	return writeFile(path, []byte(s.SDL()))
}

// writeFile writes b to a temporary file beside path and renames it into
// place.
func writeFile(path string, b []byte) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return fmt.Errorf("while creating schema file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(b); err != nil {
		return fmt.Errorf("while writing schema file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("while syncing schema file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("while closing schema file: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("while setting schema file mode: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("while replacing schema file: %w", err)
	}
	return nil
}
