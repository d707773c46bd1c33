// Package workspace manages per-evaluation scratch directories.
//
// Every evaluation gets its own directory named by a fresh UUID, so
// concurrent evaluations can never see each other's files. Release always
// removes the whole tree, whatever state the evaluation left it in.
package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"codecoach/pkg/errors"
)

const runDirName = "run"

// Config controls where workspaces live and what the well-known files
// inside them are called.
type Config struct {
	RootDir      string `yaml:"root_dir"`
	SourceFile   string `yaml:"-"`
	ArtifactFile string `yaml:"-"`
}

// Manager hands out and reclaims workspaces.
type Manager struct {
	cfg Config
}

// NewManager validates the config and prepares the root directory.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.RootDir == "" {
		cfg.RootDir = filepath.Join(os.TempDir(), "codecoach-workspaces")
	}
	if cfg.SourceFile == "" || cfg.ArtifactFile == "" {
		return nil, errors.New(errors.WorkspaceError).WithMessage("workspace config missing source or artifact file name")
	}
	if err := os.MkdirAll(cfg.RootDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, errors.WorkspaceCreateFailed, "create workspace root %s", cfg.RootDir)
	}
	return &Manager{cfg: cfg}, nil
}

// Workspace is one evaluation's private directory tree.
type Workspace struct {
	id      string
	root    string // <RootDir>/<id>
	runDir  string // <root>/run
	srcName string
	binName string
}

// Acquire creates a fresh workspace. The UUID directory name makes
// collisions practically impossible; if one happens anyway Acquire fails
// rather than reuse the path.
func (m *Manager) Acquire(ctx context.Context) (*Workspace, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.EvaluationCanceled)
	}

	id := uuid.NewString()
	root := filepath.Join(m.cfg.RootDir, id)
	if err := os.Mkdir(root, 0o755); err != nil {
		if os.IsExist(err) {
			return nil, errors.Newf(errors.WorkspaceCollision, "workspace %s already exists", root)
		}
		return nil, errors.Wrapf(err, errors.WorkspaceCreateFailed, "create workspace %s", root)
	}
	runDir := filepath.Join(root, runDirName)
	if err := os.Mkdir(runDir, 0o777); err != nil {
		_ = os.RemoveAll(root)
		return nil, errors.Wrapf(err, errors.WorkspaceCreateFailed, "create run dir in workspace %s", root)
	}

	return &Workspace{
		id:      id,
		root:    root,
		runDir:  runDir,
		srcName: m.cfg.SourceFile,
		binName: m.cfg.ArtifactFile,
	}, nil
}

// Release removes the workspace tree unconditionally.
func (m *Manager) Release(ws *Workspace) error {
	if ws == nil {
		return nil
	}
	if err := os.RemoveAll(ws.root); err != nil {
		return errors.Wrapf(err, errors.WorkspaceReleaseFailed, "remove workspace %s", ws.root)
	}
	return nil
}

// ID returns the workspace's unique identifier.
func (w *Workspace) ID() string { return w.id }

// Root returns the workspace directory.
func (w *Workspace) Root() string { return w.root }

// RunDir returns the working directory for sandboxed processes.
func (w *Workspace) RunDir() string { return w.runDir }

// SourcePath is where the submitted source is written.
func (w *Workspace) SourcePath() string { return filepath.Join(w.root, w.srcName) }

// ArtifactPath is where the toolchain writes the built binary.
func (w *Workspace) ArtifactPath() string { return filepath.Join(w.root, w.binName) }

// CompileLogPath captures the toolchain's combined stdout and stderr.
func (w *Workspace) CompileLogPath() string { return filepath.Join(w.root, "compile.log") }

// TestInputPath is the stdin file for test i (1-based).
func (w *Workspace) TestInputPath(i int) string {
	return filepath.Join(w.runDir, fmt.Sprintf("input_%d.txt", i))
}

// TestOutputPath is the stdout capture for test i (1-based).
func (w *Workspace) TestOutputPath(i int) string {
	return filepath.Join(w.runDir, fmt.Sprintf("output_%d.txt", i))
}

// TestErrorPath is the stderr capture for test i (1-based).
func (w *Workspace) TestErrorPath(i int) string {
	return filepath.Join(w.runDir, fmt.Sprintf("error_%d.txt", i))
}
