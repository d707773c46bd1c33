// Package toolchain describes how a language's sources are compiled and run.
package toolchain

import (
	"strings"

	"github.com/google/shlex"

	"codecoach/pkg/errors"
)

// Placeholders recognized in command templates.
const (
	placeholderSrc = "{src}"
	placeholderBin = "{bin}"
)

// Spec describes one supported toolchain. Command templates are split with
// shell-style lexing once at validation time and substituted per run, so
// submission-controlled data never reaches a shell.
type Spec struct {
	Language     string `yaml:"language"`
	SourceFile   string `yaml:"source_file"`
	ArtifactFile string `yaml:"artifact_file"`
	CompileCmd   string `yaml:"compile_cmd"` // e.g. "g++ -O2 -std=c++17 -o {bin} {src}"
	RunCmd       string `yaml:"run_cmd"`     // e.g. "{bin}"
}

// DefaultCpp is the stock C++ toolchain.
func DefaultCpp() Spec {
	return Spec{
		Language:     "cpp",
		SourceFile:   "solution.cpp",
		ArtifactFile: "solution",
		CompileCmd:   "g++ -O2 -std=c++17 -o {bin} {src}",
		RunCmd:       "{bin}",
	}
}

// Validate checks the spec is complete and its templates lex cleanly.
func (s *Spec) Validate() error {
	if s.Language == "" || s.SourceFile == "" || s.ArtifactFile == "" {
		return errors.New(errors.BadCommandTemplate).WithMessage("toolchain spec missing language or file names")
	}
	if strings.TrimSpace(s.CompileCmd) == "" {
		return errors.New(errors.BadCommandTemplate).WithMessage("toolchain spec missing compile_cmd")
	}
	if strings.TrimSpace(s.RunCmd) == "" {
		s.RunCmd = placeholderBin
	}
	if _, err := splitTemplate(s.CompileCmd, "x", "x"); err != nil {
		return err
	}
	if _, err := splitTemplate(s.RunCmd, "x", "x"); err != nil {
		return err
	}
	if !strings.Contains(s.CompileCmd, placeholderSrc) {
		return errors.New(errors.BadCommandTemplate).WithMessage("compile_cmd does not reference {src}")
	}
	return nil
}

// CompileCommand returns the argv for compiling srcPath into binPath.
func (s *Spec) CompileCommand(srcPath, binPath string) ([]string, error) {
	return splitTemplate(s.CompileCmd, srcPath, binPath)
}

// RunCommand returns the argv for executing the built artifact.
func (s *Spec) RunCommand(binPath string) ([]string, error) {
	return splitTemplate(s.RunCmd, "", binPath)
}

func splitTemplate(tmpl, srcPath, binPath string) ([]string, error) {
	parts, err := shlex.Split(tmpl)
	if err != nil {
		return nil, errors.Wrapf(err, errors.BadCommandTemplate, "bad command template %q", tmpl)
	}
	if len(parts) == 0 {
		return nil, errors.Newf(errors.BadCommandTemplate, "empty command template %q", tmpl)
	}
	argv := make([]string, len(parts))
	for i, p := range parts {
		p = strings.ReplaceAll(p, placeholderSrc, srcPath)
		p = strings.ReplaceAll(p, placeholderBin, binPath)
		argv[i] = p
	}
	return argv, nil
}
