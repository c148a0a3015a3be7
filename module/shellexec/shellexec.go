// Package shellexec provides ShellExecutor, an ExecuteCode module that runs
// caller-supplied code through a local shell. It requires the executors
// permission: loading it is refused unless the learning agent has executors
// enabled.
package shellexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"github.com/DosakuNet/dosaku/core"
	"github.com/DosakuNet/dosaku/task"
)

// Name is the registered module name.
const Name = "ShellExecutor"

// Executor runs code via `shell -c code`.
type Executor struct {
	shell string
	dir   string
}

// New constructs the module. Config keys: shell (string, default /bin/sh),
// dir (string, working directory, default inherited).
func New(cfg core.Config) (core.Module, error) {
	return &Executor{
		shell: cfg.String("shell", "/bin/sh"),
		dir:   cfg.String("dir", ""),
	}, nil
}

// Manifest declares ShellExecutor to a module manager.
func Manifest() core.Manifest {
	return core.Manifest{
		Name:              Name,
		Doc:               "Runs caller-supplied code through a local shell.",
		Tasks:             []string{task.ExecuteCode.Name},
		Actions:           []string{"execute", core.CallOperator},
		RequiresExecutors: true,
		New:               New,
	}
}

// Name implements core.Module.
func (e *Executor) Name() string { return Name }

// Actions implements core.Module.
func (e *Executor) Actions() map[string]core.ActionFunc {
	return map[string]core.ActionFunc{
		"execute":         e.execute,
		core.CallOperator: e.execute,
	}
}

func (e *Executor) execute(ctx context.Context, args map[string]any) (any, error) {
	code, _ := args["code"].(string)
	if code == "" {
		return nil, fmt.Errorf("execute requires a non-empty code argument")
	}

	cmd := exec.CommandContext(ctx, e.shell, "-c", code)
	cmd.Dir = e.dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := task.ExecutionResult{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return nil, err
	}
	return result, nil
}
