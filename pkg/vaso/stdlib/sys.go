package stdlib

import (
	"errors"
	"os/exec"
	"runtime"
	"strings"

	"github.com/sambeau/vaso/pkg/vaso/value"
)

var sysFunctions = map[string]builtin{
	"os":   sysOS,
	"arg":  sysArg,
	"env":  sysEnv,
	"exec": sysExec,
}

func sysOS(l *Library, args []value.Value) value.Value {
	return value.Str{Value: runtime.GOOS}
}

// sysArg returns script argument i (0 is the first argument after the
// script path), or unknown when there is none.
func sysArg(l *Library, args []value.Value) value.Value {
	i, ok := intArg(args, 0)
	if !ok {
		return argError("Sys.arg", "(Int)")
	}
	if i < 0 || i >= int64(len(l.opts.Args)) {
		return value.NewStatus(value.Unknown, "No Arg")
	}
	return value.Str{Value: l.opts.Args[i]}
}

func sysEnv(l *Library, args []value.Value) value.Value {
	name, ok := strArg(args, 0)
	if !ok {
		return argError("Sys.env", "(Str)")
	}
	v := l.opts.Getenv(name)
	if v == "" {
		return value.NewStatus(value.Unknown, "Env '"+name+"' not set")
	}
	return value.Str{Value: v}
}

// sysExec runs a command with string arguments and reports on when it
// exits cleanly. The command must pass the execute policy.
func sysExec(l *Library, args []value.Value) value.Value {
	cmd, ok := strArg(args, 0)
	if !ok {
		return argError("Sys.exec", "(Str cmd, Str args...)")
	}
	cmdArgs := make([]string, 0, len(args)-1)
	for i := 1; i < len(args); i++ {
		s, ok := strArg(args, i)
		if !ok {
			return argError("Sys.exec", "(Str cmd, Str args...)")
		}
		cmdArgs = append(cmdArgs, s)
	}

	path, err := exec.LookPath(cmd)
	if err != nil {
		return value.NewError("Exec Error: " + err.Error())
	}
	if err := l.denied(path, "execute"); err != nil {
		return err
	}

	var c *exec.Cmd
	if runtime.GOOS == "windows" {
		c = exec.Command("cmd", append([]string{"/C", cmd}, cmdArgs...)...)
	} else {
		c = exec.Command(path, cmdArgs...)
	}

	var stdout, stderr strings.Builder
	c.Stdout = &stdout
	c.Stderr = &stderr

	if err := c.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return value.NewError("Exec Error: " + err.Error())
		}
		msg := stderr.String()
		if msg == "" {
			msg = stdout.String()
		}
		return value.NewError("CMD Failed: " + strings.TrimSpace(msg))
	}
	return value.ON
}
