package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/semver"

	"github.com/go-flint/flint/cmd/flint/internal/config"
)

func init() {
	RegisterCommand(&Command{
		Name:  "doctor",
		Short: "Check the project and toolchain",
		Long: `Check the working directory for a usable Flint project.

Verifies that go.mod parses, that the installed Go toolchain satisfies the
module's minimum version, and that flint.yaml (when present) is valid.`,
		Usage: "flint doctor",
		Run:   runDoctor,
	})
}

func runDoctor(args []string) error {
	dir, err := os.Getwd()
	if err != nil {
		return err
	}

	failed := false
	check := func(ok bool, label, detail string) {
		mark := "ok"
		if !ok {
			mark = "FAIL"
			failed = true
		}
		if detail != "" {
			fmt.Printf("[%s] %-24s %s\n", mark, label, detail)
		} else {
			fmt.Printf("[%s] %s\n", mark, label)
		}
	}

	modPath := filepath.Join(dir, "go.mod")
	data, err := os.ReadFile(modPath)
	if err != nil {
		check(false, "go.mod", err.Error())
		return fmt.Errorf("doctor found problems")
	}
	file, err := modfile.Parse(modPath, data, nil)
	if err != nil {
		check(false, "go.mod", err.Error())
		return fmt.Errorf("doctor found problems")
	}

	module := "(unnamed)"
	if file.Module != nil {
		module = file.Module.Mod.Path
	}
	check(true, "module", module)
	check(true, "dependencies", fmt.Sprintf("%d required", len(file.Require)))

	toolchain := strings.TrimPrefix(runtime.Version(), "go")
	if file.Go != nil {
		want := file.Go.Version
		ok := semver.Compare("v"+toolchain, "v"+want) >= 0
		check(ok, "go version", fmt.Sprintf("need %s, have %s", want, toolchain))
	} else {
		check(false, "go version", "go.mod has no go directive")
	}

	if _, err := config.Resolve(dir); err != nil {
		check(false, "flint.yaml", err.Error())
	} else {
		check(true, "flint.yaml", "")
	}

	if failed {
		return fmt.Errorf("doctor found problems")
	}
	fmt.Println("\nNo issues found.")
	return nil
}
