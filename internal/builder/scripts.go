package builder

import (
	"fmt"
	"strings"

	"github.com/toltec-dev/toltecmk/internal/bash"
	"github.com/toltec-dev/toltecmk/internal/recipe"
)

// branch runs a hook when a maintainer script receives arg
type branch struct {
	hook string
	arg  string
}

// scriptSlots maps each maintainer script to the hooks it dispatches to
var scriptSlots = []struct {
	slot     string
	branches []branch
}{
	{"preinst", []branch{{recipe.HookPreinstall, "install"}}},
	{"postinst", []branch{{recipe.HookConfigure, "configure"}}},
	{"prerm", []branch{{recipe.HookPreupgrade, "upgrade"}, {recipe.HookPreremove, "remove"}}},
	{"postrm", []branch{{recipe.HookPostupgrade, "upgrade"}, {recipe.HookPostremove, "remove"}}},
}

// ScriptHeader returns the preamble shared by the maintainer scripts of pkg
func ScriptHeader(pkg *recipe.Package, installLib string) (string, error) {
	bindings, err := bash.PutVariables(pkg.Variables)
	if err != nil {
		return "", err
	}

	return strings.Join([]string{
		"#!/usr/bin/env bash\nset -e\n",
		bindings,
		installLib,
	}, "\n"), nil
}

// SynthesizeScripts converts the lifecycle hooks of pkg to maintainer
// scripts. Scripts without any declared hook are left out.
func SynthesizeScripts(pkg *recipe.Package, installLib string) (map[string]string, error) {
	scripts := make(map[string]string)

	var header string
	for _, slot := range scriptSlots {
		var body strings.Builder

		for _, br := range slot.branches {
			if hook := pkg.Install[br.hook]; strings.TrimSpace(hook) != "" {
				body.WriteString(dispatch(br.arg, hook))
			}
		}

		if body.Len() == 0 {
			continue
		}

		if header == "" {
			var err error
			if header, err = ScriptHeader(pkg, installLib); err != nil {
				return nil, err
			}
		}

		scripts[slot.slot] = header + "\n" + body.String()
	}

	return scripts, nil
}

// dispatch wraps a hook in a function so that a return in its body does not
// end the whole script
func dispatch(arg, hook string) string {
	return fmt.Sprintf("if [[ $1 = %s ]]; then\n    fun() {\n%s\n    }\n    fun\nfi\n", arg, hook)
}
