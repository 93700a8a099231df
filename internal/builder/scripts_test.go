package builder

import (
	"bytes"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/toltec-dev/toltecmk/internal/recipe"
)

const installLib = "log() {\n    echo \"$@\"\n}\n"

func parsePackage(t *testing.T, hooks string) *recipe.Package {
	t.Helper()

	r, err := recipe.Parse("hello", `
pkgnames=(hello)
pkgdesc="Say hello"
url=https://example.com/hello
pkgver=1.0.0-1
timestamp=2021-03-09T16:40Z
section=utils
maintainer=someone
license=MIT

package() {
    true
}
`+hooks)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return r.Packages["hello"]
}

func TestSynthesizeScriptsNone(t *testing.T) {
	scripts, err := SynthesizeScripts(parsePackage(t, ""), installLib)
	if err != nil {
		t.Fatalf("SynthesizeScripts failed: %v", err)
	}
	if len(scripts) != 0 {
		t.Errorf("Expected no scripts, got %v", scripts)
	}
}

func TestSynthesizeScriptsSingleBranch(t *testing.T) {
	pkg := parsePackage(t, "preremove() {\n    systemctl stop hello\n}\n")

	scripts, err := SynthesizeScripts(pkg, installLib)
	if err != nil {
		t.Fatalf("SynthesizeScripts failed: %v", err)
	}

	if len(scripts) != 1 {
		t.Fatalf("Expected exactly one script, got %v", scripts)
	}
	prerm, ok := scripts["prerm"]
	if !ok {
		t.Fatalf("Expected a prerm script, got %v", scripts)
	}

	if strings.Count(prerm, "if [[ $1 = ") != 1 || !strings.Contains(prerm, "if [[ $1 = remove ]]; then\n") {
		t.Errorf("Expected a single remove branch:\n%s", prerm)
	}

	header, err := ScriptHeader(pkg, installLib)
	if err != nil {
		t.Fatalf("ScriptHeader failed: %v", err)
	}
	want := header + "\n" + "if [[ $1 = remove ]]; then\n    fun() {\n    systemctl stop hello\n    }\n    fun\nfi\n"
	if diff := cmp.Diff(want, prerm); diff != "" {
		t.Errorf("Script mismatch (-want +got):\n%s", diff)
	}
}

func TestSynthesizeScriptsAllHooks(t *testing.T) {
	var hooks bytes.Buffer
	for _, hook := range recipe.Hooks {
		hooks.WriteString(hook + "() {\n    echo " + hook + "\n}\n")
	}

	scripts, err := SynthesizeScripts(parsePackage(t, hooks.String()), installLib)
	if err != nil {
		t.Fatalf("SynthesizeScripts failed: %v", err)
	}

	names := make([]string, 0, len(scripts))
	for name := range scripts {
		names = append(names, name)
	}
	sort.Strings(names)
	if diff := cmp.Diff([]string{"postinst", "postrm", "preinst", "prerm"}, names); diff != "" {
		t.Errorf("Script set mismatch (-want +got):\n%s", diff)
	}

	tests := []struct {
		slot string
		args []string
	}{
		{"preinst", []string{"install"}},
		{"postinst", []string{"configure"}},
		{"prerm", []string{"upgrade", "remove"}},
		{"postrm", []string{"upgrade", "remove"}},
	}

	for _, tt := range tests {
		script := scripts[tt.slot]
		if strings.Count(script, "if [[ $1 = ") != len(tt.args) {
			t.Errorf("%s: expected %d branches:\n%s", tt.slot, len(tt.args), script)
		}

		last := -1
		for _, arg := range tt.args {
			idx := strings.Index(script, "if [[ $1 = "+arg+" ]]")
			if idx < 0 || idx < last {
				t.Errorf("%s: branch %s missing or out of order", tt.slot, arg)
			}
			last = idx
		}
	}

	if !strings.Contains(scripts["prerm"], "echo preupgrade") || !strings.Contains(scripts["prerm"], "echo preremove") {
		t.Errorf("prerm should dispatch to both pre hooks:\n%s", scripts["prerm"])
	}
}

func TestScriptHeader(t *testing.T) {
	header, err := ScriptHeader(parsePackage(t, ""), installLib)
	if err != nil {
		t.Fatalf("ScriptHeader failed: %v", err)
	}

	if !strings.HasPrefix(header, "#!/usr/bin/env bash\nset -e\n") {
		t.Errorf("Unexpected header start:\n%s", header)
	}
	if !strings.Contains(header, "pkgname=") || !strings.Contains(header, "pkgver=") {
		t.Errorf("Header should bind the package variables:\n%s", header)
	}
	if !strings.HasSuffix(header, installLib) {
		t.Errorf("Header should end with the helper library:\n%s", header)
	}
}
