package profile

import "testing"

func TestDefaultRegistryLanguages(t *testing.T) {
	reg := DefaultRegistry()
	for _, id := range []string{"c", "python", "javascript"} {
		p, ok := reg.Lookup(id)
		if !ok {
			t.Fatalf("language %s missing from default registry", id)
		}
		if p.Image == "" || p.SourceFile == "" || p.RunCmd == "" {
			t.Errorf("language %s has an incomplete profile: %+v", id, p)
		}
	}
	if _, ok := reg.Lookup("cobol"); ok {
		t.Error("unexpected language in registry")
	}
}

func TestCompiled(t *testing.T) {
	reg := DefaultRegistry()
	c, _ := reg.Lookup("c")
	if !c.Compiled() {
		t.Error("c should have a compile step")
	}
	py, _ := reg.Lookup("python")
	if py.Compiled() {
		t.Error("python should not have a compile step")
	}
}

func TestBuildCommand(t *testing.T) {
	argv, err := BuildCommand("gcc -O2 -o solution solution.c")
	if err != nil {
		t.Fatalf("build command: %v", err)
	}
	want := []string{"gcc", "-O2", "-o", "solution", "solution.c"}
	if len(argv) != len(want) {
		t.Fatalf("argv length = %d, want %d", len(argv), len(want))
	}
	for i := range want {
		if argv[i] != want[i] {
			t.Errorf("argv[%d] = %q, want %q", i, argv[i], want[i])
		}
	}
}

func TestBuildCommandQuoted(t *testing.T) {
	argv, err := BuildCommand(`sh -c "echo hi"`)
	if err != nil {
		t.Fatalf("build command: %v", err)
	}
	if len(argv) != 3 || argv[2] != "echo hi" {
		t.Errorf("quoted argument not preserved: %v", argv)
	}
}

func TestBuildCommandEmpty(t *testing.T) {
	if _, err := BuildCommand(""); err == nil {
		t.Error("empty command should be rejected")
	}
	if _, err := BuildCommand("   "); err == nil {
		t.Error("blank command should be rejected")
	}
}
