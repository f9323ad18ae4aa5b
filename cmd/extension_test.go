package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunExtension(t *testing.T) {
	dir := t.TempDir()
	result := filepath.Join(dir, "result.txt")
	script := "#!/bin/sh\necho \"$" + EnvConfigFile + " $" + EnvVerbose + " $1\" > \"$RESULT\"\nexit 3\n"
	if err := os.WriteFile(filepath.Join(dir, "fin-hello"), []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
	t.Setenv("RESULT", result)

	found, code := RunExtension("hello", []string{"world"})
	if !found || code != 3 {
		t.Fatalf("got (%v, %d), want (true, 3)", found, code)
	}
	got, err := os.ReadFile(result)
	if err != nil {
		t.Fatal(err)
	}
	if want := *configFile + " false world"; strings.TrimSpace(string(got)) != want {
		t.Errorf("got %q, want %q", got, want)
	}

	if found, _ := RunExtension("does-not-exist", nil); found {
		t.Errorf("found a missing extension")
	}
}
