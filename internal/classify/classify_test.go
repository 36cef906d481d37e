package classify

import (
	"os"
	"path/filepath"
	"testing"
)

func TestClassifyFolder(t *testing.T) {
	dir := t.TempDir()
	info, err := os.Lstat(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got := Classify(dir, info); got != Folder {
		t.Errorf("Classify(dir) = %v, want Folder", got)
	}
}

func TestClassifyByExtension(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]Kind{
		"photo.png":   Image,
		"report.pdf":  Document,
		"archive.zip": Archive,
		"movie.mp4":   Video,
		"song.mp3":    Audio,
		"notes.xyz":   File,
	}
	for name, want := range cases {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		info, err := os.Lstat(p)
		if err != nil {
			t.Fatal(err)
		}
		if got := Classify(p, info); got != want {
			t.Errorf("Classify(%s) = %v, want %v", name, got, want)
		}
	}
}

func TestClassifyExecutable(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "run.sh")
	if err := os.WriteFile(p, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	info, err := os.Lstat(p)
	if err != nil {
		t.Fatal(err)
	}
	if got := Classify(p, info); got != Executable {
		t.Errorf("Classify(executable) = %v, want Executable", got)
	}
}

func TestClassifySymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target.txt")
	if err := os.WriteFile(target, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Fatal(err)
	}
	info, err := os.Lstat(link)
	if err != nil {
		t.Fatal(err)
	}
	if got := Classify(link, info); got != Symlink {
		t.Errorf("Classify(symlink) = %v, want Symlink", got)
	}
}

func TestScriptName(t *testing.T) {
	if got := Folder.ScriptName(); got != "folder.lua" {
		t.Errorf("Folder.ScriptName() = %q, want folder.lua", got)
	}
	if got := Unknown.ScriptName(); got != "file.lua" {
		t.Errorf("Unknown.ScriptName() = %q, want file.lua", got)
	}
}
