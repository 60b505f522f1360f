package architecture_test

import (
	"bufio"
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

// Lower layers never reach upward: platform knows nothing of the domain,
// the domain packages know nothing of HTTP, and only app wires everything.
var layers = []struct {
	prefix string
	banned []string
}{
	{"internal/platform/", []string{"internal/analysis", "internal/extract", "internal/lexicon", "internal/data", "internal/http", "internal/app"}},
	{"internal/observability/", []string{"internal/analysis", "internal/extract", "internal/lexicon", "internal/http", "internal/app"}},
	{"internal/domain/", []string{"internal/data", "internal/analysis", "internal/http", "internal/app"}},
	{"internal/data/", []string{"internal/analysis", "internal/extract", "internal/lexicon", "internal/http", "internal/app"}},
	{"internal/analysis/", []string{"internal/extract", "internal/lexicon", "internal/http", "internal/app"}},
	{"internal/extract/", []string{"internal/analysis", "internal/lexicon", "internal/http", "internal/app"}},
	{"internal/lexicon/", []string{"internal/extract", "internal/http", "internal/app"}},
	{"internal/http/", []string{"internal/app", "internal/platform/gemini", "internal/platform/openai", "internal/platform/gcp"}},
}

func bannedFor(rel string) []string {
	for _, l := range layers {
		if strings.HasPrefix(rel, l.prefix) {
			return l.banned
		}
	}
	return nil
}

func TestImportBoundaries(t *testing.T) {
	start, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	root, err := findModuleRoot(start)
	if err != nil {
		t.Fatalf("find module root: %v", err)
	}
	modulePath, err := readModulePath(filepath.Join(root, "go.mod"))
	if err != nil {
		t.Fatalf("read module path: %v", err)
	}

	fset := token.NewFileSet()
	var violations []string

	walkErr := filepath.WalkDir(filepath.Join(root, "internal"), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		banned := bannedFor(rel)
		if len(banned) == 0 {
			return nil
		}

		f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if err != nil {
			return err
		}
		for _, spec := range f.Imports {
			imp, err := strconv.Unquote(spec.Path.Value)
			if err != nil || !strings.HasPrefix(imp, modulePath+"/") {
				continue
			}
			local := strings.TrimPrefix(imp, modulePath+"/")
			for _, b := range banned {
				if local == b || strings.HasPrefix(local, b+"/") {
					violations = append(violations, fmt.Sprintf("- %s imports %q", rel, imp))
					break
				}
			}
		}
		return nil
	})
	if walkErr != nil {
		t.Fatalf("walk internal/: %v", walkErr)
	}
	if len(violations) > 0 {
		t.Fatalf("import boundary violations:\n%s", strings.Join(violations, "\n"))
	}
}

func findModuleRoot(dir string) (string, error) {
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found")
		}
		dir = parent
	}
}

func readModulePath(goModPath string) (string, error) {
	f, err := os.Open(goModPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if mp, ok := strings.CutPrefix(line, "module "); ok {
			return strings.TrimSpace(mp), nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("module path not found in %s", goModPath)
}
