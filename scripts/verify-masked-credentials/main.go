// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// verify-masked-credentials fails when a log field that can carry the stream
// key is written without going through the log package's mask helpers.
//
//	go run ./scripts/verify-masked-credentials ./...
package main

import (
	"fmt"
	"go/ast"
	"go/token"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/packages"
)

// guardedFields maps credential-bearing field constants to the mask helpers
// allowed to produce their value.
var guardedFields = map[string]map[string]struct{}{
	"FieldStreamKey": {"MaskKey": {}},
	"FieldBaseURL":   {"MaskURL": {}},
}

// fieldSetters are the zerolog event/context methods taking (key, value).
var fieldSetters = map[string]struct{}{
	"Str":         {},
	"Stringer":    {},
	"Interface":   {},
	"Any":         {},
	"RawJSON":     {},
	"Strs":        {},
	"Stringers":   {},
	"Bytes":       {},
	"Hex":         {},
	"Fields":      {},
	"RawCBOR":     {},
	"Object":      {},
	"EmbedObject": {},
}

func main() {
	patterns := os.Args[1:]
	if len(patterns) == 0 {
		patterns = []string{"./..."}
	}
	violations, err := Analyze(patterns...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analysis failed: %v\n", err)
		os.Exit(2)
	}
	if len(violations) > 0 {
		fmt.Fprintln(os.Stderr, "❌ unmasked credential logging found:")
		for _, v := range violations {
			fmt.Fprintln(os.Stderr, v)
		}
		os.Exit(1)
	}
	fmt.Println("✓ credential log fields are masked")
}

// Analyze inspects the syntax of the matched packages.
func Analyze(patterns ...string) ([]string, error) {
	cfg := &packages.Config{
		Mode:  packages.NeedName | packages.NeedFiles | packages.NeedSyntax,
		Dir:   ".",
		Tests: true,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("load packages: %w", err)
	}

	seen := make(map[string]struct{})
	var violations []string
	for _, pkg := range pkgs {
		for _, file := range pkg.Syntax {
			filename := pkg.Fset.Position(file.Pos()).Filename
			if _, dup := seen[filename]; dup {
				continue
			}
			seen[filename] = struct{}{}
			violations = append(violations, inspectFile(pkg.Fset, filename, file)...)
		}
	}
	return violations, nil
}

func inspectFile(fset *token.FileSet, filename string, file *ast.File) []string {
	var out []string
	ast.Inspect(file, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok || len(call.Args) != 2 {
			return true
		}
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return true
		}
		if _, ok := fieldSetters[sel.Sel.Name]; !ok {
			return true
		}
		field := selectorName(call.Args[0])
		allowed, guarded := guardedFields[field]
		if !guarded {
			return true
		}
		if _, ok := allowed[selectorName(callee(call.Args[1]))]; ok {
			return true
		}
		out = append(out, formatViolation(fset, filename, call.Pos(),
			fmt.Sprintf("%s written via %s without %s", field, sel.Sel.Name, names(allowed))))
		return true
	})
	return out
}

func callee(e ast.Expr) ast.Expr {
	if c, ok := e.(*ast.CallExpr); ok {
		return c.Fun
	}
	return nil
}

func selectorName(e ast.Expr) string {
	switch v := e.(type) {
	case *ast.SelectorExpr:
		return v.Sel.Name
	case *ast.Ident:
		return v.Name
	}
	return ""
}

func names(set map[string]struct{}) string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, "log."+k)
	}
	return strings.Join(out, "/")
}

func formatViolation(fset *token.FileSet, filename string, pos token.Pos, msg string) string {
	if rel, err := filepath.Rel(".", filename); err == nil {
		filename = rel
	}
	return fmt.Sprintf("%s:%d: %s", filename, fset.Position(pos).Line, msg)
}
