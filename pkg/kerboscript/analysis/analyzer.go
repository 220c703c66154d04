// Package analysis coordinates full-document validation across a workspace.
// An Analyzer scans, parses, and resolves each document, follows its run
// instructions to validate dependencies first, and links their symbol tables
// so cross-document lookups resolve. Results are kept per URI and replaced
// wholesale on re-validation.
package analysis

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	mapset "github.com/deckarep/golang-set"

	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/ast"
	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/diag"
	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/parser"
	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/resolver"
	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/scanner"
	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/scope"
	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/stdlib"
	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/token"
)

// DocumentInfo is the complete analysis result for one document.
type DocumentInfo struct {
	URI         string
	Script      *ast.Script
	Table       *scope.Table
	Diagnostics []diag.Diagnostic
}

// Analyzer validates documents and tracks their results. All methods are safe
// for concurrent use; validation of one document, including its dependency
// chain, runs to completion before another begins.
type Analyzer struct {
	mu      sync.RWMutex
	loader  Loader
	catalog *stdlib.Catalog
	logger  *slog.Logger
	docs    map[string]*DocumentInfo
}

// NewAnalyzer returns an analyzer backed by loader. A nil logger discards.
func NewAnalyzer(loader Loader, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Analyzer{
		loader:  loader,
		catalog: stdlib.NewCatalog(),
		logger:  logger,
		docs:    make(map[string]*DocumentInfo),
	}
}

// GetInfo returns the last validation result for uri, or nil.
func (a *Analyzer) GetInfo(uri string) *DocumentInfo {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.docs[uri]
}

// Documents returns the results for every validated document.
func (a *Analyzer) Documents() []*DocumentInfo {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]*DocumentInfo, 0, len(a.docs))
	for _, info := range a.docs {
		out = append(out, info)
	}
	return out
}

// Dependents returns the URIs of documents whose tables depend on uri's
// table, for callers that re-validate downstream documents after a change.
func (a *Analyzer) Dependents(uri string) []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	info := a.docs[uri]
	if info == nil || info.Table == nil {
		return nil
	}
	var out []string
	for _, t := range info.Table.Dependents() {
		out = append(out, t.URI)
	}
	return out
}

// ValidateDocument analyzes text as the content of uri. Documents named by
// run instructions are validated first (loading them through the loader when
// they have no result yet) and their symbol tables linked as dependencies, so
// symbols they declare at the top level resolve here. The previous result for
// uri, if any, is replaced and its table unlinked from the dependency graph.
func (a *Analyzer) ValidateDocument(ctx context.Context, uri, text string) (*DocumentInfo, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.validate(ctx, uri, text, mapset.NewThreadUnsafeSet())
}

// validate runs one document; visited carries the URIs already on the current
// dependency chain so load cycles terminate.
func (a *Analyzer) validate(ctx context.Context, uri, text string, visited mapset.Set) (*DocumentInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	visited.Add(uri)

	tokens := scanner.Scan(text, uri)
	result := parser.New(tokens, parser.WithLogger(a.logger)).Parse()

	var diags []diag.Diagnostic
	for _, pe := range result.Errors {
		diags = append(diags, pe.Diagnostic(uri))
	}

	var deps []*scope.Table
	for _, load := range result.Loads {
		script, rng, ok := loadTarget(load)
		if !ok {
			continue
		}
		depURI, err := a.loader.Resolve(uri, script)
		if err != nil {
			diags = append(diags, diag.NewError(rng, diag.CodeLoad,
				fmt.Sprintf("unable to resolve '%s': %v", script, err)))
			continue
		}
		if visited.Contains(depURI) {
			// A load cycle. Link the table we already have, if any, and move
			// on rather than recursing forever.
			if info := a.docs[depURI]; info != nil {
				deps = append(deps, info.Table)
			}
			continue
		}
		info := a.docs[depURI]
		if info == nil {
			depText, err := a.loader.Load(ctx, depURI)
			if err != nil {
				diags = append(diags, diag.NewError(rng, diag.CodeLoad,
					fmt.Sprintf("unable to load '%s': %v", script, err)))
				continue
			}
			info, err = a.validate(ctx, depURI, depText, visited)
			if err != nil {
				return nil, err
			}
		}
		deps = append(deps, info.Table)
	}

	builder := scope.NewBuilder(uri, a.logger)
	for _, dep := range deps {
		builder.Table().AddDependency(dep)
	}

	diags = append(diags, resolver.Resolve(result.Script, builder, a.catalog, a.logger)...)
	table := builder.Build()

	if old := a.docs[uri]; old != nil && old.Table != nil {
		old.Table.DetachDependencies()
		old.Table.TransferDependentsTo(table)
	}

	info := &DocumentInfo{URI: uri, Script: result.Script, Table: table, Diagnostics: diags}
	a.docs[uri] = info
	a.logger.Debug("validated document", "uri", uri,
		"diagnostics", len(diags), "dependencies", len(deps))
	return info, nil
}

// loadTarget extracts a statically known script path from a run instruction.
// Computed runpath arguments cannot be followed and report not-ok.
func loadTarget(inst ast.Instruction) (script string, rng diag.Range, ok bool) {
	switch n := inst.(type) {
	case *ast.Run:
		if s, isStr := n.Path.Literal.(string); isStr {
			return s, n.Range(), true
		}
		return n.Path.Lexeme, n.Range(), true
	case *ast.RunPath:
		lit, isLit := n.Expr.(*ast.Literal)
		if !isLit || lit.Token.Kind != token.STRING {
			return "", diag.Range{}, false
		}
		if s, isStr := lit.Token.Literal.(string); isStr {
			return s, n.Range(), true
		}
		return lit.Token.Lexeme, n.Range(), true
	}
	return "", diag.Range{}, false
}
