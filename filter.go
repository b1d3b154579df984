// Package flowfilter compiles and evaluates flow-filter expressions
// (spec.md §1): a small DSL for selecting IPFIX-style flow records by
// predicates over typed fields. This file is the Public API (spec.md
// §4I): Compile installs a caller-supplied Resolver and runs the
// lexer/parser/analyser pipeline; Evaluate walks the typed AST against
// a caller-supplied Provider; Destroy releases folded Custom constants.
package flowfilter

import (
	"github.com/CESNET/flowfilter/pkg/analysis"
	"github.com/CESNET/flowfilter/pkg/ast"
	"github.com/CESNET/flowfilter/pkg/diag"
	"github.com/CESNET/flowfilter/pkg/eval"
	"github.com/CESNET/flowfilter/pkg/lexer"
	"github.com/CESNET/flowfilter/pkg/logger"
	"github.com/CESNET/flowfilter/pkg/ops"
	"github.com/CESNET/flowfilter/pkg/parser"
	"github.com/CESNET/flowfilter/pkg/value"
)

// Resolver maps an identifier name to its symbol-table entry (spec.md
// §6's resolver callback): type, element-type when List, whether it is
// a compile-time constant, and (for multi-valued fields) whether the
// provider may yield more than one value per record.
type Resolver interface {
	Resolve(name string) (Symbol, bool)
}

// Symbol is what a Resolver reports for one identifier.
type Symbol struct {
	ID          int
	Type        value.DataType
	IsConstant  bool
	Multivalued bool
	Value       value.Value
}

// Provider yields runtime values for resolved identifiers, one record
// at a time (spec.md §6's value provider callback). reset=true is
// passed exactly once per record per identifier id; thereafter OkMore
// means another value is available, Ok means the last one, Fail means
// none at all.
type Provider interface {
	Value(id int, userCtx interface{}, reset bool, input interface{}) (value.Value, eval.Result)
}

// Re-export the provider result codes so callers never need to import
// pkg/eval directly.
const (
	ResultOk     = eval.ResultOk
	ResultOkMore = eval.ResultOkMore
	ResultFail   = eval.ResultFail
)

// Filter is a compiled flow-filter expression (spec.md §3's "Compiled
// filter"). It exclusively owns its typed AST, diagnostics, and any
// folded Custom constants; it borrows the resolver, provider and user
// context for its lifetime (spec.md §5).
type Filter struct {
	resolver Resolver
	provider Provider
	userCtx  interface{}

	ops   *ops.Table
	diags *diag.Channel

	root      *ast.Node
	folded    []analysis.Folded
	evaluator *eval.Evaluator

	compiled bool
}

// resolverAdapter bridges the public Resolver interface to the two
// narrower shapes pkg/lexer (multi-word greedy matching) and
// pkg/analysis (name resolution proper) each need, so callers of this
// package implement one interface instead of two.
type resolverAdapter struct{ r Resolver }

func (a resolverAdapter) Resolves(name string) bool {
	if a.r == nil {
		return false
	}
	_, ok := a.r.Resolve(name)
	return ok
}

func (a resolverAdapter) Resolve(name string) (analysis.Info, bool) {
	if a.r == nil {
		return analysis.Info{}, false
	}
	sym, ok := a.r.Resolve(name)
	if !ok {
		return analysis.Info{}, false
	}
	return analysis.Info{
		ID:          sym.ID,
		Type:        sym.Type,
		IsConstant:  sym.IsConstant,
		Multivalued: sym.Multivalued,
		Value:       sym.Value,
	}, true
}

// New creates an empty, uncompiled filter. The operator table starts
// from the built-in registry (spec.md §4C); ExtendOps appends entries
// before Compile runs.
func New() *Filter {
	return &Filter{ops: ops.NewTable(), diags: diag.NewChannel()}
}

// SetResolver installs the symbol resolver Compile will use for name
// resolution (spec.md §6).
func (f *Filter) SetResolver(r Resolver) { f.resolver = r }

// SetProvider installs the value provider used to fetch per-record
// field values (spec.md §6). Compile hands it to the evaluator, so a
// provider set after Compile takes effect at the next Compile.
func (f *Filter) SetProvider(p Provider) { f.provider = p }

// SetUserContext installs the opaque pointer passed back unchanged to
// the provider's userCtx parameter; Resolver.Resolve takes no context.
// Like the provider, it is captured by Compile.
func (f *Filter) SetUserContext(ctx interface{}) { f.userCtx = ctx }

// ExtendOps appends user-supplied operator entries after the built-ins
// (spec.md §4I); on a tied match the latest-appended entry wins
// (spec.md §4C).
func (f *Filter) ExtendOps(entries ...ops.Entry) { f.ops.Extend(entries...) }

// Compile runs the lexer, parser and semantic analyser over expr
// (spec.md §2 phases D-F) and reports success. On failure the filter
// retains its diagnostics (spec.md §4I); on success it is ready for
// repeated calls to Evaluate against distinct records.
func (f *Filter) Compile(expr string) bool {
	f.compiled = false
	f.root = nil
	f.folded = nil
	f.diags.Reset()

	logger.Debugf("compiling filter expression (instance=%s): %s", f.diags.InstanceID, expr)

	root, err := parser.Parse(expr, resolverAdapter{f.resolver})
	if err != nil {
		f.reportParseError(err)
		return false
	}

	analyzer := analysis.New(resolverAdapter{f.resolver}, f.ops, f.diags)
	typed, ok := analyzer.Analyze(root)
	if !ok {
		logger.Debugf("filter analysis failed with %d diagnostics", f.diags.Count())
		return false
	}

	f.root = typed
	f.folded = analyzer.Folded()
	f.evaluator = eval.New(f.ops, f.diags, f.provider, f.userCtx)
	f.compiled = true
	return true
}

// Evaluate returns the filter's boolean verdict for one record. It is
// re-entrant against distinct inputs but not safe for concurrent calls
// against the same Filter instance (spec.md §5). Evaluating an
// uncompiled or failed-to-compile filter returns false and appends an
// Internal diagnostic.
func (f *Filter) Evaluate(input interface{}) bool {
	if !f.compiled {
		f.diags.Add(diag.CodeInternal, ast.Span{}, "evaluate called on an uncompiled filter")
		return false
	}
	return f.evaluator.Evaluate(f.root, input)
}

// Destroy releases the typed AST and invokes every folded Custom
// constant's destructor (spec.md §4I). The Filter must not be used
// afterward.
func (f *Filter) Destroy() {
	for _, folded := range f.folded {
		if folded.Destructor != nil {
			folded.Destructor(folded.Value)
		}
	}
	f.folded = nil
	f.root = nil
	f.evaluator = nil
	f.compiled = false
}

// ErrorCount returns the number of accumulated diagnostics (spec.md
// §4H's get_error_count).
func (f *Filter) ErrorCount() int { return f.diags.Count() }

// ErrorMessage returns the message of the i'th diagnostic (spec.md
// §4H's get_error_message), or "" if i is out of range.
func (f *Filter) ErrorMessage(i int) string {
	d, ok := f.diags.At(i)
	if !ok {
		return ""
	}
	return d.Message
}

// ErrorLocation returns the i'th diagnostic's source span (spec.md
// §4H's get_error_location).
func (f *Filter) ErrorLocation(i int) (begin, end int, ok bool) {
	d, found := f.diags.At(i)
	if !found {
		return 0, 0, false
	}
	return d.Span.Begin, d.Span.End, true
}

// Diagnostics returns every accumulated diagnostic in append order.
func (f *Filter) Diagnostics() []diag.Diagnostic { return f.diags.All() }

// Root exposes the compiled typed AST for introspection (e.g. test
// hooks confirming a literal IP list folded to a trie constant, as in
// spec.md §8 scenario 1). It is nil until Compile succeeds.
func (f *Filter) Root() *ast.Node { return f.root }

// reportParseError records a LexError or ParseError surfaced before
// semantic analysis ever runs, preserving the originating phase's
// diagnostic code and span (spec.md §7).
func (f *Filter) reportParseError(err error) {
	switch e := err.(type) {
	case *lexer.Error:
		f.diags.Add(diag.CodeLex, e.Span, "%s", e.Message)
	case *parser.Error:
		f.diags.Add(diag.CodeParse, e.Span, "%s", e.Message)
	default:
		f.diags.Add(diag.CodeParse, ast.Span{}, "%s", err.Error())
	}
}
