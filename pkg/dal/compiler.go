// Package dal compiles DAL query text into core.Criteria.
//
// # Usage
//
//	c := dal.NewCompiler(resolver, dal.WithBasePackage("acme"))
//	crit, err := c.Compile("SELECT name FROM Pigeon WHERE age > 3")
//	if err != nil {
//	    // *core.SyntaxError or *core.SchemaError
//	}
//
// # Grammar Overview
//
//	query       → SELECT select_list FROM type
//	              [WHERE restriction] [GROUP BY path_list]
//	              [ORDER BY order_list] [LIMIT int] [OFFSET int]
//	select_list → select_item (',' select_item)*
//	select_item → path | '*' | FUNC '(' path ')'
//	restriction → '(' restriction ')'
//	            | restriction (AND|OR) restriction
//	            | NOT restriction
//	            | path op value
//	            | path IN '(' (value_list | query) ')'
//	            | path ISNULL
//
// Keywords are case-insensitive; paths, type names and literals are not.
// Compilation is fail-fast: the first SyntaxError or SchemaError is returned
// and no partial Criteria is produced.
package dal

import (
	"io"
	"log/slog"
	"math"

	"github.com/leapstack-labs/dalc/pkg/core"
	"github.com/leapstack-labs/dalc/pkg/token"
)

// Defaults for compiler options.
const (
	DefaultSystemPackage = "platform.basic"
	DefaultMaxDepth      = 32
	// DefaultFieldToken in a select list selects the type's default field.
	DefaultFieldToken = "*"
)

// Compiler compiles DAL queries against a schema. It holds no per-query
// state and is safe for concurrent use if its resolver is.
type Compiler struct {
	resolver      core.Resolver
	basePackage   string
	systemPackage string
	operators     string
	maxDepth      int
	logger        *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithBasePackage sets the package tried for unqualified type names.
func WithBasePackage(pkg string) Option {
	return func(c *Compiler) { c.basePackage = pkg }
}

// WithSystemPackage sets the package of built-in types, tried after the
// base package.
func WithSystemPackage(pkg string) Option {
	return func(c *Compiler) { c.systemPackage = pkg }
}

// WithOperatorChars sets the characters the lexer splits into operators.
func WithOperatorChars(chars string) Option {
	return func(c *Compiler) { c.operators = chars }
}

// WithMaxDepth bounds restriction and subquery nesting.
func WithMaxDepth(depth int) Option {
	return func(c *Compiler) {
		if depth > 0 {
			c.maxDepth = depth
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCompiler creates a compiler resolving types through r.
func NewCompiler(r core.Resolver, opts ...Option) *Compiler {
	c := &Compiler{
		resolver:      r,
		systemPackage: DefaultSystemPackage,
		operators:     DefaultOperatorChars,
		maxDepth:      DefaultMaxDepth,
		logger:        slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(math.MaxInt)})),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile parses and validates a DAL query.
func (c *Compiler) Compile(query string) (*core.Criteria, error) {
	l := NewLexer(query, c.operators)
	var toks []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		if tok.Kind == token.EOF {
			p := &queryParser{c: c, toks: toks, end: tok}
			crit, err := p.parse()
			if err != nil {
				return nil, err
			}
			c.logger.Debug("compiled DAL query",
				slog.String("type", crit.Type.Name),
				slog.Int("properties", len(crit.Properties)),
				slog.Int("aggregates", len(crit.Aggregates)),
				slog.Int("joins", len(crit.Aliases)))
			return crit, nil
		}
		toks = append(toks, tok)
	}
}

// compileSubquery compiles the token window of an IN subquery. end is the
// bracket closing the window.
func (c *Compiler) compileSubquery(toks []token.Token, end token.Token, depth int) (*core.Criteria, error) {
	if depth > c.maxDepth {
		return nil, core.Syntaxf(toks[0], core.ErrTooDeep, c.maxDepth)
	}
	p := &queryParser{c: c, toks: toks, end: end, depth: depth, subquery: true}
	return p.parse()
}
