// Package deps reads dependency declarations from a DEPS manifest file.
//
// DEPS files use a small Python-literal declaration syntax: top-level
// variable assignments whose values are strings, integers, lists and
// dicts, plus three fixed helper call forms (Var, File, From) that let
// later entries reference earlier ones. The evaluator here accepts
// exactly that grammar and nothing more, so a manifest can never run
// arbitrary code.
package deps

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// varsBinding is the top-level dict the Var helper resolves names against.
const varsBinding = "vars"

// Manifest holds the evaluated top-level bindings of a DEPS file.
type Manifest struct {
	Bindings map[string]interface{}
}

// ReadDesiredVersion evaluates the DEPS file at path and returns the
// integer bound to key inside its vars mapping. String-encoded integers
// are accepted, since DEPS revisions are conventionally quoted.
func ReadDesiredVersion(fs billy.Filesystem, path, key string) (int, error) {
	src, err := util.ReadFile(fs, path)
	if err != nil {
		return 0, fmt.Errorf("failed to read DEPS file %s: %w", path, err)
	}

	manifest, err := Parse(src, path)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return manifest.IntVar(key)
}

// IntVar returns the integer bound to name inside the vars mapping.
func (m *Manifest) IntVar(name string) (int, error) {
	vars, ok := m.Bindings[varsBinding].(map[string]interface{})
	if !ok {
		return 0, fmt.Errorf("manifest declares no %q mapping", varsBinding)
	}

	raw, ok := vars[name]
	if !ok {
		return 0, fmt.Errorf("manifest vars have no entry for %q", name)
	}

	switch v := raw.(type) {
	case int:
		return v, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("vars entry %q is not an integer: %q", name, v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("vars entry %q is not an integer", name)
	}
}

// Parse evaluates DEPS source into its top-level bindings. filename is
// used in error messages only.
func Parse(src []byte, filename string) (*Manifest, error) {
	p := &parser{
		lexer:    newLexer(src),
		manifest: &Manifest{Bindings: make(map[string]interface{})},
	}

	if err := p.run(); err != nil {
		return nil, fmt.Errorf("%s:%d: %w", filename, p.lexer.line, err)
	}

	return p.manifest, nil
}

type parser struct {
	lexer    *lexer
	manifest *Manifest
}

func (p *parser) run() error {
	for {
		tok, err := p.lexer.next()
		if err != nil {
			return err
		}
		if tok.kind == tokenEOF {
			return nil
		}
		if tok.kind != tokenIdent {
			return fmt.Errorf("expected a variable assignment, got %s", tok)
		}

		if err := p.expect(tokenAssign); err != nil {
			return err
		}

		value, err := p.expr()
		if err != nil {
			return err
		}
		p.manifest.Bindings[tok.text] = value
	}
}

// expr evaluates one expression, folding any chain of + concatenations.
func (p *parser) expr() (interface{}, error) {
	value, err := p.operand()
	if err != nil {
		return nil, err
	}

	for {
		tok, err := p.lexer.peek()
		if err != nil {
			return nil, err
		}
		if tok.kind != tokenPlus {
			return value, nil
		}
		p.lexer.discard()

		right, err := p.operand()
		if err != nil {
			return nil, err
		}

		left, leftOK := value.(string)
		rightStr, rightOK := right.(string)
		if !leftOK || !rightOK {
			return nil, fmt.Errorf("+ joins strings only")
		}
		value = left + rightStr
	}
}

func (p *parser) operand() (interface{}, error) {
	tok, err := p.lexer.next()
	if err != nil {
		return nil, err
	}

	switch tok.kind {
	case tokenString:
		return tok.text, nil
	case tokenInt:
		n, err := strconv.Atoi(tok.text)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", tok.text)
		}
		return n, nil
	case tokenLBrace:
		return p.dict()
	case tokenLBracket:
		return p.list()
	case tokenIdent:
		return p.identOrCall(tok.text)
	default:
		return nil, fmt.Errorf("unexpected %s", tok)
	}
}

// identOrCall resolves a bare identifier against earlier bindings, or
// evaluates one of the three helper call forms.
func (p *parser) identOrCall(name string) (interface{}, error) {
	tok, err := p.lexer.peek()
	if err != nil {
		return nil, err
	}

	if tok.kind != tokenLParen {
		value, ok := p.manifest.Bindings[name]
		if !ok {
			return nil, fmt.Errorf("reference to undefined variable %q", name)
		}
		return value, nil
	}
	p.lexer.discard()

	args, err := p.callArgs()
	if err != nil {
		return nil, err
	}

	switch name {
	case "Var":
		return p.evalVar(args)
	case "File":
		// File marks a path as a file dependency; for evaluation it is
		// an identity passthrough.
		if len(args) != 1 {
			return nil, fmt.Errorf("File takes exactly 1 argument, got %d", len(args))
		}
		return args[0], nil
	case "From":
		// From re-exports an entry of another DEPS file; only the
		// referenced name matters here.
		if len(args) != 2 {
			return nil, fmt.Errorf("From takes exactly 2 arguments, got %d", len(args))
		}
		return args[0], nil
	default:
		return nil, fmt.Errorf("call to unsupported function %q", name)
	}
}

func (p *parser) evalVar(args []interface{}) (interface{}, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("Var takes exactly 1 argument, got %d", len(args))
	}
	name, ok := args[0].(string)
	if !ok {
		return nil, fmt.Errorf("Var argument must be a string")
	}

	vars, ok := p.manifest.Bindings[varsBinding].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("Var(%q) used before the %s mapping is defined", name, varsBinding)
	}
	value, ok := vars[name]
	if !ok {
		return nil, fmt.Errorf("Var(%q) names an undefined variable", name)
	}
	return value, nil
}

func (p *parser) callArgs() ([]interface{}, error) {
	var args []interface{}
	for {
		tok, err := p.lexer.peek()
		if err != nil {
			return nil, err
		}
		if tok.kind == tokenRParen {
			p.lexer.discard()
			return args, nil
		}
		if len(args) > 0 {
			if tok.kind != tokenComma {
				return nil, fmt.Errorf("expected , or ) in argument list, got %s", tok)
			}
			p.lexer.discard()
		}

		arg, err := p.expr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
	}
}

func (p *parser) dict() (map[string]interface{}, error) {
	result := make(map[string]interface{})
	for {
		tok, err := p.lexer.next()
		if err != nil {
			return nil, err
		}
		if tok.kind == tokenRBrace {
			return result, nil
		}
		if tok.kind != tokenString {
			return nil, fmt.Errorf("dict keys must be strings, got %s", tok)
		}

		if err := p.expect(tokenColon); err != nil {
			return nil, err
		}

		value, err := p.expr()
		if err != nil {
			return nil, err
		}
		result[tok.text] = value

		if err := p.separator(tokenRBrace); err != nil {
			return nil, err
		}
	}
}

func (p *parser) list() ([]interface{}, error) {
	var result []interface{}
	for {
		tok, err := p.lexer.peek()
		if err != nil {
			return nil, err
		}
		if tok.kind == tokenRBracket {
			p.lexer.discard()
			return result, nil
		}

		value, err := p.expr()
		if err != nil {
			return nil, err
		}
		result = append(result, value)

		if err := p.separator(tokenRBracket); err != nil {
			return nil, err
		}
	}
}

// separator consumes an element-separating comma, leaving a closing
// delimiter for the caller. Trailing commas are valid in DEPS files.
func (p *parser) separator(closing tokenKind) error {
	tok, err := p.lexer.peek()
	if err != nil {
		return err
	}
	switch tok.kind {
	case tokenComma:
		p.lexer.discard()
		return nil
	case closing:
		return nil
	default:
		return fmt.Errorf("expected , got %s", tok)
	}
}

func (p *parser) expect(kind tokenKind) error {
	tok, err := p.lexer.next()
	if err != nil {
		return err
	}
	if tok.kind != kind {
		return fmt.Errorf("expected %s, got %s", kind, tok)
	}
	return nil
}
