package cure

import (
	"strconv"
)

// Parser is a hand-rolled recursive-descent/Pratt parser over the
// Lexer's token stream. Rather than building a separate raw parse tree
// and handing it to a distinct IR-construction pass, it emits the
// untyped Node tree directly, leaving every literal's Type nil — the
// analyser is the single place concrete types get assigned, to user
// code and literals alike.
type Parser struct {
	lex  *Lexer
	tok  Token
	peek Token
}

func NewParser(src []byte) (*Parser, error) {
	p := &Parser{lex: NewLexer(src)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parser) advance() error {
	p.tok = p.peek
	for {
		t, err := p.lex.Next()
		if err != nil {
			return err
		}
		if t.Kind == TokComment {
			continue
		}
		p.peek = t
		break
	}
	return nil
}

func (p *Parser) at(kind TokKind) bool { return p.tok.Kind == kind }

func (p *Parser) atKeyword(kw string) bool {
	return p.tok.Kind == TokKeyword && p.tok.Text == kw
}

func (p *Parser) atOp(op string) bool {
	return (p.tok.Kind == TokOp || p.tok.Kind == TokDot) && p.tok.Text == op
}

func (p *Parser) expect(kind TokKind) (Token, error) {
	if p.tok.Kind != kind {
		return Token{}, comptimeError(p.tok.Pos, "expected %s but got %s %q", kind, p.tok.Kind, p.tok.Text)
	}
	t := p.tok
	return t, p.advance()
}

func (p *Parser) expectKeyword(kw string) error {
	if !p.atKeyword(kw) {
		return comptimeError(p.tok.Pos, "expected keyword %q but got %q", kw, p.tok.Text)
	}
	return p.advance()
}

// ParseProgram parses a full Cure source file into a ProgramNode: a
// flat sequence of top-level let-bindings, function declarations and
// expression statements.
func (p *Parser) ParseProgram() (*ProgramNode, error) {
	pos := p.tok.Pos
	var stmts []Node
	for !p.at(TokEOF) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return NewProgramNode(pos, stmts), nil
}

func (p *Parser) parseStatement() (Node, error) {
	switch {
	case p.atKeyword("func") || p.atKeyword("static") || p.atKeyword("extern") || p.atKeyword("public"):
		return p.parseFunction()
	case p.atKeyword("let"):
		return p.parseVariable()
	case p.atKeyword("return"):
		return p.parseReturn()
	case p.atKeyword("if"):
		return p.parseIf()
	case p.atKeyword("while"):
		return p.parseWhile()
	default:
		return p.parseExprStatement()
	}
}

func (p *Parser) parseExprStatement() (Node, error) {
	pos := p.tok.Pos
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	// `name = value` re-assignment becomes an AssignmentNode here; the
	// analyser resolves it against the symbol table and rejects
	// assignment to an unknown/immutable name.
	if id, ok := expr.(*IdNode); ok && p.atOp("=") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		value, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return NewAssignmentNode(pos, id.Name, value), nil
	}
	return expr, nil
}

func (p *Parser) parseFunction() (Node, error) {
	pos := p.tok.Pos
	var flags FunctionFlags
	for {
		switch {
		case p.atKeyword("static"):
			flags.Static = true
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		case p.atKeyword("extern"):
			flags.Extern = true
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		case p.atKeyword("public"):
			flags.Public = true
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if err := p.expectKeyword("func"); err != nil {
		return nil, err
	}
	name, err := p.expect(TokId)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokLParen); err != nil {
		return nil, err
	}
	var params []*ParamNode
	for !p.at(TokRParen) {
		param, err := p.parseParam()
		if err != nil {
			return nil, err
		}
		params = append(params, param)
		if p.at(TokComma) {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if _, err := p.expect(TokRParen); err != nil {
		return nil, err
	}
	var retType Node
	if p.at(TokArrow) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		retType, err = p.parseTypeRef()
		if err != nil {
			return nil, err
		}
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	return NewFunctionNode(pos, name.Text, params, retType, body, flags), nil
}

func (p *Parser) parseParam() (*ParamNode, error) {
	pos := p.tok.Pos
	mutable := false
	if p.atKeyword("mut") {
		mutable = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	name, err := p.expect(TokId)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokColon); err != nil {
		return nil, err
	}
	declared, err := p.parseTypeRef()
	if err != nil {
		return nil, err
	}
	return NewParamNode(pos, name.Text, declared, mutable), nil
}

// parseTypeRef parses a type name, optionally pointer-wrapped by a
// leading "*" operator token (`*int`).
func (p *Parser) parseTypeRef() (Node, error) {
	pos := p.tok.Pos
	if p.atOp("*") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		pointee, err := p.parseTypeRef()
		if err != nil {
			return nil, err
		}
		return NewPointerTypeNode(pos, pointee), nil
	}
	name, err := p.expect(TokId)
	if err != nil {
		return nil, err
	}
	return NewTypeNode(pos, name.Text), nil
}

func (p *Parser) parseVariable() (Node, error) {
	pos := p.tok.Pos
	if err := p.expectKeyword("let"); err != nil {
		return nil, err
	}
	mutable := false
	if p.atKeyword("mut") {
		mutable = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	name, err := p.expect(TokId)
	if err != nil {
		return nil, err
	}
	var declared Node
	if p.at(TokColon) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		declared, err = p.parseTypeRef()
		if err != nil {
			return nil, err
		}
	}
	var value Node
	if p.atOp("=") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		value, err = p.parseExpr()
		if err != nil {
			return nil, err
		}
	}
	return NewVariableNode(pos, name.Text, declared, value, mutable), nil
}

func (p *Parser) parseReturn() (Node, error) {
	pos := p.tok.Pos
	if err := p.expectKeyword("return"); err != nil {
		return nil, err
	}
	if p.at(TokRBrace) || p.atKeyword("return") {
		return NewReturnNode(pos, nil), nil
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return NewReturnNode(pos, value), nil
}

func (p *Parser) parseBody() (*BodyNode, error) {
	pos := p.tok.Pos
	if _, err := p.expect(TokLBrace); err != nil {
		return nil, err
	}
	var stmts []Node
	for !p.at(TokRBrace) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	if _, err := p.expect(TokRBrace); err != nil {
		return nil, err
	}
	return NewBodyNode(pos, stmts), nil
}

func (p *Parser) parseIf() (Node, error) {
	pos := p.tok.Pos
	if err := p.expectKeyword("if"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	var elifs []*ElifNode
	for p.atKeyword("elif") {
		elifPos := p.tok.Pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		elifCond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elifBody, err := p.parseBody()
		if err != nil {
			return nil, err
		}
		elifs = append(elifs, NewElifNode(elifPos, elifCond, elifBody))
	}
	var elseBody *BodyNode
	if p.atKeyword("else") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		elseBody, err = p.parseBody()
		if err != nil {
			return nil, err
		}
	}
	return NewIfNode(pos, cond, body, elifs, elseBody), nil
}

func (p *Parser) parseWhile() (Node, error) {
	pos := p.tok.Pos
	if err := p.expectKeyword("while"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBody()
	if err != nil {
		return nil, err
	}
	return NewWhileNode(pos, cond, body), nil
}

// binaryPrec gives every binary operator a Pratt-style precedence;
// higher binds tighter. Unlisted operators end expression parsing.
var binaryPrec = map[string]int{
	"||": 1, "&&": 2,
	"==": 3, "!=": 3, "<": 3, "<=": 3, ">": 3, ">=": 3,
	"+": 4, "-": 4,
	"*": 5, "/": 5, "%": 5,
}

func (p *Parser) parseExpr() (Node, error) {
	return p.parseTernary()
}

func (p *Parser) parseTernary() (Node, error) {
	pos := p.tok.Pos
	cond, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	if !p.atOp("?") {
		return cond, nil
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokColon); err != nil {
		return nil, err
	}
	els, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return NewTernaryNode(pos, cond, then, els), nil
}

func (p *Parser) parseBinary(minPrec int) (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.tok.Kind == TokOp {
		prec, ok := binaryPrec[p.tok.Text]
		if !ok || prec < minPrec {
			break
		}
		op := p.tok.Text
		pos := p.tok.Pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = NewBinaryOpNode(pos, op, left, right)
	}
	return left, nil
}

func (p *Parser) parseUnary() (Node, error) {
	if p.tok.Kind == TokOp && (p.tok.Text == "-" || p.tok.Text == "!") {
		op := p.tok.Text
		pos := p.tok.Pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return NewUnaryOpNode(pos, op, expr), nil
	}
	return p.parsePostfix()
}

func (p *Parser) parsePostfix() (Node, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.at(TokDot):
			pos := p.tok.Pos
			if err := p.advance(); err != nil {
				return nil, err
			}
			name, err := p.expect(TokId)
			if err != nil {
				return nil, err
			}
			isCall := false
			var args []Node
			if p.at(TokLParen) {
				isCall = true
				args, err = p.parseArgs()
				if err != nil {
					return nil, err
				}
			}
			expr = NewAttributeNode(pos, expr, name.Text, args, isCall)
		case p.atKeyword("as"):
			pos := p.tok.Pos
			if err := p.advance(); err != nil {
				return nil, err
			}
			target, err := p.parseTypeRef()
			if err != nil {
				return nil, err
			}
			expr = NewCastNode(pos, expr, target)
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parseArgs() ([]Node, error) {
	if _, err := p.expect(TokLParen); err != nil {
		return nil, err
	}
	var args []Node
	for !p.at(TokRParen) {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.at(TokComma) {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if _, err := p.expect(TokRParen); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parsePrimary() (Node, error) {
	pos := p.tok.Pos
	switch {
	case p.at(TokInt):
		text := p.tok.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, comptimeError(pos, "invalid integer literal %q", text)
		}
		return NewIntNode(pos, v, nil), nil
	case p.at(TokFloat):
		text := p.tok.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, comptimeError(pos, "invalid float literal %q", text)
		}
		return NewFloatNode(pos, v, nil), nil
	case p.at(TokString):
		text := p.tok.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return NewStringNode(pos, text), nil
	case p.atKeyword("true"), p.atKeyword("false"):
		v := p.tok.Text == "true"
		if err := p.advance(); err != nil {
			return nil, err
		}
		return NewBoolNode(pos, v, nil), nil
	case p.atKeyword("nil"):
		if err := p.advance(); err != nil {
			return nil, err
		}
		return NewNilNode(pos, nil), nil
	case p.at(TokLBracket):
		return p.parseNewArray()
	case p.at(TokId):
		name := p.tok.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.at(TokLParen) {
			args, err := p.parseArgs()
			if err != nil {
				return nil, err
			}
			return NewCallNode(pos, name, args), nil
		}
		return NewIdNode(pos, name, nil), nil
	case p.at(TokLParen):
		if err := p.advance(); err != nil {
			return nil, err
		}
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(TokRParen); err != nil {
			return nil, err
		}
		return expr, nil
	}
	return nil, comptimeError(pos, "unexpected token %s %q", p.tok.Kind, p.tok.Text)
}

// parseNewArray parses the `[ElemType: size]` allocation form.
func (p *Parser) parseNewArray() (Node, error) {
	pos := p.tok.Pos
	if _, err := p.expect(TokLBracket); err != nil {
		return nil, err
	}
	elemType, err := p.parseTypeRef()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokColon); err != nil {
		return nil, err
	}
	size, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(TokRBracket); err != nil {
		return nil, err
	}
	return NewNewArrayNode(pos, elemType, size), nil
}
