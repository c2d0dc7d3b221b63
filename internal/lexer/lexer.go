package lexer

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/nielssp/plet/internal/config"
	"github.com/nielssp/plet/internal/diagnostics"
	"github.com/nielssp/plet/internal/token"
)

// Paren stack markers.
const (
	parenCommand = 'c' // command opened by { in template text (or the script root)
	parenQuote   = '"' // template text inside a double-quoted string
	parenBrace   = '{'
	parenParen   = '('
	parenBracket = '['
)

// Lexer turns Plet source into tokens. Template text and code are two
// sublanguages; which one is active depends on the top of the paren stack.
type Lexer struct {
	input        string
	file         string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination, 0 at EOF
	line         int  // current line number
	column       int  // current column number
	parens       []byte
	// script is set when the root paren is an implicit command.
	script bool
	errors []*diagnostics.DiagnosticError
	done   bool
}

// New creates a lexer that starts in template mode.
func New(input string, file string) *Lexer {
	l := &Lexer{input: input, file: file, line: 1, column: 0}
	l.readChar()
	return l
}

// NewScript creates a lexer that starts in code mode, as if the whole
// input were inside one command.
func NewScript(input string, file string) *Lexer {
	l := New(input, file)
	l.script = true
	l.parens = append(l.parens, parenCommand)
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = len(l.input)
		l.readPosition = len(l.input) + 1
		l.column++
		return
	}
	l.ch = l.input[l.readPosition]
	l.position = l.readPosition
	l.readPosition++
	l.column++
}

func (l *Lexer) atEOF() bool {
	return l.position >= len(l.input)
}

func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

func (l *Lexer) peekChar2() byte {
	if l.readPosition+1 >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition+1]
}

// Offset returns the byte offset of the next unread character.
func (l *Lexer) Offset() int {
	if l.position > len(l.input) {
		return len(l.input)
	}
	return l.position
}

// Errors returns the diagnostics collected so far.
func (l *Lexer) Errors() []*diagnostics.DiagnosticError {
	return l.errors
}

func (l *Lexer) addError(code diagnostics.ErrorCode, line, column int, format string, args ...interface{}) {
	if l.done {
		return
	}
	tok := token.Token{File: l.file, Line: line, Column: column}
	l.errors = append(l.errors, diagnostics.NewError(code, tok, format, args...))
	if len(l.errors) >= config.MaxLexerErrors {
		l.errors = append(l.errors, diagnostics.NewError(diagnostics.ErrL006, tok, "too many errors"))
		l.done = true
	}
}

func (l *Lexer) top() byte {
	if len(l.parens) == 0 {
		return 0
	}
	return l.parens[len(l.parens)-1]
}

func (l *Lexer) push(p byte) {
	l.parens = append(l.parens, p)
}

func (l *Lexer) pop() byte {
	if len(l.parens) == 0 {
		return 0
	}
	p := l.parens[len(l.parens)-1]
	l.parens = l.parens[:len(l.parens)-1]
	return p
}

func (l *Lexer) newToken(tokenType token.TokenType, lexeme string, literal interface{}, line, col int) token.Token {
	return token.Token{
		Type:      tokenType,
		Lexeme:    lexeme,
		Literal:   literal,
		File:      l.file,
		Line:      line,
		Column:    col,
		EndLine:   l.line,
		EndColumn: l.column,
	}
}

// ReadAll returns every token up to and including EOF.
func (l *Lexer) ReadAll() []token.Token {
	var tokens []token.Token
	for {
		tok := l.NextToken()
		tokens = append(tokens, tok)
		if tok.Type == token.EOF {
			return tokens
		}
	}
}

func (l *Lexer) NextToken() token.Token {
	if l.done {
		return l.newToken(token.EOF, "", nil, l.line, l.column)
	}
	top := l.top()
	if top == 0 || top == parenQuote {
		return l.readText(top == parenQuote)
	}
	return l.readCode(top)
}

func (l *Lexer) eof() token.Token {
	if len(l.parens) > 0 && !(l.script && len(l.parens) == 1) {
		switch l.top() {
		case parenCommand:
			l.addError(diagnostics.ErrL002, l.line, l.column, "unexpected end of input, expected '}'")
		case parenQuote:
			l.addError(diagnostics.ErrL002, l.line, l.column, "unexpected end of input, expected end quote")
		default:
			l.addError(diagnostics.ErrL004, l.line, l.column, "unexpected end of input, expected '%c'", closerOf(l.top()))
		}
		l.parens = nil
	}
	l.done = true
	return l.newToken(token.EOF, "", nil, l.line, l.column)
}

// readText reads a run of template text. An empty run is never returned;
// the delimiter that ended it is tokenized instead.
func (l *Lexer) readText(quoted bool) token.Token {
	startLine, startCol := l.line, l.column
	var sb strings.Builder
	for {
		if l.atEOF() {
			if sb.Len() > 0 {
				return l.newToken(token.TEXT, sb.String(), sb.String(), startLine, startCol)
			}
			return l.eof()
		}
		switch {
		case l.ch == '{' && l.peekChar() == '#':
			l.skipComment()
		case l.ch == '{':
			if sb.Len() > 0 {
				return l.newToken(token.TEXT, sb.String(), sb.String(), startLine, startCol)
			}
			line, col := l.line, l.column
			l.readChar()
			l.push(parenCommand)
			return l.newToken(token.COMMAND_START, "{", "{", line, col)
		case quoted && l.ch == '"':
			if sb.Len() > 0 {
				return l.newToken(token.TEXT, sb.String(), sb.String(), startLine, startCol)
			}
			line, col := l.line, l.column
			l.readChar()
			l.pop()
			return l.newToken(token.END_QUOTE, "\"", "\"", line, col)
		case quoted && l.ch == '\\':
			l.readEscape(&sb, true)
		default:
			sb.WriteByte(l.ch)
			l.readChar()
		}
	}
}

// skipComment skips {# ... #}, starting at the opening brace.
func (l *Lexer) skipComment() {
	line, col := l.line, l.column
	l.readChar() // {
	l.readChar() // #
	for !l.atEOF() {
		if l.ch == '#' && l.peekChar() == '}' {
			l.readChar()
			l.readChar()
			return
		}
		l.readChar()
	}
	l.addError(diagnostics.ErrL002, line, col, "missing end of comment")
}

func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
		l.readChar()
	}
}

func (l *Lexer) readCode(top byte) token.Token {
	l.skipWhitespace()
	if l.atEOF() {
		return l.eof()
	}
	line, col := l.line, l.column
	switch l.ch {
	case '\n':
		l.readChar()
		return l.newToken(token.LF, "\n", nil, line, col)
	case '\'':
		return l.readString()
	case '"':
		if l.peekChar() == '"' && l.peekChar2() == '"' {
			return l.readVerbatim()
		}
		l.readChar()
		l.push(parenQuote)
		return l.newToken(token.START_QUOTE, "\"", "\"", line, col)
	case '{':
		if l.peekChar() == '#' {
			l.skipComment()
			return l.NextToken()
		}
		l.readChar()
		l.push(parenBrace)
		return l.newToken(token.LBRACE, "{", "{", line, col)
	case '(':
		l.readChar()
		l.push(parenParen)
		return l.newToken(token.LPAREN, "(", "(", line, col)
	case '[':
		l.readChar()
		l.push(parenBracket)
		return l.newToken(token.LBRACKET, "[", "[", line, col)
	case '}':
		l.readChar()
		if top == parenCommand {
			l.pop()
			return l.newToken(token.COMMAND_END, "}", "}", line, col)
		}
		l.closeParen('}', top, line, col)
		return l.newToken(token.RBRACE, "}", "}", line, col)
	case ')':
		l.readChar()
		l.closeParen(')', top, line, col)
		return l.newToken(token.RPAREN, ")", ")", line, col)
	case ']':
		l.readChar()
		l.closeParen(']', top, line, col)
		return l.newToken(token.RBRACKET, "]", "]", line, col)
	}
	if isDigit(l.ch) {
		return l.readNumber()
	}
	if isLetter(l.ch) {
		ident := l.readIdentifier()
		tokType := token.LookupIdent(ident)
		return l.newToken(tokType, ident, ident, line, col)
	}
	if tok, ok := l.readOperator(); ok {
		return tok
	}
	ch := l.ch
	if ch >= 0x80 {
		r, _ := utf8.DecodeRuneInString(l.input[l.position:])
		l.addError(diagnostics.ErrL001, line, col, "unexpected '%c'", r)
	} else {
		l.addError(diagnostics.ErrL001, line, col, "unexpected '%c'", ch)
	}
	l.readChar()
	return l.NextToken()
}

func closerOf(p byte) byte {
	switch p {
	case parenParen:
		return ')'
	case parenBracket:
		return ']'
	}
	return '}'
}

func (l *Lexer) closeParen(c byte, top byte, line, col int) {
	if top == 0 || top == parenCommand {
		l.addError(diagnostics.ErrL004, line, col, "unexpected '%c'", c)
		return
	}
	l.pop()
	if expected := closerOf(top); expected != c {
		l.addError(diagnostics.ErrL004, line, col, "unexpected '%c', expected '%c'", c, expected)
	}
}

func (l *Lexer) readOperator() (token.Token, bool) {
	line, col := l.line, l.column
	two := func(t token.TokenType, lexeme string) (token.Token, bool) {
		l.readChar()
		l.readChar()
		return l.newToken(t, lexeme, lexeme, line, col), true
	}
	one := func(t token.TokenType) (token.Token, bool) {
		lexeme := string(l.ch)
		l.readChar()
		return l.newToken(t, lexeme, lexeme, line, col), true
	}
	next := l.peekChar()
	switch l.ch {
	case '=':
		if next == '=' {
			return two(token.EQ, "==")
		} else if next == '>' {
			return two(token.FAT_ARROW, "=>")
		}
		return one(token.ASSIGN)
	case '!':
		if next == '=' {
			return two(token.NOT_EQ, "!=")
		}
	case '<':
		if next == '=' {
			return two(token.LTE, "<=")
		}
		return one(token.LT)
	case '>':
		if next == '=' {
			return two(token.GTE, ">=")
		}
		return one(token.GT)
	case '+':
		if next == '=' {
			return two(token.PLUS_ASSIGN, "+=")
		}
		return one(token.PLUS)
	case '-':
		if next == '=' {
			return two(token.MINUS_ASSIGN, "-=")
		}
		return one(token.MINUS)
	case '*':
		if next == '=' {
			return two(token.ASTERISK_ASSIGN, "*=")
		}
		return one(token.ASTERISK)
	case '/':
		if next == '=' {
			return two(token.SLASH_ASSIGN, "/=")
		}
		return one(token.SLASH)
	case '%':
		return one(token.PERCENT)
	case '.':
		return one(token.DOT)
	case '?':
		return one(token.QUESTION)
	case '|':
		return one(token.PIPE)
	case ',':
		return one(token.COMMA)
	case ':':
		return one(token.COLON)
	}
	return token.Token{}, false
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

func (l *Lexer) readNumber() token.Token {
	line, col := l.line, l.column
	position := l.position
	isFloat := false
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		isFloat = true
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		next := l.peekChar()
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(l.peekChar2())) {
			isFloat = true
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
	lexeme := l.input[position:l.position]
	if isLetter(l.ch) {
		for isLetter(l.ch) || isDigit(l.ch) {
			l.readChar()
		}
		lexeme = l.input[position:l.position]
		l.addError(diagnostics.ErrL005, line, col, "invalid number: %s", lexeme)
		return l.newToken(token.INT, lexeme, int64(0), line, col)
	}
	if isFloat {
		val, err := strconv.ParseFloat(lexeme, 64)
		if err != nil {
			l.addError(diagnostics.ErrL005, line, col, "invalid number: %s", lexeme)
		}
		return l.newToken(token.FLOAT, lexeme, val, line, col)
	}
	val, err := strconv.ParseInt(lexeme, 10, 64)
	if err != nil {
		l.addError(diagnostics.ErrL005, line, col, "integer out of range: %s", lexeme)
	}
	return l.newToken(token.INT, lexeme, val, line, col)
}

// readString reads a single-quoted string literal.
func (l *Lexer) readString() token.Token {
	line, col := l.line, l.column
	position := l.position
	var sb strings.Builder
	l.readChar() // opening quote
	for {
		if l.atEOF() {
			l.addError(diagnostics.ErrL002, line, col, "missing end of string literal")
			break
		}
		if l.ch == '\'' {
			l.readChar()
			break
		}
		if l.ch == '\\' {
			l.readEscape(&sb, false)
			continue
		}
		sb.WriteByte(l.ch)
		l.readChar()
	}
	end := l.position
	if end > len(l.input) {
		end = len(l.input)
	}
	return l.newToken(token.STRING, l.input[position:end], sb.String(), line, col)
}

// readVerbatim reads a """...""" string without escapes.
func (l *Lexer) readVerbatim() token.Token {
	line, col := l.line, l.column
	position := l.position
	l.readChar()
	l.readChar()
	l.readChar()
	start := l.position
	for {
		if l.atEOF() {
			l.addError(diagnostics.ErrL002, line, col, "missing end of string literal")
			return l.newToken(token.STRING, l.input[position:], l.input[start:], line, col)
		}
		if l.ch == '"' && l.peekChar() == '"' && l.peekChar2() == '"' {
			content := l.input[start:l.position]
			l.readChar()
			l.readChar()
			l.readChar()
			return l.newToken(token.STRING, l.input[position:l.position], content, line, col)
		}
		l.readChar()
	}
}

// readEscape decodes one escape sequence starting at the backslash.
func (l *Lexer) readEscape(sb *strings.Builder, quoted bool) {
	line, col := l.line, l.column
	l.readChar() // backslash
	if l.atEOF() {
		l.addError(diagnostics.ErrL002, line, col, "unexpected end of input")
		return
	}
	c := l.ch
	l.readChar()
	if quoted && (c == '{' || c == '}') {
		sb.WriteByte(c)
		return
	}
	switch c {
	case '"', '\'', '\\', '/':
		sb.WriteByte(c)
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'n':
		sb.WriteByte('\n')
	case 'r':
		sb.WriteByte('\r')
	case 't':
		sb.WriteByte('\t')
	case 'x':
		if v, ok := l.readHexEscape(2); ok {
			sb.WriteByte(byte(v))
		} else {
			l.addError(diagnostics.ErrL003, line, col, "invalid hexadecimal escape sequence")
		}
	case 'u', 'U':
		n := 4
		if c == 'U' {
			n = 8
		}
		v, ok := l.readHexEscape(n)
		if !ok {
			l.addError(diagnostics.ErrL003, line, col, "invalid hexadecimal escape sequence")
		} else if v > utf8.MaxRune {
			l.addError(diagnostics.ErrL003, line, col, "unicode code point out of range: 0x%x", v)
		} else {
			sb.WriteRune(rune(v))
		}
	default:
		l.addError(diagnostics.ErrL003, line, col, "undefined escape sequence: '\\%c'", c)
	}
}

func (l *Lexer) readHexEscape(n int) (int64, bool) {
	var val int64
	for i := 0; i < n; i++ {
		var d int64
		if l.ch >= '0' && l.ch <= '9' {
			d = int64(l.ch - '0')
		} else if l.ch >= 'a' && l.ch <= 'f' {
			d = int64(l.ch - 'a' + 10)
		} else if l.ch >= 'A' && l.ch <= 'F' {
			d = int64(l.ch - 'A' + 10)
		} else {
			return 0, false
		}
		val = val*16 + d
		l.readChar()
	}
	return val, true
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
