package token

type TokenType string

type Token struct {
	Type    TokenType
	Lexeme  string
	Literal interface{}
	File    string
	Line    int
	Column  int
	// End position (exclusive), used for node spans.
	EndLine   int
	EndColumn int
}

const (
	ILLEGAL TokenType = "ILLEGAL"
	EOF     TokenType = "EOF"
	LF      TokenType = "LF"

	// Template sublanguage
	TEXT          TokenType = "TEXT"
	COMMAND_START TokenType = "COMMAND_START" // { in template text
	COMMAND_END   TokenType = "COMMAND_END"   // } closing a command
	START_QUOTE   TokenType = "START_QUOTE"
	END_QUOTE     TokenType = "END_QUOTE"

	// Literals
	NAME   TokenType = "NAME"
	INT    TokenType = "INT"
	FLOAT  TokenType = "FLOAT"
	STRING TokenType = "STRING"

	// Operators
	ASSIGN          TokenType = "="
	PLUS            TokenType = "+"
	MINUS           TokenType = "-"
	ASTERISK        TokenType = "*"
	SLASH           TokenType = "/"
	PERCENT         TokenType = "%"
	LT              TokenType = "<"
	GT              TokenType = ">"
	DOT             TokenType = "."
	QUESTION        TokenType = "?"
	PIPE            TokenType = "|"
	EQ              TokenType = "=="
	NOT_EQ          TokenType = "!="
	LTE             TokenType = "<="
	GTE             TokenType = ">="
	PLUS_ASSIGN     TokenType = "+="
	MINUS_ASSIGN    TokenType = "-="
	ASTERISK_ASSIGN TokenType = "*="
	SLASH_ASSIGN    TokenType = "/="
	FAT_ARROW       TokenType = "=>"

	// Punctuation
	COMMA    TokenType = ","
	COLON    TokenType = ":"
	LPAREN   TokenType = "("
	RPAREN   TokenType = ")"
	LBRACKET TokenType = "["
	RBRACKET TokenType = "]"
	LBRACE   TokenType = "{"
	RBRACE   TokenType = "}"

	// Keywords
	IF       TokenType = "IF"
	THEN     TokenType = "THEN"
	ELSE     TokenType = "ELSE"
	END      TokenType = "END"
	FOR      TokenType = "FOR"
	IN       TokenType = "IN"
	SWITCH   TokenType = "SWITCH"
	CASE     TokenType = "CASE"
	DEFAULT  TokenType = "DEFAULT"
	DO       TokenType = "DO"
	AND      TokenType = "AND"
	OR       TokenType = "OR"
	NOT      TokenType = "NOT"
	RETURN   TokenType = "RETURN"
	BREAK    TokenType = "BREAK"
	CONTINUE TokenType = "CONTINUE"
	EXPORT   TokenType = "EXPORT"
	NIL      TokenType = "NIL"
	TRUE     TokenType = "TRUE"
	FALSE    TokenType = "FALSE"
)

var keywords = map[string]TokenType{
	"if":       IF,
	"then":     THEN,
	"else":     ELSE,
	"end":      END,
	"for":      FOR,
	"in":       IN,
	"switch":   SWITCH,
	"case":     CASE,
	"default":  DEFAULT,
	"do":       DO,
	"and":      AND,
	"or":       OR,
	"not":      NOT,
	"return":   RETURN,
	"break":    BREAK,
	"continue": CONTINUE,
	"export":   EXPORT,
	"nil":      NIL,
	"true":     TRUE,
	"false":    FALSE,
}

// LookupIdent returns the keyword type for ident, or NAME.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return NAME
}

// IsKeyword reports whether t is a reserved word.
func IsKeyword(t TokenType) bool {
	for _, k := range keywords {
		if k == t {
			return true
		}
	}
	return false
}

// Describe returns a human readable name for error messages.
func (t TokenType) Describe() string {
	switch t {
	case EOF:
		return "end of input"
	case LF:
		return "newline"
	case TEXT:
		return "text"
	case COMMAND_START:
		return "'{'"
	case COMMAND_END:
		return "'}'"
	case START_QUOTE:
		return "start quote"
	case END_QUOTE:
		return "end quote"
	case NAME:
		return "name"
	case INT:
		return "integer"
	case FLOAT:
		return "float"
	case STRING:
		return "string"
	case ILLEGAL:
		return "illegal token"
	}
	if IsKeyword(t) {
		for word, k := range keywords {
			if k == t {
				return "\"" + word + "\""
			}
		}
	}
	return "'" + string(t) + "'"
}
