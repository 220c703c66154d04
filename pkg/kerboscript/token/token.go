// Package token defines the token kinds of KerboScript and the Token values
// handed from the scanner to the parser.
package token

import (
	"fmt"
	"strings"

	"github.com/kaufman-bryce/kos-language-server/pkg/kerboscript/diag"
)

// Kind tags a token with its lexical class.
type Kind int

const (
	// Special tokens
	ILLEGAL Kind = iota
	EOF

	// Identifiers and literals
	IDENT
	INTEGER // 42
	DOUBLE  // 3.14, 1e6
	STRING  // "kerbin"

	// Operators
	PLUS     // +
	MINUS    // -
	MULT     // *
	DIV      // /
	POWER    // ^
	EQ       // =
	NOTEQ    // <>
	LT       // <
	GT       // >
	LTE      // <=
	GTE      // >=
	AND      // and
	OR       // or
	NOT      // not
	DEFINED  // defined

	// Delimiters
	LPAREN   // (
	RPAREN   // )
	LBRACE   // {
	RBRACE   // }
	LBRACKET // [
	RBRACKET // ]
	COMMA    // ,
	COLON    // :
	PERIOD   // .
	ATSIGN   // @
	HASH     // #

	// Declaration keywords
	DECLARE
	LOCAL
	GLOBAL
	PARAMETER
	FUNCTION
	LOCK
	UNLOCK
	SET
	UNSET
	TO
	IS

	// Control flow keywords
	IF
	ELSE
	UNTIL
	FROM
	DO
	STEP
	FOR
	IN
	WHEN
	THEN
	ON
	WAIT
	RETURN
	BREAK
	PRESERVE
	SWITCH

	// Load and file keywords
	RUN
	RUNPATH
	RUNONCEPATH
	COMPILE
	ONCE

	// I/O and command keywords
	PRINT
	LOG
	COPY
	RENAME
	DELETE
	TOGGLE
	STAGE
	CLEARSCREEN
	REBOOT
	SHUTDOWN
	AT
	VOLUME
	FILE
	ALL

	// Boolean literals
	TRUE
	FALSE
)

var kindNames = map[Kind]string{
	ILLEGAL:     "ILLEGAL",
	EOF:         "EOF",
	IDENT:       "IDENT",
	INTEGER:     "INTEGER",
	DOUBLE:      "DOUBLE",
	STRING:      "STRING",
	PLUS:        "+",
	MINUS:       "-",
	MULT:        "*",
	DIV:         "/",
	POWER:       "^",
	EQ:          "=",
	NOTEQ:       "<>",
	LT:          "<",
	GT:          ">",
	LTE:         "<=",
	GTE:         ">=",
	AND:         "and",
	OR:          "or",
	NOT:         "not",
	DEFINED:     "defined",
	LPAREN:      "(",
	RPAREN:      ")",
	LBRACE:      "{",
	RBRACE:      "}",
	LBRACKET:    "[",
	RBRACKET:    "]",
	COMMA:       ",",
	COLON:       ":",
	PERIOD:      ".",
	ATSIGN:      "@",
	HASH:        "#",
	DECLARE:     "declare",
	LOCAL:       "local",
	GLOBAL:      "global",
	PARAMETER:   "parameter",
	FUNCTION:    "function",
	LOCK:        "lock",
	UNLOCK:      "unlock",
	SET:         "set",
	UNSET:       "unset",
	TO:          "to",
	IS:          "is",
	IF:          "if",
	ELSE:        "else",
	UNTIL:       "until",
	FROM:        "from",
	DO:          "do",
	STEP:        "step",
	FOR:         "for",
	IN:          "in",
	WHEN:        "when",
	THEN:        "then",
	ON:          "on",
	WAIT:        "wait",
	RETURN:      "return",
	BREAK:       "break",
	PRESERVE:    "preserve",
	SWITCH:      "switch",
	RUN:         "run",
	RUNPATH:     "runpath",
	RUNONCEPATH: "runoncepath",
	COMPILE:     "compile",
	ONCE:        "once",
	PRINT:       "print",
	LOG:         "log",
	COPY:        "copy",
	RENAME:      "rename",
	DELETE:      "delete",
	TOGGLE:      "toggle",
	STAGE:       "stage",
	CLEARSCREEN: "clearscreen",
	REBOOT:      "reboot",
	SHUTDOWN:    "shutdown",
	AT:          "at",
	VOLUME:      "volume",
	FILE:        "file",
	ALL:         "all",
	TRUE:        "true",
	FALSE:       "false",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// keywords maps folded identifier spellings to keyword kinds. KerboScript is
// case-insensitive, so lookup folds before matching.
var keywords = map[string]Kind{
	"and":         AND,
	"or":          OR,
	"not":         NOT,
	"defined":     DEFINED,
	"declare":     DECLARE,
	"local":       LOCAL,
	"global":      GLOBAL,
	"parameter":   PARAMETER,
	"function":    FUNCTION,
	"lock":        LOCK,
	"unlock":      UNLOCK,
	"set":         SET,
	"unset":       UNSET,
	"to":          TO,
	"is":          IS,
	"if":          IF,
	"else":        ELSE,
	"until":       UNTIL,
	"from":        FROM,
	"do":          DO,
	"step":        STEP,
	"for":         FOR,
	"in":          IN,
	"when":        WHEN,
	"then":        THEN,
	"on":          ON,
	"wait":        WAIT,
	"return":      RETURN,
	"break":       BREAK,
	"preserve":    PRESERVE,
	"switch":      SWITCH,
	"run":         RUN,
	"runpath":     RUNPATH,
	"runoncepath": RUNONCEPATH,
	"compile":     COMPILE,
	"once":        ONCE,
	"print":       PRINT,
	"log":         LOG,
	"copy":        COPY,
	"rename":      RENAME,
	"delete":      DELETE,
	"toggle":      TOGGLE,
	"stage":       STAGE,
	"clearscreen": CLEARSCREEN,
	"reboot":      REBOOT,
	"shutdown":    SHUTDOWN,
	"at":          AT,
	"volume":      VOLUME,
	"file":        FILE,
	"all":         ALL,
	"true":        TRUE,
	"false":       FALSE,
}

// Lookup returns the keyword kind for an identifier spelling, or IDENT.
func Lookup(ident string) Kind {
	if k, ok := keywords[strings.ToLower(ident)]; ok {
		return k
	}
	return IDENT
}

// Token is one lexical unit. Tokens are immutable once produced; resolution
// records live in a side table keyed by token identity, never on the token.
type Token struct {
	Kind    Kind
	Lexeme  string
	Literal any // int, float64, string, or bool payload for literal tokens
	Start   diag.Position
	End     diag.Position
	URI     string
}

// Range returns the source span of the token.
func (t Token) Range() diag.Range {
	return diag.Range{Start: t.Start, End: t.End}
}

// Location returns the token's span inside its owning document.
func (t Token) Location() diag.Location {
	return diag.Location{URI: t.URI, Range: t.Range()}
}

func (t Token) String() string {
	return fmt.Sprintf("{%s %q %s}", t.Kind, t.Lexeme, t.Start)
}
