package lexer

// Lexer tokenizes a single expression string.
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination
}

// New creates a Lexer over input.
func New(input string) *Lexer {
	l := &Lexer{input: input}
	l.readChar()
	return l
}

// readChar reads the next character and advances the position.
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0 // EOF
	} else {
		l.ch = l.input[l.readPosition]
	}
	l.position = l.readPosition
	l.readPosition++
}

// peekChar returns the next character without advancing the position.
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// NextToken returns the next token.
func (l *Lexer) NextToken() Token {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' {
		l.readChar()
	}

	var tok Token

	switch l.ch {
	case 0:
		return Token{Kind: EOF, Offset: l.position}
	case '(':
		tok = Token{Kind: LPAREN, Text: "(", Offset: l.position}
	case ')':
		tok = Token{Kind: RPAREN, Text: ")", Offset: l.position}
	case '[':
		tok = Token{Kind: LBRACKET, Text: "[", Offset: l.position}
	case ']':
		tok = Token{Kind: RBRACKET, Text: "]", Offset: l.position}
	case ',':
		tok = Token{Kind: COMMA, Text: ",", Offset: l.position}
	case '=':
		if l.peekChar() == '=' {
			offset := l.position
			l.readChar()
			tok = Token{Kind: EQ, Text: "==", Offset: offset}
		} else {
			tok = Token{Kind: ILLEGAL, Text: "=", Offset: l.position}
		}
	case '!':
		if l.peekChar() == '=' {
			offset := l.position
			l.readChar()
			tok = Token{Kind: NE, Text: "!=", Offset: offset}
		} else {
			tok = Token{Kind: ILLEGAL, Text: "!", Offset: l.position}
		}
	case '<':
		if l.peekChar() == '=' {
			offset := l.position
			l.readChar()
			tok = Token{Kind: LE, Text: "<=", Offset: offset}
		} else {
			tok = Token{Kind: LT, Text: "<", Offset: l.position}
		}
	case '>':
		if l.peekChar() == '=' {
			offset := l.position
			l.readChar()
			tok = Token{Kind: GE, Text: ">=", Offset: offset}
		} else {
			tok = Token{Kind: GT, Text: ">", Offset: l.position}
		}
	case '\'', '"':
		return l.readString(l.ch)
	case '-':
		if isDigit(l.peekChar()) {
			return l.readNumber()
		}
		tok = Token{Kind: ILLEGAL, Text: "-", Offset: l.position}
	default:
		if isLetter(l.ch) {
			offset := l.position
			text := l.readIdentifier()
			return Token{Kind: lookupIdent(text), Text: text, Offset: offset}
		}
		if isDigit(l.ch) {
			return l.readNumber()
		}
		tok = Token{Kind: ILLEGAL, Text: string(l.ch), Offset: l.position}
	}

	l.readChar()
	return tok
}

// readIdentifier reads an identifier: a letter or underscore followed by
// letters, digits, and underscores.
func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readNumber reads a numeric literal: optional leading minus, digits,
// optional fraction, optional exponent. The parser validates the text.
func (l *Lexer) readNumber() Token {
	offset := l.position
	if l.ch == '-' {
		l.readChar()
	}
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		if isDigit(l.peekChar()) || ((l.peekChar() == '+' || l.peekChar() == '-') && l.readPosition+1 < len(l.input) && isDigit(l.input[l.readPosition+1])) {
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}
	return Token{Kind: NUMBER, Text: l.input[offset:l.position], Offset: offset}
}

// readString reads a quoted string literal, handling backslash escapes.
// Text carries the unescaped value. An unterminated string yields an
// ILLEGAL token whose Text is the opening quote.
func (l *Lexer) readString(quote byte) Token {
	offset := l.position
	l.readChar() // consume opening quote

	var out []byte
	for l.ch != quote {
		if l.ch == 0 {
			return Token{Kind: ILLEGAL, Text: string(quote), Offset: offset}
		}
		if l.ch == '\\' {
			next := l.peekChar()
			if next == 0 {
				return Token{Kind: ILLEGAL, Text: string(quote), Offset: offset}
			}
			l.readChar()
			switch l.ch {
			case 'n':
				out = append(out, '\n')
			case 't':
				out = append(out, '\t')
			default:
				out = append(out, l.ch)
			}
		} else {
			out = append(out, l.ch)
		}
		l.readChar()
	}
	l.readChar() // consume closing quote
	return Token{Kind: STRING, Text: string(out), Offset: offset}
}

func isLetter(ch byte) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_'
}

func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}
