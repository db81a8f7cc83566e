// Package lexer tokenizes vex expression source. Tokens carry the byte
// offset of their first character so parse errors can point at the exact
// position in the original condition or filter string.
package lexer
