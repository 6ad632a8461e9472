package fdt

import (
	"github.com/ababo/arwen/kernel"
	"github.com/ababo/arwen/kernel/kfmt"
	"github.com/ababo/arwen/kernel/mem/rawmem"
)

// TokenKind identifies a structure block token.
type TokenKind uint32

// Structure block tokens.
const (
	TokenBeginNode TokenKind = 1
	TokenEndNode   TokenKind = 2
	TokenProperty  TokenKind = 3
	TokenNop       TokenKind = 4
	TokenEnd       TokenKind = 9
)

// String implements fmt.Stringer for TokenKind.
func (k TokenKind) String() string {
	switch k {
	case TokenBeginNode:
		return "begin-node"
	case TokenEndNode:
		return "end-node"
	case TokenProperty:
		return "property"
	case TokenNop:
		return "nop"
	case TokenEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Token is a single structure block token. Name is set for TokenBeginNode
// (the full node name, including any @address suffix) and TokenProperty;
// Value is only set for TokenProperty. Both point into the blob.
type Token struct {
	Kind  TokenKind
	Name  []byte
	Value []byte
}

// Iter walks the structure block one token at a time. Iter is a value type:
// a copy is an independent cursor at the same position, which is how callers
// rewind.
type Iter struct {
	blob    rawmem.View
	strings uint64
	offset  uint64
	done    bool
	err     *kernel.Error
}

// Next decodes the token at the cursor and advances past it. It returns
// false once the End token is reached or an unknown token is encountered;
// Err tells the two apart.
func (it *Iter) Next() (Token, bool) {
	if it.done {
		return Token{}, false
	}

	kind := TokenKind(it.blob.Uint32BE(it.offset))
	it.offset += 4

	switch kind {
	case TokenBeginNode:
		name := it.blob.CString(it.offset)
		it.offset = align4(it.offset + uint64(len(name)) + 1)
		return Token{Kind: kind, Name: name}, true
	case TokenProperty:
		valueLen := uint64(it.blob.Uint32BE(it.offset))
		nameOffset := uint64(it.blob.Uint32BE(it.offset + 4))
		it.offset += 8

		value := it.blob.Slice(it.offset, valueLen)
		it.offset = align4(it.offset + valueLen)
		return Token{Kind: kind, Name: it.blob.CString(it.strings + nameOffset), Value: value}, true
	case TokenEndNode, TokenNop:
		return Token{Kind: kind}, true
	case TokenEnd:
		it.done = true
		return Token{}, false
	default:
		it.done, it.err = true, errBadToken
		kfmt.Errorf("[fdt] unknown token 0x%x at offset 0x%x", uint32(kind), it.offset-4)
		return Token{}, false
	}
}

// Err returns the integrity error that stopped the iterator, if any.
func (it *Iter) Err() *kernel.Error {
	return it.err
}

// Offset returns the blob offset of the next token.
func (it *Iter) Offset() uint64 {
	return it.offset
}

func align4(offset uint64) uint64 {
	return (offset + 3) &^ 3
}
