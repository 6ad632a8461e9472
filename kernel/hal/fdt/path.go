package fdt

import (
	"bytes"
	"strings"

	"github.com/ababo/arwen/kernel"
)

// PathIter resolves a slash-separated path against the token stream without
// building the tree. The first path component matches the root node, whose
// name is empty, so "/memory/reg" means root, then a child node named
// "memory", then a property named "reg".
//
// When ignoreAddress is set, node names are also compared with their
// "@address" suffix stripped so that "memory@40000000" matches "memory".
type PathIter struct {
	tokens        Iter
	path          string
	ignoreAddress bool

	// path[start:end] is the component expected at the current depth.
	start, end int

	done bool
	err  *kernel.Error
}

// NewPathIter returns a PathIter that consumes tokens.
func NewPathIter(tokens Iter, path string, ignoreAddress bool) PathIter {
	return PathIter{
		tokens:        tokens,
		path:          path,
		ignoreAddress: ignoreAddress,
		end:           componentEnd(path, 0),
	}
}

// Next returns a cursor positioned right before the next matching token: the
// BeginNode token of a matching node or the Property token of a matching
// property. Matches are produced in document order.
func (p *PathIter) Next() (Iter, bool) {
	for !p.done {
		pos := p.tokens
		tok, ok := p.tokens.Next()
		if !ok {
			p.done = true
			break
		}

		switch tok.Kind {
		case TokenBeginNode:
			if !p.nameMatches(tok.Name) {
				p.skipSubtree()
				continue
			}

			if p.lastComponent() {
				if p.skipSubtree() {
					return pos, true
				}
				continue
			}
			p.advance()
		case TokenEndNode:
			if !p.retreat() {
				p.done = true
			}
		case TokenProperty:
			if p.lastComponent() && string(tok.Name) == p.component() {
				return pos, true
			}
		}
	}

	return Iter{}, false
}

// Err returns the integrity error that stopped the query, if any.
func (p *PathIter) Err() *kernel.Error {
	if p.err != nil {
		return p.err
	}
	return p.tokens.Err()
}

func (p *PathIter) component() string {
	return p.path[p.start:p.end]
}

func (p *PathIter) lastComponent() bool {
	return p.end == len(p.path)
}

func (p *PathIter) advance() {
	p.start = p.end + 1
	p.end = componentEnd(p.path, p.start)
}

// retreat moves the expected component one level up. It returns false when
// the current component is already the first one.
func (p *PathIter) retreat() bool {
	if p.start == 0 {
		return false
	}
	p.end = p.start - 1
	p.start = strings.LastIndexByte(p.path[:p.end], '/') + 1
	return true
}

func (p *PathIter) nameMatches(name []byte) bool {
	comp := p.component()
	if string(name) == comp {
		return true
	}
	if !p.ignoreAddress {
		return false
	}
	if at := bytes.IndexByte(name, '@'); at != -1 {
		return string(name[:at]) == comp
	}
	return false
}

// skipSubtree consumes tokens up to and including the EndNode that closes
// the node whose BeginNode was just read.
func (p *PathIter) skipSubtree() bool {
	for depth := 1; depth > 0; {
		tok, ok := p.tokens.Next()
		if !ok {
			p.done = true
			if p.tokens.Err() == nil {
				p.err = errTruncated
			}
			return false
		}

		switch tok.Kind {
		case TokenBeginNode:
			depth++
		case TokenEndNode:
			depth--
		}
	}
	return true
}

func componentEnd(path string, start int) int {
	if slash := strings.IndexByte(path[start:], '/'); slash != -1 {
		return start + slash
	}
	return len(path)
}
