package types

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/blake2b"
)

// fingerprintVersion is bumped whenever canonicalNode changes shape.
const fingerprintVersion uint8 = 1

type canonicalTree struct {
	Version uint8
	Root    canonicalNode
}

type canonicalNode struct {
	Kind uint8
	Op   uint8           `cbor:",omitempty"`
	Name string          `cbor:",omitempty"`
	Lit  *canonicalValue `cbor:",omitempty"`
	Kids []canonicalNode `cbor:",omitempty"`
}

type canonicalValue struct {
	Kind uint8
	Num  float64 `cbor:",omitempty"`
	Str  string  `cbor:",omitempty"`
	Bool bool    `cbor:",omitempty"`
}

func canonicalize(n *Node) canonicalNode {
	cn := canonicalNode{Kind: uint8(n.Kind), Op: uint8(n.Op), Name: n.Name}
	if n.Kind == NodeLiteral {
		cn.Lit = &canonicalValue{
			Kind: uint8(n.Value.Kind()),
			Num:  n.Value.Num(),
			Str:  n.Value.Str(),
			Bool: n.Value.Bool(),
		}
	}
	for _, child := range []*Node{n.LHS, n.RHS} {
		if child != nil {
			cn.Kids = append(cn.Kids, canonicalize(child))
		}
	}
	for _, a := range n.Arguments {
		cn.Kids = append(cn.Kids, canonicalize(a))
	}
	return cn
}

// CanonicalBytes returns the deterministic CBOR encoding of the tree.
// Source positions and whitespace do not contribute.
func (e *Expression) CanonicalBytes() ([]byte, error) {
	if e == nil || e.root == nil {
		return nil, fmt.Errorf("empty expression")
	}
	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create CBOR encoder: %w", err)
	}
	data, err := encMode.Marshal(canonicalTree{Version: fingerprintVersion, Root: canonicalize(e.root)})
	if err != nil {
		return nil, fmt.Errorf("CBOR encoding failed: %w", err)
	}
	return data, nil
}

// Fingerprint returns "blake2b:<hex>" over CanonicalBytes. Two formulas
// that differ only in layout share a fingerprint.
func (e *Expression) Fingerprint() (string, error) {
	data, err := e.CanonicalBytes()
	if err != nil {
		return "", err
	}
	sum := blake2b.Sum256(data)
	return fmt.Sprintf("blake2b:%x", sum), nil
}
