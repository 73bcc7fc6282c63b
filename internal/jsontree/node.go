package jsontree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type Kind int

const (
	KindObject Kind = iota
	KindArray
	KindString
	KindNumber
	KindBool
	KindNull
)

// Node is one value in a parsed JSON document. Container nodes keep
// their children in document order; scalar nodes carry the display
// literal in Literal (unquoted for strings).
type Node struct {
	Key      string
	Path     string
	Kind     Kind
	Literal  string
	Children []*Node
}

// Parse builds a node tree from raw JSON, preserving object key order
// as it appears in the document.
func Parse(raw []byte) (*Node, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	root, err := parseValue(decoder, "", "$")
	if err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return root, nil
}

func parseValue(decoder *json.Decoder, key, path string) (*Node, error) {
	token, err := decoder.Token()
	if err != nil {
		return nil, err
	}
	switch typed := token.(type) {
	case json.Delim:
		switch typed {
		case '{':
			node := &Node{Key: key, Path: path, Kind: KindObject}
			for decoder.More() {
				keyToken, err := decoder.Token()
				if err != nil {
					return nil, err
				}
				name, ok := keyToken.(string)
				if !ok {
					return nil, fmt.Errorf("unexpected object key token %v", keyToken)
				}
				child, err := parseValue(decoder, name, path+"."+name)
				if err != nil {
					return nil, err
				}
				node.Children = append(node.Children, child)
			}
			if _, err := decoder.Token(); err != nil {
				return nil, err
			}
			return node, nil
		case '[':
			node := &Node{Key: key, Path: path, Kind: KindArray}
			for index := 0; decoder.More(); index++ {
				child, err := parseValue(decoder, "", fmt.Sprintf("%s[%d]", path, index))
				if err != nil {
					return nil, err
				}
				node.Children = append(node.Children, child)
			}
			if _, err := decoder.Token(); err != nil {
				return nil, err
			}
			return node, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", typed)
		}
	case string:
		return &Node{Key: key, Path: path, Kind: KindString, Literal: typed}, nil
	case json.Number:
		return &Node{Key: key, Path: path, Kind: KindNumber, Literal: typed.String()}, nil
	case bool:
		return &Node{Key: key, Path: path, Kind: KindBool, Literal: strconv.FormatBool(typed)}, nil
	case nil:
		return &Node{Key: key, Path: path, Kind: KindNull, Literal: "null"}, nil
	default:
		return nil, fmt.Errorf("unexpected token %v", token)
	}
}

// IsContainer reports whether the node can hold children.
func (n *Node) IsContainer() bool {
	return n.Kind == KindObject || n.Kind == KindArray
}

// Summary renders the container size label shown next to collapsible
// nodes: "N keys" for objects, "N items" for arrays.
func (n *Node) Summary() string {
	count := len(n.Children)
	switch n.Kind {
	case KindObject:
		if count == 1 {
			return "1 key"
		}
		return fmt.Sprintf("%d keys", count)
	case KindArray:
		if count == 1 {
			return "1 item"
		}
		return fmt.Sprintf("%d items", count)
	default:
		return ""
	}
}
