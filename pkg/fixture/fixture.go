// Package fixture runs recorded object-model cases written in YAML.
//
// A fixture file holds a list of cases. Each case builds a receiver from
// its `this` node, calls `method` on it with `args` and compares the
// outcome against `result`, `after` (the receiver afterwards) or `throws`.
//
// Sequences become arrays and mappings become plain objects. Three local
// tags extend plain YAML:
//
//	!undefined      the undefined value
//	!this           the receiver of the case
//	!fn <name>      a native function, see Natives
package fixture

import (
	"bytes"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	avmerrors "avmcore/pkg/errors"
)

const (
	tagUndefined = "!undefined"
	tagThis      = "!this"
	tagFn        = "!fn"
)

// File is a parsed fixture document.
type File struct {
	Path    string `yaml:"-"`
	Source  string `yaml:"-"`
	Name    string `yaml:"name"`
	Version uint8  `yaml:"version"` // zero selects the player's configured version
	Cases   []Case `yaml:"cases"`
}

// Case is one recorded call.
type Case struct {
	Name      string    `yaml:"name"`
	Version   uint8     `yaml:"version"`
	This      yaml.Node `yaml:"this"`
	Method    string    `yaml:"method"`
	Construct bool      `yaml:"construct"`
	Args      yaml.Node `yaml:"args"`
	Result    yaml.Node `yaml:"result"`
	After     yaml.Node `yaml:"after"`
	Throws    yaml.Node `yaml:"throws"`

	// Line is where the case starts in the document.
	Line int `yaml:"-"`
}

// Load reads and parses a fixture file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read fixture %s", path)
	}
	return Parse(path, data)
}

// Parse decodes a fixture document. path is only used for positions.
func Parse(path string, data []byte) (*File, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&root); err != nil {
		return nil, &avmerrors.FixtureError{
			Position: avmerrors.Position{File: path, Line: errorLine(err), Column: 1},
			Msg:      err.Error(),
			Cause:    err,
		}
	}
	if err := resolveAliases(&root, map[*yaml.Node]bool{}, false); err != nil {
		return nil, errors.WithMessagef(err, "fixture %s", path)
	}

	f := &File{Path: path, Source: string(data)}
	if err := root.Decode(f); err != nil {
		return nil, &avmerrors.FixtureError{
			Position: avmerrors.Position{File: path, Line: root.Line, Column: root.Column},
			Msg:      err.Error(),
			Cause:    err,
		}
	}
	cases := casesNode(&root)
	for i := range f.Cases {
		c := &f.Cases[i]
		if c.Version == 0 {
			c.Version = f.Version
		}
		if cases != nil && i < len(cases.Content) {
			c.Line = cases.Content[i].Line
		}
		if c.Method == "" {
			return nil, &avmerrors.FixtureError{
				Position: avmerrors.Position{File: path, Line: c.Line, Column: 1},
				Msg:      "case " + c.Name + " has no method",
			}
		}
	}
	return f, nil
}

// errorLine extracts the line from a "yaml: line N: ..." syntax error, or
// returns 0.
func errorLine(err error) int {
	rest, ok := strings.CutPrefix(err.Error(), "yaml: line ")
	if !ok {
		return 0
	}
	n, _, _ := strings.Cut(rest, ":")
	line, err := strconv.Atoi(n)
	if err != nil {
		return 0
	}
	return line
}

func casesNode(root *yaml.Node) *yaml.Node {
	doc := root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}
	if doc.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		if doc.Content[i].Value == "cases" {
			return doc.Content[i+1]
		}
	}
	return nil
}

func resolveAliases(node *yaml.Node, path map[*yaml.Node]bool, skipCheck bool) error {
	if !skipCheck && path[node] {
		return errors.New("circular alias")
	}
	switch node.Kind {
	case yaml.AliasNode:
		if node.Alias == nil {
			return errors.New("unresolved alias node")
		}
		path[node] = true
		*node = *node.Alias
		if err := resolveAliases(node, path, true); err != nil {
			return err
		}
		delete(path, node)
	case yaml.DocumentNode, yaml.MappingNode, yaml.SequenceNode:
		for _, child := range node.Content {
			if err := resolveAliases(child, path, false); err != nil {
				return err
			}
		}
	}
	return nil
}
