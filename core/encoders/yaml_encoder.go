package encoders

import (
	"bytes"
	"fmt"

	"github.com/fbz-tec/dbxport/core/formatters"
	"github.com/fbz-tec/dbxport/core/schema"
	"gopkg.in/yaml.v3"
)

type OrderedYAMLEncoder struct {
	indent int
}

func NewOrderedYAMLEncoder(indent int) OrderedYAMLEncoder {
	if indent <= 0 {
		indent = 2
	}
	return OrderedYAMLEncoder{indent: indent}
}

// EncodeRow builds a YAML mapping node (one record).
func (o OrderedYAMLEncoder) EncodeRow(row *schema.Row) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}

	for k, v := range row.AllFromFront() {
		keyNode := &yaml.Node{Kind: yaml.ScalarNode, Value: k}

		valueNode := &yaml.Node{}
		if err := valueNode.Encode(formatters.FormatYAMLValue(v)); err != nil {
			return nil, fmt.Errorf("error encoding value for key %q: %w", k, err)
		}
		node.Content = append(node.Content, keyNode, valueNode)
	}
	return node, nil
}

// EncodeItem renders a row as one "- " item of a top-level sequence, without
// the trailing newline.
func (o OrderedYAMLEncoder) EncodeItem(row *schema.Row) (string, error) {
	mapping, err := o.EncodeRow(row)
	if err != nil {
		return "", err
	}
	seq := &yaml.Node{Kind: yaml.SequenceNode, Content: []*yaml.Node{mapping}}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(o.indent)
	if err := enc.Encode(seq); err != nil {
		return "", fmt.Errorf("error writing YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
