package file

import (
	"bytes"
	"fmt"
	"io"

	"github.com/aretw0/omnibot/pkg/actions"
	"github.com/aretw0/omnibot/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// rawFlow mirrors the on-disk flow document before node payloads are typed.
// YAML is a superset of JSON, so one decoder serves .json, .yaml and .yml.
type rawFlow struct {
	ID       string                `yaml:"id"`
	Name     string                `yaml:"name"`
	Version  int                   `yaml:"version"`
	Active   bool                  `yaml:"active"`
	Messages domain.SystemMessages `yaml:"messages"`
	Nodes    []rawNode             `yaml:"nodes"`
	Edges    []domain.FlowEdge     `yaml:"edges"`
}

type rawNode struct {
	ID   string         `yaml:"id"`
	Type string         `yaml:"type"`
	Data map[string]any `yaml:"data"`
}

type rawCatalog struct {
	WriteActions []domain.WriteAction `yaml:"write_actions"`
}

// DecodeFlow reads a flow document and types each node payload by its kind.
func DecodeFlow(r io.Reader) (*domain.FlowDefinition, error) {
	var raw rawFlow
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode flow: %w", err)
	}
	if raw.ID == "" {
		return nil, fmt.Errorf("flow missing id")
	}

	flow := &domain.FlowDefinition{
		ID:       raw.ID,
		Name:     raw.Name,
		Version:  raw.Version,
		Active:   raw.Active,
		Messages: raw.Messages,
		Edges:    raw.Edges,
		Nodes:    make([]domain.FlowNode, 0, len(raw.Nodes)),
	}
	for i, rn := range raw.Nodes {
		node, err := decodeNode(rn)
		if err != nil {
			return nil, fmt.Errorf("flow %s node #%d: %w", raw.ID, i, err)
		}
		flow.Nodes = append(flow.Nodes, node)
	}
	return flow, nil
}

// DecodeFlowBytes is DecodeFlow over an in-memory document.
func DecodeFlowBytes(data []byte) (*domain.FlowDefinition, error) {
	return DecodeFlow(bytes.NewReader(data))
}

func decodeNode(rn rawNode) (domain.FlowNode, error) {
	kind, err := domain.ParseNodeKind(rn.Type)
	if err != nil {
		return domain.FlowNode{}, err
	}

	var data domain.NodeData
	switch kind {
	case domain.KindSendMessage:
		var d domain.SendMessage
		err = decodePayload(rn.Data, &d)
		data = d
	case domain.KindMenuButtons:
		var d domain.MenuButtons
		err = decodePayload(rn.Data, &d)
		data = d
	case domain.KindCollectInfo:
		var d domain.CollectInfo
		err = decodePayload(rn.Data, &d)
		data = d
	case domain.KindIntegration:
		var d domain.Integration
		err = decodePayload(rn.Data, &d)
		data = d
	case domain.KindExecuteWriteAction:
		var d domain.ExecuteWriteAction
		err = decodePayload(rn.Data, &d)
		data = d
	case domain.KindTransfer:
		var d domain.Transfer
		err = decodePayload(rn.Data, &d)
		data = d
	}
	if err != nil {
		return domain.FlowNode{}, fmt.Errorf("node %s: %w", rn.ID, err)
	}
	return domain.NewNode(rn.ID, data), nil
}

func decodePayload(in map[string]any, out any) error {
	if in == nil {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      false,
	})
	if err != nil {
		return err
	}
	return dec.Decode(in)
}

// DecodeWriteActions reads a document holding a write_actions list.
func DecodeWriteActions(r io.Reader) ([]domain.WriteAction, error) {
	var raw rawCatalog
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode write actions: %w", err)
	}
	for i, a := range raw.WriteActions {
		if a.ID == "" {
			return nil, fmt.Errorf("write action #%d missing id", i)
		}
		if a.ResponseExpr != "" {
			if _, err := actions.CompileResponseExpr(a.ResponseExpr); err != nil {
				return nil, fmt.Errorf("write action %s: %w", a.ID, err)
			}
		}
	}
	return raw.WriteActions, nil
}
