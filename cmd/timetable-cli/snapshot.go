package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/eduscheduler-api/internal/models"
	"github.com/noah-isme/eduscheduler-api/internal/repository"
)

// loadSnapshot reads an entity snapshot from a .json, .yaml or .yml file.
// Missing rules fields keep their defaults.
func loadSnapshot(path string) (*models.EntitySnapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return decodeSnapshot(raw)
	}

	var doc interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml snapshot: %w", err)
	}
	// Models carry json tags only, so YAML is routed through JSON.
	asJSON, err := json.Marshal(stringKeys(doc))
	if err != nil {
		return nil, fmt.Errorf("convert yaml snapshot: %w", err)
	}
	return decodeSnapshot(asJSON)
}

func decodeSnapshot(raw []byte) (*models.EntitySnapshot, error) {
	snapshot := &models.EntitySnapshot{Rules: models.DefaultRules()}
	if err := json.Unmarshal(raw, snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return snapshot, nil
}

// stringKeys rewrites YAML maps with non-string keys (e.g. numeric subject codes).
func stringKeys(v interface{}) interface{} {
	switch node := v.(type) {
	case map[string]interface{}:
		for k, child := range node {
			node[k] = stringKeys(child)
		}
		return node
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(node))
		for k, child := range node {
			out[fmt.Sprint(k)] = stringKeys(child)
		}
		return out
	case []interface{}:
		for i, child := range node {
			node[i] = stringKeys(child)
		}
		return node
	default:
		return v
	}
}

// seedStore copies the snapshot into the registry, preserving ids and order.
func seedStore(ctx context.Context, stores repository.Registry, snapshot *models.EntitySnapshot) error {
	for i := range snapshot.Faculty {
		if err := stores.Faculty.Create(ctx, &snapshot.Faculty[i]); err != nil {
			return fmt.Errorf("seed faculty %s: %w", snapshot.Faculty[i].ID, err)
		}
	}
	for i := range snapshot.Subjects {
		if err := stores.Subjects.Create(ctx, &snapshot.Subjects[i]); err != nil {
			return fmt.Errorf("seed subject %s: %w", snapshot.Subjects[i].Code, err)
		}
	}
	for i := range snapshot.Classrooms {
		if err := stores.Classrooms.Create(ctx, &snapshot.Classrooms[i]); err != nil {
			return fmt.Errorf("seed classroom %s: %w", snapshot.Classrooms[i].ID, err)
		}
	}
	for i := range snapshot.Batches {
		if err := stores.Batches.Create(ctx, &snapshot.Batches[i]); err != nil {
			return fmt.Errorf("seed batch %s: %w", snapshot.Batches[i].ID, err)
		}
	}
	rules := snapshot.Rules
	if err := stores.Rules.Save(ctx, &rules); err != nil {
		return fmt.Errorf("seed rules: %w", err)
	}
	return nil
}
