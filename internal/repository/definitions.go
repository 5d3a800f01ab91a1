package repository

import (
	"context"
	"encoding/json"
	"fmt"
)

// Definition kinds stored as JSON documents.
const (
	strategyTable = "user_strategies"
	filterTable   = "user_filters"
)

// SaveStrategyDef persists a JSON strategy definition under its name.
func (db *Database) SaveStrategyDef(ctx context.Context, name string, def json.RawMessage) error {
	return db.saveDefinition(ctx, strategyTable, name, def)
}

// DeleteStrategyDef removes a stored strategy definition.
func (db *Database) DeleteStrategyDef(ctx context.Context, name string) error {
	return db.deleteDefinition(ctx, strategyTable, name)
}

// LoadStrategyDefs returns all stored strategy definitions keyed by name.
func (db *Database) LoadStrategyDefs(ctx context.Context) (map[string]json.RawMessage, error) {
	return db.loadDefinitions(ctx, strategyTable)
}

// SaveFilterDef persists a filter definition under its name.
func (db *Database) SaveFilterDef(ctx context.Context, name string, def json.RawMessage) error {
	return db.saveDefinition(ctx, filterTable, name, def)
}

// DeleteFilterDef removes a stored filter definition.
func (db *Database) DeleteFilterDef(ctx context.Context, name string) error {
	return db.deleteDefinition(ctx, filterTable, name)
}

// LoadFilterDefs returns all stored filter definitions keyed by name.
func (db *Database) LoadFilterDefs(ctx context.Context) (map[string]json.RawMessage, error) {
	return db.loadDefinitions(ctx, filterTable)
}

func (db *Database) saveDefinition(ctx context.Context, table, name string, def json.RawMessage) error {
	_, err := db.pool.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (name, definition, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (name) DO UPDATE SET definition = EXCLUDED.definition, updated_at = now()`, table),
		name, def,
	)
	if err != nil {
		return fmt.Errorf("save definition %q: %w", name, err)
	}
	return nil
}

func (db *Database) deleteDefinition(ctx context.Context, table, name string) error {
	_, err := db.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE name = $1`, table), name)
	if err != nil {
		return fmt.Errorf("delete definition %q: %w", name, err)
	}
	return nil
}

func (db *Database) loadDefinitions(ctx context.Context, table string) (map[string]json.RawMessage, error) {
	rows, err := db.pool.Query(ctx, fmt.Sprintf(`SELECT name, definition FROM %s`, table))
	if err != nil {
		return nil, fmt.Errorf("query definitions: %w", err)
	}
	defer rows.Close()

	defs := make(map[string]json.RawMessage)
	for rows.Next() {
		var name string
		var def json.RawMessage
		if err := rows.Scan(&name, &def); err != nil {
			return nil, fmt.Errorf("scan definition row: %w", err)
		}
		defs[name] = def
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read definition rows: %w", err)
	}
	return defs, nil
}
