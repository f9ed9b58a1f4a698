// Package db provides an optional DuckDB sink for generated heatmaps,
// so stored grids can be explored with plain SQL. The engine itself
// never touches it.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/Kheng2023/SamYong2025/internal/heatmap"
)

var (
	instance *sql.DB
	once     sync.Once
	initErr  error
)

// Config holds database configuration.
type Config struct {
	DataDir string
	DBName  string
}

// Get returns the singleton DuckDB connection, creating the heatmap
// cell table on first use.
func Get(cfg Config) (*sql.DB, error) {
	once.Do(func() {
		duckdbDir := filepath.Join(cfg.DataDir, "duckdb")
		if err := os.MkdirAll(duckdbDir, 0755); err != nil {
			initErr = fmt.Errorf("failed to create duckdb directory: %w", err)
			return
		}

		dbPath := filepath.Join(duckdbDir, cfg.DBName+".duckdb")
		instance, initErr = sql.Open("duckdb", dbPath)
		if initErr != nil {
			return
		}

		_, initErr = instance.Exec(`CREATE TABLE IF NOT EXISTS heatmap_cells (
			heatmap_id VARCHAR,
			row INTEGER,
			col INTEGER,
			lon DOUBLE,
			lat DOUBLE,
			value DOUBLE
		)`)
	})
	return instance, initErr
}

// Close closes the database connection.
func Close() error {
	if instance != nil {
		return instance.Close()
	}
	return nil
}

// InsertGrid flattens a grid into heatmap_cells, replacing any previous
// rows for the same heatmap ID.
func InsertGrid(db *sql.DB, id string, g *heatmap.Grid) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM heatmap_cells WHERE heatmap_id = ?`, id); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO heatmap_cells (heatmap_id, row, col, lon, lat, value) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			center := g.CellCenter(row, col)
			if _, err := stmt.Exec(id, row, col, center.Lon(), center.Lat(), g.At(row, col)); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// DeleteGrid removes a heatmap's cells from the sink.
func DeleteGrid(db *sql.DB, id string) error {
	_, err := db.Exec(`DELETE FROM heatmap_cells WHERE heatmap_id = ?`, id)
	return err
}
