// Package sqlite stores the recipe dataset in a SQLite database and loads
// it back as an alternative to the CSV source.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/recipelens/backend/internal/domain"
)

const tableName = "recipes"

// Column names in the recipes table
const (
	columnID           = "id"
	columnTitle        = "title"
	columnIngredients  = "cleaned_ingredients"
	columnInstructions = "instructions"
	columnRating       = "rating"
	columnImageName    = "image_name"
)

var requiredColumns = []string{columnTitle, columnIngredients, columnInstructions}

const schema = `CREATE TABLE IF NOT EXISTS recipes (
	id INTEGER PRIMARY KEY,
	title TEXT NOT NULL,
	cleaned_ingredients TEXT NOT NULL,
	instructions TEXT NOT NULL,
	rating REAL,
	image_name TEXT
)`

// Source loads recipes from an existing SQLite database
type Source struct {
	path string
}

// NewSource creates a SQLite dataset source
func NewSource(path string) *Source {
	return &Source{path: path}
}

// LoadRecipes reads every row of the recipes table, ordered by id
func (s *Source) LoadRecipes(ctx context.Context) (*domain.LoadResult, error) {
	// sqlite3 creates missing files on open, so check first
	if _, err := os.Stat(s.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDatasetNotFound, s.path)
		}
		return nil, fmt.Errorf("failed to stat database: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+s.path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	columns, err := tableColumns(ctx, db)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: table %q not found", domain.ErrSchema, tableName)
	}

	var missing []string
	for _, name := range requiredColumns {
		if !columns[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required column(s) %s", domain.ErrSchema, strings.Join(missing, ", "))
	}

	return readRecipes(ctx, db, columns, "sqlite:"+s.path)
}

// tableColumns returns the set of column names of the recipes table
func tableColumns(ctx context.Context, db *sql.DB) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+tableName+")")
	if err != nil {
		return nil, fmt.Errorf("reading table info: %w", err)
	}
	defer rows.Close()

	columns := make(map[string]bool)
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("scanning table info: %w", err)
		}
		columns[strings.ToLower(name)] = true
	}
	return columns, rows.Err()
}

func readRecipes(ctx context.Context, db *sql.DB, columns map[string]bool, source string) (*domain.LoadResult, error) {
	selectCols := []string{"rowid", columnTitle, columnIngredients, columnInstructions}
	orderBy := "rowid"
	if columns[columnID] {
		selectCols[0] = columnID
		orderBy = columnID
	}
	if columns[columnRating] {
		selectCols = append(selectCols, columnRating)
	}
	if columns[columnImageName] {
		selectCols = append(selectCols, columnImageName)
	}

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", strings.Join(selectCols, ", "), tableName, orderBy)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying recipes: %w", err)
	}
	defer rows.Close()

	result := &domain.LoadResult{Source: source}
	for row := 0; rows.Next(); row++ {
		var (
			id                               int64
			title, ingredients, instructions sql.NullString
			rating                           sql.NullFloat64
			imageName                        sql.NullString
		)
		dest := []any{&id, &title, &ingredients, &instructions}
		if columns[columnRating] {
			dest = append(dest, &rating)
		}
		if columns[columnImageName] {
			dest = append(dest, &imageName)
		}

		if err := rows.Scan(dest...); err != nil {
			result.RowErrors = append(result.RowErrors, domain.RowError{
				Row: row,
				Err: fmt.Errorf("%w: %v", domain.ErrParse, err),
			})
			continue
		}
		if !title.Valid || !ingredients.Valid || !instructions.Valid {
			result.RowErrors = append(result.RowErrors, domain.RowError{
				Row: row,
				Err: fmt.Errorf("%w: NULL in required column", domain.ErrParse),
			})
			continue
		}

		recipeID := row
		if columns[columnID] {
			recipeID = int(id)
		}

		var ratingPtr *float64
		if rating.Valid {
			v := rating.Float64
			ratingPtr = &v
		}
		var imagePtr *string
		if imageName.Valid && imageName.String != "" {
			v := imageName.String
			imagePtr = &v
		}

		result.Recipes = append(result.Recipes, domain.NewRecipe(
			recipeID, title.String, ingredients.String, instructions.String, ratingPtr, imagePtr,
		))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating recipes: %w", err)
	}

	return result, nil
}

// Import replaces the contents of the recipes table at path with recipes.
// The database file and its directory are created if needed.
func Import(ctx context.Context, path string, recipes []domain.Recipe) (int, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return 0, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return 0, fmt.Errorf("creating schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+tableName); err != nil {
		return 0, fmt.Errorf("clearing recipes: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO recipes
		(id, title, cleaned_ingredients, instructions, rating, image_name)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range recipes {
		var rating, imageName any
		if r.Rating != nil {
			rating = *r.Rating
		}
		if r.ImageName != nil {
			imageName = *r.ImageName
		}
		if _, err := stmt.ExecContext(ctx, r.ID, r.Title, r.RawIngredients, r.Instructions, rating, imageName); err != nil {
			return 0, fmt.Errorf("inserting recipe %d: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing import: %w", err)
	}
	return len(recipes), nil
}
