// Package dataset reads the recipe CSV into domain records.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"strconv"
	"strings"

	"github.com/recipelens/backend/internal/domain"
	"github.com/spf13/afero"
)

// Dataset column names
const (
	ColumnTitle        = "Title"
	ColumnIngredients  = "Cleaned_Ingredients"
	ColumnInstructions = "Instructions"
	ColumnRating       = "Rating"
	ColumnImageName    = "Image_Name"
)

// requiredColumns must all be present in the header
var requiredColumns = []string{ColumnTitle, ColumnIngredients, ColumnInstructions}

// ctxCheckInterval is how many rows are read between context checks
const ctxCheckInterval = 1000

// CSVSource loads recipes from a delimited file
type CSVSource struct {
	fs   afero.Fs
	path string
}

// NewCSVSource creates a CSV dataset source reading path from fs
func NewCSVSource(fsys afero.Fs, path string) *CSVSource {
	return &CSVSource{fs: fsys, path: path}
}

// Path returns the dataset path
func (s *CSVSource) Path() string {
	return s.path
}

// LoadRecipes reads the whole file into memory
func (s *CSVSource) LoadRecipes(ctx context.Context) (*domain.LoadResult, error) {
	info, err := s.fs.Stat(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrDatasetNotFound, s.path)
		}
		return nil, fmt.Errorf("failed to stat dataset: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", domain.ErrDatasetNotFound, s.path)
	}

	f, err := s.fs.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	return ParseCSV(ctx, f, "csv:"+s.path)
}

// columnIndex maps header names to field positions
type columnIndex map[string]int

func (c columnIndex) optional(record []string, name string) (string, bool) {
	idx, ok := c[name]
	if !ok || idx >= len(record) {
		return "", false
	}
	return record[idx], true
}

// ParseCSV parses recipe rows from r. Malformed rows are skipped and
// reported in LoadResult.RowErrors.
func ParseCSV(ctx context.Context, r io.Reader, source string) (*domain.LoadResult, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: dataset has no header row", domain.ErrSchema)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns, minFields, err := indexHeader(header)
	if err != nil {
		return nil, err
	}

	result := &domain.LoadResult{Source: source}

	for row := 0; ; row++ {
		if row%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				result.RowErrors = append(result.RowErrors, domain.RowError{
					Row: row,
					Err: fmt.Errorf("%w: %v", domain.ErrParse, parseErr.Err),
				})
				continue
			}
			return nil, fmt.Errorf("failed to read dataset: %w", err)
		}

		if len(record) < minFields {
			result.RowErrors = append(result.RowErrors, domain.RowError{
				Row: row,
				Err: fmt.Errorf("%w: expected at least %d fields, got %d", domain.ErrParse, minFields, len(record)),
			})
			continue
		}

		result.Recipes = append(result.Recipes, domain.NewRecipe(
			row,
			record[columns[ColumnTitle]],
			record[columns[ColumnIngredients]],
			record[columns[ColumnInstructions]],
			parseRating(columns, record),
			parseImageName(columns, record),
		))
	}

	return result, nil
}

// indexHeader locates columns by name and checks required ones are present.
// Returns the minimum field count a row needs to carry every required column.
func indexHeader(header []string) (columnIndex, int, error) {
	columns := make(columnIndex, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		name = strings.TrimSpace(name)
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}

	var missing []string
	minFields := 0
	for _, name := range requiredColumns {
		idx, ok := columns[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		if idx+1 > minFields {
			minFields = idx + 1
		}
	}
	if len(missing) > 0 {
		return nil, 0, fmt.Errorf("%w: missing required column(s) %s", domain.ErrSchema, strings.Join(missing, ", "))
	}

	return columns, minFields, nil
}

// parseRating returns nil when the column is absent, empty, unparsable or NaN
func parseRating(columns columnIndex, record []string) *float64 {
	raw, ok := columns.optional(record, ColumnRating)
	if !ok {
		return nil
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// parseImageName returns nil when the column is absent or the cell is empty
func parseImageName(columns columnIndex, record []string) *string {
	raw, ok := columns.optional(record, ColumnImageName)
	if !ok {
		return nil
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	return &raw
}
