package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/recipelens/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func sampleRecipes() []domain.Recipe {
	return []domain.Recipe{
		domain.NewRecipe(0, "Pancakes", "Egg, Milk, Flour", "Whisk and fry.", ptr(4.5), ptr("pancakes")),
		domain.NewRecipe(1, "Meringue", "Egg, Sugar", "Beat until stiff.", nil, nil),
		domain.NewRecipe(5, "Salted Water", "Salt", "Stir.", nil, ptr("water")),
	}
}

func TestImportAndLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index", "recipes.db")

	n, err := Import(ctx, path, sampleRecipes())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	result, err := NewSource(path).LoadRecipes(ctx)
	require.NoError(t, err)
	require.Len(t, result.Recipes, 3)
	assert.Empty(t, result.RowErrors)
	assert.Equal(t, "sqlite:"+path, result.Source)

	first := result.Recipes[0]
	assert.Equal(t, 0, first.ID)
	assert.Equal(t, "Pancakes", first.Title)
	assert.Equal(t, []string{"egg", "milk", "flour"}, first.IngredientTokens)
	require.NotNil(t, first.Rating)
	assert.InDelta(t, 4.5, *first.Rating, 1e-9)
	require.NotNil(t, first.ImageName)
	assert.Equal(t, "pancakes", *first.ImageName)

	assert.Nil(t, result.Recipes[1].Rating)
	assert.Nil(t, result.Recipes[1].ImageName)
	assert.Equal(t, 5, result.Recipes[2].ID)
}

func TestImport_ReplacesExistingRows(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "recipes.db")

	_, err := Import(ctx, path, sampleRecipes())
	require.NoError(t, err)
	_, err = Import(ctx, path, sampleRecipes()[:1])
	require.NoError(t, err)

	result, err := NewSource(path).LoadRecipes(ctx)
	require.NoError(t, err)
	assert.Len(t, result.Recipes, 1)
}

func TestLoadRecipes_NotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")

	_, err := NewSource(path).LoadRecipes(context.Background())

	assert.ErrorIs(t, err, domain.ErrDatasetNotFound)
	assert.NoFileExists(t, path)
}

func TestLoadRecipes_SchemaErrors(t *testing.T) {
	tests := []struct {
		name string
		ddl  string
		want string
	}{
		{
			name: "missing table",
			ddl:  "CREATE TABLE other (x TEXT)",
			want: "not found",
		},
		{
			name: "missing instructions column",
			ddl:  "CREATE TABLE recipes (title TEXT, cleaned_ingredients TEXT)",
			want: "instructions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "recipes.db")
			db, err := sql.Open("sqlite3", path)
			require.NoError(t, err)
			_, err = db.Exec(tt.ddl)
			require.NoError(t, err)
			require.NoError(t, db.Close())

			_, err = NewSource(path).LoadRecipes(context.Background())

			assert.ErrorIs(t, err, domain.ErrSchema)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadRecipes_SkipsNullRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipes.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE recipes (title TEXT, cleaned_ingredients TEXT, instructions TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO recipes VALUES ('Toast', 'Bread, Butter', 'Toast it.'), ('Broken', NULL, 'x'), ('Tea', 'Tea', 'Steep.')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	result, err := NewSource(path).LoadRecipes(context.Background())

	require.NoError(t, err)
	require.Len(t, result.Recipes, 2)
	require.Len(t, result.RowErrors, 1)
	assert.Equal(t, 1, result.RowErrors[0].Row)
	assert.ErrorIs(t, result.RowErrors[0], domain.ErrParse)
	assert.Equal(t, 2, result.Recipes[1].ID)
	assert.Nil(t, result.Recipes[0].Rating)
}
