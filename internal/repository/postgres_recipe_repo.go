package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/recepti/internal/model"
)

// PostgresRecipeRepo はPostgreSQLを使用したレシピリポジトリ。
type PostgresRecipeRepo struct {
	db *sql.DB
}

// NewPostgresRecipeRepo はPostgresRecipeRepoを生成する。
func NewPostgresRecipeRepo(db *sql.DB) *PostgresRecipeRepo {
	return &PostgresRecipeRepo{db: db}
}

const recipeColumns = `id, title, slug, description, image_url, servings,
	prep_minutes, cook_minutes, author_id, created_at, updated_at`

func scanRecipe(row *sql.Row) (*model.Recipe, error) {
	recipe := &model.Recipe{}
	err := row.Scan(&recipe.ID, &recipe.Title, &recipe.Slug, &recipe.Description,
		&recipe.ImageURL, &recipe.Servings, &recipe.PrepMinutes, &recipe.CookMinutes,
		&recipe.AuthorID, &recipe.CreatedAt, &recipe.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan recipe: %w", err)
	}
	return recipe, nil
}

// FindByID は指定IDのレシピを取得する。見つからない場合はnilを返す。
func (r *PostgresRecipeRepo) FindByID(ctx context.Context, id string) (*model.Recipe, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE id = $1`, id)
	return scanRecipe(row)
}

// FindBySlug はスラッグでレシピを検索する。見つからない場合はnilを返す。
func (r *PostgresRecipeRepo) FindBySlug(ctx context.Context, slug string) (*model.Recipe, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE slug = $1`, slug)
	return scanRecipe(row)
}

// List はレシピ一覧を評価集計付きでcreated_at降順で返す。
// 平均評価はratingsテーブル、レビュー数は承認済みレビューのみを集計する。
func (r *PostgresRecipeRepo) List(ctx context.Context, limit, offset int) ([]model.RecipeSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT rc.id, rc.title, rc.slug, rc.description, rc.image_url, rc.servings,
		        rc.prep_minutes, rc.cook_minutes, rc.author_id, rc.created_at, rc.updated_at,
		        COALESCE(AVG(rt.stars), 0) AS avg_rating,
		        COUNT(DISTINCT rt.id) AS rating_count,
		        COUNT(DISTINCT rv.id) FILTER (WHERE rv.status = 'approved') AS review_count
		 FROM recipes rc
		 LEFT JOIN ratings rt ON rt.recipe_id = rc.id
		 LEFT JOIN reviews rv ON rv.recipe_id = rc.id
		 GROUP BY rc.id
		 ORDER BY rc.created_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	defer rows.Close()

	var results []model.RecipeSummary
	for rows.Next() {
		var s model.RecipeSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.Slug, &s.Description, &s.ImageURL,
			&s.Servings, &s.PrepMinutes, &s.CookMinutes, &s.AuthorID, &s.CreatedAt,
			&s.UpdatedAt, &s.AverageRating, &s.RatingCount, &s.ReviewCount); err != nil {
			return nil, fmt.Errorf("failed to scan recipe summary: %w", err)
		}
		results = append(results, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate recipes: %w", err)
	}

	return results, nil
}

// Count はレシピの総数を返す。
func (r *PostgresRecipeRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count recipes: %w", err)
	}
	return count, nil
}

// Create はレシピと材料・手順・栄養情報を同一トランザクションで作成する。
func (r *PostgresRecipeRepo) Create(ctx context.Context, recipe *model.Recipe, ingredients []model.Ingredient, steps []model.Step, nutrition *model.Nutrition) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO recipes (id, title, slug, description, image_url, servings,
		                      prep_minutes, cook_minutes, author_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		recipe.ID, recipe.Title, recipe.Slug, recipe.Description, recipe.ImageURL,
		recipe.Servings, recipe.PrepMinutes, recipe.CookMinutes, recipe.AuthorID,
		recipe.CreatedAt, recipe.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert recipe: %w", err)
	}

	for _, ing := range ingredients {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO recipe_ingredients (id, recipe_id, position, text)
			 VALUES ($1, $2, $3, $4)`,
			ing.ID, ing.RecipeID, ing.Position, ing.Text,
		)
		if err != nil {
			return fmt.Errorf("failed to insert ingredient: %w", err)
		}
	}

	for _, step := range steps {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO recipe_steps (id, recipe_id, position, text)
			 VALUES ($1, $2, $3, $4)`,
			step.ID, step.RecipeID, step.Position, step.Text,
		)
		if err != nil {
			return fmt.Errorf("failed to insert step: %w", err)
		}
	}

	if nutrition != nil {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO recipe_nutrition (recipe_id, calories, protein_g, carbs_g, fat_g)
			 VALUES ($1, $2, $3, $4, $5)`,
			nutrition.RecipeID, nutrition.Calories, nutrition.ProteinG, nutrition.CarbsG, nutrition.FatG,
		)
		if err != nil {
			return fmt.Errorf("failed to insert nutrition: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// DeleteCascade はレシピと全従属行を同一トランザクションで削除する。
// 削除順序は子から親へ。削除されたレシピ行数を返す。
func (r *PostgresRecipeRepo) DeleteCascade(ctx context.Context, recipeID string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// 子テーブルを先に削除する（外部キー依存の順序）
	childDeletes := []struct {
		table string
		query string
	}{
		{"recipe_nutrition", `DELETE FROM recipe_nutrition WHERE recipe_id = $1`},
		{"recipe_categorizations", `DELETE FROM recipe_categorizations WHERE recipe_id = $1`},
		{"recipe_steps", `DELETE FROM recipe_steps WHERE recipe_id = $1`},
		{"recipe_ingredients", `DELETE FROM recipe_ingredients WHERE recipe_id = $1`},
		{"reviews", `DELETE FROM reviews WHERE recipe_id = $1`},
		{"ratings", `DELETE FROM ratings WHERE recipe_id = $1`},
		{"saved_recipes", `DELETE FROM saved_recipes WHERE recipe_id = $1`},
		{"comments", `DELETE FROM comments WHERE recipe_id = $1`},
	}
	for _, cd := range childDeletes {
		if _, err := tx.ExecContext(ctx, cd.query, recipeID); err != nil {
			return 0, fmt.Errorf("failed to delete from %s: %w", cd.table, err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM recipes WHERE id = $1`, recipeID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete recipe: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return affected, nil
}

// ListIngredients は指定レシピの材料一覧をposition昇順で返す。
func (r *PostgresRecipeRepo) ListIngredients(ctx context.Context, recipeID string) ([]model.Ingredient, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, recipe_id, position, text FROM recipe_ingredients
		 WHERE recipe_id = $1 ORDER BY position ASC`,
		recipeID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	defer rows.Close()

	var ingredients []model.Ingredient
	for rows.Next() {
		var ing model.Ingredient
		if err := rows.Scan(&ing.ID, &ing.RecipeID, &ing.Position, &ing.Text); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		ingredients = append(ingredients, ing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate ingredients: %w", err)
	}

	return ingredients, nil
}

// ListSteps は指定レシピの手順一覧をposition昇順で返す。
func (r *PostgresRecipeRepo) ListSteps(ctx context.Context, recipeID string) ([]model.Step, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, recipe_id, position, text FROM recipe_steps
		 WHERE recipe_id = $1 ORDER BY position ASC`,
		recipeID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list steps: %w", err)
	}
	defer rows.Close()

	var steps []model.Step
	for rows.Next() {
		var step model.Step
		if err := rows.Scan(&step.ID, &step.RecipeID, &step.Position, &step.Text); err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate steps: %w", err)
	}

	return steps, nil
}

// FindNutrition は指定レシピの栄養情報を取得する。見つからない場合はnilを返す。
func (r *PostgresRecipeRepo) FindNutrition(ctx context.Context, recipeID string) (*model.Nutrition, error) {
	nutrition := &model.Nutrition{}
	err := r.db.QueryRowContext(ctx,
		`SELECT recipe_id, calories, protein_g, carbs_g, fat_g
		 FROM recipe_nutrition WHERE recipe_id = $1`,
		recipeID,
	).Scan(&nutrition.RecipeID, &nutrition.Calories, &nutrition.ProteinG,
		&nutrition.CarbsG, &nutrition.FatG)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find nutrition: %w", err)
	}

	return nutrition, nil
}

// compile-time interface check
var _ RecipeRepository = (*PostgresRecipeRepo)(nil)
