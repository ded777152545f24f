package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ListCategories returns all categories ordered by name.
func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	const q = `SELECT id, name, slug, parent_id FROM categories ORDER BY name, id`
	rows, err := s.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCategories(rows)
}

// GetCategory returns a single category by id.
func (s *Store) GetCategory(ctx context.Context, id uuid.UUID) (Category, error) {
	const q = `SELECT id, name, slug, parent_id FROM categories WHERE id = $1`
	var c Category
	err := s.db.QueryRow(ctx, q, id).Scan(&c.ID, &c.Name, &c.Slug, &c.ParentID)
	return c, err
}

// CreateCategory inserts a category.
func (s *Store) CreateCategory(ctx context.Context, name, slug string, parentID *uuid.UUID) (Category, error) {
	const q = `
		INSERT INTO categories (name, slug, parent_id)
		VALUES ($1, $2, $3)
		RETURNING id, name, slug, parent_id`
	var c Category
	err := s.db.QueryRow(ctx, q, name, slug, parentID).Scan(&c.ID, &c.Name, &c.Slug, &c.ParentID)
	return c, err
}

// UpdateCategory replaces the mutable fields of a category.
func (s *Store) UpdateCategory(ctx context.Context, c Category) (Category, error) {
	const q = `
		UPDATE categories SET name = $2, slug = $3, parent_id = $4
		WHERE id = $1
		RETURNING id, name, slug, parent_id`
	var out Category
	err := s.db.QueryRow(ctx, q, c.ID, c.Name, c.Slug, c.ParentID).Scan(&out.ID, &out.Name, &out.Slug, &out.ParentID)
	return out, err
}

// DeleteCategory removes a category. It reports whether a row was deleted.
func (s *Store) DeleteCategory(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

const productColumns = `id, name, description, sku, price, original_price, images, category_id, stock, length, width, height, actual_weight, status`

// ListProducts returns all products ordered by name.
func (s *Store) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := s.db.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

// GetProduct returns a single product by id.
func (s *Store) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	row := s.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

// CreateProduct inserts a product.
func (s *Store) CreateProduct(ctx context.Context, p Product) (Product, error) {
	const q = `
		INSERT INTO products (name, description, sku, price, original_price, images, category_id, stock, length, width, height, actual_weight, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + productColumns
	row := s.db.QueryRow(ctx, q,
		p.Name, p.Description, p.SKU, p.Price, p.OriginalPrice, p.Images,
		p.CategoryID, p.Stock, p.Length, p.Width, p.Height, p.ActualWeight, p.Status)
	return scanProduct(row)
}

// UpdateProduct replaces the mutable fields of a product.
func (s *Store) UpdateProduct(ctx context.Context, p Product) (Product, error) {
	const q = `
		UPDATE products SET
			name = $2, description = $3, sku = $4, price = $5, original_price = $6,
			images = $7, category_id = $8, stock = $9, length = $10, width = $11,
			height = $12, actual_weight = $13, status = $14
		WHERE id = $1
		RETURNING ` + productColumns
	row := s.db.QueryRow(ctx, q, p.ID,
		p.Name, p.Description, p.SKU, p.Price, p.OriginalPrice, p.Images,
		p.CategoryID, p.Stock, p.Length, p.Width, p.Height, p.ActualWeight, p.Status)
	return scanProduct(row)
}

// DeleteProduct removes a product. It reports whether a row was deleted.
func (s *Store) DeleteProduct(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func collectCategories(rows pgx.Rows) ([]Category, error) {
	out := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.ParentID); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func collectProducts(rows pgx.Rows) ([]Product, error) {
	out := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.SKU, &p.Price, &p.OriginalPrice,
		&p.Images, &p.CategoryID, &p.Stock, &p.Length, &p.Width, &p.Height,
		&p.ActualWeight, &p.Status)
	return p, err
}
