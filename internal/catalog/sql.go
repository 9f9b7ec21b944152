package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/leapstack-labs/leapgrid/pkg/core"
)

// DefaultTable is the table database catalogs read from.
const DefaultTable = "products"

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// productColumns are selected in this order by every SQL loader.
var productColumns = []string{
	"id", "name", "description", "category", "price", "stock",
	"rating", "date_added", "tags", "status", "image",
}

// selectProductsSQL builds the catalog query for table. The name must be a
// plain or schema-qualified identifier.
func selectProductsSQL(table string) (string, error) {
	if table == "" {
		table = DefaultTable
	}
	if !identPattern.MatchString(table) {
		return "", fmt.Errorf("invalid table name %q", table)
	}
	return "SELECT " + strings.Join(productColumns, ", ") + " FROM " + table + " ORDER BY id", nil
}

// QueryProducts reads every product from table.
func QueryProducts(ctx context.Context, db *sql.DB, table string) ([]core.Product, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	q, err := selectProductsSQL(table)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []core.Product
	for rows.Next() {
		var (
			p                                                core.Product
			description, category, date, tags, status, image sql.NullString
			price, rating                                    sql.NullFloat64
			stock                                            sql.NullInt64
		)
		if err := rows.Scan(&p.ID, &p.Name, &description, &category, &price, &stock,
			&rating, &date, &tags, &status, &image); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		p.Description = description.String
		p.Category = category.String
		p.Price = price.Float64
		p.Stock = int(stock.Int64)
		p.Rating = rating.Float64
		p.DateAdded = date.String
		p.Tags = SplitTags(tags.String)
		p.Status = core.ProductStatus(status.String)
		p.Image = image.String
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read products: %w", err)
	}
	return out, nil
}

// SplitTags parses a tag column: TagSeparator-joined text or a PostgreSQL
// array literal such as {a,b}.
func SplitTags(s string) []string {
	s = strings.TrimSpace(s)
	sep := TagSeparator
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		s, sep = s[1:len(s)-1], ","
	}
	out := []string{}
	for _, part := range strings.Split(s, sep) {
		part = strings.Trim(strings.TrimSpace(part), `"`)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// JoinTags is the inverse of SplitTags for text columns.
func JoinTags(tags []string) string {
	return strings.Join(tags, TagSeparator)
}

// redactDSN hides the password of a URL-style DSN.
func redactDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.User == nil {
		return dsn
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
