package identity

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/XavierBriggs/fortuna/services/boxes-service/pkg/models"
	"github.com/lib/pq"
)

// Store defines the identity lookups the roster needs
type Store interface {
	Lookup(ctx context.Context, addresses []string) ([]models.Identity, error)
	Ping(ctx context.Context) error
	Close() error
}

// Client implements Store over the users table
type Client struct {
	db *sql.DB
}

// NewClient opens and pings a Postgres connection
func NewClient(dsn string) (*Client, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Client{db: db}, nil
}

// NewFromDB wraps an existing handle
func NewFromDB(db *sql.DB) *Client {
	return &Client{db: db}
}

// Lookup returns the profiles of the given addresses. Matching is
// case-insensitive; addresses without a profile are simply absent.
func (c *Client) Lookup(ctx context.Context, addresses []string) ([]models.Identity, error) {
	if len(addresses) == 0 {
		return []models.Identity{}, nil
	}

	lowered := make([]string, len(addresses))
	for i, a := range addresses {
		lowered[i] = strings.ToLower(a)
	}

	query := `
		SELECT address, name, image, bio
		FROM users
		WHERE lower(address) = ANY($1)
		ORDER BY address
	`

	rows, err := c.db.QueryContext(ctx, query, pq.Array(lowered))
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	identities := []models.Identity{}
	for rows.Next() {
		var (
			id               models.Identity
			name, image, bio sql.NullString
		)
		if err := rows.Scan(&id.Address, &name, &image, &bio); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		id.Name = name.String
		id.Image = image.String
		id.Bio = bio.String
		identities = append(identities, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return identities, nil
}

// Ping checks the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the connection pool
func (c *Client) Close() error {
	return c.db.Close()
}
