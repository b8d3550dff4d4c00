package record

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicateReview = errors.New("review for this record already exists")
)

const recordColumns = "id, title, artist, genre, release_year, price, stock_quantity, image_url, description, created_at, updated_at"

type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Record, int, error)
	GetByID(ctx context.Context, id int64) (*Record, error)
	Create(ctx context.Context, rec *Record) error
	Update(ctx context.Context, rec *Record) error
	Delete(ctx context.Context, id int64) error
	Genres(ctx context.Context) ([]string, error)
	Artists(ctx context.Context) ([]string, error)
	Featured(ctx context.Context, limit int) (*Featured, error)
	ReviewsByRecord(ctx context.Context, recordID int64) ([]Review, error)
	CreateReview(ctx context.Context, rev *Review) error
}

type postgresRepository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) List(ctx context.Context, filter ListFilter) ([]Record, int, error) {
	query, args := buildListQuery(filter)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("repository: failed to query records: %w", err)
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var rec Record
		if err := scanRecord(rows, &rec); err != nil {
			return nil, 0, fmt.Errorf("repository: failed to scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repository: error iterating records: %w", err)
	}

	countQuery, countArgs := buildCountQuery(filter)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repository: failed to count records: %w", err)
	}

	return records, total, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*Record, error) {
	query := `SELECT ` + recordColumns + ` FROM records WHERE id = $1`

	var rec Record
	if err := scanRecord(r.db.QueryRow(ctx, query, id), &rec); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("repository: failed to select record by id %d: %w", id, err)
	}

	return &rec, nil
}

func (r *postgresRepository) Create(ctx context.Context, rec *Record) error {
	query := `
		INSERT INTO records (title, artist, genre, release_year, price, stock_quantity, image_url, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		rec.Title, rec.Artist, rec.Genre, rec.ReleaseYear, rec.Price, rec.StockQuantity, rec.ImageURL, rec.Description,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("repository: failed to insert record: %w", err)
	}

	return nil
}

func (r *postgresRepository) Update(ctx context.Context, rec *Record) error {
	query := `
		UPDATE records
		SET title = $1, artist = $2, genre = $3, release_year = $4, price = $5,
		    stock_quantity = $6, image_url = $7, description = $8, updated_at = CURRENT_TIMESTAMP
		WHERE id = $9
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		rec.Title, rec.Artist, rec.Genre, rec.ReleaseYear, rec.Price, rec.StockQuantity, rec.ImageURL, rec.Description, rec.ID,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("repository: failed to update record %d: %w", rec.ID, err)
	}

	return nil
}

func (r *postgresRepository) Delete(ctx context.Context, id int64) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("repository: failed to delete record %d: %w", id, err)
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepository) Genres(ctx context.Context) ([]string, error) {
	return r.distinctColumn(ctx, `SELECT DISTINCT genre FROM records WHERE genre <> '' ORDER BY genre`)
}

func (r *postgresRepository) Artists(ctx context.Context) ([]string, error) {
	return r.distinctColumn(ctx, `SELECT DISTINCT artist FROM records ORDER BY artist`)
}

func (r *postgresRepository) distinctColumn(ctx context.Context, query string) ([]string, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query distinct values: %w", err)
	}
	defer rows.Close()

	values := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("repository: failed to scan distinct value: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating distinct values: %w", err)
	}

	return values, nil
}

func (r *postgresRepository) Featured(ctx context.Context, limit int) (*Featured, error) {
	newestQuery := `SELECT ` + recordColumns + ` FROM records ORDER BY created_at DESC LIMIT $1`

	rows, err := r.db.Query(ctx, newestQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query newest records: %w", err)
	}
	defer rows.Close()

	newest := make([]Record, 0, limit)
	for rows.Next() {
		var rec Record
		if err := scanRecord(rows, &rec); err != nil {
			return nil, fmt.Errorf("repository: failed to scan newest record: %w", err)
		}
		newest = append(newest, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating newest records: %w", err)
	}

	ratedQuery := `
		SELECT r.id, r.title, r.artist, r.genre, r.release_year, r.price, r.stock_quantity,
		       r.image_url, r.description, r.created_at, r.updated_at,
		       COALESCE(AVG(rev.rating), 0) AS avg_rating
		FROM records r
		LEFT JOIN reviews rev ON rev.record_id = r.id
		GROUP BY r.id
		ORDER BY avg_rating DESC
		LIMIT $1
	`

	ratedRows, err := r.db.Query(ctx, ratedQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query top rated records: %w", err)
	}
	defer ratedRows.Close()

	topRated := make([]RecordWithRating, 0, limit)
	for ratedRows.Next() {
		var rec RecordWithRating
		err := ratedRows.Scan(
			&rec.ID, &rec.Title, &rec.Artist, &rec.Genre, &rec.ReleaseYear, &rec.Price, &rec.StockQuantity,
			&rec.ImageURL, &rec.Description, &rec.CreatedAt, &rec.UpdatedAt, &rec.AvgRating,
		)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan top rated record: %w", err)
		}
		topRated = append(topRated, rec)
	}
	if err := ratedRows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating top rated records: %w", err)
	}

	return &Featured{Newest: newest, TopRated: topRated}, nil
}

func (r *postgresRepository) ReviewsByRecord(ctx context.Context, recordID int64) ([]Review, error) {
	query := `
		SELECT rev.id, rev.record_id, rev.user_id, rev.rating, COALESCE(rev.comment, ''), rev.created_at,
		       COALESCE(u.first_name, ''), COALESCE(u.last_name, '')
		FROM reviews rev
		LEFT JOIN users u ON u.id = rev.user_id
		WHERE rev.record_id = $1
		ORDER BY rev.created_at DESC
	`

	rows, err := r.db.Query(ctx, query, recordID)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to query reviews for record %d: %w", recordID, err)
	}
	defer rows.Close()

	reviews := make([]Review, 0)
	for rows.Next() {
		var rev Review
		err := rows.Scan(&rev.ID, &rev.RecordID, &rev.UserID, &rev.Rating, &rev.Comment, &rev.CreatedAt, &rev.FirstName, &rev.LastName)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan review: %w", err)
		}
		reviews = append(reviews, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating reviews: %w", err)
	}

	return reviews, nil
}

func (r *postgresRepository) CreateReview(ctx context.Context, rev *Review) error {
	query := `
		INSERT INTO reviews (user_id, record_id, rating, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query, rev.UserID, rev.RecordID, rev.Rating, rev.Comment).
		Scan(&rev.ID, &rev.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgerrcode.UniqueViolation:
				return ErrDuplicateReview
			case pgerrcode.ForeignKeyViolation:
				return ErrNotFound
			}
		}
		return fmt.Errorf("repository: failed to insert review for record %d: %w", rev.RecordID, err)
	}

	return nil
}

func scanRecord(row pgx.Row, rec *Record) error {
	return row.Scan(
		&rec.ID, &rec.Title, &rec.Artist, &rec.Genre, &rec.ReleaseYear, &rec.Price,
		&rec.StockQuantity, &rec.ImageURL, &rec.Description, &rec.CreatedAt, &rec.UpdatedAt,
	)
}
