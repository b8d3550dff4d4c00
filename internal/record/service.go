package record

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

const featuredLimit = 5

// RecordDetail is the catalog detail projection: the record plus its reviews.
type RecordDetail struct {
	Record  Record   `json:"record"`
	Reviews []Review `json:"reviews"`
}

type Service interface {
	List(ctx context.Context, filter ListFilter) ([]Record, Pagination, error)
	GetDetail(ctx context.Context, id int64) (*RecordDetail, error)
	AddReview(ctx context.Context, userID, recordID int64, rating int, comment string) (*Review, error)
	Genres(ctx context.Context) ([]string, error)
	Artists(ctx context.Context) ([]string, error)
	Featured(ctx context.Context) (*Featured, error)
	Create(ctx context.Context, rec *Record) error
	Update(ctx context.Context, rec *Record) error
	Delete(ctx context.Context, id int64) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]Record, Pagination, error) {
	filter = filter.normalized()

	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to list records")
		return nil, Pagination{}, fmt.Errorf("service: failed to list records: %w", err)
	}

	pagination := Pagination{
		Page:         filter.Page,
		Limit:        filter.Limit,
		TotalRecords: total,
		TotalPages:   (total + filter.Limit - 1) / filter.Limit,
	}

	return records, pagination, nil
}

func (s *service) GetDetail(ctx context.Context, id int64) (*RecordDetail, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Int64("record_id", id).Msg("service: failed to fetch record")
		return nil, fmt.Errorf("service: failed to fetch record: %w", err)
	}

	reviews, err := s.repo.ReviewsByRecord(ctx, id)
	if err != nil {
		log.Error().Err(err).Int64("record_id", id).Msg("service: failed to fetch reviews")
		return nil, fmt.Errorf("service: failed to fetch reviews: %w", err)
	}

	return &RecordDetail{Record: *rec, Reviews: reviews}, nil
}

func (s *service) AddReview(ctx context.Context, userID, recordID int64, rating int, comment string) (*Review, error) {
	if _, err := s.repo.GetByID(ctx, recordID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("service: failed to fetch record for review: %w", err)
	}

	rev := &Review{
		RecordID: recordID,
		UserID:   &userID,
		Rating:   rating,
		Comment:  comment,
	}

	if err := s.repo.CreateReview(ctx, rev); err != nil {
		if errors.Is(err, ErrDuplicateReview) || errors.Is(err, ErrNotFound) {
			return nil, err
		}
		log.Error().Err(err).Int64("record_id", recordID).Msg("service: failed to create review")
		return nil, fmt.Errorf("service: failed to create review: %w", err)
	}

	log.Info().Int64("record_id", recordID).Int64("user_id", userID).Msg("service: review added")
	return rev, nil
}

func (s *service) Genres(ctx context.Context) ([]string, error) {
	genres, err := s.repo.Genres(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch genres: %w", err)
	}
	return genres, nil
}

func (s *service) Artists(ctx context.Context) ([]string, error) {
	artists, err := s.repo.Artists(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to fetch artists: %w", err)
	}
	return artists, nil
}

func (s *service) Featured(ctx context.Context) (*Featured, error) {
	featured, err := s.repo.Featured(ctx, featuredLimit)
	if err != nil {
		log.Error().Err(err).Msg("service: failed to fetch featured records")
		return nil, fmt.Errorf("service: failed to fetch featured records: %w", err)
	}
	return featured, nil
}

func (s *service) Create(ctx context.Context, rec *Record) error {
	if err := s.repo.Create(ctx, rec); err != nil {
		log.Error().Err(err).Str("title", rec.Title).Msg("service: failed to create record")
		return fmt.Errorf("service: failed to create record: %w", err)
	}

	log.Info().Int64("record_id", rec.ID).Str("title", rec.Title).Msg("service: record created")
	return nil
}

func (s *service) Update(ctx context.Context, rec *Record) error {
	if err := s.repo.Update(ctx, rec); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		log.Error().Err(err).Int64("record_id", rec.ID).Msg("service: failed to update record")
		return fmt.Errorf("service: failed to update record: %w", err)
	}

	return nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		log.Error().Err(err).Int64("record_id", id).Msg("service: failed to delete record")
		return fmt.Errorf("service: failed to delete record: %w", err)
	}

	log.Info().Int64("record_id", id).Msg("service: record deleted")
	return nil
}
