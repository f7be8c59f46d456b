package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Devcode940/kenyawatch/internal/civic"
)

const representativeColumns = `id, slug, name, photo_url, position, constituency_or_ward, county,
	phone, email, office_address, twitter, facebook, party, votes_garnered,
	participation_summary, news_summary`

// UpsertRepresentatives inserts or replaces representatives in one
// transaction. Missing IDs and slugs are generated.
func (s *Store) UpsertRepresentatives(ctx context.Context, reps []civic.Representative) error {
	now := time.Now().Unix()
	return s.inTx(ctx, func(tx *sql.Tx) error {
		for i := range reps {
			r := &reps[i]
			if r.ID == "" {
				r.ID = uuid.NewString()
			}
			if r.Slug == "" {
				r.Slug = civic.Slugify(r.Name, r.Position)
			}
			_, err := tx.ExecContext(ctx, `INSERT INTO representatives (`+representativeColumns+`, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT(id) DO UPDATE SET
					slug = excluded.slug,
					name = excluded.name,
					photo_url = excluded.photo_url,
					position = excluded.position,
					constituency_or_ward = excluded.constituency_or_ward,
					county = excluded.county,
					phone = excluded.phone,
					email = excluded.email,
					office_address = excluded.office_address,
					twitter = excluded.twitter,
					facebook = excluded.facebook,
					party = excluded.party,
					votes_garnered = excluded.votes_garnered,
					participation_summary = excluded.participation_summary,
					news_summary = excluded.news_summary,
					updated_at = excluded.updated_at`,
				r.ID, r.Slug, r.Name, nullString(r.PhotoURL), string(r.Position),
				nullString(r.ConstituencyOrWard), nullString(r.County),
				nullString(r.ContactInfo.Phone), nullString(r.ContactInfo.Email),
				nullString(r.ContactInfo.OfficeAddress), nullString(r.ContactInfo.Twitter),
				nullString(r.ContactInfo.Facebook), nullString(r.Party), nullInt(r.VotesGarnered),
				nullString(r.ParticipationRecordSummary), nullString(r.NewsSummaryForAI),
				now, now,
			)
			if err != nil {
				return fmt.Errorf("failed to save representative %s: %w", r.Name, err)
			}
		}
		return nil
	})
}

// ListRepresentatives returns every representative ordered by name.
func (s *Store) ListRepresentatives(ctx context.Context) ([]civic.Representative, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+representativeColumns+` FROM representatives ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query representatives: %w", err)
	}
	defer rows.Close()

	var reps []civic.Representative
	for rows.Next() {
		rep, err := scanRepresentative(rows)
		if err != nil {
			return nil, err
		}
		reps = append(reps, rep)
	}
	return reps, rows.Err()
}

// GetRepresentativeBySlug looks up one representative. ErrNotFound is
// returned when the slug is unknown.
func (s *Store) GetRepresentativeBySlug(ctx context.Context, slug string) (civic.Representative, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+representativeColumns+` FROM representatives WHERE slug = ?`, slug)
	rep, err := scanRepresentative(row)
	if errors.Is(err, sql.ErrNoRows) {
		return civic.Representative{}, fmt.Errorf("representative %q: %w", slug, ErrNotFound)
	}
	return rep, err
}

// GetRepresentative looks up one representative by ID.
func (s *Store) GetRepresentative(ctx context.Context, id string) (civic.Representative, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+representativeColumns+` FROM representatives WHERE id = ?`, id)
	rep, err := scanRepresentative(row)
	if errors.Is(err, sql.ErrNoRows) {
		return civic.Representative{}, fmt.Errorf("representative %q: %w", id, ErrNotFound)
	}
	return rep, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRepresentative(sc scanner) (civic.Representative, error) {
	var r civic.Representative
	var position string
	var photo, constituency, county, phone, email, office, twitter, facebook, party, participation, news sql.NullString
	var votes sql.NullInt64

	err := sc.Scan(&r.ID, &r.Slug, &r.Name, &photo, &position, &constituency, &county,
		&phone, &email, &office, &twitter, &facebook, &party, &votes, &participation, &news)
	if errors.Is(err, sql.ErrNoRows) {
		return r, err
	}
	if err != nil {
		return r, fmt.Errorf("failed to scan representative: %w", err)
	}

	r.Position = civic.Position(position)
	r.PhotoURL = photo.String
	r.ConstituencyOrWard = constituency.String
	r.County = county.String
	r.ContactInfo = civic.ContactInfo{
		Phone:         phone.String,
		Email:         email.String,
		OfficeAddress: office.String,
		Twitter:       twitter.String,
		Facebook:      facebook.String,
	}
	r.Party = party.String
	r.VotesGarnered = intPtr(votes)
	r.ParticipationRecordSummary = participation.String
	r.NewsSummaryForAI = news.String
	return r, nil
}
