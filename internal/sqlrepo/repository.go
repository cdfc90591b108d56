package sqlrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/angeloszaimis/eroaming-broadcast-gateway/internal/apikeycodec"
	"github.com/angeloszaimis/eroaming-broadcast-gateway/internal/partner"
)

// Repository is a partnercache.Repository backed by Postgres. API keys are
// encrypted at rest via codec and decrypted on every read, so partner.Record
// values leaving this package always carry plaintext API keys.
type Repository struct {
	pool  *pgxpool.Pool
	codec *apikeycodec.Codec
}

// Connect opens a pooled connection to dsn and verifies it with a ping.
func Connect(ctx context.Context, dsn string, codec *apikeycodec.Codec) (*Repository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlrepo: parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("sqlrepo: connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("sqlrepo: ping: %w", err)
	}

	return &Repository{pool: pool, codec: codec}, nil
}

// Close releases the underlying connection pool.
func (r *Repository) Close() {
	r.pool.Close()
}

const selectColumns = `id, name, base_url, start_charging_endpoint, http_method,
	authentication_type, api_key, request_format, uid_field_name,
	success_status_pattern, response_status_path, response_message_path,
	timeout_ms, custom_headers, enabled, created_at, updated_at`

func (r *Repository) FindActive(ctx context.Context) ([]partner.Record, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+selectColumns+` FROM partner_configurations WHERE enabled = true`)
	if err != nil {
		return nil, fmt.Errorf("sqlrepo: find active: %w", err)
	}
	defer rows.Close()

	var out []partner.Record
	for rows.Next() {
		rec, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *Repository) FindByIDAndEnabled(ctx context.Context, id string) (partner.Record, bool, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+selectColumns+` FROM partner_configurations WHERE id = $1 AND enabled = true`, id)

	rec, err := r.scanRow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return partner.Record{}, false, nil
	}
	if err != nil {
		return partner.Record{}, false, err
	}
	return rec, true, nil
}

func (r *Repository) Save(ctx context.Context, rec partner.Record) (partner.Record, error) {
	if err := rec.Validate(); err != nil {
		return partner.Record{}, err
	}

	encryptedKey, err := r.codec.Encrypt(rec.APIKey)
	if err != nil {
		return partner.Record{}, fmt.Errorf("sqlrepo: encrypt api key: %w", err)
	}

	headersJSON, err := json.Marshal(rec.CustomHeaders)
	if err != nil {
		return partner.Record{}, fmt.Errorf("sqlrepo: marshal custom headers: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO partner_configurations
			(id, name, base_url, start_charging_endpoint, http_method,
			 authentication_type, api_key, request_format, uid_field_name,
			 success_status_pattern, response_status_path, response_message_path,
			 timeout_ms, custom_headers, enabled, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15, now(), now())
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			base_url = excluded.base_url,
			start_charging_endpoint = excluded.start_charging_endpoint,
			http_method = excluded.http_method,
			authentication_type = excluded.authentication_type,
			api_key = excluded.api_key,
			request_format = excluded.request_format,
			uid_field_name = excluded.uid_field_name,
			success_status_pattern = excluded.success_status_pattern,
			response_status_path = excluded.response_status_path,
			response_message_path = excluded.response_message_path,
			timeout_ms = excluded.timeout_ms,
			custom_headers = excluded.custom_headers,
			enabled = excluded.enabled,
			updated_at = now()
		RETURNING `+selectColumns,
		rec.ID, rec.Name, rec.BaseURL, rec.StartChargingEndpoint, rec.HTTPMethod,
		rec.AuthenticationType, encryptedKey, rec.RequestFormat, rec.UIDFieldName,
		rec.SuccessStatusPattern, rec.ResponseStatusPath, rec.ResponseMessagePath,
		rec.TimeoutMs, headersJSON, rec.Enabled)

	return r.scanRow(row)
}

func (r *Repository) SetEnabled(ctx context.Context, id string, enabled bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE partner_configurations SET enabled = $2, updated_at = now() WHERE id = $1`,
		id, enabled)
	if err != nil {
		return fmt.Errorf("sqlrepo: set enabled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sqlrepo: partner %s not found", id)
	}
	return nil
}

// row is satisfied by both pgx.Row and pgx.Rows.
type row interface {
	Scan(dest ...any) error
}

func (r *Repository) scanRow(rs row) (partner.Record, error) {
	var (
		rec         partner.Record
		headersJSON []byte
		encryptedAK string
	)

	err := rs.Scan(
		&rec.ID, &rec.Name, &rec.BaseURL, &rec.StartChargingEndpoint, &rec.HTTPMethod,
		&rec.AuthenticationType, &encryptedAK, &rec.RequestFormat, &rec.UIDFieldName,
		&rec.SuccessStatusPattern, &rec.ResponseStatusPath, &rec.ResponseMessagePath,
		&rec.TimeoutMs, &headersJSON, &rec.Enabled, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return partner.Record{}, err
	}

	if len(headersJSON) > 0 {
		if err := json.Unmarshal(headersJSON, &rec.CustomHeaders); err != nil {
			return partner.Record{}, fmt.Errorf("sqlrepo: unmarshal custom headers: %w", err)
		}
	}

	plaintext, err := r.codec.Decrypt(encryptedAK)
	if err != nil {
		return partner.Record{}, fmt.Errorf("sqlrepo: decrypt api key: %w", err)
	}
	rec.APIKey = plaintext

	return rec, nil
}
