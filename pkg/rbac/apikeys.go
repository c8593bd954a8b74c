package rbac

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docvault/docvault/pkg/apperr"
)

const (
	// TokenPrefix identifies docvault API key tokens
	TokenPrefix = "dv_"
	// TokenLength is the number of random bytes in a token (256 bits)
	TokenLength = 32
)

// GenerateToken creates a new API key token.
// Format: dv_<base64url(32 random bytes)>. Returns the plaintext token
// and its SHA256 hex hash for storage.
func GenerateToken() (token string, tokenHash string, err error) {
	randomBytes := make([]byte, TokenLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	token = TokenPrefix + base64.RawURLEncoding.EncodeToString(randomBytes)
	return token, HashToken(token), nil
}

// HashToken computes the SHA256 hash of a token for lookup
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// ValidateTokenFormat checks if a token has the correct format
func ValidateTokenFormat(token string) error {
	if !strings.HasPrefix(token, TokenPrefix) {
		return fmt.Errorf("token must start with %q", TokenPrefix)
	}
	encodedPart := strings.TrimPrefix(token, TokenPrefix)
	if len(encodedPart) == 0 {
		return fmt.Errorf("token is too short")
	}
	if _, err := base64.RawURLEncoding.DecodeString(encodedPart); err != nil {
		return fmt.Errorf("invalid token encoding: %w", err)
	}
	return nil
}

// CreateAPIKey creates an account-scoped API key. The plaintext token is
// returned exactly once; only its hash is stored.
func (s *Store) CreateAPIKey(ctx context.Context, accountID, name string, scopes *string, expiresAt *time.Time, createdBy string) (*APIKey, string, error) {
	token, tokenHash, err := GenerateToken()
	if err != nil {
		return nil, "", err
	}

	key := &APIKey{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Name:      name,
		TokenHash: tokenHash,
		Scopes:    scopes,
		IsActive:  true,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: expiresAt,
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO api_keys (id, account_id, name, token_hash, scopes, is_active, created_by, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		key.ID, key.AccountID, key.Name, key.TokenHash, key.Scopes,
		key.IsActive, key.CreatedBy, key.CreatedAt, key.ExpiresAt,
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create api key: %w", err)
	}

	return key, token, nil
}

// GetAPIKey retrieves an API key scoped to its account
func (s *Store) GetAPIKey(ctx context.Context, accountID, keyID string) (*APIKey, error) {
	var k APIKey
	var scopes sql.NullString
	var expiresAt, lastUsedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, account_id, name, token_hash, scopes, is_active, created_by, created_at, expires_at, last_used_at
		FROM api_keys WHERE id = $1 AND account_id = $2`, keyID, accountID).Scan(
		&k.ID, &k.AccountID, &k.Name, &k.TokenHash, &scopes,
		&k.IsActive, &k.CreatedBy, &k.CreatedAt, &expiresAt, &lastUsedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("api key not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get api key: %w", err)
	}
	if scopes.Valid {
		v := scopes.String
		k.Scopes = &v
	}
	if expiresAt.Valid {
		v := expiresAt.Time
		k.ExpiresAt = &v
	}
	if lastUsedAt.Valid {
		v := lastUsedAt.Time
		k.LastUsedAt = &v
	}
	return &k, nil
}

// ListAPIKeys lists an account's API keys
func (s *Store) ListAPIKeys(ctx context.Context, accountID string, limit, offset int) ([]APIKey, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, name, token_hash, scopes, is_active, created_by, created_at, expires_at, last_used_at
		FROM api_keys WHERE account_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}
	defer rows.Close()

	var keys []APIKey
	for rows.Next() {
		var k APIKey
		var scopes sql.NullString
		var expiresAt, lastUsedAt sql.NullTime
		if err := rows.Scan(
			&k.ID, &k.AccountID, &k.Name, &k.TokenHash, &scopes,
			&k.IsActive, &k.CreatedBy, &k.CreatedAt, &expiresAt, &lastUsedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan api key: %w", err)
		}
		if scopes.Valid {
			v := scopes.String
			k.Scopes = &v
		}
		if expiresAt.Valid {
			v := expiresAt.Time
			k.ExpiresAt = &v
		}
		if lastUsedAt.Valid {
			v := lastUsedAt.Time
			k.LastUsedAt = &v
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// UpdateAPIKey applies partial changes to an API key
func (s *Store) UpdateAPIKey(ctx context.Context, accountID, keyID string, update APIKeyUpdate) (*APIKey, error) {
	key, err := s.GetAPIKey(ctx, accountID, keyID)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		key.Name = *update.Name
	}
	if update.Scopes != nil {
		key.Scopes = update.Scopes
	}
	if update.IsActive != nil {
		key.IsActive = *update.IsActive
	}
	if update.ExpiresAt != nil {
		key.ExpiresAt = update.ExpiresAt
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE api_keys SET name = $1, scopes = $2, is_active = $3, expires_at = $4
		WHERE id = $5`,
		key.Name, key.Scopes, key.IsActive, key.ExpiresAt, key.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update api key: %w", err)
	}
	return key, nil
}

// DeleteAPIKey removes an API key
func (s *Store) DeleteAPIKey(ctx context.Context, accountID, keyID string) error {
	if _, err := s.GetAPIKey(ctx, accountID, keyID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = $1`, keyID)
	if err != nil {
		return fmt.Errorf("failed to delete api key: %w", err)
	}
	return nil
}

// VerifyKey resolves a presented token to an identity. The key must be
// active and unexpired. The identity acts on behalf of the key's creator
// and is pinned to the key's account.
func (s *Store) VerifyKey(ctx context.Context, token string) (*Identity, error) {
	if err := ValidateTokenFormat(token); err != nil {
		return nil, apperr.Forbidden("invalid api key")
	}

	var k APIKey
	var expiresAt sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT id, account_id, is_active, created_by, expires_at
		FROM api_keys WHERE token_hash = $1`, HashToken(token)).Scan(
		&k.ID, &k.AccountID, &k.IsActive, &k.CreatedBy, &expiresAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperr.Forbidden("invalid api key")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to verify api key: %w", err)
	}

	if !k.IsActive {
		return nil, apperr.Forbidden("api key is inactive")
	}
	if expiresAt.Valid && expiresAt.Time.Before(time.Now().UTC()) {
		return nil, apperr.Forbidden("api key has expired")
	}

	// last_used_at is best effort
	_, _ = s.db.ExecContext(ctx,
		`UPDATE api_keys SET last_used_at = $1 WHERE id = $2`,
		time.Now().UTC(), k.ID)

	accountID := k.AccountID
	return &Identity{UserID: k.CreatedBy, AccountID: &accountID}, nil
}
