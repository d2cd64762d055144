package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ABFCode/Librium-sub000/internal/logging"
)

const uploadAudience = "blob-upload"

var (
	// ErrInvalidUploadToken indicates a forged, expired or malformed upload URL.
	ErrInvalidUploadToken = errors.New("invalid or expired upload token")

	// ErrUploadUsed indicates the upload URL was already consumed.
	ErrUploadUsed = errors.New("upload URL already used")
)

// GatewayConfig configures upload URL issuance.
type GatewayConfig struct {
	PublicURL     string
	SigningSecret string
	UploadURLTTL  time.Duration
	MaxUploadSize int64
}

// UploadTicket is returned to a client that wants to upload directly.
type UploadTicket struct {
	UploadURL string    `json:"uploadUrl"`
	BlobID    string    `json:"storageId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Gateway is the blob store entry point used by the rest of the application.
type Gateway struct {
	store     Store
	secret    []byte
	publicURL string
	ttl       time.Duration
	maxUpload int64
	now       func() time.Time

	mu        sync.Mutex
	uploading map[string]struct{} // blob ids with an upload in flight
}

type uploadClaims struct {
	OwnerID uint `json:"owner"`
	jwt.RegisteredClaims
}

// NewGateway wraps a store. An empty signing secret is replaced by a random
// one, which invalidates outstanding upload URLs on restart.
func NewGateway(store Store, cfg GatewayConfig) (*Gateway, error) {
	secret := []byte(cfg.SigningSecret)
	if len(secret) == 0 {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generate signing secret: %w", err)
		}
		secret = []byte(hex.EncodeToString(buf))
		logging.Warn("Generated upload signing secret (set STORAGE_SIGNING_SECRET to persist)")
	}
	ttl := cfg.UploadURLTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &Gateway{
		store:     store,
		secret:    secret,
		publicURL: cfg.PublicURL,
		ttl:       ttl,
		maxUpload: cfg.MaxUploadSize,
		now:       time.Now,
		uploading: make(map[string]struct{}),
	}, nil
}

// Put stores content under a fresh id.
func (g *Gateway) Put(ctx context.Context, content io.Reader, meta Meta) (BlobInfo, error) {
	return g.store.Write(ctx, uuid.NewString(), content, meta)
}

// Get opens a blob.
func (g *Gateway) Get(ctx context.Context, id string) (io.ReadCloser, BlobInfo, error) {
	return g.store.Open(ctx, id)
}

// Stat returns blob metadata.
func (g *Gateway) Stat(ctx context.Context, id string) (BlobInfo, error) {
	return g.store.Stat(ctx, id)
}

// Delete removes a blob.
func (g *Gateway) Delete(ctx context.Context, id string) error {
	return g.store.Delete(ctx, id)
}

// DeleteMany removes every listed blob, skipping empty ids, and reports all failures.
func (g *Gateway) DeleteMany(ctx context.Context, ids ...string) error {
	var errs []error
	for _, id := range ids {
		if id == "" {
			continue
		}
		if err := g.store.Delete(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("delete blob %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

// IssueUploadURL reserves a blob id for owner and returns a signed URL that
// accepts a single PUT of the file content.
func (g *Gateway) IssueUploadURL(ctx context.Context, owner uint) (*UploadTicket, error) {
	blobID := uuid.NewString()
	now := g.now()
	expiresAt := now.Add(g.ttl)

	claims := uploadClaims{
		OwnerID: owner,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   blobID,
			Audience:  jwt.ClaimStrings{uploadAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return nil, fmt.Errorf("sign upload token: %w", err)
	}

	return &UploadTicket{
		UploadURL: g.publicURL + "/api/storage/upload/" + token,
		BlobID:    blobID,
		ExpiresAt: expiresAt.UTC(),
	}, nil
}

// AcceptUpload verifies an upload token and stores content under the reserved id.
func (g *Gateway) AcceptUpload(ctx context.Context, token string, content io.Reader) (BlobInfo, error) {
	claims := &uploadClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Name {
			return nil, errors.New("unexpected signing method")
		}
		return g.secret, nil
	}, jwt.WithAudience(uploadAudience), jwt.WithTimeFunc(g.now), jwt.WithExpirationRequired())
	if err != nil {
		return BlobInfo{}, ErrInvalidUploadToken
	}

	blobID := claims.Subject
	if !g.claimUpload(blobID) {
		return BlobInfo{}, ErrUploadUsed
	}
	defer g.releaseUpload(blobID)

	if _, err := g.store.Stat(ctx, blobID); err == nil {
		return BlobInfo{}, ErrUploadUsed
	} else if !errors.Is(err, ErrNotFound) {
		return BlobInfo{}, err
	}

	contentType, body, err := SniffContentType(LimitReader(content, g.maxUpload))
	if err != nil {
		return BlobInfo{}, err
	}

	info, err := g.store.Write(ctx, blobID, body, Meta{ContentType: contentType, OwnerID: claims.OwnerID})
	if err != nil {
		return BlobInfo{}, err
	}

	logging.Info("Accepted direct upload",
		zap.String("blob_id", info.ID),
		zap.Uint("owner_id", info.OwnerID),
		zap.Int64("size", info.Size),
		zap.String("content_type", info.ContentType),
	)
	return info, nil
}

// claimUpload marks blobID as being uploaded. It fails while another upload
// for the same id is in flight.
func (g *Gateway) claimUpload(blobID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.uploading[blobID]; busy {
		return false
	}
	g.uploading[blobID] = struct{}{}
	return true
}

func (g *Gateway) releaseUpload(blobID string) {
	g.mu.Lock()
	delete(g.uploading, blobID)
	g.mu.Unlock()
}
