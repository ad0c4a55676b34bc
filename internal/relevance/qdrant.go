package relevance

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"golang.org/x/time/rate"

	"github.com/example/conference-agenda/internal/scheduler"
)

// SessionIDField is the payload key holding the catalog session ID of a point.
const SessionIDField = "session_id"

// pointNamespace derives stable Qdrant point IDs from session IDs.
var pointNamespace = uuid.MustParse("6f0f1c8e-3a57-4c0e-9d3c-5b1f2a7e8c41")

// PointID returns the Qdrant point UUID of a catalog session.
func PointID(sessionID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(sessionID)).String()
}

// QdrantConfig holds Qdrant connection configuration.
type QdrantConfig struct {
	// URL is the gRPC endpoint, e.g. "http://localhost:6334".
	URL        string
	APIKey     string
	Collection string
	// RequestsPerSecond throttles outgoing queries. Zero disables throttling.
	RequestsPerSecond float64
	Burst             int
}

// QdrantProvider scores sessions by their similarity to the attendee's
// favorites using a recommend query over precomputed session vectors.
type QdrantProvider struct {
	client     *qdrant.Client
	collection string
	limiter    *rate.Limiter
}

// NewQdrantProvider connects to Qdrant.
func NewQdrantProvider(cfg QdrantConfig) (*QdrantProvider, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("relevance: qdrant url is required")
	}
	if cfg.Collection == "" {
		return nil, fmt.Errorf("relevance: qdrant collection is required")
	}
	host, port, useTLS, err := parseEndpoint(cfg.URL)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("relevance: create qdrant client: %w", err)
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &QdrantProvider{client: client, collection: cfg.Collection, limiter: limiter}, nil
}

func parseEndpoint(raw string) (string, int, bool, error) {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, false, fmt.Errorf("relevance: parse qdrant url: %w", err)
	}
	port := 6334
	if u.Port() != "" {
		port, err = strconv.Atoi(u.Port())
		if err != nil {
			return "", 0, false, fmt.Errorf("relevance: invalid qdrant port: %w", err)
		}
	}
	return u.Hostname(), port, u.Scheme == "https", nil
}

// Scores implements Provider. Without favorites there is nothing to recommend
// from and the result is empty.
func (p *QdrantProvider) Scores(ctx context.Context, profile scheduler.UserProfile, sessionIDs []string) (map[string]float64, error) {
	if len(profile.FavoriteIDs) == 0 || len(sessionIDs) == 0 {
		return map[string]float64{}, nil
	}
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	points, err := p.client.Query(ctx, recommendQuery(p.collection, profile.FavoriteIDs, sessionIDs))
	if err != nil {
		return nil, fmt.Errorf("relevance: qdrant query: %w", err)
	}

	scores := make(map[string]float64, len(points))
	for _, point := range points {
		id := point.GetPayload()[SessionIDField].GetStringValue()
		if id == "" {
			continue
		}
		scores[id] = clamp(float64(point.GetScore()))
	}
	return scores, nil
}

func recommendQuery(collection string, favoriteIDs, sessionIDs []string) *qdrant.QueryPoints {
	positives := make([]*qdrant.VectorInput, 0, len(favoriteIDs))
	for _, id := range favoriteIDs {
		positives = append(positives, qdrant.NewVectorInputID(qdrant.NewID(PointID(id))))
	}
	limit := uint64(len(sessionIDs))
	return &qdrant.QueryPoints{
		CollectionName: collection,
		Query: qdrant.NewQueryRecommend(&qdrant.RecommendInput{
			Positive: positives,
		}),
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{
				qdrant.NewMatchKeywords(SessionIDField, sessionIDs...),
			},
		},
		Limit:       &limit,
		WithPayload: qdrant.NewWithPayloadInclude(SessionIDField),
	}
}

// Close releases the gRPC connection.
func (p *QdrantProvider) Close() error {
	return p.client.Close()
}

var (
	_ Provider = (*QdrantProvider)(nil)
	_ Provider = (*Breaker)(nil)
)
