package lexicon

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	domainlex "conceptgraph-backend/domain/lexicon"
	pkgerrors "conceptgraph-backend/pkg/errors"
)

// BreakerConfig holds circuit breaker tuning for the remote lexicon.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns conservative breaker settings.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// RemoteConfig configures the remote lexicon client.
type RemoteConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	Breaker        BreakerConfig
}

// Remote is a lexicon client for a lexical knowledge service. Lookups go
// through a circuit breaker so a degraded lexicon service fails fast instead
// of stalling every graph mutation behind it.
type Remote struct {
	baseURL string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// senseDocument is the wire shape of one sense resource.
type senseDocument struct {
	Sense        string   `json:"sense"`
	PartOfSpeech string   `json:"pos"`
	Synonyms     []string `json:"synonyms"`
	HypernymPath []string `json:"hypernymPath"`
}

// labelDocument is the wire shape of a label lookup.
type labelDocument struct {
	Label  string   `json:"label"`
	Senses []string `json:"senses"`
}

// NewRemote creates a remote lexicon client.
func NewRemote(cfg RemoteConfig, logger *zap.Logger) (*Remote, error) {
	if cfg.BaseURL == "" {
		return nil, pkgerrors.NewValidationError(
			pkgerrors.CodeInvalidArgument, "remote lexicon base URL is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	breaker := cfg.Breaker
	if breaker.MinRequests == 0 {
		breaker = DefaultBreakerConfig()
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "lexicon",
		MaxRequests: breaker.MaxRequests,
		Interval:    breaker.Interval,
		Timeout:     breaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < breaker.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= breaker.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("lexicon circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
		IsSuccessful: func(err error) bool {
			// Lookup misses are answers, not service failures.
			return err == nil || pkgerrors.IsNotFound(err)
		},
	})

	return &Remote{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
		cb:      cb,
		logger:  logger,
	}, nil
}

// SenseOf resolves a sense identifier.
func (r *Remote) SenseOf(name string) (domainlex.Sense, error) {
	doc, err := r.fetchSense(name)
	if err != nil {
		return "", err
	}
	return domainlex.Sense(doc.Sense), nil
}

// SensesOf returns every sense of a label, empty if the label is unknown or
// the service is unavailable.
func (r *Remote) SensesOf(label string) []domainlex.Sense {
	result, err := r.cb.Execute(func() (any, error) {
		return r.get(fmt.Sprintf("/v1/labels/%s", url.PathEscape(label)))
	})
	if err != nil {
		if !pkgerrors.IsNotFound(err) {
			r.logger.Warn("label lookup failed", zap.String("label", label), zap.Error(err))
		}
		return nil
	}

	var doc labelDocument
	if err := json.Unmarshal(result.([]byte), &doc); err != nil {
		r.logger.Warn("malformed label document", zap.String("label", label), zap.Error(err))
		return nil
	}
	senses := make([]domainlex.Sense, len(doc.Senses))
	for i, s := range doc.Senses {
		senses[i] = domainlex.Sense(s)
	}
	return senses
}

// SynonymsOf returns the synonym set of a sense, nil if unknown.
func (r *Remote) SynonymsOf(sense domainlex.Sense) []string {
	doc, err := r.fetchSense(sense.String())
	if err != nil {
		return nil
	}
	return doc.Synonyms
}

// PartOfSpeech returns the grammatical class of a sense.
func (r *Remote) PartOfSpeech(sense domainlex.Sense) (domainlex.PartOfSpeech, error) {
	doc, err := r.fetchSense(sense.String())
	if err != nil {
		return "", err
	}
	return domainlex.PartOfSpeech(doc.PartOfSpeech), nil
}

// HypernymPath returns the generalization chain of a sense, root first.
func (r *Remote) HypernymPath(sense domainlex.Sense) ([]domainlex.Sense, error) {
	doc, err := r.fetchSense(sense.String())
	if err != nil {
		return nil, err
	}
	path := make([]domainlex.Sense, len(doc.HypernymPath))
	for i, s := range doc.HypernymPath {
		path[i] = domainlex.Sense(s)
	}
	return path, nil
}

// fetchSense retrieves one sense resource through the breaker.
func (r *Remote) fetchSense(name string) (*senseDocument, error) {
	result, err := r.cb.Execute(func() (any, error) {
		return r.get(fmt.Sprintf("/v1/senses/%s", url.PathEscape(name)))
	})
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, err
		}
		return nil, pkgerrors.Wrap(err, "lexicon service unavailable")
	}

	var doc senseDocument
	if err := json.Unmarshal(result.([]byte), &doc); err != nil {
		return nil, pkgerrors.NewInternalError("malformed sense document", err)
	}
	return &doc, nil
}

// get performs one HTTP round trip and maps 404 to a typed miss.
func (r *Remote) get(path string) ([]byte, error) {
	resp, err := r.client.Get(r.baseURL + path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		const maxBody = 1 << 20
		return io.ReadAll(io.LimitReader(resp.Body, maxBody))
	case http.StatusNotFound:
		return nil, pkgerrors.NewNotFoundError(
			pkgerrors.CodeUnknownSense, fmt.Sprintf("lexicon has no resource at %s", path))
	default:
		return nil, fmt.Errorf("lexicon service returned status %d", resp.StatusCode)
	}
}
