package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/target/interview-reminder/internal/core"
	"github.com/target/interview-reminder/internal/domain/model"
	apperrors "github.com/target/interview-reminder/internal/errors"
	"golang.org/x/sync/singleflight"
)

// ParticipantResolverOptions configures a ParticipantResolver.
type ParticipantResolverOptions struct {
	Messenger core.Messenger

	// Cache is optional; without it every lookup goes to the messaging platform.
	Cache core.ParticipantCache

	// LookupTimeout bounds a shared upstream lookup. It is detached from any one caller.
	LookupTimeout time.Duration
	Logger        *slog.Logger
}

const defaultLookupTimeout = 15 * time.Second

// ParticipantResolver maps contact addresses to messaging platform users.
// Concurrent lookups for the same address share one upstream call.
type ParticipantResolver struct {
	messenger core.Messenger
	cache     core.ParticipantCache
	group     singleflight.Group
	timeout   time.Duration
	logger    *slog.Logger
}

// NewParticipantResolver constructs a ParticipantResolver.
func NewParticipantResolver(opts ParticipantResolverOptions) *ParticipantResolver {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.LookupTimeout
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	return &ParticipantResolver{
		messenger: opts.Messenger,
		cache:     opts.Cache,
		timeout:   timeout,
		logger:    logger.With("component", "participant_resolver"),
	}
}

// Resolve returns the participant id for address. Cache failures degrade to a live lookup.
func (r *ParticipantResolver) Resolve(ctx context.Context, address string) (model.ParticipantID, error) {
	if r.cache != nil {
		id, ok, err := r.cache.Get(ctx, address)
		if err != nil {
			r.logger.WarnContext(ctx, "participant cache read failed", "address", address, "error", err)
		} else if ok {
			return id, nil
		}
	}

	// The shared lookup must outlive whichever caller started it; each caller still
	// gives up on its own context.
	ch := r.group.DoChan(address, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		return r.lookup(lookupCtx, address)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		id, _ := res.Val.(model.ParticipantID)
		return id, nil
	}
}

func (r *ParticipantResolver) lookup(ctx context.Context, address string) (model.ParticipantID, error) {
	id, err := r.messenger.ResolveParticipant(ctx, address)
	if err != nil {
		return "", err
	}
	if r.cache != nil {
		if cerr := r.cache.Set(ctx, address, id); cerr != nil {
			r.logger.WarnContext(ctx, "participant cache write failed", "address", address, "error", cerr)
		}
	}
	return id, nil
}

// ResolveAll resolves every address, skipping unknown users. It fails when no address
// resolves or when a lookup fails for any reason other than not_found.
func (r *ParticipantResolver) ResolveAll(ctx context.Context, addresses []string) ([]model.ParticipantID, error) {
	if len(addresses) == 0 {
		return nil, apperrors.Validation("interview has no participant addresses")
	}

	seen := make(map[model.ParticipantID]struct{}, len(addresses))
	out := make([]model.ParticipantID, 0, len(addresses))
	for _, addr := range addresses {
		id, err := r.Resolve(ctx, addr)
		if err != nil {
			if apperrors.IsNotFound(err) {
				r.logger.WarnContext(ctx, "participant not found on messaging platform", "address", addr)
				continue
			}
			return nil, err
		}
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil, apperrors.NotFoundf("none of %d participant addresses resolved", len(addresses))
	}
	return out, nil
}
