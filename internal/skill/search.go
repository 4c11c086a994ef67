package skill

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pkalnins/earshot/internal/ratelimit"
)

const searchSkillName = "search_mentions"

// SearchPoller runs a recent-search for mentions of the configured
// username. Unlike the mentions poller it does not need a user id; it
// searches by handle instead.
type SearchPoller struct {
	owner   string
	store   Store
	api     TwitterAPI
	limiter *ratelimit.Limiter
	budget  Budget

	now func() time.Time
}

func NewSearch(d Deps, st Store) *SearchPoller {
	return &SearchPoller{
		owner:   d.Owner,
		store:   st,
		api:     d.Twitter,
		limiter: ratelimit.New(),
		budget:  d.Budget.orDefault(),
		now:     time.Now,
	}
}

func (p *SearchPoller) Name() string {
	return searchSkillName
}

func (p *SearchPoller) Poll(ctx context.Context) Result {
	log := slog.With("skill", searchSkillName, "owner", p.owner, "invocation", uuid.NewString())

	if !p.api.Elevated() {
		if limited, msg := p.limiter.Check(p.budget.Requests, p.budget.Window); limited {
			return failure(msg)
		}
	}

	cursor, err := loadCursor(ctx, p.store, p.owner, searchSkillName)
	if err != nil {
		log.Error("Error getting search results", "err", err)
		return failure(err.Error())
	}

	params := pollParams(cursor, p.now())

	if !p.api.Ready() {
		return failure(msgNoClient)
	}
	username := p.api.Username()
	if username == "" {
		return failure(msgNoUsername)
	}

	tl, err := p.api.SearchRecent(ctx, "@"+username, params)
	if err != nil {
		log.Error("Error getting search results", "err", err)
		return failure(err.Error())
	}

	items, err := normalizeTweets(tl)
	if err != nil {
		log.Error("Error processing search results", "err", err)
		return failure(err.Error())
	}

	if tl.Meta.NewestID != "" {
		cursor["since_id"] = tl.Meta.NewestID
		if err := saveCursor(ctx, p.store, p.owner, searchSkillName, cursor); err != nil {
			log.Error("Error getting search results", "err", err)
			return failure(err.Error())
		}
	}

	return Result{Items: items}
}
