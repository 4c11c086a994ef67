package skill

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pkalnins/earshot/internal/ratelimit"
)

const mentionsSkillName = "get_mentions"

// MentionsPoller surfaces new tweets mentioning the configured user. Each
// poll advances a durable since_id cursor so repeated invocations only
// return unseen mentions.
type MentionsPoller struct {
	owner   string
	store   Store
	api     TwitterAPI
	limiter *ratelimit.Limiter
	budget  Budget

	now func() time.Time // override in tests
}

func NewMentions(d Deps, st Store) *MentionsPoller {
	return &MentionsPoller{
		owner:   d.Owner,
		store:   st,
		api:     d.Twitter,
		limiter: ratelimit.New(),
		budget:  d.Budget.orDefault(),
		now:     time.Now,
	}
}

func (p *MentionsPoller) Name() string {
	return mentionsSkillName
}

// Poll runs one incremental fetch. Non-elevated credentials consume one
// request from the shared budget before anything else happens; a tripped
// limiter means no fetch and no state change. The cursor is written only
// after the fetch and normalization both complete.
func (p *MentionsPoller) Poll(ctx context.Context) Result {
	log := slog.With("skill", mentionsSkillName, "owner", p.owner, "invocation", uuid.NewString())

	if !p.api.Elevated() {
		if limited, msg := p.limiter.Check(p.budget.Requests, p.budget.Window); limited {
			return failure(msg)
		}
	}

	cursor, err := loadCursor(ctx, p.store, p.owner, mentionsSkillName)
	if err != nil {
		log.Error("Error getting mentions", "err", err)
		return failure(err.Error())
	}

	params := pollParams(cursor, p.now())

	if !p.api.Ready() {
		return failure(msgNoClient)
	}
	userID := p.api.UserID()
	if userID == "" {
		return failure(msgNoUserID)
	}

	tl, err := p.api.UserMentions(ctx, userID, params)
	if err != nil {
		log.Error("Error getting mentions", "err", err)
		return failure(err.Error())
	}

	items, err := normalizeTweets(tl)
	if err != nil {
		log.Error("Error processing mentions", "err", err)
		return failure(err.Error())
	}

	if tl.Meta.NewestID != "" {
		cursor["since_id"] = tl.Meta.NewestID
		if err := saveCursor(ctx, p.store, p.owner, mentionsSkillName, cursor); err != nil {
			log.Error("Error getting mentions", "err", err)
			return failure(err.Error())
		}
	}

	return Result{Items: items}
}
