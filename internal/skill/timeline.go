package skill

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pkalnins/earshot/internal/ratelimit"
)

const timelineSkillName = "get_timeline"

// TimelinePoller surfaces the configured user's own recent tweets,
// advancing the same kind of since_id cursor the mentions poller keeps.
type TimelinePoller struct {
	owner   string
	store   Store
	api     TwitterAPI
	limiter *ratelimit.Limiter
	budget  Budget

	now func() time.Time
}

func NewTimeline(d Deps, st Store) *TimelinePoller {
	return &TimelinePoller{
		owner:   d.Owner,
		store:   st,
		api:     d.Twitter,
		limiter: ratelimit.New(),
		budget:  d.Budget.orDefault(),
		now:     time.Now,
	}
}

func (p *TimelinePoller) Name() string {
	return timelineSkillName
}

func (p *TimelinePoller) Poll(ctx context.Context) Result {
	log := slog.With("skill", timelineSkillName, "owner", p.owner, "invocation", uuid.NewString())

	if !p.api.Elevated() {
		if limited, msg := p.limiter.Check(p.budget.Requests, p.budget.Window); limited {
			return failure(msg)
		}
	}

	cursor, err := loadCursor(ctx, p.store, p.owner, timelineSkillName)
	if err != nil {
		log.Error("Error getting timeline", "err", err)
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

	tl, err := p.api.UserTweets(ctx, userID, params)
	if err != nil {
		log.Error("Error getting timeline", "err", err)
		return failure(err.Error())
	}

	items, err := normalizeTweets(tl)
	if err != nil {
		log.Error("Error processing timeline", "err", err)
		return failure(err.Error())
	}

	if tl.Meta.NewestID != "" {
		cursor["since_id"] = tl.Meta.NewestID
		if err := saveCursor(ctx, p.store, p.owner, timelineSkillName, cursor); err != nil {
			log.Error("Error getting timeline", "err", err)
			return failure(err.Error())
		}
	}

	return Result{Items: items}
}
