package skill

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownSkill is returned for names outside the factory table. It is
// the only hard error the registry surfaces; everything that happens at
// poll time is reported inside the Result envelope instead.
var ErrUnknownSkill = errors.New("unknown skill")

// Deps carries the collaborators a skill constructor may need besides the
// store. A handle is bound to its deps and store at construction and the
// binding never changes afterwards.
type Deps struct {
	Owner   string
	Twitter TwitterAPI
	FeedURL string
	Budget  Budget
}

type factory func(Deps, Store) Skill

// factories is the closed table of known skill names.
var factories = map[string]factory{
	"get_mentions":    func(d Deps, st Store) Skill { return NewMentions(d, st) },
	"get_timeline":    func(d Deps, st Store) Skill { return NewTimeline(d, st) },
	"search_mentions": func(d Deps, st Store) Skill { return NewSearch(d, st) },
	"get_feed":        func(d Deps, st Store) Skill { return NewFeed(d, st) },
}

// Known reports whether name is a recognized skill identifier.
func Known(name string) bool {
	_, ok := factories[name]
	return ok
}

// Names returns the known skill identifiers, sorted.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Registry hands out at most one live handle per skill name. It is owned
// by the caller that assembles the application; there is no process-wide
// instance. Safe for concurrent use.
type Registry struct {
	deps Deps

	mu    sync.Mutex
	cache map[string]Skill
}

func NewRegistry(deps Deps) *Registry {
	return &Registry{
		deps:  deps,
		cache: make(map[string]Skill),
	}
}

// ListAvailable resolves configured enablement states against the
// caller's privacy context: disabled skills are skipped, public skills
// are always included, private skills only when isPrivate is true.
// Handles come back ordered by name.
func (r *Registry) ListAvailable(states map[string]string, isPrivate bool, st Store) ([]Skill, error) {
	names := make([]string, 0, len(states))
	for name := range states {
		names = append(names, name)
	}
	sort.Strings(names)

	var skills []Skill
	for _, name := range names {
		switch states[name] {
		case StateDisabled:
			continue
		case StatePrivate:
			if !isPrivate {
				continue
			}
		case StatePublic:
		default:
			return nil, fmt.Errorf("skill %s: invalid state %q", name, states[name])
		}

		s, err := r.Get(name, st)
		if err != nil {
			return nil, err
		}
		skills = append(skills, s)
	}
	return skills, nil
}

// Get returns the handle for name, constructing it bound to st on first
// use. Later calls return the cached handle unchanged; its original store
// binding wins even when a different store is passed.
func (r *Registry) Get(name string, st Store) (Skill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.cache[name]; ok {
		return s, nil
	}

	build, ok := factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSkill, name)
	}

	s := build(r.deps, st)
	r.cache[name] = s
	return s, nil
}
