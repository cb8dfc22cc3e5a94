// Package etwinstore provides the archive storage backends: purely
// in-memory stores for tests and sqlite stores for deployments.
package etwinstore

import (
	"context"
	"sync"
	"time"

	"etwin-backend/lib/dinoparc"
	"etwin-backend/lib/etwin"
	"etwin-backend/lib/hammerfest"
	"etwin-backend/lib/timezone"
)

// observation is one sighting of a username on an account. The archive
// keeps them all so as-of reads can project the name at any instant.
type observation[N comparable] struct {
	username N
	seenAt   time.Time
}

// observeUsername appends a sighting; an unchanged name is not a new
// observation.
func observeUsername[N comparable](history []observation[N], username N) []observation[N] {
	if len(history) > 0 && history[len(history)-1].username == username {
		return history
	}
	return append(history, observation[N]{username: username, seenAt: timezone.Now()})
}

// usernameAt projects the history at an instant; nil instant means now.
// ok is false for instants before the first sighting.
func usernameAt[N comparable](history []observation[N], at *time.Time) (N, bool) {
	t := timezone.Now()
	if at != nil {
		t = *at
	}
	for i := len(history) - 1; i >= 0; i-- {
		if !history[i].seenAt.After(t) {
			return history[i].username, true
		}
	}
	var zero N
	return zero, false
}

// MemHammerfestStore archives hammerfest account projections.
type MemHammerfestStore struct {
	mu    sync.RWMutex
	users map[hammerfest.UserIdRef][]observation[hammerfest.Username]
}

var _ hammerfest.Store = (*MemHammerfestStore)(nil)

func NewMemHammerfestStore() *MemHammerfestStore {
	return &MemHammerfestStore{users: map[hammerfest.UserIdRef][]observation[hammerfest.Username]{}}
}

func (s *MemHammerfestStore) GetShortUser(ctx context.Context, options *hammerfest.GetUserOptions) (*hammerfest.ShortUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ref := hammerfest.UserIdRef{Server: options.Server, Id: options.Id}
	username, ok := usernameAt(s.users[ref], options.Time)
	if !ok {
		return nil, nil
	}
	return &hammerfest.ShortUser{Server: ref.Server, Id: ref.Id, Username: username}, nil
}

func (s *MemHammerfestStore) TouchShortUser(ctx context.Context, user *hammerfest.ShortUser) (*hammerfest.ShortUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[user.Ref()] = observeUsername(s.users[user.Ref()], user.Username)
	stored := *user
	return &stored, nil
}

// MemDinoparcStore archives dinoparc account projections.
type MemDinoparcStore struct {
	mu    sync.RWMutex
	users map[dinoparc.UserIdRef][]observation[dinoparc.Username]
}

var _ dinoparc.Store = (*MemDinoparcStore)(nil)

func NewMemDinoparcStore() *MemDinoparcStore {
	return &MemDinoparcStore{users: map[dinoparc.UserIdRef][]observation[dinoparc.Username]{}}
}

func (s *MemDinoparcStore) GetShortUser(ctx context.Context, options *dinoparc.GetUserOptions) (*dinoparc.ShortUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ref := dinoparc.UserIdRef{Server: options.Server, Id: options.Id}
	username, ok := usernameAt(s.users[ref], options.Time)
	if !ok {
		return nil, nil
	}
	return &dinoparc.ShortUser{Server: ref.Server, Id: ref.Id, Username: username}, nil
}

func (s *MemDinoparcStore) TouchShortUser(ctx context.Context, user *dinoparc.ShortUser) (*dinoparc.ShortUser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[user.Ref()] = observeUsername(s.users[user.Ref()], user.Username)
	stored := *user
	return &stored, nil
}

// MemEtwinStore archives first-party users and their account links.
type MemEtwinStore struct {
	mu sync.Mutex

	users           map[etwin.UserId]etwin.User
	hammerfestLinks map[hammerfest.UserIdRef]*linkTimeline[hammerfest.UserIdRef]
	dinoparcLinks   map[dinoparc.UserIdRef]*linkTimeline[dinoparc.UserIdRef]
}

type linkTimeline[R any] struct {
	current *etwin.RawLink[R]
	old     []etwin.OldRawLink[R]
}

var (
	_ etwin.UserStore = (*MemEtwinStore)(nil)
	_ etwin.LinkStore = (*MemEtwinStore)(nil)
)

func NewMemEtwinStore() *MemEtwinStore {
	return &MemEtwinStore{
		users:           map[etwin.UserId]etwin.User{},
		hammerfestLinks: map[hammerfest.UserIdRef]*linkTimeline[hammerfest.UserIdRef]{},
		dinoparcLinks:   map[dinoparc.UserIdRef]*linkTimeline[dinoparc.UserIdRef]{},
	}
}

func (s *MemEtwinStore) CreateUser(ctx context.Context, displayName string) (*etwin.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user := etwin.User{
		Id:          etwin.NewUserId(),
		DisplayName: displayName,
		CTime:       timezone.Now(),
	}
	s.users[user.Id] = user
	return &user, nil
}

func (s *MemEtwinStore) GetUser(ctx context.Context, id etwin.UserId) (*etwin.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, etwin.ErrUserNotFound
	}
	return &user, nil
}

func (s *MemEtwinStore) GetShortUser(ctx context.Context, id etwin.UserId, at *time.Time) (*etwin.ShortUser, error) {
	user, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if at != nil && user.CTime.After(*at) {
		return nil, etwin.ErrUserNotFound
	}
	short := user.Short()
	return &short, nil
}

// viewTimeline projects a timeline to its state at a given instant; a
// nil instant means now.
func viewTimeline[R any](timeline *linkTimeline[R], at *time.Time) *etwin.VersionedRawLink[R] {
	out := &etwin.VersionedRawLink[R]{Old: []etwin.OldRawLink[R]{}}
	if timeline == nil {
		return out
	}

	t := timezone.Now()
	if at != nil {
		t = *at
	}

	for _, old := range timeline.old {
		if old.Link.Time.After(t) {
			continue
		}
		if old.Unlink.Time.After(t) {
			// severed later: still active at t
			link := old.RawLink
			out.Current = &link
		} else {
			out.Old = append(out.Old, old)
		}
	}
	if timeline.current != nil && !timeline.current.Link.Time.After(t) {
		link := *timeline.current
		out.Current = &link
	}
	return out
}

func touchLink[R comparable](
	timelines map[R]*linkTimeline[R],
	options *etwin.TouchLinkOptions[R],
) (*etwin.VersionedRawLink[R], error) {
	timeline := timelines[options.Remote]
	if timeline == nil {
		timeline = &linkTimeline[R]{}
		timelines[options.Remote] = timeline
	}

	if timeline.current != nil {
		if timeline.current.Etwin != options.Etwin {
			return nil, etwin.ErrLinkConflict
		}
		// idempotent: the existing link stands
		return viewTimeline(timeline, nil), nil
	}

	timeline.current = &etwin.RawLink[R]{
		Link:   etwin.UserDot{Time: timezone.Now(), User: options.LinkedBy},
		Etwin:  options.Etwin,
		Remote: options.Remote,
	}
	return viewTimeline(timeline, nil), nil
}

func deleteLink[R comparable](
	timelines map[R]*linkTimeline[R],
	options *etwin.DeleteLinkOptions[R],
) (*etwin.VersionedRawLink[R], error) {
	timeline := timelines[options.Remote]
	if timeline == nil || timeline.current == nil {
		return nil, etwin.ErrLinkNotFound
	}

	timeline.old = append(timeline.old, etwin.OldRawLink[R]{
		RawLink: *timeline.current,
		Unlink:  etwin.UserDot{Time: timezone.Now(), User: options.UnlinkedBy},
	})
	timeline.current = nil
	return viewTimeline(timeline, nil), nil
}

func (s *MemEtwinStore) GetLinkFromHammerfest(ctx context.Context, options *etwin.GetLinkOptions[hammerfest.UserIdRef]) (*etwin.VersionedRawLink[hammerfest.UserIdRef], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return viewTimeline(s.hammerfestLinks[options.Remote], options.Time), nil
}

func (s *MemEtwinStore) TouchHammerfestLink(ctx context.Context, options *etwin.TouchLinkOptions[hammerfest.UserIdRef]) (*etwin.VersionedRawLink[hammerfest.UserIdRef], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[options.Etwin]; !ok {
		return nil, etwin.ErrBrokenLink
	}
	return touchLink(s.hammerfestLinks, options)
}

func (s *MemEtwinStore) DeleteHammerfestLink(ctx context.Context, options *etwin.DeleteLinkOptions[hammerfest.UserIdRef]) (*etwin.VersionedRawLink[hammerfest.UserIdRef], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteLink(s.hammerfestLinks, options)
}

func (s *MemEtwinStore) GetLinkFromDinoparc(ctx context.Context, options *etwin.GetLinkOptions[dinoparc.UserIdRef]) (*etwin.VersionedRawLink[dinoparc.UserIdRef], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return viewTimeline(s.dinoparcLinks[options.Remote], options.Time), nil
}

func (s *MemEtwinStore) TouchDinoparcLink(ctx context.Context, options *etwin.TouchLinkOptions[dinoparc.UserIdRef]) (*etwin.VersionedRawLink[dinoparc.UserIdRef], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[options.Etwin]; !ok {
		return nil, etwin.ErrBrokenLink
	}
	return touchLink(s.dinoparcLinks, options)
}

func (s *MemEtwinStore) DeleteDinoparcLink(ctx context.Context, options *etwin.DeleteLinkOptions[dinoparc.UserIdRef]) (*etwin.VersionedRawLink[dinoparc.UserIdRef], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteLink(s.dinoparcLinks, options)
}
