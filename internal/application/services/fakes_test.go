package services_test

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/spottica/backend/internal/domain/entities"
	"github.com/spottica/backend/internal/domain/providers"
	"github.com/spottica/backend/internal/domain/repositories"
	apperrors "github.com/spottica/backend/pkg/errors"
)

// memStore is an in-memory stand-in for Postgres shared by the fake repositories
type memStore struct {
	mu        sync.Mutex
	users     map[string]*entities.User
	places    map[string]*entities.Place
	reviews   map[string]*entities.Review
	favorites map[string]map[string]bool
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[string]*entities.User{},
		places:    map[string]*entities.Place{},
		reviews:   map[string]*entities.Review{},
		favorites: map[string]map[string]bool{},
	}
}

func (s *memStore) Users() repositories.UserRepository         { return &memUsers{s} }
func (s *memStore) Places() repositories.PlaceRepository       { return &memPlaces{s} }
func (s *memStore) Reviews() repositories.ReviewRepository     { return &memReviews{s} }
func (s *memStore) Favorites() repositories.FavoriteRepository { return &memFavorites{s} }

type memUsers struct{ s *memStore }

func (r *memUsers) Create(_ context.Context, u *entities.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return apperrors.NewConflictError("email is already registered")
		}
	}
	cp := *u
	r.s.users[u.ID] = &cp
	return nil
}

func (r *memUsers) GetByID(_ context.Context, id string) (*entities.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("user not found")
	}
	cp := *u
	return &cp, nil
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*entities.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.NewNotFoundError("user not found")
}

func (r *memUsers) GetByIDs(_ context.Context, ids []string) ([]*entities.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entities.User
	for _, id := range ids {
		if u, ok := r.s.users[id]; ok {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memUsers) UpdatePassword(_ context.Context, id, hash string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return apperrors.NewNotFoundError("user not found")
	}
	u.PasswordHash = hash
	return nil
}

func (r *memUsers) SetRole(_ context.Context, id string, role entities.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return apperrors.NewNotFoundError("user not found")
	}
	u.Role = role
	return nil
}

type memPlaces struct{ s *memStore }

func (r *memPlaces) Create(_ context.Context, p *entities.Place) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *p
	r.s.places[p.ID] = &cp
	return nil
}

func (r *memPlaces) GetByID(_ context.Context, id string) (*entities.Place, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.places[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("place not found")
	}
	cp := *p
	return &cp, nil
}

func (r *memPlaces) Update(_ context.Context, p *entities.Place) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.places[p.ID]
	if !ok {
		return apperrors.NewNotFoundError("place not found")
	}
	existing.Title, existing.Description, existing.Address, existing.Location = p.Title, p.Description, p.Address, p.Location
	*p = *existing
	return nil
}

func (r *memPlaces) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.places[id]; !ok {
		return apperrors.NewNotFoundError("place not found")
	}
	delete(r.s.places, id)
	for rid, rv := range r.s.reviews {
		if rv.PlaceID == id {
			delete(r.s.reviews, rid)
		}
	}
	return nil
}

func (r *memPlaces) SetStatus(_ context.Context, id string, status entities.PlaceStatus) (*entities.Place, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.places[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("place not found")
	}
	p.Status = status
	cp := *p
	return &cp, nil
}

func (r *memPlaces) RecomputeStats(_ context.Context, id string) (*entities.PlaceStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.places[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("place not found")
	}
	sum, count := 0, 0
	for _, rv := range r.s.reviews {
		if rv.PlaceID == id {
			sum += rv.Rating
			count++
		}
	}
	p.ReviewsCount = count
	p.AvgRating = 0
	if count > 0 {
		p.AvgRating = float64(sum) / float64(count)
	}
	stats := p.Stats()
	return &stats, nil
}

func (r *memPlaces) List(_ context.Context, f repositories.PlaceFilter) ([]*entities.Place, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var matched []*entities.Place
	for _, p := range r.s.places {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.MinRating != nil && p.AvgRating < *f.MinRating {
			continue
		}
		if f.Search != "" {
			text := strings.ToLower(p.Title + " " + p.Description)
			if !strings.Contains(text, strings.ToLower(f.Search)) {
				continue
			}
		}
		if f.Near != nil && distanceKm(*f.Near, p.Location) > f.RadiusKm {
			continue
		}
		cp := *p
		matched = append(matched, &cp)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	total := len(matched)
	start := f.Offset
	if start > total {
		start = total
	}
	end := total
	if f.Limit > 0 && start+f.Limit < end {
		end = start + f.Limit
	}
	return matched[start:end], total, nil
}

func (r *memPlaces) ListByIDs(_ context.Context, ids []string, status entities.PlaceStatus) ([]*entities.Place, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []*entities.Place{}
	for _, id := range ids {
		if p, ok := r.s.places[id]; ok && p.Status == status {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memPlaces) ListByStatus(ctx context.Context, status entities.PlaceStatus) ([]*entities.Place, error) {
	places, _, err := r.List(ctx, repositories.PlaceFilter{Status: status})
	sort.Slice(places, func(i, j int) bool { return places[i].CreatedAt.Before(places[j].CreatedAt) })
	return places, err
}

func (r *memPlaces) ListMap(ctx context.Context, status entities.PlaceStatus) ([]*entities.MapPlace, error) {
	places, _, err := r.List(ctx, repositories.PlaceFilter{Status: status})
	out := make([]*entities.MapPlace, 0, len(places))
	for _, p := range places {
		out = append(out, &entities.MapPlace{ID: p.ID, Title: p.Title, Location: p.Location, AvgRating: p.AvgRating})
	}
	return out, err
}

func (r *memPlaces) ListIDs(ctx context.Context) ([]string, error) {
	places, _, err := r.List(ctx, repositories.PlaceFilter{})
	ids := make([]string, 0, len(places))
	for _, p := range places {
		ids = append(ids, p.ID)
	}
	return ids, err
}

func distanceKm(a, b entities.Location) float64 {
	rad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := rad(b.Latitude - a.Latitude)
	dLng := rad(b.Longitude - a.Longitude)
	h := math.Pow(math.Sin(dLat/2), 2) + math.Cos(rad(a.Latitude))*math.Cos(rad(b.Latitude))*math.Pow(math.Sin(dLng/2), 2)
	return 2 * 6371 * math.Asin(math.Sqrt(h))
}

type memReviews struct{ s *memStore }

func (r *memReviews) Create(_ context.Context, rv *entities.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.places[rv.PlaceID]; !ok {
		return apperrors.NewNotFoundError("place not found")
	}
	for _, existing := range r.s.reviews {
		if existing.PlaceID == rv.PlaceID && existing.AuthorID == rv.AuthorID {
			return apperrors.NewConflictError("already reviewed this place")
		}
	}
	cp := *rv
	r.s.reviews[rv.ID] = &cp
	return nil
}

func (r *memReviews) GetByID(_ context.Context, id string) (*entities.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rv, ok := r.s.reviews[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("review not found")
	}
	cp := *rv
	return &cp, nil
}

func (r *memReviews) Update(_ context.Context, rv *entities.Review) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.reviews[rv.ID]
	if !ok {
		return apperrors.NewNotFoundError("review not found")
	}
	existing.Rating, existing.Comment, existing.UpdatedAt = rv.Rating, rv.Comment, rv.UpdatedAt
	return nil
}

func (r *memReviews) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.reviews[id]; !ok {
		return apperrors.NewNotFoundError("review not found")
	}
	delete(r.s.reviews, id)
	return nil
}

func (r *memReviews) ListByPlace(_ context.Context, placeID string) ([]*entities.Review, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entities.Review
	for _, rv := range r.s.reviews {
		if rv.PlaceID == placeID {
			cp := *rv
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type memFavorites struct{ s *memStore }

func (r *memFavorites) Add(_ context.Context, userID, placeID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.favorites[userID] == nil {
		r.s.favorites[userID] = map[string]bool{}
	}
	r.s.favorites[userID][placeID] = true
	return nil
}

func (r *memFavorites) Remove(_ context.Context, userID, placeID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.favorites[userID], placeID)
	return nil
}

func (r *memFavorites) ListIDs(_ context.Context, userID string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	ids := []string{}
	for id := range r.s.favorites[userID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *memFavorites) ListPlaces(_ context.Context, userID string, status entities.PlaceStatus) ([]*entities.Place, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entities.Place
	for id := range r.s.favorites[userID] {
		if p, ok := r.s.places[id]; ok && p.Status == status {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

// recordingBus captures published events
type recordingBus struct {
	mu     sync.Mutex
	events []*entities.PlaceEvent
}

func (b *recordingBus) Publish(_ context.Context, _ string, e *entities.PlaceEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, e)
	return nil
}

func (b *recordingBus) Subscribe(context.Context, string) (<-chan *entities.PlaceEvent, error) {
	return make(chan *entities.PlaceEvent), nil
}

func (b *recordingBus) Unsubscribe(context.Context, string) error { return nil }
func (b *recordingBus) Close() error                             { return nil }

func (b *recordingBus) types() []entities.PlaceEventType {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]entities.PlaceEventType, len(b.events))
	for i, e := range b.events {
		out[i] = e.EventType
	}
	return out
}

// fakeSearch is an in-memory search index
type fakeSearch struct {
	mu         sync.Mutex
	docs       map[string]*entities.Place
	failing    bool
	failDelete bool
}

func newFakeSearch() *fakeSearch { return &fakeSearch{docs: map[string]*entities.Place{}} }

func (f *fakeSearch) Search(_ context.Context, filter repositories.PlaceFilter) ([]*entities.Place, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return nil, 0, apperrors.NewExternalError("search unavailable", nil)
	}
	var out []*entities.Place
	for _, p := range f.docs {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.MinRating != nil && p.AvgRating < *filter.MinRating {
			continue
		}
		if strings.Contains(strings.ToLower(p.Title+" "+p.Description), strings.ToLower(filter.Search)) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (f *fakeSearch) Index(_ context.Context, p *entities.Place) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *p
	f.docs[p.ID] = &cp
	return nil
}

func (f *fakeSearch) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete {
		return apperrors.NewExternalError("search unavailable", nil)
	}
	delete(f.docs, id)
	return nil
}

func (f *fakeSearch) setRating(id string, avg float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[id].AvgRating = avg
}

func (f *fakeSearch) has(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.docs[id]
	return ok
}

// fakeGeocoder resolves a fixed set of addresses
type fakeGeocoder struct {
	known map[string]providers.Coordinates
	calls int
}

func (g *fakeGeocoder) Geocode(_ context.Context, address string) (*providers.GeocodedAddress, error) {
	g.calls++
	c, ok := g.known[strings.ToLower(address)]
	if !ok {
		return nil, apperrors.NewNotFoundError("no location found")
	}
	return &providers.GeocodedAddress{FormattedAddress: address, Coordinates: c}, nil
}

// fakeTokens issues tokens of the form "<purpose>:<user id>"
type fakeTokens struct{}

func (fakeTokens) IssueAccessToken(u *entities.User) (string, error) {
	return "access:" + u.ID + ":" + string(u.Role), nil
}

func (fakeTokens) VerifyAccessToken(token string) (*entities.Identity, error) {
	parts := strings.Split(token, ":")
	if len(parts) != 3 || parts[0] != "access" {
		return nil, apperrors.NewUnauthorizedError("invalid token")
	}
	return &entities.Identity{UserID: parts[1], Role: entities.Role(parts[2])}, nil
}

func (fakeTokens) IssueResetToken(userID string, _ time.Duration) (string, error) {
	return "reset:" + userID, nil
}

func (fakeTokens) VerifyResetToken(token string) (string, error) {
	id, ok := strings.CutPrefix(token, "reset:")
	if !ok || id == "" {
		return "", apperrors.NewValidationError("invalid token")
	}
	return id, nil
}

// plainHasher prefixes passwords instead of hashing them
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (plainHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return apperrors.NewUnauthorizedError("invalid credentials")
	}
	return nil
}

// recordingMailer captures sent mail
type recordingMailer struct {
	mu   sync.Mutex
	sent []providers.Mail
}

func (m *recordingMailer) Send(_ context.Context, mail providers.Mail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, mail)
	return nil
}

func (m *recordingMailer) messages() []providers.Mail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]providers.Mail(nil), m.sent...)
}
