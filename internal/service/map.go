// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tripmap/tripmap/internal/auth"
	"github.com/tripmap/tripmap/internal/cache"
	"github.com/tripmap/tripmap/internal/metrics"
	"github.com/tripmap/tripmap/internal/model"
	"github.com/tripmap/tripmap/internal/repository"
	"github.com/tripmap/tripmap/internal/sharing"
	"github.com/tripmap/tripmap/internal/store"
)

// Service errors.
var (
	ErrInvalidState     = errors.New("unknown state name")
	ErrNoStatesSelected = errors.New("select at least one state before sharing")
)

// DefaultTitle is used when a map is saved without a title.
const DefaultTitle = "My Travel Map"

// Store keys mirroring the in-progress edit, inherited from the
// original profile format.
const (
	currentStatesKey = "travelMapCurrentStates"
	currentTitleKey  = "travelMapTitle"
	currentPublicKey = "travelMapIsPublic"
)

// MapService owns the active map edit: the selection, title and
// visibility the user is currently working on. Every change is
// mirrored to the store so a restart resumes the edit in progress.
type MapService struct {
	repo     *repository.Repository
	resolver *sharing.Resolver
	cache    *cache.Cache // optional, may be nil
	store    *store.Store
	baseURL  string
	metrics  metrics.Recorder

	mu   sync.Mutex
	edit editState
}

// editState is the in-progress edit. MapID is empty until the edit is
// first saved.
type editState struct {
	MapID    string
	Title    string
	States   []string
	IsPublic bool
}

// EditView is a snapshot of the active edit for callers.
type EditView struct {
	MapID    string
	Title    string
	States   []string
	IsPublic bool
	Stats    model.VisitedStats
}

// NewMapService creates the service and resumes any persisted edit.
func NewMapService(repo *repository.Repository, resolver *sharing.Resolver, cacheClient *cache.Cache, s *store.Store, baseURL string, recorder metrics.Recorder) *MapService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	svc := &MapService{
		repo:     repo,
		resolver: resolver,
		cache:    cacheClient,
		store:    s,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		metrics:  recorder,
	}

	s.GetJSON(currentStatesKey, &svc.edit.States)
	s.GetJSON(currentTitleKey, &svc.edit.Title)
	s.GetJSON(currentPublicKey, &svc.edit.IsPublic)

	return svc
}

// Edit returns a snapshot of the active edit.
func (s *MapService) Edit() EditView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

// Toggle flips membership of a state in the current selection and
// persists the selection. An even number of toggles of the same state
// always lands back where it started.
func (s *MapService) Toggle(state string) (EditView, error) {
	if !model.ValidState(state) {
		return EditView{}, ErrInvalidState
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for i, name := range s.edit.States {
		if name == state {
			s.edit.States = append(s.edit.States[:i], s.edit.States[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		s.edit.States = append(s.edit.States, state)
	}

	if err := s.store.SetJSON(currentStatesKey, s.edit.States); err != nil {
		return EditView{}, fmt.Errorf("persist selection: %w", err)
	}

	s.metrics.IncStateToggled()
	return s.viewLocked(), nil
}

// Reset clears the current selection.
func (s *MapService) Reset() (EditView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.edit.States = nil
	if err := s.store.SetJSON(currentStatesKey, []string{}); err != nil {
		return EditView{}, fmt.Errorf("persist selection: %w", err)
	}
	return s.viewLocked(), nil
}

// SetTitle updates and persists the working title.
func (s *MapService) SetTitle(title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.edit.Title = title
	if err := s.store.SetJSON(currentTitleKey, title); err != nil {
		return fmt.Errorf("persist title: %w", err)
	}
	return nil
}

// SetPublic updates and persists the working visibility flag.
func (s *MapService) SetPublic(public bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.edit.IsPublic = public
	if err := s.store.SetJSON(currentPublicKey, public); err != nil {
		return fmt.Errorf("persist visibility: %w", err)
	}
	return nil
}

// Save persists the active edit as a map document. Anonymous callers
// get auth.ErrNotAuthenticated and the caller is expected to prompt
// for login. The first save allocates an id and binds the edit to it;
// later saves overwrite the same document.
func (s *MapService) Save(ctx context.Context, sess *model.Session) (*model.MapDocument, error) {
	if sess == nil {
		return nil, auth.ErrNotAuthenticated
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	title := s.edit.Title
	if title == "" {
		title = DefaultTitle
	}

	doc := &model.MapDocument{
		ID:        s.edit.MapID,
		UserID:    sess.UserID,
		UserEmail: sess.Email,
		Title:     title,
		States:    append([]string(nil), s.edit.States...),
		IsPublic:  s.edit.IsPublic,
	}

	saved, err := s.repo.SaveMap(doc)
	if err != nil {
		return nil, err
	}
	s.edit.MapID = saved.ID

	if err := s.store.SetJSON(currentTitleKey, title); err != nil {
		return nil, fmt.Errorf("persist title: %w", err)
	}

	s.metrics.IncMapSaved()
	s.refreshCache(ctx, saved)

	return saved, nil
}

// ShareLink returns a URL for the active edit, saving it first when it
// has never been saved. Sharing an empty map is refused, and anonymous
// users must log in before a link is produced.
func (s *MapService) ShareLink(ctx context.Context, sess *model.Session) (string, error) {
	s.mu.Lock()
	empty := len(s.edit.States) == 0
	mapID := s.edit.MapID
	s.mu.Unlock()

	if empty {
		return "", ErrNoStatesSelected
	}
	if sess == nil {
		return "", auth.ErrNotAuthenticated
	}

	if mapID == "" {
		saved, err := s.Save(ctx, sess)
		if err != nil {
			return "", err
		}
		mapID = saved.ID
	}

	return fmt.Sprintf("%s/shared?mapId=%s", s.baseURL, mapID), nil
}

// OpenShared resolves a map opened via share link. An Editable result
// also adopts the document as the active edit so the owner keeps
// working on the same map; ReadOnly leaves the edit untouched and the
// caller must render without mutating controls.
func (s *MapService) OpenShared(ctx context.Context, mapID string, sess *model.Session) (sharing.Visibility, *model.MapDocument, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveSharedViewDuration(time.Since(start))
	}()

	if doc, ok := s.cachedShared(ctx, mapID); ok {
		if doc == nil {
			s.metrics.IncSharedViewDenied()
			return sharing.Denied, nil, sharing.ErrMapNotFoundOrPrivate
		}
		if sess != nil && sess.Email == doc.UserEmail {
			s.adoptEdit(doc)
			return sharing.Editable, doc, nil
		}
		return sharing.ReadOnly, doc, nil
	}

	vis, doc, err := s.resolver.Resolve(mapID, sess)
	if err != nil {
		s.metrics.IncSharedViewDenied()
		s.maybeCacheMissing(ctx, mapID)
		return vis, nil, err
	}

	if doc.IsPublic && s.cache != nil {
		// Backfill failures are invisible; the store stays
		// authoritative.
		_ = s.cache.SetMap(ctx, doc)
	}

	if vis == sharing.Editable {
		s.adoptEdit(doc)
	}
	return vis, doc, nil
}

// OwnedMaps lists the session's maps, most recently updated first.
// Anonymous sessions own nothing.
func (s *MapService) OwnedMaps(sess *model.Session) []*model.MapDocument {
	if sess == nil {
		return nil
	}
	return s.repo.ListMapsOwnedBy(sess.Email)
}

// BaseURL returns the configured base URL.
func (s *MapService) BaseURL() string {
	return s.baseURL
}

// cachedShared consults the read cache. The second return value is
// false when the cache is absent or has no answer; a true result with
// a nil document means the id is negatively cached.
func (s *MapService) cachedShared(ctx context.Context, mapID string) (*model.MapDocument, bool) {
	if s.cache == nil {
		return nil, false
	}

	if neg, err := s.cache.IsNegativelyCached(ctx, mapID); err == nil && neg {
		return nil, true
	}

	doc, err := s.cache.GetMap(ctx, mapID)
	if err != nil {
		s.metrics.IncSharedViewCacheMiss()
		return nil, false
	}

	s.metrics.IncSharedViewCacheHit()
	return doc, true
}

// maybeCacheMissing negatively caches ids that do not exist at all.
// A denial for an existing private map is viewer-specific and must not
// be cached, or the owner would be locked out of their own link.
func (s *MapService) maybeCacheMissing(ctx context.Context, mapID string) {
	if s.cache == nil {
		return
	}
	if _, err := s.repo.GetMapByID(mapID); errors.Is(err, repository.ErrMapNotFound) {
		_ = s.cache.SetNegativeCache(ctx, mapID)
	}
}

// refreshCache keeps the read cache in step with a save. Private saves
// evict; public saves overwrite.
func (s *MapService) refreshCache(ctx context.Context, doc *model.MapDocument) {
	if s.cache == nil {
		return
	}
	_ = s.cache.SetMap(ctx, doc)
}

// adoptEdit loads a document into the active edit.
func (s *MapService) adoptEdit(doc *model.MapDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.edit.MapID = doc.ID
	s.edit.Title = doc.Title
	s.edit.States = append([]string(nil), doc.States...)
	s.edit.IsPublic = doc.IsPublic

	// Mirror the adopted edit; failures only cost resume fidelity.
	_ = s.store.SetJSON(currentStatesKey, s.edit.States)
	_ = s.store.SetJSON(currentTitleKey, s.edit.Title)
	_ = s.store.SetJSON(currentPublicKey, s.edit.IsPublic)
}

// viewLocked snapshots the edit. Callers hold s.mu.
func (s *MapService) viewLocked() EditView {
	return EditView{
		MapID:    s.edit.MapID,
		Title:    s.edit.Title,
		States:   append([]string(nil), s.edit.States...),
		IsPublic: s.edit.IsPublic,
		Stats:    model.StatsFor(s.edit.States),
	}
}

// NewEdit detaches the active edit from any saved map and clears the
// working selection, the "New Map" action.
func (s *MapService) NewEdit() (EditView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.edit = editState{}
	if err := s.store.SetJSON(currentStatesKey, []string{}); err != nil {
		return EditView{}, fmt.Errorf("persist selection: %w", err)
	}
	if err := s.store.SetJSON(currentTitleKey, ""); err != nil {
		return EditView{}, fmt.Errorf("persist title: %w", err)
	}
	if err := s.store.SetJSON(currentPublicKey, false); err != nil {
		return EditView{}, fmt.Errorf("persist visibility: %w", err)
	}
	return s.viewLocked(), nil
}
