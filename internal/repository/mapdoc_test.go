package repository

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/tripmap/tripmap/internal/model"
	"github.com/tripmap/tripmap/internal/store"
)

func newTestMap() *model.MapDocument {
	return &model.MapDocument{
		UserID:    "01HV0000000000000000000000",
		UserEmail: "a@x.com",
		Title:     "Summer trip",
		States:    []string{"California", "Texas"},
		IsPublic:  true,
	}
}

func TestRepository_SaveNewMapAllocatesID(t *testing.T) {
	repo := newTestRepository(t)

	saved, err := repo.SaveMap(newTestMap())
	if err != nil {
		t.Fatalf("save map: %v", err)
	}
	if saved.ID == "" {
		t.Fatal("expected a generated map id")
	}
	if len(saved.ID) != 36 {
		t.Fatalf("expected uuid-formatted id, got %q", saved.ID)
	}
	if saved.UpdatedAt.Before(saved.CreatedAt) {
		t.Fatal("UpdatedAt must not precede CreatedAt")
	}

	loaded, err := repo.GetMapByID(saved.ID)
	if err != nil {
		t.Fatalf("get map: %v", err)
	}
	if !reflect.DeepEqual(saved, loaded) {
		t.Fatalf("round-trip mismatch:\nsaved:  %+v\nloaded: %+v", saved, loaded)
	}
}

func TestRepository_SaveExistingOverwritesInPlace(t *testing.T) {
	repo := newTestRepository(t)

	saved, err := repo.SaveMap(newTestMap())
	if err != nil {
		t.Fatalf("save map: %v", err)
	}

	edit := saved.Clone()
	edit.Title = "Winter trip"
	edit.States = []string{"Alaska"}
	edit.IsPublic = false

	time.Sleep(5 * time.Millisecond)
	updated, err := repo.SaveMap(edit)
	if err != nil {
		t.Fatalf("update map: %v", err)
	}

	if updated.ID != saved.ID {
		t.Fatalf("update must not change id: %q vs %q", updated.ID, saved.ID)
	}
	if updated.Title != "Winter trip" || updated.IsPublic || len(updated.States) != 1 {
		t.Fatalf("update not applied: %+v", updated)
	}
	if !updated.CreatedAt.Equal(saved.CreatedAt) {
		t.Fatal("CreatedAt must be preserved on update")
	}
	if !updated.UpdatedAt.After(saved.UpdatedAt) {
		t.Fatal("UpdatedAt must advance on update")
	}

	if len(repo.AllMaps()) != 1 {
		t.Fatalf("expected 1 map in collection, got %d", len(repo.AllMaps()))
	}
}

func TestRepository_ResaveWithoutEditsOnlyAdvancesUpdatedAt(t *testing.T) {
	repo := newTestRepository(t)

	saved, err := repo.SaveMap(newTestMap())
	if err != nil {
		t.Fatalf("save map: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	resaved, err := repo.SaveMap(saved)
	if err != nil {
		t.Fatalf("resave map: %v", err)
	}

	if resaved.Title != saved.Title || resaved.IsPublic != saved.IsPublic {
		t.Fatal("idempotent resave changed fields")
	}
	if !reflect.DeepEqual(resaved.States, saved.States) {
		t.Fatal("idempotent resave changed states")
	}
	if !resaved.UpdatedAt.After(saved.UpdatedAt) {
		t.Fatal("UpdatedAt should advance on resave")
	}
}

func TestRepository_SaveUnknownIDFails(t *testing.T) {
	repo := newTestRepository(t)

	doc := newTestMap()
	doc.ID = "0b3e9a4e-0000-4000-8000-000000000000"
	if _, err := repo.SaveMap(doc); !errors.Is(err, ErrMapNotFound) {
		t.Fatalf("expected ErrMapNotFound, got %v", err)
	}
}

func TestRepository_ListMapsOwnedBySortedByUpdate(t *testing.T) {
	repo := newTestRepository(t)

	first, err := repo.SaveMap(newTestMap())
	if err != nil {
		t.Fatalf("save first: %v", err)
	}

	second := newTestMap()
	second.Title = "Road trip"
	time.Sleep(5 * time.Millisecond)
	if _, err := repo.SaveMap(second); err != nil {
		t.Fatalf("save second: %v", err)
	}

	other := newTestMap()
	other.UserEmail = "b@y.com"
	if _, err := repo.SaveMap(other); err != nil {
		t.Fatalf("save other owner: %v", err)
	}

	owned := repo.ListMapsOwnedBy("A@x.com")
	if len(owned) != 2 {
		t.Fatalf("expected 2 owned maps, got %d", len(owned))
	}
	if owned[0].Title != "Road trip" {
		t.Fatalf("expected most recently updated first, got %q", owned[0].Title)
	}

	// Touching the older map moves it to the front.
	time.Sleep(5 * time.Millisecond)
	if _, err := repo.SaveMap(first); err != nil {
		t.Fatalf("touch first: %v", err)
	}
	owned = repo.ListMapsOwnedBy("a@x.com")
	if owned[0].ID != first.ID {
		t.Fatalf("expected touched map first, got %q", owned[0].Title)
	}
}

func TestRepository_CollectionSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.json")

	s, err := store.Open(path, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	repo := New(s)

	saved, err := repo.SaveMap(newTestMap())
	if err != nil {
		t.Fatalf("save map: %v", err)
	}

	s2, err := store.Open(path, nil)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	reloaded := New(s2)

	loaded, err := reloaded.GetMapByID(saved.ID)
	if err != nil {
		t.Fatalf("get after reload: %v", err)
	}
	if loaded.Title != saved.Title {
		t.Fatalf("reload mismatch: %+v", loaded)
	}
}
