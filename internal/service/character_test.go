package service

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/Rodrigod7/Vs-wiki-battle-etec/internal/models"
)

func intPtr(v int) *int { return &v }

func TestStatOrDefault(t *testing.T) {
	cases := []struct {
		name string
		in   *int
		want int
	}{
		{"nil defaults", nil, 50},
		{"in range", intPtr(73), 73},
		{"below floor", intPtr(0), 1},
		{"negative", intPtr(-5), 1},
		{"above ceiling", intPtr(150), 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := statOrDefault(tc.in); got != tc.want {
				t.Fatalf("statOrDefault = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestPowerLevelDerivation(t *testing.T) {
	gdb := testDB(t)
	user := mustCreateUser(t, gdb, "creator")
	svc := NewCharacterService(gdb)

	dto, err := svc.Create(user.ID, CharacterInput{
		Name:           "Saitama",
		Tier:           "Planet Level",
		Strength:       intPtr(100),
		SpeedStat:      intPtr(90),
		DurabilityStat: intPtr(100),
		Intelligence:   intPtr(60),
		Energy:         intPtr(80),
		Combat:         intPtr(100),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// round(530 / 6) = round(88.33) = 88
	if dto.PowerLevel != 88 {
		t.Fatalf("power level = %d, want 88", dto.PowerLevel)
	}

	// All defaults average to exactly 50.
	dto, err = svc.Create(user.ID, CharacterInput{Name: "Average Joe"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.PowerLevel != 50 {
		t.Fatalf("default power level = %d, want 50", dto.PowerLevel)
	}
	if dto.Tier != "Unknown" {
		t.Fatalf("default tier = %q, want Unknown", dto.Tier)
	}
}

func TestCharacterViewsCountEveryFetch(t *testing.T) {
	gdb := testDB(t)
	user := mustCreateUser(t, gdb, "creator")
	svc := NewCharacterService(gdb)
	dto, err := svc.Create(user.ID, CharacterInput{Name: "Popular"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for i := 1; i <= 3; i++ {
		got, err := svc.Get(dto.ID)
		if err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
		if got.Views != i {
			t.Fatalf("views after fetch %d = %d, want %d", i, got.Views, i)
		}
	}
}

func TestToggleLikeInvolution(t *testing.T) {
	gdb := testDB(t)
	creator := mustCreateUser(t, gdb, "creator")
	fan := mustCreateUser(t, gdb, "fan")
	svc := NewCharacterService(gdb)
	dto, err := svc.Create(creator.ID, CharacterInput{Name: "Likeable"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := svc.ToggleLike(dto.ID, fan.ID)
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	if !res.Liked || res.Likes != 1 {
		t.Fatalf("after like: %+v", res)
	}

	res, err = svc.ToggleLike(dto.ID, fan.ID)
	if err != nil {
		t.Fatalf("unlike: %v", err)
	}
	if res.Liked || res.Likes != 0 {
		t.Fatalf("after unlike: %+v", res)
	}

	// Two distinct likers produce two likes; each toggle is per-user.
	other := mustCreateUser(t, gdb, "other")
	if _, err := svc.ToggleLike(dto.ID, fan.ID); err != nil {
		t.Fatalf("re-like: %v", err)
	}
	res, err = svc.ToggleLike(dto.ID, other.ID)
	if err != nil {
		t.Fatalf("second liker: %v", err)
	}
	if res.Likes != 2 {
		t.Fatalf("likes = %d, want 2", res.Likes)
	}
}

func TestToggleLikeConcurrentUsers(t *testing.T) {
	gdb := testDB(t)
	creator := mustCreateUser(t, gdb, "creator")
	svc := NewCharacterService(gdb)
	dto, err := svc.Create(creator.ID, CharacterInput{Name: "Raid Target"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	fans := make([]*models.User, 8)
	for i := range fans {
		fans[i] = mustCreateUser(t, gdb, fmt.Sprintf("fan%d", i))
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(fans))
	for _, fan := range fans {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.ToggleLike(dto.ID, fan.ID); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent toggle: %v", err)
	}

	// Every toggle must land: no like may be lost to a stale read.
	got, err := svc.Get(dto.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Likes != len(fans) {
		t.Fatalf("likes = %d, want %d", got.Likes, len(fans))
	}
	if len(got.LikedBy) != len(fans) {
		t.Fatalf("liked-by size = %d, want %d", len(got.LikedBy), len(fans))
	}
}

func TestCharacterListFilters(t *testing.T) {
	gdb := testDB(t)
	alice := mustCreateUser(t, gdb, "alice")
	bob := mustCreateUser(t, gdb, "bob")
	svc := NewCharacterService(gdb)

	mustCreateCharacter(t, gdb, alice.ID, "Dragon King", "City Level")
	mustCreateCharacter(t, gdb, alice.ID, "Shadow Monk", "Street Level")
	mustCreateCharacter(t, gdb, bob.ID, "Dragon Queen", "City Level")

	chars, pg, err := svc.List(CharacterFilter{Search: "dragon"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(chars) != 2 || pg.Total != 2 {
		t.Fatalf("search matched %d, want 2", len(chars))
	}

	chars, _, err = svc.List(CharacterFilter{Tier: "Street Level"})
	if err != nil {
		t.Fatalf("tier filter: %v", err)
	}
	if len(chars) != 1 || chars[0].Name != "Shadow Monk" {
		t.Fatalf("tier filter returned %d characters", len(chars))
	}

	chars, _, err = svc.List(CharacterFilter{CreatorID: bob.ID})
	if err != nil {
		t.Fatalf("creator filter: %v", err)
	}
	if len(chars) != 1 || chars[0].Name != "Dragon Queen" {
		t.Fatalf("creator filter returned %d characters", len(chars))
	}

	chars, _, err = svc.List(CharacterFilter{SortBy: "name"})
	if err != nil {
		t.Fatalf("sort by name: %v", err)
	}
	if len(chars) != 3 || chars[0].Name != "Dragon King" || chars[2].Name != "Shadow Monk" {
		t.Fatal("name sort out of order")
	}
}

func TestCharacterSoftDeleteHidesEverywhere(t *testing.T) {
	gdb := testDB(t)
	creator := mustCreateUser(t, gdb, "creator")
	other := mustCreateUser(t, gdb, "other")
	svc := NewCharacterService(gdb)
	dto, err := svc.Create(creator.ID, CharacterInput{Name: "Doomed"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.Delete(dto.ID, other.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign delete: expected ErrForbidden, got %v", err)
	}
	if err := svc.Delete(dto.ID, creator.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := svc.Get(dto.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete: expected ErrNotFound, got %v", err)
	}
	chars, _, err := svc.List(CharacterFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(chars) != 0 {
		t.Fatal("soft-deleted character still listed")
	}
	byCreator, err := svc.ByCreator(creator.ID)
	if err != nil {
		t.Fatalf("by creator: %v", err)
	}
	if len(byCreator) != 0 {
		t.Fatal("soft-deleted character still in creator listing")
	}
	if _, err := svc.ToggleLike(dto.ID, other.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("like after delete: expected ErrNotFound, got %v", err)
	}
}

func TestCharacterUpdateOwnerOnly(t *testing.T) {
	gdb := testDB(t)
	creator := mustCreateUser(t, gdb, "creator")
	other := mustCreateUser(t, gdb, "other")
	svc := NewCharacterService(gdb)
	dto, err := svc.Create(creator.ID, CharacterInput{Name: "Original", Tier: "City Level"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Update(dto.ID, other.ID, CharacterInput{Name: "Hijacked"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	updated, err := svc.Update(dto.ID, creator.ID, CharacterInput{
		Name:     "Renamed",
		Tier:     "Universal",
		Strength: intPtr(90),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Renamed" || updated.Tier != "Universal" || updated.Strength != 90 {
		t.Fatalf("update not applied: %+v", updated.Character)
	}
}

func TestNormalizeImagesOnCreate(t *testing.T) {
	gdb := testDB(t)
	user := mustCreateUser(t, gdb, "creator")
	svc := NewCharacterService(gdb)

	dto, err := svc.Create(user.ID, CharacterInput{
		Name: "Pictured",
		Images: []models.ImageVariant{
			{URL: "https://cdn.example.com/images/hero.png?v=2", Label: "main"},
			{URL: "/uploads/alt.png", Label: "alt"},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.Images[0].URL != "/images/hero.png?v=2" {
		t.Fatalf("absolute URL not normalized: %q", dto.Images[0].URL)
	}
	if dto.Images[1].URL != "/uploads/alt.png" {
		t.Fatalf("relative URL altered: %q", dto.Images[1].URL)
	}
	if dto.Image != "/images/hero.png?v=2" {
		t.Fatalf("primary image = %q", dto.Image)
	}
}
