package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/abrezinsky/picklecup/internal/engine"
	apperrors "github.com/abrezinsky/picklecup/internal/errors"
	"github.com/abrezinsky/picklecup/internal/models"
	"github.com/abrezinsky/picklecup/internal/services"
	"github.com/abrezinsky/picklecup/internal/state"
)

const womenCSV = `STT,Cặp VĐV,Đơn vị,Bảng
1,Hà - Mai,Điện lực TP,A
2,Lan - Hoa,Điện lực TP,B
3,Thu - Trang,Ban Giám Đốc,A
4,Ngọc - Yến,Phòng Kỹ Thuật,B
5,,Thiếu tên,A
6,Vy - Linh,Điện lực Yên Sơn,
`

func TestImportRoster(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.ImportRoster(ctx, models.CategoryWomen, strings.NewReader(womenCSV), "nu.csv", "text/csv")
	if err != nil {
		t.Fatalf("ImportRoster failed: %v", err)
	}
	if res.Imported != 5 {
		t.Errorf("Imported = %d, want 5", res.Imported)
	}
	if len(res.RowErrors) != 1 || res.RowErrors[0].Row != 6 {
		t.Errorf("RowErrors = %+v", res.RowErrors)
	}
	if len(res.Category.Groups) != 2 {
		t.Errorf("groups = %d, want A and B", len(res.Category.Groups))
	}

	entries, _ := f.svc.Audit(ctx, "nu", 10)
	if len(entries) != 1 || entries[0].Action != "import" {
		t.Errorf("audit = %+v", entries)
	}
}

func TestImportRoster_NoValidRows(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.ImportRoster(context.Background(), models.CategoryMen, strings.NewReader("STT,Cặp VĐV\n1,\n"), "", "")
	if !errors.Is(err, services.ErrEmptyRoster) {
		t.Fatalf("err = %v, want ErrEmptyRoster", err)
	}
	if !apperrors.IsKind(err, apperrors.ErrValidation) {
		t.Error("empty roster should be a validation error")
	}
	if res == nil || len(res.RowErrors) != 1 {
		t.Errorf("row errors should still be reported: %+v", res)
	}
}

func TestImportTeams_SkipsInvalidTeams(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.ImportTeams(context.Background(), models.CategoryWomen, []models.Team{
		{Name1: "Hà", Name2: "Mai"},
		{Name1: "", Name2: "Không tên"},
		{Name1: "Lan", Name2: "Hoa"},
	})
	if err != nil {
		t.Fatalf("ImportTeams failed: %v", err)
	}
	if res.Imported != 2 || len(res.Category.Teams) != 2 {
		t.Errorf("Imported = %d, teams = %d, want 2", res.Imported, len(res.Category.Teams))
	}
	if len(res.RowErrors) != 1 || res.RowErrors[0].Row != 2 {
		t.Errorf("RowErrors = %+v, want row 2", res.RowErrors)
	}
}

func TestImportTeams_AllInvalid(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.ImportTeams(context.Background(), models.CategoryMen, []models.Team{{Name2: "Một mình"}})
	if !errors.Is(err, services.ErrEmptyRoster) {
		t.Fatalf("err = %v, want ErrEmptyRoster", err)
	}
	if res == nil || len(res.RowErrors) != 1 {
		t.Errorf("row errors should be reported: %+v", res)
	}
	if cat, _ := f.container.Category(models.CategoryMen); len(cat.Teams) != 0 {
		t.Error("a rejected import must not touch the category")
	}
}

func TestImportTeams_UnknownCategory(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.ImportTeams(context.Background(), "doi-tre", []models.Team{{Name1: "X"}})
	if !apperrors.IsKind(err, apperrors.ErrNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestImportTeams_AuditFailureDoesNotFailCommand(t *testing.T) {
	f := newFixture(t)
	f.repo.RecordAuditError = errors.New("database is locked")

	res, err := f.svc.ImportTeams(context.Background(), models.CategoryWomen, []models.Team{
		{Name1: "A", Name2: "B"}, {Name1: "C", Name2: "D"},
	})
	if err != nil {
		t.Fatalf("ImportTeams failed: %v", err)
	}
	if res.Imported != 2 {
		t.Errorf("Imported = %d", res.Imported)
	}
}

func TestUpdateMatch_RecordsScore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, _ := f.svc.ImportTeams(ctx, models.CategoryWomen, []models.Team{
		{Name1: "Hà", Name2: "Mai"}, {Name1: "Lan", Name2: "Hoa"}, {Name1: "Thu", Name2: "Trang"}, {Name1: "Vy", Name2: "Linh"},
	})
	m := res.Category.Matches[0]

	score := models.MatchScore{Set1: models.SetScore{A: 11, B: 5}}
	court := "Sân A3"
	cat, err := f.svc.UpdateMatch(ctx, models.CategoryWomen, m.ID, state.MatchUpdate{Score: &score, Court: &court})
	if err != nil {
		t.Fatalf("UpdateMatch failed: %v", err)
	}
	got := cat.Matches[cat.MatchIndex(m.ID)]
	if !got.IsFinished || models.StrValue(got.WinnerID) != models.StrValue(m.TeamAID) || got.Court != "Sân A3" {
		t.Errorf("match = %+v", got)
	}

	entries, _ := f.svc.Audit(ctx, "nu", 1)
	if len(entries) != 1 || entries[0].MatchID != m.ID {
		t.Fatalf("audit = %+v", entries)
	}
	if !strings.Contains(entries[0].Detail, "score 11-5") || !strings.Contains(entries[0].Detail, "court Sân A3") {
		t.Errorf("detail = %q", entries[0].Detail)
	}

	if _, err := f.svc.UpdateMatch(ctx, models.CategoryWomen, "missing", state.MatchUpdate{Score: &score}); !apperrors.IsKind(err, apperrors.ErrNotFound) {
		t.Errorf("unknown match err = %v", err)
	}
}

func TestSetWinner(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, _ := f.svc.ImportTeams(ctx, models.CategoryWomen, []models.Team{{Name1: "Hà", Name2: "Mai"}, {Name1: "Lan", Name2: "Hoa"}})
	m := res.Category.Matches[0]

	cat, err := f.svc.SetWinner(ctx, models.CategoryWomen, m.ID, m.TeamBID)
	if err != nil {
		t.Fatalf("SetWinner failed: %v", err)
	}
	got := cat.Matches[0]
	if !got.Override || !got.IsFinished || models.StrValue(got.WinnerID) != models.StrValue(m.TeamBID) {
		t.Errorf("match = %+v", got)
	}

	cat, _ = f.svc.SetWinner(ctx, models.CategoryWomen, m.ID, nil)
	if cat.Matches[0].IsFinished {
		t.Error("clearing the winner should reopen the match")
	}

	entries, _ := f.svc.Audit(ctx, "nu", 2)
	if len(entries) != 2 || entries[0].Detail != "cleared" || entries[1].Action != "winner" {
		t.Errorf("audit = %+v", entries)
	}
}

func TestReorderMatches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	res, _ := f.svc.ImportTeams(ctx, models.CategoryWomen, []models.Team{
		{Name1: "1"}, {Name1: "2"}, {Name1: "3"}, {Name1: "4"}, {Name1: "5"}, {Name1: "6"},
	})
	var ids []string
	for i := len(res.Category.Matches) - 1; i >= 0; i-- {
		ids = append(ids, res.Category.Matches[i].ID)
	}

	cat, err := f.svc.ReorderMatches(ctx, models.CategoryWomen, ids)
	if err != nil {
		t.Fatalf("ReorderMatches failed: %v", err)
	}
	if cat.Matches[cat.MatchIndex(ids[0])].MatchNumber != 1 {
		t.Error("first id should be renumbered to 1")
	}

	if _, err := f.svc.ReorderMatches(ctx, models.CategoryWomen, ids[:1]); err == nil {
		t.Error("expected error for a partial order")
	}
}

func TestVariant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.svc.Variant(ctx, models.CategoryMen)
	if err != nil || v != engine.VariantDefault {
		t.Errorf("default variant = %q, %v", v, err)
	}

	if err := f.svc.SetVariant(ctx, models.CategoryMen, engine.VariantWeakCD); err != nil {
		t.Fatalf("SetVariant failed: %v", err)
	}
	if v, _ := f.svc.Variant(ctx, models.CategoryMen); v != engine.VariantWeakCD {
		t.Errorf("variant = %q", v)
	}

	if err := f.svc.SetVariant(ctx, models.CategoryWomen, engine.VariantWeakCD); !apperrors.IsKind(err, apperrors.ErrValidation) {
		t.Errorf("weak-cd on nu err = %v", err)
	}
	if err := f.svc.SetVariant(ctx, "xyz", ""); !apperrors.IsKind(err, apperrors.ErrNotFound) {
		t.Errorf("unknown category err = %v", err)
	}

	f.repo.GetSettingError = errors.New("disk I/O error")
	if _, err := f.svc.Variant(ctx, models.CategoryMen); !apperrors.IsKind(err, apperrors.ErrInternal) {
		t.Errorf("read failure err = %v", err)
	}
}

func TestSeedBracket_UsesStoredVariant(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.playGroups(t, models.CategoryMen, 16)
	f.svc.SetVariant(ctx, models.CategoryMen, engine.VariantWeakCD)

	resp, err := f.svc.SeedBracket(ctx, models.CategoryMen, services.SeedRequest{})
	if err != nil {
		t.Fatalf("SeedBracket failed: %v", err)
	}
	if resp.Variant != engine.VariantWeakCD {
		t.Errorf("Variant = %q", resp.Variant)
	}
	if len(resp.Result.Created) != 7 {
		t.Errorf("Created = %v, want 7 knockout matches", resp.Result.Created)
	}

	standings, _ := f.results.Standings(ctx, models.CategoryMen)
	var groupD []models.Team
	for _, g := range standings {
		if g.Name == "D" {
			groupD = g.Teams
		}
	}
	tk1, _ := matchByNote(resp.Category, models.NoteQuarter1)
	if models.StrValue(tk1.TeamBID) != groupD[2].ID {
		t.Errorf("TK1 side B = %s, want third of group D", models.StrValue(tk1.TeamBID))
	}

	again, err := f.svc.SeedBracket(ctx, models.CategoryMen, services.SeedRequest{})
	if err != nil {
		t.Fatalf("second SeedBracket failed: %v", err)
	}
	if again.Result.Changed() {
		t.Errorf("reseeding should change nothing: %+v", again.Result)
	}
}

func TestSeedBracket_InvalidRequest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bogus := "triple"
	if _, err := f.svc.SeedBracket(ctx, models.CategoryMen, services.SeedRequest{Variant: &bogus}); !apperrors.IsKind(err, apperrors.ErrValidation) {
		t.Errorf("unknown variant err = %v", err)
	}
	if _, err := f.svc.SeedBracket(ctx, "abc", services.SeedRequest{}); !apperrors.IsKind(err, apperrors.ErrNotFound) {
		t.Errorf("unknown category err = %v", err)
	}
}

func TestSeedBracket_ProvisionalFillsIncompleteGroups(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.ImportTeams(ctx, models.CategoryWomen, []models.Team{
		{Name1: "1"}, {Name1: "2"}, {Name1: "3"}, {Name1: "4"},
	})

	resp, _ := f.svc.SeedBracket(ctx, models.CategoryWomen, services.SeedRequest{})
	bk1, _ := matchByNote(resp.Category, models.NoteSemi1)
	if bk1.TeamAID != nil {
		t.Error("unfinished groups should not fill semifinal slots")
	}

	resp, _ = f.svc.SeedBracket(ctx, models.CategoryWomen, services.SeedRequest{Provisional: true})
	bk1, _ = matchByNote(resp.Category, models.NoteSemi1)
	if bk1.TeamAID == nil || bk1.TeamBID == nil {
		t.Error("provisional seeding should fill semifinal slots from current standings")
	}
}

func TestClearAndReset(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.playGroups(t, models.CategoryWomen, 4)
	f.playGroups(t, models.CategoryLeaders, 8)

	cat, err := f.svc.ClearCategory(ctx, models.CategoryWomen)
	if err != nil || len(cat.Teams) != 0 || len(cat.Matches) != 0 {
		t.Errorf("ClearCategory = %+v, %v", cat, err)
	}
	if c, _ := f.svc.Category(ctx, models.CategoryLeaders); len(c.Teams) != 8 {
		t.Error("clearing one category must not touch another")
	}

	tour := f.svc.Reset(ctx)
	for _, key := range models.AllCategories {
		if len(tour.Categories[key].Teams) != 0 {
			t.Errorf("%s not empty after reset", key)
		}
	}
	entries, _ := f.svc.Audit(ctx, "*", 10)
	if len(entries) != 1 || entries[0].Action != "reset" {
		t.Errorf("audit = %+v", entries)
	}
}

func TestReplace(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Replace(ctx, nil); !errors.Is(err, services.ErrNilTournament) {
		t.Errorf("nil err = %v", err)
	}
	bogus := &models.Tournament{Categories: map[models.CategoryKey]*models.CategoryData{"xyz": {}}}
	if _, err := f.svc.Replace(ctx, bogus); !errors.Is(err, services.ErrNoCategoryKeys) {
		t.Errorf("unknown keys err = %v", err)
	}

	upload := &models.Tournament{Categories: map[models.CategoryKey]*models.CategoryData{
		models.CategoryMixed: {Teams: []models.Team{{ID: "t1", Name1: "An", Name2: "Bình"}}},
		"xyz":                {},
	}}
	out, err := f.svc.Replace(ctx, upload)
	if err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	mixed := out.Categories[models.CategoryMixed]
	if len(mixed.Teams) != 1 || mixed.Key != models.CategoryMixed || mixed.Name == "" {
		t.Errorf("mixed = %+v", mixed)
	}
	if _, ok := out.Categories["xyz"]; ok {
		t.Error("unknown category should be dropped")
	}
	if f.svc.Snapshot(ctx).Categories[models.CategoryMixed].Teams[0].ID != "t1" {
		t.Error("snapshot not replaced")
	}
}

func TestAudit_ListError(t *testing.T) {
	f := newFixture(t)
	f.repo.ListAuditError = errors.New("no such table")

	if _, err := f.svc.Audit(context.Background(), "", 10); !apperrors.IsKind(err, apperrors.ErrInternal) {
		t.Errorf("err = %v", err)
	}
}
