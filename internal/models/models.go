package models

import "time"

// CategoryKey identifies one of the four fixed competition categories.
type CategoryKey string

const (
	CategoryLeaders CategoryKey = "lanhdao"
	CategoryMen     CategoryKey = "nam"
	CategoryWomen   CategoryKey = "nu"
	CategoryMixed   CategoryKey = "namnu"
)

// AllCategories is the display and iteration order of the categories.
var AllCategories = []CategoryKey{CategoryLeaders, CategoryMen, CategoryWomen, CategoryMixed}

var categoryNames = map[CategoryKey]string{
	CategoryLeaders: "Đôi Lãnh đạo",
	CategoryMen:     "Đôi Nam",
	CategoryWomen:   "Đôi Nữ",
	CategoryMixed:   "Đôi Nam Nữ",
}

// Valid reports whether k is one of the four known categories.
func (k CategoryKey) Valid() bool {
	_, ok := categoryNames[k]
	return ok
}

// DisplayName returns the Vietnamese label shown on the dashboard.
func (k CategoryKey) DisplayName() string {
	return categoryNames[k]
}

// Round labels used on generated matches.
const (
	RoundGroupStage = "Vòng bảng"
	RoundFinal      = "Chung kết"
)

// Note codes pinning knockout matches to their bracket slot.
const (
	NoteQuarter1 = "TK1"
	NoteQuarter2 = "TK2"
	NoteQuarter3 = "TK3"
	NoteQuarter4 = "TK4"
	NoteSemi1    = "BK1"
	NoteSemi2    = "BK2"
	NoteFinal    = "CK"
)

// TeamStats is derived from finished matches and never authoritative.
type TeamStats struct {
	Played     int `json:"played"`
	Won        int `json:"won"`
	Lost       int `json:"lost"`
	PointsDiff int `json:"pointsDiff"`
	Points     int `json:"points"`
}

// Team is a doubles pair.
type Team struct {
	ID               string     `json:"id"`
	Name1            string     `json:"name1"`
	Name2            string     `json:"name2"`
	Org              string     `json:"org"`
	GroupID          string     `json:"groupId,omitempty"`
	InitialGroupName string     `json:"initialGroupName,omitempty"`
	Stats            *TeamStats `json:"stats,omitempty"`
}

// DisplayName joins the two player names.
func (t Team) DisplayName() string {
	return t.Name1 + " & " + t.Name2
}

type SetScore struct {
	A int `json:"a"`
	B int `json:"b"`
}

// MatchScore holds up to three sets; unplayed sets stay 0-0.
type MatchScore struct {
	Set1 SetScore `json:"set1"`
	Set2 SetScore `json:"set2"`
	Set3 SetScore `json:"set3"`
}

// Sets returns the three sets in order.
func (s MatchScore) Sets() [3]SetScore {
	return [3]SetScore{s.Set1, s.Set2, s.Set3}
}

// Totals returns the summed score of each side across all sets.
func (s MatchScore) Totals() (a, b int) {
	for _, set := range s.Sets() {
		a += set.A
		b += set.B
	}
	return a, b
}

// Match is a group-stage match when GroupID is set and a knockout match otherwise.
// A nil team reference means the slot is still undetermined.
type Match struct {
	ID          string      `json:"id"`
	TeamAID     *string     `json:"teamAId"`
	TeamBID     *string     `json:"teamBId"`
	Score       MatchScore  `json:"score"`
	IsFinished  bool        `json:"isFinished"`
	WinnerID    *string     `json:"winnerId"`
	RoundName   string      `json:"roundName"`
	Category    CategoryKey `json:"category"`
	GroupID     string      `json:"groupId,omitempty"`
	Note        string      `json:"note,omitempty"`
	MatchNumber int         `json:"matchNumber,omitempty"`
	Time        string      `json:"time,omitempty"`
	Court       string      `json:"court,omitempty"`
	IsStarred   bool        `json:"isStarred,omitempty"`
	// Override is set when the winner was forced by an admin rather than derived from the score.
	Override bool `json:"override,omitempty"`
}

// IsKnockout reports whether the match belongs to the bracket.
func (m Match) IsKnockout() bool {
	return m.GroupID == ""
}

// Involves reports whether teamID plays in the match.
func (m Match) Involves(teamID string) bool {
	if teamID == "" {
		return false
	}
	return StrValue(m.TeamAID) == teamID || StrValue(m.TeamBID) == teamID
}

// Clone returns a copy that shares no pointers with m.
func (m Match) Clone() Match {
	c := m
	c.TeamAID = cloneStr(m.TeamAID)
	c.TeamBID = cloneStr(m.TeamBID)
	c.WinnerID = cloneStr(m.WinnerID)
	return c
}

type Group struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	TeamIDs []string `json:"teamIds"`
}

// CategoryData bundles everything a category needs to progress independently.
type CategoryData struct {
	Key     CategoryKey `json:"key"`
	Name    string      `json:"name"`
	Groups  []Group     `json:"groups"`
	Matches []Match     `json:"matches"`
	Teams   []Team      `json:"teams"`
}

// NewCategory returns an empty category with its display name.
func NewCategory(key CategoryKey) *CategoryData {
	return &CategoryData{
		Key:     key,
		Name:    key.DisplayName(),
		Groups:  []Group{},
		Matches: []Match{},
		Teams:   []Team{},
	}
}

// Team finds a team by ID.
func (c *CategoryData) Team(id string) (Team, bool) {
	for _, t := range c.Teams {
		if t.ID == id {
			return t, true
		}
	}
	return Team{}, false
}

// GroupByName finds a group by its display name.
func (c *CategoryData) GroupByName(name string) (Group, bool) {
	for _, g := range c.Groups {
		if g.Name == name {
			return g, true
		}
	}
	return Group{}, false
}

// MatchIndex returns the position of the match with the given ID, or -1.
func (c *CategoryData) MatchIndex(id string) int {
	for i := range c.Matches {
		if c.Matches[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy.
func (c *CategoryData) Clone() *CategoryData {
	if c == nil {
		return nil
	}
	out := &CategoryData{
		Key:     c.Key,
		Name:    c.Name,
		Groups:  make([]Group, len(c.Groups)),
		Matches: make([]Match, len(c.Matches)),
		Teams:   make([]Team, len(c.Teams)),
	}
	for i, g := range c.Groups {
		g.TeamIDs = append([]string(nil), g.TeamIDs...)
		out.Groups[i] = g
	}
	for i, m := range c.Matches {
		out.Matches[i] = m.Clone()
	}
	for i, t := range c.Teams {
		if t.Stats != nil {
			s := *t.Stats
			t.Stats = &s
		}
		out.Teams[i] = t
	}
	return out
}

// Tournament is the whole persisted snapshot.
type Tournament struct {
	Categories map[CategoryKey]*CategoryData `json:"categories"`
}

// NewTournament returns the four categories, all empty.
func NewTournament() *Tournament {
	t := &Tournament{Categories: make(map[CategoryKey]*CategoryData, len(AllCategories))}
	for _, key := range AllCategories {
		t.Categories[key] = NewCategory(key)
	}
	return t
}

// Clone returns a deep copy, filling in any category missing from the snapshot.
func (t *Tournament) Clone() *Tournament {
	out := NewTournament()
	if t == nil {
		return out
	}
	for key, cat := range t.Categories {
		if cat != nil {
			out.Categories[key] = cat.Clone()
		}
	}
	return out
}

// WSMessage is a websocket frame sent to dashboard clients.
type WSMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Str returns a pointer to s.
func Str(s string) *string {
	return &s
}

// StrValue dereferences p, returning "" for nil.
func StrValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func cloneStr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// AuditEntry records one admin action for the activity log.
type AuditEntry struct {
	ID        int64     `json:"id"`
	Category  string    `json:"category"`
	MatchID   string    `json:"matchId,omitempty"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
