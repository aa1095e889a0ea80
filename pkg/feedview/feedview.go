package feedview

import (
	"fmt"

	"thoughtstream/pkg/posts"
)

const (
	// SkeletonCount placeholder cards are rendered while the feed loads.
	SkeletonCount = 3
	// TruncateAt is where a collapsed card cuts the body off.
	TruncateAt = 150
)

const (
	EmptyTitle = "No Posts Found"
	EmptyHint  = "Create a new post to get started."
)

// Card is one rendered post.
type Card struct {
	ID        int    `json:"id"`
	UserID    int    `json:"userId"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Truncated bool   `json:"truncated"`
	Expanded  bool   `json:"expanded"`
	Liked     bool   `json:"liked"`
	Deleting  bool   `json:"deleting"`
	CanEdit   bool   `json:"canEdit"`
	CanDelete bool   `json:"canDelete"`
	Skeleton  bool   `json:"skeleton,omitempty"`
}

// Capabilities mark which per-card actions the composition wired up.
type Capabilities struct {
	Edit   bool
	Delete bool
}

// Page is the full browse view for one snapshot.
type Page struct {
	Loading    bool   `json:"loading"`
	Error      string `json:"error,omitempty"`
	Empty      bool   `json:"empty"`
	EmptyTitle string `json:"emptyTitle,omitempty"`
	EmptyHint  string `json:"emptyHint,omitempty"`
	Cards      []Card `json:"cards"`
	Summary    string `json:"summary,omitempty"`
	Page       int    `json:"page"`
	TotalPages int    `json:"totalPages"`
	Total      int    `json:"total"`
	HasPrev    bool   `json:"hasPrev"`
	HasNext    bool   `json:"hasNext"`
	Filter     string `json:"filter,omitempty"`
	Section    string `json:"section"`
	Submitting bool   `json:"submitting"`
}

// Build derives the renderable page from a feed snapshot: skeleton cards
// while loading, the empty state for a filtered-out or empty collection,
// otherwise one card per post on the current page.
func Build(st posts.FeedState, caps Capabilities) Page {
	page := Page{
		Error:      st.Err,
		Page:       st.Page,
		TotalPages: st.TotalPages,
		Total:      st.Total,
		HasPrev:    st.Page > 1,
		HasNext:    st.Page < st.TotalPages,
		Filter:     st.Filter,
		Section:    st.Section,
		Submitting: st.Submitting,
	}

	if st.State == posts.StateIdle || st.State == posts.StateLoading {
		page.Loading = true
		page.Cards = skeletons()
		return page
	}

	if st.Total == 0 {
		page.Empty = true
		page.EmptyTitle = EmptyTitle
		page.EmptyHint = EmptyHint
		return page
	}

	page.Summary = Summary(st.Page, st.TotalPages, st.Filter)
	page.Cards = make([]Card, 0, len(st.PagePosts))
	for _, p := range st.PagePosts {
		_, expanded := st.Expanded[p.ID]
		_, liked := st.Liked[p.ID]
		_, deleting := st.Deleting[p.ID]
		body, truncated := Truncate(p.Body, expanded)
		page.Cards = append(page.Cards, Card{
			ID:        p.ID,
			UserID:    p.UserID,
			Title:     p.Title,
			Body:      body,
			Truncated: truncated,
			Expanded:  expanded,
			Liked:     liked,
			Deleting:  deleting,
			CanEdit:   caps.Edit,
			CanDelete: caps.Delete,
		})
	}
	return page
}

// Truncate cuts a collapsed body at TruncateAt runes. The reported flag
// says whether a Read more/less toggle applies at all.
func Truncate(body string, expanded bool) (string, bool) {
	runes := []rune(body)
	if len(runes) <= TruncateAt {
		return body, false
	}
	if expanded {
		return body, true
	}
	return string(runes[:TruncateAt]) + "...", true
}

// Summary renders the "Page N of M" line, with the active filter appended
// the way the original header shows it.
func Summary(page, totalPages int, filter string) string {
	s := fmt.Sprintf("Page %d of %d", page, totalPages)
	if filter != "" {
		s += fmt.Sprintf(" • Filtered by User %s", filter)
	}
	return s
}

func skeletons() []Card {
	cards := make([]Card, SkeletonCount)
	for i := range cards {
		cards[i] = Card{Skeleton: true}
	}
	return cards
}
