package reader

import "github.com/ABFCode/Librium-sub000/internal/entities"

// Plan says which section to open and what saved position applies to it.
type Plan struct {
	Section *entities.Section `json:"section"`
	// Saved is nil when the section was not chosen from saved progress.
	Saved *Saved `json:"saved"`
}

// PlanResume picks the section to open: the saved section id, then the saved
// section index, then the first section. Sections must be ordered by OrderIndex.
// It returns a zero Plan for a book without sections.
func PlanResume(progress *entities.UserBook, sections []entities.Section) Plan {
	if len(sections) == 0 {
		return Plan{}
	}
	if progress == nil {
		return Plan{Section: &sections[0]}
	}

	saved := SavedFromProgress(progress)
	if progress.LastSectionID != nil {
		for i := range sections {
			if sections[i].ID == *progress.LastSectionID {
				return Plan{Section: &sections[i], Saved: &saved}
			}
		}
	}
	for i := range sections {
		if sections[i].OrderIndex == progress.LastSectionIndex {
			return Plan{Section: &sections[i], Saved: &saved}
		}
	}
	return Plan{Section: &sections[0]}
}

// SavedFromProgress extracts the positional fields of a progress row.
func SavedFromProgress(p *entities.UserBook) Saved {
	return Saved{
		ChunkIndex:   p.LastChunkIndex,
		ChunkOffset:  p.LastChunkOffset,
		ScrollRatio:  p.LastScrollRatio,
		ScrollTop:    p.LastScrollTop,
		ScrollHeight: p.LastScrollHeight,
		ClientHeight: p.LastClientHeight,
	}
}
