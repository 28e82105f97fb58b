package tmdb

import "github.com/mmcdole/cineverse/internal/domain"

// mapPage converts a list envelope. hint is the kind implied by the endpoint
// and applies when a result carries no media_type of its own.
func mapPage(r pageResponse, hint domain.MediaKind) *domain.Page {
	return &domain.Page{
		Number:       r.Page,
		TotalPages:   r.TotalPages,
		TotalResults: r.TotalResults,
		Results:      mapResults(r.Results, hint),
	}
}

func mapResults(items []resultItem, hint domain.MediaKind) []domain.Media {
	out := make([]domain.Media, 0, len(items))
	for _, it := range items {
		out = append(out, mapMedia(it, hint))
	}
	return out
}

func mapMedia(it resultItem, hint domain.MediaKind) domain.Media {
	kind := domain.InferKind(domain.KindHints{
		MediaType:    it.MediaType,
		Title:        it.Title,
		ReleaseDate:  it.ReleaseDate,
		Name:         it.Name,
		FirstAirDate: it.FirstAirDate,
	})
	if it.MediaType == "" && hint != "" {
		kind = hint
	}

	m := domain.Media{
		ID:               it.ID,
		Kind:             kind,
		Title:            it.Title,
		OriginalTitle:    it.OriginalTitle,
		Overview:         it.Overview,
		PosterPath:       it.PosterPath,
		BackdropPath:     it.BackdropPath,
		ReleaseDate:      it.ReleaseDate,
		VoteAverage:      it.VoteAverage,
		VoteCount:        it.VoteCount,
		GenreIDs:         it.GenreIDs,
		OriginalLanguage: it.OriginalLanguage,
		OriginCountry:    it.OriginCountry,
		Popularity:       it.Popularity,
	}
	if m.Title == "" {
		m.Title = it.Name
	}
	if m.OriginalTitle == "" {
		m.OriginalTitle = it.OriginalName
	}
	if m.ReleaseDate == "" {
		m.ReleaseDate = it.FirstAirDate
	}
	if m.GenreIDs == nil {
		m.GenreIDs = []int{}
	}
	return m
}

func mapGenres(items []genreItem) []domain.Genre {
	out := make([]domain.Genre, 0, len(items))
	for _, g := range items {
		out = append(out, domain.Genre{ID: g.ID, Name: g.Name})
	}
	return out
}

func mapDetails(r detailsResponse, kind domain.MediaKind) *domain.Details {
	d := &domain.Details{
		Media:            mapMedia(r.resultItem, kind),
		Tagline:          r.Tagline,
		Status:           r.Status,
		Runtime:          r.Runtime,
		NumberOfSeasons:  r.NumberOfSeasons,
		NumberOfEpisodes: r.NumberOfEpisodes,
		Genres:           mapGenres(r.Genres),
	}
	if len(r.EpisodeRunTime) > 0 {
		d.EpisodeRuntime = r.EpisodeRunTime[0]
	}

	// Detail payloads list genres as objects rather than ids
	if len(d.GenreIDs) == 0 {
		for _, g := range r.Genres {
			d.GenreIDs = append(d.GenreIDs, g.ID)
		}
	}

	for _, v := range r.Videos.Results {
		d.Videos = append(d.Videos, domain.Video{Key: v.Key, Name: v.Name, Site: v.Site, Type: v.Type})
	}
	for _, c := range r.Credits.Cast {
		d.Cast = append(d.Cast, domain.CastMember{Name: c.Name, Character: c.Character, Order: c.Order})
	}
	for _, c := range r.Credits.Crew {
		d.Crew = append(d.Crew, domain.CrewMember{Name: c.Name, Job: c.Job, Department: c.Department})
	}
	// Recommendations for a title are the same kind as the title
	d.Recommendations = mapResults(r.Recommendations.Results, kind)
	return d
}
