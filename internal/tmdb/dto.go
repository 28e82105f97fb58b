package tmdb

// pageResponse is the envelope of every paginated list endpoint
type pageResponse struct {
	Page         int          `json:"page"`
	TotalPages   int          `json:"total_pages"`
	TotalResults int          `json:"total_results"`
	Results      []resultItem `json:"results"`
}

// resultItem covers movie, tv and person results from list and search endpoints
type resultItem struct {
	ID               int64    `json:"id"`
	MediaType        string   `json:"media_type"`
	Title            string   `json:"title"`
	OriginalTitle    string   `json:"original_title"`
	Name             string   `json:"name"`
	OriginalName     string   `json:"original_name"`
	Overview         string   `json:"overview"`
	PosterPath       string   `json:"poster_path"`
	BackdropPath     string   `json:"backdrop_path"`
	ReleaseDate      string   `json:"release_date"`
	FirstAirDate     string   `json:"first_air_date"`
	VoteAverage      float64  `json:"vote_average"`
	VoteCount        int      `json:"vote_count"`
	GenreIDs         []int    `json:"genre_ids"`
	OriginalLanguage string   `json:"original_language"`
	OriginCountry    []string `json:"origin_country"`
	Popularity       float64  `json:"popularity"`
}

type genreList struct {
	Genres []genreItem `json:"genres"`
}

type genreItem struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// detailsResponse is a movie or tv detail with appended videos, credits and recommendations
type detailsResponse struct {
	resultItem

	Tagline          string      `json:"tagline"`
	Status           string      `json:"status"`
	Runtime          int         `json:"runtime"`
	EpisodeRunTime   []int       `json:"episode_run_time"`
	NumberOfSeasons  int         `json:"number_of_seasons"`
	NumberOfEpisodes int         `json:"number_of_episodes"`
	Genres           []genreItem `json:"genres"`

	Videos struct {
		Results []videoItem `json:"results"`
	} `json:"videos"`
	Credits struct {
		Cast []castItem `json:"cast"`
		Crew []crewItem `json:"crew"`
	} `json:"credits"`
	Recommendations pageResponse `json:"recommendations"`
}

type videoItem struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	Site string `json:"site"`
	Type string `json:"type"`
}

type castItem struct {
	Name      string `json:"name"`
	Character string `json:"character"`
	Order     int    `json:"order"`
}

type crewItem struct {
	Name       string `json:"name"`
	Job        string `json:"job"`
	Department string `json:"department"`
}
