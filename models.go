package qbt

// ListOptions filters the torrent listing endpoint. Empty fields are
// omitted from the request entirely.
type ListOptions struct {
	Filter   string
	Category string
}

// AddOptions configures a new torrent added by URL or magnet link.
type AddOptions struct {
	URLs     string
	SavePath string
	Category string
	Paused   bool
}

// TorrentInfo is a snapshot of one torrent as returned by torrents/info.
type TorrentInfo struct {
	Hash         string  `json:"hash"`
	Name         string  `json:"name"`
	Size         int64   `json:"size"`
	Progress     float64 `json:"progress"`
	DLSpeed      int64   `json:"dlspeed"`
	UPSpeed      int64   `json:"upspeed"`
	ETA          int64   `json:"eta"`
	State        string  `json:"state"`
	Category     string  `json:"category"`
	Tags         string  `json:"tags"`
	SavePath     string  `json:"save_path"`
	ContentPath  string  `json:"content_path"`
	AddedOn      int64   `json:"added_on"`
	CompletionOn int64   `json:"completion_on"`
	NumSeeds     int     `json:"num_seeds"`
	NumLeechs    int     `json:"num_leechs"`
	Ratio        float64 `json:"ratio"`
	Downloaded   int64   `json:"downloaded"`
	Uploaded     int64   `json:"uploaded"`
	MagnetURI    string  `json:"magnet_uri"`

	// MagnetLink is parsed client-side from MagnetURI; nil when the URI
	// is absent or unparsable.
	MagnetLink *MagnetLink `json:"magnet_link,omitempty"`
}

// TorrentProperties is the detailed view returned by torrents/properties.
type TorrentProperties struct {
	Hash            string  `json:"hash,omitempty"`
	Name            string  `json:"name,omitempty"`
	SavePath        string  `json:"save_path"`
	CreationDate    int64   `json:"creation_date"`
	Comment         string  `json:"comment"`
	TotalSize       int64   `json:"total_size"`
	TotalUploaded   int64   `json:"total_uploaded"`
	TotalDownloaded int64   `json:"total_downloaded"`
	TimeElapsed     int64   `json:"time_elapsed"`
	SeedingTime     int64   `json:"seeding_time"`
	ShareRatio      float64 `json:"share_ratio"`
	DLSpeed         int64   `json:"dl_speed"`
	UPSpeed         int64   `json:"up_speed"`
	Seeds           int     `json:"seeds"`
	Peers           int     `json:"peers"`
	PieceSize       int64   `json:"piece_size"`
	PiecesHave      int     `json:"pieces_have"`
	PiecesNum       int     `json:"pieces_num"`
}

// TorrentFile is one file inside a torrent, as returned by torrents/files.
type TorrentFile struct {
	Index    int     `json:"index"`
	Name     string  `json:"name"`
	Size     int64   `json:"size"`
	Progress float64 `json:"progress"`
	Priority int     `json:"priority"`
}

// TorrentDetails merges torrents/properties with the torrent's file list.
type TorrentDetails struct {
	TorrentProperties
	Files []TorrentFile `json:"files"`
}

// MagnetLink holds the fields extracted from a magnet URI.
type MagnetLink struct {
	Hash        string   `json:"hash"`
	DisplayName string   `json:"display_name"`
	Trackers    []string `json:"trackers,omitempty"`
}

// SearchStatus is one entry of the search/status response.
type SearchStatus struct {
	ID     int    `json:"id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
}

// SearchResult is a single hit returned by a search plugin.
type SearchResult struct {
	FileName   string `json:"fileName"`
	FileURL    string `json:"fileUrl"`
	FileSize   int64  `json:"fileSize"`
	NbSeeders  int    `json:"nbSeeders"`
	NbLeechers int    `json:"nbLeechers"`
	SiteURL    string `json:"siteUrl"`
	DescrLink  string `json:"descrLink,omitempty"`
	EngineName string `json:"engineName,omitempty"`
}

// SearchResults is the container returned by search/results.
type SearchResults struct {
	Results []SearchResult `json:"results"`
	Status  string         `json:"status"`
	Total   int            `json:"total"`
}

// SearchOptions configures the blocking Search helper.
type SearchOptions struct {
	Pattern  string
	Plugins  string // defaults to "all"
	Category string // defaults to "all"
	Limit    int    // defaults to DefaultSearchLimit
	Offset   int
}
