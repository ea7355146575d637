package api

// AlbumOutline is the summary record returned per list item.
type AlbumOutline struct {
	ID            int64  `json:"id"`
	Source        string `json:"source"`
	ThumbSource   string `json:"thumbSource"`
	PvCount       int64  `json:"pvCount"`
	DownloadCount int64  `json:"downloadCount"`
	BookmarkCount int64  `json:"bookmarkCount"`
	PageCount     int    `json:"pageCount"`
	IsBookmarked  bool   `json:"isBookmarked"`
	PlayedAt      string `json:"playedAt"`
	CreatedAt     string `json:"createdAt"`
	UpdatedAt     string `json:"updatedAt"`
}

type GetAlbumsResponse struct {
	AlbumsCountAll int64          `json:"albumsCountAll"`
	Albums         []AlbumOutline `json:"albums"`
}

// PageMetaData is the per-page description/player-name pair.
type PageMetaData struct {
	Description string `json:"description"`
	PlayerName  string `json:"playerName"`
}

// AlbumDetail is the full album record.
type AlbumDetail struct {
	ID                int64          `json:"id"`
	Source            string         `json:"source"`
	ThumbSource       string         `json:"thumbSource"`
	PvCount           int64          `json:"pvCount"`
	DownloadCount     int64          `json:"downloadCount"`
	BookmarkCount     int64          `json:"bookmarkCount"`
	PageCount         int            `json:"pageCount"`
	IsBookmarked      bool           `json:"isBookmarked"`
	PlayedAt          string         `json:"playedAt"`
	ContributorUserID string         `json:"contributorUserId"`
	GamemodeID        int64          `json:"gamemodeId"`
	Tags              []Tag          `json:"tags"`
	PageMetaData      []PageMetaData `json:"pageMetaData"`
}

type TempAlbumResponse struct {
	TemporaryAlbumUUID string         `json:"temporaryAlbumUuid"`
	HashMatchResult    *int64         `json:"hashMatchResult"`
	PageMetaData       []PageMetaData `json:"pageMetaData"`
}

type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type GetTagsResponse struct {
	TagsCountAll int64 `json:"tagsCountAll"`
	Tags         []Tag `json:"tags"`
}

type Gamemode struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type GetGamemodesResponse struct {
	GamemodesCountAll int64      `json:"gamemodesCountAll"`
	Gamemodes         []Gamemode `json:"gamemodes"`
}

type UserInfo struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

type AuthResponse struct {
	AccessToken string `json:"accessToken"`
}
