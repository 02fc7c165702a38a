package models

type Badge struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Profile is the public Habbo profile as returned by the lookup endpoint.
type Profile struct {
	UniqueID       string  `json:"uniqueId"`
	FigureString   string  `json:"figureString"`
	Motto          string  `json:"motto"`
	Online         bool    `json:"online"`
	LastAccessTime string  `json:"lastAccessTime"`
	MemberSince    string  `json:"memberSince"`
	SelectedBadges []Badge `json:"selectedBadges"`
}
