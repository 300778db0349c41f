package data

import (
	"fmt"
	"strings"
)

// AlbumStatus is stored as an integer. The zero value is not a valid status.
type AlbumStatus int

const (
	StatusWanted AlbumStatus = iota + 1
	StatusSnatched
	StatusDownloaded
	StatusSkipped
	StatusIgnored
)

var statusNames = map[AlbumStatus]string{
	StatusWanted:     "WANTED",
	StatusSnatched:   "SNATCHED",
	StatusDownloaded: "DOWNLOADED",
	StatusSkipped:    "SKIPPED",
	StatusIgnored:    "IGNORED",
}

// AlbumStatuses lists every valid status in declaration order.
var AlbumStatuses = []AlbumStatus{StatusWanted, StatusSnatched, StatusDownloaded, StatusSkipped, StatusIgnored}

func (s AlbumStatus) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("AlbumStatus(%d)", int(s))
}

func (s AlbumStatus) Valid() bool {
	_, ok := statusNames[s]
	return ok
}

// ParseAlbumStatus accepts status names case-insensitively.
func ParseAlbumStatus(name string) (AlbumStatus, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for status, n := range statusNames {
		if n == upper {
			return status, nil
		}
	}
	return 0, fmt.Errorf("unknown album status '%s'", name)
}

func (s AlbumStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid album status %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *AlbumStatus) UnmarshalText(text []byte) error {
	status, err := ParseAlbumStatus(string(text))
	if err != nil {
		return err
	}
	*s = status
	return nil
}
