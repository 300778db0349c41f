package data

import "encoding/json"

// A Document is a raw catalog response, stored as JSON.
type Document map[string]any

// TrackListKey is where the importer embeds an album's track listing in its
// release group document.
const TrackListKey = "track-list"

// Tracks decodes the embedded track listing. The value is a []Track before a
// round trip through the database and a []any afterwards.
func (d Document) Tracks() []Track {
	raw, ok := d[TrackListKey]
	if !ok || raw == nil {
		return nil
	}
	if tracks, ok := raw.([]Track); ok {
		return tracks
	}
	bs, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var tracks []Track
	if err := json.Unmarshal(bs, &tracks); err != nil {
		return nil
	}
	return tracks
}

// HasTracks reports whether a track listing has been embedded.
func (d Document) HasTracks() bool {
	_, ok := d[TrackListKey]
	return ok
}

// Tags returns the document's MusicBrainz tags with a positive count.
func (d Document) Tags() []string {
	raw, ok := d["tags"].([]any)
	if !ok {
		return nil
	}
	var tags []string
	for _, item := range raw {
		tag, ok := item.(map[string]any)
		if !ok {
			continue
		}
		name, _ := tag["name"].(string)
		count, _ := tag["count"].(float64)
		if name != "" && count > 0 {
			tags = append(tags, name)
		}
	}
	return tags
}

// FirstReleaseID returns the id of the first release listed in a release
// group document.
func (d Document) FirstReleaseID() string {
	raw, _ := d["releases"].([]any)
	for _, item := range raw {
		release, _ := item.(map[string]any)
		if id, _ := release["id"].(string); id != "" {
			return id
		}
	}
	return ""
}
