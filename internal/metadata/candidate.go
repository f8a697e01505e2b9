package metadata

import (
	"sort"
	"strings"
)

// Kind classifies a release.
type Kind string

const (
	KindAlbum  Kind = "album"
	KindSingle Kind = "single"
	KindEP     Kind = "ep"
	KindOther  Kind = "other"
)

// ParseKind maps a catalog release type onto a Kind.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "album":
		return KindAlbum
	case "single":
		return KindSingle
	case "ep":
		return KindEP
	default:
		return KindOther
	}
}

// Status is the release status reported by the catalog.
type Status string

const (
	StatusOfficial    Status = "official"
	StatusPromotional Status = "promotional"
	StatusBootleg     Status = "bootleg"
	StatusOther       Status = "other"
)

// ParseStatus maps a catalog release status onto a Status. MusicBrainz
// calls promotional releases "Promotion".
func ParseStatus(s string) Status {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "official":
		return StatusOfficial
	case strings.Contains(s, "promotion"):
		return StatusPromotional
	case s == "bootleg":
		return StatusBootleg
	default:
		return StatusOther
	}
}

// Candidate is one release containing the searched recording.
type Candidate struct {
	Album          string
	Year           int
	Artist         string
	Track          int
	Kind           Kind
	Title          string
	Status         Status
	ReleaseGroupID string

	// Hits counts the raw search results that collapsed into this candidate.
	Hits int
}

type candidateKey struct {
	album  string
	year   int
	artist string
	kind   Kind
	track  int
}

func (c Candidate) key() candidateKey {
	return candidateKey{album: c.Album, year: c.Year, artist: c.Artist, kind: c.Kind, track: c.Track}
}

// Dedupe collapses candidates with the same album, year, artist, kind and
// track, keeping the first of each. The result is ordered by descending
// Hits, then album, year and track.
func Dedupe(candidates []Candidate) []Candidate {
	index := make(map[candidateKey]int, len(candidates))
	out := make([]Candidate, 0, len(candidates))

	for _, c := range candidates {
		hits := c.Hits
		if hits < 1 {
			hits = 1
		}
		if i, ok := index[c.key()]; ok {
			out[i].Hits += hits
			continue
		}
		c.Hits = hits
		index[c.key()] = len(out)
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Hits != b.Hits {
			return a.Hits > b.Hits
		}
		if a.Album != b.Album {
			return a.Album < b.Album
		}
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return a.Track < b.Track
	})
	return out
}

// SortByRelease orders candidates oldest first, shorter album names first
// within a year. Equal candidates keep their relative order.
func SortByRelease(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		return len(a.Album) < len(b.Album)
	})
}
