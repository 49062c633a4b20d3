package presence

import (
	"strings"
	"time"
)

const DefaultImageInterval = 10 * time.Second

// Images names the uploaded art assets.
type Images struct {
	Large       []string `mapstructure:"large" toml:"large"`
	Menu        string   `mapstructure:"menu" toml:"menu"`
	Multiplayer string   `mapstructure:"multiplayer" toml:"multiplayer"`
	Fear2       string   `mapstructure:"fear2" toml:"fear2"`
	Fear3       string   `mapstructure:"fear3" toml:"fear3"`
}

func DefaultImages() Images {
	return Images{
		Large:       []string{"fear_menu", "main"},
		Menu:        "fear_menu",
		Multiplayer: "fear_mp",
		Fear2:       "fear2",
		Fear3:       "fear3",
	}
}

// Rotator cycles through the large images, advancing at most once per interval.
type Rotator struct {
	images   Images
	interval time.Duration
	index    int
	last     time.Time
}

func NewRotator(images Images, interval time.Duration) *Rotator {
	return &Rotator{images: images, interval: interval}
}

// Next returns the large image for version at now. The first call always advances.
func (r *Rotator) Next(version string, now time.Time) string {
	if len(r.images.Large) == 0 {
		if r.images.Menu != "" {
			return r.images.Menu
		}
		return "fear_menu"
	}

	if r.last.IsZero() || now.Sub(r.last) >= r.interval {
		r.index = (r.index + 1) % len(r.images.Large)
		r.last = now
	}
	if r.index >= len(r.images.Large) {
		r.index = 0
	}
	base := r.images.Large[r.index]

	switch {
	case strings.Contains(version, "2") && r.images.Fear2 != "":
		return r.images.Fear2
	case strings.Contains(version, "3") && r.images.Fear3 != "":
		return r.images.Fear3
	}
	return base
}

func (r *Rotator) Index() int { return r.index }

// SetIndex restores a saved index. Out of range values wrap.
func (r *Rotator) SetIndex(i int) {
	if n := len(r.images.Large); n > 0 {
		i %= n
		if i < 0 {
			i += n
		}
	} else {
		i = 0
	}
	r.index = i
}

func (r *Rotator) Reset() {
	r.index = 0
	r.last = time.Time{}
}

func (r *Rotator) Images() Images { return r.images }
