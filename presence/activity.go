// Package presence turns game state into a rich presence activity and
// hands it to one or more publishers.
package presence

import (
	"fmt"
	"strings"
	"time"

	"fearrpc/discovery"
	"fearrpc/leveldb"
)

const (
	IconHealthy  = "healthy"
	IconInjured  = "injured"
	IconCritical = "critical"
	IconDead     = "dead"
	IconMenu     = "menu"
	IconOnline   = "online"

	DefaultTitle = "F.E.A.R"
)

type Assets struct {
	LargeImage string `json:"large_image,omitempty"`
	LargeText  string `json:"large_text,omitempty"`
	SmallImage string `json:"small_image,omitempty"`
	SmallText  string `json:"small_text,omitempty"`
}

type Timestamps struct {
	Start int64 `json:"start"`
}

type Button struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

type Activity struct {
	Details    string      `json:"details"`
	State      string      `json:"state"`
	Assets     Assets      `json:"assets"`
	Timestamps *Timestamps `json:"timestamps,omitempty"`
	Buttons    []Button    `json:"buttons,omitempty"`
}

// Input is everything Build needs from one tick.
type Input struct {
	Version     string
	Multiplayer bool
	InMenu      bool
	Level       string
	// Info is the level database entry for Level; nil falls back to the raw name.
	Info        *leveldb.Entry
	Health      float32
	HealthKnown bool
	Bounds      discovery.Bounds
	Deaths      int32
	Start       time.Time

	LargeImage       string
	MultiplayerImage string
}

func GameTitle(version string) string {
	switch version {
	case "FEAR", "FEARMP":
		return "F.E.A.R"
	case "FEAR2", "FEAR2MP":
		return "F.E.A.R 2"
	case "FEAR3", "Fear3":
		return "F.E.A.R 3"
	}
	return DefaultTitle
}

// HealthIcon picks the small image from health as a percentage of max.
func HealthIcon(health, maxHealth float32) string {
	if maxHealth <= 0 {
		maxHealth = discovery.DefaultBounds.Max
	}
	percent := health / maxHealth * 100
	switch {
	case percent > 75:
		return IconHealthy
	case percent > 30:
		return IconInjured
	case percent > 0:
		return IconCritical
	}
	return IconDead
}

// StoreURL is the Steam store page of a version, or "" when there is none.
func StoreURL(version string) string {
	switch {
	case version == "FEAR" || version == "FEARMP":
		return "https://store.steampowered.com/app/21090/FEAR/"
	case strings.Contains(version, "FEAR2"):
		return "https://store.steampowered.com/app/16450/FEAR_2_Project_Origin/"
	case strings.Contains(version, "FEAR3"):
		return "https://store.steampowered.com/app/21100/FEAR_3/"
	}
	return ""
}

func Build(in Input) Activity {
	title := GameTitle(in.Version)
	healthRange := fmt.Sprintf("%.0f", in.Bounds.Max)

	var a Activity
	switch {
	case in.Multiplayer:
		img := in.MultiplayerImage
		if img == "" {
			img = DefaultImages().Multiplayer
		}
		a.Details = fmt.Sprintf("🎮 %s Multiplayer", title)
		a.State = "Fighting online"
		a.Assets = Assets{
			LargeImage: img,
			LargeText:  title + " Combat",
			SmallImage: IconOnline,
			SmallText:  "Online",
		}

	case in.InMenu:
		a.Details = title + " - In main menu"
		a.State = "Selecting level"
		a.Assets = Assets{
			LargeImage: in.LargeImage,
			LargeText:  title + " - Menu",
			SmallImage: IconMenu,
			SmallText:  "Menu",
		}

	default:
		switch {
		case in.Info == nil:
			a.Details = title + " - " + in.Level
			a.State = "Exploring"
		case in.Info.Episode > 0:
			a.Details = fmt.Sprintf("%s - Episode %02d", title, in.Info.Episode)
			a.State = in.Info.Location
		default:
			a.Details = title + " - " + in.Info.Location
			a.State = in.Info.EpisodeName
		}

		health := in.Health
		if !in.HealthKnown {
			health = 0
		}
		if health > 0 {
			a.State += fmt.Sprintf(" | ❤️ %.0f/%s", health, healthRange)
		}
		if in.Deaths > 0 {
			a.State += fmt.Sprintf(" | ☠️ %d", in.Deaths)
		}

		a.Assets = Assets{
			LargeImage: in.LargeImage,
			LargeText:  title + " Single Player",
		}
		if in.HealthKnown {
			a.Assets.SmallImage = HealthIcon(health, in.Bounds.Max)
			if health > 0 {
				a.Assets.SmallText = fmt.Sprintf("Health: %.0f/%s", health, healthRange)
			} else {
				a.Assets.SmallText = "Dead"
			}
		}
	}

	if !in.Start.IsZero() {
		a.Timestamps = &Timestamps{Start: in.Start.Unix()}
	}
	if url := StoreURL(in.Version); url != "" {
		a.Buttons = []Button{{Label: "Steam Store", URL: url}}
	}
	return a
}

// StartTime picks the presence timer origin: process start, then game
// start, then now.
func StartTime(processStart, gameStart, now time.Time) time.Time {
	switch {
	case !processStart.IsZero():
		return processStart
	case !gameStart.IsZero():
		return gameStart
	}
	return now
}
