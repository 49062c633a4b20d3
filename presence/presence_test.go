package presence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fearrpc/discovery"
	"fearrpc/leveldb"
)

func TestGameTitle(t *testing.T) {
	assert.Equal(t, "F.E.A.R", GameTitle("FEARMP"))
	assert.Equal(t, "F.E.A.R 2", GameTitle("FEAR2"))
	assert.Equal(t, "F.E.A.R 3", GameTitle("Fear3"))
	assert.Equal(t, "F.E.A.R", GameTitle("Condemned"))
}

func TestHealthIcon(t *testing.T) {
	assert.Equal(t, IconHealthy, HealthIcon(120, 150))
	assert.Equal(t, IconInjured, HealthIcon(75, 100))
	assert.Equal(t, IconCritical, HealthIcon(25, 100))
	// 30/100*100 is 30.000002 in float32, just above the critical band
	assert.Equal(t, IconInjured, HealthIcon(30, 100))
	assert.Equal(t, IconCritical, HealthIcon(29.9, 100))
	assert.Equal(t, IconCritical, HealthIcon(1, 200))
	assert.Equal(t, IconDead, HealthIcon(0, 150))
	assert.Equal(t, IconHealthy, HealthIcon(80, 0), "zero max uses the default range")
}

func TestBuildStoryLevel(t *testing.T) {
	start := time.Unix(1700000000, 0)
	info := leveldb.Default().Lookup("Docks.World00p")

	a := Build(Input{
		Version:     "FEAR",
		Level:       "Docks.World00p",
		Info:        &info,
		Health:      87.6,
		HealthKnown: true,
		Bounds:      discovery.Bounds{Min: 0, Max: 150},
		Deaths:      3,
		Start:       start,
		LargeImage:  "main",
	})

	assert.Equal(t, "F.E.A.R - Episode 02", a.Details)
	assert.Equal(t, "Incident at the Port | ❤️ 88/150 | ☠️ 3", a.State)
	assert.Equal(t, Assets{LargeImage: "main", LargeText: "F.E.A.R Single Player", SmallImage: IconInjured, SmallText: "Health: 88/150"}, a.Assets)
	require.NotNil(t, a.Timestamps)
	assert.Equal(t, int64(1700000000), a.Timestamps.Start)
	require.Len(t, a.Buttons, 1)
	assert.Equal(t, "https://store.steampowered.com/app/21090/FEAR/", a.Buttons[0].URL)
}

func TestBuildNonStoryAndDead(t *testing.T) {
	info := leveldb.Default().Lookup("Odd_Map.World00p")

	a := Build(Input{
		Version:     "FEAR2",
		Level:       "Odd_Map.World00p",
		Info:        &info,
		Health:      0,
		HealthKnown: true,
		Bounds:      discovery.Bounds{Max: 200},
	})

	assert.Equal(t, "F.E.A.R 2 - Odd_Map", a.Details)
	assert.Equal(t, leveldb.UnknownEpisode, a.State)
	assert.Equal(t, IconDead, a.Assets.SmallImage)
	assert.Equal(t, "Dead", a.Assets.SmallText)
	assert.Nil(t, a.Timestamps)
	assert.Contains(t, a.Buttons[0].URL, "FEAR_2_Project_Origin")
}

func TestBuildUnknownHealth(t *testing.T) {
	a := Build(Input{Version: "FEAR3", Level: "x.World00p", Health: 100, Bounds: discovery.Bounds{Max: 100}})

	assert.Equal(t, "F.E.A.R 3 - x.World00p", a.Details)
	assert.Equal(t, "Exploring", a.State)
	assert.Empty(t, a.Assets.SmallImage)
}

func TestBuildMenuAndMultiplayer(t *testing.T) {
	a := Build(Input{Version: "FEAR", InMenu: true, LargeImage: "fear_menu", Deaths: 5})
	assert.Equal(t, "F.E.A.R - In main menu", a.Details)
	assert.Equal(t, "Selecting level", a.State)
	assert.Equal(t, IconMenu, a.Assets.SmallImage)

	a = Build(Input{Version: "FEARMP", Multiplayer: true, InMenu: true})
	assert.Equal(t, "🎮 F.E.A.R Multiplayer", a.Details)
	assert.Equal(t, "Fighting online", a.State)
	assert.Equal(t, "fear_mp", a.Assets.LargeImage)
	assert.Equal(t, IconOnline, a.Assets.SmallImage)

	a = Build(Input{Version: "Custom", InMenu: true})
	assert.Empty(t, a.Buttons)
}

func TestStartTime(t *testing.T) {
	now := time.Unix(300, 0)
	p, g := time.Unix(100, 0), time.Unix(200, 0)

	assert.Equal(t, p, StartTime(p, g, now))
	assert.Equal(t, g, StartTime(time.Time{}, g, now))
	assert.Equal(t, now, StartTime(time.Time{}, time.Time{}, now))
}

func TestRotator(t *testing.T) {
	now := time.Unix(1000, 0)
	r := NewRotator(DefaultImages(), 10*time.Second)

	// first call advances from index 0
	assert.Equal(t, "main", r.Next("FEAR", now))
	assert.Equal(t, "main", r.Next("FEAR", now.Add(9*time.Second)))
	assert.Equal(t, "fear_menu", r.Next("FEAR", now.Add(10*time.Second)))
	assert.Equal(t, 0, r.Index())

	assert.Equal(t, "fear2", r.Next("FEAR2", now.Add(11*time.Second)))
	assert.Equal(t, "fear3", r.Next("FEAR3", now.Add(11*time.Second)))

	r.SetIndex(7)
	assert.Equal(t, 1, r.Index())
	r.Reset()
	assert.Equal(t, 0, r.Index())
	assert.Equal(t, "main", r.Next("FEAR", now.Add(12*time.Second)))
}

func TestRotatorNoImages(t *testing.T) {
	r := NewRotator(Images{}, time.Second)
	assert.Equal(t, "fear_menu", r.Next("FEAR", time.Now()))
	r.SetIndex(3)
	assert.Equal(t, 0, r.Index())
}
