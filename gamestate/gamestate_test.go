package gamestate

import (
	"math"
	"testing"

	"fearrpc/discovery"
	"fearrpc/process"
	"fearrpc/process_blob"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	levelAddr  = process.ProcessMemoryAddress(0x400100)
	healthAddr = process.ProcessMemoryAddress(0x400400)
	deathAddr  = process.ProcessMemoryAddress(0x400480)
)

var bounds = discovery.Bounds{Min: 0, Max: 150}

type fixture struct {
	img    *process_blob.ProcessDump
	region *process_blob.ProcessBlob
	addrs  discovery.Addresses
	tr     *Tracker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	img := process_blob.NewProcessDump(4)
	return &fixture{
		img:    img,
		region: img.AddRegion(0x400000, 0x1000),
		addrs: discovery.Addresses{
			Level:  process.At(levelAddr),
			Health: process.At(healthAddr),
			Deaths: process.At(deathAddr),
		},
		tr: NewTracker(),
	}
}

func (f *fixture) setLevel(s string) {
	f.region.PutBytes(levelAddr, make([]byte, MaxLevelNameLength))
	f.region.PutString(levelAddr, s)
}

func (f *fixture) tick() []Event {
	return f.tr.Tick(f.img, &f.addrs, bounds)
}

func kinds(events []Event, kind EventKind) []Event {
	var out []Event
	for _, e := range events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func TestDeathFiresOncePerTransition(t *testing.T) {
	f := newFixture(t)
	f.addrs.Deaths = process.Unresolved()

	var deaths []Event
	for _, h := range []float32{50, 0, 0, 0, 30} {
		f.region.PutF32(healthAddr, h)
		deaths = append(deaths, kinds(f.tick(), Death)...)
	}

	require.Len(t, deaths, 1)
	assert.Equal(t, int32(1), deaths[0].Deaths)
	assert.Equal(t, int32(1), f.tr.State().Deaths)
}

func TestDeathCountMonotonic(t *testing.T) {
	f := newFixture(t)
	f.addrs.Health = process.Unresolved()

	var got []int32
	for _, raw := range []int32{0, 3, 1, 5} {
		f.region.PutI32(deathAddr, raw)
		f.tick()
		got = append(got, f.tr.State().Deaths)
	}
	assert.Equal(t, []int32{0, 3, 3, 5}, got)
}

func TestNoDeathWithoutBaseline(t *testing.T) {
	f := newFixture(t)
	f.region.PutF32(healthAddr, 0)

	// first meaningful reading is already zero
	assert.Empty(t, kinds(f.tick(), Death))

	// health address lost then found again at zero
	f.addrs.Health = process.Unresolved()
	f.tick()
	f.addrs.Health = process.At(healthAddr)
	assert.Empty(t, kinds(f.tick(), Death))
}

func TestHealthClampAndDeadBand(t *testing.T) {
	f := newFixture(t)

	f.region.PutF32(healthAddr, 100)
	f.tick()

	f.region.PutF32(healthAddr, 100.5)
	assert.Empty(t, kinds(f.tick(), HealthChanged), "jitter below the dead band")

	f.region.PutF32(healthAddr, 400)
	changed := kinds(f.tick(), HealthChanged)
	require.Len(t, changed, 1)
	assert.Equal(t, float32(100.5), changed[0].OldHealth)
	assert.Equal(t, float32(150), changed[0].NewHealth)

	f.region.PutF32(healthAddr, float32(math.NaN()))
	f.tick()
	assert.Equal(t, float32(0), f.tr.State().Health)
}

func TestMultiplayerIgnoresHealthAndDeaths(t *testing.T) {
	f := newFixture(t)
	f.tr.SetMode("FEARMP", true)
	f.region.PutF32(healthAddr, 50)
	f.region.PutI32(deathAddr, 9)

	f.tick()
	f.region.PutF32(healthAddr, 0)
	events := f.tick()

	assert.Empty(t, kinds(events, Death))
	assert.Equal(t, float32(0), f.tr.State().Health)
	assert.False(t, f.tr.State().HealthKnown)
	assert.Equal(t, int32(0), f.tr.State().Deaths)
	assert.True(t, f.tr.State().Multiplayer)
}

func TestLevelChangeSkipsMenus(t *testing.T) {
	f := newFixture(t)

	f.setLevel("Intro.World00p")
	changed := kinds(f.tick(), LevelChanged)
	require.Len(t, changed, 1)
	assert.Equal(t, "", changed[0].OldLevel)
	assert.Equal(t, "Intro.World00p", changed[0].NewLevel)

	assert.Empty(t, kinds(f.tick(), LevelChanged), "same level")

	f.setLevel("")
	assert.Empty(t, kinds(f.tick(), LevelChanged))
	assert.Equal(t, MenuLabel, f.tr.State().Level)
	assert.True(t, f.tr.State().InMenu)

	f.setLevel("Intro.World00p")
	assert.Empty(t, kinds(f.tick(), LevelChanged), "back from the menu to the same level")

	f.setLevel("mainmenu.lvl")
	assert.Empty(t, kinds(f.tick(), LevelChanged))
	assert.True(t, f.tr.State().InMenu)

	f.setLevel("Docks.WORLD00P")
	changed = kinds(f.tick(), LevelChanged)
	require.Len(t, changed, 1)
	assert.Equal(t, "Intro.World00p", changed[0].OldLevel)
	assert.Equal(t, "Docks.WORLD00P", f.tr.LastLevel())
}

func TestLevelSentinels(t *testing.T) {
	f := newFixture(t)
	f.setLevel("Intro.World00p")
	f.tick()

	f.addrs.Level = process.Unresolved()
	events := f.tick()
	assert.Empty(t, kinds(events, LevelChanged))
	assert.Equal(t, LevelNotResolved, f.tr.State().Level)
	assert.True(t, f.tr.State().InMenu)

	events = f.tr.Tick(nil, &f.addrs, bounds)
	assert.Empty(t, events)
	assert.Equal(t, LevelNotResolved, f.tr.State().Level)
}

func TestLevelReadFailuresInvalidateAddress(t *testing.T) {
	f := newFixture(t)
	f.addrs.Level = process.At(0x900000)

	for i := 0; i < MaxLevelReadFailures; i++ {
		f.tick()
		assert.Equal(t, LevelReadError, f.tr.State().Level)
		assert.True(t, f.addrs.Level.IsResolved())
	}

	f.tick()
	assert.False(t, f.addrs.Level.IsResolved(), "invalidated after more than the allowed failures")
}

func TestRestoreDeathsAndProcessGone(t *testing.T) {
	tr := NewTracker()
	tr.RestoreDeaths(4)
	tr.RestoreDeaths(2)
	assert.Equal(t, int32(4), tr.State().Deaths)

	tr.ProcessGone()
	assert.Equal(t, int32(4), tr.State().Deaths)
	assert.True(t, tr.State().InMenu)
}

func TestIsMenuLevel(t *testing.T) {
	assert.True(t, IsMenuLevel(MenuLabel))
	assert.True(t, IsMenuLevel(LevelNotResolved))
	assert.True(t, IsMenuLevel("Intro.World"))
	assert.False(t, IsMenuLevel("intro.world00p"))
}

func TestDispatch(t *testing.T) {
	var got []EventKind
	sink := SinkFunc(func(e Event) { got = append(got, e.Kind) })

	Dispatch([]Event{{Kind: Death}, {Kind: LevelChanged}}, sink, sink)
	assert.Equal(t, []EventKind{Death, Death, LevelChanged, LevelChanged}, got)
	assert.Equal(t, "death #3", Event{Kind: Death, Deaths: 3}.String())
}
