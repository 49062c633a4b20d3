package memory_map

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mapsFixture = `7f0000001000-7f0000002000 rw-p 00000000 00:00 0
00400000-00401000 r--p 00000000 08:01 42         /games/FEAR/FEAR.exe
00401000-0056c000 r-xp 00001000 08:01 42         /games/FEAR/FEAR.exe
7e000000-7e010000 r--p 00000000 08:01 77         /games/FEAR/Program Files/EngineServer.dll
bogus line
`

func TestParseMaps(t *testing.T) {
	items, err := ParseMaps(strings.NewReader(mapsFixture))
	require.NoError(t, err)
	require.Len(t, items, 4)

	assert.Equal(t, uint64(0x400000), items[0].Address, "regions are sorted by address")
	assert.Equal(t, uint(0x1000), items[0].Size)
	assert.Equal(t, "/games/FEAR/FEAR.exe", items[0].Pathname)
	assert.Equal(t, "/games/FEAR/Program Files/EngineServer.dll", items[2].Pathname)
	assert.Equal(t, "", items[3].Pathname)
	assert.True(t, items[3].IsWritable())
}

func TestFind(t *testing.T) {
	items, err := ParseMaps(strings.NewReader(mapsFixture))
	require.NoError(t, err)

	item := Find(0x401234, items)
	require.NotNil(t, item)
	assert.Equal(t, uint64(0x401000), item.Address)

	assert.Nil(t, Find(0x300000, items))
	assert.Nil(t, Find(0x56c000, items))
}

func TestModuleBase(t *testing.T) {
	items, err := ParseMaps(strings.NewReader(mapsFixture))
	require.NoError(t, err)

	base, ok := ModuleBase("fear.EXE", items)
	require.True(t, ok)
	assert.Equal(t, uint64(0x400000), base)

	_, ok = ModuleBase("FEAR2.exe", items)
	assert.False(t, ok)
}

func TestReadable(t *testing.T) {
	items := []MemoryMapItem{
		{Address: 0x1000, Size: 0x1000, Perms: "r--p"},
		{Address: 0x2000, Size: 0x1000, Perms: "---p"},
		{Address: 0x3000, Size: 0x1000, Perms: ""},
	}
	assert.Len(t, Readable(items), 1)
}
