// Package hexdump renders remote memory for the scan and probe commands.
//
//	00401000  46 2e 45 2e 41 2e 52 00 | 00 00 00 00 10 20 40 00 | F.E.A.R. ..... @. | 0x402010
//
// The trailing column lists pointer-sized words that land in a mapped region.
package hexdump

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/Moonlight-Companies/gologger/coloransi"

	"fearrpc/process"
	"fearrpc/process/memory_map"
)

type Options struct {
	// BytesPerLine defaults to 16.
	BytesPerLine int
	// Base is the address of data[0].
	Base process.ProcessMemoryAddress
	// PointerSize selects the word width for the pointer column; 0 disables it.
	PointerSize int
	Regions     []memory_map.MemoryMapItem

	// Highlight marks data[HighlightOffset:HighlightOffset+HighlightLength].
	HighlightOffset int
	HighlightLength int
	Color           bool
}

func (o Options) highlighted(i int) bool {
	return o.HighlightLength > 0 && i >= o.HighlightOffset && i < o.HighlightOffset+o.HighlightLength
}

func (o Options) mark(s string) string {
	if o.Color {
		return coloransi.Color(coloransi.Red, coloransi.ColorOrange, s)
	}
	return strings.ToUpper(s)
}

// Dump writes data to w one line per BytesPerLine bytes.
func Dump(w io.Writer, data []byte, opts Options) error {
	if opts.BytesPerLine <= 0 {
		opts.BytesPerLine = 16
	}
	for off := 0; off < len(data); off += opts.BytesPerLine {
		end := off + opts.BytesPerLine
		if end > len(data) {
			end = len(data)
		}
		if _, err := io.WriteString(w, line(data, off, end, opts)+"\n"); err != nil {
			return err
		}
	}
	return nil
}

// String is Dump into a string.
func String(data []byte, opts Options) string {
	var sb strings.Builder
	_ = Dump(&sb, data, opts)
	return sb.String()
}

func line(data []byte, off, end int, opts Options) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%08x ", uint64(opts.Base)+uint64(off))

	half := opts.BytesPerLine / 2
	for i := off; i < off+opts.BytesPerLine; i++ {
		if half >= 4 && i-off == half {
			sb.WriteString(" |")
		}
		if i >= end {
			sb.WriteString("   ")
			continue
		}
		h := fmt.Sprintf("%02x", data[i])
		if opts.highlighted(i) {
			h = opts.mark(h)
		}
		sb.WriteString(" " + h)
	}

	sb.WriteString(" | ")
	for i := off; i < end; i++ {
		c := data[i]
		s := "."
		if c >= 0x20 && c < 0x7f {
			s = string(rune(c))
		}
		if opts.highlighted(i) && opts.Color {
			s = opts.mark(s)
		}
		sb.WriteString(s)
	}

	if ptrs := pointers(data[off:end], opts); len(ptrs) > 0 {
		sb.WriteString(strings.Repeat(" ", opts.BytesPerLine-(end-off)))
		sb.WriteString(" | ")
		sb.WriteString(strings.Join(ptrs, " "))
	}
	return sb.String()
}

func pointers(data []byte, opts Options) []string {
	width := opts.PointerSize
	if width != 4 && width != 8 || len(opts.Regions) == 0 {
		return nil
	}
	var out []string
	for i := 0; i+width <= len(data); i += width {
		var v uint64
		if width == 4 {
			v = uint64(binary.LittleEndian.Uint32(data[i:]))
		} else {
			v = binary.LittleEndian.Uint64(data[i:])
		}
		if v != 0 && memory_map.Find(v, opts.Regions) != nil {
			out = append(out, process.ProcessMemoryAddress(v).ToString())
		}
	}
	return out
}

// Around reads up to before+span+after bytes centred on addr, clipping at
// unreadable memory, and returns the data with its start address.
func Around(r process.Reader, addr process.ProcessMemoryAddress, span, before, after int) ([]byte, process.ProcessMemoryAddress, error) {
	start := addr
	if uint64(addr) >= uint64(before) {
		start = addr - process.ProcessMemoryAddress(before)
		if _, err := r.ReadMemory(start, 1); err != nil {
			start = addr
		}
	}
	size := process.ProcessMemorySize(int(addr-start) + span + after)
	data, err := process.ReadBytes(r, start, size)
	if err != nil {
		return nil, 0, err
	}
	return data, start, nil
}
