package search

import (
	"fmt"
	"strconv"
	"strings"

	"fearrpc/process"
	"fearrpc/process/memory_map"
)

// ParseAOB parses "8b 45 ?? c3" style patterns. Bytes may be separated by
// spaces or commas; "?" and "??" are wildcards. A quoted token "Docks"
// contributes its ASCII bytes.
func ParseAOB(s string) (process.AOB, error) {
	var pattern, mask []byte
	wild := false

	for _, tok := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' }) {
		switch {
		case tok == "?" || tok == "??":
			pattern = append(pattern, 0)
			mask = append(mask, 0)
			wild = true
		case len(tok) >= 2 && tok[0] == '"' && tok[len(tok)-1] == '"':
			for _, c := range []byte(tok[1 : len(tok)-1]) {
				pattern = append(pattern, c)
				mask = append(mask, 0xFF)
			}
		default:
			v, err := strconv.ParseUint(strings.TrimPrefix(strings.ToLower(tok), "0x"), 16, 8)
			if err != nil {
				return process.AOB{}, fmt.Errorf("invalid byte %q", tok)
			}
			pattern = append(pattern, byte(v))
			mask = append(mask, 0xFF)
		}
	}

	if len(pattern) == 0 {
		return process.AOB{}, fmt.Errorf("empty pattern")
	}
	if !wild {
		return process.ExactAOB(pattern), nil
	}
	return process.NewAOB(pattern, mask)
}

// FormatAOB is the inverse of ParseAOB for unquoted patterns.
func FormatAOB(aob process.AOB) string {
	parts := make([]string, len(aob.Pattern))
	for i, b := range aob.Pattern {
		if len(aob.Mask) > i && aob.Mask[i] == 0 {
			parts[i] = "??"
			continue
		}
		parts[i] = fmt.Sprintf("%02x", b)
	}
	return strings.Join(parts, " ")
}

// ScanRegions searches every readable region and returns the address of each
// match, stopping after limit matches when limit > 0. Regions that cannot be
// read are skipped.
func ScanRegions(r process.Reader, regions []memory_map.MemoryMapItem, aob process.AOB, limit int) []process.ProcessMemoryAddress {
	var out []process.ProcessMemoryAddress
	for _, region := range regions {
		if !region.IsReadable() || region.Size == 0 {
			continue
		}
		data, ok := readWindow(r, Window{
			Start: process.ProcessMemoryAddress(region.Address),
			Size:  process.ProcessMemorySize(region.Size),
		})
		if !ok {
			continue
		}
		for i := IndexAOB(data, aob, 0); i >= 0; i = IndexAOB(data, aob, i+1) {
			out = append(out, process.ProcessMemoryAddress(region.Address+uint64(i)))
			if limit > 0 && len(out) >= limit {
				return out
			}
		}
	}
	return out
}
