package relay

import (
	"fmt"
	"strings"
)

const hexDumpWidth = 16

func printableASCII(src []byte) string {
	var sb strings.Builder
	for _, b := range src {
		if b < 32 || b > 126 {
			sb.WriteByte('.')
		} else {
			sb.WriteByte(b)
		}
	}
	return sb.String()
}

// HexDump renders a chunk like `hexdump -C`: input offset, sixteen hex bytes
// split in two groups of eight, printable ASCII, and a final line with the
// offset just past the chunk. base is the input offset of data[0].
func HexDump(base int64, data []byte) string {
	var sb strings.Builder
	offset := 0
	for offset < len(data) {
		lineLen := len(data) - offset
		if lineLen > hexDumpWidth {
			lineLen = hexDumpWidth
		}
		var hex strings.Builder
		for i := 0; i < lineLen; i++ {
			if i > 0 && i%8 == 0 {
				hex.WriteByte(' ')
			}
			fmt.Fprintf(&hex, "%02X ", data[offset+i])
		}
		fmt.Fprintf(&sb, "%08X  %-49s |%s|\n", base+int64(offset),
			hex.String(), printableASCII(data[offset:offset+lineLen]))
		offset += lineLen
	}
	fmt.Fprintf(&sb, "%08X\n", base+int64(offset))
	return sb.String()
}
