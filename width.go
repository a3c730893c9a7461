package ircchain

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// widthBuffer measures the on-screen width of IRC text, skipping the
// mIRC color codes ("\x03FG,BG").
type widthBuffer struct {
	width int
	color int
}

func (wb *widthBuffer) WriteString(s string) {
	for _, r := range s {
		wb.WriteRune(r)
	}
}

func (wb *widthBuffer) WriteRune(r rune) {
	switch wb.color {
	case 1:
		if '0' <= r && r <= '9' {
			wb.color = 2
			return
		}
		wb.color = 0
	case 2:
		if '0' <= r && r <= '9' {
			wb.color = 3
			return
		}
		if r == ',' {
			wb.color = 4
			return
		}
		wb.color = 0
	case 3:
		if r == ',' {
			wb.color = 4
			return
		}
		wb.color = 0
	case 4:
		if '0' <= r && r <= '9' {
			wb.color = 5
			return
		}
		// the comma was text after all
		wb.width++
		wb.color = 0
	case 5:
		wb.color = 0
		if '0' <= r && r <= '9' {
			return
		}
	}

	if r == 0x03 {
		wb.color = 1
		return
	}

	wb.width += runewidth.RuneWidth(r)
}

func StringWidth(s string) int {
	var wb widthBuffer
	wb.WriteString(s)
	return wb.width
}

// alignRight pads s on the left to fill width columns, or truncates it if it
// is wider.
func alignRight(s string, width int) string {
	w := StringWidth(s)
	if w > width {
		return runewidth.Truncate(s, width, "…")
	}
	return strings.Repeat(" ", width-w) + s
}
