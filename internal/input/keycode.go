package input

import (
	"fmt"
	"strings"
	"unicode"
)

// Key codes. Printable keys use their upper-cased rune as the code; special
// keys live above the Unicode range so the two sets can never collide.
const (
	KeyEscape = 0x1100000 + iota
	KeyEnter
	KeyTab
	KeyBackspace
	KeySpace
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyInsert
	KeyDelete
	KeyShift
	KeyControl
	KeyAlt
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

var specialKeyNames = map[int]string{
	KeyEscape:    "ESC",
	KeyEnter:     "ENTER",
	KeyTab:       "TAB",
	KeyBackspace: "BACKSPACE",
	KeySpace:     "SPACE",
	KeyUp:        "UP",
	KeyDown:      "DOWN",
	KeyLeft:      "LEFT",
	KeyRight:     "RIGHT",
	KeyHome:      "HOME",
	KeyEnd:       "END",
	KeyPageUp:    "PGUP",
	KeyPageDown:  "PGDN",
	KeyInsert:    "INS",
	KeyDelete:    "DEL",
	KeyShift:     "SHIFT",
	KeyControl:   "CONTROL",
	KeyAlt:       "ALT",
}

// KeyFromRune returns the key code for a printable character. Letter case is
// folded so 'a' and 'A' bind the same physical key.
func KeyFromRune(r rune) int {
	return int(unicode.ToUpper(r))
}

// KeyName renders a key code for display in the binding editor.
func KeyName(code int) string {
	if name, ok := specialKeyNames[code]; ok {
		return name
	}
	if code >= KeyF1 && code <= KeyF12 {
		return fmt.Sprintf("F%d", code-KeyF1+1)
	}
	if code >= 0 && code <= unicode.MaxRune {
		return strings.ToUpper(string(rune(code)))
	}
	return "N/A"
}
