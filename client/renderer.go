package main

import (
	"fmt"
	"math"

	"github.com/gdamore/tcell/v2"

	"spacewar/protocol"
)

// Arena geometry as simulated by the server
const (
	arenaWidth   = 640
	arenaHeight  = 480
	planetRadius = 60
)

// Frame is everything drawn in one refresh
type Frame struct {
	Players   [protocol.MaxPlayers]protocol.PlayerState
	Self      int // our slot, -1 when not connected
	Countdown int // seconds, 0 when no countdown runs
	Status    string
	Console   []string
	Prompt    string
	Typing    bool // show the prompt line
}

// Renderer is the drawing collaborator
type Renderer interface {
	Draw(Frame)
}

var (
	styleHUD     = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	stylePlanet  = tcell.StyleDefault.Foreground(tcell.ColorDodgerBlue)
	styleTorpedo = tcell.StyleDefault.Foreground(tcell.ColorOrangeRed)
	styleExplode = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleConsole = tcell.StyleDefault.Foreground(tcell.ColorSilver)
	shipStyles   = [protocol.MaxPlayers]tcell.Style{
		tcell.StyleDefault.Foreground(tcell.ColorAqua),
		tcell.StyleDefault.Foreground(tcell.ColorYellow),
	}
)

// headings indexed by octant, clockwise from east (screen y points down)
var headings = []rune{'→', '↘', '↓', '↙', '←', '↖', '↑', '↗'}

// ScreenRenderer draws frames on a tcell screen, scaling the arena to fit
// above the console
type ScreenRenderer struct {
	screen tcell.Screen
}

func NewScreenRenderer(screen tcell.Screen) *ScreenRenderer {
	return &ScreenRenderer{screen: screen}
}

func (r *ScreenRenderer) Draw(f Frame) {
	s := r.screen
	s.Clear()
	w, h := s.Size()

	consoleRows := len(f.Console)
	if f.Typing {
		consoleRows++
	}
	arenaTop := 1
	arenaRows := h - arenaTop - consoleRows
	if arenaRows < 4 {
		arenaRows = 4
	}
	sx := float64(w) / arenaWidth
	sy := float64(arenaRows) / arenaHeight
	cell := func(x, y float32) (int, int) {
		return int(float64(x) * sx), arenaTop + int(float64(y)*sy)
	}

	// planet
	cx, cy := arenaWidth/2.0, arenaHeight/2.0
	for row := 0; row < arenaRows; row++ {
		wy := (float64(row) + 0.5) / sy
		for col := 0; col < w; col++ {
			wx := (float64(col) + 0.5) / sx
			if math.Hypot(wx-cx, wy-cy) <= planetRadius {
				s.SetContent(col, arenaTop+row, '░', nil, stylePlanet)
			}
		}
	}

	for n, p := range f.Players {
		if t := p.Torpedo; t.Visible() {
			x, y := cell(t.X, t.Y)
			s.SetContent(x, y, '•', nil, styleTorpedo)
		}
		ship := p.Ship
		if !ship.Visible() {
			continue
		}
		x, y := cell(ship.X, ship.Y)
		switch {
		case ship.Exploding():
			s.SetContent(x, y, '*', nil, styleExplode)
		default:
			style := shipStyles[n]
			if ship.ShieldOn() {
				style = style.Reverse(true)
			}
			if n == f.Self {
				style = style.Bold(true)
			}
			s.SetContent(x, y, headingRune(float64(ship.Radians)), nil, style)
			if ship.EngineOn() {
				tx, ty := cell(ship.X-float32(12*math.Cos(float64(ship.Radians))), ship.Y-float32(12*math.Sin(float64(ship.Radians))))
				if tx != x || ty != y {
					s.SetContent(tx, ty, '·', nil, styleTorpedo)
				}
			}
		}
	}

	// score line
	col := 0
	for n, p := range f.Players {
		label := fmt.Sprintf("P%d", n+1)
		if n == f.Self {
			label += " (you)"
		}
		text := fmt.Sprintf("%s score %d health %d   ", label, p.Ship.Score, int(p.Ship.Health))
		col = drawText(s, col, 0, text, shipStyles[n])
	}
	if f.Status != "" {
		drawText(s, col, 0, f.Status, styleHUD)
	}

	if f.Countdown > 0 {
		msg := fmt.Sprintf("Round starts in %d", f.Countdown)
		drawText(s, (w-len(msg))/2, arenaTop+arenaRows/2-planetRows(sy)-1, msg, styleHUD)
	}

	row := h - consoleRows
	for _, line := range f.Console {
		drawText(s, 0, row, line, styleConsole)
		row++
	}
	if f.Typing {
		drawText(s, 0, row, "> "+f.Prompt+"_", styleHUD)
	}
	s.Show()
}

// planetRows is the planet's radius in screen rows
func planetRows(sy float64) int {
	return int(planetRadius * sy)
}

func headingRune(radians float64) rune {
	a := math.Mod(radians, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	octant := int(math.Round(a/(math.Pi/4))) % len(headings)
	return headings[octant]
}

// drawText writes text from (x, y) and returns the column after it
func drawText(s tcell.Screen, x, y int, text string, style tcell.Style) int {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x++
	}
	return x
}
